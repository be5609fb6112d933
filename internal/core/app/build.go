package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"autoinject/internal/core/errors"
	"autoinject/internal/data/cache"
	"autoinject/internal/engine/inject"
	"autoinject/internal/shared/observability"
	"autoinject/internal/shared/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FileResult is the outcome for one source file.
type FileResult struct {
	Path    string
	Output  string // written path, empty when nothing was written
	MapPath string
	Status  inject.Status
	Imports []inject.PendingImport
	Warning string
	Cached  bool
	Err     error
}

// BuildSummary aggregates a build run. Files keeps input order.
type BuildSummary struct {
	RunID     string
	Files     []FileResult
	Rewritten int
	Unchanged int
	Warned    int
	Skipped   int
	Failed    int
	Cached    int
	Imports   int
	Modules   map[string]int
	Duration  time.Duration
}

func (s *BuildSummary) add(r FileResult) {
	if r.Err != nil {
		s.Failed++
		return
	}
	if r.Cached {
		s.Cached++
	}
	switch r.Status {
	case inject.StatusRewritten:
		s.Rewritten++
		s.Imports += len(r.Imports)
	case inject.StatusUnchanged:
		s.Unchanged++
	case inject.StatusWarned:
		s.Warned++
	default:
		s.Skipped++
	}
}

// Build transforms every supported file under paths (the configured paths
// when empty). Files are processed by a.Workers goroutines; cancellation is
// checked between files and returned after the pool drains.
func (a *App) Build(ctx context.Context, paths []string) (*BuildSummary, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Build")
	defer span.End()

	started := time.Now()
	cfg, _, _ := a.current()
	if len(paths) == 0 {
		paths = cfg.Paths
	}

	files, err := a.collect(paths)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.AddContext(err, errors.CtxOperation, "scan")
	}
	span.SetAttributes(attribute.Int("files", len(files)))

	runID := a.beginRun(started)
	results := make([]FileResult, len(files))

	workers := a.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = a.processFile(ctx, files[i], runID)
			}
		}()
	}

feed:
	for i := range files {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	summary := &BuildSummary{RunID: runID, Modules: a.takeModules()}
	for _, r := range results {
		if r.Path == "" {
			// not dispatched before cancellation
			continue
		}
		summary.Files = append(summary.Files, r)
		summary.add(r)
		if r.Cached {
			for _, imp := range r.Imports {
				summary.Modules[imp.Module]++
			}
		}
	}
	summary.Duration = time.Since(started)
	observability.BuildDuration.Observe(summary.Duration.Seconds())
	a.finishRun(summary)

	slog.Info("build finished",
		"run", runID,
		"files", len(summary.Files),
		"rewritten", summary.Rewritten,
		"warned", summary.Warned,
		"failed", summary.Failed,
		"duration", summary.Duration,
	)

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return summary, err
	}
	return summary, nil
}

// collect expands paths into the sorted, de-duplicated file list.
func (a *App) collect(paths []string) ([]string, error) {
	cfg, _, _ := a.current()
	var dirs, files []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "stat input"), errors.CtxPath, p)
		}
		if info.IsDir() {
			dirs = append(dirs, abs)
			continue
		}
		if a.parser.Language(abs) != "" {
			files = append(files, abs)
		}
	}

	scanned, err := a.ScanDirectories(dirs, cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(scanned)+len(files))
	for _, f := range append(scanned, files...) {
		seen[f] = true
	}
	return util.SortedStringKeys(seen), nil
}

func (a *App) processFile(ctx context.Context, path, runID string) FileResult {
	_, span := observability.Tracer.Start(ctx, "app.processFile", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	res := FileResult{Path: path}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	content, err := os.ReadFile(path)
	if err != nil {
		res.Err = errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read source"), errors.CtxPath, path)
		span.RecordError(res.Err)
		return res
	}

	cfg, transformer, optsHash := a.current()
	key := cache.Key{Path: path, ContentHash: cache.Hash(string(content)), OptionsHash: optsHash}

	var (
		code    string
		mapJSON []byte
	)
	if entry, ok := a.lookup(key); ok {
		res.Cached = true
		res.Status, _ = inject.ParseStatus(entry.Status)
		res.Imports = entry.Imports
		code, mapJSON = entry.Code, entry.Map
	} else {
		result := transformer.Transform(string(content), path)
		res.Status = result.Status
		res.Imports = result.Imports
		code = result.Code
		if result.Warning != nil {
			res.Warning = result.Warning.Message
		}
		if result.Map != nil {
			mapJSON, err = result.Map.Encode(a.mapOptions(cfg, path))
			if err != nil {
				slog.Warn("source map encoding failed", "path", path, "error", err)
				mapJSON = nil
			}
		}
		if result.Status != inject.StatusWarned {
			a.remember(key, cache.Entry{Status: result.Status.String(), Code: code, Map: mapJSON, Imports: result.Imports})
		}
	}
	span.SetAttributes(attribute.String("status", res.Status.String()), attribute.Bool("cached", res.Cached))

	a.recordDependencies(path, runID, res)

	if cfg.OutDir == "" {
		return res
	}
	out := content
	if res.Status == inject.StatusRewritten {
		out = []byte(code)
	}
	if err := a.writeOutput(cfg, &res, out, mapJSON); err != nil {
		res.Err = err
		span.RecordError(err)
	}
	return res
}

func (a *App) lookup(key cache.Key) (cache.Entry, bool) {
	if a.cache == nil {
		return cache.Entry{}, false
	}
	return a.cache.Get(key)
}

func (a *App) remember(key cache.Key, entry cache.Entry) {
	if a.cache != nil {
		a.cache.Put(key, entry)
	}
}

func (a *App) recordDependencies(path, runID string, res FileResult) {
	if a.store == nil {
		return
	}
	var imports []inject.PendingImport
	switch res.Status {
	case inject.StatusRewritten:
		imports = res.Imports
	case inject.StatusUnchanged, inject.StatusSkipped:
	default:
		return
	}
	if err := a.store.ReplaceDependencies(path, runID, imports); err != nil {
		slog.Warn("dependency recording failed", "path", path, "error", err)
	}
}

func (a *App) beginRun(started time.Time) string {
	if a.store != nil {
		id, err := a.store.BeginRun(started)
		if err == nil {
			return id
		}
		slog.Warn("build run not recorded", "error", err)
	}
	return uuid.NewString()
}

func (a *App) finishRun(s *BuildSummary) {
	if a.store == nil {
		return
	}
	err := a.store.FinishRun(cache.Run{
		ID:        s.RunID,
		Files:     len(s.Files),
		Rewritten: s.Rewritten,
		Unchanged: s.Unchanged,
		Warned:    s.Warned,
		Skipped:   s.Skipped,
		Failed:    s.Failed,
		Imports:   s.Imports,
	})
	if err != nil {
		slog.Warn("build run not finalized", "run", s.RunID, "error", fmt.Errorf("finish run: %w", err))
	}
}
