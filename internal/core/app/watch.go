package app

import (
	"context"
	"log/slog"

	"autoinject/internal/core/watcher"
)

// Watch rebuilds changed files until ctx is done. onBuild receives every
// rebuild summary.
func (a *App) Watch(ctx context.Context, onBuild func(*BuildSummary)) error {
	cfg, _, _ := a.current()
	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Exclude.Dirs, cfg.Exclude.Files, func(paths []string) {
		a.HandleChanges(ctx, paths, onBuild)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	w.SetExtensions(a.parser.SupportedExtensions())
	w.SetRate(cfg.Watch.Rate, cfg.Watch.Burst)
	if err := w.Watch(cfg.Paths); err != nil {
		return err
	}

	slog.Info("watching for changes", "paths", cfg.Paths)
	<-ctx.Done()
	return nil
}

// HandleChanges rebuilds the changed files that still exist.
func (a *App) HandleChanges(ctx context.Context, paths []string, onBuild func(*BuildSummary)) {
	if ctx.Err() != nil {
		return
	}
	files := existingFiles(paths)
	if len(files) == 0 {
		slog.Debug("no rebuildable files in change set", "paths", len(paths))
		return
	}
	summary, err := a.Build(ctx, files)
	if err != nil {
		slog.Error("rebuild failed", "error", err)
	}
	if summary != nil && onBuild != nil {
		onBuild(summary)
	}
}
