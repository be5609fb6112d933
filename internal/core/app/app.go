// # internal/core/app/app.go
package app

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"autoinject/internal/core/config"
	"autoinject/internal/core/errors"
	"autoinject/internal/core/ports"
	"autoinject/internal/data/cache"
	"autoinject/internal/engine/inject"
	"autoinject/internal/engine/parser"

	"github.com/go-json-experiment/json"
)

var (
	_ ports.ResultCache = (*cache.Cache)(nil)
	_ ports.BuildStore  = (*cache.Store)(nil)
)

// App drives the inject transform over a project tree.
type App struct {
	Config  *config.Config
	Workers int

	parser *parser.Parser

	mu          sync.RWMutex
	transformer ports.SourceTransformer
	optionsHash string

	cache *cache.Cache
	store *cache.Store

	modulesMu sync.Mutex
	modules   map[string]int
}

// New builds an App from a loaded configuration. The cache is opened only
// when enabled; a cache that cannot be opened is logged and skipped.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}

	registry, err := parser.BuildLanguageRegistry(cfg.LanguageOverrides())
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "build language registry"), errors.CtxKey, "languages")
	}
	p, err := parser.NewWithRegistry(registry)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Workers: runtime.NumCPU(),
		parser:  p,
		modules: make(map[string]int),
	}
	if err := a.configure(cfg); err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			slog.Warn("transform cache unavailable", "path", cfg.Cache.Path, "error", err)
		} else {
			a.store = store
		}
	}
	if cfg.Cache.Enabled || cfg.Cache.MemoryEntries > 0 {
		c, err := cache.New(a.store, cfg.Cache.MemoryEntries)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("create transform cache: %w", err)
		}
		a.cache = c
	}
	return a, nil
}

// configure swaps in a transformer for cfg.
func (a *App) configure(cfg *config.Config) error {
	opts, err := cfg.InjectOptions()
	if err != nil {
		return err
	}
	opts.Callback = a.recordTarget

	hash, err := optionsHash(opts, cfg.OutDir)
	if err != nil {
		return err
	}
	t, err := inject.NewTransformer(opts, a.parser)
	if err != nil {
		return err
	}
	if t.Registry().Len() == 0 {
		slog.Warn("no inject bindings configured; every file will be skipped")
	}

	a.mu.Lock()
	a.Config = cfg
	a.transformer = t
	a.optionsHash = hash
	a.mu.Unlock()
	return nil
}

// Reload applies a new configuration. Language and cache settings keep
// their startup values.
func (a *App) Reload(cfg *config.Config) error {
	if err := a.configure(cfg); err != nil {
		return err
	}
	if a.cache != nil {
		a.cache.Purge()
	}
	slog.Info("configuration reloaded", "bindings", len(cfg.Inject.Bindings))
	return nil
}

func (a *App) current() (*config.Config, ports.SourceTransformer, string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.Config, a.transformer, a.optionsHash
}

func (a *App) Parser() *parser.Parser { return a.parser }

func (a *App) Store() *cache.Store { return a.store }

func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// recordTarget counts how often each module is newly imported.
func (a *App) recordTarget(_ []inject.PendingImport, target inject.Target) {
	a.modulesMu.Lock()
	a.modules[target.Module]++
	a.modulesMu.Unlock()
}

// takeModules returns and resets the per-module import counts.
func (a *App) takeModules() map[string]int {
	a.modulesMu.Lock()
	defer a.modulesMu.Unlock()
	out := a.modules
	a.modules = make(map[string]int)
	return out
}

// optionsHash fingerprints everything that changes transform output.
func optionsHash(opts inject.Options, outDir string) (string, error) {
	raw, err := json.Marshal(struct {
		OutDir     string
		Bindings   map[string]inject.Target
		Include    []string
		Exclude    []string
		Root       string
		Extensions []string
		SourceMap  *bool
	}{outDir, opts.Bindings, opts.Include, opts.Exclude, opts.Root, opts.Extensions, opts.SourceMap}, json.Deterministic(true))
	if err != nil {
		return "", fmt.Errorf("hash inject options: %w", err)
	}
	return cache.Hash(string(raw)), nil
}
