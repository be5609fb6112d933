// # cmd/autoinject/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoinject/internal/core/app"
	"autoinject/internal/core/config"
	"autoinject/internal/core/errors"
	"autoinject/internal/shared/observability"
	"autoinject/internal/ui/report"
	"autoinject/internal/ui/server"
)

var (
	configPath = flag.String("config", "", "Path to config file (default: nearest autoinject.toml/.yaml)")
	once       = flag.Bool("once", false, "Run a single build and exit, even with -watch or -serve")
	watch      = flag.Bool("watch", false, "Rebuild on file changes")
	serve      = flag.Bool("serve", false, "Serve the HTTP transform API")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("autoinject v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	os.Exit(run())
}

func run() int {
	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to resolve working directory", "error", err)
		return 1
	}

	cfg, cfgFile, err := loadConfig(*configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return errors.ExitCode(err)
	}
	if flag.NArg() > 0 {
		cfg.Paths = absPaths(cwd, flag.Args())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return errors.ExitCode(err)
	}
	defer a.Close()

	shutdown := startObservability(ctx, cfg, a)
	defer shutdown()

	summary, err := a.Build(ctx, nil)
	if summary != nil {
		fmt.Print(report.Summary(summary, cfg.Root, *verbose))
	}
	if err != nil {
		slog.Error("build failed", "error", err)
		return errors.ExitCode(err)
	}
	if *once || (!*watch && !*serve) {
		return 0
	}

	errs := make(chan error, 2)
	if *serve {
		srv, err := server.New(a, server.Options{
			Address: cfg.Server.Address,
			Rate:    cfg.Server.Rate,
			Burst:   cfg.Server.Burst,
			Health:  app.NewHealthService(a),
		})
		if err != nil {
			slog.Error("failed to initialize server", "error", err)
			return 1
		}
		go func() { errs <- srv.Start(ctx) }()
	}
	if *watch {
		if cfgFile != "" {
			cw := config.NewWatcher(cfgFile, func(next *config.Config) {
				if err := a.Reload(next); err != nil {
					slog.Error("config reload rejected", "error", err)
				}
			})
			if err := cw.Start(ctx); err != nil {
				slog.Warn("config hot reload unavailable", "error", err)
			} else {
				defer cw.Stop()
			}
		}
		go func() {
			errs <- a.Watch(ctx, func(s *app.BuildSummary) {
				fmt.Print(report.Summary(s, cfg.Root, *verbose))
			})
		}()
	}

	select {
	case <-ctx.Done():
		return 0
	case err := <-errs:
		if err != nil {
			slog.Error("stopped", "error", err)
			return 1
		}
		<-ctx.Done()
		return 0
	}
}

// loadConfig prefers an explicit path, then the nearest config file above
// cwd, then built-in defaults rooted at cwd. It also returns the file used.
func loadConfig(explicit, cwd string) (*config.Config, string, error) {
	path := explicit
	if path == "" {
		path = config.Find(cwd)
	}
	if path == "" {
		slog.Debug("no config file found, using defaults", "root", cwd)
		cfg, err := config.Default(cwd)
		return cfg, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func absPaths(cwd string, args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, config.ResolveRelative(cwd, arg))
	}
	return out
}

// startObservability starts the metrics/health server and OTLP tracing
// when enabled. The returned function stops both.
func startObservability(ctx context.Context, cfg *config.Config, a *app.App) func() {
	if !cfg.Observability.Enabled {
		return func() {}
	}

	obs := observability.NewServer(cfg.Observability.Address, app.NewHealthService(a))
	if err := obs.Start(ctx); err != nil {
		slog.Warn("observability server failed to start", "error", err)
	}

	var flush func(context.Context) error
	if cfg.Observability.OTLPEndpoint != "" {
		f, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			flush = f
		}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Stop(shutdownCtx); err != nil {
			slog.Warn("observability server shutdown failed", "error", err)
		}
		if flush != nil {
			if err := flush(shutdownCtx); err != nil {
				slog.Warn("trace flush failed", "error", err)
			}
		}
	}
}
