package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autoinject/internal/core/errors"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a TOML or YAML config file, applies a sibling .env file and
// AUTOINJECT_* overrides, then defaults and validation. Relative paths are
// resolved against the config file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read config"), errors.CtxPath, path)
	}

	var cfg Config
	if err := decode(path, data, &cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}

	dir := filepath.Dir(path)
	if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
		slog.Debug("loaded .env", "dir", dir)
	}
	ApplyEnvOverrides(&cfg)

	applyDefaults(&cfg)
	if err := resolvePaths(&cfg, dir); err != nil {
		return nil, err
	}
	if err := validate(&cfg); err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return &cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		_, err := toml.Decode(string(data), cfg)
		return err
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Root) == "" {
		cfg.Root = "."
	}
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{"."}
	}
	if cfg.Inject.Bindings == nil {
		cfg.Inject.Bindings = make(map[string]any)
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{"node_modules", ".git", "dist", "unpackage"}
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.Rate == 0 {
		cfg.Watch.Rate = 4
	}
	if cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 8
	}

	if strings.TrimSpace(cfg.Cache.Path) == "" {
		cfg.Cache.Path = ".autoinject/cache.db"
	}
	if cfg.Cache.MemoryEntries == 0 {
		cfg.Cache.MemoryEntries = 1024
	}

	if strings.TrimSpace(cfg.Server.Address) == "" {
		cfg.Server.Address = "127.0.0.1:8787"
	}
	if cfg.Server.Rate == 0 {
		cfg.Server.Rate = 50
	}
	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = 100
	}

	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9464"
	}
}

// resolvePaths anchors Root at base and everything else at Root.
func resolvePaths(cfg *Config, base string) error {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg.Root = ResolveRelative(absBase, cfg.Root)
	for i, p := range cfg.Paths {
		cfg.Paths[i] = ResolveRelative(cfg.Root, p)
	}
	if strings.TrimSpace(cfg.OutDir) != "" {
		cfg.OutDir = ResolveRelative(cfg.Root, cfg.OutDir)
	}
	cfg.Cache.Path = ResolveRelative(cfg.Root, cfg.Cache.Path)
	return nil
}
