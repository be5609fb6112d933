package config

import (
	"time"

	"autoinject/internal/engine/inject"
	"autoinject/internal/engine/parser"
)

const DefaultFile = "autoinject.toml"

type Config struct {
	Version       int                 `toml:"version" yaml:"version"`
	Root          string              `toml:"root" yaml:"root"`
	Paths         []string            `toml:"paths" yaml:"paths"`
	OutDir        string              `toml:"out_dir" yaml:"out_dir"`
	Inject        Inject              `toml:"inject" yaml:"inject"`
	Languages     map[string]Language `toml:"languages" yaml:"languages"`
	Exclude       Exclude             `toml:"exclude" yaml:"exclude"`
	Watch         Watch               `toml:"watch" yaml:"watch"`
	Cache         Cache               `toml:"cache" yaml:"cache"`
	Server        Server              `toml:"server" yaml:"server"`
	Observability Observability       `toml:"observability" yaml:"observability"`
}

// Inject holds the transform options. Bindings values are a module string
// or a [module, export] pair.
type Inject struct {
	SourceMap  *bool          `toml:"source_map" yaml:"source_map"`
	Include    []string       `toml:"include" yaml:"include"`
	Exclude    []string       `toml:"exclude" yaml:"exclude"`
	Extensions []string       `toml:"extensions" yaml:"extensions"`
	Bindings   map[string]any `toml:"bindings" yaml:"bindings"`
}

type Language struct {
	Enabled    *bool    `toml:"enabled" yaml:"enabled"`
	Extensions []string `toml:"extensions" yaml:"extensions"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs" yaml:"dirs"`
	Files []string `toml:"files" yaml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce" yaml:"debounce"`
	Rate     float64       `toml:"rate" yaml:"rate"` // rebuilds per second
	Burst    int           `toml:"burst" yaml:"burst"`
}

type Cache struct {
	Enabled       bool   `toml:"enabled" yaml:"enabled"`
	Path          string `toml:"path" yaml:"path"`
	MemoryEntries int    `toml:"memory_entries" yaml:"memory_entries"`
}

type Server struct {
	Address string  `toml:"address" yaml:"address"`
	Rate    float64 `toml:"rate" yaml:"rate"` // requests per second per client
	Burst   int     `toml:"burst" yaml:"burst"`
}

type Observability struct {
	Enabled      bool   `toml:"enabled" yaml:"enabled"`
	Address      string `toml:"address" yaml:"address"`
	OTLPEndpoint string `toml:"otlp_endpoint" yaml:"otlp_endpoint"`
}

// SourceMapEnabled reports the effective source map setting (default on).
func (i Inject) SourceMapEnabled() bool {
	return i.SourceMap == nil || *i.SourceMap
}

// Default returns a validated configuration rooted at root, used when no
// config file exists.
func Default(root string) (*Config, error) {
	cfg := &Config{Root: root}
	applyDefaults(cfg)
	if err := resolvePaths(cfg, root); err != nil {
		return nil, err
	}
	return cfg, validate(cfg)
}

// InjectOptions converts the inject table into transform options. The
// callback is left for the caller to wire.
func (c *Config) InjectOptions() (inject.Options, error) {
	bindings := make(map[string]inject.Target, len(c.Inject.Bindings))
	for qualifier, value := range c.Inject.Bindings {
		target, err := inject.ParseTarget(value)
		if err != nil {
			return inject.Options{}, invalid("inject.bindings."+qualifier, "%v", err)
		}
		bindings[qualifier] = target
	}
	return inject.Options{
		Bindings:   bindings,
		Include:    append([]string(nil), c.Inject.Include...),
		Exclude:    append([]string(nil), c.Inject.Exclude...),
		Root:       c.Root,
		Extensions: append([]string(nil), c.Inject.Extensions...),
		SourceMap:  c.Inject.SourceMap,
	}, nil
}

func (c *Config) LanguageOverrides() map[string]parser.LanguageOverride {
	if len(c.Languages) == 0 {
		return nil
	}
	out := make(map[string]parser.LanguageOverride, len(c.Languages))
	for name, lang := range c.Languages {
		out[name] = parser.LanguageOverride{Enabled: lang.Enabled, Extensions: lang.Extensions}
	}
	return out
}
