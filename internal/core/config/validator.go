package config

import (
	"net"
	"strings"

	"autoinject/internal/core/errors"
	"autoinject/internal/engine/inject"

	"github.com/gobwas/glob"
)

func validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateBindings,
		validatePatterns,
		validateWatch,
		validateCache,
		validateAddresses,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func invalid(key, format string, args ...any) error {
	return errors.AddContext(errors.Errorf(errors.CodeValidationError, format, args...), errors.CtxKey, key)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return invalid("version", "unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateBindings(cfg *Config) error {
	for qualifier, value := range cfg.Inject.Bindings {
		if strings.TrimSpace(qualifier) == "" {
			return invalid("inject.bindings", "qualifier must not be empty")
		}
		if _, err := inject.ParseTarget(value); err != nil {
			return invalid("inject.bindings."+qualifier, "%v", err)
		}
	}
	return nil
}

func validatePatterns(cfg *Config) error {
	groups := map[string][]string{
		"inject.include": cfg.Inject.Include,
		"inject.exclude": cfg.Inject.Exclude,
		"exclude.files":  cfg.Exclude.Files,
	}
	for key, patterns := range groups {
		for _, pattern := range patterns {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				return invalid(key, "invalid glob %q: %v", pattern, err)
			}
		}
	}
	for _, ext := range cfg.Inject.Extensions {
		if strings.TrimSpace(ext) == "" {
			return invalid("inject.extensions", "extension must not be empty")
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return invalid("watch.debounce", "must not be negative, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.Rate < 0 {
		return invalid("watch.rate", "must not be negative, got %v", cfg.Watch.Rate)
	}
	if cfg.Watch.Burst < 1 {
		return invalid("watch.burst", "must be >= 1, got %d", cfg.Watch.Burst)
	}
	return nil
}

func validateCache(cfg *Config) error {
	if cfg.Cache.MemoryEntries < 0 {
		return invalid("cache.memory_entries", "must not be negative, got %d", cfg.Cache.MemoryEntries)
	}
	return nil
}

func validateAddresses(cfg *Config) error {
	if _, _, err := net.SplitHostPort(cfg.Server.Address); err != nil {
		return invalid("server.address", "invalid address %q: %v", cfg.Server.Address, err)
	}
	if cfg.Server.Burst < 1 {
		return invalid("server.burst", "must be >= 1, got %d", cfg.Server.Burst)
	}
	if _, _, err := net.SplitHostPort(cfg.Observability.Address); err != nil {
		return invalid("observability.address", "invalid address %q: %v", cfg.Observability.Address, err)
	}
	return nil
}
