package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: AUTOINJECT_[SECTION]_[KEY] (e.g., AUTOINJECT_CACHE_PATH).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Root, "AUTOINJECT_ROOT")
	setEnvString(&cfg.OutDir, "AUTOINJECT_OUT_DIR")

	// Inject
	setEnvBoolPtr(&cfg.Inject.SourceMap, "AUTOINJECT_INJECT_SOURCE_MAP")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "AUTOINJECT_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.Rate, "AUTOINJECT_WATCH_RATE")
	setEnvInt(&cfg.Watch.Burst, "AUTOINJECT_WATCH_BURST")

	// Cache
	setEnvBool(&cfg.Cache.Enabled, "AUTOINJECT_CACHE_ENABLED")
	setEnvString(&cfg.Cache.Path, "AUTOINJECT_CACHE_PATH")
	setEnvInt(&cfg.Cache.MemoryEntries, "AUTOINJECT_CACHE_MEMORY_ENTRIES")

	// Server
	setEnvString(&cfg.Server.Address, "AUTOINJECT_SERVER_ADDRESS")
	setEnvFloat64(&cfg.Server.Rate, "AUTOINJECT_SERVER_RATE")
	setEnvInt(&cfg.Server.Burst, "AUTOINJECT_SERVER_BURST")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "AUTOINJECT_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Address, "AUTOINJECT_OBSERVABILITY_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "AUTOINJECT_OBSERVABILITY_OTLP_ENDPOINT")
}

func applied(key, val string) {
	slog.Debug("applying env override", "key", key, "value", val)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		applied(key, val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			applied(key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			applied(key, val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			applied(key, val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			applied(key, val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			applied(key, val)
			*target = d
		}
	}
}
