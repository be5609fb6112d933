// # internal/core/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"autoinject/internal/core/errors"
	"autoinject/internal/engine/inject"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "autoinject.toml", `
version = 1
paths = ["src"]
out_dir = "dist"

[inject]
include = ["src/**"]
exclude = ["src/vendor/**"]
source_map = false

[inject.bindings]
ref = "vue-reactivity"
computed = ["vue-reactivity", "computed"]
"uni.icons" = ["icon-lib", "*"]

[languages.vue]
extensions = [".vue"]

[watch]
debounce = "1s"
rate = 2.5
burst = 3

[cache]
enabled = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, []string{filepath.Join(dir, "src")}, cfg.Paths)
	assert.Equal(t, filepath.Join(dir, "dist"), cfg.OutDir)
	assert.Equal(t, filepath.Join(dir, ".autoinject", "cache.db"), cfg.Cache.Path)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 2.5, cfg.Watch.Rate)
	assert.Equal(t, 3, cfg.Watch.Burst)
	assert.False(t, cfg.Inject.SourceMapEnabled())

	opts, err := cfg.InjectOptions()
	require.NoError(t, err)
	assert.Equal(t, inject.Target{Module: "vue-reactivity", Export: inject.ExportDefault}, opts.Bindings["ref"])
	assert.Equal(t, inject.Target{Module: "vue-reactivity", Export: "computed"}, opts.Bindings["computed"])
	assert.Equal(t, inject.Target{Module: "icon-lib", Export: inject.ExportNamespace}, opts.Bindings["uni.icons"])
	assert.Equal(t, dir, opts.Root)
	assert.Equal(t, []string{"src/**"}, opts.Include)

	overrides := cfg.LanguageOverrides()
	require.Contains(t, overrides, "vue")
	assert.Equal(t, []string{".vue"}, overrides["vue"].Extensions)
	assert.Nil(t, overrides["vue"].Enabled)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "autoinject.yaml", `
version: 1
root: app
inject:
  bindings:
    ref: vue-reactivity
    computed: [vue-reactivity, computed]
watch:
  debounce: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "app"), cfg.Root)
	assert.Equal(t, []string{filepath.Join(dir, "app")}, cfg.Paths)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)

	opts, err := cfg.InjectOptions()
	require.NoError(t, err)
	assert.Len(t, opts.Bindings, 2)
	assert.Equal(t, "computed", opts.Bindings["computed"].Export)
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "autoinject.toml", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 8, cfg.Watch.Burst)
	assert.Equal(t, 1024, cfg.Cache.MemoryEntries)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Address)
	assert.Contains(t, cfg.Exclude.Dirs, "node_modules")
	assert.True(t, cfg.Inject.SourceMapEnabled())
	assert.Empty(t, cfg.Inject.Bindings)
	assert.Empty(t, cfg.OutDir)
}

func TestDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Default(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, []string{dir}, cfg.Paths)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
	}{
		{name: "version", content: "version = 2", key: "version"},
		{name: "binding pair", content: "[inject.bindings]\nref = [\"only-module\"]", key: "inject.bindings.ref"},
		{name: "binding type", content: "[inject.bindings]\nref = 3", key: "inject.bindings.ref"},
		{name: "glob", content: "[inject]\ninclude = [\"src/[\"]", key: "inject.include"},
		{name: "watch rate", content: "[watch]\nrate = -1.0", key: "watch.rate"},
		{name: "server address", content: "[server]\naddress = \"nope\"", key: "server.address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "autoinject.toml", tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeValidationError), "got %v", err)

			de, ok := err.(*errors.DomainError)
			require.True(t, ok)
			assert.Equal(t, tt.key, de.Context[errors.CtxKey])
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "autoinject.toml", "version = [")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AUTOINJECT_CACHE_ENABLED", "true")
	t.Setenv("AUTOINJECT_WATCH_DEBOUNCE", "2s")
	t.Setenv("AUTOINJECT_SERVER_BURST", "7")
	t.Setenv("AUTOINJECT_INJECT_SOURCE_MAP", "false")
	t.Setenv("AUTOINJECT_WATCH_BURST", "not-a-number")

	dir := t.TempDir()
	path := writeConfig(t, dir, "autoinject.toml", "[watch]\nburst = 4")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 7, cfg.Server.Burst)
	assert.Equal(t, 4, cfg.Watch.Burst)
	assert.False(t, cfg.Inject.SourceMapEnabled())
}

func TestDotEnvBesideConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".env", "AUTOINJECT_OUT_DIR=build\n")
	path := writeConfig(t, dir, "autoinject.toml", "")
	t.Cleanup(func() { os.Unsetenv("AUTOINJECT_OUT_DIR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "build"), cfg.OutDir)
}
