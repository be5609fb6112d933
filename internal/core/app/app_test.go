// # internal/core/app/app_test.go
package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autoinject/internal/core/config"
	"autoinject/internal/engine/inject"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestApp(t *testing.T, dir string, mutate func(*config.Config)) *App {
	t.Helper()
	cfg, err := config.Default(dir)
	require.NoError(t, err)
	cfg.Inject.Bindings = map[string]any{"ref": "vue-reactivity"}
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func fileResult(t *testing.T, s *BuildSummary, path string) FileResult {
	t.Helper()
	for _, r := range s.Files {
		if r.Path == path {
			return r
		}
	}
	t.Fatalf("no result for %s in %+v", path, s.Files)
	return FileResult{}
}

func TestBuild_WritesOutputsAndMaps(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, dir, func(cfg *config.Config) {
		cfg.OutDir = filepath.Join(dir, "dist")
	})

	aPath := filepath.Join(dir, "src", "a.js")
	bPath := filepath.Join(dir, "src", "b.js")
	writeSource(t, aPath, "ref(1)\n")
	writeSource(t, bPath, "const x = 1;\n")
	writeSource(t, filepath.Join(dir, "node_modules", "lib", "c.js"), "ref()\n")
	writeSource(t, filepath.Join(dir, "src", "notes.md"), "ref\n")

	summary, err := a.Build(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, summary.Files, 2)
	assert.Equal(t, aPath, summary.Files[0].Path)
	assert.Equal(t, 1, summary.Rewritten)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Imports)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 1, summary.Modules["vue-reactivity"])
	assert.NotEmpty(t, summary.RunID)

	rewritten := fileResult(t, summary, aPath)
	assert.Equal(t, inject.StatusRewritten, rewritten.Status)
	assert.Equal(t, filepath.Join(dir, "dist", "src", "a.js"), rewritten.Output)

	out, err := os.ReadFile(rewritten.Output)
	require.NoError(t, err)
	assert.Equal(t, "import { default as ref } from 'vue-reactivity';\n\nref(1)\n//# sourceMappingURL=a.js.map\n", string(out))
	assert.Equal(t, rewritten.Output+".map", rewritten.MapPath)

	mapJSON, err := os.ReadFile(rewritten.MapPath)
	require.NoError(t, err)
	assert.Contains(t, string(mapJSON), `"version":3`)
	assert.Contains(t, string(mapJSON), `"sources":["../../src/a.js"]`)

	copied, err := os.ReadFile(filepath.Join(dir, "dist", "src", "b.js"))
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;\n", string(copied))
	_, err = os.Stat(filepath.Join(dir, "dist", "src", "b.js.map"))
	assert.True(t, os.IsNotExist(err))

	// Outputs are not picked up as inputs on the next build.
	summary, err = a.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, summary.Files, 2)
}

func TestBuild_ComponentOutputHasNoMappingComment(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, dir, func(cfg *config.Config) {
		cfg.OutDir = filepath.Join(dir, "dist")
	})
	path := filepath.Join(dir, "App.vue")
	writeSource(t, path, "<script setup>\nref(1)\n</script>\n")

	summary, err := a.Build(context.Background(), []string{path})
	require.NoError(t, err)
	res := fileResult(t, summary, path)
	require.Equal(t, inject.StatusRewritten, res.Status)

	out, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "sourceMappingURL")
	assert.FileExists(t, res.MapPath)
}

func TestAppendMappingURL(t *testing.T) {
	assert.Equal(t, "x\n//# sourceMappingURL=a.js.map\n", string(appendMappingURL([]byte("x"), "a.js.map")))
	assert.Equal(t, "x\n//# sourceMappingURL=a.js.map\n", string(appendMappingURL([]byte("x\n"), "a.js.map")))
}

func TestBuild_NoOutDirWritesNothing(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, dir, nil)
	path := filepath.Join(dir, "a.js")
	writeSource(t, path, "ref(1)\n")

	summary, err := a.Build(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, summary.Files, 1)
	assert.Equal(t, inject.StatusRewritten, summary.Files[0].Status)
	assert.Empty(t, summary.Files[0].Output)

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ref(1)\n", string(src))
}

func TestBuild_CacheAndDependencies(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, dir, func(cfg *config.Config) {
		cfg.Cache.Enabled = true
		cfg.Inject.Bindings["computed"] = []any{"vue-reactivity", "computed"}
	})
	require.NotNil(t, a.Store())

	aPath := filepath.Join(dir, "a.ts")
	writeSource(t, aPath, "const x: number = computed(() => ref(1));\n")
	writeSource(t, filepath.Join(dir, "b.js"), "let y = 2;\n")

	first, err := a.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, first.Cached)
	assert.Equal(t, 2, first.Modules["vue-reactivity"])

	second, err := a.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Cached)
	assert.Equal(t, 1, second.Rewritten)
	assert.Equal(t, 2, second.Modules["vue-reactivity"])
	assert.Equal(t, fileResult(t, first, aPath).Imports, fileResult(t, second, aPath).Imports)

	deps, err := a.Store().Dependencies(aPath)
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, second.RunID, deps[0].RunID)

	runs, err := a.Store().Runs(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Files)

	// Changing the source invalidates the cached row.
	writeSource(t, aPath, "let ref = 1;\nref;\n")
	third, err := a.Build(context.Background(), []string{aPath})
	require.NoError(t, err)
	assert.Zero(t, third.Cached)
	assert.Equal(t, 1, third.Unchanged)

	deps, err = a.Store().Dependencies(aPath)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestBuild_ParseFailureIsWarning(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, dir, nil)
	path := filepath.Join(dir, "broken.js")
	writeSource(t, path, "ref( {\n")

	summary, err := a.Build(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, summary.Files, 1)
	assert.Equal(t, 1, summary.Warned)
	assert.Zero(t, summary.Failed)
	assert.True(t, strings.HasPrefix(summary.Files[0].Warning, "failed to parse "+path))
}

func TestBuild_MissingInput(t *testing.T) {
	a := newTestApp(t, t.TempDir(), nil)
	_, err := a.Build(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
}

func TestBuild_Cancelled(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, dir, nil)
	for _, name := range []string{"a.js", "b.js", "c.js"} {
		writeSource(t, filepath.Join(dir, name), "ref()\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := a.Build(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	for _, r := range summary.Files {
		assert.Error(t, r.Err)
	}
	assert.Equal(t, len(summary.Files), summary.Failed)
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, dir, nil)
	path := filepath.Join(dir, "a.js")
	writeSource(t, path, "ref(1)\n")

	summary, err := a.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rewritten)

	cfg, err := config.Default(dir)
	require.NoError(t, err)
	cfg.Inject.Bindings = map[string]any{"ref": []any{"vue", "ref"}}
	require.NoError(t, a.Reload(cfg))

	res := a.TransformSource(context.Background(), "ref(1)\n", path)
	require.Equal(t, inject.StatusRewritten, res.Status)
	assert.Equal(t, "import { ref as ref } from 'vue';\n\nref(1)\n", res.Code)

	bad := *cfg
	bad.Inject.Bindings = map[string]any{"ref": 1}
	assert.Error(t, a.Reload(&bad))
}

func TestScanDirectories(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, dir, func(cfg *config.Config) {
		cfg.OutDir = filepath.Join(dir, "out")
	})
	writeSource(t, filepath.Join(dir, "src", "a.js"), "")
	writeSource(t, filepath.Join(dir, "src", "App.vue"), "")
	writeSource(t, filepath.Join(dir, "src", "a.min.js"), "")
	writeSource(t, filepath.Join(dir, "src", "style.css"), "")
	writeSource(t, filepath.Join(dir, "vendor", "v.js"), "")
	writeSource(t, filepath.Join(dir, "out", "a.js"), "")

	files, err := a.ScanDirectories([]string{dir}, []string{"vendor"}, []string{"*.min.js"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "src", "App.vue"),
		filepath.Join(dir, "src", "a.js"),
	}, files)

	_, err = a.ScanDirectories([]string{dir}, []string{"["}, nil)
	assert.Error(t, err)
}

func TestHandleChanges(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, dir, nil)
	path := filepath.Join(dir, "a.js")
	writeSource(t, path, "ref()\n")

	var builds []*BuildSummary
	onBuild := func(s *BuildSummary) { builds = append(builds, s) }

	a.HandleChanges(context.Background(), []string{filepath.Join(dir, "gone.js")}, onBuild)
	assert.Empty(t, builds)

	a.HandleChanges(context.Background(), []string{path, filepath.Join(dir, "gone.js")}, onBuild)
	require.Len(t, builds, 1)
	assert.Equal(t, 1, builds[0].Rewritten)
}

func TestHealthService(t *testing.T) {
	a := newTestApp(t, t.TempDir(), nil)
	status := NewHealthService(a).Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "disabled", status.Components["cache"])
	assert.Equal(t, "ok (1 bindings)", status.Components["transformer"])
	assert.Contains(t, status.Components, "heap_mb")
	assert.Contains(t, status.Components, "goroutines")

	withCache := newTestApp(t, t.TempDir(), func(cfg *config.Config) { cfg.Cache.Enabled = true })
	status = NewHealthService(withCache).Check(context.Background())
	assert.True(t, strings.HasPrefix(status.Components["cache"], "ok ("))
}
