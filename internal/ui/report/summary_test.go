package report

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"autoinject/internal/core/app"
	"autoinject/internal/engine/inject"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "proj")
	s := &app.BuildSummary{
		RunID: "run-1",
		Files: []app.FileResult{
			{Path: filepath.Join(root, "src", "a.js"), Status: inject.StatusRewritten, Imports: make([]inject.PendingImport, 2)},
			{Path: filepath.Join(root, "src", "b.js"), Status: inject.StatusWarned, Warning: "failed to parse b.js"},
			{Path: filepath.Join(root, "src", "c.js"), Err: errors.New("disk full")},
		},
		Rewritten: 1,
		Warned:    1,
		Failed:    1,
		Cached:    1,
		Imports:   2,
		Modules:   map[string]int{"vue-reactivity": 2, "icon-lib": 1},
		Duration:  1500 * time.Millisecond,
	}

	out := Summary(s, root, false)
	assert.Contains(t, out, "run run-1")
	assert.Contains(t, out, "3 files")
	assert.Contains(t, out, "1 rewritten")
	assert.Contains(t, out, "1 warned")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "(1 cached)")
	assert.Contains(t, out, "in 1.5s")
	assert.Contains(t, out, "2 imports injected")
	assert.Contains(t, out, "failed to parse b.js")
	assert.Contains(t, out, "src/c.js: disk full")
	assert.NotContains(t, out, "src/a.js +2")
	assert.Less(t, strings.Index(out, "icon-lib 1"), strings.Index(out, "vue-reactivity 2"))

	verbose := Summary(s, root, true)
	assert.Contains(t, verbose, "src/a.js +2")
}

func TestSummary_Quiet(t *testing.T) {
	out := Summary(&app.BuildSummary{RunID: "r", Files: []app.FileResult{{Path: "x.js", Status: inject.StatusUnchanged}}, Unchanged: 1}, "", true)
	assert.Contains(t, out, "1 unchanged")
	assert.NotContains(t, out, "warned")
	assert.NotContains(t, out, "failed")
	assert.NotContains(t, out, "modules")
	assert.Empty(t, Summary(nil, "", false))
}
