package inject

import (
	"testing"

	"autoinject/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(map[string]Target{
		"ref":         {Module: "vue", Export: "ref"},
		"Promise":     {Module: "es6-promise"},
		"obj.":        {Module: "./lib/obj", Export: ExportDefault},
		"obj.special": {Module: "./special", Export: "special"},
		"icons.":      {Module: "icon-lib", Export: ExportNamespace},
		"deep.a.":     {Module: "deep", Export: ExportDefault},
		"fmt.sprintf": {Module: "sprintf-js", Export: "sprintf"},
	})

	cases := []struct {
		name    string
		keypath string
		want    Resolution
		found   bool
	}{
		{name: "Exact", keypath: "ref", want: Resolution{Target: Target{"vue", "ref"}}, found: true},
		{name: "BareModuleImpliesDefault", keypath: "Promise", want: Resolution{Target: Target{"es6-promise", ExportDefault}}, found: true},
		{name: "ExactBeatsNamespace", keypath: "obj.special", want: Resolution{Target: Target{"./special", "special"}}, found: true},
		{name: "NamespaceMemberRename", keypath: "obj.foo", want: Resolution{Target: Target{"./lib/obj", "foo"}}, found: true},
		{name: "NamespaceWildcard", keypath: "icons.Home", want: Resolution{Target: Target{"icon-lib", ExportNamespace}, Qualifier: "icons", Member: "Home"}, found: true},
		{name: "NamespaceTooDeep", keypath: "obj.foo.bar", found: false},
		{name: "DeepQualifierNeverMatches", keypath: "deep.a.b", found: false},
		{name: "DottedExact", keypath: "fmt.sprintf", want: Resolution{Target: Target{"sprintf-js", "sprintf"}}, found: true},
		{name: "BareNamespaceRoot", keypath: "obj", found: false},
		{name: "CaseSensitive", keypath: "Ref", found: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := r.Lookup(tc.keypath)
			require.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestRegistryQualifiersSorted(t *testing.T) {
	r := NewRegistry(map[string]Target{"b": {Module: "b"}, "a.": {Module: "a"}, "c": {Module: "c"}})
	assert.Equal(t, []string{"a.", "b", "c"}, r.Qualifiers())
	assert.Equal(t, 3, r.Len())
}

func TestParseOptions(t *testing.T) {
	var calls int
	raw := map[string]any{
		"include":   []any{"src/**"},
		"exclude":   "**/vendor/**",
		"sourceMap": false,
		"callback":  func([]PendingImport, Target) { calls++ },
		"ref":       "vue-reactivity",
		"obj.":      []any{"./lib/obj.js", "*"},
		"computed":  []string{"vue", "computed"},
	}

	opts, err := ParseOptions(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"src/**"}, opts.Include)
	assert.Equal(t, []string{"**/vendor/**"}, opts.Exclude)
	require.NotNil(t, opts.SourceMap)
	assert.False(t, opts.sourceMapEnabled())
	require.NotNil(t, opts.Callback)
	opts.Callback(nil, Target{})
	assert.Equal(t, 1, calls)

	assert.Equal(t, map[string]Target{
		"ref":      {Module: "vue-reactivity", Export: ExportDefault},
		"obj.":     {Module: "./lib/obj.js", Export: ExportNamespace},
		"computed": {Module: "vue", Export: "computed"},
	}, opts.Bindings)
}

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := ParseOptions(map[string]any{"ref": "vue"})
	require.NoError(t, err)
	assert.True(t, opts.sourceMapEnabled())
	assert.Nil(t, opts.Callback)
	assert.Empty(t, opts.Include)
}

func TestParseOptionsRejectsMalformedTargets(t *testing.T) {
	cases := map[string]any{
		"number":     42,
		"shortPair":  []any{"vue"},
		"longPair":   []string{"a", "b", "c"},
		"emptyPair":  []string{"", "x"},
		"nonString":  []any{"vue", 1},
		"emptyValue": "",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOptions(map[string]any{"ref": value})
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeValidationError))
			key, ok := errors.ContextValue(err, errors.CtxKey)
			require.True(t, ok, err.Error())
			assert.Equal(t, "ref", key)
		})
	}
}
