package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterAccept(t *testing.T) {
	f, err := NewFilter(FilterOptions{
		Include:    []string{"src/**"},
		Exclude:    []string{"**/vendor/**"},
		Root:       "/proj",
		Qualifiers: []string{"ref"},
	})
	require.NoError(t, err)

	cases := []struct {
		name string
		id   string
		want bool
	}{
		{name: "Included", id: "/proj/src/main.js", want: true},
		{name: "TypeScript", id: "/proj/src/store/index.ts", want: true},
		{name: "Component", id: "/proj/src/App.vue", want: true},
		{name: "ComponentScriptQuery", id: "/proj/src/App.vue?vue&type=script&setup=true&lang.ts", want: false},
		{name: "NonFragmentQuery", id: "/proj/src/main.js?t=123", want: true},
		{name: "OutsideInclude", id: "/proj/test/main.js", want: false},
		{name: "Excluded", id: "/proj/src/vendor/lib.js", want: false},
		{name: "Extension", id: "/proj/src/style.css", want: false},
		{name: "VirtualModule", id: "\x00virtual:/proj/src/main.js", want: false},
		{name: "UpperCaseExtension", id: "/proj/src/LEGACY.JS", want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := f.Accept(tc.id)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestFilterEmptyIncludeAcceptsAll(t *testing.T) {
	f, err := NewFilter(FilterOptions{Qualifiers: []string{"ref"}})
	require.NoError(t, err)
	req, ok := f.Accept(`C:\proj\main.js`)
	require.True(t, ok)
	assert.Equal(t, "C:/proj/main.js", req.ModuleID())
}

func TestFilterEmptyRegistrySkipsEverything(t *testing.T) {
	f, err := NewFilter(FilterOptions{})
	require.NoError(t, err)
	_, ok := f.Accept("/proj/src/main.js")
	assert.False(t, ok)
	assert.False(t, f.MayMatch("ref(1)"))
}

func TestFilterCustomExtensions(t *testing.T) {
	f, err := NewFilter(FilterOptions{Extensions: []string{"js", ".MJS"}, Qualifiers: []string{"ref"}})
	require.NoError(t, err)

	_, ok := f.Accept("/a.mjs")
	assert.True(t, ok)
	_, ok = f.Accept("/a.ts")
	assert.False(t, ok)
}

func TestFilterInvalidGlob(t *testing.T) {
	_, err := NewFilter(FilterOptions{Include: []string{"src/[a"}})
	require.Error(t, err)
}

func TestFilterMayMatch(t *testing.T) {
	f, err := NewFilter(FilterOptions{Qualifiers: []string{"obj.", "$t", "a+b"}})
	require.NoError(t, err)

	assert.True(t, f.MayMatch("obj.foo()"))
	assert.True(t, f.MayMatch("this.$t('key')"))
	assert.True(t, f.MayMatch("a+b"))
	assert.False(t, f.MayMatch("ob aab"), "qualifiers are matched literally")
}

func TestFilterMayMatchSplitMemberChains(t *testing.T) {
	f, err := NewFilter(FilterOptions{Qualifiers: []string{"obj.", "utils.format"}})
	require.NoError(t, err)

	for _, code := range []string{
		"obj\n  .foo();",
		"obj?.foo();",
		"obj /* c */ . foo()",
		"utils\n\t.format(1)",
	} {
		assert.True(t, f.MayMatch(code), "code: %q", code)
	}
	assert.False(t, f.MayMatch("format(1)"))
}

func TestParseRequest(t *testing.T) {
	req := ParseRequest("/src/App.vue?vue&type=style&index=0")
	assert.Equal(t, "/src/App.vue", req.Filename)
	assert.True(t, req.IsFragment())
	assert.Equal(t, "style", req.Query.Get("type"))

	plain := ParseRequest("/src/main.js")
	assert.Equal(t, "/src/main.js", plain.Filename)
	assert.False(t, plain.IsFragment())
}
