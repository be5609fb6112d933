package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeLegalIdentifier(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "ref", want: "ref"},
		{input: "$inject_obj.foo", want: "$inject_obj_foo"},
		{input: "$inject_uni.getSystemInfo", want: "$inject_uni_getSystemInfo"},
		{input: "foo-bar", want: "fooBar"},
		{input: "my-lib-x", want: "myLibX"},
		{input: "@scope/pkg", want: "_scope_pkg"},
		{input: "1abc", want: "_1abc"},
		{input: "class", want: "_class"},
		{input: "Object", want: "_Object"},
		{input: "a b", want: "a_b"},
		{input: "", want: "_"},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, MakeLegalIdentifier(tc.input))
		})
	}
}

func TestMakeLegalIdentifierDeterministic(t *testing.T) {
	assert.Equal(t, MakeLegalIdentifier("$inject_a.b.c"), MakeLegalIdentifier("$inject_a.b.c"))
}
