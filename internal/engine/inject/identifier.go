package inject

import (
	"regexp"
	"strings"
	"unicode"
)

var reservedIdentifiers = func() map[string]bool {
	words := "break case class catch const continue debugger default delete do else export extends " +
		"finally for function if import in instanceof let new return super switch this throw try " +
		"typeof var void while with yield enum await implements package protected static interface " +
		"private public arguments Infinity NaN undefined null true false eval uneval isFinite isNaN " +
		"parseFloat parseInt decodeURI decodeURIComponent encodeURI encodeURIComponent escape unescape " +
		"Object Function Boolean Symbol Error EvalError InternalError RangeError ReferenceError " +
		"SyntaxError TypeError URIError Number Math Date String RegExp Array Int8Array Uint8Array " +
		"Uint8ClampedArray Int16Array Uint16Array Int32Array Uint32Array Float32Array Float64Array " +
		"Map Set WeakMap WeakSet SIMD ArrayBuffer DataView JSON Promise Generator GeneratorFunction " +
		"Reflect Proxy Intl"
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}()

var (
	dashLetter   = regexp.MustCompile(`-(\w)`)
	illegalChars = regexp.MustCompile(`[^$_a-zA-Z0-9]`)
)

// MakeLegalIdentifier turns an arbitrary string into a usable JavaScript
// binding name. The mapping is deterministic, so equal inputs always yield
// equal aliases.
func MakeLegalIdentifier(s string) string {
	id := dashLetter.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ToUpper(m[1:])
	})
	id = illegalChars.ReplaceAllString(id, "_")
	if id == "" {
		return "_"
	}
	if unicode.IsDigit(rune(id[0])) || reservedIdentifiers[id] {
		id = "_" + id
	}
	return id
}
