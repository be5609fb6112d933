// # internal/engine/sourcemap/edit.go
package sourcemap

import (
	"sort"
	"strings"
)

// Edit replaces source[Start:End] with Text. Start == End is an insertion.
type Edit struct {
	Start int
	End   int
	Text  string
}

// SortEdits orders edits by start offset, insertions before replacements
// that begin at the same offset. The sort is stable so insertions at one
// offset keep their relative order.
func SortEdits(edits []Edit) {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Start != edits[j].Start {
			return edits[i].Start < edits[j].Start
		}
		return edits[i].End-edits[i].Start < edits[j].End-edits[j].Start
	})
}

// Apply splices sorted, non-overlapping edits into source in a single pass.
func Apply(source string, edits []Edit) string {
	var b strings.Builder
	b.Grow(len(source) + editGrowth(edits))
	pos := 0
	for _, e := range edits {
		if e.Start < pos {
			// Overlapping edits are a caller bug; keep the earlier one.
			continue
		}
		b.WriteString(source[pos:e.Start])
		b.WriteString(e.Text)
		pos = e.End
	}
	b.WriteString(source[pos:])
	return b.String()
}

func editGrowth(edits []Edit) int {
	n := 0
	for _, e := range edits {
		n += len(e.Text)
	}
	return n
}
