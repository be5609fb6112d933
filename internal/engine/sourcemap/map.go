package sourcemap

import (
	"sort"
)

type segmentKind int

const (
	segmentCopy segmentKind = iota
	segmentReplace
	segmentInsert
)

type segment struct {
	kind      segmentKind
	genStart  int
	genEnd    int
	origStart int
	origEnd   int
}

// Map relates byte offsets in rewritten output back to the original source.
type Map struct {
	original  string
	generated string
	segments  []segment
}

// New builds the map for applying sorted, non-overlapping edits to original.
// The generated text is exactly Apply(original, edits).
func New(original string, edits []Edit) *Map {
	m := &Map{original: original}
	gen, orig := 0, 0
	add := func(s segment) {
		if s.genEnd > s.genStart || s.origEnd > s.origStart {
			m.segments = append(m.segments, s)
		}
	}
	for _, e := range edits {
		if e.Start < orig {
			continue
		}
		copyLen := e.Start - orig
		add(segment{kind: segmentCopy, genStart: gen, genEnd: gen + copyLen, origStart: orig, origEnd: e.Start})
		gen += copyLen

		kind := segmentReplace
		if e.Start == e.End {
			kind = segmentInsert
		}
		add(segment{kind: kind, genStart: gen, genEnd: gen + len(e.Text), origStart: e.Start, origEnd: e.End})
		gen += len(e.Text)
		orig = e.End
	}
	tail := len(original) - orig
	add(segment{kind: segmentCopy, genStart: gen, genEnd: gen + tail, origStart: orig, origEnd: len(original)})
	m.generated = Apply(original, edits)
	return m
}

func (m *Map) Generated() string { return m.generated }

// Original maps a generated offset to the original offset it came from.
// Offsets inside replacement text map to the start of the replaced span;
// offsets inside inserted text have no origin.
func (m *Map) Original(generated int) (int, bool) {
	i := sort.Search(len(m.segments), func(i int) bool { return m.segments[i].genEnd > generated })
	if i == len(m.segments) {
		if generated == len(m.generated) {
			return len(m.original), true
		}
		return 0, false
	}
	s := m.segments[i]
	if generated < s.genStart {
		return 0, false
	}
	switch s.kind {
	case segmentCopy:
		return s.origStart + (generated - s.genStart), true
	case segmentReplace:
		return s.origStart, true
	}
	return 0, false
}

// GeneratedOffset maps an original offset forward. Offsets inside a replaced
// span map to the start of its replacement.
func (m *Map) GeneratedOffset(original int) (int, bool) {
	for _, s := range m.segments {
		if s.kind == segmentInsert {
			continue
		}
		if original >= s.origStart && original < s.origEnd {
			if s.kind == segmentCopy {
				return s.genStart + (original - s.origStart), true
			}
			return s.genStart, true
		}
	}
	if original == len(m.original) {
		return len(m.generated), true
	}
	return 0, false
}
