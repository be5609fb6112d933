package sourcemap

import (
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/go-json-experiment/json"
)

// EncodeOptions controls the emitted revision-3 document.
type EncodeOptions struct {
	File           string
	Source         string
	IncludeContent bool
}

// Document is the revision-3 source map JSON shape.
type Document struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

type mappingPoint struct {
	gen  int
	orig int
	name int
}

// Document builds the revision-3 view of the map. Columns count UTF-16 code
// units, as consumers expect.
func (m *Map) Document(opts EncodeOptions) Document {
	doc := Document{
		Version: 3,
		File:    opts.File,
		Sources: []string{opts.Source},
		Names:   []string{},
	}
	if opts.IncludeContent {
		doc.SourcesContent = []string{m.original}
	}

	names := make(map[string]int)
	var points []mappingPoint
	for _, s := range m.segments {
		switch s.kind {
		case segmentCopy:
			points = append(points, mappingPoint{gen: s.genStart, orig: s.origStart, name: -1})
			for i := s.genStart; i < s.genEnd-1; i++ {
				if m.generated[i] == '\n' {
					points = append(points, mappingPoint{gen: i + 1, orig: s.origStart + (i + 1 - s.genStart), name: -1})
				}
			}
		case segmentReplace:
			p := mappingPoint{gen: s.genStart, orig: s.origStart, name: -1}
			if original := m.original[s.origStart:s.origEnd]; isNameLike(original) {
				idx, ok := names[original]
				if !ok {
					idx = len(doc.Names)
					names[original] = idx
					doc.Names = append(doc.Names, original)
				}
				p.name = idx
			}
			points = append(points, p)
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].gen < points[j].gen })

	genLines := newLineIndex(m.generated)
	origLines := newLineIndex(m.original)

	var b strings.Builder
	line := 0
	prevGenCol, prevOrigLine, prevOrigCol, prevName := 0, 0, 0, 0
	first := true
	for _, p := range points {
		gl, gc := genLines.position(p.gen)
		for line < gl {
			b.WriteByte(';')
			line++
			prevGenCol = 0
			first = true
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		ol, oc := origLines.position(p.orig)
		writeVLQ(&b, gc-prevGenCol)
		writeVLQ(&b, 0)
		writeVLQ(&b, ol-prevOrigLine)
		writeVLQ(&b, oc-prevOrigCol)
		if p.name >= 0 {
			writeVLQ(&b, p.name-prevName)
			prevName = p.name
		}
		prevGenCol, prevOrigLine, prevOrigCol = gc, ol, oc
	}
	doc.Mappings = b.String()
	return doc
}

// Encode serializes the map as revision-3 JSON.
func (m *Map) Encode(opts EncodeOptions) ([]byte, error) {
	return json.Marshal(m.Document(opts))
}

func isNameLike(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == '.' || r == '_' || r == '$' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= utf8.RuneSelf {
			continue
		}
		return false
	}
	return true
}

type lineIndex struct {
	text   string
	starts []int
}

func newLineIndex(text string) lineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{text: text, starts: starts}
}

// position returns the zero-based line and UTF-16 column of a byte offset.
func (l lineIndex) position(offset int) (int, int) {
	line := sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	col := 0
	for _, r := range l.text[l.starts[line]:offset] {
		col += utf16.RuneLen(r)
	}
	return line, col
}

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func writeVLQ(b *strings.Builder, value int) {
	v := value << 1
	if value < 0 {
		v = (-value << 1) | 1
	}
	for {
		digit := v & 0x1f
		v >>= 5
		if v > 0 {
			digit |= 0x20
		}
		b.WriteByte(base64Digits[digit])
		if v == 0 {
			return
		}
	}
}
