package inject

import (
	"strings"

	"autoinject/internal/engine/sourcemap"
)

const importSeparator = "\n\n"

// assembly is the rewritten text plus every edit that produced it.
type assembly struct {
	code  string
	edits []sourcemap.Edit
}

// assemble inserts the import block at insertAt and applies the reference
// rewrites in one pass over source.
func assemble(source string, imports []PendingImport, rewrites []sourcemap.Edit, insertAt int) assembly {
	statements := make([]string, len(imports))
	for i, imp := range imports {
		statements[i] = imp.Statement()
	}
	block := strings.Join(statements, importSeparator) + importSeparator

	edits := make([]sourcemap.Edit, 0, len(rewrites)+1)
	edits = append(edits, sourcemap.Edit{Start: insertAt, End: insertAt, Text: block})
	edits = append(edits, rewrites...)
	sourcemap.SortEdits(edits)

	return assembly{code: sourcemap.Apply(source, edits), edits: edits}
}

func shiftEdits(edits []sourcemap.Edit, offset int) {
	if offset == 0 {
		return
	}
	for i := range edits {
		edits[i].Start += offset
		edits[i].End += offset
	}
}
