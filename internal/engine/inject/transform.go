// # internal/engine/inject/transform.go
package inject

import (
	"fmt"
	"log/slog"
	"time"

	"autoinject/internal/core/errors"
	"autoinject/internal/engine/ast"
	"autoinject/internal/engine/parser"
	"autoinject/internal/engine/sourcemap"
	"autoinject/internal/shared/observability"
)

type Status int

const (
	// StatusSkipped: filtered out before parsing.
	StatusSkipped Status = iota
	// StatusUnchanged: parsed, nothing to inject.
	StatusUnchanged
	// StatusWarned: the file could not be parsed; output is the input.
	StatusWarned
	// StatusRewritten: imports were injected.
	StatusRewritten
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusUnchanged:
		return "unchanged"
	case StatusWarned:
		return "warned"
	case StatusRewritten:
		return "rewritten"
	}
	return "unknown"
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, bool) {
	for _, st := range []Status{StatusSkipped, StatusUnchanged, StatusWarned, StatusRewritten} {
		if st.String() == s {
			return st, true
		}
	}
	return StatusSkipped, false
}

// Changed reports whether the result carries new code.
func (s Status) Changed() bool { return s == StatusRewritten }

type Warning struct {
	Code    errors.ErrorCode
	Message string
}

// Result is the outcome of one file transform. Code, Map and Imports are
// only set for StatusRewritten.
type Result struct {
	Status  Status
	Code    string
	Map     *sourcemap.Map
	Imports []PendingImport
	Warning *Warning
}

// ScriptParser is the parsing collaborator of the transform.
type ScriptParser interface {
	Language(filename string) string
	IsComposite(language string) bool
	Parse(language string, source []byte) (*ast.Node, error)
	ScriptBlocks(source []byte) ([]parser.ScriptBlock, error)
}

// Transformer injects imports for free references. A Transformer holds no
// per-file state and is safe for concurrent use.
type Transformer struct {
	registry  *Registry
	filter    *Filter
	parser    ScriptParser
	sourceMap bool
	callback  Callback
}

func NewTransformer(opts Options, p ScriptParser) (*Transformer, error) {
	registry := NewRegistry(opts.Bindings)
	filter, err := NewFilter(FilterOptions{
		Include:    opts.Include,
		Exclude:    opts.Exclude,
		Root:       opts.Root,
		Extensions: opts.Extensions,
		Qualifiers: registry.Qualifiers(),
	})
	if err != nil {
		return nil, err
	}
	return &Transformer{
		registry:  registry,
		filter:    filter,
		parser:    p,
		sourceMap: opts.sourceMapEnabled(),
		callback:  opts.Callback,
	}, nil
}

func (t *Transformer) Registry() *Registry { return t.registry }

// Transform rewrites code, identified by id (filename[?query]).
func (t *Transformer) Transform(code, id string) *Result {
	started := time.Now()
	res := t.transform(code, id)
	observability.TransformDuration.Observe(time.Since(started).Seconds())
	observability.TransformsTotal.WithLabelValues(res.Status.String()).Inc()
	if res.Status == StatusRewritten {
		observability.ImportsInjectedTotal.Add(float64(len(res.Imports)))
	}
	return res
}

func (t *Transformer) transform(code, id string) *Result {
	req, ok := t.filter.Accept(id)
	if !ok {
		return &Result{Status: StatusSkipped}
	}
	slog.Debug("inject try", "id", id)
	if !t.filter.MayMatch(code) {
		return &Result{Status: StatusSkipped}
	}

	language := t.parser.Language(req.Filename)
	if language == "" {
		return &Result{Status: StatusSkipped}
	}

	script, offset := code, 0
	var siblingImports []string
	if t.parser.IsComposite(language) {
		blocks, err := t.parser.ScriptBlocks([]byte(code))
		if err != nil {
			return t.warn(id, err)
		}
		block, ok := parser.PrimaryScript(blocks)
		if !ok {
			return &Result{Status: StatusUnchanged}
		}
		// The component's script blocks compile into one module, so
		// imports in the other blocks bind names for the primary one too.
		for _, other := range blocks {
			if other.Start == block.Start {
				continue
			}
			tree, err := t.parser.Parse(other.Language, []byte(code[other.Start:other.End]))
			if err != nil {
				return t.warn(id, err)
			}
			siblingImports = append(siblingImports, ImportedNames(tree)...)
		}
		script, offset, language = code[block.Start:block.End], block.Start, block.Language
	}

	root, err := t.parser.Parse(language, []byte(script))
	if err != nil {
		return t.warn(id, err)
	}

	scopes := AttachScopes(root)
	if program := scopes[root]; program != nil {
		for _, name := range siblingImports {
			program.Declare(name)
		}
	}

	syn := newSynthesizer(t.registry, req.ModuleID(), script, t.callback)
	ast.Walk(newResolver(scopes, syn.handle), root)

	slog.Debug("inject", "id", id, "imports", syn.imports.Len())
	if syn.imports.Len() == 0 {
		return &Result{Status: StatusUnchanged}
	}

	imports := syn.imports.All()
	shiftEdits(syn.edits, offset)
	out := assemble(code, imports, syn.edits, offset)

	res := &Result{Status: StatusRewritten, Code: out.code, Imports: imports}
	if t.sourceMap {
		res.Map = sourcemap.New(code, out.edits)
	}
	return res
}

func (t *Transformer) warn(id string, err error) *Result {
	w := &Warning{
		Code:    errors.CodeParseFailed,
		Message: fmt.Sprintf("failed to parse %s. Consider restricting the transform to particular files via include", id),
	}
	slog.Warn("inject parse failed", "id", id, "code", w.Code, "error", err)
	return &Result{Status: StatusWarned, Warning: w}
}
