// # internal/engine/parser/parser.go
package parser

import (
	"fmt"
	"strings"
	"time"

	"autoinject/internal/core/errors"
	"autoinject/internal/engine/ast"
	"autoinject/internal/shared/observability"
	"autoinject/internal/shared/util"
)

// Parser turns script source into the lowered ast consumed by the inject
// pass. It is safe for concurrent use.
type Parser struct {
	loader     *GrammarLoader
	extensions map[string]string
	script     *LoweringEngine
}

func New() (*Parser, error) {
	return NewWithRegistry(nil)
}

func NewWithRegistry(registry map[string]LanguageSpec) (*Parser, error) {
	loader, err := NewGrammarLoader(registry)
	if err != nil {
		return nil, err
	}
	p := &Parser{
		loader:     loader,
		extensions: make(map[string]string),
		script:     newScriptLoweringEngine(),
	}
	for lang, spec := range loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			p.extensions[strings.ToLower(ext)] = lang
		}
	}
	return p, nil
}

// Language returns the language id for a filename, or "" when unsupported.
func (p *Parser) Language(filename string) string {
	return p.extensions[extensionOf(filename)]
}

// IsComposite reports whether the language wraps scripts in markup.
func (p *Parser) IsComposite(language string) bool {
	spec, ok := p.loader.registry[language]
	return ok && spec.Composite
}

func (p *Parser) SupportedExtensions() []string {
	return util.SortedStringKeys(p.extensions)
}

// Parse parses script source in the given language. Source with syntax
// errors is rejected rather than lowered from a partial tree.
func (p *Parser) Parse(language string, source []byte) (*ast.Node, error) {
	pool, ok := p.loader.Pool(language)
	if !ok || p.IsComposite(language) {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("no script grammar for: %s", language))
	}

	started := time.Now()
	tree := pool.Parse(source)
	observability.ParsingDuration.WithLabelValues(language).Observe(time.Since(started).Seconds())
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, errors.AddContext(
			errors.New(errors.CodeParseFailed, "syntax error"),
			errors.CtxLanguage, language,
		)
	}
	return p.script.Lower(root, source), nil
}

// ScriptBlocks locates the <script> elements of a composite source.
func (p *Parser) ScriptBlocks(source []byte) ([]ScriptBlock, error) {
	pool, ok := p.loader.Pool(grammarHTML)
	if !ok {
		return nil, errors.New(errors.CodeNotSupported, "composite sources are disabled")
	}
	tree := pool.Parse(source)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}
	defer tree.Close()
	return extractScriptBlocks(tree.RootNode(), source), nil
}
