// # internal/engine/parser/loader.go
package parser

import (
	"fmt"
	"sort"

	"autoinject/internal/shared/util"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

type GrammarLoader struct {
	grammars map[string]*sitter.Language
	pools    map[string]*ParserPool
	registry map[string]LanguageSpec
}

func NewGrammarLoader(registry map[string]LanguageSpec) (*GrammarLoader, error) {
	if registry == nil {
		registry = DefaultLanguageRegistry()
	}
	if err := validateLanguageRegistry(registry); err != nil {
		return nil, err
	}

	gl := &GrammarLoader{
		grammars: make(map[string]*sitter.Language),
		pools:    make(map[string]*ParserPool),
		registry: cloneLanguageRegistry(registry),
	}

	for _, langID := range util.SortedStringKeys(gl.registry) {
		spec := gl.registry[langID]
		if !spec.Enabled {
			continue
		}
		if err := gl.load(spec.Grammar); err != nil {
			return nil, fmt.Errorf("language %q: %w", langID, err)
		}
	}

	// Composite files embed any script dialect regardless of which file
	// extensions are enabled on their own.
	if gl.hasComposite() {
		for _, grammar := range []string{LangJavaScript, LangTypeScript, LangTSX} {
			if err := gl.load(grammar); err != nil {
				return nil, err
			}
		}
	}

	return gl, nil
}

func (gl *GrammarLoader) load(grammar string) error {
	if _, ok := gl.grammars[grammar]; ok {
		return nil
	}
	var lang *sitter.Language
	switch grammar {
	case LangJavaScript:
		lang = sitter.NewLanguage(tree_sitter_javascript.Language())
	case LangTypeScript:
		lang = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	case LangTSX:
		lang = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	case grammarHTML:
		lang = sitter.NewLanguage(tree_sitter_html.Language())
	default:
		return fmt.Errorf("grammar %q is not available", grammar)
	}
	gl.grammars[grammar] = lang
	gl.pools[grammar] = NewParserPool(lang)
	return nil
}

func (gl *GrammarLoader) hasComposite() bool {
	for _, spec := range gl.registry {
		if spec.Enabled && spec.Composite {
			return true
		}
	}
	return false
}

// Pool returns the parser pool for a grammar id.
func (gl *GrammarLoader) Pool(grammar string) (*ParserPool, bool) {
	pool, ok := gl.pools[grammar]
	return pool, ok
}

func (gl *GrammarLoader) LanguageRegistry() map[string]LanguageSpec {
	return cloneLanguageRegistry(gl.registry)
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	set := make(map[string]bool)
	for _, spec := range gl.registry {
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			set[ext] = true
		}
	}
	extensions := make([]string, 0, len(set))
	for ext := range set {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}
