// # internal/engine/parser/language.go
package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
	LangVue        = "vue"

	grammarHTML = "html"
)

type LanguageSpec struct {
	Name       string
	Grammar    string // tree-sitter grammar backing the language
	Extensions []string
	Composite  bool // script lives in blocks inside markup
	Enabled    bool
}

type LanguageOverride struct {
	Enabled    *bool
	Extensions []string
}

func DefaultLanguageRegistry() map[string]LanguageSpec {
	return map[string]LanguageSpec{
		LangJavaScript: {
			Name:       LangJavaScript,
			Grammar:    LangJavaScript,
			Extensions: []string{".cjs", ".js", ".jsx", ".mjs"},
			Enabled:    true,
		},
		LangTypeScript: {
			Name:       LangTypeScript,
			Grammar:    LangTypeScript,
			Extensions: []string{".cts", ".mts", ".ts"},
			Enabled:    true,
		},
		LangTSX: {
			Name:       LangTSX,
			Grammar:    LangTSX,
			Extensions: []string{".tsx"},
			Enabled:    true,
		},
		LangVue: {
			Name:       LangVue,
			Grammar:    grammarHTML,
			Extensions: []string{".nvue", ".uvue", ".vue"},
			Composite:  true,
			Enabled:    true,
		},
	}
}

func BuildLanguageRegistry(overrides map[string]LanguageOverride) (map[string]LanguageSpec, error) {
	registry := cloneLanguageRegistry(DefaultLanguageRegistry())
	for language, override := range overrides {
		spec, ok := registry[language]
		if !ok {
			return nil, fmt.Errorf("unknown language override %q", language)
		}
		if override.Enabled != nil {
			spec.Enabled = *override.Enabled
		}
		if len(override.Extensions) > 0 {
			spec.Extensions = normalizeExtensions(override.Extensions)
		}
		registry[language] = spec
	}

	if err := validateLanguageRegistry(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

// LanguageForScriptLang maps a <script lang="..."> attribute to a language id.
func LanguageForScriptLang(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "ts", "typescript", "uts":
		return LangTypeScript
	case "tsx":
		return LangTSX
	default:
		return LangJavaScript
	}
}

func extensionOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func cloneLanguageRegistry(in map[string]LanguageSpec) map[string]LanguageSpec {
	out := make(map[string]LanguageSpec, len(in))
	for id, spec := range in {
		copySpec := spec
		copySpec.Extensions = append([]string(nil), spec.Extensions...)
		out[id] = copySpec
	}
	return out
}

func validateLanguageRegistry(registry map[string]LanguageSpec) error {
	extOwner := make(map[string]string)
	for _, id := range sortedRegistryIDs(registry) {
		spec := registry[id]
		if !spec.Enabled {
			continue
		}
		for _, ext := range normalizeExtensions(spec.Extensions) {
			if existing, ok := extOwner[ext]; ok && existing != id {
				return fmt.Errorf("duplicate extension %q owned by %q and %q", ext, existing, id)
			}
			extOwner[ext] = id
		}
	}
	return nil
}

func normalizeExtensions(values []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(values))
	for _, value := range values {
		raw := strings.TrimSpace(strings.ToLower(value))
		if raw == "" {
			continue
		}
		if !strings.HasPrefix(raw, ".") {
			raw = "." + raw
		}
		if seen[raw] {
			continue
		}
		seen[raw] = true
		out = append(out, raw)
	}
	sort.Strings(out)
	return out
}

func sortedRegistryIDs(registry map[string]LanguageSpec) []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
