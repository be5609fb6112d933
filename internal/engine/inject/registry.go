// # internal/engine/inject/registry.go
package inject

import (
	"path/filepath"
	"sort"
	"strings"
)

const (
	// ExportDefault is implied by a bare module string.
	ExportDefault = "default"
	// ExportNamespace requests `import * as`.
	ExportNamespace = "*"

	namespaceSeparator = "."
)

// Target is where an injected binding comes from.
type Target struct {
	Module string
	Export string
}

// Resolution is a registry hit. Member is set only when a namespace
// qualifier with a wildcard export matched; the reference then becomes
// <alias>.<Member> and Qualifier holds the matched root segment.
type Resolution struct {
	Target
	Qualifier string
	Member    string
}

// Registry maps dotted qualifiers to injection targets. It is immutable
// after construction and safe to share between goroutines.
type Registry struct {
	flat      map[string]Target
	namespace map[string]Target
}

func NewRegistry(bindings map[string]Target) *Registry {
	r := &Registry{
		flat:      make(map[string]Target, len(bindings)),
		namespace: make(map[string]Target),
	}
	for qualifier, target := range bindings {
		if target.Export == "" {
			target.Export = ExportDefault
		}
		target.Module = normalizeModule(target.Module)
		if strings.HasSuffix(qualifier, namespaceSeparator) {
			r.namespace[qualifier] = target
		}
		r.flat[qualifier] = target
	}
	return r
}

func normalizeModule(module string) string {
	if filepath.Separator == '/' {
		return module
	}
	return strings.ReplaceAll(module, string(filepath.Separator), "/")
}

func (r *Registry) Len() int { return len(r.flat) }

// Qualifiers returns every configured qualifier in sorted order.
func (r *Registry) Qualifiers() []string {
	out := make([]string, 0, len(r.flat))
	for q := range r.flat {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// Lookup resolves a keypath. Exact qualifiers win; otherwise a two-segment
// keypath may fall back to a namespace qualifier for its first segment, with
// the second segment used as the export name. Deeper keypaths never reach
// the namespace table.
func (r *Registry) Lookup(keypath string) (Resolution, bool) {
	if target, ok := r.flat[keypath]; ok {
		return Resolution{Target: target}, true
	}
	if len(r.namespace) == 0 {
		return Resolution{}, false
	}
	parts := strings.Split(keypath, namespaceSeparator)
	if len(parts) != 2 {
		return Resolution{}, false
	}
	target, ok := r.namespace[parts[0]+namespaceSeparator]
	if !ok {
		return Resolution{}, false
	}
	if target.Export == ExportNamespace {
		return Resolution{Target: target, Qualifier: parts[0], Member: parts[1]}, true
	}
	return Resolution{Target: Target{Module: target.Module, Export: parts[1]}}, true
}
