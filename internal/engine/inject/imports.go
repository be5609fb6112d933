package inject

import (
	"fmt"

	"autoinject/internal/engine/sourcemap"
)

// PendingImport is one synthesized import declaration.
type PendingImport struct {
	Key    string
	Module string
	Export string
	Local  string
}

// Statement renders the import declaration.
func (p PendingImport) Statement() string {
	if p.Export == ExportNamespace {
		return fmt.Sprintf("import * as %s from '%s';", p.Local, p.Module)
	}
	return fmt.Sprintf("import { %s as %s } from '%s';", p.Export, p.Local, p.Module)
}

// ImportSet keeps pending imports unique by key, in first-seen order.
type ImportSet struct {
	order []string
	byKey map[string]PendingImport
}

func NewImportSet() *ImportSet {
	return &ImportSet{byKey: make(map[string]PendingImport)}
}

func (s *ImportSet) Len() int { return len(s.order) }

func (s *ImportSet) Get(key string) (PendingImport, bool) {
	imp, ok := s.byKey[key]
	return imp, ok
}

// Add stores imp unless its key is already present and reports whether it
// was new.
func (s *ImportSet) Add(imp PendingImport) bool {
	if _, ok := s.byKey[imp.Key]; ok {
		return false
	}
	s.byKey[imp.Key] = imp
	s.order = append(s.order, imp.Key)
	return true
}

// All returns the imports in creation order.
func (s *ImportSet) All() []PendingImport {
	out := make([]PendingImport, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}

func importKey(keypath string, target Target) string {
	return keypath + ":" + target.Module + ":" + target.Export
}

// synthesizer decides, per reference, whether an import is needed and which
// local name the reference site must use.
type synthesizer struct {
	registry *Registry
	moduleID string
	source   string
	callback Callback

	imports *ImportSet
	edits   []sourcemap.Edit
}

func newSynthesizer(registry *Registry, moduleID, source string, callback Callback) *synthesizer {
	return &synthesizer{
		registry: registry,
		moduleID: moduleID,
		source:   source,
		callback: callback,
		imports:  NewImportSet(),
	}
}

func (s *synthesizer) handle(ref Reference, scope *Scope) bool {
	res, ok := s.registry.Lookup(ref.Keypath)
	if !ok {
		return false
	}
	if scope != nil && scope.Contains(ref.Name) {
		return false
	}
	if res.Module == s.moduleID {
		return false
	}

	keypath := ref.Keypath
	if res.Member != "" {
		keypath = res.Qualifier
	}
	key := importKey(keypath, res.Target)

	imp, ok := s.imports.Get(key)
	if !ok {
		local := ref.Name
		if ref.Name != ref.Keypath {
			local = MakeLegalIdentifier("$inject_" + keypath)
		}
		imp = PendingImport{Key: key, Module: res.Module, Export: res.Export, Local: local}
		s.imports.Add(imp)
		if s.callback != nil {
			s.callback(s.imports.All(), res.Target)
		}
	}

	replacement := imp.Local
	if res.Member != "" {
		replacement = imp.Local + "." + res.Member
	}
	if replacement != s.source[ref.Start:ref.End] {
		s.edits = append(s.edits, sourcemap.Edit{Start: ref.Start, End: ref.End, Text: replacement})
	}
	return true
}
