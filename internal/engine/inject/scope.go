package inject

import (
	"autoinject/internal/engine/ast"
)

// Scope is one lexical scope. The program scope has no parent.
type Scope struct {
	parent *Scope
	names  map[string]bool
	block  bool
}

func NewScope(parent *Scope, block bool) *Scope {
	return &Scope{parent: parent, names: make(map[string]bool), block: block}
}

func (s *Scope) Parent() *Scope { return s.parent }

func (s *Scope) Declare(name string) {
	s.names[name] = true
}

// Contains reports whether name is bound here or in any enclosing scope.
func (s *Scope) Contains(name string) bool {
	for scope := s; scope != nil; scope = scope.parent {
		if scope.names[name] {
			return true
		}
	}
	return false
}

// functionScope is the nearest enclosing non-block scope, where var,
// function and class bindings land.
func (s *Scope) functionScope() *Scope {
	scope := s
	for scope.block && scope.parent != nil {
		scope = scope.parent
	}
	return scope
}

// AttachScopes builds the scope chain for a lowered tree before any
// reference is resolved, so hoisted bindings are visible to uses that
// precede their declaration.
func AttachScopes(root *ast.Node) map[*ast.Node]*Scope {
	a := &scopeAttacher{scopes: make(map[*ast.Node]*Scope)}
	ast.Walk(a, root)
	return a.scopes
}

// ImportedNames lists the local names bound by import declarations in a
// lowered tree, in source order.
func ImportedNames(root *ast.Node) []string {
	var names []string
	ast.Inspect(root, func(node, _ *ast.Node) ast.Visit {
		if node.Kind == ast.KindImport {
			names = append(names, node.Names...)
			return ast.SkipChildren
		}
		return ast.Continue
	})
	return names
}

type scopeAttacher struct {
	scopes  map[*ast.Node]*Scope
	current *Scope
}

func (a *scopeAttacher) Enter(node, _ *ast.Node) ast.Visit {
	switch node.Kind {
	case ast.KindDeclaration:
		target := a.current
		if node.Hoisted {
			target = target.functionScope()
		}
		for _, name := range node.Names {
			target.Declare(name)
		}
	case ast.KindImport:
		for _, name := range node.Names {
			a.current.Declare(name)
		}
	}
	if node.IsScope() {
		a.current = NewScope(a.current, node.IsBlockScope())
		a.scopes[node] = a.current
	}
	return ast.Continue
}

func (a *scopeAttacher) Leave(node *ast.Node) {
	if _, ok := a.scopes[node]; ok {
		a.current = a.current.parent
	}
}

// Tracker follows the walk through the attached scopes.
type Tracker struct {
	scopes  map[*ast.Node]*Scope
	current *Scope
}

func NewTracker(scopes map[*ast.Node]*Scope) *Tracker {
	return &Tracker{scopes: scopes}
}

func (t *Tracker) Enter(node *ast.Node) {
	if scope, ok := t.scopes[node]; ok {
		t.current = scope
	}
}

func (t *Tracker) Leave(node *ast.Node) {
	if _, ok := t.scopes[node]; ok && t.current != nil {
		t.current = t.current.parent
	}
}

// Current returns the innermost scope; nil before the program is entered.
func (t *Tracker) Current() *Scope { return t.current }
