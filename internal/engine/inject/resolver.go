package inject

import (
	"strings"

	"autoinject/internal/engine/ast"
)

// Reference is a candidate free reference. Keypath is the root identifier
// followed by the literal property names of its member chain.
type Reference struct {
	Start   int
	End     int
	Name    string
	Keypath string
}

// referenceHandler reports whether it consumed the reference. A consumed
// member chain is not searched for shorter sub-chains.
type referenceHandler func(ref Reference, scope *Scope) bool

// resolver walks a lowered tree with a scope tracker and hands every
// candidate to a handler, longest member chain first.
type resolver struct {
	tracker *Tracker
	handle  referenceHandler
}

func newResolver(scopes map[*ast.Node]*Scope, handle referenceHandler) *resolver {
	return &resolver{tracker: NewTracker(scopes), handle: handle}
}

func (r *resolver) Enter(node, _ *ast.Node) ast.Visit {
	r.tracker.Enter(node)

	switch node.Kind {
	case ast.KindShorthand:
		r.handle(Reference{Start: node.Start, End: node.End, Name: node.Name, Keypath: node.Name}, r.tracker.Current())
		return ast.SkipChildren
	case ast.KindIdentifier, ast.KindMember:
		name, keypath, ok := Flatten(node)
		if !ok {
			return ast.Continue
		}
		ref := Reference{Start: node.Start, End: node.End, Name: name, Keypath: keypath}
		if r.handle(ref, r.tracker.Current()) {
			return ast.SkipChildren
		}
	}
	return ast.Continue
}

func (r *resolver) Leave(node *ast.Node) {
	r.tracker.Leave(node)
}

// Flatten rebuilds the dotted keypath of an identifier or member chain.
// It fails for chains that do not bottom out in an identifier.
func Flatten(node *ast.Node) (name, keypath string, ok bool) {
	var parts []string
	for node != nil && node.Kind == ast.KindMember {
		parts = append(parts, node.Property)
		node = node.Object()
	}
	if node == nil || node.Kind != ast.KindIdentifier {
		return "", "", false
	}
	parts = append(parts, node.Name)
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return node.Name, strings.Join(parts, "."), true
}
