// # internal/engine/ast/ast.go
package ast

// Kind tags the node shapes the inject pass cares about. Everything else in
// the source grammar is flattened away by the parser lowering.
type Kind int

const (
	KindOther Kind = iota
	KindProgram
	KindFunction
	KindBlock
	KindDeclaration
	KindIdentifier
	KindMember
	KindShorthand
	KindImport
)

var kindNames = [...]string{
	KindOther:       "other",
	KindProgram:     "program",
	KindFunction:    "function",
	KindBlock:       "block",
	KindDeclaration: "declaration",
	KindIdentifier:  "identifier",
	KindMember:      "member",
	KindShorthand:   "shorthand",
	KindImport:      "import",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is a lowered syntax node. Start and End are byte offsets into the
// source the tree was parsed from.
//
// Field use per kind:
//
//	KindIdentifier   Name
//	KindShorthand    Name (the property key that doubles as a value reference)
//	KindMember       Property, Object (the chain's object, always Children[0])
//	KindDeclaration  Names, Hoisted (var/function/class bindings hoist to the function scope)
//	KindImport       Names (locally bound import names)
//	KindFunction     Children include the parameter declarations
type Node struct {
	Kind     Kind
	Start    int
	End      int
	Name     string
	Property string
	Names    []string
	Hoisted  bool
	Children []*Node
}

// Object returns the object of a member node, or nil.
func (n *Node) Object() *Node {
	if n == nil || n.Kind != KindMember || len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// IsScope reports whether the node introduces a lexical scope.
func (n *Node) IsScope() bool {
	switch n.Kind {
	case KindProgram, KindFunction, KindBlock:
		return true
	}
	return false
}

// IsBlockScope reports whether the node introduces a block (non-function) scope.
func (n *Node) IsBlockScope() bool {
	return n.Kind == KindBlock
}

func NewIdentifier(start, end int, name string) *Node {
	return &Node{Kind: KindIdentifier, Start: start, End: end, Name: name}
}

func NewMember(start, end int, object *Node, property string) *Node {
	return &Node{Kind: KindMember, Start: start, End: end, Property: property, Children: []*Node{object}}
}

func NewDeclaration(start, end int, hoisted bool, names ...string) *Node {
	return &Node{Kind: KindDeclaration, Start: start, End: end, Hoisted: hoisted, Names: names}
}
