package ast

// Visit is returned by an enter callback to steer the walk.
type Visit int

const (
	Continue Visit = iota
	SkipChildren
)

// Visitor receives every node on the way down (Enter) and on the way up
// (Leave). Leave is called for every entered node, including ones whose
// children were skipped.
type Visitor interface {
	Enter(node, parent *Node) Visit
	Leave(node *Node)
}

// Walk traverses the tree depth-first, left to right.
func Walk(v Visitor, root *Node) {
	walk(v, root, nil)
}

func walk(v Visitor, node, parent *Node) {
	if node == nil {
		return
	}
	if v.Enter(node, parent) != SkipChildren {
		for _, child := range node.Children {
			walk(v, child, node)
		}
	}
	v.Leave(node)
}

// Inspect is a convenience walk that only needs an enter step.
func Inspect(root *Node, fn func(node, parent *Node) Visit) {
	Walk(inspector(fn), root)
}

type inspector func(node, parent *Node) Visit

func (f inspector) Enter(node, parent *Node) Visit { return f(node, parent) }
func (f inspector) Leave(*Node)                    {}
