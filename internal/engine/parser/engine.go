package parser

import (
	"autoinject/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler lowers one tree-sitter node into zero or more ast nodes.
// Handlers decide themselves which children to descend into.
type NodeHandler func(ctx *LoweringContext, node *sitter.Node) []*ast.Node

// LoweringContext carries the source and dispatch table shared by handlers.
type LoweringContext struct {
	Source   []byte
	handlers map[string]NodeHandler
	skip     map[string]bool
}

// LoweringEngine walks a concrete syntax tree and dispatches handlers by
// node kind. Kinds without a handler are transparent: their named children
// are lowered and spliced into the parent.
type LoweringEngine struct {
	handlers map[string]NodeHandler
	skip     map[string]bool
}

func NewLoweringEngine(handlers map[string]NodeHandler, skip map[string]bool) *LoweringEngine {
	return &LoweringEngine{handlers: handlers, skip: skip}
}

func (e *LoweringEngine) Lower(root *sitter.Node, source []byte) *ast.Node {
	ctx := &LoweringContext{Source: source, handlers: e.handlers, skip: e.skip}
	program := &ast.Node{Kind: ast.KindProgram}
	if root == nil {
		return program
	}
	program.Start = int(root.StartByte())
	program.End = int(root.EndByte())
	program.Children = ctx.Children(root)
	return program
}

// Lower lowers a single node.
func (c *LoweringContext) Lower(node *sitter.Node) []*ast.Node {
	if node == nil {
		return nil
	}
	kind := node.Kind()
	if c.skip[kind] {
		return nil
	}
	if handler, ok := c.handlers[kind]; ok {
		return handler(c, node)
	}
	return c.Children(node)
}

// Children lowers every named child of node.
func (c *LoweringContext) Children(node *sitter.Node) []*ast.Node {
	return c.ChildrenExcept(node, nil)
}

// ChildrenExcept lowers every named child of node other than except.
func (c *LoweringContext) ChildrenExcept(node, except *sitter.Node) []*ast.Node {
	if node == nil {
		return nil
	}
	var out []*ast.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || sameNode(child, except) {
			continue
		}
		out = append(out, c.Lower(child)...)
	}
	return out
}

func (c *LoweringContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func span(node *sitter.Node) (int, int) {
	return int(node.StartByte()), int(node.EndByte())
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Id() == b.Id()
}
