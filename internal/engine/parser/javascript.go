// # internal/engine/parser/javascript.go
package parser

import (
	"autoinject/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// typeOnlyKinds are TypeScript constructs that never evaluate at runtime.
// Identifiers under them (e.g. the namespace in `ns.Type`) are not value
// references.
var typeOnlyKinds = map[string]bool{
	"type_annotation":           true,
	"type_arguments":            true,
	"type_parameters":           true,
	"interface_declaration":     true,
	"type_alias_declaration":    true,
	"implements_clause":         true,
	"generic_type":              true,
	"nested_type_identifier":    true,
	"type_query":                true,
	"object_type":               true,
	"union_type":                true,
	"intersection_type":         true,
	"function_type":             true,
	"constructor_type":          true,
	"array_type":                true,
	"tuple_type":                true,
	"lookup_type":               true,
	"index_type_query":          true,
	"conditional_type":          true,
	"parenthesized_type":        true,
	"readonly_type":             true,
	"template_literal_type":     true,
	"type_predicate_annotation": true,
	"asserts_annotation":        true,
	"index_signature":           true,
	"method_signature":          true,
	"abstract_method_signature": true,
	"property_signature":        true,
	"comment":                   true,
}

func newScriptLoweringEngine() *LoweringEngine {
	return NewLoweringEngine(map[string]NodeHandler{
		"identifier":                           lowerIdentifier,
		"shorthand_property_identifier":        lowerShorthand,
		"shorthand_property_identifier_pattern": lowerShorthand,
		"member_expression":                    lowerMember,
		"import_statement":                     lowerImport,
		"export_statement":                     lowerExport,
		"export_specifier":                     lowerExportSpecifier,
		"statement_block":                      lowerBlock,
		"for_statement":                        lowerForStatement,
		"for_in_statement":                     lowerForIn,
		"catch_clause":                         lowerCatch,
		"lexical_declaration":                  lowerVariables(false),
		"variable_declaration":                 lowerVariables(true),
		"function_declaration":                 lowerFunctionDeclaration,
		"generator_function_declaration":       lowerFunctionDeclaration,
		"function_signature":                   lowerFunctionSignature,
		"function_expression":                  lowerFunctionExpression,
		"function":                             lowerFunctionExpression,
		"generator_function":                   lowerFunctionExpression,
		"arrow_function":                       lowerFunctionExpression,
		"method_definition":                    lowerMethod,
		"class_declaration":                    lowerClass(true),
		"abstract_class_declaration":           lowerClass(true),
		"class":                                lowerClass(false),
		"enum_declaration":                     lowerNamedBlock(false),
		"internal_module":                      lowerNamedBlock(true),
		"module":                               lowerNamedBlock(true),
		"import_alias":                         lowerImportAlias,
		"jsx_opening_element":                  lowerJSXElement,
		"jsx_self_closing_element":             lowerJSXElement,
		"jsx_closing_element":                  lowerNothing,
	}, typeOnlyKinds)
}

func lowerNothing(*LoweringContext, *sitter.Node) []*ast.Node { return nil }

func lowerIdentifier(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	start, end := span(node)
	return []*ast.Node{ast.NewIdentifier(start, end, ctx.Text(node))}
}

func lowerShorthand(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	start, end := span(node)
	return []*ast.Node{{Kind: ast.KindShorthand, Start: start, End: end, Name: ctx.Text(node)}}
}

// lowerMember keeps `a.b.c` as a chain only when every property is a plain
// name and the innermost object is an identifier. Computed or private access
// splices the object's own lowering instead.
func lowerMember(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	object := node.ChildByFieldName("object")
	property := node.ChildByFieldName("property")
	lowered := ctx.Lower(object)
	if property == nil || property.Kind() != "property_identifier" || object == nil {
		return lowered
	}
	if len(lowered) != 1 {
		return lowered
	}
	inner := lowered[0]
	if inner.Kind != ast.KindIdentifier && inner.Kind != ast.KindMember {
		return lowered
	}
	if inner.Start != int(object.StartByte()) || inner.End != int(object.EndByte()) {
		return lowered
	}
	start, end := span(node)
	return []*ast.Node{ast.NewMember(start, end, inner, ctx.Text(property))}
}

func lowerImport(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	var names []string
	var collect func(n *sitter.Node)
	collect = func(n *sitter.Node) {
		switch n.Kind() {
		case "import_specifier":
			local := n.ChildByFieldName("alias")
			if local == nil {
				local = n.ChildByFieldName("name")
			}
			if local != nil && local.Kind() == "identifier" {
				names = append(names, ctx.Text(local))
			}
			return
		case "identifier":
			names = append(names, ctx.Text(n))
			return
		case "string", "import_attribute":
			return
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			collect(n.NamedChild(i))
		}
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		collect(node.NamedChild(i))
	}
	start, end := span(node)
	return []*ast.Node{{Kind: ast.KindImport, Start: start, End: end, Names: names}}
}

// lowerImportAlias handles TypeScript's `import A = B.C`.
func lowerImportAlias(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	var names []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "identifier" {
			names = append(names, ctx.Text(child))
			break
		}
	}
	start, end := span(node)
	return []*ast.Node{{Kind: ast.KindImport, Start: start, End: end, Names: names}}
}

// Re-exports (`export { a } from 'x'`) name nothing local.
func lowerExport(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	if node.ChildByFieldName("source") != nil {
		return nil
	}
	return ctx.Children(node)
}

func lowerExportSpecifier(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	name := node.ChildByFieldName("name")
	if name == nil || name.Kind() != "identifier" {
		return nil
	}
	return lowerIdentifier(ctx, name)
}

func lowerBlock(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	start, end := span(node)
	return []*ast.Node{{Kind: ast.KindBlock, Start: start, End: end, Children: ctx.Children(node)}}
}

func lowerForStatement(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	return lowerBlock(ctx, node)
}

func lowerForIn(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	start, end := span(node)
	block := &ast.Node{Kind: ast.KindBlock, Start: start, End: end}

	left := node.ChildByFieldName("left")
	if kind := node.ChildByFieldName("kind"); kind != nil && left != nil {
		names, exprs := bindPattern(ctx, left)
		ls, le := span(left)
		block.Children = append(block.Children, ast.NewDeclaration(ls, le, ctx.Text(kind) == "var", names...))
		block.Children = append(block.Children, exprs...)
	} else {
		block.Children = append(block.Children, ctx.Lower(left)...)
	}
	block.Children = append(block.Children, ctx.Lower(node.ChildByFieldName("right"))...)
	block.Children = append(block.Children, ctx.Lower(node.ChildByFieldName("body"))...)
	return []*ast.Node{block}
}

func lowerCatch(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	start, end := span(node)
	block := &ast.Node{Kind: ast.KindBlock, Start: start, End: end}
	if param := node.ChildByFieldName("parameter"); param != nil {
		names, exprs := bindPattern(ctx, param)
		ps, pe := span(param)
		block.Children = append(block.Children, ast.NewDeclaration(ps, pe, false, names...))
		block.Children = append(block.Children, exprs...)
	}
	block.Children = append(block.Children, ctx.Lower(node.ChildByFieldName("body"))...)
	return []*ast.Node{block}
}

func lowerVariables(hoisted bool) NodeHandler {
	return func(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
		var out []*ast.Node
		for i := uint(0); i < node.NamedChildCount(); i++ {
			declarator := node.NamedChild(i)
			if declarator.Kind() != "variable_declarator" {
				continue
			}
			name := declarator.ChildByFieldName("name")
			if name != nil {
				names, exprs := bindPattern(ctx, name)
				ns, ne := span(name)
				out = append(out, ast.NewDeclaration(ns, ne, hoisted, names...))
				out = append(out, exprs...)
			}
			out = append(out, ctx.Lower(declarator.ChildByFieldName("value"))...)
		}
		return out
	}
}

func lowerFunctionDeclaration(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	var out []*ast.Node
	if name := node.ChildByFieldName("name"); name != nil {
		ns, ne := span(name)
		out = append(out, ast.NewDeclaration(ns, ne, true, ctx.Text(name)))
	}
	return append(out, lowerFunctionScope(ctx, node, nil))
}

func lowerFunctionSignature(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	name := node.ChildByFieldName("name")
	if name == nil {
		return nil
	}
	ns, ne := span(name)
	return []*ast.Node{ast.NewDeclaration(ns, ne, true, ctx.Text(name))}
}

// A function expression's own name is only visible inside it.
func lowerFunctionExpression(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	var self *ast.Node
	if name := node.ChildByFieldName("name"); name != nil {
		ns, ne := span(name)
		self = ast.NewDeclaration(ns, ne, false, ctx.Text(name))
	}
	return []*ast.Node{lowerFunctionScope(ctx, node, self)}
}

func lowerMethod(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	var out []*ast.Node
	if name := node.ChildByFieldName("name"); name != nil && name.Kind() == "computed_property_name" {
		out = append(out, ctx.Children(name)...)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == "decorator" {
			out = append(out, ctx.Lower(child)...)
		}
	}
	return append(out, lowerFunctionScope(ctx, node, nil))
}

func lowerFunctionScope(ctx *LoweringContext, node *sitter.Node, self *ast.Node) *ast.Node {
	start, end := span(node)
	fn := &ast.Node{Kind: ast.KindFunction, Start: start, End: end}
	if self != nil {
		fn.Children = append(fn.Children, self)
	}

	if param := node.ChildByFieldName("parameter"); param != nil {
		names, exprs := bindPattern(ctx, param)
		ps, pe := span(param)
		fn.Children = append(fn.Children, ast.NewDeclaration(ps, pe, false, names...))
		fn.Children = append(fn.Children, exprs...)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		var names []string
		var exprs []*ast.Node
		for i := uint(0); i < params.NamedChildCount(); i++ {
			n, e := bindPattern(ctx, params.NamedChild(i))
			names = append(names, n...)
			exprs = append(exprs, e...)
		}
		ps, pe := span(params)
		fn.Children = append(fn.Children, ast.NewDeclaration(ps, pe, false, names...))
		fn.Children = append(fn.Children, exprs...)
	}

	// The body block shares the function scope.
	body := node.ChildByFieldName("body")
	if body != nil && body.Kind() == "statement_block" {
		fn.Children = append(fn.Children, ctx.Children(body)...)
	} else {
		fn.Children = append(fn.Children, ctx.Lower(body)...)
	}
	return fn
}

// A class declaration hoists its name. A class expression's name is only
// visible inside the class, so it is bound in a block wrapping the body.
func lowerClass(declaration bool) NodeHandler {
	return func(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
		name := node.ChildByFieldName("name")
		if name == nil {
			return ctx.Children(node)
		}
		ns, ne := span(name)
		if declaration {
			out := []*ast.Node{ast.NewDeclaration(ns, ne, true, ctx.Text(name))}
			return append(out, ctx.ChildrenExcept(node, name)...)
		}
		start, end := span(node)
		children := []*ast.Node{ast.NewDeclaration(ns, ne, false, ctx.Text(name))}
		children = append(children, ctx.ChildrenExcept(node, name)...)
		return []*ast.Node{{Kind: ast.KindBlock, Start: start, End: end, Children: children}}
	}
}

// lowerNamedBlock covers TypeScript enums and namespaces: a declared name
// plus a body whose members are not free references.
func lowerNamedBlock(hoisted bool) NodeHandler {
	return func(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
		var out []*ast.Node
		name := node.ChildByFieldName("name")
		if name != nil && name.Kind() == "identifier" {
			ns, ne := span(name)
			out = append(out, ast.NewDeclaration(ns, ne, hoisted, ctx.Text(name)))
		}
		return append(out, ctx.Lower(node.ChildByFieldName("body"))...)
	}
}

func lowerJSXElement(ctx *LoweringContext, node *sitter.Node) []*ast.Node {
	return ctx.ChildrenExcept(node, node.ChildByFieldName("name"))
}

// bindPattern collects the names a binding pattern declares, plus the
// lowered expressions it evaluates (default values, computed keys).
func bindPattern(ctx *LoweringContext, node *sitter.Node) ([]string, []*ast.Node) {
	var names []string
	var exprs []*ast.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "identifier", "shorthand_property_identifier_pattern":
			names = append(names, ctx.Text(n))
		case "object_pattern", "array_pattern", "rest_pattern":
			for i := uint(0); i < n.NamedChildCount(); i++ {
				visit(n.NamedChild(i))
			}
		case "pair_pattern":
			if key := n.ChildByFieldName("key"); key != nil && key.Kind() == "computed_property_name" {
				exprs = append(exprs, ctx.Children(key)...)
			}
			visit(n.ChildByFieldName("value"))
		case "assignment_pattern", "object_assignment_pattern":
			visit(n.ChildByFieldName("left"))
			exprs = append(exprs, ctx.Lower(n.ChildByFieldName("right"))...)
		case "required_parameter", "optional_parameter":
			visit(n.ChildByFieldName("pattern"))
			exprs = append(exprs, ctx.Lower(n.ChildByFieldName("value"))...)
		case "member_expression", "subscript_expression":
			exprs = append(exprs, ctx.Lower(n)...)
		}
	}
	visit(node)
	return names, exprs
}
