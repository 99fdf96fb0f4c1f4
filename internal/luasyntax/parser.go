package luasyntax

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/lua"
)

// ErrSyntax is returned when the host parser cannot produce a usable tree
// for the unit. Fatal for the unit only; a batch keeps going.
var ErrSyntax = errors.New("lua syntax error")

// Parse parses Lua source into the statement-level node tree the
// documentation core consumes. The returned tree is fully materialized;
// no tree-sitter state outlives the call.
func Parse(ctx context.Context, src []byte) (*Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lua.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if bad := firstError(root); bad != nil {
		return nil, fmt.Errorf("%w at line %d", ErrSyntax, LineOf(src, int(bad.StartByte())))
	}

	chunk := &Node{Kind: KindChunk}
	chunk.Children = buildBlock(root, src)
	return chunk, nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if bad := firstError(n.NamedChild(i)); bad != nil {
			return bad
		}
	}
	return nil
}

// buildBlock converts the statements of a block, attaching each contiguous
// run of immediately preceding comment lines to the statement that follows
// it. A blank line breaks the run.
func buildBlock(block *sitter.Node, src []byte) []*Node {
	var out []*Node
	var pending []string
	pendingEndRow := uint32(0)
	havePending := false

	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child.Type() == "comment" {
			if havePending && child.StartPoint().Row > pendingEndRow+1 {
				pending = nil
			}
			pending = append(pending, strings.Split(child.Content(src), "\n")...)
			pendingEndRow = child.EndPoint().Row
			havePending = true
			continue
		}
		comments := pending
		if havePending && child.StartPoint().Row > pendingEndRow+1 {
			comments = nil
		}
		pending = nil
		havePending = false
		out = append(out, convertStatement(child, src, comments)...)
	}
	return out
}

// convertStatement maps one CST statement to zero or more nodes. Control
// structures contribute no node of their own; their inner statements are
// spliced into the enclosing block.
func convertStatement(stmt *sitter.Node, src []byte, comments []string) []*Node {
	switch stmt.Type() {
	case "function_declaration":
		return []*Node{convertFunctionDecl(stmt, src, comments)}
	case "variable_declaration":
		// local declarations wrap an assignment_statement, or carry just a
		// variable_list when no value is assigned.
		if inner := namedChildOfType(stmt, "assignment_statement"); inner != nil {
			return []*Node{convertAssign(stmt, inner, src, comments, true)}
		}
		return []*Node{convertAssign(stmt, stmt, src, comments, true)}
	case "assignment_statement":
		return []*Node{convertAssign(stmt, stmt, src, comments, false)}
	case "function_call":
		n := newNode(KindCall, stmt, src, comments)
		if name := stmt.ChildByFieldName("name"); name != nil {
			n.Name = name.Content(src)
		}
		return []*Node{n}
	case "do_statement", "while_statement", "repeat_statement", "for_statement",
		"if_statement", "elseif_statement", "else_statement":
		var out []*Node
		for i := 0; i < int(stmt.NamedChildCount()); i++ {
			child := stmt.NamedChild(i)
			switch child.Type() {
			case "block":
				out = append(out, buildBlock(child, src)...)
			case "elseif_statement", "else_statement":
				out = append(out, convertStatement(child, src, nil)...)
			}
		}
		return out
	}
	return nil
}

func newNode(kind NodeKind, stmt *sitter.Node, src []byte, comments []string) *Node {
	start := int(stmt.StartByte())
	return &Node{
		Kind:      kind,
		Comments:  comments,
		StartByte: start,
		Line:      LineOf(src, start),
	}
}

func convertFunctionDecl(stmt *sitter.Node, src []byte, comments []string) *Node {
	kind := KindFunction
	if first := stmt.Child(0); first != nil && first.Type() == "local" {
		kind = KindLocalFunction
	}

	n := newNode(kind, stmt, src, comments)
	if name := stmt.ChildByFieldName("name"); name != nil {
		switch name.Type() {
		case "identifier":
			n.Name = name.Content(src)
		case "dot_index_expression":
			n.Receiver = fieldContent(name, "table", src)
			n.Name = fieldContent(name, "field", src)
		case "method_index_expression":
			n.Kind = KindMethod
			n.IsMethod = true
			n.Receiver = fieldContent(name, "table", src)
			n.Name = fieldContent(name, "method", src)
		default:
			n.Name = name.Content(src)
		}
	}
	n.Params = declaredParams(stmt.ChildByFieldName("parameters"), src)
	if body := stmt.ChildByFieldName("body"); body != nil {
		n.Children = buildBlock(body, src)
	} else if body := namedChildOfType(stmt, "block"); body != nil {
		n.Children = buildBlock(body, src)
	}
	return n
}

// convertAssign converts an assignment. stmt is the outer statement (for
// position and comments), assign the node carrying variable/expression lists.
func convertAssign(stmt, assign *sitter.Node, src []byte, comments []string, local bool) *Node {
	kind := KindAssign
	if local {
		kind = KindLocalAssign
	}
	n := newNode(kind, stmt, src, comments)

	if vars := namedChildOfType(assign, "variable_list"); vars != nil {
		for i := 0; i < int(vars.NamedChildCount()); i++ {
			n.Targets = append(n.Targets, vars.NamedChild(i).Content(src))
		}
	}

	exprs := namedChildOfType(assign, "expression_list")
	if exprs == nil || exprs.NamedChildCount() == 0 {
		return n
	}
	value := exprs.NamedChild(0)
	switch value.Type() {
	case "function_definition":
		n.HasFunctionValue = true
		n.Params = declaredParams(value.ChildByFieldName("parameters"), src)
		if body := value.ChildByFieldName("body"); body != nil {
			n.Children = buildBlock(body, src)
		}
	case "number", "string", "true", "false", "nil":
		n.Literal = &Literal{Raw: value.Content(src)}
	case "table_constructor":
		n.Fields = convertTableFields(value, src)
	}
	return n
}

func convertTableFields(tc *sitter.Node, src []byte) []*Node {
	var fields []*Node
	var pending []string
	pendingEndRow := uint32(0)
	havePending := false

	for i := 0; i < int(tc.NamedChildCount()); i++ {
		child := tc.NamedChild(i)
		switch child.Type() {
		case "comment":
			if havePending && child.StartPoint().Row > pendingEndRow+1 {
				pending = nil
			}
			pending = append(pending, strings.Split(child.Content(src), "\n")...)
			pendingEndRow = child.EndPoint().Row
			havePending = true
		case "field":
			f := newNode(KindTableField, child, src, pending)
			pending = nil
			havePending = false
			if name := child.ChildByFieldName("name"); name != nil {
				f.Name = name.Content(src)
			}
			if value := child.ChildByFieldName("value"); value != nil {
				switch value.Type() {
				case "number", "string", "true", "false", "nil":
					f.Literal = &Literal{Raw: value.Content(src)}
				}
			}
			fields = append(fields, f)
		}
	}
	return fields
}

func declaredParams(params *sitter.Node, src []byte) []string {
	if params == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			out = append(out, p.Content(src))
		case "vararg_expression":
			out = append(out, "...")
		}
	}
	return out
}

func fieldContent(n *sitter.Node, field string, src []byte) string {
	if c := n.ChildByFieldName(field); c != nil {
		return c.Content(src)
	}
	return ""
}

func namedChildOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}
