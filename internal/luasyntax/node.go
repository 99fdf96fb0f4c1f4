// Package luasyntax provides the syntax-tree side of documentation
// extraction: it parses Lua source with tree-sitter and converts the
// concrete syntax tree into statement-level nodes carrying their attached
// comment blocks, declared parameter names and best-effort literal values.
package luasyntax

import "strings"

// NodeKind identifies the statement shapes the documentation core routes on.
type NodeKind int

const (
	KindChunk NodeKind = iota
	KindAssign
	KindLocalAssign
	KindFunction      // function f() / function a.b()
	KindLocalFunction // local function f()
	KindMethod        // function Class:method()
	KindTableField    // field inside a table constructor
	KindCall          // expression statement calling a function
)

func (k NodeKind) String() string {
	switch k {
	case KindChunk:
		return "chunk"
	case KindAssign:
		return "assign"
	case KindLocalAssign:
		return "local-assign"
	case KindFunction:
		return "function"
	case KindLocalFunction:
		return "local-function"
	case KindMethod:
		return "method"
	case KindTableField:
		return "table-field"
	case KindCall:
		return "call"
	}
	return "unknown"
}

// Literal is a scalar value snapshot extracted from source.
type Literal struct {
	Raw string // source text: "42", `"s"`, "true", "nil"
}

// Node is one statement (or table field) with its attached comment block.
// The comment strings keep their original leading marker.
type Node struct {
	Kind      NodeKind
	Comments  []string
	StartByte int
	Line      int

	// Function declarations.
	Name     string   // declared name, or member name for dotted/method forms
	Receiver string   // owner identifier for a.b / a:b declarations
	IsMethod bool     // colon-declared
	Params   []string // declared parameter identifiers, "..." for vararg

	// Assignments.
	Targets          []string // assignment target expressions, dotted form kept
	HasFunctionValue bool     // right-hand side is a function expression
	Literal          *Literal // right-hand side scalar, if any
	Fields           []*Node  // KindTableField entries of a table constructor value

	Children []*Node
}

// Identifier returns the single identifier this node denotes: the declared
// name of a function, or the last path segment of a sole assignment target.
// Absence is a normal result.
func (n *Node) Identifier() string {
	if n.Name != "" {
		return n.Name
	}
	if len(n.Targets) >= 1 {
		t := n.Targets[0]
		if i := strings.LastIndexByte(t, '.'); i >= 0 {
			return t[i+1:]
		}
		return t
	}
	return ""
}

// SimpleTarget reports the assignment target identifier when the node is a
// single-target assignment to a plain name.
func (n *Node) SimpleTarget() (string, bool) {
	if n.Kind != KindAssign && n.Kind != KindLocalAssign {
		return "", false
	}
	if len(n.Targets) != 1 || strings.Contains(n.Targets[0], ".") {
		return "", false
	}
	return n.Targets[0], true
}

// LiteralValue returns the raw literal snapshot of the node's value, if the
// value is a scalar.
func (n *Node) LiteralValue() (string, bool) {
	if n.Literal == nil {
		return "", false
	}
	return n.Literal.Raw, true
}

// IsFunctionDecl reports whether the node declares a function in code,
// including assignments of function expressions.
func (n *Node) IsFunctionDecl() bool {
	switch n.Kind {
	case KindFunction, KindLocalFunction, KindMethod:
		return true
	case KindAssign, KindLocalAssign:
		return n.HasFunctionValue
	}
	return false
}

// LineOf estimates the 1-based line of a byte offset by counting newline
// characters in the unit's raw text up to that offset.
func LineOf(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	line := 1
	for _, b := range src[:offset] {
		if b == '\n' {
			line++
		}
	}
	return line
}
