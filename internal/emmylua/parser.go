// Package emmylua parses EmmyLua type expressions appearing in documentation
// tags into docmodel.TypeExpr trees.
//
// Grammar, informally:
//
//	type_desc   := type_or (',' type_or)* description?
//	type_or     := type ('|' type)*
//	type        := func | table | array | identifier
//	table       := 'table' '<' type ',' type '>'
//	array       := identifier '[]'
//	func        := 'fun' '(' (arg (',' arg)*)? ')' (':' type)?
//	arg         := name ':' type
//	description := remaining free text, optionally preceded by '@'
package emmylua

import (
	"fmt"
	"strings"

	"github.com/luadoc-labs/luadoc/internal/docmodel"
)

// primitives maps type keywords to their primitive kind. int and float both
// collapse to the number kind; only the identifier spelling distinguishes
// them in the input.
var primitives = map[string]docmodel.TypeKind{
	"nil":      docmodel.TypeNil,
	"bool":     docmodel.TypeBoolean,
	"boolean":  docmodel.TypeBoolean,
	"number":   docmodel.TypeNumber,
	"int":      docmodel.TypeNumber,
	"float":    docmodel.TypeNumber,
	"string":   docmodel.TypeString,
	"function": docmodel.TypeFunction,
	"func":     docmodel.TypeFunction,
	"fun":      docmodel.TypeFunction,
	"userdata": docmodel.TypeUserdata,
	"thread":   docmodel.TypeThread,
	"table":    docmodel.TypeTable,
	"tab":      docmodel.TypeTable,
	"any":      docmodel.TypeAny,
}

// Parse parses a tag payload into its leading type expression and trailing
// free-text description. The payload may declare several comma-separated
// types; the first one is returned and the rest only delimit the description.
func Parse(input string) (docmodel.TypeExpr, string, error) {
	types, desc, err := ParseList(input)
	if err != nil {
		return docmodel.TypeExpr{}, "", err
	}
	return types[0], desc, nil
}

// ParseList parses the full comma-separated type list of a tag payload.
func ParseList(input string) ([]docmodel.TypeExpr, string, error) {
	p := &parser{input: input}
	var types []docmodel.TypeExpr
	if err := p.parseOr(); err != nil {
		return nil, "", err
	}
	types = append(types, p.pop())
	for {
		save := p.pos
		p.skipSpaces()
		if !p.eat(',') {
			p.pos = save
			break
		}
		p.skipSpaces()
		if err := p.parseOr(); err != nil {
			// The comma belonged to the description, not the type list.
			p.pos = save
			break
		}
		types = append(types, p.pop())
	}
	return types, p.description(), nil
}

// ParseOverload parses an @overload payload, which must be a single function
// signature.
func ParseOverload(input string) (docmodel.TypeExpr, error) {
	t, _, err := Parse(input)
	if err != nil {
		return docmodel.TypeExpr{}, err
	}
	if t.Kind != docmodel.TypeCallable {
		return docmodel.TypeExpr{}, fmt.Errorf("overload signature must be a fun(...) type, got %q", t.String())
	}
	return t, nil
}

// parser walks the input once, pushing each completed type onto an explicit
// value stack. Function signatures get a dedicated frame so nested fun(...)
// expressions accumulate their own args and returns.
type parser struct {
	input  string
	pos    int
	stack  []docmodel.TypeExpr
	frames []*funcFrame
}

type funcFrame struct {
	argNames []string
	args     []docmodel.TypeExpr
	returns  []docmodel.TypeExpr
}

func (p *parser) push(t docmodel.TypeExpr) { p.stack = append(p.stack, t) }

func (p *parser) pop() docmodel.TypeExpr {
	t := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return t
}

func (p *parser) popN(n int) []docmodel.TypeExpr {
	out := make([]docmodel.TypeExpr, n)
	copy(out, p.stack[len(p.stack)-n:])
	p.stack = p.stack[:len(p.stack)-n]
	return out
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) eat(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(c byte) error {
	if !p.eat(c) {
		return fmt.Errorf("expected %q at offset %d in %q", string(c), p.pos, p.input)
	}
	return nil
}

// description consumes the rest of the input as free text, dropping the
// optional '@' separator EmmyLua allows before it.
func (p *parser) description() string {
	rest := strings.TrimSpace(p.input[p.pos:])
	rest = strings.TrimPrefix(rest, "@")
	return strings.TrimSpace(rest)
}

// parseOr parses type ('|' type)* and collapses two or more alternatives
// into a single Or, preserving declaration order. A lone operand is never
// wrapped.
func (p *parser) parseOr() error {
	if err := p.parseType(); err != nil {
		return err
	}
	n := 1
	for {
		save := p.pos
		p.skipSpaces()
		if !p.eat('|') {
			p.pos = save
			break
		}
		p.skipSpaces()
		if err := p.parseType(); err != nil {
			return err
		}
		n++
	}
	if n > 1 {
		p.push(docmodel.OrOf(p.popN(n)))
	}
	return nil
}

func (p *parser) parseType() error {
	p.skipSpaces()
	name, ok := p.identifier()
	if !ok {
		return fmt.Errorf("expected type at offset %d in %q", p.pos, p.input)
	}

	// 'fun' immediately followed by '(' opens a signature; bare 'fun' is the
	// function primitive.
	if name == "fun" && p.pos < len(p.input) && p.input[p.pos] == '(' {
		return p.parseFunc()
	}
	if name == "table" {
		save := p.pos
		p.skipSpaces()
		if p.eat('<') {
			return p.parseTableArgs()
		}
		p.pos = save
	}

	var t docmodel.TypeExpr
	if kind, found := primitives[name]; found {
		t = docmodel.Primitive(kind)
	} else {
		t = docmodel.Custom(name)
	}
	if strings.HasPrefix(p.input[p.pos:], "[]") {
		p.pos += 2
		t = docmodel.ArrayOf(t)
	}
	p.push(t)
	return nil
}

// parseTableArgs parses the remainder of table '<' type ',' type '>'.
func (p *parser) parseTableArgs() error {
	p.skipSpaces()
	if err := p.parseType(); err != nil {
		return err
	}
	p.skipSpaces()
	if err := p.expect(','); err != nil {
		return err
	}
	p.skipSpaces()
	if err := p.parseType(); err != nil {
		return err
	}
	p.skipSpaces()
	if err := p.expect('>'); err != nil {
		return err
	}
	value := p.pop()
	key := p.pop()
	p.push(docmodel.DictOf(key, value))
	return nil
}

// parseFunc parses the remainder of fun '(' args ')' (':' type)?. A fresh
// frame is pushed on entry and consumed into a Callable on completion.
func (p *parser) parseFunc() error {
	frame := &funcFrame{}
	p.frames = append(p.frames, frame)
	if err := p.expect('('); err != nil {
		return err
	}
	p.skipSpaces()
	if !p.eat(')') {
		for {
			p.skipSpaces()
			argName, ok := p.identifier()
			if !ok {
				return fmt.Errorf("expected argument name at offset %d in %q", p.pos, p.input)
			}
			p.skipSpaces()
			if err := p.expect(':'); err != nil {
				return err
			}
			p.skipSpaces()
			if err := p.parseType(); err != nil {
				return err
			}
			frame.argNames = append(frame.argNames, argName)
			frame.args = append(frame.args, p.pop())
			p.skipSpaces()
			if p.eat(',') {
				continue
			}
			if err := p.expect(')'); err != nil {
				return err
			}
			break
		}
	}
	save := p.pos
	p.skipSpaces()
	if p.eat(':') {
		p.skipSpaces()
		if err := p.parseType(); err != nil {
			return err
		}
		frame.returns = append(frame.returns, p.pop())
	} else {
		p.pos = save
	}
	p.frames = p.frames[:len(p.frames)-1]
	p.push(docmodel.TypeExpr{
		Kind:     docmodel.TypeCallable,
		Args:     frame.args,
		ArgNames: frame.argNames,
		Returns:  frame.returns,
	})
	return nil
}

// identifier scans [A-Za-z_][A-Za-z0-9_]* ('.' id)*.
func (p *parser) identifier() (string, bool) {
	start := p.pos
	if !p.scanWord() {
		return "", false
	}
	for p.pos < len(p.input) && p.input[p.pos] == '.' {
		save := p.pos
		p.pos++
		if !p.scanWord() {
			p.pos = save
			break
		}
	}
	return p.input[start:p.pos], true
}

func (p *parser) scanWord() bool {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if p.pos == start && !isLetter {
			break
		}
		if !isLetter && !isDigit {
			break
		}
		p.pos++
	}
	return p.pos > start
}
