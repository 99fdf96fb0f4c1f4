package docparser

import (
	"strings"

	"github.com/luadoc-labs/luadoc/internal/docmodel"
	"github.com/luadoc-labs/luadoc/internal/luasyntax"
)

// qualifier is a flag-only tag queued until a function fragment exists to
// receive it. Qualifiers are consumed at block resolution and never stored
// in the model.
type qualifier int

const (
	qualVirtual qualifier = iota
	qualAbstract
	qualDeprecated
	qualPrivate
	qualProtected
)

func applyQualifier(fn *docmodel.Function, q qualifier) {
	switch q {
	case qualVirtual:
		fn.IsVirtual = true
	case qualAbstract:
		fn.IsAbstract = true
	case qualDeprecated:
		fn.IsDeprecated = true
	case qualPrivate:
		fn.Visibility = docmodel.VisibilityPrivate
	case qualProtected:
		fn.Visibility = docmodel.VisibilityProtected
	}
}

// blockState accumulates everything one comment block produces before it can
// be attached to a concrete entity. A fresh value is constructed per block
// and consumed by resolve; nothing survives into the next block.
type blockState struct {
	text       []string
	params     []docmodel.Param
	returns    []docmodel.Return
	qualifiers []qualifier

	fn     *docmodel.Function
	class  *docmodel.Class
	module *docmodel.Module
	data   *docmodel.Data

	overloads []docmodel.TypeExpr
	export    bool
	constant  bool
	namespace string

	usageMode bool
	usage     []string

	fragments []docmodel.Fragment
}

func newBlockState() *blockState { return &blockState{} }

func (b *blockState) addFragment(f docmodel.Fragment) {
	b.fragments = append(b.fragments, f)
}

// addParam appends to the pending function if one is open, else queues.
func (b *blockState) addParam(p docmodel.Param) {
	if b.fn != nil {
		b.fn.Params = append(b.fn.Params, p)
		return
	}
	b.params = append(b.params, p)
}

func (b *blockState) addReturn(r docmodel.Return) {
	if b.fn != nil {
		b.fn.Returns = append(b.fn.Returns, r)
		return
	}
	b.returns = append(b.returns, r)
}

// shortLong splits free-text lines into a short description (first line) and
// a long description (remaining lines joined by newline).
func shortLong(text []string) (string, string) {
	if len(text) == 0 {
		return "", ""
	}
	return text[0], strings.Join(text[1:], "\n")
}

// resolve reconciles the accumulated state once all lines of the block have
// been dispatched. It returns the ordered fragments the block produced plus
// the unconsumed free-text lines, used by callers that synthesize
// descriptions for blocks with no tags at all.
func (b *blockState) resolve(node *luasyntax.Node) ([]docmodel.Fragment, []string) {
	// 1. @export with no explicit function fragment materializes an entity
	// from the attached node: a function for function declarations, a data
	// value otherwise.
	if b.export && b.fn == nil && node != nil {
		switch {
		case node.IsFunctionDecl():
			fn := docmodel.NewFunction(node.Identifier())
			fn.ShortDesc, fn.Desc = shortLong(b.text)
			fn.Line = node.Line
			b.fn = fn
			b.addFragment(fn)
		case node.Kind == luasyntax.KindAssign || node.Kind == luasyntax.KindLocalAssign:
			if d := dataFromNode(node); d != nil {
				b.data = d
				b.addFragment(d)
			}
		}
	}

	// 2. data gets the block text, the constant flag and its visibility.
	if b.data != nil {
		b.data.ShortDesc, b.data.Desc = shortLong(b.text)
		b.data.IsConstant = b.constant
		if b.export {
			b.data.Visibility = docmodel.VisibilityPublic
		} else {
			b.data.Visibility = docmodel.VisibilityPrivate
		}
	}

	// 3. class gets the block text and usage.
	if b.class != nil {
		if b.class.ShortDesc == "" {
			b.class.ShortDesc, b.class.Desc = shortLong(b.text)
		} else if len(b.text) > 0 {
			b.class.Desc = strings.Join(b.text, "\n")
		}
		b.class.Usage = strings.Join(b.usage, "\n")
	}

	// 4. params/returns/qualifiers with no function fragment synthesize an
	// anonymous one when the node can carry it.
	if b.fn == nil && (len(b.params) > 0 || len(b.returns) > 0 || len(b.qualifiers) > 0) &&
		node != nil && anonymousFunctionTarget(node) {
		fn := docmodel.NewFunction("")
		fn.ShortDesc, fn.Desc = shortLong(b.text)
		fn.Line = node.Line
		b.fn = fn
		b.addFragment(fn)
	}

	// 5. complete the function fragment: qualifiers, usage, queued
	// params/returns, then overload expansion.
	if b.fn != nil {
		for _, q := range b.qualifiers {
			applyQualifier(b.fn, q)
		}
		if len(b.usage) > 0 {
			b.fn.Usage = strings.Join(b.usage, "\n")
		}
		if b.fn.ShortDesc == "" && b.fn.Desc == "" {
			b.fn.ShortDesc, b.fn.Desc = shortLong(b.text)
		}
		for _, p := range b.params {
			if !hasParam(b.fn, p.Name) {
				b.fn.Params = append(b.fn.Params, p)
			}
		}
		b.fn.Returns = append(b.fn.Returns, b.returns...)

		for _, sig := range b.overloads {
			b.addFragment(expandOverload(b.fn, sig))
		}
	}

	// 6. module gets text and usage.
	if b.module != nil {
		b.module.ShortDesc, b.module.Desc = shortLong(b.text)
		b.module.Usage = strings.Join(b.usage, "\n")
	}

	// 7. an active namespace prefixes every named entity of the block.
	if b.namespace != "" {
		for _, f := range b.fragments {
			switch v := f.(type) {
			case *docmodel.Function:
				v.Name = joinDotted(b.namespace, v.Name)
			case *docmodel.Class:
				v.Name = joinDotted(b.namespace, v.Name)
			case *docmodel.Data:
				v.Name = joinDotted(b.namespace, v.Name)
			}
		}
	}

	return b.fragments, b.text
}

// anonymousFunctionTarget reports whether the node can own a synthesized
// anonymous function: a method declaration or a function-expression
// assignment.
func anonymousFunctionTarget(node *luasyntax.Node) bool {
	if node.Kind == luasyntax.KindMethod {
		return true
	}
	return (node.Kind == luasyntax.KindAssign || node.Kind == luasyntax.KindLocalAssign) &&
		node.HasFunctionValue
}

func hasParam(fn *docmodel.Function, name string) bool {
	for _, p := range fn.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// expandOverload clones fn keeping only the params named in the overload
// signature; the clone shares descriptions, usage, flags, visibility and the
// original return list.
func expandOverload(fn *docmodel.Function, sig docmodel.TypeExpr) *docmodel.Function {
	clone := *fn
	clone.Params = nil
	for _, p := range fn.Params {
		for _, argName := range sig.ArgNames {
			if p.Name == argName {
				clone.Params = append(clone.Params, p)
				break
			}
		}
	}
	clone.Returns = append([]docmodel.Return(nil), fn.Returns...)
	return &clone
}

func joinDotted(prefix, name string) string {
	if name == "" {
		return name
	}
	return prefix + "." + name
}

// dataFromNode builds a Data fragment from an exported assignment: a dict
// for table constructors, a value (with literal snapshot) otherwise.
func dataFromNode(node *luasyntax.Node) *docmodel.Data {
	name := node.Identifier()
	if name == "" {
		return nil
	}
	if len(node.Fields) > 0 {
		d := &docmodel.Data{Name: name, Kind: docmodel.DataDict}
		for _, f := range node.Fields {
			df := docmodel.DictField{Name: f.Name, Desc: joinFieldComments(f.Comments)}
			if lit, ok := f.LiteralValue(); ok {
				df.Literal = lit
			}
			d.Fields = append(d.Fields, df)
		}
		return d
	}
	d := &docmodel.Data{Name: name, Kind: docmodel.DataValue}
	if lit, ok := node.LiteralValue(); ok {
		d.Literal = lit
		t := literalType(lit)
		d.Type = &t
	}
	return d
}

// joinFieldComments strips comment markers and joins the lines, mirroring
// how table-field descriptions are collected.
func joinFieldComments(comments []string) string {
	var lines []string
	for _, c := range comments {
		if s := strings.Trim(c, " -"); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

func literalType(raw string) docmodel.TypeExpr {
	switch {
	case raw == "nil":
		return docmodel.Primitive(docmodel.TypeNil)
	case raw == "true" || raw == "false":
		return docmodel.Primitive(docmodel.TypeBoolean)
	case strings.HasPrefix(raw, "\"") || strings.HasPrefix(raw, "'") || strings.HasPrefix(raw, "["):
		return docmodel.Primitive(docmodel.TypeString)
	default:
		return docmodel.Primitive(docmodel.TypeNumber)
	}
}
