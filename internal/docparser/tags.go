// Package docparser builds the documentation model for one Lua source unit:
// it dispatches documentation tags line by line, accumulates fragments per
// comment block, resolves each block against the syntax node it is attached
// to and assembles the finished docmodel.Module.
package docparser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/luadoc-labs/luadoc/internal/docmodel"
	"github.com/luadoc-labs/luadoc/internal/emmylua"
	"github.com/luadoc-labs/luadoc/internal/luasyntax"
)

// tagHandler consumes the payload of one tag line. Handlers mutate the block
// state and may append fragments to it; a returned error is recorded as a
// recoverable diagnostic and the tag is dropped.
type tagHandler func(b *blockState, rest string, node *luasyntax.Node) error

// patternHandler matches tag spellings that carry a modifier, such as
// @tparam[opt] and @tparam[opt=default].
type patternHandler struct {
	re *regexp.Regexp
	fn func(b *blockState, match []string, rest string) error
}

// tagParser routes one comment line to the matching handler. The handler
// table is assembled once at construction; there is no global registry.
type tagParser struct {
	opts     Options
	handlers map[string]tagHandler
	patterns []patternHandler
}

var tparamOptRe = regexp.MustCompile(`^@tparam\[opt(?:=([^\]]*))?\]$`)

func newTagParser(opts Options) *tagParser {
	p := &tagParser{opts: opts}
	p.handlers = map[string]tagHandler{
		"@abstract":   p.parseQualifier(qualAbstract),
		"@class":      p.parseClass,
		"@classmod":   p.parseClassMod,
		"@constant":   p.parseConstant,
		"@deprecated": p.parseQualifier(qualDeprecated),
		"@export":     p.parseExport,
		"@field":      p.parseField,
		"@function":   p.parseFunction,
		"@int":        p.parseIntParam,
		"@module":     p.parseModule,
		"@namespace":  p.parseNamespace,
		"@overload":   p.parseOverload,
		"@param":      p.parseParam,
		"@private":    p.parseQualifier(qualPrivate),
		"@protected":  p.parseQualifier(qualProtected),
		"@return":     p.parseReturn,
		"@string":     p.parseStringParam,
		"@tparam":     p.parseTParam,
		"@treturn":    p.parseTReturn,
		"@type":       p.parseClass,
		"@usage":      p.parseUsage,
		"@vararg":     p.parseVararg,
		"@virtual":    p.parseQualifier(qualVirtual),
	}
	p.patterns = []patternHandler{
		{re: tparamOptRe, fn: func(b *blockState, match []string, rest string) error {
			return p.addTParam(b, rest, true, match[1])
		}},
	}
	return p
}

// parseLine dispatches one raw comment line. Lines not carrying the
// documentation prefix are not part of the block and are ignored.
func (p *tagParser) parseLine(b *blockState, line string, node *luasyntax.Node) error {
	if !strings.HasPrefix(line, p.opts.CommentPrefix) {
		return nil
	}
	content := line[len(p.opts.CommentPrefix):]
	trimmed := strings.TrimSpace(content)

	if strings.HasPrefix(trimmed, "@") {
		tag := trimmed
		if i := strings.IndexAny(trimmed, " \t"); i >= 0 {
			tag = trimmed[:i]
		}
		rest := strings.TrimSpace(trimmed[len(tag):])
		if h, ok := p.handlers[tag]; ok {
			return h(b, rest, node)
		}
		for _, ph := range p.patterns {
			if m := ph.re.FindStringSubmatch(tag); m != nil {
				return ph.fn(b, m, rest)
			}
		}
		// unknown tags are skipped, not errors
		return nil
	}

	if b.usageMode {
		b.usage = append(b.usage, strings.TrimPrefix(content, " "))
		return nil
	}
	if trimmed != "" {
		b.text = append(b.text, trimmed)
	}
	return nil
}

// splitToken returns the first whitespace-delimited token and the trimmed
// remainder.
func splitToken(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}

// parseClass handles `@class Name [: Base1, Base2] [description]` and its
// @type alias.
func (p *tagParser) parseClass(b *blockState, rest string, _ *luasyntax.Node) error {
	if rest == "" {
		return errors.New("@class must be followed by a class name")
	}
	name := rest
	remainder := ""
	if i := strings.IndexAny(rest, " \t:"); i >= 0 {
		name = rest[:i]
		remainder = strings.TrimSpace(rest[i:])
	}
	if name == "" {
		return errors.New("@class must be followed by a class name")
	}

	c := docmodel.NewClass(name)
	if strings.HasPrefix(remainder, ":") {
		toks := strings.Fields(remainder[1:])
		for i, tok := range toks {
			c.Bases = append(c.Bases, strings.TrimSuffix(tok, ","))
			if !strings.HasSuffix(tok, ",") {
				c.ShortDesc = strings.Join(toks[i+1:], " ")
				break
			}
		}
	} else {
		c.ShortDesc = remainder
	}
	b.class = c
	b.addFragment(c)
	return nil
}

func (p *tagParser) parseModule(b *blockState, rest string, _ *luasyntax.Node) error {
	name, _ := splitToken(rest)
	if name == "" {
		return errors.New("@module must be followed by a module name")
	}
	m := &docmodel.Module{Name: name}
	b.module = m
	b.addFragment(m)
	return nil
}

func (p *tagParser) parseClassMod(b *blockState, rest string, _ *luasyntax.Node) error {
	name, _ := splitToken(rest)
	if name == "" {
		return errors.New("@classmod must be followed by a module name")
	}
	m := &docmodel.Module{Name: name, IsClassMod: true}
	b.module = m
	b.addFragment(m)
	return nil
}

func (p *tagParser) parseNamespace(b *blockState, rest string, _ *luasyntax.Node) error {
	name, _ := splitToken(rest)
	if name == "" {
		return errors.New("@namespace must be followed by a name")
	}
	b.namespace = name
	return nil
}

// parseField handles `@field [visibility] name type [description]`; the
// field is added to the most recently opened pending class.
func (p *tagParser) parseField(b *blockState, rest string, _ *luasyntax.Node) error {
	if b.class == nil {
		return errors.New("@field must follow a @class tag")
	}
	f := docmodel.ClassField{Visibility: docmodel.VisibilityPublic}

	tok, rem := splitToken(rest)
	switch tok {
	case "public", "protected", "private":
		f.Visibility = docmodel.Visibility(tok)
		tok, rem = splitToken(rem)
	}
	if tok == "" {
		return errors.New("@field expects a name and a type expression")
	}
	f.Name = tok
	if rem == "" {
		return fmt.Errorf("@field %s: missing type expression", f.Name)
	}
	t, desc, err := emmylua.Parse(rem)
	if err != nil {
		return fmt.Errorf("@field %s: %w", f.Name, err)
	}
	f.Type = t
	f.Desc = desc
	b.class.Fields = append(b.class.Fields, f)
	return nil
}

func (p *tagParser) parseParam(b *blockState, rest string, _ *luasyntax.Node) error {
	name, rem := splitToken(rest)
	if name == "" {
		return errors.New("@param expects a parameter name")
	}
	param := docmodel.Param{Name: name, Type: docmodel.AnyType()}
	if p.opts.EmmyLua {
		if rem == "" {
			return fmt.Errorf("@param %s: missing type expression", name)
		}
		t, desc, err := emmylua.Parse(rem)
		if err != nil {
			return fmt.Errorf("@param %s: %w", name, err)
		}
		param.Type = t
		param.Desc = desc
	} else {
		if rem == "" {
			return fmt.Errorf("@param %s: missing description", name)
		}
		param.Desc = rem
	}
	b.addParam(param)
	return nil
}

func (p *tagParser) parseTParam(b *blockState, rest string, _ *luasyntax.Node) error {
	return p.addTParam(b, rest, false, "")
}

// addTParam handles the legacy `@tparam type name description` grammar and
// its [opt[=default]] variants.
func (p *tagParser) addTParam(b *blockState, rest string, opt bool, def string) error {
	typeTok, rem := splitToken(rest)
	name, desc := splitToken(rem)
	if typeTok == "" || name == "" || desc == "" {
		return errors.New("@tparam expects a type, a name and a description")
	}
	t, _, err := emmylua.Parse(typeTok)
	if err != nil {
		return fmt.Errorf("@tparam %s: %w", name, err)
	}
	b.addParam(docmodel.Param{Name: name, Desc: desc, Type: t, IsOpt: opt, Default: def})
	return nil
}

func (p *tagParser) parseStringParam(b *blockState, rest string, node *luasyntax.Node) error {
	return p.addTParam(b, "string "+rest, false, "")
}

func (p *tagParser) parseIntParam(b *blockState, rest string, node *luasyntax.Node) error {
	return p.addTParam(b, "int "+rest, false, "")
}

// parseVararg documents the variadic parameter, named "..." by convention.
func (p *tagParser) parseVararg(b *blockState, rest string, _ *luasyntax.Node) error {
	param := docmodel.Param{Name: "...", Type: docmodel.AnyType()}
	if rest != "" {
		t, desc, err := emmylua.Parse(rest)
		if err != nil {
			return fmt.Errorf("@vararg: %w", err)
		}
		param.Type = t
		param.Desc = desc
	}
	b.addParam(param)
	return nil
}

func (p *tagParser) parseReturn(b *blockState, rest string, _ *luasyntax.Node) error {
	if rest == "" {
		return errors.New("@return expects a description")
	}
	ret := docmodel.Return{Type: docmodel.AnyType()}
	if p.opts.EmmyLua {
		t, desc, err := emmylua.Parse(rest)
		if err != nil {
			return fmt.Errorf("@return: %w", err)
		}
		ret.Type = t
		ret.Desc = desc
	} else {
		ret.Desc = rest
	}
	b.addReturn(ret)
	return nil
}

func (p *tagParser) parseTReturn(b *blockState, rest string, _ *luasyntax.Node) error {
	typeTok, desc := splitToken(rest)
	if typeTok == "" || desc == "" {
		return errors.New("@treturn expects a type and a description")
	}
	t, _, err := emmylua.Parse(typeTok)
	if err != nil {
		return fmt.Errorf("@treturn: %w", err)
	}
	b.addReturn(docmodel.Return{Desc: desc, Type: t})
	return nil
}

// parseFunction handles an explicit `@function name [description]`. The name
// may be dotted or colon-qualified to declare membership; the assembler
// splits it.
func (p *tagParser) parseFunction(b *blockState, rest string, _ *luasyntax.Node) error {
	name, desc := splitToken(rest)
	if name == "" {
		return errors.New("@function must be followed by a function name")
	}
	fn := docmodel.NewFunction(name)
	fn.ShortDesc = desc
	b.fn = fn
	b.addFragment(fn)
	return nil
}

func (p *tagParser) parseOverload(b *blockState, rest string, _ *luasyntax.Node) error {
	sig, err := emmylua.ParseOverload(rest)
	if err != nil {
		return fmt.Errorf("@overload: %w", err)
	}
	b.overloads = append(b.overloads, sig)
	return nil
}

func (p *tagParser) parseUsage(b *blockState, _ string, _ *luasyntax.Node) error {
	b.usageMode = true
	return nil
}

func (p *tagParser) parseQualifier(q qualifier) tagHandler {
	return func(b *blockState, _ string, _ *luasyntax.Node) error {
		if b.fn != nil {
			applyQualifier(b.fn, q)
		} else {
			b.qualifiers = append(b.qualifiers, q)
		}
		return nil
	}
}

func (p *tagParser) parseExport(b *blockState, _ string, _ *luasyntax.Node) error {
	b.export = true
	return nil
}

// parseConstant implies @export and additionally marks the value constant.
func (p *tagParser) parseConstant(b *blockState, _ string, _ *luasyntax.Node) error {
	b.export = true
	b.constant = true
	return nil
}
