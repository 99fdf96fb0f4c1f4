package docparser

import (
	"fmt"
	"strings"

	"github.com/luadoc-labs/luadoc/internal/docmodel"
	"github.com/luadoc-labs/luadoc/internal/luasyntax"
)

// Assembler walks one syntax tree and merges the fragments of every comment
// block into a running documentation model. One instance per source unit;
// instances share no state.
type Assembler struct {
	opts Options
	unit string
	tags *tagParser

	classes        map[string]*docmodel.Class
	classOrder     []string
	functions      []*docmodel.Function
	pendingMethods []pendingMethod
	data           []*docmodel.Data
	module         *docmodel.Module

	diags []Diagnostic
}

// pendingMethod is a documented method whose owning class has not been seen
// yet. Reconciled at finalization.
type pendingMethod struct {
	owner string
	fn    *docmodel.Function
}

// NewAssembler returns an assembler for one source unit.
func NewAssembler(unit string, opts Options) *Assembler {
	return &Assembler{
		opts:    opts,
		unit:    unit,
		tags:    newTagParser(opts),
		classes: map[string]*docmodel.Class{},
	}
}

// BuildModule processes one unit end to end and returns the finished module,
// the recoverable diagnostics, and the unit-fatal error if any.
func BuildModule(unit string, root *luasyntax.Node, opts Options) (*docmodel.Module, []Diagnostic, error) {
	a := NewAssembler(unit, opts)
	mod, err := a.Build(root)
	return mod, a.Diagnostics(), err
}

// Build walks the tree and assembles the module.
func (a *Assembler) Build(root *luasyntax.Node) (*docmodel.Module, error) {
	if err := a.walk(root); err != nil {
		return nil, err
	}
	return a.finalize()
}

// Diagnostics returns the recoverable findings recorded so far.
func (a *Assembler) Diagnostics() []Diagnostic { return a.diags }

func (a *Assembler) walk(node *luasyntax.Node) error {
	for _, child := range node.Children {
		if err := a.visit(child); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) visit(node *luasyntax.Node) error {
	switch node.Kind {
	case luasyntax.KindAssign, luasyntax.KindLocalAssign, luasyntax.KindFunction,
		luasyntax.KindLocalFunction, luasyntax.KindMethod, luasyntax.KindCall:
		if err := a.processBlock(node); err != nil {
			return err
		}
	case luasyntax.KindChunk, luasyntax.KindTableField:
		// no comment block of their own to process
	}
	return a.walk(node)
}

// processBlock runs the tag pipeline over the node's comment block and
// routes every produced fragment into the model.
func (a *Assembler) processBlock(node *luasyntax.Node) error {
	b := newBlockState()
	for _, line := range node.Comments {
		if err := a.tags.parseLine(b, line, node); err != nil {
			a.diagf(node, "%v", err)
		}
	}
	fragments, leftover := b.resolve(node)

	for _, f := range fragments {
		switch v := f.(type) {
		case *docmodel.Class:
			a.addClass(v, node)
		case *docmodel.Module:
			if err := a.addModule(v, node); err != nil {
				return err
			}
		case *docmodel.Data:
			a.data = append(a.data, v)
		case *docmodel.Function:
			a.addFunction(v, node)
		}
	}

	if node.Kind == luasyntax.KindMethod && len(fragments) == 0 {
		a.autoDocumentMethod(node, leftover)
	}
	return nil
}

// addClass resolves the class's name in source and merges re-declarations of
// the same source identifier by list concatenation.
func (a *Assembler) addClass(c *docmodel.Class, node *luasyntax.Node) {
	if src, ok := node.SimpleTarget(); ok {
		c.NameInSource = src
	}
	key := c.NameInSource
	if key == "" {
		key = c.Name
	}
	existing, ok := a.classes[key]
	if !ok {
		a.classes[key] = c
		a.classOrder = append(a.classOrder, key)
		return
	}
	existing.Methods = append(existing.Methods, c.Methods...)
	existing.Fields = append(existing.Fields, c.Fields...)
	existing.Bases = append(existing.Bases, c.Bases...)
	if existing.ShortDesc == "" {
		existing.ShortDesc, existing.Desc = c.ShortDesc, c.Desc
	}
	if existing.Usage == "" {
		existing.Usage = c.Usage
	}
}

func (a *Assembler) addModule(m *docmodel.Module, node *luasyntax.Node) error {
	if a.module != nil {
		return fmt.Errorf("%s:%d: %w", a.unit, node.Line, ErrDuplicateModule)
	}
	m.FilePath = a.unit
	a.module = m
	return nil
}

// addFunction completes a function fragment from its node, verifies it
// against the code parameters and routes it to its owner.
func (a *Assembler) addFunction(fn *docmodel.Function, node *luasyntax.Node) {
	if fn.Name == "" && node.Name != "" {
		fn.Name = node.Name
	}
	if fn.Line == 0 {
		fn.Line = node.Line
	}

	// Explicit colon-qualified @function name declares instance membership.
	if i := strings.IndexByte(fn.Name, ':'); i >= 0 {
		owner, member := fn.Name[:i], fn.Name[i+1:]
		fn.Name = member
		a.finishFunction(fn, node, false)
		a.attachMethod(owner, fn)
		return
	}

	if node.Kind == luasyntax.KindMethod {
		a.finishFunction(fn, node, false)
		a.attachMethod(node.Receiver, fn)
		return
	}

	// Dotted names declare static membership when the owner is a known
	// class; otherwise the dotted name stays a plain module function name
	// (it may simply be namespaced).
	if i := strings.LastIndexByte(fn.Name, '.'); i >= 0 {
		owner, member := fn.Name[:i], fn.Name[i+1:]
		if cls, ok := a.classes[owner]; ok {
			fn.Name = member
			fn.IsStatic = true
			a.finishFunction(fn, node, true)
			cls.Methods = append(cls.Methods, fn)
			return
		}
	}

	// Dotted function declaration in code: function Class.method() end.
	if node.Kind == luasyntax.KindFunction && node.Receiver != "" {
		fn.IsStatic = true
		a.finishFunction(fn, node, true)
		if cls, ok := a.classes[node.Receiver]; ok {
			cls.Methods = append(cls.Methods, fn)
		} else {
			a.functions = append(a.functions, fn)
		}
		return
	}

	a.finishFunction(fn, node, true)
	a.functions = append(a.functions, fn)
}

// finishFunction runs the consistency check, auto-populates undocumented
// parameters from the code and applies the private-name rule last.
func (a *Assembler) finishFunction(fn *docmodel.Function, node *luasyntax.Node, check bool) {
	if check && (node.Kind == luasyntax.KindFunction || node.Kind == luasyntax.KindLocalFunction) {
		a.checkParams(fn, node)
	}
	if node.IsFunctionDecl() {
		a.autoFillParams(fn, node)
	}
	a.applyPrivatePrefix(fn)
}

func (a *Assembler) attachMethod(owner string, fn *docmodel.Function) {
	if cls, ok := a.classes[owner]; ok {
		cls.Methods = append(cls.Methods, fn)
		return
	}
	a.pendingMethods = append(a.pendingMethods, pendingMethod{owner: owner, fn: fn})
}

// autoDocumentMethod synthesizes a function for a method declaration whose
// comment block carried no tags at all, auto-creating the owning class.
func (a *Assembler) autoDocumentMethod(node *luasyntax.Node, text []string) {
	if node.Receiver == "" || node.Name == "" {
		return
	}
	fn := docmodel.NewFunction(node.Name)
	fn.ShortDesc, fn.Desc = shortLong(text)
	fn.Line = node.Line
	a.autoFillParams(fn, node)
	a.applyPrivatePrefix(fn)
	cls := a.ensureClass(node.Receiver)
	cls.Methods = append(cls.Methods, fn)
}

func (a *Assembler) ensureClass(name string) *docmodel.Class {
	if cls, ok := a.classes[name]; ok {
		return cls
	}
	cls := docmodel.NewClass(name)
	a.classes[name] = cls
	a.classOrder = append(a.classOrder, name)
	return cls
}

// checkParams reports documented parameters that exceed or contradict the
// code parameter list. The documentation is kept as authored either way.
func (a *Assembler) checkParams(fn *docmodel.Function, node *luasyntax.Node) {
	if len(fn.Params) > len(node.Params) {
		extra := make([]string, 0, len(fn.Params)-len(node.Params))
		for _, p := range fn.Params[len(node.Params):] {
			extra = append(extra, p.Name)
		}
		a.diagf(node, "function %q: too many documented params: %s",
			fn.Name, strings.Join(extra, ", "))
	}
	for i, p := range fn.Params {
		if i >= len(node.Params) {
			break
		}
		if node.Params[i] == "..." {
			continue
		}
		if p.Name != node.Params[i] {
			a.diagf(node, "function %q: documented param %q, expected %q",
				fn.Name, p.Name, node.Params[i])
		}
	}
}

// autoFillParams appends declared code parameters missing from the
// documentation, typed Any. A variadic marker becomes a param named "...".
func (a *Assembler) autoFillParams(fn *docmodel.Function, node *luasyntax.Node) {
	for _, code := range node.Params {
		if !hasParam(fn, code) {
			fn.Params = append(fn.Params, docmodel.Param{Name: code, Type: docmodel.AnyType()})
		}
	}
}

// applyPrivatePrefix forces private visibility on private-prefixed names,
// overriding any explicit visibility. Runs as the last step for a function.
func (a *Assembler) applyPrivatePrefix(fn *docmodel.Function) {
	if a.opts.PrivatePrefix != "" && strings.HasPrefix(fn.Name, a.opts.PrivatePrefix) {
		fn.Visibility = docmodel.VisibilityPrivate
	}
}

func (a *Assembler) diagf(node *luasyntax.Node, format string, args ...any) {
	line := 0
	if node != nil {
		line = node.Line
	}
	a.diags = append(a.diags, Diagnostic{
		Unit:    a.unit,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

// finalize folds the class lookup table and pending lists into the module.
func (a *Assembler) finalize() (*docmodel.Module, error) {
	m := a.module
	if m == nil {
		m = &docmodel.Module{Name: "unknown", FilePath: a.unit}
	}

	for _, pm := range a.pendingMethods {
		if cls, ok := a.classes[pm.owner]; ok {
			cls.Methods = append(cls.Methods, pm.fn)
		} else {
			a.functions = append(a.functions, pm.fn)
		}
	}

	if m.IsClassMod {
		if len(a.classOrder) != 1 {
			return nil, fmt.Errorf("%s: %w (found %d)", a.unit, ErrClassModShape, len(a.classOrder))
		}
		cls := a.classes[a.classOrder[0]]
		cls.Name = m.Name
		cls.ShortDesc = m.ShortDesc
		cls.Desc = m.Desc
		cls.Usage = m.Usage
		m.Classes = append(m.Classes, cls)
	} else {
		for _, key := range a.classOrder {
			m.Classes = append(m.Classes, a.classes[key])
		}
	}

	m.Functions = append(m.Functions, a.functions...)
	m.Data = append(m.Data, a.data...)
	return m, nil
}
