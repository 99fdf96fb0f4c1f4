package docparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luadoc-labs/luadoc/internal/docmodel"
	"github.com/luadoc-labs/luadoc/internal/luasyntax"
)

func chunk(children ...*luasyntax.Node) *luasyntax.Node {
	return &luasyntax.Node{Kind: luasyntax.KindChunk, Children: children}
}

func build(t *testing.T, root *luasyntax.Node) (*docmodel.Module, []Diagnostic) {
	t.Helper()
	mod, diags, err := BuildModule("list.lua", root, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, mod)
	return mod, diags
}

func TestBuildDefaultsModuleName(t *testing.T) {
	mod, diags := build(t, chunk())
	assert.Equal(t, "unknown", mod.Name)
	assert.Equal(t, "list.lua", mod.FilePath)
	assert.Empty(t, diags)
}

func TestBuildModuleTag(t *testing.T) {
	root := chunk(&luasyntax.Node{
		Kind: luasyntax.KindCall,
		Name: "module",
		Comments: []string{
			"--- List utilities.",
			"---@module listutil",
		},
	})
	mod, _ := build(t, root)
	assert.Equal(t, "listutil", mod.Name)
	assert.Equal(t, "List utilities.", mod.ShortDesc)
	assert.Equal(t, "list.lua", mod.FilePath)
}

func TestBuildDuplicateModuleIsFatal(t *testing.T) {
	root := chunk(
		&luasyntax.Node{Kind: luasyntax.KindCall, Comments: []string{"---@module first"}},
		&luasyntax.Node{Kind: luasyntax.KindCall, Line: 9, Comments: []string{"---@module second"}},
	)
	mod, _, err := BuildModule("dup.lua", root, DefaultOptions())
	require.ErrorIs(t, err, ErrDuplicateModule)
	assert.Nil(t, mod)
	assert.Contains(t, err.Error(), "dup.lua:9")
}

func TestBuildClassWithMethods(t *testing.T) {
	root := chunk(
		&luasyntax.Node{
			Kind:     luasyntax.KindLocalAssign,
			Targets:  []string{"List"},
			Comments: []string{"---@class List an ordered collection"},
		},
		&luasyntax.Node{
			Kind:     luasyntax.KindMethod,
			Receiver: "List",
			Name:     "append",
			Params:   []string{"item"},
			Line:     14,
			Comments: []string{
				"--- Appends an item.",
				"---@param item any the item to append",
			},
		},
	)
	mod, diags := build(t, root)
	assert.Empty(t, diags)
	require.Len(t, mod.Classes, 1)

	cls := mod.Classes[0]
	assert.Equal(t, "List", cls.Name)
	assert.Equal(t, "an ordered collection", cls.ShortDesc)
	require.Len(t, cls.Methods, 1)

	m := cls.Methods[0]
	assert.Equal(t, "append", m.Name)
	assert.Equal(t, 14, m.Line)
	assert.Equal(t, "Appends an item.", m.ShortDesc)
	require.Len(t, m.Params, 1)
	assert.Equal(t, "item", m.Params[0].Name)
	assert.Empty(t, mod.Functions)
}

func TestBuildClassMergeOnRedeclaration(t *testing.T) {
	root := chunk(
		&luasyntax.Node{
			Kind:     luasyntax.KindLocalAssign,
			Targets:  []string{"List"},
			Comments: []string{"---@class List : Base the list"},
		},
		&luasyntax.Node{
			Kind:    luasyntax.KindAssign,
			Targets: []string{"List"},
			Comments: []string{
				"---@class List",
				"---@field size number element count",
			},
		},
	)
	mod, _ := build(t, root)
	require.Len(t, mod.Classes, 1)

	cls := mod.Classes[0]
	assert.Equal(t, []string{"Base"}, cls.Bases)
	assert.Equal(t, "the list", cls.ShortDesc)
	require.Len(t, cls.Fields, 1)
	assert.Equal(t, "size", cls.Fields[0].Name)
}

func TestBuildClassKeyedBySourceName(t *testing.T) {
	// The doc name and the assignment target differ; methods attach by the
	// source identifier.
	root := chunk(
		&luasyntax.Node{
			Kind:     luasyntax.KindLocalAssign,
			Targets:  []string{"_L"},
			Comments: []string{"---@class List"},
		},
		&luasyntax.Node{
			Kind:     luasyntax.KindMethod,
			Receiver: "_L",
			Name:     "clear",
			Comments: []string{"--- Empties the list."},
		},
	)
	mod, _ := build(t, root)
	require.Len(t, mod.Classes, 1)
	assert.Equal(t, "List", mod.Classes[0].Name)
	assert.Equal(t, "_L", mod.Classes[0].NameInSource)
	require.Len(t, mod.Classes[0].Methods, 1)
}

func TestBuildMethodBeforeClassReconciled(t *testing.T) {
	root := chunk(
		&luasyntax.Node{
			Kind:     luasyntax.KindMethod,
			Receiver: "Queue",
			Name:     "pop",
			Comments: []string{"--- Removes the head.", "---@return any the head"},
		},
		&luasyntax.Node{
			Kind:     luasyntax.KindLocalAssign,
			Targets:  []string{"Queue"},
			Comments: []string{"---@class Queue"},
		},
	)
	mod, _ := build(t, root)
	require.Len(t, mod.Classes, 1)
	require.Len(t, mod.Classes[0].Methods, 1)
	assert.Equal(t, "pop", mod.Classes[0].Methods[0].Name)
	assert.Empty(t, mod.Functions)
}

func TestBuildOrphanMethodBecomesModuleFunction(t *testing.T) {
	root := chunk(&luasyntax.Node{
		Kind:     luasyntax.KindMethod,
		Receiver: "Gone",
		Name:     "act",
		Comments: []string{"--- Acts.", "---@return boolean done"},
	})
	mod, _ := build(t, root)
	assert.Empty(t, mod.Classes)
	require.Len(t, mod.Functions, 1)
	assert.Equal(t, "act", mod.Functions[0].Name)
}

func TestBuildUndocumentedMethodAutoDocumented(t *testing.T) {
	root := chunk(&luasyntax.Node{
		Kind:     luasyntax.KindMethod,
		Receiver: "Stack",
		Name:     "peek",
		Params:   []string{"depth"},
		Comments: []string{"--- Looks at an element without removing it."},
	})
	mod, _ := build(t, root)
	require.Len(t, mod.Classes, 1)
	require.Len(t, mod.Classes[0].Methods, 1)

	m := mod.Classes[0].Methods[0]
	assert.Equal(t, "peek", m.Name)
	assert.Equal(t, "Looks at an element without removing it.", m.ShortDesc)
	require.Len(t, m.Params, 1)
	assert.Equal(t, "depth", m.Params[0].Name)
	assert.Equal(t, docmodel.TypeAny, m.Params[0].Type.Kind)
}

func TestBuildBareMethodStillDocumented(t *testing.T) {
	root := chunk(&luasyntax.Node{
		Kind:     luasyntax.KindMethod,
		Receiver: "Stack",
		Name:     "reset",
	})
	mod, _ := build(t, root)
	require.Len(t, mod.Classes, 1)
	require.Len(t, mod.Classes[0].Methods, 1)
	assert.Empty(t, mod.Classes[0].Methods[0].ShortDesc)
}

func TestBuildColonNameAttachesAsMethod(t *testing.T) {
	root := chunk(
		&luasyntax.Node{
			Kind:     luasyntax.KindLocalAssign,
			Targets:  []string{"List"},
			Comments: []string{"---@class List"},
		},
		&luasyntax.Node{
			Kind:     luasyntax.KindCall,
			Comments: []string{"---@function List:extend adds all items of another list"},
		},
	)
	mod, _ := build(t, root)
	require.Len(t, mod.Classes, 1)
	require.Len(t, mod.Classes[0].Methods, 1)

	m := mod.Classes[0].Methods[0]
	assert.Equal(t, "extend", m.Name)
	assert.False(t, m.IsStatic)
}

func TestBuildDottedNameOnKnownClassIsStatic(t *testing.T) {
	root := chunk(
		&luasyntax.Node{
			Kind:     luasyntax.KindLocalAssign,
			Targets:  []string{"List"},
			Comments: []string{"---@class List"},
		},
		&luasyntax.Node{
			Kind:     luasyntax.KindCall,
			Comments: []string{"---@function List.of builds a list from arguments"},
		},
	)
	mod, _ := build(t, root)
	require.Len(t, mod.Classes[0].Methods, 1)
	m := mod.Classes[0].Methods[0]
	assert.Equal(t, "of", m.Name)
	assert.True(t, m.IsStatic)
}

func TestBuildDottedNameOnUnknownOwnerStaysModuleFunction(t *testing.T) {
	root := chunk(&luasyntax.Node{
		Kind:     luasyntax.KindCall,
		Comments: []string{"---@function util.trim trims a string"},
	})
	mod, _ := build(t, root)
	assert.Empty(t, mod.Classes)
	require.Len(t, mod.Functions, 1)
	assert.Equal(t, "util.trim", mod.Functions[0].Name)
	assert.False(t, mod.Functions[0].IsStatic)
}

func TestBuildDottedFunctionDeclaration(t *testing.T) {
	root := chunk(
		&luasyntax.Node{
			Kind:     luasyntax.KindLocalAssign,
			Targets:  []string{"List"},
			Comments: []string{"---@class List"},
		},
		&luasyntax.Node{
			Kind:     luasyntax.KindFunction,
			Receiver: "List",
			Name:     "new",
			Params:   []string{"items"},
			Comments: []string{"--- Creates a list.", "---@export"},
		},
	)
	mod, _ := build(t, root)
	require.Len(t, mod.Classes[0].Methods, 1)
	m := mod.Classes[0].Methods[0]
	assert.Equal(t, "new", m.Name)
	assert.True(t, m.IsStatic)
	require.Len(t, m.Params, 1)
}

func TestBuildParamNameMismatchDiagnostic(t *testing.T) {
	root := chunk(&luasyntax.Node{
		Kind:   luasyntax.KindFunction,
		Name:   "clamp",
		Params: []string{"value", "lo", "hi"},
		Line:   3,
		Comments: []string{
			"---@function clamp",
			"---@param v number the value",
			"---@param lo number lower bound",
			"---@param hi number upper bound",
		},
	})
	mod, diags := build(t, root)
	require.Len(t, diags, 1)
	assert.Equal(t, 3, diags[0].Line)
	assert.Contains(t, diags[0].Message, `"v"`)
	assert.Contains(t, diags[0].Message, `"value"`)

	// Documentation is kept as authored.
	require.Len(t, mod.Functions, 1)
	assert.Equal(t, "v", mod.Functions[0].Params[0].Name)
}

func TestBuildTooManyParamsDiagnostic(t *testing.T) {
	root := chunk(&luasyntax.Node{
		Kind:   luasyntax.KindFunction,
		Name:   "id",
		Params: []string{"x"},
		Comments: []string{
			"---@function id",
			"---@param x any the value",
			"---@param extra any not real",
		},
	})
	_, diags := build(t, root)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "too many")
	assert.Contains(t, diags[0].Message, "extra")
}

func TestBuildVariadicPositionSkipped(t *testing.T) {
	root := chunk(&luasyntax.Node{
		Kind:   luasyntax.KindFunction,
		Name:   "pack",
		Params: []string{"first", "..."},
		Comments: []string{
			"---@function pack",
			"---@param first any the first value",
			"---@param rest any remaining values",
		},
	})
	_, diags := build(t, root)
	assert.Empty(t, diags)
}

func TestBuildAutoFillsUndocumentedParams(t *testing.T) {
	root := chunk(&luasyntax.Node{
		Kind:   luasyntax.KindFunction,
		Name:   "join",
		Params: []string{"parts", "sep"},
		Comments: []string{
			"---@function join",
			"---@param parts string[] the pieces",
		},
	})
	mod, diags := build(t, root)
	assert.Empty(t, diags)
	fn := mod.Functions[0]
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "sep", fn.Params[1].Name)
	assert.Equal(t, docmodel.TypeAny, fn.Params[1].Type.Kind)
}

func TestBuildBadTagIsRecoverable(t *testing.T) {
	root := chunk(&luasyntax.Node{
		Kind: luasyntax.KindFunction,
		Name: "f",
		Line: 5,
		Comments: []string{
			"---@function f",
			"---@param broken table<oops",
		},
	})
	mod, diags := build(t, root)
	require.Len(t, mod.Functions, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, "list.lua", diags[0].Unit)
	assert.Equal(t, 5, diags[0].Line)
}

func TestBuildPrivatePrefixOverridesVisibility(t *testing.T) {
	root := chunk(
		&luasyntax.Node{
			Kind:     luasyntax.KindLocalAssign,
			Targets:  []string{"Cache"},
			Comments: []string{"---@class Cache"},
		},
		&luasyntax.Node{
			Kind:     luasyntax.KindMethod,
			Receiver: "Cache",
			Name:     "_evict",
			Params:   []string{"key"},
			Comments: []string{"--- Evicts one entry.", "---@protected"},
		},
	)
	mod, _ := build(t, root)
	require.Len(t, mod.Classes[0].Methods, 1)
	assert.Equal(t, docmodel.VisibilityPrivate, mod.Classes[0].Methods[0].Visibility)
}

func TestBuildCustomPrivatePrefix(t *testing.T) {
	opts := DefaultOptions()
	opts.PrivatePrefix = "m_"
	root := chunk(
		&luasyntax.Node{
			Kind:     luasyntax.KindMethod,
			Receiver: "W",
			Name:     "_draw",
			Comments: []string{"--- Draws."},
		},
		&luasyntax.Node{
			Kind:     luasyntax.KindMethod,
			Receiver: "W",
			Name:     "m_layout",
			Comments: []string{"--- Lays out."},
		},
	)
	mod, _, err := BuildModule("w.lua", root, opts)
	require.NoError(t, err)
	require.Len(t, mod.Classes, 1)
	require.Len(t, mod.Classes[0].Methods, 2)
	assert.Equal(t, docmodel.VisibilityPublic, mod.Classes[0].Methods[0].Visibility)
	assert.Equal(t, docmodel.VisibilityPrivate, mod.Classes[0].Methods[1].Visibility)
}

func TestBuildClassModFoldsSingleClass(t *testing.T) {
	root := chunk(
		&luasyntax.Node{
			Kind: luasyntax.KindCall,
			Comments: []string{
				"--- A two-dimensional point.",
				"---@classmod geometry.Point",
			},
		},
		&luasyntax.Node{
			Kind:     luasyntax.KindLocalAssign,
			Targets:  []string{"Point"},
			Comments: []string{"---@class Point"},
		},
		&luasyntax.Node{
			Kind:     luasyntax.KindMethod,
			Receiver: "Point",
			Name:     "norm",
			Comments: []string{"--- Euclidean norm.", "---@return number the norm"},
		},
	)
	mod, _ := build(t, root)
	assert.True(t, mod.IsClassMod)
	assert.Equal(t, "geometry.Point", mod.Name)
	require.Len(t, mod.Classes, 1)

	cls := mod.Classes[0]
	assert.Equal(t, "geometry.Point", cls.Name)
	assert.Equal(t, "A two-dimensional point.", cls.ShortDesc)
	require.Len(t, cls.Methods, 1)
}

func TestBuildClassModRequiresExactlyOneClass(t *testing.T) {
	root := chunk(
		&luasyntax.Node{Kind: luasyntax.KindCall, Comments: []string{"---@classmod broken"}},
	)
	mod, _, err := BuildModule("b.lua", root, DefaultOptions())
	require.ErrorIs(t, err, ErrClassModShape)
	assert.Nil(t, mod)
}

func TestBuildNestedStatementsVisited(t *testing.T) {
	// Statements inside a function body are documented too.
	root := chunk(&luasyntax.Node{
		Kind: luasyntax.KindLocalFunction,
		Name: "setup",
		Children: []*luasyntax.Node{
			{
				Kind:     luasyntax.KindMethod,
				Receiver: "App",
				Name:     "start",
				Comments: []string{"--- Starts the app."},
			},
		},
	})
	mod, _ := build(t, root)
	require.Len(t, mod.Classes, 1)
	require.Len(t, mod.Classes[0].Methods, 1)
}

func TestBuildExportedDataListedOnModule(t *testing.T) {
	root := chunk(&luasyntax.Node{
		Kind:     luasyntax.KindAssign,
		Targets:  []string{"MAX_DEPTH"},
		Literal:  &luasyntax.Literal{Raw: "32"},
		Comments: []string{"--- Recursion cap.", "---@constant"},
	})
	mod, _ := build(t, root)
	require.Len(t, mod.Data, 1)
	assert.Equal(t, "MAX_DEPTH", mod.Data[0].Name)
	assert.True(t, mod.Data[0].IsConstant)
}
