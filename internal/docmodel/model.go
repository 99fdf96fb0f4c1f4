// Package docmodel defines the documentation model produced for each Lua
// source unit: one Module owning classes, functions and data entries. The
// model is plain data with no cycles and serializes structurally to JSON or
// YAML.
package docmodel

// Visibility of a documented entity.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
)

// Fragment is a documentation entity produced while resolving one comment
// block, prior to being merged into the model.
type Fragment interface {
	fragmentNode()
}

func (*Function) fragmentNode() {}
func (*Class) fragmentNode()    {}
func (*Module) fragmentNode()   {}
func (*Data) fragmentNode()     {}

// Param is a documented function parameter.
type Param struct {
	Name    string   `json:"name" yaml:"name"`
	Desc    string   `json:"desc,omitempty" yaml:"desc,omitempty"`
	Type    TypeExpr `json:"type" yaml:"type"`
	IsOpt   bool     `json:"isOpt,omitempty" yaml:"isOpt,omitempty"`
	Default string   `json:"default,omitempty" yaml:"default,omitempty"`
}

// Return is a documented function return value.
type Return struct {
	Desc string   `json:"desc,omitempty" yaml:"desc,omitempty"`
	Type TypeExpr `json:"type" yaml:"type"`
}

// Function documents a module function or class method. Name may stay empty
// until the model assembler resolves it from the source node.
type Function struct {
	Name         string     `json:"name" yaml:"name"`
	ShortDesc    string     `json:"shortDesc,omitempty" yaml:"shortDesc,omitempty"`
	Desc         string     `json:"desc,omitempty" yaml:"desc,omitempty"`
	Params       []Param    `json:"params,omitempty" yaml:"params,omitempty"`
	Returns      []Return   `json:"returns,omitempty" yaml:"returns,omitempty"`
	Usage        string     `json:"usage,omitempty" yaml:"usage,omitempty"`
	IsVirtual    bool       `json:"isVirtual,omitempty" yaml:"isVirtual,omitempty"`
	IsAbstract   bool       `json:"isAbstract,omitempty" yaml:"isAbstract,omitempty"`
	IsDeprecated bool       `json:"isDeprecated,omitempty" yaml:"isDeprecated,omitempty"`
	IsStatic     bool       `json:"isStatic,omitempty" yaml:"isStatic,omitempty"`
	Visibility   Visibility `json:"visibility" yaml:"visibility"`
	Line         int        `json:"line,omitempty" yaml:"line,omitempty"`
}

// NewFunction returns a Function with the default public visibility.
func NewFunction(name string) *Function {
	return &Function{Name: name, Visibility: VisibilityPublic}
}

// ClassField is a documented class attribute declared with @field.
type ClassField struct {
	Name       string     `json:"name" yaml:"name"`
	Desc       string     `json:"desc,omitempty" yaml:"desc,omitempty"`
	Type       TypeExpr   `json:"type" yaml:"type"`
	Visibility Visibility `json:"visibility" yaml:"visibility"`
}

// Class documents a Lua "class" table. NameInSource is the assignment target
// identifier the class lookup table is keyed by during assembly.
type Class struct {
	Name         string       `json:"name" yaml:"name"`
	NameInSource string       `json:"nameInSource,omitempty" yaml:"nameInSource,omitempty"`
	Bases        []string     `json:"bases,omitempty" yaml:"bases,omitempty"`
	Methods      []*Function  `json:"methods,omitempty" yaml:"methods,omitempty"`
	Fields       []ClassField `json:"fields,omitempty" yaml:"fields,omitempty"`
	ShortDesc    string       `json:"shortDesc,omitempty" yaml:"shortDesc,omitempty"`
	Desc         string       `json:"desc,omitempty" yaml:"desc,omitempty"`
	Usage        string       `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// NewClass returns a Class whose source name defaults to the declared name.
func NewClass(name string) *Class {
	return &Class{Name: name, NameInSource: name}
}

// DataKind discriminates the two Data variants.
type DataKind string

const (
	DataDict  DataKind = "dict"
	DataValue DataKind = "value"
)

// DictField is a named sub-field of a Dict data entry.
type DictField struct {
	Name    string `json:"name" yaml:"name"`
	Desc    string `json:"desc,omitempty" yaml:"desc,omitempty"`
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// Data documents an exported module value: either a table of named fields
// (dict) or a single scalar (value) with its literal snapshot from source.
type Data struct {
	Name       string      `json:"name" yaml:"name"`
	ShortDesc  string      `json:"shortDesc,omitempty" yaml:"shortDesc,omitempty"`
	Desc       string      `json:"desc,omitempty" yaml:"desc,omitempty"`
	Visibility Visibility  `json:"visibility" yaml:"visibility"`
	IsConstant bool        `json:"isConstant,omitempty" yaml:"isConstant,omitempty"`
	Kind       DataKind    `json:"dataKind" yaml:"dataKind"`
	Fields     []DictField `json:"fields,omitempty" yaml:"fields,omitempty"`
	Type       *TypeExpr   `json:"type,omitempty" yaml:"type,omitempty"`
	Literal    string      `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// Module is the finished documentation model for one source unit.
type Module struct {
	Name       string      `json:"name" yaml:"name"`
	FilePath   string      `json:"filePath,omitempty" yaml:"filePath,omitempty"`
	Classes    []*Class    `json:"classes,omitempty" yaml:"classes,omitempty"`
	Functions  []*Function `json:"functions,omitempty" yaml:"functions,omitempty"`
	Data       []*Data     `json:"data,omitempty" yaml:"data,omitempty"`
	IsClassMod bool        `json:"isClassMod,omitempty" yaml:"isClassMod,omitempty"`
	ShortDesc  string      `json:"shortDesc,omitempty" yaml:"shortDesc,omitempty"`
	Desc       string      `json:"desc,omitempty" yaml:"desc,omitempty"`
	Usage      string      `json:"usage,omitempty" yaml:"usage,omitempty"`
}
