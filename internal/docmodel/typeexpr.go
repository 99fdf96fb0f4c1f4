package docmodel

import "strings"

// TypeKind discriminates the TypeExpr union.
type TypeKind string

const (
	TypeNil      TypeKind = "nil"
	TypeBoolean  TypeKind = "boolean"
	TypeNumber   TypeKind = "number"
	TypeString   TypeKind = "string"
	TypeFunction TypeKind = "function"
	TypeUserdata TypeKind = "userdata"
	TypeThread   TypeKind = "thread"
	TypeTable    TypeKind = "table"
	TypeAny      TypeKind = "any"
	TypeArray    TypeKind = "array"
	TypeDict     TypeKind = "dict"
	TypeCallable TypeKind = "callable"
	TypeOr       TypeKind = "or"
	TypeCustom   TypeKind = "custom"
)

// TypeExpr is a documentation type expression. Exactly one payload group is
// populated, selected by Kind:
//
//	TypeCustom   -> Name
//	TypeArray    -> Elem
//	TypeDict     -> Key, Value
//	TypeCallable -> Args, ArgNames, Returns
//	TypeOr       -> Alts (>= 2, never directly nested Or)
//
// Primitive kinds carry no payload.
type TypeExpr struct {
	Kind     TypeKind   `json:"kind" yaml:"kind"`
	Name     string     `json:"name,omitempty" yaml:"name,omitempty"`
	Elem     *TypeExpr  `json:"elem,omitempty" yaml:"elem,omitempty"`
	Key      *TypeExpr  `json:"key,omitempty" yaml:"key,omitempty"`
	Value    *TypeExpr  `json:"value,omitempty" yaml:"value,omitempty"`
	Args     []TypeExpr `json:"args,omitempty" yaml:"args,omitempty"`
	ArgNames []string   `json:"argNames,omitempty" yaml:"argNames,omitempty"`
	Returns  []TypeExpr `json:"returns,omitempty" yaml:"returns,omitempty"`
	Alts     []TypeExpr `json:"alts,omitempty" yaml:"alts,omitempty"`
}

// AnyType returns the default type assigned to undocumented params and returns.
func AnyType() TypeExpr { return TypeExpr{Kind: TypeAny} }

// Primitive returns a payload-free TypeExpr of the given kind.
func Primitive(kind TypeKind) TypeExpr { return TypeExpr{Kind: kind} }

// Custom returns a named custom type.
func Custom(name string) TypeExpr { return TypeExpr{Kind: TypeCustom, Name: name} }

// ArrayOf returns an array type wrapping elem.
func ArrayOf(elem TypeExpr) TypeExpr { return TypeExpr{Kind: TypeArray, Elem: &elem} }

// DictOf returns a table<key, value> type.
func DictOf(key, value TypeExpr) TypeExpr {
	return TypeExpr{Kind: TypeDict, Key: &key, Value: &value}
}

// OrOf collapses alternatives into a single type. A lone alternative is
// returned unchanged; nested Or alternatives are flattened.
func OrOf(alts []TypeExpr) TypeExpr {
	if len(alts) == 1 {
		return alts[0]
	}
	flat := make([]TypeExpr, 0, len(alts))
	for _, a := range alts {
		if a.Kind == TypeOr {
			flat = append(flat, a.Alts...)
		} else {
			flat = append(flat, a)
		}
	}
	return TypeExpr{Kind: TypeOr, Alts: flat}
}

// String renders the expression back in EmmyLua notation, for diagnostics.
func (t TypeExpr) String() string {
	switch t.Kind {
	case TypeCustom:
		return t.Name
	case TypeArray:
		return t.Elem.String() + "[]"
	case TypeDict:
		return "table<" + t.Key.String() + ", " + t.Value.String() + ">"
	case TypeCallable:
		var sb strings.Builder
		sb.WriteString("fun(")
		for i, arg := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			if i < len(t.ArgNames) {
				sb.WriteString(t.ArgNames[i])
				sb.WriteString(": ")
			}
			sb.WriteString(arg.String())
		}
		sb.WriteString(")")
		for i, r := range t.Returns {
			if i == 0 {
				sb.WriteString(": ")
			} else {
				sb.WriteString(", ")
			}
			sb.WriteString(r.String())
		}
		return sb.String()
	case TypeOr:
		parts := make([]string, len(t.Alts))
		for i, a := range t.Alts {
			parts[i] = a.String()
		}
		return strings.Join(parts, "|")
	default:
		return string(t.Kind)
	}
}
