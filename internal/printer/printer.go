// Package printer serializes finished documentation models. The model is
// plain data, so JSON and YAML are direct structural encodings; the pretty
// renderer is a compact text form for quick inspection.
package printer

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/luadoc-labs/luadoc/internal/docmodel"
)

// ToJSON renders the modules as indented JSON.
func ToJSON(modules []*docmodel.Module) ([]byte, error) {
	data, err := json.MarshalIndent(modules, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return append(data, '\n'), nil
}

// ToYAML renders the modules as YAML.
func ToYAML(modules []*docmodel.Module) ([]byte, error) {
	data, err := yaml.Marshal(modules)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return data, nil
}

// ToPretty renders a human-readable outline of the modules.
func ToPretty(modules []*docmodel.Module) []byte {
	var w prettyWriter
	for _, m := range modules {
		w.module(m)
	}
	return []byte(w.sb.String())
}

type prettyWriter struct {
	sb     strings.Builder
	indent int
}

func (w *prettyWriter) linef(format string, args ...any) {
	w.sb.WriteString(strings.Repeat("  ", w.indent))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *prettyWriter) module(m *docmodel.Module) {
	header := "module " + m.Name
	if m.IsClassMod {
		header = "classmod " + m.Name
	}
	if m.FilePath != "" {
		header += " (" + m.FilePath + ")"
	}
	w.linef("%s", header)
	w.indent++
	if m.ShortDesc != "" {
		w.linef("%s", m.ShortDesc)
	}
	for _, c := range m.Classes {
		w.class(c)
	}
	for _, f := range m.Functions {
		w.function(f, "function")
	}
	for _, d := range m.Data {
		w.data(d)
	}
	w.indent--
}

func (w *prettyWriter) class(c *docmodel.Class) {
	header := "class " + c.Name
	if len(c.Bases) > 0 {
		header += " : " + strings.Join(c.Bases, ", ")
	}
	w.linef("%s", header)
	w.indent++
	if c.ShortDesc != "" {
		w.linef("%s", c.ShortDesc)
	}
	for _, f := range c.Fields {
		w.linef("field %s: %s  %s", f.Name, f.Type.String(), f.Desc)
	}
	for _, fn := range c.Methods {
		kind := "method"
		if fn.IsStatic {
			kind = "static function"
		}
		w.function(fn, kind)
	}
	w.indent--
}

func (w *prettyWriter) function(fn *docmodel.Function, kind string) {
	names := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		names[i] = p.Name
	}
	header := fmt.Sprintf("%s %s(%s)", kind, fn.Name, strings.Join(names, ", "))
	if len(fn.Returns) > 0 {
		rets := make([]string, len(fn.Returns))
		for i, r := range fn.Returns {
			rets[i] = r.Type.String()
		}
		header += " -> " + strings.Join(rets, ", ")
	}
	if fn.Visibility != docmodel.VisibilityPublic {
		header += " [" + string(fn.Visibility) + "]"
	}
	w.linef("%s", header)
	if fn.ShortDesc != "" {
		w.indent++
		w.linef("%s", fn.ShortDesc)
		w.indent--
	}
}

func (w *prettyWriter) data(d *docmodel.Data) {
	header := "data " + d.Name
	if d.IsConstant {
		header = "constant " + d.Name
	}
	if d.Literal != "" {
		header += " = " + d.Literal
	}
	w.linef("%s", header)
	if d.Kind == docmodel.DataDict {
		w.indent++
		for _, f := range d.Fields {
			line := f.Name
			if f.Literal != "" {
				line += " = " + f.Literal
			}
			if f.Desc != "" {
				line += "  " + f.Desc
			}
			w.linef("%s", line)
		}
		w.indent--
	}
}
