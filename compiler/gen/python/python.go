// Package python renders rowbind client bindings as Python source.
//
// Generated files follow the conventions of the Python client
// runtime: a dataclass per row type, a TableMetadata value per table,
// and a typed call stub per reducer.
package python

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/go-openapi/inflect"

	"github.com/rowbind/rowbind/compiler/gen"
	"github.com/rowbind/rowbind/schema"
	"github.com/rowbind/rowbind/schema/ident"
)

const scaffoldFile = "rowbind.py"

func init() {
	gen.Register(New())
}

// Target renders Python bindings. Stateless.
type Target struct{}

// New returns the Python target.
func New() *Target { return &Target{} }

// Name implements gen.LanguageTarget.
func (t *Target) Name() string { return "python" }

// ReservedWords implements gen.LanguageTarget.
func (t *Target) ReservedWords() []string {
	return []string{
		"False", "None", "True", "and", "as", "assert", "async", "await",
		"break", "class", "continue", "def", "del", "elif", "else",
		"except", "finally", "for", "from", "global", "if", "import",
		"in", "is", "lambda", "nonlocal", "not", "or", "pass", "raise",
		"return", "try", "while", "with", "yield",
	}
}

// TableFileName implements gen.LanguageTarget.
func (t *Target) TableFileName(name ident.Identifier) string {
	return inflect.Underscore(name.String()) + "_table.py"
}

// ReducerFileName implements gen.LanguageTarget.
func (t *Target) ReducerFileName(name ident.Identifier) string {
	return inflect.Underscore(name.String()) + "_reducer.py"
}

// TypeName implements gen.LanguageTarget. All integer widths map to
// int, options to Optional, anonymous products to positional tuples,
// anonymous sums to the runtime Variant carrier.
func (t *Target) TypeName(at schema.AlgebraicType) string {
	switch at.Kind {
	case schema.KindBool:
		return "bool"
	case schema.KindU8, schema.KindU16, schema.KindU32, schema.KindU64,
		schema.KindI8, schema.KindI16, schema.KindI32, schema.KindI64:
		return "int"
	case schema.KindF32, schema.KindF64:
		return "float"
	case schema.KindString:
		return "str"
	case schema.KindBytes:
		return "bytes"
	case schema.KindArray:
		return "List[" + t.TypeName(at.Array.Elem) + "]"
	case schema.KindMap:
		return "Dict[" + t.TypeName(at.Map.Key) + ", " + t.TypeName(at.Map.Value) + "]"
	case schema.KindSum:
		if elem, ok := at.OptionElem(); ok {
			return "Optional[" + t.TypeName(elem) + "]"
		}
		return "Variant"
	case schema.KindProduct:
		if len(at.Product.Elements) == 0 {
			return "None"
		}
		parts := make([]string, len(at.Product.Elements))
		for i, e := range at.Product.Elements {
			parts[i] = t.TypeName(e.Type)
		}
		return "Tuple[" + strings.Join(parts, ", ") + "]"
	default:
		return "Any"
	}
}

type tableData struct {
	ClassName  string
	TableName  string
	Access     string
	Fields     []fieldData
	PrimaryKey []string
	Unique     []string
	Scheduled  string
}

type fieldData struct {
	Name string
	Type string
}

var tableTemplate = template.Must(template.New("table").Parse(`# Code generated by rowbind. Do not edit.

from dataclasses import dataclass
from typing import Any, Dict, List, Optional, Tuple

from .rowbind import TableMetadata, Variant


@dataclass
class {{.ClassName}}:
    """Row type of the {{.TableName}} ({{.Access}}) table."""

{{- range .Fields}}
    {{.Name}}: {{.Type}}
{{- end}}


TABLE = TableMetadata(
    table_name={{printf "%q" .TableName}},
    row_type={{.ClassName}},
    access={{printf "%q" .Access}},
    primary_key=({{range .PrimaryKey}}{{printf "%q" .}}, {{end}}),
    unique_columns=({{range .Unique}}{{printf "%q" .}}, {{end}}),
{{- if .Scheduled}}
    scheduled_reducer={{printf "%q" .Scheduled}},
{{- end}}
)
`))

// RenderTable implements gen.LanguageTarget.
func (t *Target) RenderTable(def *gen.TableDef, module *gen.ModuleDef) (string, error) {
	fields, err := module.RowFields(def)
	if err != nil {
		return "", err
	}
	data := tableData{
		ClassName: inflect.Camelize(def.Name.String()),
		TableName: def.Name.String(),
		Access:    def.Access.String(),
		Scheduled: def.ScheduledReducer,
	}
	for i, f := range fields {
		data.Fields = append(data.Fields, fieldData{Name: fieldName(f.Name, i), Type: t.TypeName(f.Type)})
	}
	for _, pos := range def.PrimaryKey {
		data.PrimaryKey = append(data.PrimaryKey, fieldName(fields[pos].Name, pos))
	}
	for _, idx := range def.Indexes {
		if !idx.Unique {
			continue
		}
		for _, pos := range idx.Columns {
			data.Unique = append(data.Unique, fieldName(fields[pos].Name, pos))
		}
	}
	var b strings.Builder
	if err := tableTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("python: render table %s: %w", def.Name, err)
	}
	return b.String(), nil
}

type reducerData struct {
	FuncName    string
	ReducerName string
	Handle      string
	Lifecycle   bool
	Params      []fieldData
}

var reducerTemplate = template.Must(template.New("reducer").Parse(`# Code generated by rowbind. Do not edit.

from typing import Any, Dict, List, Optional, Tuple

from .rowbind import Caller, Variant

REDUCER_NAME = {{printf "%q" .ReducerName}}

{{if .Lifecycle}}
# {{.ReducerName}} is a lifecycle reducer invoked by the host; it
# cannot be called directly.
{{- else}}

def {{.FuncName}}({{.Handle}}: Caller{{range .Params}}, {{.Name}}: {{.Type}}{{end}}) -> None:
    """Invoke the {{.ReducerName}} reducer."""
    {{.Handle}}.call_reducer(REDUCER_NAME{{range .Params}}, {{.Name}}{{end}})
{{- end}}
`))

// RenderReducer implements gen.LanguageTarget.
func (t *Target) RenderReducer(def *gen.ReducerDef) (string, error) {
	data := reducerData{
		FuncName:    inflect.Underscore(def.Name.String()),
		ReducerName: def.Name.String(),
		Handle:      callerHandle("client", def.Params),
		Lifecycle:   def.Lifecycle != gen.LifecycleNone,
	}
	for _, p := range def.Params {
		data.Params = append(data.Params, fieldData{Name: p.Name.String(), Type: t.TypeName(p.Type)})
	}
	var b strings.Builder
	if err := reducerTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("python: render reducer %s: %w", def.Name, err)
	}
	return b.String(), nil
}

// ScaffoldFileNames implements gen.ScaffoldGenerator.
func (t *Target) ScaffoldFileNames() []string { return []string{scaffoldFile} }

// RenderScaffold implements gen.ScaffoldGenerator. Exported module
// types become typing aliases at the bottom of the runtime file.
func (t *Target) RenderScaffold(module *gen.ModuleDef) (map[string]string, error) {
	var b strings.Builder
	b.WriteString(`# Code generated by rowbind. Do not edit.

from dataclasses import dataclass
from typing import Any, Dict, List, Optional, Protocol, Tuple


class Caller(Protocol):
    """Requests reducer execution on the remote module."""

    def call_reducer(self, name: str, *args: Any) -> None: ...


@dataclass
class Variant:
    """Carries a value of an anonymous sum type."""

    tag: str
    value: Any = None


@dataclass
class TableMetadata:
    """Describes one table to the client runtime."""

    table_name: str
    row_type: type
    access: str = "public"
    primary_key: Tuple[str, ...] = ()
    unique_columns: Tuple[str, ...] = ()
    scheduled_reducer: str = ""
`)
	for _, td := range module.TypeDefs() {
		at, ok := module.ResolveType(td.Ref)
		if !ok {
			return nil, &gen.InvariantError{Message: fmt.Sprintf(
				"type %s references dangling type ref %d", td.Name, td.Ref)}
		}
		fmt.Fprintf(&b, "\n\n%s = %s\n", td.Name, t.TypeName(at))
	}
	return map[string]string{scaffoldFile: b.String()}, nil
}

func fieldName(name string, pos int) string {
	if name == "" {
		return fmt.Sprintf("f%d", pos)
	}
	return name
}

// callerHandle picks a name for the generated stub's caller parameter
// that cannot shadow any user-declared parameter.
func callerHandle(base string, params []gen.ParamDef) string {
	used := make(map[string]struct{}, len(params))
	for _, p := range params {
		used[p.Name.String()] = struct{}{}
	}
	handle := base
	for {
		if _, ok := used[handle]; !ok {
			return handle
		}
		handle += "_"
	}
}
