// Package typescript renders rowbind client bindings as TypeScript
// source: one module per table and per reducer, plus a shared runtime
// declaration file.
package typescript

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rowbind/rowbind/compiler/gen"
	"github.com/rowbind/rowbind/schema"
	"github.com/rowbind/rowbind/schema/ident"
)

const scaffoldFile = "rowbind.ts"

func init() {
	gen.Register(New())
}

// Target renders TypeScript bindings. It is stateless; all rendering
// is a pure function of the module and definition.
type Target struct{}

// New returns the TypeScript target.
func New() *Target { return &Target{} }

// Name implements gen.LanguageTarget.
func (t *Target) Name() string { return "typescript" }

// ReservedWords implements gen.LanguageTarget.
func (t *Target) ReservedWords() []string {
	return []string{
		"abstract", "any", "as", "async", "await", "boolean", "break",
		"case", "catch", "class", "const", "continue", "debugger",
		"declare", "default", "delete", "do", "else", "enum", "export",
		"extends", "false", "finally", "for", "function", "if",
		"implements", "import", "in", "instanceof", "interface", "let",
		"new", "null", "number", "of", "package", "private", "protected",
		"public", "return", "static", "string", "super", "switch",
		"symbol", "this", "throw", "true", "try", "type", "typeof",
		"undefined", "var", "void", "while", "with", "yield",
	}
}

// TableFileName implements gen.LanguageTarget.
func (t *Target) TableFileName(name ident.Identifier) string {
	return inflect.Underscore(name.String()) + "_table.ts"
}

// ReducerFileName implements gen.LanguageTarget.
func (t *Target) ReducerFileName(name ident.Identifier) string {
	return inflect.Underscore(name.String()) + "_reducer.ts"
}

// TypeName implements gen.LanguageTarget. 64-bit integers map to
// bigint, options to nullable unions, anonymous sums to discriminated
// unions.
func (t *Target) TypeName(at schema.AlgebraicType) string {
	switch at.Kind {
	case schema.KindBool:
		return "boolean"
	case schema.KindU8, schema.KindU16, schema.KindU32,
		schema.KindI8, schema.KindI16, schema.KindI32,
		schema.KindF32, schema.KindF64:
		return "number"
	case schema.KindU64, schema.KindI64:
		return "bigint"
	case schema.KindString:
		return "string"
	case schema.KindBytes:
		return "Uint8Array"
	case schema.KindArray:
		elem := t.TypeName(at.Array.Elem)
		if strings.Contains(elem, "|") {
			return "(" + elem + ")[]"
		}
		return elem + "[]"
	case schema.KindMap:
		return "Map<" + t.TypeName(at.Map.Key) + ", " + t.TypeName(at.Map.Value) + ">"
	case schema.KindSum:
		if elem, ok := at.OptionElem(); ok {
			return t.TypeName(elem) + " | null"
		}
		parts := make([]string, len(at.Sum.Variants))
		for i, v := range at.Sum.Variants {
			if v.Type.Equal(schema.Unit()) {
				parts[i] = fmt.Sprintf("{ tag: %q }", v.Name)
			} else {
				parts[i] = fmt.Sprintf("{ tag: %q; value: %s }", v.Name, t.TypeName(v.Type))
			}
		}
		return strings.Join(parts, " | ")
	case schema.KindProduct:
		var b strings.Builder
		b.WriteString("{ ")
		for i, e := range at.Product.Elements {
			if i > 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(&b, "%s: %s", fieldName(e.Name, i), t.TypeName(e.Type))
		}
		b.WriteString(" }")
		return b.String()
	default:
		return "unknown"
	}
}

type tableData struct {
	RowType    string
	TableName  string
	TableConst string
	Access     string
	Fields     []fieldData
	PrimaryKey []string
	Indexes    []indexData
}

type fieldData struct {
	Name string
	Type string
}

type indexData struct {
	Name    string
	Columns []string
	Unique  bool
}

var tableTemplate = template.Must(template.New("table").Parse(`// Code generated by rowbind. DO NOT EDIT.

export interface {{.RowType}} {
{{- range .Fields}}
  {{.Name}}: {{.Type}};
{{- end}}
}

export const {{.TableConst}} = {
  name: {{printf "%q" .TableName}},
  access: {{printf "%q" .Access}},
{{- if .PrimaryKey}}
  primaryKey: [{{range $i, $c := .PrimaryKey}}{{if $i}}, {{end}}{{printf "%q" $c}}{{end}}],
{{- end}}
{{- if .Indexes}}
  indexes: [
{{- range .Indexes}}
    { name: {{printf "%q" .Name}}, columns: [{{range $i, $c := .Columns}}{{if $i}}, {{end}}{{printf "%q" $c}}{{end}}], unique: {{.Unique}} },
{{- end}}
  ],
{{- end}}
} as const;
`))

// RenderTable implements gen.LanguageTarget.
func (t *Target) RenderTable(def *gen.TableDef, module *gen.ModuleDef) (string, error) {
	fields, err := module.RowFields(def)
	if err != nil {
		return "", err
	}
	data := tableData{
		RowType:    pascal(def.Name.String()),
		TableName:  def.Name.String(),
		TableConst: lowerCamel(def.Name.String()) + "Table",
		Access:     def.Access.String(),
	}
	for i, f := range fields {
		data.Fields = append(data.Fields, fieldData{Name: fieldName(f.Name, i), Type: t.TypeName(f.Type)})
	}
	for _, pos := range def.PrimaryKey {
		data.PrimaryKey = append(data.PrimaryKey, fieldName(fields[pos].Name, pos))
	}
	for _, idx := range def.Indexes {
		cols := make([]string, len(idx.Columns))
		for i, pos := range idx.Columns {
			cols[i] = fieldName(fields[pos].Name, pos)
		}
		name := idx.Name
		if name == "" {
			name = "idx_" + strings.Join(cols, "_")
		}
		data.Indexes = append(data.Indexes, indexData{Name: name, Columns: cols, Unique: idx.Unique})
	}
	var b strings.Builder
	if err := tableTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("typescript: render table %s: %w", def.Name, err)
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

var reducerTemplate = template.Must(template.New("reducer").Parse(`// Code generated by rowbind. DO NOT EDIT.

import type { Caller } from "./rowbind";

{{if .Lifecycle -}}
// {{.ReducerName}} is a lifecycle reducer invoked by the host; it
// cannot be called directly.
export const {{.FuncName}}ReducerName = {{printf "%q" .ReducerName}};
{{- else -}}
export function {{.FuncName}}({{.Handle}}: Caller{{range .Params}}, {{.Name}}: {{.Type}}{{end}}): Promise<void> {
  return {{.Handle}}.callReducer({{printf "%q" .ReducerName}}{{range .Params}}, {{.Name}}{{end}});
}
{{- end}}
`))

// RenderReducer implements gen.LanguageTarget.
func (t *Target) RenderReducer(def *gen.ReducerDef) (string, error) {
	data := reducerData{
		FuncName:    lowerCamel(def.Name.String()),
		ReducerName: def.Name.String(),
		Handle:      callerHandle("c", def.Params),
		Lifecycle:   def.Lifecycle != gen.LifecycleNone,
	}
	for _, p := range def.Params {
		data.Params = append(data.Params, fieldData{Name: p.Name.String(), Type: t.TypeName(p.Type)})
	}
	var b strings.Builder
	if err := reducerTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("typescript: render reducer %s: %w", def.Name, err)
	}
	return b.String(), nil
}

// ScaffoldFileNames implements gen.ScaffoldGenerator.
func (t *Target) ScaffoldFileNames() []string { return []string{scaffoldFile} }

// RenderScaffold implements gen.ScaffoldGenerator. Exported module
// types are re-emitted here as named aliases so clients can refer to
// them without repeating the structural type.
func (t *Target) RenderScaffold(module *gen.ModuleDef) (map[string]string, error) {
	var b strings.Builder
	b.WriteString(`// Code generated by rowbind. DO NOT EDIT.

/** Caller requests reducer execution on the remote module. */
export interface Caller {
  callReducer(name: string, ...args: unknown[]): Promise<void>;
}
`)
	for _, td := range module.TypeDefs() {
		at, ok := module.ResolveType(td.Ref)
		if !ok {
			return nil, &gen.InvariantError{Message: fmt.Sprintf(
				"type %s references dangling type ref %d", td.Name, td.Ref)}
		}
		fmt.Fprintf(&b, "\nexport type %s = %s;\n", td.Name, t.TypeName(at))
	}
	return map[string]string{scaffoldFile: b.String()}, nil
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// pascal converts a snake_case identifier to PascalCase.
func pascal(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(titleCaser.String(p))
	}
	return b.String()
}

// lowerCamel converts a snake_case identifier to camelCase.
func lowerCamel(name string) string {
	p := pascal(name)
	if p == "" {
		return p
	}
	return strings.ToLower(p[:1]) + p[1:]
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
