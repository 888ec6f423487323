package main

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/shrek82/keyquery/model"
)

const fileTemplate = `// Code generated by keyquery-gen. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
)

// {{.StructName}} maps table {{.Table}}.
type {{.StructName}} struct {
{{- range .Fields}}
	{{.Name}} {{.GoType}} ` + "`" + `jorm:"{{.Tag}}"` + "`" + `{{if .Comment}} // {{.Comment}}{{end}}
{{- end}}
}

// TableName returns the table name.
func (*{{.StructName}}) TableName() string {
	return "{{.Table}}"
}

// {{.StructName}}Model is the descriptor table for {{.StructName}}.
var {{.StructName}}Model = model.MustModel("{{.Table}}",
{{- range $i, $f := .Fields}}
	model.Field{Name: "{{$f.Name}}", Column: "{{$f.Column}}", Type: {{$f.TypeConst}}, Index: []int{ {{- $i -}} }
		{{- if $f.IsPK}}, IsPK: true{{end}}{{if $f.IsAuto}}, IsAuto: true{{end}}{{if $f.Size}}, Size: {{$f.Size}}{{end}}},
{{- end}}
)
`

var fileTmpl = template.Must(template.New("model").Parse(fileTemplate))

type fieldData struct {
	Name      string
	Column    string
	GoType    string
	TypeConst string
	Tag       string
	Comment   string
	IsPK      bool
	IsAuto    bool
	Size      int
}

type modelData struct {
	Package    string
	Table      string
	StructName string
	Imports    []string
	Fields     []fieldData
}

var goTypes = map[model.FieldType]string{
	model.TypeBool:    "bool",
	model.TypeInt:     "int",
	model.TypeInt32:   "int32",
	model.TypeInt64:   "int64",
	model.TypeUint:    "uint",
	model.TypeUint32:  "uint32",
	model.TypeUint64:  "uint64",
	model.TypeFloat32: "float32",
	model.TypeFloat64: "float64",
	model.TypeString:  "string",
	model.TypeTime:    "time.Time",
	model.TypeUUID:    "uuid.UUID",
	model.TypeDecimal: "decimal.Decimal",
}

var typeConsts = map[model.FieldType]string{
	model.TypeBool:    "model.TypeBool",
	model.TypeInt:     "model.TypeInt",
	model.TypeInt32:   "model.TypeInt32",
	model.TypeInt64:   "model.TypeInt64",
	model.TypeUint:    "model.TypeUint",
	model.TypeUint32:  "model.TypeUint32",
	model.TypeUint64:  "model.TypeUint64",
	model.TypeFloat32: "model.TypeFloat32",
	model.TypeFloat64: "model.TypeFloat64",
	model.TypeString:  "model.TypeString",
	model.TypeTime:    "model.TypeTime",
	model.TypeUUID:    "model.TypeUUID",
	model.TypeDecimal: "model.TypeDecimal",
}

var typeImports = map[model.FieldType]string{
	model.TypeTime:    "time",
	model.TypeUUID:    "github.com/google/uuid",
	model.TypeDecimal: "github.com/shopspring/decimal",
}

const modelImport = "github.com/shrek82/keyquery/model"

func newModelData(pkg, table string, cols []column) (modelData, error) {
	data := modelData{
		Package:    pkg,
		Table:      table,
		StructName: snakeToCamel(table, true),
	}

	imports := map[string]bool{modelImport: true}
	hasPK := false
	for _, c := range cols {
		hasPK = hasPK || c.IsPK
		t := mapType(c.DBType)
		if imp, ok := typeImports[t]; ok {
			imports[imp] = true
		}
		data.Fields = append(data.Fields, fieldData{
			Name:      snakeToCamel(c.Name, true),
			Column:    c.Name,
			GoType:    goTypes[t],
			TypeConst: typeConsts[t],
			Tag:       generateTag(c, t),
			Comment:   strings.Join(strings.Fields(c.Comment), " "),
			IsPK:      c.IsPK,
			IsAuto:    c.IsAuto,
			Size:      stringSize(c, t),
		})
	}

	if !hasPK {
		return data, fmt.Errorf("table %s has no primary key", table)
	}

	for imp := range imports {
		data.Imports = append(data.Imports, imp)
	}
	sort.Strings(data.Imports)
	return data, nil
}

// render executes the template and gofmts the result.
func render(data modelData) ([]byte, error) {
	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", data.Table, err)
	}
	return src, nil
}

// mapType maps a database column type to a FieldType. Unknown types map to
// TypeString, which database/sql can scan any text or blob into.
func mapType(dbType string) model.FieldType {
	upper := strings.ToUpper(strings.TrimSpace(dbType))
	unsigned := strings.Contains(upper, "UNSIGNED")
	base := upper
	if i := strings.IndexAny(base, "( "); i != -1 {
		base = base[:i]
	}

	switch base {
	case "BOOLEAN", "BOOL":
		return model.TypeBool
	case "TINYINT":
		if strings.HasPrefix(upper, "TINYINT(1)") {
			return model.TypeBool
		}
		fallthrough
	case "SMALLINT", "MEDIUMINT", "INT", "INT2", "INT4", "SERIAL":
		if unsigned {
			return model.TypeUint32
		}
		return model.TypeInt32
	case "INTEGER":
		// sqlite integers are 64-bit
		if unsigned {
			return model.TypeUint64
		}
		return model.TypeInt64
	case "BIGINT", "INT8", "BIGSERIAL":
		if unsigned {
			return model.TypeUint64
		}
		return model.TypeInt64
	case "FLOAT", "FLOAT4":
		return model.TypeFloat32
	case "REAL", "DOUBLE", "FLOAT8":
		return model.TypeFloat64
	case "DECIMAL", "NUMERIC":
		return model.TypeDecimal
	case "UUID":
		return model.TypeUUID
	case "DATE", "TIME", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return model.TypeTime
	}
	if strings.HasPrefix(upper, "DOUBLE PRECISION") {
		return model.TypeFloat64
	}
	if strings.HasPrefix(upper, "TIMESTAMP") || strings.HasPrefix(upper, "TIME ") {
		return model.TypeTime
	}
	return model.TypeString
}

func stringSize(c column, t model.FieldType) int {
	if t == model.TypeString {
		return c.Size
	}
	return 0
}

// generateTag builds the jorm tag for a column.
func generateTag(c column, t model.FieldType) string {
	tags := []string{"column:" + c.Name}
	if c.IsPK {
		tags = append(tags, "pk")
		if c.IsAuto {
			tags = append(tags, "auto")
		}
	}
	if c.IsNotNull && !c.IsPK {
		tags = append(tags, "notnull")
	}
	if c.IsUnique {
		tags = append(tags, "unique")
	}
	// defaults with separators or quotes cannot be expressed in a tag
	if c.Default != "" && !c.IsAuto && !strings.ContainsAny(c.Default, " \t;,'\"`") {
		tags = append(tags, "default:"+c.Default)
	}
	if size := stringSize(c, t); size > 0 {
		tags = append(tags, fmt.Sprintf("size:%d", size))
	}
	if t == model.TypeUUID || t == model.TypeDecimal {
		tags = append(tags, "type:"+t.String())
	}
	return strings.Join(tags, ";")
}

// snakeToCamel converts snake_case to CamelCase, spelling "id" as "ID".
func snakeToCamel(s string, upperFirst bool) string {
	parts := strings.Split(s, "_")
	for i := range parts {
		if i == 0 && !upperFirst {
			continue
		}
		if parts[i] == "id" {
			parts[i] = "ID"
		} else if len(parts[i]) > 0 {
			runes := []rune(parts[i])
			runes[0] = unicode.ToUpper(runes[0])
			parts[i] = string(runes)
		}
	}
	return strings.Join(parts, "")
}
