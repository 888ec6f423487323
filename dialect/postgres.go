package dialect

import (
	"fmt"

	"github.com/shrek82/keyquery/model"
)

// PostgreSQL dialect implementation
type postgres struct{}

func (d *postgres) Name() string { return "postgres" }

func (d *postgres) DataTypeOf(f *model.Field) string {
	switch f.Type {
	case model.TypeBool:
		return "boolean"
	case model.TypeInt, model.TypeInt32:
		return "integer"
	case model.TypeInt64, model.TypeUint, model.TypeUint32:
		return "bigint"
	case model.TypeUint64:
		return "numeric(20)"
	case model.TypeFloat32:
		return "real"
	case model.TypeFloat64:
		return "double precision"
	case model.TypeString:
		return fmt.Sprintf("varchar(%d)", varcharSize(f))
	case model.TypeTime:
		return "timestamp with time zone"
	case model.TypeUUID:
		return "uuid"
	case model.TypeDecimal:
		return "numeric"
	}
	return invalidType(f)
}

func (d *postgres) Quote(name string) string {
	// PostgreSQL uses double quotes for identifiers
	return fmt.Sprintf(`"%s"`, name)
}

// Placeholder returns $1, $2, $3...
func (d *postgres) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *postgres) InsertSQL(table string, columns []string) (string, []any) {
	return insertSQL(d, table, columns), nil
}

func (d *postgres) CreateTableSQL(m *model.Model) (string, []any) {
	return createTableSQL(d, m, func(field *model.Field, inlinePK bool) string {
		typ := d.DataTypeOf(field)
		if field.IsAuto {
			// PostgreSQL uses SERIAL types for auto-incrementing integer columns
			switch field.Type {
			case model.TypeInt, model.TypeInt32:
				typ = "serial"
			default:
				typ = "bigserial"
			}
		}
		column := fmt.Sprintf("%s %s", d.Quote(field.Column), typ)
		if inlinePK {
			column += " PRIMARY KEY"
		}
		return column
	}), nil
}

func (d *postgres) HasTableSQL(tableName string) (string, []any) {
	return "SELECT count(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1", []any{tableName}
}
