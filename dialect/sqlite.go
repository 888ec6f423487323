package dialect

import (
	"fmt"

	"github.com/shrek82/keyquery/model"
)

// SQLite dialect implementation
type sqlite3 struct{}

func (d *sqlite3) Name() string { return "sqlite3" }

func (d *sqlite3) DataTypeOf(f *model.Field) string {
	switch f.Type {
	case model.TypeBool:
		return "boolean"
	case model.TypeInt, model.TypeInt32, model.TypeInt64,
		model.TypeUint, model.TypeUint32, model.TypeUint64:
		return "integer"
	case model.TypeFloat32, model.TypeFloat64:
		return "real"
	case model.TypeString, model.TypeUUID, model.TypeDecimal:
		return "text"
	case model.TypeTime:
		return "datetime"
	}
	return invalidType(f)
}

func (d *sqlite3) Quote(name string) string {
	return fmt.Sprintf("`%s`", name)
}

func (d *sqlite3) Placeholder(int) string {
	return "?"
}

func (d *sqlite3) InsertSQL(table string, columns []string) (string, []any) {
	return insertSQL(d, table, columns), nil
}

func (d *sqlite3) CreateTableSQL(m *model.Model) (string, []any) {
	return createTableSQL(d, m, func(field *model.Field, inlinePK bool) string {
		column := fmt.Sprintf("%s %s", d.Quote(field.Column), d.DataTypeOf(field))
		if inlinePK {
			column += " PRIMARY KEY"
			// AUTOINCREMENT is only valid on an inline INTEGER PRIMARY KEY
			if field.IsAuto {
				column += " AUTOINCREMENT"
			}
		}
		return column
	}), nil
}

func (d *sqlite3) HasTableSQL(tableName string) (string, []any) {
	return "SELECT count(*) FROM sqlite_master WHERE type='table' AND name = ?", []any{tableName}
}
