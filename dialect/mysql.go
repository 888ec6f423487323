package dialect

import (
	"fmt"

	"github.com/shrek82/keyquery/model"
)

// MySQL dialect implementation
type mysql struct{}

func (d *mysql) Name() string { return "mysql" }

func (d *mysql) DataTypeOf(f *model.Field) string {
	switch f.Type {
	case model.TypeBool:
		return "boolean"
	case model.TypeInt, model.TypeInt32:
		return "int"
	case model.TypeInt64:
		return "bigint"
	case model.TypeUint, model.TypeUint32:
		return "int unsigned"
	case model.TypeUint64:
		return "bigint unsigned"
	case model.TypeFloat32:
		return "float"
	case model.TypeFloat64:
		return "double"
	case model.TypeString:
		return fmt.Sprintf("varchar(%d)", varcharSize(f))
	case model.TypeTime:
		return "datetime"
	case model.TypeUUID:
		return "char(36)"
	case model.TypeDecimal:
		return "decimal(38,10)"
	}
	return invalidType(f)
}

func (d *mysql) Quote(name string) string {
	return fmt.Sprintf("`%s`", name)
}

func (d *mysql) Placeholder(int) string {
	return "?"
}

func (d *mysql) InsertSQL(table string, columns []string) (string, []any) {
	return insertSQL(d, table, columns), nil
}

func (d *mysql) CreateTableSQL(m *model.Model) (string, []any) {
	return createTableSQL(d, m, func(field *model.Field, inlinePK bool) string {
		column := fmt.Sprintf("%s %s", d.Quote(field.Column), d.DataTypeOf(field))
		if field.IsPK {
			column += " NOT NULL"
		}
		if inlinePK {
			column += " PRIMARY KEY"
		}
		if field.IsAuto {
			column += " AUTO_INCREMENT"
		}
		return column
	}), nil
}

func (d *mysql) HasTableSQL(tableName string) (string, []any) {
	return "SELECT count(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", []any{tableName}
}

func varcharSize(f *model.Field) int {
	if f.Size > 0 {
		return f.Size
	}
	return 255
}
