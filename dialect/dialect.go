package dialect

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shrek82/keyquery/model"
)

// Dialect represents the interface for database-specific SQL generation and type mapping.
// Each database (MySQL, SQLite, etc.) must implement this interface to be supported.
type Dialect interface {
	// Name returns the database/sql driver name the dialect is registered under
	Name() string
	// DataTypeOf returns the database-specific column type for a field
	DataTypeOf(f *model.Field) string
	// Quote wraps a name (table or column) in database-specific quotes
	Quote(name string) string
	// Placeholder returns the bind parameter for the 1-based argument index
	Placeholder(index int) string
	// InsertSQL generates the INSERT statement for the given table and columns
	InsertSQL(table string, columns []string) (string, []any)
	// CreateTableSQL generates the CREATE TABLE statement for the given model
	CreateTableSQL(m *model.Model) (string, []any)
	// HasTableSQL generates the SQL to check if a table exists
	HasTableSQL(tableName string) (string, []any)
}

var (
	mu       sync.RWMutex
	dialects = make(map[string]Dialect)
)

// Register registers a new dialect for a given driver name
func Register(name string, d Dialect) {
	mu.Lock()
	defer mu.Unlock()
	dialects[name] = d
}

// Get retrieves a registered dialect by driver name
func Get(name string) (Dialect, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := dialects[name]
	return d, ok
}

func init() {
	Register("sqlite3", &sqlite3{})
	Register("mysql", &mysql{})
	Register("postgres", &postgres{})
}

// insertSQL builds INSERT INTO table (cols) VALUES (placeholders).
func insertSQL(d Dialect, table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = d.Quote(col)
		placeholders[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
}

// createTableSQL renders column definitions with column(f) and declares the
// primary key inline for single keys and as a table constraint for composite
// keys.
func createTableSQL(d Dialect, m *model.Model, column func(f *model.Field, inlinePK bool) string) string {
	pks := m.PrimaryKeys()
	inline := len(pks) == 1

	var defs []string
	for _, field := range m.Fields {
		defs = append(defs, column(field, inline && field.IsPK))
	}
	if !inline {
		quoted := make([]string, len(pks))
		for i, f := range pks {
			quoted[i] = d.Quote(f.Column)
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(quoted, ", ")+")")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.Quote(m.TableName), strings.Join(defs, ", "))
}

func invalidType(f *model.Field) string {
	panic(fmt.Sprintf("invalid sql type %s for field %s", f.Type, f.Name))
}
