package core

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"time"

	"github.com/shrek82/keyquery/logger"
	"github.com/shrek82/keyquery/model"
	"github.com/shrek82/keyquery/query"
)

// Hook interfaces for model lifecycle events
type BeforeInserter interface{ BeforeInsert() error }
type AfterInserter interface{ AfterInsert(id int64) error }
type AfterFinder interface{ AfterFind() error }

// Executor defines the interface for executing SQL queries and commands.
// It is implemented by the connection pool and *Tx.
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var errQueryDone = fmt.Errorf("%w: query already executed", ErrInvalidQuery)

// Query is the chainable query builder and executor. A Query runs once;
// the terminal methods release its builder.
type Query struct {
	db       *DB
	executor Executor
	builder  Builder
	ctx      context.Context
	model    *model.Model
	logger   logger.Logger
	err      error
	rawSQL   string
	rawArgs  []any

	// Dest is the destination of the running SELECT, visible to middleware.
	Dest any
	// LastSQL and LastArgs hold the statement most recently sent to the database.
	LastSQL  string
	LastArgs []any
}

// NewQuery creates a new Query instance.
func NewQuery(db *DB, executor Executor, builder Builder) *Query {
	return &Query{
		db:       db,
		executor: executor,
		builder:  builder,
		ctx:      context.Background(),
		logger:   db.logger,
	}
}

// Model sets the target model for the query. value is a tagged struct (or
// pointer/slice of one) or a *model.Model descriptor table.
func (q *Query) Model(value any) *Query {
	if q.err != nil {
		return q
	}
	m, err := modelOf(value)
	if err != nil {
		q.err = err
		return q
	}
	q.model = m
	q.builder.SetTable(m.TableName)
	return q
}

// Table sets the target table name for the query.
func (q *Query) Table(name string) *Query {
	if q.err != nil {
		return q
	}
	q.builder.SetTable(name)
	return q
}

// Where adds a raw WHERE condition with ? placeholders.
func (q *Query) Where(cond string, args ...any) *Query {
	if q.err != nil {
		return q
	}
	q.builder.Where(cond, args...)
	return q
}

// WherePredicate adds p as a WHERE condition. A nil predicate adds nothing.
func (q *Query) WherePredicate(p query.Predicate) *Query {
	if q.err != nil || p == nil {
		return q
	}
	cond, args := query.Compile(p, q.db.dialect.Quote)
	q.builder.Where(cond, args...)
	return q
}

// Limit sets the LIMIT clause.
func (q *Query) Limit(n int) *Query {
	if q.err != nil {
		return q
	}
	q.builder.Limit(n)
	return q
}

// Offset sets the OFFSET clause.
func (q *Query) Offset(n int) *Query {
	if q.err != nil {
		return q
	}
	q.builder.Offset(n)
	return q
}

// OrderBy adds an ORDER BY clause.
func (q *Query) OrderBy(columns ...string) *Query {
	if q.err != nil {
		return q
	}
	q.builder.OrderBy(columns...)
	return q
}

// WithContext sets the context for the query execution.
func (q *Query) WithContext(ctx context.Context) *Query {
	q.ctx = ctx
	return q
}

// WithFields attaches fields to every log line this query writes.
func (q *Query) WithFields(fields map[string]any) *Query {
	if len(fields) > 0 && q.logger != nil {
		q.logger = q.logger.WithFields(fields)
	}
	return q
}

// Raw sets a raw SQL query and its arguments.
func (q *Query) Raw(sql string, args ...any) *Query {
	q.rawSQL = sql
	q.rawArgs = args
	return q
}

// Meta returns the model the query targets, or nil for table and raw queries.
func (q *Query) Meta() *model.Model {
	return q.model
}

// TableName returns the target table, or "" for raw queries.
func (q *Query) TableName() string {
	if q.model != nil {
		return q.model.TableName
	}
	if sb, ok := q.builder.(*sqlBuilder); ok {
		return sb.table
	}
	return ""
}

// DB returns the database the query runs against.
func (q *Query) DB() *DB {
	return q.db
}

// GetSelectSQL returns the SELECT statement the query will run.
func (q *Query) GetSelectSQL() (string, []any) {
	if q.rawSQL != "" {
		return q.rawSQL, q.rawArgs
	}
	if q.builder == nil {
		return q.LastSQL, q.LastArgs
	}
	return q.builder.BuildSelect()
}

func (q *Query) release() {
	if q.builder != nil {
		PutBuilder(q.builder)
		q.builder = nil
	}
	if q.err == nil {
		q.err = errQueryDone
	}
}

// First retrieves the first record matching the query into dest.
// It returns ErrRecordNotFound when nothing matches.
func (q *Query) First(dest any) error {
	if q.err != nil {
		return q.err
	}
	defer q.release()
	q.builder.Limit(1)
	q.Dest = dest
	_, err := q.db.chain(selectOne)(q.ctx, q)
	return err
}

// Find retrieves all records matching the query into dest (must be a pointer to a slice).
func (q *Query) Find(dest any) error {
	if q.err != nil {
		return q.err
	}
	defer q.release()
	if !isSlicePtr(dest) {
		return fmt.Errorf("%w: dest must be a pointer to a slice", ErrInvalidQuery)
	}
	q.Dest = dest
	_, err := q.db.chain(selectMany)(q.ctx, q)
	return err
}

// Scan executes the raw query and scans the result into dest (must be a pointer to a slice).
func (q *Query) Scan(dest any) error {
	if q.rawSQL == "" {
		return fmt.Errorf("%w: raw sql is empty", ErrInvalidSQL)
	}
	return q.Find(dest)
}

// Count returns the number of records matching the query.
func (q *Query) Count() (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	defer q.release()
	q.builder.Select("COUNT(*)")
	sqlStr, args := q.builder.BuildSelect()

	var count int64
	start := time.Now()
	err := q.executor.QueryRowContext(q.ctx, sqlStr, args...).Scan(&count)
	q.logSQL(q.ctx, sqlStr, time.Since(start), args)
	return count, err
}

func selectMany(ctx context.Context, q *Query) (*Result, error) {
	sqlStr, args := q.GetSelectSQL()
	n, err := q.queryRows(ctx, sqlStr, args, q.Dest)
	if err != nil {
		return &Result{Error: err}, err
	}
	return &Result{RowsAffected: n, Data: q.Dest}, nil
}

func selectOne(ctx context.Context, q *Query) (*Result, error) {
	sqlStr, args := q.GetSelectSQL()
	if err := q.queryRow(ctx, sqlStr, args, q.Dest); err != nil {
		return &Result{Error: err}, err
	}
	return &Result{RowsAffected: 1, Data: q.Dest}, nil
}

func (q *Query) logSQL(ctx context.Context, sqlStr string, d time.Duration, args []any) {
	q.LastSQL, q.LastArgs = sqlStr, args
	if q.logger == nil {
		return
	}
	l := q.logger
	if fields := FieldsFromContext(ctx); len(fields) > 0 {
		l = l.WithFields(fields)
	}
	l.SQL(sqlStr, d, args...)
}

func (q *Query) scanModel(dest any) (*model.Model, error) {
	if q.model != nil {
		return q.model, nil
	}
	return model.GetModel(dest)
}

func (q *Query) queryRow(ctx context.Context, sqlStr string, args []any, dest any) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr || destValue.IsNil() {
		return fmt.Errorf("%w: dest must be a non-nil pointer", ErrInvalidQuery)
	}
	m, err := q.scanModel(dest)
	if err != nil {
		return err
	}

	start := time.Now()
	rows, err := q.executor.QueryContext(ctx, sqlStr, args...)
	q.logSQL(ctx, sqlStr, time.Since(start), args)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return ErrRecordNotFound
	}

	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	if err := scanRow(rows, m, columns, destValue.Elem()); err != nil {
		return err
	}

	if h, ok := dest.(AfterFinder); ok {
		return h.AfterFind()
	}
	return nil
}

func (q *Query) queryRows(ctx context.Context, sqlStr string, args []any, dest any) (int64, error) {
	m, err := q.scanModel(dest)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	rows, err := q.executor.QueryContext(ctx, sqlStr, args...)
	q.logSQL(ctx, sqlStr, time.Since(start), args)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return 0, err
	}

	sliceValue := reflect.ValueOf(dest).Elem()
	itemType := sliceValue.Type().Elem()

	var n int64
	for rows.Next() {
		item := reflect.New(itemType)
		if err := scanRow(rows, m, columns, item.Elem()); err != nil {
			return n, err
		}

		if h, ok := item.Interface().(AfterFinder); ok {
			if err := h.AfterFind(); err != nil {
				return n, err
			}
		}

		sliceValue.Set(reflect.Append(sliceValue, item.Elem()))
		n++
	}

	return n, rows.Err()
}

// scanRow scans the current row into dest, an addressable struct or a
// map[string]any keyed by field name. Unknown columns are discarded.
func scanRow(rows *sql.Rows, m *model.Model, columns []string, dest reflect.Value) error {
	for dest.Kind() == reflect.Ptr {
		if dest.IsNil() {
			dest.Set(reflect.New(dest.Type().Elem()))
		}
		dest = dest.Elem()
	}

	isMap := dest.Kind() == reflect.Map
	if isMap {
		if dest.Type().Key().Kind() != reflect.String || dest.Type().Elem().Kind() != reflect.Interface {
			return fmt.Errorf("%w: cannot scan into %s", ErrInvalidQuery, dest.Type())
		}
		if dest.IsNil() {
			dest.Set(reflect.MakeMap(dest.Type()))
		}
	} else if dest.Kind() != reflect.Struct {
		return fmt.Errorf("%w: cannot scan into %s", ErrInvalidQuery, dest.Type())
	}

	fields := make([]*model.Field, len(columns))
	values := make([]any, len(columns))
	for i, col := range columns {
		if field, ok := m.FieldMap[col]; ok {
			fields[i] = field
			values[i] = reflect.New(field.GoType).Interface()
		} else {
			var ignore any
			values[i] = &ignore
		}
	}

	if err := rows.Scan(values...); err != nil {
		return err
	}

	for i, field := range fields {
		if field == nil {
			continue
		}
		v := reflect.ValueOf(values[i]).Elem()
		if isMap {
			dest.SetMapIndex(reflect.ValueOf(field.Name).Convert(dest.Type().Key()), v)
			continue
		}
		if field.Index == nil {
			continue
		}
		fv, err := dest.FieldByIndexErr(field.Index)
		if err != nil {
			return err
		}
		fv.Set(v)
	}
	return nil
}

func isSlicePtr(dest any) bool {
	v := reflect.ValueOf(dest)
	return v.Kind() == reflect.Ptr && !v.IsNil() && v.Elem().Kind() == reflect.Slice
}

// Insert inserts value, a tagged struct or a query.Record. Auto-increment
// fields are left to the database unless set. It returns the last insert id,
// or the rows affected when the driver reports none.
func (q *Query) Insert(value any) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	defer q.release()
	m := q.model
	if m == nil {
		var err error
		if m, err = model.GetModel(value); err != nil {
			return 0, err
		}
	}

	if h, ok := value.(BeforeInserter); ok {
		if err := h.BeforeInsert(); err != nil {
			return 0, err
		}
	}

	var columns []string
	var args []any
	for _, field := range m.Fields {
		v, ok := fieldValue(m, value, field)
		if !ok {
			continue
		}
		if field.IsAuto && reflect.ValueOf(v).IsZero() {
			continue
		}
		columns = append(columns, field.Column)
		args = append(args, v)
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("%w: nothing to insert into %s", ErrInvalidQuery, m.TableName)
	}

	q.builder.SetTable(m.TableName)
	sqlStr, _ := q.builder.BuildInsert(columns)
	start := time.Now()
	res, err := q.executor.ExecContext(q.ctx, sqlStr, args...)
	q.logSQL(q.ctx, sqlStr, time.Since(start), args)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return res.RowsAffected()
	}

	if h, ok := value.(AfterInserter); ok {
		if err := h.AfterInsert(id); err != nil {
			return id, err
		}
	}
	return id, nil
}

func fieldValue(m *model.Model, value any, f *model.Field) (any, bool) {
	if r, ok := value.(query.Record); ok {
		v, ok := r.Value(f.Name)
		return v, ok && v != nil
	}
	return m.ValueOf(value, f)
}

// Delete deletes records matching the query.
func (q *Query) Delete() (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	defer q.release()

	sqlStr, args := q.builder.BuildDelete()
	start := time.Now()
	res, err := q.executor.ExecContext(q.ctx, sqlStr, args...)
	q.logSQL(q.ctx, sqlStr, time.Since(start), args)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
