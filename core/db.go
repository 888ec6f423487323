package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shrek82/keyquery/dialect"
	"github.com/shrek82/keyquery/logger"
	"github.com/shrek82/keyquery/model"
	"github.com/shrek82/keyquery/pool"
)

// Options defines the configuration for the DB connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// Logger receives every statement. Defaults to logger.NewStdLogger().
	Logger logger.Logger
}

// DB is the main entry point.
// It manages the database connection pool and provides methods to create queries.
type DB struct {
	pool    pool.Pool
	dialect dialect.Dialect
	logger  logger.Logger

	mu          sync.RWMutex
	middlewares []QueryMiddleware
}

// Open initializes a new DB instance with the given driver and DSN.
func Open(driver, dsn string, opts *Options) (*DB, error) {
	d, ok := dialect.Get(driver)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	p := pool.NewStdPool(sqlDB)
	l := logger.NewStdLogger()
	if opts != nil {
		pool.Configure(p, opts.MaxOpenConns, opts.MaxIdleConns, opts.ConnMaxLifetime)
		if opts.Logger != nil {
			l = opts.Logger
		}
	}

	if err := p.PingContext(context.Background()); err != nil {
		_ = p.Close()
		return nil, err
	}

	return &DB{
		pool:    p,
		dialect: d,
		logger:  l,
	}, nil
}

// Close shuts down the middleware in reverse registration order and closes
// the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	mws := db.middlewares
	db.middlewares = nil
	db.mu.Unlock()

	var errs []error
	for i := len(mws) - 1; i >= 0; i-- {
		if err := mws[i].Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", mws[i].Name(), err))
		}
	}
	errs = append(errs, db.pool.Close())
	return errors.Join(errs...)
}

// SetLogger sets a custom logger for the DB.
func (db *DB) SetLogger(l logger.Logger) {
	db.logger = l
}

// Logger returns the logger statements are written to.
func (db *DB) Logger() logger.Logger {
	return db.logger
}

// Dialect returns the SQL dialect of the connection.
func (db *DB) Dialect() dialect.Dialect {
	return db.dialect
}

// Use initializes and registers query middleware. Middleware registered
// first runs outermost.
func (db *DB) Use(mws ...QueryMiddleware) error {
	for _, mw := range mws {
		if err := mw.Init(db); err != nil {
			return fmt.Errorf("init %s: %w", mw.Name(), err)
		}
		db.mu.Lock()
		db.middlewares = append(db.middlewares, mw)
		db.mu.Unlock()
	}
	return nil
}

func (db *DB) newQuery(exec Executor) *Query {
	return NewQuery(db, exec, NewBuilder(db.dialect))
}

// Model starts a new query builder for the given model instance.
// value may also be a *model.Model descriptor table.
func (db *DB) Model(value any) *Query {
	return db.newQuery(db.pool).Model(value)
}

// Table starts a new query builder for the given table name.
func (db *DB) Table(name string) *Query {
	return db.newQuery(db.pool).Table(name)
}

// Raw starts a new query with a raw SQL statement.
func (db *DB) Raw(sql string, args ...any) *Query {
	return db.newQuery(db.pool).Raw(sql, args...)
}

// logSQL logs the SQL execution if a logger is set.
func (db *DB) logSQL(sql string, duration time.Duration, args ...any) {
	if db.logger != nil {
		db.logger.SQL(sql, duration, args...)
	}
}

// Exec executes a raw SQL statement without returning any rows.
func (db *DB) Exec(sql string, args ...any) (sql.Result, error) {
	if sql == "" {
		return nil, ErrInvalidSQL
	}
	start := time.Now()
	res, err := db.pool.ExecContext(context.Background(), sql, args...)
	db.logSQL(sql, time.Since(start), args...)
	return res, err
}

// Transaction executes fn within a database transaction. The transaction is
// committed when fn returns nil and rolled back on error or panic.
func (db *DB) Transaction(fn func(tx *Tx) error) error {
	return db.TransactionContext(context.Background(), nil, fn)
}

// TransactionContext is Transaction bound to ctx and opts. Queries started
// from the Tx run with ctx unless they set their own.
func (db *DB) TransactionContext(ctx context.Context, opts *sql.TxOptions, fn func(tx *Tx) error) (err error) {
	start := time.Now()
	sqlTx, err := db.pool.BeginTx(ctx, opts)
	db.logSQL("BEGIN", time.Since(start))
	if err != nil {
		return err
	}

	tx := &Tx{
		db:    db,
		sqlTx: sqlTx,
		ctx:   ctx,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.finish("ROLLBACK", sqlTx.Rollback)
			panic(p)
		} else if err != nil {
			tx.finish("ROLLBACK", sqlTx.Rollback)
		} else {
			err = tx.finish("COMMIT", sqlTx.Commit)
		}
	}()

	err = fn(tx)
	return err
}

// AutoMigrate creates the table for each value if it doesn't exist. Values
// are tagged structs or *model.Model descriptor tables.
func (db *DB) AutoMigrate(values ...any) error {
	for _, value := range values {
		m, err := modelOf(value)
		if err != nil {
			return err
		}

		sqlStr, args := db.dialect.HasTableSQL(m.TableName)
		var count int
		if err := db.pool.QueryRowContext(context.Background(), sqlStr, args...).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		createSQL, createArgs := db.dialect.CreateTableSQL(m)
		start := time.Now()
		_, err = db.pool.ExecContext(context.Background(), createSQL, createArgs...)
		db.logSQL(createSQL, time.Since(start), createArgs...)
		if err != nil {
			return fmt.Errorf("create table %s: %w", m.TableName, err)
		}
	}
	return nil
}

func modelOf(value any) (*model.Model, error) {
	if m, ok := value.(*model.Model); ok {
		if m == nil {
			return nil, fmt.Errorf("%w: nil model", model.ErrInvalidModel)
		}
		return m, nil
	}
	return model.GetModel(value)
}

// Stats returns connection pool statistics.
func (db *DB) Stats() sql.DBStats {
	return db.pool.Stats()
}
