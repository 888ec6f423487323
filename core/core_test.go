package core

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrek82/keyquery/logger"
	"github.com/shrek82/keyquery/model"
	"github.com/shrek82/keyquery/query"
)

type Customer struct {
	Id   int `jorm:"pk"`
	Name string
}

type RegionalCustomer struct {
	RegionCode string `jorm:"pk"`
	LocalId    int    `jorm:"pk"`
	Name       string
}

type Shipment struct {
	ID        uuid.UUID       `jorm:"pk"`
	Weight    decimal.Decimal `jorm:"column:weight_kg"`
	ShippedAt time.Time
	Express   bool
}

type Counter struct {
	ID   int64 `jorm:"pk auto"`
	Hits int

	found int
}

func (c *Counter) AfterFind() error {
	c.found++
	return nil
}

func newTestDB(t *testing.T) (*DB, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	l := logger.NewStdLogger()
	l.SetOutput(buf)

	// a single connection keeps every statement on the same :memory: database
	db, err := Open("sqlite3", ":memory:", &Options{MaxOpenConns: 1, Logger: l})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, buf
}

func seedCustomers(t *testing.T, db *DB) {
	t.Helper()
	require.NoError(t, db.AutoMigrate(&Customer{}, &RegionalCustomer{}))
	for _, c := range []*Customer{{Id: 41, Name: "Zed"}, {Id: 42, Name: "Ann"}} {
		_, err := db.Model(c).Insert(c)
		require.NoError(t, err)
	}
	for _, c := range []*RegionalCustomer{
		{RegionCode: "EU", LocalId: 1, Name: "Ann"},
		{RegionCode: "EU", LocalId: 9, Name: "Bo"},
		{RegionCode: "US", LocalId: 1, Name: "Cy"},
		{RegionCode: "US", LocalId: 9, Name: "Di"},
	} {
		_, err := db.Model(c).Insert(c)
		require.NoError(t, err)
	}
}

func TestOpen(t *testing.T) {
	t.Run("UnknownDialect", func(t *testing.T) {
		_, err := Open("oracle", "", nil)
		assert.ErrorIs(t, err, ErrUnknownDialect)
	})

	t.Run("DefaultLogger", func(t *testing.T) {
		db, err := Open("sqlite3", ":memory:", nil)
		require.NoError(t, err)
		defer db.Close()
		assert.NotNil(t, db.Logger())
		assert.Equal(t, "sqlite3", db.Dialect().Name())
	})
}

func TestAutoMigrate(t *testing.T) {
	db, buf := newTestDB(t)

	require.NoError(t, db.AutoMigrate(&RegionalCustomer{}))
	assert.Contains(t, buf.String(), "PRIMARY KEY (`region_code`, `local_id`)")

	// second run finds the table and creates nothing
	buf.Reset()
	require.NoError(t, db.AutoMigrate(&RegionalCustomer{}))
	assert.NotContains(t, buf.String(), "CREATE TABLE")

	t.Run("DescriptorTable", func(t *testing.T) {
		m := model.MustModel("audit_entry", model.PK("Seq", model.TypeInt64), model.Col("Message", model.TypeString))
		require.NoError(t, db.AutoMigrate(m))
		n, err := db.Model(m).Count()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("InvalidModel", func(t *testing.T) {
		type NoKey struct{ Name string }
		assert.ErrorIs(t, db.AutoMigrate(&NoKey{}), model.ErrInvalidModel)
	})
}

func TestQuery(t *testing.T) {
	db, buf := newTestDB(t)
	seedCustomers(t, db)

	t.Run("First", func(t *testing.T) {
		var c Customer
		require.NoError(t, db.Model(&Customer{}).Where("id = ?", 42).First(&c))
		assert.Equal(t, Customer{Id: 42, Name: "Ann"}, c)
	})

	t.Run("FirstNotFound", func(t *testing.T) {
		var c Customer
		err := db.Model(&Customer{}).Where("id = ?", 7).First(&c)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("FindOrdered", func(t *testing.T) {
		var rows []RegionalCustomer
		require.NoError(t, db.Model(&RegionalCustomer{}).Where("local_id = ?", 9).OrderBy("region_code DESC").Find(&rows))
		require.Len(t, rows, 2)
		assert.Equal(t, "Di", rows[0].Name)
		assert.Equal(t, "Bo", rows[1].Name)
	})

	t.Run("LimitOffset", func(t *testing.T) {
		var rows []RegionalCustomer
		require.NoError(t, db.Model(&RegionalCustomer{}).OrderBy("name").Limit(2).Offset(1).Find(&rows))
		require.Len(t, rows, 2)
		assert.Equal(t, "Bo", rows[0].Name)
		assert.Equal(t, "Cy", rows[1].Name)
	})

	t.Run("WherePredicate", func(t *testing.T) {
		p := query.OrAny(
			query.AndAll(
				query.Equals{Field: "RegionCode", Column: "region_code", Value: "EU"},
				query.Equals{Field: "LocalId", Column: "local_id", Value: 1},
			),
			query.AndAll(
				query.Equals{Field: "RegionCode", Column: "region_code", Value: "US"},
				query.Equals{Field: "LocalId", Column: "local_id", Value: 9},
			),
		)
		buf.Reset()
		var rows []RegionalCustomer
		require.NoError(t, db.Model(&RegionalCustomer{}).WherePredicate(p).Find(&rows))
		assert.ElementsMatch(t, []string{"Ann", "Di"}, names(rows))
		assert.Contains(t, buf.String(), "WHERE (((`region_code` = ? AND `local_id` = ?) OR (`region_code` = ? AND `local_id` = ?)))")
	})

	t.Run("WherePredicateConstants", func(t *testing.T) {
		n, err := db.Model(&Customer{}).WherePredicate(query.False).Count()
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = db.Model(&Customer{}).WherePredicate(query.True).Count()
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		n, err = db.Model(&Customer{}).WherePredicate(nil).Count()
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})

	t.Run("FindNeedsSlice", func(t *testing.T) {
		var c Customer
		assert.ErrorIs(t, db.Model(&Customer{}).Find(&c), ErrInvalidQuery)
	})

	t.Run("RunsOnce", func(t *testing.T) {
		q := db.Model(&Customer{})
		_, err := q.Count()
		require.NoError(t, err)
		_, err = q.Count()
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("Raw", func(t *testing.T) {
		var rows []Customer
		require.NoError(t, db.Raw("SELECT id, name FROM customer WHERE name = ?", "Zed").Scan(&rows))
		assert.Equal(t, []Customer{{Id: 41, Name: "Zed"}}, rows)

		assert.ErrorIs(t, db.Raw("").Scan(&rows), ErrInvalidSQL)
	})

	t.Run("Delete", func(t *testing.T) {
		_, err := db.Model(&Customer{Id: 99}).Insert(&Customer{Id: 99, Name: "Tmp"})
		require.NoError(t, err)
		n, err := db.Model(&Customer{}).WherePredicate(query.Equals{Field: "Id", Column: "id", Value: 99}).Delete()
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})
}

func TestInsert(t *testing.T) {
	db, _ := newTestDB(t)

	t.Run("AutoIncrementAndHooks", func(t *testing.T) {
		require.NoError(t, db.AutoMigrate(&Counter{}))
		id, err := db.Model(&Counter{}).Insert(&Counter{Hits: 3})
		require.NoError(t, err)
		assert.EqualValues(t, 1, id)

		var rows []Counter
		require.NoError(t, db.Model(&Counter{}).Find(&rows))
		require.Len(t, rows, 1)
		assert.Equal(t, int64(1), rows[0].ID)
		assert.Equal(t, 1, rows[0].found)
	})

	t.Run("TypedColumns", func(t *testing.T) {
		require.NoError(t, db.AutoMigrate(&Shipment{}))
		in := Shipment{
			ID:        uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
			Weight:    decimal.RequireFromString("12.50"),
			ShippedAt: time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC),
			Express:   true,
		}
		_, err := db.Model(&in).Insert(&in)
		require.NoError(t, err)

		var out Shipment
		require.NoError(t, db.Model(&Shipment{}).WherePredicate(query.Equals{Field: "ID", Column: "id", Value: in.ID}).First(&out))
		assert.Equal(t, in.ID, out.ID)
		assert.True(t, in.Weight.Equal(out.Weight))
		assert.True(t, in.ShippedAt.Equal(out.ShippedAt))
		assert.True(t, out.Express)
	})

	t.Run("Record", func(t *testing.T) {
		m := model.MustModel("note", model.PK("Key", model.TypeString), model.Col("Body", model.TypeString))
		require.NoError(t, db.AutoMigrate(m))
		_, err := db.Model(m).Insert(query.Map{"Key": "a", "Body": "hello"})
		require.NoError(t, err)

		var rows []query.Map
		require.NoError(t, db.Model(m).Find(&rows))
		assert.Equal(t, []query.Map{{"Key": "a", "Body": "hello"}}, rows)
	})
}

func TestTransaction(t *testing.T) {
	db, buf := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&Customer{}))

	t.Run("Commit", func(t *testing.T) {
		err := db.Transaction(func(tx *Tx) error {
			_, err := tx.Model(&Customer{}).Insert(&Customer{Id: 1, Name: "Ann"})
			return err
		})
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "COMMIT")
	})

	t.Run("Rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.Transaction(func(tx *Tx) error {
			if _, err := tx.Model(&Customer{}).Insert(&Customer{Id: 2, Name: "Bo"}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, buf.String(), "ROLLBACK")
	})

	t.Run("PanicRollsBack", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = db.Transaction(func(tx *Tx) error {
				_, _ = tx.Model(&Customer{}).Insert(&Customer{Id: 3, Name: "Cy"})
				panic("boom")
			})
		})
	})

	t.Run("ExplicitCommit", func(t *testing.T) {
		err := db.Transaction(func(tx *Tx) error {
			if _, err := tx.Model(&Customer{}).Insert(&Customer{Id: 4, Name: "Di"}); err != nil {
				return err
			}
			return tx.Commit()
		})
		require.NoError(t, err)
	})

	n, err := db.Model(&Customer{}).Count()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

type txKey struct{}

func TestTransactionContext(t *testing.T) {
	db, _ := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&Customer{}))

	t.Run("QueriesInheritContext", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), txKey{}, "tx-1")
		err := db.TransactionContext(ctx, nil, func(tx *Tx) error {
			assert.Equal(t, "tx-1", tx.Context().Value(txKey{}))
			_, err := tx.Model(&Customer{}).Insert(&Customer{Id: 1, Name: "Ann"})
			return err
		})
		require.NoError(t, err)

		var c Customer
		require.NoError(t, db.Model(&Customer{}).Where("id = ?", 1).First(&c))
		assert.Equal(t, "Ann", c.Name)
	})

	t.Run("CanceledBeforeBegin", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		err := db.TransactionContext(ctx, nil, func(tx *Tx) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}

func TestExec(t *testing.T) {
	db, _ := newTestDB(t)
	_, err := db.Exec("")
	assert.ErrorIs(t, err, ErrInvalidSQL)

	_, err = db.Exec("CREATE TABLE t (id integer)")
	require.NoError(t, err)
}

type recordingMiddleware struct {
	name    string
	calls   *[]string
	inited  bool
	stopped bool
}

func (m *recordingMiddleware) Name() string { return m.name }
func (m *recordingMiddleware) Init(*DB) error {
	m.inited = true
	return nil
}
func (m *recordingMiddleware) Shutdown() error {
	m.stopped = true
	return nil
}
func (m *recordingMiddleware) Process(ctx context.Context, q *Query, next QueryFunc) (*Result, error) {
	*m.calls = append(*m.calls, m.name+":"+q.TableName())
	return next(ctx, q)
}

func TestMiddlewareChain(t *testing.T) {
	db, _ := newTestDB(t)
	seedCustomers(t, db)

	var calls []string
	outer := &recordingMiddleware{name: "outer", calls: &calls}
	inner := &recordingMiddleware{name: "inner", calls: &calls}
	require.NoError(t, db.Use(outer, inner))
	assert.True(t, outer.inited)

	var rows []Customer
	require.NoError(t, db.Model(&Customer{}).Find(&rows))
	assert.Equal(t, []string{"outer:customer", "inner:customer"}, calls)

	require.NoError(t, db.Close())
	assert.True(t, outer.stopped)
	assert.True(t, inner.stopped)
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	_, ok := CacheTTL(ctx)
	assert.False(t, ok)

	ctx = WithCacheTTL(ctx, time.Minute)
	d, ok := CacheTTL(ctx)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, d)

	ctx = WithFields(ctx, map[string]any{"request_id": "r1"})
	ctx = WithFields(ctx, map[string]any{"user_ip": "10.0.0.1"})
	assert.Equal(t, map[string]any{"request_id": "r1", "user_ip": "10.0.0.1"}, FieldsFromContext(ctx))
}

func TestFieldsReachLogger(t *testing.T) {
	db, buf := newTestDB(t)
	seedCustomers(t, db)
	buf.Reset()

	ctx := WithFields(context.Background(), map[string]any{"request_id": "r1"})
	var rows []Customer
	require.NoError(t, db.Model(&Customer{}).WithContext(ctx).Find(&rows))
	assert.Contains(t, buf.String(), "request_id=r1")
}

func names(rows []RegionalCustomer) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}
