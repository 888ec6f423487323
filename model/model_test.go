package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestUser struct {
	ID        int64  `jorm:"pk auto column:id"`
	UserName  string `jorm:"column:user_name size:100"`
	Email     string `jorm:"unique"`
	Age       int
	IgnoreMe  string `jorm:"-"`
	CreatedAt time.Time
}

type EmbeddedUser struct {
	TestUser
	ExtraInfo string
}

type Shipment struct {
	Carrier  string          `jorm:"pk;size:20"`
	Tracking uuid.UUID       `jorm:"pk"`
	Weight   decimal.Decimal `jorm:"column:weight_kg"`
}

func (Shipment) TableName() string { return "shipments" }

type NoKey struct {
	Name string
}

type BadType struct {
	ID   int `jorm:"pk"`
	Tags []string
}

func TestGetModel(t *testing.T) {
	t.Run("BasicModel", func(t *testing.T) {
		m, err := GetModel(&TestUser{})
		require.NoError(t, err)

		assert.Equal(t, "test_user", m.TableName)
		// IgnoreMe is skipped
		assert.Len(t, m.Fields, 5)

		pks := m.PrimaryKeys()
		require.Len(t, pks, 1)
		assert.Equal(t, "ID", pks[0].Name)
		assert.True(t, pks[0].IsAuto)
		assert.Equal(t, "id", pks[0].Column)
		assert.Equal(t, TypeInt64, pks[0].Type)

		assert.Contains(t, m.FieldMap, "user_name")
		assert.Contains(t, m.FieldMap, "email")
		assert.Equal(t, 100, m.FieldMap["user_name"].Size)
		assert.Equal(t, TypeTime, m.FieldMap["created_at"].Type)
	})

	t.Run("Cached", func(t *testing.T) {
		a, err := GetModel(&TestUser{})
		require.NoError(t, err)
		b, err := GetModel(TestUser{})
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("EmbeddedModel", func(t *testing.T) {
		m, err := GetModel(&EmbeddedUser{})
		require.NoError(t, err)
		assert.Equal(t, "embedded_user", m.TableName)
		assert.Len(t, m.Fields, 6)

		f, ok := m.Field("UserName")
		require.True(t, ok)
		u := EmbeddedUser{TestUser: TestUser{UserName: "amy"}}
		v, ok := m.ValueOf(&u, f)
		require.True(t, ok)
		assert.Equal(t, "amy", v)
	})

	t.Run("CompositeKey", func(t *testing.T) {
		m, err := GetModel([]Shipment{})
		require.NoError(t, err)
		assert.Equal(t, "shipments", m.TableName)

		pks := m.PrimaryKeys()
		require.Len(t, pks, 2)
		assert.Equal(t, "Carrier", pks[0].Name)
		assert.Equal(t, "Tracking", pks[1].Name)
		assert.Equal(t, TypeUUID, pks[1].Type)
		assert.Equal(t, TypeDecimal, m.FieldMap["weight_kg"].Type)
	})

	t.Run("NoPrimaryKey", func(t *testing.T) {
		_, err := GetModel(&NoKey{})
		assert.ErrorIs(t, err, ErrInvalidModel)
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		_, err := GetModel(&BadType{})
		assert.ErrorIs(t, err, ErrInvalidModel)
	})

	t.Run("NotStruct", func(t *testing.T) {
		_, err := GetModel(42)
		assert.Error(t, err)
		_, err = GetModel(nil)
		assert.Error(t, err)
	})
}

func TestNewModel(t *testing.T) {
	m, err := NewModel("customer",
		PK("RegionCode", TypeString),
		PK("LocalId", TypeInt),
		Col("Name", TypeString),
	)
	require.NoError(t, err)

	assert.Len(t, m.PrimaryKeys(), 2)
	f, ok := m.Field("LocalId")
	require.True(t, ok)
	assert.Equal(t, "local_id", f.Column)
	assert.Nil(t, f.Index)

	_, ok = m.ValueOf(struct{}{}, f)
	assert.False(t, ok)

	_, err = NewModel("dup", PK("A", TypeInt), Col("A", TypeInt))
	assert.ErrorIs(t, err, ErrInvalidModel)

	_, err = NewModel("nokey", Col("A", TypeInt))
	assert.ErrorIs(t, err, ErrInvalidModel)

	_, err = NewModel("", PK("A", TypeInt))
	assert.ErrorIs(t, err, ErrInvalidModel)

	assert.Panics(t, func() { MustModel("nokey", Col("A", TypeInt)) })
}

func TestParseTag(t *testing.T) {
	tag := ParseTag("column:user_id;pk,auto size:20 notnull default:0 type:int64")
	assert.Equal(t, "user_id", tag.Column)
	assert.True(t, tag.PrimaryKey)
	assert.True(t, tag.AutoInc)
	assert.True(t, tag.NotNull)
	assert.Equal(t, 20, tag.Size)
	assert.Equal(t, "0", tag.Default)
	assert.Equal(t, "int64", tag.Type)

	assert.Equal(t, &Tag{}, ParseTag(""))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	m := MustModel("customer", PK("Id", TypeInt))

	require.NoError(t, r.Register(m))
	assert.ErrorIs(t, r.Register(m), ErrInvalidModel)
	assert.ErrorIs(t, r.Register(nil), ErrInvalidModel)

	got, err := r.Lookup("customer")
	require.NoError(t, err)
	assert.Same(t, m, got)

	_, err = r.Lookup("Customer")
	assert.ErrorIs(t, err, ErrModelNotFound)

	r.MustRegister(MustModel("account", PK("No", TypeString)))
	assert.Equal(t, []string{"account", "customer"}, r.Names())

	var _ Provider = r
}

func TestCamelToSnake(t *testing.T) {
	cases := map[string]string{
		"ID":         "id",
		"UserName":   "user_name",
		"HTTPServer": "http_server",
		"LocalId":    "local_id",
		"already":    "already",
	}
	for in, want := range cases {
		assert.Equal(t, want, camelToSnake(in), in)
	}
}
