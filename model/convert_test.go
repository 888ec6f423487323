package model

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	n := 7

	cases := []struct {
		name string
		raw  any
		typ  FieldType
		want any
	}{
		{"StringToInt", "5", TypeInt, 5},
		{"PaddedStringToInt", " 42 ", TypeInt, 42},
		{"Int64ToInt", int64(9), TypeInt, 9},
		{"PointerToInt", &n, TypeInt, 7},
		{"IntegralFloatToInt32", 3.0, TypeInt32, int32(3)},
		{"UintToInt64", uint8(200), TypeInt64, int64(200)},
		{"DecimalToInt64", decimal.NewFromInt(12), TypeInt64, int64(12)},
		{"StringToUint", "12", TypeUint, uint(12)},
		{"IntToUint32", 12, TypeUint32, uint32(12)},
		{"StringToUint64", "18446744073709551615", TypeUint64, uint64(math.MaxUint64)},
		{"StringToFloat64", "2.5", TypeFloat64, 2.5},
		{"IntToFloat32", 2, TypeFloat32, float32(2)},
		{"StringToBool", "true", TypeBool, true},
		{"IntToBool", 0, TypeBool, false},
		{"IntToString", 5, TypeString, "5"},
		{"BytesToString", []byte("EU"), TypeString, "EU"},
		{"StringerToString", id, TypeString, id.String()},
		{"StringToUUID", id.String(), TypeUUID, id},
		{"ArrayToUUID", [16]byte(id), TypeUUID, id},
		{"BytesToUUID", id[:], TypeUUID, id},
		{"StringToTimeDate", "2026-01-15", TypeTime, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"StringToTimeSQL", "2026-01-15 16:08:38", TypeTime, time.Date(2026, 1, 15, 16, 8, 38, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Convert(tc.raw, tc.typ)
			require.NoError(t, err)
			if want, ok := tc.want.(time.Time); ok {
				assert.True(t, want.Equal(got.(time.Time)), "got %v", got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConvertDecimal(t *testing.T) {
	for _, raw := range []any{"1.25", 1.25, float32(1.25), decimal.RequireFromString("1.25")} {
		got, err := Convert(raw, TypeDecimal)
		require.NoError(t, err, "%T", raw)
		assert.True(t, decimal.RequireFromString("1.25").Equal(got.(decimal.Decimal)), "%T", raw)
	}

	got, err := Convert(uint64(math.MaxUint64), TypeDecimal)
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", got.(decimal.Decimal).String())
}

func TestConvertFailures(t *testing.T) {
	var nilPtr *int

	cases := []struct {
		name string
		raw  any
		typ  FieldType
	}{
		{"NotANumber", "abc", TypeInt},
		{"Nil", nil, TypeInt},
		{"NilPointer", nilPtr, TypeString},
		{"FractionalFloat", 1.5, TypeInt},
		{"Int32Overflow", int64(math.MaxInt32) + 1, TypeInt32},
		{"Int32StringOverflow", "2147483648", TypeInt32},
		{"NegativeUint", -1, TypeUint},
		{"Uint32Overflow", uint64(math.MaxUint32) + 1, TypeUint32},
		{"BoolFromWord", "yes please", TypeBool},
		{"BadUUID", "not-a-uuid", TypeUUID},
		{"BadTime", "yesterday", TypeTime},
		{"BadDecimal", "1.2.3", TypeDecimal},
		{"NaNDecimal", math.NaN(), TypeDecimal},
		{"NaNFloat32Decimal", float32(math.NaN()), TypeDecimal},
		{"InfFloat32Decimal", float32(math.Inf(1)), TypeDecimal},
		{"StructToString", struct{}{}, TypeString},
		{"InvalidType", 1, TypeInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Convert(tc.raw, tc.typ)
			assert.ErrorIs(t, err, ErrUnconvertible)
		})
	}
}

func TestFieldTypeRoundTrip(t *testing.T) {
	for typ := TypeBool; typ <= TypeDecimal; typ++ {
		parsed, ok := ParseFieldType(typ.String())
		require.True(t, ok, typ.String())
		assert.Equal(t, typ, parsed)
		assert.Equal(t, typ, FieldTypeOf(typ.GoType()), typ.String())
	}
	_, ok := ParseFieldType("invalid")
	assert.False(t, ok)
}
