package model

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrUnconvertible is returned when a value cannot be converted to a FieldType.
var ErrUnconvertible = errors.New("value cannot be converted")

// TimeLayouts are tried in order when converting strings to TypeTime.
var TimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type converter func(raw any) (any, error)

var converters = map[FieldType]converter{
	TypeBool:    toBool,
	TypeInt:     func(raw any) (any, error) { n, err := toInt(raw, strconv.IntSize); return int(n), err },
	TypeInt32:   func(raw any) (any, error) { n, err := toInt(raw, 32); return int32(n), err },
	TypeInt64:   func(raw any) (any, error) { return toInt(raw, 64) },
	TypeUint:    func(raw any) (any, error) { n, err := toUint(raw, strconv.IntSize); return uint(n), err },
	TypeUint32:  func(raw any) (any, error) { n, err := toUint(raw, 32); return uint32(n), err },
	TypeUint64:  func(raw any) (any, error) { return toUint(raw, 64) },
	TypeFloat32: func(raw any) (any, error) { f, err := toFloat(raw, 32); return float32(f), err },
	TypeFloat64: func(raw any) (any, error) { return toFloat(raw, 64) },
	TypeString:  toString,
	TypeTime:    toTime,
	TypeUUID:    toUUID,
	TypeDecimal: toDecimal,
}

// Convert converts raw to the Go type of t. Pointers are dereferenced; nil
// never converts.
func Convert(raw any, t FieldType) (any, error) {
	conv, ok := converters[t]
	if !ok {
		return nil, fmt.Errorf("%w: no conversion to %s", ErrUnconvertible, t)
	}

	rv := reflect.ValueOf(raw)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv = reflect.Value{}
			break
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: nil to %s", ErrUnconvertible, t)
	}

	v, err := conv(rv.Interface())
	if err != nil {
		return nil, err
	}
	return v, nil
}

func unconvertible(raw any, t FieldType) error {
	return fmt.Errorf("%w: %T(%v) to %s", ErrUnconvertible, raw, raw, t)
}

func toBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, unconvertible(raw, TypeBool)
		}
		return b, nil
	}
	rv := reflect.ValueOf(raw)
	switch {
	case rv.CanInt():
		return rv.Int() != 0, nil
	case rv.CanUint():
		return rv.Uint() != 0, nil
	}
	return nil, unconvertible(raw, TypeBool)
}

func intType(bits int) FieldType {
	switch bits {
	case 32:
		return TypeInt32
	case 64:
		if strconv.IntSize == 64 {
			return TypeInt64
		}
	}
	return TypeInt
}

func toInt(raw any, bits int) (int64, error) {
	target := intType(bits)
	lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
	if bits == 64 {
		lo, hi = math.MinInt64, math.MaxInt64
	}

	var n int64
	switch v := raw.(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, bits)
		if err != nil {
			return 0, unconvertible(raw, target)
		}
		return parsed, nil
	case decimal.Decimal:
		if !v.IsInteger() || v.GreaterThan(decimal.NewFromInt(hi)) || v.LessThan(decimal.NewFromInt(lo)) {
			return 0, unconvertible(raw, target)
		}
		return v.IntPart(), nil
	}

	rv := reflect.ValueOf(raw)
	switch {
	case rv.CanInt():
		n = rv.Int()
	case rv.CanUint():
		u := rv.Uint()
		if u > uint64(hi) {
			return 0, unconvertible(raw, target)
		}
		n = int64(u)
	case rv.CanFloat():
		f := rv.Float()
		if f != math.Trunc(f) || f < float64(lo) || f >= -float64(lo) {
			return 0, unconvertible(raw, target)
		}
		n = int64(f)
	default:
		return 0, unconvertible(raw, target)
	}
	if n < lo || n > hi {
		return 0, unconvertible(raw, target)
	}
	return n, nil
}

func uintType(bits int) FieldType {
	switch bits {
	case 32:
		return TypeUint32
	case 64:
		if strconv.IntSize == 64 {
			return TypeUint64
		}
	}
	return TypeUint
}

func toUint(raw any, bits int) (uint64, error) {
	target := uintType(bits)
	hi := uint64(math.MaxUint64)
	if bits < 64 {
		hi = uint64(1)<<bits - 1
	}

	var n uint64
	switch v := raw.(type) {
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, bits)
		if err != nil {
			return 0, unconvertible(raw, target)
		}
		return parsed, nil
	case decimal.Decimal:
		if !v.IsInteger() || v.IsNegative() || v.BigInt().Cmp(new(big.Int).SetUint64(hi)) > 0 {
			return 0, unconvertible(raw, target)
		}
		return v.BigInt().Uint64(), nil
	}

	rv := reflect.ValueOf(raw)
	switch {
	case rv.CanUint():
		n = rv.Uint()
	case rv.CanInt():
		i := rv.Int()
		if i < 0 {
			return 0, unconvertible(raw, target)
		}
		n = uint64(i)
	case rv.CanFloat():
		f := rv.Float()
		if f != math.Trunc(f) || f < 0 || f >= float64(hi)+1 {
			return 0, unconvertible(raw, target)
		}
		n = uint64(f)
	default:
		return 0, unconvertible(raw, target)
	}
	if n > hi {
		return 0, unconvertible(raw, target)
	}
	return n, nil
}

func toFloat(raw any, bits int) (float64, error) {
	target := TypeFloat64
	if bits == 32 {
		target = TypeFloat32
	}

	var f float64
	switch v := raw.(type) {
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), bits)
		if err != nil {
			return 0, unconvertible(raw, target)
		}
		return parsed, nil
	case decimal.Decimal:
		f, _ = v.Float64()
	default:
		rv := reflect.ValueOf(raw)
		switch {
		case rv.CanFloat():
			f = rv.Float()
		case rv.CanInt():
			f = float64(rv.Int())
		case rv.CanUint():
			f = float64(rv.Uint())
		default:
			return 0, unconvertible(raw, target)
		}
	}
	if bits == 32 && math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
		return 0, unconvertible(raw, target)
	}
	return f, nil
}

func toString(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(raw), nil
	}
	return nil, unconvertible(raw, TypeString)
}

func toTime(raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range TimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return nil, unconvertible(raw, TypeTime)
}

func toUUID(raw any) (any, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case [16]byte:
		return uuid.UUID(v), nil
	case string:
		id, err := uuid.Parse(strings.TrimSpace(v))
		if err != nil {
			return nil, unconvertible(raw, TypeUUID)
		}
		return id, nil
	case []byte:
		if len(v) == 16 {
			id, err := uuid.FromBytes(v)
			if err == nil {
				return id, nil
			}
		}
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return nil, unconvertible(raw, TypeUUID)
		}
		return id, nil
	}
	return nil, unconvertible(raw, TypeUUID)
}

func toDecimal(raw any) (any, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, unconvertible(raw, TypeDecimal)
		}
		return d, nil
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, unconvertible(raw, TypeDecimal)
		}
		return decimal.NewFromFloat32(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, unconvertible(raw, TypeDecimal)
		}
		return decimal.NewFromFloat(v), nil
	}
	rv := reflect.ValueOf(raw)
	switch {
	case rv.CanInt():
		return decimal.NewFromInt(rv.Int()), nil
	case rv.CanUint():
		return decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0), nil
	}
	return nil, unconvertible(raw, TypeDecimal)
}
