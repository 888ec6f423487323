package model

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FieldType is the semantic value type of a field. Each FieldType maps to
// exactly one Go type, which is the type Convert produces for it.
type FieldType int

const (
	TypeInvalid FieldType = iota
	TypeBool
	TypeInt
	TypeInt32
	TypeInt64
	TypeUint
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeTime
	TypeUUID
	TypeDecimal
)

var fieldTypeNames = map[FieldType]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeUint:    "uint",
	TypeUint32:  "uint32",
	TypeUint64:  "uint64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
	TypeString:  "string",
	TypeTime:    "time",
	TypeUUID:    "uuid",
	TypeDecimal: "decimal",
}

func (t FieldType) String() string {
	if s, ok := fieldTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseFieldType maps a "type:" tag value to a FieldType.
func ParseFieldType(s string) (FieldType, bool) {
	for t, name := range fieldTypeNames {
		if t != TypeInvalid && name == s {
			return t, true
		}
	}
	return TypeInvalid, false
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// FieldTypeOf returns the FieldType for a Go type, or TypeInvalid when the
// type has no mapping.
func FieldTypeOf(typ reflect.Type) FieldType {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	switch typ {
	case timeType:
		return TypeTime
	case uuidType:
		return TypeUUID
	case decimalType:
		return TypeDecimal
	}

	switch typ.Kind() {
	case reflect.Bool:
		return TypeBool
	case reflect.Int:
		return TypeInt
	case reflect.Int32:
		return TypeInt32
	case reflect.Int64:
		return TypeInt64
	case reflect.Uint:
		return TypeUint
	case reflect.Uint32:
		return TypeUint32
	case reflect.Uint64:
		return TypeUint64
	case reflect.Float32:
		return TypeFloat32
	case reflect.Float64:
		return TypeFloat64
	case reflect.String:
		return TypeString
	}
	return TypeInvalid
}

// GoType returns the Go type values of t are converted to.
func (t FieldType) GoType() reflect.Type {
	switch t {
	case TypeBool:
		return reflect.TypeOf(false)
	case TypeInt:
		return reflect.TypeOf(0)
	case TypeInt32:
		return reflect.TypeOf(int32(0))
	case TypeInt64:
		return reflect.TypeOf(int64(0))
	case TypeUint:
		return reflect.TypeOf(uint(0))
	case TypeUint32:
		return reflect.TypeOf(uint32(0))
	case TypeUint64:
		return reflect.TypeOf(uint64(0))
	case TypeFloat32:
		return reflect.TypeOf(float32(0))
	case TypeFloat64:
		return reflect.TypeOf(float64(0))
	case TypeString:
		return reflect.TypeOf("")
	case TypeTime:
		return timeType
	case TypeUUID:
		return uuidType
	case TypeDecimal:
		return decimalType
	}
	return nil
}
