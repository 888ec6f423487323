package model

import (
	"reflect"
)

// Field describes one persistent field of an entity.
type Field struct {
	Name   string       // Field name, unique within the entity
	Column string       // DB column name
	Type   FieldType    // Declared value type
	GoType reflect.Type // Go type of the struct field, or Type.GoType() for descriptor-only fields
	Index  []int        // Struct field index path, nil when not backed by a struct
	IsPK   bool         // Is primary key
	IsAuto bool         // Is auto-increment
	Size   int          // Column size hint for string columns
	Tag    string       // Raw tag string
}

// PK declares a primary-key field for use with NewModel.
func PK(name string, typ FieldType) Field {
	return Field{Name: name, Type: typ, IsPK: true}
}

// Col declares a non-key field for use with NewModel.
func Col(name string, typ FieldType) Field {
	return Field{Name: name, Type: typ}
}
