package model

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unicode"
)

var (
	// ErrModelNotFound is returned when no metadata is registered for an entity name.
	ErrModelNotFound = errors.New("model not found")
	// ErrInvalidModel is returned when a model definition is invalid (e.g., missing primary key).
	ErrInvalidModel = errors.New("invalid model")
)

// Model represents table metadata
type Model struct {
	TableName string
	Fields    []*Field
	FieldMap  map[string]*Field // keyed by column
	Type      reflect.Type      // struct type, nil for descriptor-only models

	byName map[string]*Field
	pks    []*Field
}

// Tabler lets a struct override its table name.
type Tabler interface {
	TableName() string
}

var modelCache sync.Map

// NewModel builds a statically declared descriptor table. Columns default to
// the snake_case form of the field name.
func NewModel(table string, fields ...Field) (*Model, error) {
	if table == "" {
		return nil, fmt.Errorf("%w: table name is empty", ErrInvalidModel)
	}
	m := newModel(table)
	for i := range fields {
		f := fields[i]
		if f.Column == "" {
			f.Column = camelToSnake(f.Name)
		}
		if err := m.add(&f); err != nil {
			return nil, err
		}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// MustModel is like NewModel but panics on error. Intended for package-level
// descriptor tables.
func MustModel(table string, fields ...Field) *Model {
	m, err := NewModel(table, fields...)
	if err != nil {
		panic(err)
	}
	return m
}

// GetModel returns the model metadata for a given value
func GetModel(value any) (*Model, error) {
	if value == nil {
		return nil, fmt.Errorf("value is nil")
	}

	typ := reflect.TypeOf(value)
	for typ.Kind() == reflect.Ptr || typ.Kind() == reflect.Slice {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("value must be a struct or pointer to struct, got %s", typ.Kind())
	}

	if cached, ok := modelCache.Load(typ); ok {
		return cached.(*Model), nil
	}

	m, err := parseModel(typ)
	if err != nil {
		return nil, err
	}

	actual, _ := modelCache.LoadOrStore(typ, m)
	return actual.(*Model), nil
}

func parseModel(typ reflect.Type) (*Model, error) {
	table := camelToSnake(typ.Name())
	if t, ok := reflect.New(typ).Interface().(Tabler); ok {
		table = t.TableName()
	}

	m := newModel(table)
	m.Type = typ
	if err := m.parseFields(typ, nil); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) parseFields(typ reflect.Type, parent []int) error {
	for i := 0; i < typ.NumField(); i++ {
		structField := typ.Field(i)
		if !structField.IsExported() {
			continue
		}

		tagStr := structField.Tag.Get("jorm")
		if tagStr == "-" {
			continue
		}

		index := append(append([]int(nil), parent...), i)

		if structField.Anonymous && structField.Type.Kind() == reflect.Struct && tagStr == "" {
			if err := m.parseFields(structField.Type, index); err != nil {
				return err
			}
			continue
		}

		tag := ParseTag(tagStr)

		columnName := tag.Column
		if columnName == "" {
			columnName = camelToSnake(structField.Name)
		}

		fieldType := FieldTypeOf(structField.Type)
		if tag.Type != "" {
			if t, ok := ParseFieldType(tag.Type); ok {
				fieldType = t
			}
		}
		if fieldType == TypeInvalid {
			return fmt.Errorf("%w: field %s.%s has unsupported type %s",
				ErrInvalidModel, typ.Name(), structField.Name, structField.Type)
		}

		field := &Field{
			Name:   structField.Name,
			Column: columnName,
			Type:   fieldType,
			GoType: structField.Type,
			Index:  index,
			IsPK:   tag.PrimaryKey,
			IsAuto: tag.AutoInc,
			Size:   tag.Size,
			Tag:    tagStr,
		}
		if err := m.add(field); err != nil {
			return err
		}
	}
	return nil
}

func newModel(table string) *Model {
	return &Model{
		TableName: table,
		FieldMap:  make(map[string]*Field),
		byName:    make(map[string]*Field),
	}
}

func (m *Model) add(f *Field) error {
	if f.Name == "" {
		return fmt.Errorf("%w: %s has a field without a name", ErrInvalidModel, m.TableName)
	}
	if _, dup := m.byName[f.Name]; dup {
		return fmt.Errorf("%w: %s declares field %s twice", ErrInvalidModel, m.TableName, f.Name)
	}
	if _, dup := m.FieldMap[f.Column]; dup {
		return fmt.Errorf("%w: %s declares column %s twice", ErrInvalidModel, m.TableName, f.Column)
	}
	if f.Type == TypeInvalid {
		return fmt.Errorf("%w: %s.%s has no value type", ErrInvalidModel, m.TableName, f.Name)
	}
	if f.GoType == nil {
		f.GoType = f.Type.GoType()
	}
	m.Fields = append(m.Fields, f)
	m.FieldMap[f.Column] = f
	m.byName[f.Name] = f
	if f.IsPK {
		m.pks = append(m.pks, f)
	}
	return nil
}

func (m *Model) validate() error {
	if len(m.pks) == 0 {
		return fmt.Errorf("%w: %s has no primary key", ErrInvalidModel, m.TableName)
	}
	return nil
}

// PrimaryKeys returns the primary-key fields in declaration order.
func (m *Model) PrimaryKeys() []*Field {
	return m.pks
}

// Field returns the field with the given name.
func (m *Model) Field(name string) (*Field, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// ValueOf reads the value of f from entity, which must be a struct or a
// pointer to a struct of the model's type.
func (m *Model) ValueOf(entity any, f *Field) (any, bool) {
	if f == nil || f.Index == nil {
		return nil, false
	}
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	fv, err := v.FieldByIndexErr(f.Index)
	if err != nil {
		return nil, false
	}
	return fv.Interface(), true
}

func camelToSnake(s string) string {
	if s == "ID" {
		return "id"
	}
	runes := []rune(s)
	var res []rune
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				res = append(res, '_')
			}
			res = append(res, unicode.ToLower(r))
		} else {
			res = append(res, r)
		}
	}
	return string(res)
}
