package lookup

import (
	"github.com/shrek82/keyquery/model"
	"github.com/shrek82/keyquery/query"
)

// ResolvePrimaryKeyField returns the primary-key field of m named name. The
// match is exact and case-sensitive.
func ResolvePrimaryKeyField(m *model.Model, name string) (*model.Field, error) {
	if m == nil {
		return nil, errNilModel
	}
	for _, f := range m.PrimaryKeys() {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, &UnknownKeyFieldError{Field: name, Entity: m.TableName}
}

// CoerceValue converts raw to the declared type of f.
func CoerceValue(raw any, f *model.Field) (any, error) {
	v, err := model.Convert(raw, f.Type)
	if err != nil {
		return nil, &ValueCoercionError{Field: f.Name, Value: raw, Type: f.Type, Err: err}
	}
	return v, nil
}

// BuildSingleKeyPredicate conjoins one equality test per param, in input
// order. With no params the result is query.True.
func BuildSingleKeyPredicate(m *model.Model, params []KeyParam) (query.Predicate, error) {
	tests := make([]query.Predicate, 0, len(params))
	for _, p := range params {
		eq, err := keyTest(m, p)
		if err != nil {
			return nil, err
		}
		tests = append(tests, eq)
	}
	if len(tests) == 0 {
		return query.True, nil
	}
	return query.AndAll(tests...), nil
}

// BuildMultiKeyPredicate disjoins the conjunction of each group, in group
// order. With no groups the result is nil, meaning no filter applies. An
// empty group matches nothing.
func BuildMultiKeyPredicate(m *model.Model, groups []KeyParamGroup) (query.Predicate, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	parts := make([]query.Predicate, 0, len(groups))
	for _, g := range groups {
		if len(g) == 0 {
			parts = append(parts, query.False)
			continue
		}
		p, err := BuildSingleKeyPredicate(m, g)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return query.OrAny(parts...), nil
}

func keyTest(m *model.Model, p KeyParam) (query.Equals, error) {
	f, err := ResolvePrimaryKeyField(m, p.Name)
	if err != nil {
		return query.Equals{}, err
	}
	v, err := CoerceValue(p.Value, f)
	if err != nil {
		if ce, ok := err.(*ValueCoercionError); ok {
			ce.Entity = m.TableName
		}
		return query.Equals{}, err
	}
	return query.Equals{Field: f.Name, Column: f.Column, Value: v}, nil
}
