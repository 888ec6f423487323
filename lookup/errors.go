package lookup

import (
	"errors"
	"fmt"

	"github.com/shrek82/keyquery/model"
)

var (
	// ErrUnknownKeyField is matched by *UnknownKeyFieldError.
	ErrUnknownKeyField = errors.New("unknown key field")
	// ErrValueCoercion is matched by *ValueCoercionError.
	ErrValueCoercion = errors.New("value coercion failed")
	// ErrMultipleMatches is matched by *MultipleMatchesError.
	ErrMultipleMatches = errors.New("multiple matches")
	// ErrSequenceConsumed is yielded when a FetchMany sequence is ranged a second time.
	ErrSequenceConsumed = errors.New("sequence already consumed")
)

// UnknownKeyFieldError reports a field name that is not a primary-key field
// of the entity.
type UnknownKeyFieldError struct {
	Field  string
	Entity string
}

func (e *UnknownKeyFieldError) Error() string {
	return fmt.Sprintf("cannot find key field %s in table %s", e.Field, e.Entity)
}

func (e *UnknownKeyFieldError) Unwrap() error { return ErrUnknownKeyField }

// ValueCoercionError reports a value that cannot be converted to its field's
// declared type.
type ValueCoercionError struct {
	Field  string
	Entity string
	Value  any
	Type   model.FieldType
	Err    error
}

func (e *ValueCoercionError) Error() string {
	return fmt.Sprintf("cannot convert %T(%v) to %s for key field %s in table %s",
		e.Value, e.Value, e.Type, e.Field, e.Entity)
}

func (e *ValueCoercionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValueCoercion}
	}
	return []error{ErrValueCoercion, e.Err}
}

// MultipleMatchesError reports a single-entity fetch that matched more than
// one row, which means the key metadata does not describe a unique key.
type MultipleMatchesError struct {
	Entity    string
	Predicate string
}

func (e *MultipleMatchesError) Error() string {
	return fmt.Sprintf("key lookup on table %s matched more than one row: %s", e.Entity, e.Predicate)
}

func (e *MultipleMatchesError) Unwrap() error { return ErrMultipleMatches }
