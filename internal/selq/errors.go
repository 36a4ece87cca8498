package selq

import (
	"errors"
	"fmt"

	"selq/internal/dblib"
)

// ErrEmptySelection is returned when a view has no selected records with a value
// for the requested field.
var ErrEmptySelection = errors.New("no selected records")

// UnsupportedFieldTypeError is returned for fields whose values cannot be written
// as literals in an IN list.
type UnsupportedFieldTypeError struct {
	Field string
	Kind  dblib.FieldKind
}

func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("unexpected field type: field '%s', type '%s'", e.Field, e.Kind)
}

// FieldNotFoundError is returned when the view's relation has no column with the
// field's base name.
type FieldNotFoundError struct {
	Field string
	View  string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field '%s' not found in %s", e.Field, e.View)
}

// InvalidQueryError is returned when a built query does not parse as a row filter.
type InvalidQueryError struct {
	Query string
	Err   error
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid definition query %q: %v", e.Query, e.Err)
}

func (e *InvalidQueryError) Unwrap() error {
	return e.Err
}
