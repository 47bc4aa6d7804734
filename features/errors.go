package features

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so callers can map them to responses
type ErrorKind string

const (
	SchemaMissingField   ErrorKind = "schema_missing_field"
	ConsistencyViolation ErrorKind = "consistency_violation"
	UnknownCategory      ErrorKind = "unknown_category"
	TypeCoercionFailure  ErrorKind = "type_coercion_failure"
	SchemaMissingColumn  ErrorKind = "schema_missing_column"
)

// kinded is implemented by every typed pipeline error
type kinded interface {
	error
	ErrorKind() ErrorKind
}

// KindOf extracts the ErrorKind from anywhere in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var k kinded
	if errors.As(err, &k) {
		return k.ErrorKind(), true
	}
	return "", false
}

// ValidationError is returned by Validate.
// Fields holds every missing field for SchemaMissingField, or the single
// offending field for ConsistencyViolation.
type ValidationError struct {
	Kind   ErrorKind
	Fields []string
	Rule   string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) ErrorKind() ErrorKind {
	return e.Kind
}

// EncodingError is returned by Encode when a value cannot be mapped
type EncodingError struct {
	Kind  ErrorKind
	Field string
	Value any
	Err   error
}

func (e *EncodingError) Error() string {
	switch e.Kind {
	case UnknownCategory:
		return fmt.Sprintf("unknown category %q for field %s (accepted: %q)", fmt.Sprint(e.Value), e.Field, Labels(e.Field))
	default:
		if e.Err != nil {
			return fmt.Sprintf("cannot convert %v (%T) for field %s: %v", e.Value, e.Value, e.Field, e.Err)
		}
		return fmt.Sprintf("cannot convert %v (%T) for field %s", e.Value, e.Value, e.Field)
	}
}

func (e *EncodingError) ErrorKind() ErrorKind {
	return e.Kind
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
