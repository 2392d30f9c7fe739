package pulsarschema

import (
	"errors"
	"strings"

	"github.com/reoring/pulsarschema/i18n"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeTypeConstraint   = "type_constraint"
	CodeRequired         = "required"
	CodeUnknownField     = "unknown_field"
	CodeSchemaDefinition = "schema_definition"
	CodeSchemaResolution = "schema_resolution"
	CodeDuplicateKey     = "duplicate_key"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its code;
// CodeRequired also matches ErrTypeConstraint.
var (
	ErrTypeConstraint   = errors.New("pulsarschema: type constraint violation")
	ErrUnknownField     = errors.New("pulsarschema: unknown field")
	ErrSchemaDefinition = errors.New("pulsarschema: invalid schema definition")
	ErrSchemaResolution = errors.New("pulsarschema: schema resolution failed")
	ErrDuplicateKey     = errors.New("pulsarschema: duplicate key")
)

// Error is the error type returned by definition, construction and codec
// operations.
type Error struct {
	Code     string // One of the codes listed above.
	Record   string // Record type name, when known.
	Field    string // Field name, when known.
	Expected string // Expected kind or type name.
	Actual   string // Actual Go type or value description.
	Message  string // Human readable message (from the i18n catalogue).
	Cause    error  // Optional: underlying error.
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString("pulsarschema: ")
	b.WriteString(e.Code)
	if e.Record != "" || e.Field != "" {
		b.WriteString(" at ")
		b.WriteString(e.Record)
		if e.Record != "" && e.Field != "" {
			b.WriteByte('.')
		}
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil && !strings.Contains(e.Message, e.Cause.Error()) {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches the sentinel for the error's code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTypeConstraint:
		return e.Code == CodeTypeConstraint || e.Code == CodeRequired
	case ErrUnknownField:
		return e.Code == CodeUnknownField
	case ErrSchemaDefinition:
		return e.Code == CodeSchemaDefinition
	case ErrSchemaResolution:
		return e.Code == CodeSchemaResolution
	case ErrDuplicateKey:
		return e.Code == CodeDuplicateKey
	}
	return false
}

// AsError extracts the first *Error from err using errors.As internally.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// NewError builds an *Error with the catalogue message for code.
func NewError(code string, e Error) *Error { return newError(code, code, e) }

// newError builds an *Error whose message comes from the catalogue entry msg.
func newError(code, msg string, e Error) *Error {
	e.Code = code
	e.Message = i18n.T(msg, map[string]string{
		"record":   e.Record,
		"field":    e.Field,
		"expected": e.Expected,
		"actual":   e.Actual,
		"detail":   causeText(e.Cause),
	})
	return &e
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func typeConstraint(record, field, expected string, v any) *Error {
	return newError(CodeTypeConstraint, "type_constraint", Error{Record: record, Field: field, Expected: expected, Actual: describe(v)})
}

func definitionError(record, field string, cause error) *Error {
	return newError(CodeSchemaDefinition, "schema_definition", Error{Record: record, Field: field, Cause: cause})
}
