package avro

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema marks malformed schema documents.
	ErrSchema = errors.New("avro: invalid schema")
	// ErrValue marks values that do not fit the schema on encode.
	ErrValue = errors.New("avro: value does not match schema")
	// ErrData marks truncated or corrupt binary data.
	ErrData = errors.New("avro: invalid binary data")
	// ErrResolution marks writer/reader schema mismatches.
	ErrResolution = errors.New("avro: schema resolution failed")
)

// SchemaError reports a malformed schema document.
type SchemaError struct {
	Path string
	Msg  string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "avro: invalid schema: " + e.Msg
	}
	return fmt.Sprintf("avro: invalid schema at %s: %s", e.Path, e.Msg)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// ValueError reports a value that cannot be encoded with the schema.
type ValueError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("avro: value at %s: expected %s, got %s", pathOrRoot(e.Path), e.Expected, e.Actual)
}

func (e *ValueError) Unwrap() error { return ErrValue }

// DataError reports corrupt binary input.
type DataError struct {
	Offset int
	Msg    string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("avro: invalid data at offset %d: %s", e.Offset, e.Msg)
}

func (e *DataError) Unwrap() error { return ErrData }

// ResolutionError reports an irreconcilable difference between the writer and
// reader schema.
type ResolutionError struct {
	Path   string
	Field  string
	Writer string
	Reader string
	Msg    string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("avro: cannot resolve %s (writer %s, reader %s): %s", pathOrRoot(e.Path), e.Writer, e.Reader, e.Msg)
}

func (e *ResolutionError) Unwrap() error { return ErrResolution }

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func typeOf(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
