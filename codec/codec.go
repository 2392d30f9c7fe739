// Package codec converts values to and from message payloads.
//
// Avro and AvroSchema write the binary format, JSON writes the text format,
// and String and Bytes pass scalar payloads through unchanged. Each codec
// publishes a SchemaInfo describing itself to the producer/consumer layer.
package codec

import (
	"context"
	"fmt"

	ps "github.com/reoring/pulsarschema"
	"github.com/reoring/pulsarschema/avro"
)

// Codec encodes values of T to payload bytes and back.
type Codec[T any] interface {
	Encode(ctx context.Context, v T) ([]byte, error)
	Decode(ctx context.Context, data []byte) (T, error)
	Info() SchemaInfo
}

// Resolver is implemented by codecs that can read payloads written with an
// earlier or later version of their schema.
type Resolver[T any] interface {
	Codec[T]
	DecodeWithWriter(ctx context.Context, data []byte, writer *avro.Schema) (T, error)
}

// SchemaType identifies the payload format. Values follow the numbering
// used by the messaging system's schema registry.
type SchemaType int

const (
	SchemaNone     SchemaType = 0
	SchemaString   SchemaType = 1
	SchemaJSON     SchemaType = 2
	SchemaProtobuf SchemaType = 3
	SchemaAvro     SchemaType = 4
	SchemaBoolean  SchemaType = 5
	SchemaInt8     SchemaType = 6
	SchemaInt16    SchemaType = 7
	SchemaInt32    SchemaType = 8
	SchemaInt64    SchemaType = 9
	SchemaFloat    SchemaType = 10
	SchemaDouble   SchemaType = 11
	SchemaKeyValue SchemaType = 15
	SchemaBytes    SchemaType = -1
)

var schemaTypeNames = map[SchemaType]string{
	SchemaNone:     "NONE",
	SchemaString:   "STRING",
	SchemaJSON:     "JSON",
	SchemaProtobuf: "PROTOBUF",
	SchemaAvro:     "AVRO",
	SchemaBoolean:  "BOOLEAN",
	SchemaInt8:     "INT8",
	SchemaInt16:    "INT16",
	SchemaInt32:    "INT32",
	SchemaInt64:    "INT64",
	SchemaFloat:    "FLOAT",
	SchemaDouble:   "DOUBLE",
	SchemaKeyValue: "KEY_VALUE",
	SchemaBytes:    "BYTES",
}

func (t SchemaType) String() string {
	if s, ok := schemaTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("SchemaType(%d)", int(t))
}

// SchemaInfo describes a codec to the schema registry: its name, payload
// format, definition document and free-form properties.
type SchemaInfo struct {
	Name       string
	Type       SchemaType
	Schema     []byte
	Properties map[string]string
}

func recordInfo(rt *ps.RecordType, t SchemaType) SchemaInfo {
	doc, err := rt.SchemaJSON()
	if err != nil {
		doc = nil
	}
	return SchemaInfo{
		Name:   rt.Name(),
		Type:   t,
		Schema: doc,
		Properties: map[string]string{
			"__alwaysAllowNull": "true",
		},
	}
}

// mismatch reports a value that is not of the codec's value type.
func mismatch(record, expected string, v any) error {
	return ps.NewError(ps.CodeTypeConstraint, ps.Error{Record: record, Expected: expected, Actual: fmt.Sprintf("%T", v)})
}

// checkRecord verifies r belongs to rt.
func checkRecord(rt *ps.RecordType, r *ps.Record) error {
	if r == nil {
		return mismatch(rt.FullName(), rt.FullName(), nil)
	}
	if r.Type() != rt {
		return ps.NewError(ps.CodeTypeConstraint, ps.Error{Record: rt.FullName(), Expected: rt.FullName(), Actual: r.Type().FullName()})
	}
	return nil
}
