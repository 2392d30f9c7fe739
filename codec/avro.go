package codec

import (
	"context"
	"errors"

	ps "github.com/reoring/pulsarschema"
	"github.com/reoring/pulsarschema/avro"
)

// AvroCodec writes records of one RecordType in the binary format.
type AvroCodec struct {
	rt *ps.RecordType
}

// Avro returns the binary codec for rt.
func Avro(rt *ps.RecordType) *AvroCodec { return &AvroCodec{rt: rt} }

// RecordType returns the codec's record type.
func (c *AvroCodec) RecordType() *ps.RecordType { return c.rt }

// Schema returns the document derived from the record type.
func (c *AvroCodec) Schema() *avro.Schema { return c.rt.Schema() }

func (c *AvroCodec) Encode(ctx context.Context, r *ps.Record) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkRecord(c.rt, r); err != nil {
		return nil, err
	}
	out, err := avro.Encode(c.rt.Schema(), r.Plain())
	if err != nil {
		return nil, valueError(c.rt.FullName(), err)
	}
	return out, nil
}

func (c *AvroCodec) Decode(ctx context.Context, data []byte) (*ps.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := avro.Decode(c.rt.Schema(), data)
	if err != nil {
		return nil, err
	}
	return c.construct(v)
}

// DecodeWithWriter reads data written with the writer schema and resolves
// it against the codec's own schema.
func (c *AvroCodec) DecodeWithWriter(ctx context.Context, data []byte, writer *avro.Schema) (*ps.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := avro.DecodeWithWriter(writer, c.rt.Schema(), data)
	if err != nil {
		return nil, resolutionError(c.rt.FullName(), err)
	}
	return c.construct(v)
}

func (c *AvroCodec) construct(v any) (*ps.Record, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, mismatch(c.rt.FullName(), "record", v)
	}
	return c.rt.New(m)
}

func (c *AvroCodec) Info() SchemaInfo { return recordInfo(c.rt, SchemaAvro) }

// DynamicCodec writes plain values (maps, slices, scalars) with a schema
// document supplied at runtime.
type DynamicCodec struct {
	doc *avro.Schema
}

// AvroSchema returns a binary codec over doc. Records are map[string]any,
// arrays []any, maps map[string]any and enums their symbol.
func AvroSchema(doc *avro.Schema) *DynamicCodec { return &DynamicCodec{doc: doc} }

// Schema returns the codec's document.
func (c *DynamicCodec) Schema() *avro.Schema { return c.doc }

func (c *DynamicCodec) Encode(ctx context.Context, v any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := avro.Encode(c.doc, v)
	if err != nil {
		return nil, valueError(c.doc.FullName(), err)
	}
	return out, nil
}

func (c *DynamicCodec) Decode(ctx context.Context, data []byte) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return avro.Decode(c.doc, data)
}

// DecodeWithWriter reads data written with the writer schema and shapes it
// after the codec's document.
func (c *DynamicCodec) DecodeWithWriter(ctx context.Context, data []byte, writer *avro.Schema) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := avro.DecodeWithWriter(writer, c.doc, data)
	if err != nil {
		return nil, resolutionError(c.doc.FullName(), err)
	}
	return v, nil
}

func (c *DynamicCodec) Info() SchemaInfo {
	doc, err := c.doc.MarshalJSON()
	if err != nil {
		doc = nil
	}
	return SchemaInfo{Name: c.doc.ShortName(), Type: SchemaAvro, Schema: doc}
}

func valueError(record string, err error) error {
	var ve *avro.ValueError
	if errors.As(err, &ve) {
		return ps.NewError(ps.CodeTypeConstraint, ps.Error{Record: record, Field: ve.Path, Expected: ve.Expected, Actual: ve.Actual, Cause: err})
	}
	return err
}

func resolutionError(record string, err error) error {
	var re *avro.ResolutionError
	if errors.As(err, &re) {
		return ps.NewError(ps.CodeSchemaResolution, ps.Error{Record: record, Field: re.Field, Cause: err})
	}
	return err
}
