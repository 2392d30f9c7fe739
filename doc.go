// Package pulsarschema provides:
//
// - Typed record definitions built from field descriptors (Int, String, Array, EnumOf, RecordOf, ...)
// - Derivation of canonical Avro schema documents from those definitions
// - Validated record construction with presence metadata
// - A stable error model via *Error (code, record, field, expected, actual)
//
// Design policy:
// - Keep the record/descriptor API in the root package; the schema document model lives in avro/.
// - Place codecs under codec/, payload compression under compression/, the producer/consumer
//   envelope under message/ and the CLI under cmd/pulsarschema.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	colors := pulsarschema.NewEnum("Color",
//	    pulsarschema.Member("red", Red), pulsarschema.Member("blue", Blue))
//	example := pulsarschema.NewRecord("Example").
//	    Namespace("com.acme").
//	    Field("id", pulsarschema.Long(pulsarschema.Required())).
//	    Field("name", pulsarschema.String()).
//	    Field("color", pulsarschema.EnumOf(colors)).
//	    MustBuild()
//
//	doc, err := example.SchemaJSON()
//	rec, err := example.New(map[string]any{"id": 1, "name": "a", "color": Red})
//
//	c := codec.Avro(example)
//	wire, err := c.Encode(ctx, rec)
package pulsarschema
