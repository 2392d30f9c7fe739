package avro_test

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/linkedin/goavro/v2"

	"github.com/reoring/pulsarschema/avro"
)

const eventDoc = `{
	"type": "record",
	"name": "Event",
	"namespace": "com.example",
	"doc": "an event",
	"fields": [
		{"name": "id", "type": "long", "doc": "identifier"},
		{"name": "kind", "type": {"type": "enum", "name": "Kind", "symbols": ["A", "B", "C"]}},
		{"name": "hash", "type": {"type": "fixed", "name": "Hash", "namespace": "com.other", "size": 4}},
		{"name": "tags", "type": {"type": "array", "items": "string"}, "default": []},
		{"name": "attrs", "type": {"type": "map", "values": ["null", "double"]}},
		{"name": "prev", "type": ["null", "Event"], "default": null},
		{"name": "last", "type": "Kind"}
	]
}`

func TestParse_NamesAndReferences(t *testing.T) {
	s, err := avro.Parse([]byte(eventDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Type != avro.Record || s.FullName() != "com.example.Event" || s.ShortName() != "Event" {
		t.Fatalf("unexpected root: %s %s %s", s.Type, s.FullName(), s.ShortName())
	}

	kind, ok := s.Field("kind")
	if !ok || kind.Type.FullName() != "com.example.Kind" {
		t.Fatalf("kind should inherit the namespace, got %v", kind)
	}
	if hash, _ := s.Field("hash"); hash.Type.FullName() != "com.other.Hash" {
		t.Fatalf("hash full name = %s", hash.Type.FullName())
	}

	last, _ := s.Field("last")
	if !last.Type.IsRef() || last.Type.Target() != kind.Type {
		t.Fatalf("last should reference the Kind definition")
	}
	prev, _ := s.Field("prev")
	if !prev.Type.Nullable() || prev.Type.Branches[1].Target() != s {
		t.Fatalf("prev should reference the enclosing record")
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown type":       `{"type": "record", "name": "R", "fields": [{"name": "x", "type": "Missing"}]}`,
		"invalid name":       `{"type": "record", "name": "1R", "fields": []}`,
		"duplicate name":     `["int", {"type": "fixed", "name": "F", "size": 1}, {"type": "fixed", "name": "F", "size": 2}]`,
		"duplicate field":    `{"type": "record", "name": "R", "fields": [{"name": "x", "type": "int"}, {"name": "x", "type": "int"}]}`,
		"duplicate symbol":   `{"type": "enum", "name": "E", "symbols": ["A", "A"]}`,
		"nested union":       `["null", ["int", "long"]]`,
		"duplicate branch":   `["int", "int"]`,
		"missing fixed size": `{"type": "fixed", "name": "F"}`,
		"not json":           `{"type": `,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := avro.Parse([]byte(doc)); !errors.Is(err, avro.ErrSchema) {
				t.Fatalf("expected ErrSchema, got %v", err)
			}
		})
	}
}

func TestParseYAML_MatchesJSON(t *testing.T) {
	yamlDoc := `
type: record
name: Event
namespace: com.example
fields:
  - name: id
    type: long
  - name: kind
    type:
      type: enum
      name: Kind
      symbols: [A, B, C]
  - name: tags
    type: {type: array, items: string}
    default: []
`
	fromYAML, err := avro.ParseYAML([]byte(yamlDoc))
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}

	fromJSON := avro.MustParse(`{"type": "record", "name": "Event", "namespace": "com.example", "fields": [
		{"name": "id", "type": "long"},
		{"name": "kind", "type": {"type": "enum", "name": "Kind", "symbols": ["A", "B", "C"]}},
		{"name": "tags", "type": {"type": "array", "items": "string"}, "default": []}
	]}`)
	if fromJSON.String() != fromYAML.String() {
		t.Fatalf("documents differ:\n%s\n%s", fromJSON, fromYAML)
	}
	if !avro.SameLayout(fromJSON, fromYAML) {
		t.Fatalf("expected same layout")
	}
}

func TestMarshal_Reparses(t *testing.T) {
	s := avro.MustParse(eventDoc)
	doc, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := avro.Parse(doc)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if again.String() != string(doc) {
		t.Fatalf("rendering not stable:\n%s\n%s", doc, again)
	}
	if err := avro.Check(again); err != nil {
		t.Fatalf("independent parser: %v", err)
	}
}

func TestCanonical(t *testing.T) {
	s := avro.MustParse(`{
		"type": "record", "name": "R", "namespace": "a.b", "doc": "ignored",
		"aliases": ["Old"],
		"fields": [
			{"name": "x", "type": "int", "default": 1, "doc": "also ignored"},
			{"name": "e", "type": {"type": "enum", "name": "E", "symbols": ["P", "Q"]}},
			{"name": "f", "type": {"type": "fixed", "name": "F", "namespace": "c", "size": 3}},
			{"name": "u", "type": ["null", {"type": "map", "values": {"type": "array", "items": "E"}}]}
		]
	}`)
	want := `{"name":"a.b.R","type":"record","fields":[{"name":"x","type":"int"},{"name":"e","type":{"name":"a.b.E","type":"enum","symbols":["P","Q"]}},{"name":"f","type":{"name":"c.F","type":"fixed","size":3}},{"name":"u","type":["null",{"type":"map","values":{"type":"array","items":"a.b.E"}}]}]}`
	if got := string(avro.Canonical(s)); got != want {
		t.Fatalf("canonical form:\n got %s\nwant %s", got, want)
	}
	if got := string(avro.Canonical(avro.Primitive(avro.Int))); got != `"int"` {
		t.Fatalf("primitive canonical form: %s", got)
	}
}

func TestFingerprint64_MatchesReferenceImplementation(t *testing.T) {
	docs := []string{
		`"int"`,
		`"string"`,
		`{"type": "array", "items": "long"}`,
		`["null", "double"]`,
		eventDoc,
	}
	for _, doc := range docs {
		s := avro.MustParse(doc)
		ref, err := goavro.NewCodec(doc)
		if err != nil {
			t.Fatalf("goavro: %v", err)
		}
		if got := string(avro.Canonical(s)); got != ref.CanonicalSchema() {
			t.Fatalf("canonical form differs for %s:\n got %s\nwant %s", doc, got, ref.CanonicalSchema())
		}
		if got := avro.Fingerprint64(s); got != ref.Rabin {
			t.Fatalf("fingerprint differs for %s: %x != %x", doc, got, ref.Rabin)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	s := avro.MustParse(eventDoc)
	in := map[string]any{
		"id":    int64(-3),
		"kind":  "B",
		"hash":  []byte{1, 2, 3, 4},
		"attrs": map[string]any{"pi": 3.5, "nil": nil},
		"prev": map[string]any{
			"id": 1, "kind": "A", "hash": []byte{0, 0, 0, 0}, "attrs": map[string]any{}, "last": "C",
		},
		"last": "A",
	}
	data, err := avro.Encode(s, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	ref, err := goavro.NewCodec(eventDoc)
	if err != nil {
		t.Fatalf("goavro: %v", err)
	}
	native, rest, err := ref.NativeFromBinary(data)
	if err != nil || len(rest) != 0 {
		t.Fatalf("goavro decode: rest=%d err=%v", len(rest), err)
	}
	if id := native.(map[string]any)["id"]; id != int64(-3) {
		t.Fatalf("goavro read id %v", id)
	}

	out, err := avro.Decode(s, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"id":    int64(-3),
		"kind":  "B",
		"hash":  []byte{1, 2, 3, 4},
		"tags":  []any{},
		"attrs": map[string]any{"pi": 3.5, "nil": nil},
		"prev": map[string]any{
			"id": int64(1), "kind": "A", "hash": []byte{0, 0, 0, 0}, "tags": []any{},
			"attrs": map[string]any{}, "prev": nil, "last": "C",
		},
		"last": "A",
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("decoded:\n%#v\nwant:\n%#v", out, want)
	}
}

func TestEncode_Primitives(t *testing.T) {
	cases := []struct {
		schema string
		value  any
		want   []byte
	}{
		{`"null"`, nil, nil},
		{`"boolean"`, true, []byte{1}},
		{`"int"`, -1, []byte{0x01}},
		{`"int"`, 64, []byte{0x80, 0x01}},
		{`"long"`, int64(math.MinInt64), []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
		{`"float"`, float32(1), []byte{0x00, 0x00, 0x80, 0x3f}},
		{`"double"`, 2, []byte{0, 0, 0, 0, 0, 0, 0, 0x40}},
		{`"string"`, "é", []byte{0x04, 0xc3, 0xa9}},
		{`["null", "string"]`, "x", []byte{0x02, 0x02, 'x'}},
		{`["long", "double"]`, 1.5, []byte{0x02, 0, 0, 0, 0, 0, 0, 0xf8, 0x3f}},
	}
	for _, tc := range cases {
		got, err := avro.Encode(avro.MustParse(tc.schema), tc.value)
		if err != nil {
			t.Fatalf("%s: %v", tc.schema, err)
		}
		if !bytes.Equal(got, tc.want) {
			t.Fatalf("%s %v: got % x, want % x", tc.schema, tc.value, got, tc.want)
		}
	}
}

func TestEncode_Errors(t *testing.T) {
	s := avro.MustParse(eventDoc)

	_, err := avro.Encode(s, map[string]any{"id": "x"})
	var ve *avro.ValueError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValueError, got %v", err)
	}
	if ve.Path != "/id" || ve.Expected != "long" {
		t.Fatalf("unexpected value error %+v", ve)
	}

	if _, err := avro.Encode(avro.MustParse(`"int"`), int64(math.MaxInt32)+1); !errors.Is(err, avro.ErrValue) {
		t.Fatalf("int overflow: %v", err)
	}
	if _, err := avro.Encode(avro.MustParse(`["null", "int"]`), "text"); !errors.Is(err, avro.ErrValue) {
		t.Fatalf("no matching branch: %v", err)
	}
	if _, err := avro.Encode(avro.MustParse(`"string"`), "\xff"); !errors.Is(err, avro.ErrValue) {
		t.Fatalf("invalid UTF-8 string: %v", err)
	}
	if _, err := avro.Encode(avro.MustParse(`"string"`), []byte{0xc3}); !errors.Is(err, avro.ErrValue) {
		t.Fatalf("invalid UTF-8 bytes: %v", err)
	}
}

func TestEncode_RejectsUndeclaredRecordKeys(t *testing.T) {
	s := avro.MustParse(`{"type": "record", "name": "P", "fields": [{"name": "x", "type": ["null", "int"], "default": null}]}`)

	_, err := avro.Encode(s, map[string]any{"x": 1, "label": "hi"})
	var ve *avro.ValueError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValueError, got %v", err)
	}
	if ve.Path != "/label" {
		t.Fatalf("path = %q", ve.Path)
	}

	// an undeclared key rules a record branch out of a union
	u := avro.MustParse(`["null", {"type": "record", "name": "Q", "fields": [{"name": "x", "type": "int"}]}]`)
	if _, err := avro.Encode(u, map[string]any{"x": 1, "y": 2}); !errors.Is(err, avro.ErrValue) {
		t.Fatalf("union with undeclared key: %v", err)
	}
	if _, err := avro.Encode(u, map[string]any{"x": 1}); err != nil {
		t.Fatalf("declared keys only: %v", err)
	}
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name   string
		schema string
		data   []byte
	}{
		{"trailing bytes", `"int"`, []byte{0x02, 0x00}},
		{"truncated string", `"string"`, []byte{0x0a, 'a'}},
		{"branch out of range", `["null", "int"]`, []byte{0x06}},
		{"varint overflow", `"long"`, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
		{"invalid UTF-8", `"string"`, []byte{0x02, 0xff}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := avro.Decode(avro.MustParse(tc.schema), tc.data); !errors.Is(err, avro.ErrData) {
				t.Fatalf("expected ErrData, got %v", err)
			}
		})
	}
}

func TestDefaultValue(t *testing.T) {
	v, err := avro.DefaultValue(avro.MustParse(`"bytes"`), "\u0000ÿ")
	if err != nil || !bytes.Equal(v.([]byte), []byte{0x00, 0xff}) {
		t.Fatalf("bytes default: %v, %v", v, err)
	}
	if s := avro.Latin1String([]byte{0x00, 0xff}); s != "\u0000ÿ" {
		t.Fatalf("Latin1String = %q", s)
	}

	v, err = avro.DefaultValue(avro.MustParse(`["int", "null"]`), 5)
	if err != nil || v != int32(5) {
		t.Fatalf("union default: %v, %v", v, err)
	}
	if _, err := avro.DefaultValue(avro.MustParse(`["null", "int"]`), 5); err == nil {
		t.Fatalf("default must match the first branch")
	}
}

func TestRelativeName(t *testing.T) {
	cases := []struct{ full, ns, want string }{
		{"com.example.Kind", "com.example", "Kind"},
		{"com.other.Hash", "com.example", "com.other.Hash"},
		{"Plain", "com.example", "Plain"},
	}
	for _, tc := range cases {
		if got := avro.RelativeName(tc.full, tc.ns); got != tc.want {
			t.Fatalf("RelativeName(%q, %q) = %q, want %q", tc.full, tc.ns, got, tc.want)
		}
	}
}
