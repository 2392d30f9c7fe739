package codec_test

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/linkedin/goavro/v2"

	ps "github.com/reoring/pulsarschema"
	"github.com/reoring/pulsarschema/avro"
	"github.com/reoring/pulsarschema/codec"
)

type Color int

const (
	Red Color = iota + 1
	Green
	Blue
)

func colors() *ps.EnumType {
	return ps.NewEnum("Color", ps.Member("red", Red), ps.Member("green", Green), ps.Member("blue", Blue))
}

// complexRecord mirrors a nested record with enums, maps and arrays of
// records across two namespaces.
func complexRecord(t *testing.T) (*ps.RecordType, *ps.Record) {
	t.Helper()
	color := colors()
	nested1 := ps.NewRecord("NestedObj1").SortedFields().
		Field("na1", ps.String()).
		Field("nb1", ps.Double()).
		MustBuild()
	nested2 := ps.NewRecord("NestedObj2").SortedFields().
		Field("na2", ps.Int()).
		Field("nb2", ps.Boolean()).
		Field("nc2", ps.RecordOf(nested1)).
		MustBuild()
	nested3 := ps.NewRecord("NestedObj3").SortedFields().
		Field("color", ps.EnumOf(color)).
		Field("na3", ps.Int()).
		MustBuild()
	nested4 := ps.NewRecord("NestedObj4").Namespace("xxx4").SortedFields().
		Field("na4", ps.String()).
		Field("nb4", ps.Int()).
		MustBuild()
	rt := ps.NewRecord("ComplexRecord").Namespace("xxx.xxx").SortedFields().
		Field("a", ps.Int()).
		Field("b", ps.Int()).
		Field("color", ps.EnumOf(color)).
		Field("color2", ps.EnumOf(color)).
		Field("color3", ps.EnumOf(color, ps.Required(), ps.Default(Red), ps.RequiredDefault())).
		Field("nested", ps.RecordOf(nested2)).
		Field("nested2", ps.RecordOf(nested2)).
		Field("mapNested", ps.Map(ps.RecordOf(nested3))).
		Field("mapNested2", ps.Map(ps.RecordOf(nested3))).
		Field("arrayNested", ps.Array(ps.RecordOf(nested4))).
		Field("arrayNested2", ps.Array(ps.RecordOf(nested4))).
		MustBuild()

	nestedObj1 := nested1.MustNew(map[string]any{"na1": "na1 value", "nb1": 20.5})
	nestedObj2 := nested2.MustNew(map[string]any{"na2": 22, "nb2": true, "nc2": nestedObj1})
	r, err := rt.New(map[string]any{
		"a":      1,
		"b":      2,
		"color":  Red,
		"color2": Blue,
		"nested": nestedObj2,
		"nested2": map[string]any{
			"na2": 11, "nb2": false, "nc2": map[string]any{"na1": "x", "nb1": 1.5},
		},
		"mapNested": map[string]any{
			"a": map[string]any{"color": "green", "na3": 3},
		},
		"mapNested2": map[string]*ps.Record{
			"b": nested3.MustNew(map[string]any{"color": Blue, "na3": 4}),
		},
		"arrayNested": []any{
			map[string]any{"na4": "one", "nb4": 1},
			map[string]any{"na4": "two"},
		},
	})
	if err != nil {
		t.Fatalf("complex record: %v", err)
	}
	return rt, r
}

func TestAvro_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rt, r := complexRecord(t)
	c := codec.Avro(rt)

	data, err := c.Encode(ctx, r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(ctx, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !r.Equal(got) {
		t.Fatalf("decoded %v", got.Plain())
	}
	if color3, _ := got.Get("color3"); color3 != Red {
		t.Fatalf("color3 = %v", color3)
	}
}

func TestAvro_WireBytes(t *testing.T) {
	rt := ps.NewRecord("Small").
		Field("a", ps.Int(ps.Required())).
		Field("s", ps.String(ps.Required())).
		Field("opt", ps.Int()).
		Field("none", ps.Long()).
		MustBuild()
	r := rt.MustNew(map[string]any{"a": 1, "s": "ab", "opt": 5})

	data, err := codec.Avro(rt).Encode(context.Background(), r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// a=1, s="ab", opt=branch 1 + 5, none=branch 0
	want := []byte{0x02, 0x04, 'a', 'b', 0x02, 0x0a, 0x00}
	if !bytes.Equal(data, want) {
		t.Fatalf("got % x, want % x", data, want)
	}
}

func TestAvro_InteropWithReferenceImplementation(t *testing.T) {
	ctx := context.Background()
	rt, r := complexRecord(t)
	c := codec.Avro(rt)
	doc, err := rt.SchemaJSON()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	ref, err := goavro.NewCodec(string(doc))
	if err != nil {
		t.Fatalf("goavro: %v", err)
	}

	data, err := c.Encode(ctx, r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	native, rest, err := ref.NativeFromBinary(data)
	if err != nil || len(rest) != 0 {
		t.Fatalf("goavro decode: rest=%d err=%v", len(rest), err)
	}
	m := native.(map[string]any)
	if !reflect.DeepEqual(m["a"], map[string]any{"int": int32(1)}) {
		t.Fatalf("a = %#v", m["a"])
	}
	if m["color3"] != "red" {
		t.Fatalf("color3 = %#v", m["color3"])
	}
	if !reflect.DeepEqual(m["color2"], map[string]any{"xxx.xxx.Color": "blue"}) {
		t.Fatalf("color2 = %#v", m["color2"])
	}

	back, err := ref.BinaryFromNative(nil, native)
	if err != nil {
		t.Fatalf("goavro encode: %v", err)
	}
	if !bytes.Equal(back, data) {
		t.Fatalf("goavro re-encoding differs")
	}
	got, err := c.Decode(ctx, back)
	if err != nil || !r.Equal(got) {
		t.Fatalf("decode goavro output: %v", err)
	}
}

func TestAvro_EncodeRejectsOtherRecordType(t *testing.T) {
	a := ps.NewRecord("A").Field("x", ps.Int()).MustBuild()
	b := ps.NewRecord("A").Field("x", ps.Int()).MustBuild()

	if _, err := codec.Avro(a).Encode(context.Background(), b.MustNew(nil)); !errors.Is(err, ps.ErrTypeConstraint) {
		t.Fatalf("record of another type: %v", err)
	}
	if _, err := codec.Avro(a).Encode(context.Background(), nil); !errors.Is(err, ps.ErrTypeConstraint) {
		t.Fatalf("nil record: %v", err)
	}
}

func TestAvro_DecodeCorruptData(t *testing.T) {
	rt := ps.NewRecord("S").Field("s", ps.String(ps.Required())).MustBuild()
	c := codec.Avro(rt)

	for _, data := range [][]byte{
		{0x08, 'a'},       // length past the end
		{0x02, 'a', 0x00}, // trailing byte
		{0x02, 0xff},      // not UTF-8
	} {
		if _, err := c.Decode(context.Background(), data); !errors.Is(err, avro.ErrData) {
			t.Fatalf("% x: expected ErrData, got %v", data, err)
		}
	}

	// bytes written by an older schema must still be text to be read as a string
	writer := ps.NewRecord("S").Field("s", ps.Bytes(ps.Required())).MustBuild()
	data, err := codec.Avro(writer).Encode(context.Background(), writer.MustNew(map[string]any{"s": []byte{0xff}}))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := c.DecodeWithWriter(context.Background(), data, writer.Schema()); !errors.Is(err, avro.ErrData) {
		t.Fatalf("expected ErrData resolving bytes to string, got %v", err)
	}
}

func TestAvro_DecodeWithWriter(t *testing.T) {
	ctx := context.Background()
	v1 := ps.NewRecord("User").
		Field("id", ps.Int(ps.Required())).
		Field("legacy", ps.String()).
		MustBuild()
	v2 := ps.NewRecord("User").
		Field("id", ps.Long(ps.Required())).
		Field("name", ps.String(ps.Required(), ps.Default("anonymous"), ps.RequiredDefault())).
		Field("email", ps.String()).
		MustBuild()
	v3 := ps.NewRecord("User").
		Field("id", ps.Long(ps.Required())).
		Field("age", ps.Int(ps.Required())).
		MustBuild()

	data, err := codec.Avro(v1).Encode(ctx, v1.MustNew(map[string]any{"id": 7, "legacy": "gone"}))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := codec.Avro(v2).DecodeWithWriter(ctx, data, v1.Schema())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := map[string]any{"id": int64(7), "name": "anonymous", "email": nil}
	for name, w := range want {
		if v, _ := got.Get(name); v != w {
			t.Fatalf("%s = %v, want %v", name, v, w)
		}
	}

	_, err = codec.Avro(v3).DecodeWithWriter(ctx, data, v1.Schema())
	if !errors.Is(err, ps.ErrSchemaResolution) || !errors.Is(err, avro.ErrResolution) {
		t.Fatalf("expected resolution error, got %v", err)
	}
	if e, ok := ps.AsError(err); !ok || e.Field != "age" {
		t.Fatalf("expected field age in %v", err)
	}
}

func TestAvro_Info(t *testing.T) {
	rt := ps.NewRecord("Info").Namespace("n").Field("x", ps.Int()).MustBuild()
	info := codec.Avro(rt).Info()
	doc, _ := rt.SchemaJSON()
	if info.Name != "Info" || info.Type != codec.SchemaAvro || info.Type.String() != "AVRO" {
		t.Fatalf("unexpected info %+v", info)
	}
	if !bytes.Equal(info.Schema, doc) {
		t.Fatalf("info schema %s, want %s", info.Schema, doc)
	}
}

func TestAvroSchema_Dynamic(t *testing.T) {
	ctx := context.Background()
	doc := avro.MustParse(`{
		"type": "record", "name": "Event", "namespace": "ev",
		"fields": [
			{"name": "kind", "type": {"type": "enum", "name": "Kind", "symbols": ["A", "B"]}},
			{"name": "tags", "type": {"type": "array", "items": "string"}},
			{"name": "attrs", "type": {"type": "map", "values": ["null", "long"]}},
			{"name": "id", "type": {"type": "fixed", "name": "Id", "size": 2}}
		]
	}`)
	c := codec.AvroSchema(doc)
	in := map[string]any{
		"kind":  "B",
		"tags":  []string{"x", "y"},
		"attrs": map[string]any{"n": int64(3), "z": nil},
		"id":    []byte{0xca, 0xfe},
	}
	data, err := c.Encode(ctx, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := c.Decode(ctx, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"kind":  "B",
		"tags":  []any{"x", "y"},
		"attrs": map[string]any{"n": int64(3), "z": nil},
		"id":    []byte{0xca, 0xfe},
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %#v", out)
	}

	if _, err := c.Encode(ctx, map[string]any{"kind": "C"}); !errors.Is(err, ps.ErrTypeConstraint) {
		t.Fatalf("unknown symbol: %v", err)
	}
	if c.Info().Name != "Event" {
		t.Fatalf("info name %q", c.Info().Name)
	}
}

func TestAvroSchema_RejectsUndeclaredKeys(t *testing.T) {
	c := codec.AvroSchema(avro.MustParse(`{"type": "record", "name": "Point", "fields": [
		{"name": "x", "type": "int"}
	]}`))
	_, err := c.Encode(context.Background(), map[string]any{"x": 1, "label": "hi"})
	if !errors.Is(err, ps.ErrTypeConstraint) {
		t.Fatalf("expected type_constraint, got %v", err)
	}
	if e, _ := ps.AsError(err); e.Field != "/label" {
		t.Fatalf("field = %q", e.Field)
	}
}
