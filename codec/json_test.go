package codec_test

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"

	ps "github.com/reoring/pulsarschema"
	"github.com/reoring/pulsarschema/codec"
)

func documentType() *ps.RecordType {
	inner := ps.NewRecord("Inner").Field("x", ps.Int()).MustBuild()
	return ps.NewRecord("Doc").
		Field("id", ps.Long(ps.Required())).
		Field("data", ps.Bytes()).
		Field("color", ps.EnumOf(colors())).
		Field("tags", ps.Array(ps.String())).
		Field("inner", ps.RecordOf(inner)).
		Field("scores", ps.Map(ps.Double())).
		Field("missing", ps.String()).
		MustBuild()
}

func TestJSON_Encode(t *testing.T) {
	rt := documentType()
	r := rt.MustNew(map[string]any{
		"id":     9,
		"data":   []byte{1, 2},
		"color":  Green,
		"tags":   []string{"a", "b"},
		"inner":  map[string]any{"x": 1},
		"scores": map[string]float64{"b": 2.5, "a": 1},
	})

	out, err := codec.JSON(rt).Encode(context.Background(), r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"id":9,"data":"AQI=","color":"green","tags":["a","b"],"inner":{"x":1},"scores":{"a":1,"b":2.5},"missing":null}`
	if string(out) != want {
		t.Fatalf("got %s\nwant %s", out, want)
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rt, r := complexRecord(t)
	c := codec.JSON(rt)

	data, err := c.Encode(ctx, r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(ctx, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !r.Equal(got) {
		t.Fatalf("decoded %s", data)
	}
}

func TestJSON_Decode(t *testing.T) {
	ctx := context.Background()
	rt := documentType()
	c := codec.JSON(rt)

	got, err := c.Decode(ctx, []byte(`{"id": 12, "data": "AQI=", "color": 3, "inner": {"x": 5}, "scores": {"k": 7}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id, _ := got.Get("id"); id != int64(12) {
		t.Fatalf("id = %v", id)
	}
	if data, _ := got.Get("data"); !bytes.Equal(data.([]byte), []byte{1, 2}) {
		t.Fatalf("data = %v", data)
	}
	if color, _ := got.Get("color"); color != Blue {
		t.Fatalf("color = %v", color)
	}
	if scores, _ := got.Get("scores"); !reflect.DeepEqual(scores, map[string]any{"k": float64(7)}) {
		t.Fatalf("scores = %#v", scores)
	}
	if p := got.Presence("id"); p != ps.PresenceSeen {
		t.Fatalf("presence id = %v", p)
	}
	if got.Presence("tags").Has(ps.PresenceSeen) {
		t.Fatalf("tags should not be seen")
	}

	if _, err := c.Decode(ctx, []byte(`{"id": 1, "extra": true}`)); !errors.Is(err, ps.ErrUnknownField) {
		t.Fatalf("extra key: %v", err)
	}

	_, err = c.Decode(ctx, []byte(`{"id": 1, "inner": {"x": 1, "x": 2}}`))
	if !errors.Is(err, ps.ErrDuplicateKey) {
		t.Fatalf("expected duplicate_key, got %v", err)
	}
	if e, ok := ps.AsError(err); !ok || e.Field != "/inner/x" {
		t.Fatalf("expected field /inner/x in %v", err)
	}

	if _, err := c.Decode(ctx, []byte(`{"id": 1, "tags": ["a", "b"], "inner": {"x": 1}, "scores": {"x": 1, "y": 2}}`)); err != nil {
		t.Fatalf("same key in sibling objects: %v", err)
	}
	if _, err := c.Decode(ctx, []byte(`{"id": "one"}`)); !errors.Is(err, ps.ErrTypeConstraint) {
		t.Fatalf("string id: %v", err)
	}
	if _, err := c.Decode(ctx, []byte(`[1, 2]`)); !errors.Is(err, ps.ErrTypeConstraint) {
		t.Fatalf("array document: %v", err)
	}
	if _, err := c.Decode(ctx, []byte(`{"id": `)); err == nil {
		t.Fatalf("expected error for truncated input")
	}
}

func TestJSON_DecodeRejectsTrailingData(t *testing.T) {
	ctx := context.Background()
	c := codec.JSON(documentType())

	for _, in := range []string{
		`{"id": 1}{"id": 2}`,
		`{"id": 1} {"id": 2}`,
		`{"id": 1}}`,
		`{"id": 1} 7`,
	} {
		if _, err := c.Decode(ctx, []byte(in)); err == nil {
			t.Fatalf("%s: expected error for trailing data", in)
		}
	}
	if _, err := c.Decode(ctx, []byte("{\"id\": 1}\n  ")); err != nil {
		t.Fatalf("trailing whitespace: %v", err)
	}
}

func TestJSON_Info(t *testing.T) {
	rt := documentType()
	info := codec.JSON(rt).Info()
	doc, _ := rt.SchemaJSON()
	if info.Type != codec.SchemaJSON {
		t.Fatalf("type = %v", info.Type)
	}
	if !bytes.Equal(info.Schema, doc) {
		t.Fatalf("schema %s, want %s", info.Schema, doc)
	}
	if info.Properties["__alwaysAllowNull"] != "true" {
		t.Fatalf("properties = %v", info.Properties)
	}
}
