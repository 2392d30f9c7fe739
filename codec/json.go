package codec

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sort"

	json "github.com/goccy/go-json"

	ps "github.com/reoring/pulsarschema"
)

// JSONCodec writes records of one RecordType in the text format. Fields are
// written in schema order; bytes are base64, enums their symbol and nested
// records objects. Decoding rejects objects that repeat a key and input
// holding more than one value.
type JSONCodec struct {
	rt *ps.RecordType
}

// JSON returns the text codec for rt.
func JSON(rt *ps.RecordType) *JSONCodec { return &JSONCodec{rt: rt} }

func (c *JSONCodec) Encode(ctx context.Context, r *ps.Record) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkRecord(c.rt, r); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeRecord(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *JSONCodec) Decode(ctx context.Context, data []byte) (*ps.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("codec: unexpected data after the JSON value")
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, mismatch(c.rt.FullName(), "object", raw)
	}
	path, dup, err := duplicateKey(data)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ps.NewError(ps.CodeDuplicateKey, ps.Error{Record: c.rt.FullName(), Field: path})
	}
	return c.rt.New(fromText(c.rt, m))
}

// Info publishes the binary-format document as the definition, which is
// what the schema registry expects for JSON payloads.
func (c *JSONCodec) Info() SchemaInfo { return recordInfo(c.rt, SchemaJSON) }

func writeRecord(buf *bytes.Buffer, r *ps.Record) error {
	buf.WriteByte('{')
	for i, name := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		f, _ := r.Type().Field(name)
		v, _ := r.Get(name)
		if err := writeValue(buf, f, v); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeValue(buf *bytes.Buffer, f ps.Field, v any) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}
	switch t := f.(type) {
	case *ps.RecordField:
		if r, ok := v.(*ps.Record); ok {
			return writeRecord(buf, r)
		}
	case *ps.EnumField:
		if sym, ok := t.EnumType().Symbol(v); ok {
			v = sym
		}
	case *ps.ArrayField:
		if items, ok := v.([]any); ok {
			buf.WriteByte('[')
			for i, it := range items {
				if i > 0 {
					buf.WriteByte(',')
				}
				if err := writeValue(buf, t.Items(), it); err != nil {
					return err
				}
			}
			buf.WriteByte(']')
			return nil
		}
	case *ps.MapField:
		if m, ok := v.(map[string]any); ok {
			buf.WriteByte('{')
			for i, k := range sortedKeys(m) {
				if i > 0 {
					buf.WriteByte(',')
				}
				kb, err := json.Marshal(k)
				if err != nil {
					return err
				}
				buf.Write(kb)
				buf.WriteByte(':')
				if err := writeValue(buf, t.Values(), m[k]); err != nil {
					return err
				}
			}
			buf.WriteByte('}')
			return nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// fromText converts decoded JSON values into the Go values the record
// validator accepts: numbers by field kind and base64 text to bytes.
// Values that do not fit are passed through so that validation reports
// them.
func fromText(rt *ps.RecordType, m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		f, ok := rt.Field(k)
		if !ok {
			out[k] = v
			continue
		}
		out[k] = textValue(f, v)
	}
	return out
}

func textValue(f ps.Field, v any) any {
	if v == nil {
		return nil
	}
	switch t := f.(type) {
	case *ps.PrimitiveField:
		switch t.Kind() {
		case ps.KindInt, ps.KindLong:
			if n, ok := v.(json.Number); ok {
				if i, err := n.Int64(); err == nil {
					return i
				}
			}
		case ps.KindFloat, ps.KindDouble:
			if n, ok := v.(json.Number); ok {
				if x, err := n.Float64(); err == nil {
					return x
				}
			}
		case ps.KindBytes:
			if s, ok := v.(string); ok {
				if b, err := base64.StdEncoding.DecodeString(s); err == nil {
					return b
				}
			}
		}
	case *ps.EnumField:
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i
			}
		}
	case *ps.ArrayField:
		if items, ok := v.([]any); ok {
			out := make([]any, len(items))
			for i, it := range items {
				out[i] = textValue(t.Items(), it)
			}
			return out
		}
	case *ps.MapField:
		if m, ok := v.(map[string]any); ok {
			out := make(map[string]any, len(m))
			for k, mv := range m {
				out[k] = textValue(t.Values(), mv)
			}
			return out
		}
	case *ps.RecordField:
		if m, ok := v.(map[string]any); ok && t.RecordType() != nil {
			return fromText(t.RecordType(), m)
		}
	}
	return v
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
