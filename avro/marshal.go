package avro

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// MarshalJSON renders the document in the standard JSON form. Key order is
// fixed so the same tree always yields the same bytes: named types are written
// as "type", "name", "namespace", ... and references as their qualified name.
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeSchema(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String renders s as JSON; malformed trees render as an empty string.
func (s *Schema) String() string {
	b, err := s.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

func writeSchema(buf *bytes.Buffer, s *Schema) error {
	if s == nil {
		buf.WriteString("null")
		return nil
	}
	if s.Ref != "" {
		return writeJSONString(buf, s.Ref)
	}
	switch s.Type {
	case Union:
		buf.WriteByte('[')
		for i, b := range s.Branches {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeSchema(buf, b); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case Null, Boolean, Int, Long, Float, Double, Bytes, String:
		if s.LogicalType == "" {
			return writeJSONString(buf, string(s.Type))
		}
	}

	o := objectWriter{buf: buf}
	o.open()
	o.str("type", string(s.Type))
	if s.Type.IsNamed() {
		o.str("name", s.Name)
		if s.Namespace != "" {
			o.str("namespace", s.Namespace)
		}
		if s.Doc != "" {
			o.str("doc", s.Doc)
		}
		if len(s.Aliases) > 0 {
			o.any("aliases", s.Aliases)
		}
	}
	if s.LogicalType != "" {
		o.str("logicalType", s.LogicalType)
	}
	switch s.Type {
	case Array:
		o.key("items")
		if err := writeSchema(buf, s.Items); err != nil {
			return err
		}
	case Map:
		o.key("values")
		if err := writeSchema(buf, s.Values); err != nil {
			return err
		}
	case Enum:
		syms := s.Symbols
		if syms == nil {
			syms = []string{}
		}
		o.any("symbols", syms)
		if s.EnumDefault != "" {
			o.str("default", s.EnumDefault)
		}
	case Fixed:
		o.any("size", s.Size)
	case Record:
		o.key("fields")
		buf.WriteByte('[')
		for i, f := range s.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeField(buf, f); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	o.close()
	return o.err
}

func writeField(buf *bytes.Buffer, f *Field) error {
	o := objectWriter{buf: buf}
	o.open()
	o.str("name", f.Name)
	o.key("type")
	if err := writeSchema(buf, f.Type); err != nil {
		return err
	}
	if f.Doc != "" {
		o.str("doc", f.Doc)
	}
	if f.HasDefault {
		o.any("default", f.Default)
	}
	if f.Order != "" {
		o.str("order", f.Order)
	}
	if len(f.Aliases) > 0 {
		o.any("aliases", f.Aliases)
	}
	o.close()
	return o.err
}

type objectWriter struct {
	buf *bytes.Buffer
	n   int
	err error
}

func (o *objectWriter) open()  { o.buf.WriteByte('{') }
func (o *objectWriter) close() { o.buf.WriteByte('}') }

func (o *objectWriter) key(k string) {
	if o.n > 0 {
		o.buf.WriteByte(',')
	}
	o.n++
	_ = writeJSONString(o.buf, k)
	o.buf.WriteByte(':')
}

func (o *objectWriter) str(k, v string) {
	o.key(k)
	if err := writeJSONString(o.buf, v); err != nil && o.err == nil {
		o.err = err
	}
}

func (o *objectWriter) any(k string, v any) {
	o.key(k)
	b, err := json.Marshal(v)
	if err != nil {
		if o.err == nil {
			o.err = err
		}
		o.buf.WriteString("null")
		return
	}
	o.buf.Write(b)
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
