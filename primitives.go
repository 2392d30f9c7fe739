package pulsarschema

import (
	"math"
	"unicode/utf8"

	"github.com/reoring/pulsarschema/avro"
)

// PrimitiveField describes null, boolean, int, long, float, double, bytes
// and string fields.
type PrimitiveField struct {
	fieldBase
	kind Kind
}

func newPrimitive(k Kind, opts []FieldOption) *PrimitiveField {
	f := &PrimitiveField{kind: k}
	initField(f, opts)
	return f
}

// Null declares a field that only ever holds null.
func Null(opts ...FieldOption) *PrimitiveField { return newPrimitive(KindNull, opts) }

// Boolean declares a boolean field. Without an explicit default it defaults
// to false.
func Boolean(opts ...FieldOption) *PrimitiveField { return newPrimitive(KindBoolean, opts) }

// Int declares a 32-bit integer field.
func Int(opts ...FieldOption) *PrimitiveField { return newPrimitive(KindInt, opts) }

// Long declares a 64-bit integer field.
func Long(opts ...FieldOption) *PrimitiveField { return newPrimitive(KindLong, opts) }

// Float declares a 32-bit floating point field.
func Float(opts ...FieldOption) *PrimitiveField { return newPrimitive(KindFloat, opts) }

// Double declares a 64-bit floating point field.
func Double(opts ...FieldOption) *PrimitiveField { return newPrimitive(KindDouble, opts) }

// Bytes declares a byte sequence field.
func Bytes(opts ...FieldOption) *PrimitiveField { return newPrimitive(KindBytes, opts) }

// String declares a text field.
func String(opts ...FieldOption) *PrimitiveField { return newPrimitive(KindString, opts) }

func (f *PrimitiveField) Kind() Kind { return f.kind }

func (f *PrimitiveField) TypeName() string { return f.kind.String() }

func (f *PrimitiveField) Default() any {
	if f.kind == KindBoolean && f.def == nil {
		return false
	}
	return f.def
}

func (f *PrimitiveField) Validate(name string, v any) (any, error) {
	if v == nil {
		return nullValue(f, name)
	}
	out, ok := coercePrimitive(f.kind, v)
	if !ok {
		return nil, typeConstraint("", name, f.TypeName(), v)
	}
	return out, nil
}

func (f *PrimitiveField) typeNode(*deriver, string) *avro.Schema {
	return avro.Primitive(f.kind.primitiveType())
}

// coercePrimitive applies the promotion table: integers widen to float and
// double, string and bytes convert both ways, everything else must match.
func coercePrimitive(k Kind, v any) (any, bool) {
	switch k {
	case KindBoolean:
		b, ok := v.(bool)
		return b, ok
	case KindInt:
		i, ok := integer(v)
		if !ok || i < math.MinInt32 || i > math.MaxInt32 {
			return nil, false
		}
		return int32(i), true
	case KindLong:
		i, ok := integer(v)
		if !ok {
			return nil, false
		}
		return i, true
	case KindFloat:
		switch n := v.(type) {
		case float32:
			return n, true
		case float64:
			return float32(n), true
		}
		if i, ok := integer(v); ok {
			return float32(i), true
		}
	case KindDouble:
		switch n := v.(type) {
		case float32:
			return float64(n), true
		case float64:
			return n, true
		}
		if i, ok := integer(v); ok {
			return float64(i), true
		}
	case KindBytes:
		switch b := v.(type) {
		case []byte:
			return b, true
		case string:
			return []byte(b), true
		}
	case KindString:
		switch s := v.(type) {
		case string:
			if utf8.ValidString(s) {
				return s, true
			}
		case []byte:
			if utf8.Valid(s) {
				return string(s), true
			}
		}
	}
	return nil, false
}

// integer extracts the value of any predeclared Go integer type.
func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	}
	return 0, false
}
