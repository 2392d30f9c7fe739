package avro

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

// asInt64 extracts an integral value from any Go integer type or an integral
// json.Number. Floating point values are never narrowed.
func asInt64(v any) (int64, bool) {
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
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}

// asFloat64 extracts a floating point value, widening integers.
func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	}
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

// asBytes accepts []byte and string.
func asBytes(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	}
	return nil, false
}

// asString accepts string and []byte holding valid UTF-8.
func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, utf8.ValidString(s)
	case []byte:
		return string(s), utf8.Valid(s)
	}
	return "", false
}

// asSlice accepts []any and any other slice or array kind.
func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asStringMap accepts map[string]any and any map with string keys.
func asStringMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// DefaultValue converts a JSON-native default into the runtime value the
// decoder would produce for s. Union defaults apply to the first branch.
func DefaultValue(s *Schema, raw any) (any, error) {
	s = s.Target()
	switch s.Type {
	case Union:
		if len(s.Branches) == 0 {
			return nil, fmt.Errorf("default for empty union")
		}
		return DefaultValue(s.Branches[0], raw)
	case Null:
		if raw != nil {
			return nil, fmt.Errorf("default %v is not null", raw)
		}
		return nil, nil
	case Boolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("default %v is not a boolean", raw)
		}
		return b, nil
	case Int:
		i, ok := asInt64(raw)
		if !ok || i < math.MinInt32 || i > math.MaxInt32 {
			return nil, fmt.Errorf("default %v is not an int", raw)
		}
		return int32(i), nil
	case Long:
		i, ok := asInt64(raw)
		if !ok {
			return nil, fmt.Errorf("default %v is not a long", raw)
		}
		return i, nil
	case Float:
		f, ok := asFloat64(raw)
		if !ok {
			return nil, fmt.Errorf("default %v is not a float", raw)
		}
		return float32(f), nil
	case Double:
		f, ok := asFloat64(raw)
		if !ok {
			return nil, fmt.Errorf("default %v is not a double", raw)
		}
		return f, nil
	case String:
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("default %v is not a string", raw)
		}
		return str, nil
	case Bytes, Fixed:
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("default %v is not a byte string", raw)
		}
		b, err := latin1(str)
		if err != nil {
			return nil, err
		}
		if s.Type == Fixed && len(b) != s.Size {
			return nil, fmt.Errorf("default has %d bytes, fixed %s needs %d", len(b), s.FullName(), s.Size)
		}
		return b, nil
	case Enum:
		sym, ok := raw.(string)
		if !ok || s.SymbolIndex(sym) < 0 {
			return nil, fmt.Errorf("default %v is not a symbol of %s", raw, s.FullName())
		}
		return sym, nil
	case Array:
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("default %v is not an array", raw)
		}
		out := make([]any, len(items))
		for i, it := range items {
			v, err := DefaultValue(s.Items, it)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case Map:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("default %v is not a map", raw)
		}
		out := make(map[string]any, len(m))
		for k, mv := range m {
			v, err := DefaultValue(s.Values, mv)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case Record:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("default %v is not a record", raw)
		}
		out := make(map[string]any, len(s.Fields))
		for _, f := range s.Fields {
			fv, present := m[f.Name]
			if !present {
				if !f.HasDefault {
					return nil, fmt.Errorf("default for %s lacks field %q", s.FullName(), f.Name)
				}
				fv = f.Default
			}
			v, err := DefaultValue(f.Type, fv)
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported default for %s", s.Type)
}

// latin1 maps each code point of s to one byte, the binary format's
// convention for bytes and fixed defaults.
func latin1(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return nil, fmt.Errorf("default byte string contains code point U+%04X", r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

// Latin1String renders b as the JSON string used for bytes defaults.
func Latin1String(b []byte) string {
	rs := make([]rune, len(b))
	for i, c := range b {
		rs[i] = rune(c)
	}
	return string(rs)
}
