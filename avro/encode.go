package avro

import (
	"math"
	"sort"
	"strconv"
)

// Encode serializes v with schema s.
//
// Accepted values: nil (null), bool, any Go integer (int, long; also widened
// for float and double), float32/float64, []byte or string (bytes, string,
// fixed), string symbols (enum), slices (array), string-keyed maps (map) and
// map[string]any (record; missing fields take the field default). Union
// values are matched against the branches in order.
func Encode(s *Schema, v any) ([]byte, error) {
	return AppendEncode(nil, s, v)
}

// AppendEncode is like Encode but appends to dst.
func AppendEncode(dst []byte, s *Schema, v any) ([]byte, error) {
	w := &writer{buf: dst}
	if err := encodeValue(w, s, v, ""); err != nil {
		return nil, err
	}
	return w.buf, nil
}

func encodeValue(w *writer, s *Schema, v any, path string) error {
	s = s.Target()
	switch s.Type {
	case Null:
		if v != nil {
			return &ValueError{Path: path, Expected: "null", Actual: typeOf(v)}
		}
		return nil
	case Boolean:
		b, ok := v.(bool)
		if !ok {
			return &ValueError{Path: path, Expected: "boolean", Actual: typeOf(v)}
		}
		w.writeBool(b)
		return nil
	case Int:
		i, ok := asInt64(v)
		if !ok || i < math.MinInt32 || i > math.MaxInt32 {
			return &ValueError{Path: path, Expected: "int", Actual: typeOf(v)}
		}
		w.writeInt(int32(i))
		return nil
	case Long:
		i, ok := asInt64(v)
		if !ok {
			return &ValueError{Path: path, Expected: "long", Actual: typeOf(v)}
		}
		w.writeLong(i)
		return nil
	case Float:
		f, ok := asFloat64(v)
		if !ok {
			return &ValueError{Path: path, Expected: "float", Actual: typeOf(v)}
		}
		w.writeFloat(float32(f))
		return nil
	case Double:
		f, ok := asFloat64(v)
		if !ok {
			return &ValueError{Path: path, Expected: "double", Actual: typeOf(v)}
		}
		w.writeDouble(f)
		return nil
	case Bytes:
		b, ok := asBytes(v)
		if !ok {
			return &ValueError{Path: path, Expected: "bytes", Actual: typeOf(v)}
		}
		w.writeBytes(b)
		return nil
	case String:
		str, ok := asString(v)
		if !ok {
			actual := typeOf(v)
			switch v.(type) {
			case string, []byte:
				actual = "invalid UTF-8"
			}
			return &ValueError{Path: path, Expected: "string", Actual: actual}
		}
		w.writeString(str)
		return nil
	case Fixed:
		b, ok := asBytes(v)
		if !ok || len(b) != s.Size {
			return &ValueError{Path: path, Expected: "fixed " + s.FullName() + " of size " + strconv.Itoa(s.Size), Actual: typeOf(v)}
		}
		w.buf = append(w.buf, b...)
		return nil
	case Enum:
		sym, ok := v.(string)
		idx := -1
		if ok {
			idx = s.SymbolIndex(sym)
		}
		if idx < 0 {
			return &ValueError{Path: path, Expected: "symbol of " + s.FullName(), Actual: describe(v)}
		}
		w.writeInt(int32(idx))
		return nil
	case Array:
		items, ok := asSlice(v)
		if !ok {
			return &ValueError{Path: path, Expected: "array", Actual: typeOf(v)}
		}
		if len(items) > 0 {
			w.writeLong(int64(len(items)))
			for i, it := range items {
				if err := encodeValue(w, s.Items, it, path+"/"+strconv.Itoa(i)); err != nil {
					return err
				}
			}
		}
		w.writeLong(0)
		return nil
	case Map:
		m, ok := asStringMap(v)
		if !ok {
			return &ValueError{Path: path, Expected: "map", Actual: typeOf(v)}
		}
		if len(m) > 0 {
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			w.writeLong(int64(len(keys)))
			for _, k := range keys {
				w.writeString(k)
				if err := encodeValue(w, s.Values, m[k], path+"/"+k); err != nil {
					return err
				}
			}
		}
		w.writeLong(0)
		return nil
	case Record:
		m, ok := v.(map[string]any)
		if !ok {
			return &ValueError{Path: path, Expected: "record " + s.FullName(), Actual: typeOf(v)}
		}
		if k, ok := unknownKey(s, m); ok {
			return &ValueError{Path: path + "/" + k, Expected: "field of " + s.FullName(), Actual: "undeclared key"}
		}
		for _, f := range s.Fields {
			fv, present := m[f.Name]
			if !present && f.HasDefault {
				dv, err := DefaultValue(f.Type, f.Default)
				if err != nil {
					return &ValueError{Path: path + "/" + f.Name, Expected: string(f.Type.Type), Actual: "invalid default"}
				}
				fv = dv
			}
			if err := encodeValue(w, f.Type, fv, path+"/"+f.Name); err != nil {
				return err
			}
		}
		return nil
	case Union:
		idx := selectBranch(s, v)
		if idx < 0 {
			return &ValueError{Path: path, Expected: unionLabel(s), Actual: typeOf(v)}
		}
		w.writeLong(int64(idx))
		return encodeValue(w, s.Branches[idx], v, path)
	}
	return &ValueError{Path: path, Expected: string(s.Type), Actual: typeOf(v)}
}

// selectBranch picks the first union branch that can hold v. Exact kinds are
// preferred over widening so that an int64 lands in "long" rather than
// "float" when both are present.
func selectBranch(u *Schema, v any) int {
	if v == nil {
		for i, b := range u.Branches {
			if b.Type == Null {
				return i
			}
		}
		return -1
	}
	for i, b := range u.Branches {
		if accepts(b, v, true) {
			return i
		}
	}
	for i, b := range u.Branches {
		if accepts(b, v, false) {
			return i
		}
	}
	return -1
}

func accepts(s *Schema, v any, exact bool) bool {
	s = s.Target()
	switch s.Type {
	case Null:
		return v == nil
	case Boolean:
		_, ok := v.(bool)
		return ok
	case Int:
		if exact {
			switch v.(type) {
			case int32, int16, int8, uint8, uint16:
				return true
			}
			return false
		}
		i, ok := asInt64(v)
		return ok && i >= math.MinInt32 && i <= math.MaxInt32
	case Long:
		if exact {
			switch v.(type) {
			case int64, int, uint32:
				return true
			}
			return false
		}
		_, ok := asInt64(v)
		return ok
	case Float:
		if exact {
			_, ok := v.(float32)
			return ok
		}
		_, ok := asFloat64(v)
		return ok
	case Double:
		if exact {
			_, ok := v.(float64)
			return ok
		}
		_, ok := asFloat64(v)
		return ok
	case String:
		if _, ok := v.(string); !ok && exact {
			return false
		}
		_, ok := asString(v)
		return ok
	case Bytes:
		_, ok := v.([]byte)
		if !ok && !exact {
			_, ok = v.(string)
		}
		return ok
	case Fixed:
		b, ok := v.([]byte)
		return ok && len(b) == s.Size
	case Enum:
		sym, ok := v.(string)
		return ok && s.SymbolIndex(sym) >= 0
	case Array:
		_, ok := asSlice(v)
		return ok
	case Map:
		_, ok := asStringMap(v)
		return ok
	case Record:
		m, ok := v.(map[string]any)
		if !ok {
			return false
		}
		if _, unknown := unknownKey(s, m); unknown {
			return false
		}
		if !exact {
			return true
		}
		for _, f := range s.Fields {
			if _, present := m[f.Name]; !present && !f.HasDefault && !f.Type.Nullable() {
				return false
			}
		}
		return true
	}
	return false
}

// unknownKey returns the smallest key of m that names no field of record s.
func unknownKey(s *Schema, m map[string]any) (string, bool) {
	var out string
	found := false
	for k := range m {
		if _, known := s.Field(k); !known && (!found || k < out) {
			out, found = k, true
		}
	}
	return out, found
}

func unionLabel(u *Schema) string {
	out := "union["
	for i, b := range u.Branches {
		if i > 0 {
			out += ","
		}
		out += b.FullName()
	}
	return out + "]"
}

func describe(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return typeOf(v)
}
