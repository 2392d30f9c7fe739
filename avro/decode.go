package avro

import "strconv"

// Decode deserializes data written with schema s. Records decode to
// map[string]any, enums to their symbol, unions to the value of the selected
// branch, arrays to []any, maps to map[string]any and fixed to []byte.
func Decode(s *Schema, data []byte) (any, error) {
	r := &reader{buf: data}
	v, err := decodeValue(r, s)
	if err != nil {
		return nil, err
	}
	if r.off != len(r.buf) {
		return nil, r.fail(strconv.Itoa(len(r.buf)-r.off) + " trailing bytes")
	}
	return v, nil
}

func decodeValue(r *reader, s *Schema) (any, error) {
	s = s.Target()
	switch s.Type {
	case Null:
		return nil, nil
	case Boolean:
		return r.readBool()
	case Int:
		return r.readInt()
	case Long:
		return r.readLong()
	case Float:
		return r.readFloat()
	case Double:
		return r.readDouble()
	case Bytes:
		return r.readBytes()
	case String:
		return r.readString()
	case Fixed:
		return r.readFixed(s.Size)
	case Enum:
		idx, err := r.readInt()
		if err != nil {
			return nil, err
		}
		if idx < 0 || int(idx) >= len(s.Symbols) {
			return nil, r.fail("enum ordinal " + strconv.Itoa(int(idx)) + " out of range for " + s.FullName())
		}
		return s.Symbols[idx], nil
	case Array:
		out := []any{}
		for {
			n, err := r.readBlockCount()
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return out, nil
			}
			for i := int64(0); i < n; i++ {
				v, err := decodeValue(r, s.Items)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
		}
	case Map:
		out := map[string]any{}
		for {
			n, err := r.readBlockCount()
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return out, nil
			}
			for i := int64(0); i < n; i++ {
				k, err := r.readString()
				if err != nil {
					return nil, err
				}
				v, err := decodeValue(r, s.Values)
				if err != nil {
					return nil, err
				}
				out[k] = v
			}
		}
	case Record:
		out := make(map[string]any, len(s.Fields))
		for _, f := range s.Fields {
			v, err := decodeValue(r, f.Type)
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
		return out, nil
	case Union:
		b, err := readBranch(r, s)
		if err != nil {
			return nil, err
		}
		return decodeValue(r, b)
	}
	return nil, r.fail("unsupported type " + string(s.Type))
}

func readBranch(r *reader, u *Schema) (*Schema, error) {
	idx, err := r.readLong()
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= int64(len(u.Branches)) {
		return nil, r.fail("union branch " + strconv.FormatInt(idx, 10) + " out of range")
	}
	return u.Branches[idx], nil
}

// skipValue advances past a value written with s without materializing it.
func skipValue(r *reader, s *Schema) error {
	s = s.Target()
	switch s.Type {
	case Null:
		return nil
	case Boolean:
		return r.skip(1)
	case Int, Long, Enum:
		_, err := r.readLong()
		return err
	case Float:
		return r.skip(4)
	case Double:
		return r.skip(8)
	case Bytes, String:
		n, err := r.readLong()
		if err != nil {
			return err
		}
		if n < 0 || n > int64(len(r.buf)-r.off) {
			return r.fail("invalid length")
		}
		return r.skip(int(n))
	case Fixed:
		return r.skip(s.Size)
	case Array, Map:
		for {
			n, err := r.readLong()
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
			if n < 0 {
				size, err := r.readLong()
				if err != nil {
					return err
				}
				if size < 0 || size > int64(len(r.buf)-r.off) {
					return r.fail("invalid block size")
				}
				if err := r.skip(int(size)); err != nil {
					return err
				}
				continue
			}
			for i := int64(0); i < n; i++ {
				if s.Type == Map {
					if err := skipValue(r, Primitive(String)); err != nil {
						return err
					}
					if err := skipValue(r, s.Values); err != nil {
						return err
					}
					continue
				}
				if err := skipValue(r, s.Items); err != nil {
					return err
				}
			}
		}
	case Record:
		for _, f := range s.Fields {
			if err := skipValue(r, f.Type); err != nil {
				return err
			}
		}
		return nil
	case Union:
		b, err := readBranch(r, s)
		if err != nil {
			return err
		}
		return skipValue(r, b)
	}
	return r.fail("unsupported type " + string(s.Type))
}
