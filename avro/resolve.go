package avro

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/reoring/pulsarschema/internal/logx"
)

// DecodeWithWriter deserializes data that was written with the writer schema
// and shapes the result after the reader schema.
//
// Writer fields unknown to the reader are skipped. Reader fields the writer
// lacks take the reader default; without a default they become null when the
// field is nullable and fail with a ResolutionError otherwise. Numeric
// promotion (int to long/float/double, long to float/double, float to double)
// and string/bytes conversion are applied. Enum symbols are matched by name,
// falling back to the reader enum default. Named types match by unqualified
// name.
func DecodeWithWriter(writerSchema, readerSchema *Schema, data []byte) (any, error) {
	r := &reader{buf: data}
	v, err := resolveValue(r, writerSchema, readerSchema, "")
	if err != nil {
		return nil, err
	}
	if r.off != len(r.buf) {
		return nil, r.fail(strconv.Itoa(len(r.buf)-r.off) + " trailing bytes")
	}
	return v, nil
}

func resolveValue(r *reader, w, rd *Schema, path string) (any, error) {
	w, rd = w.Target(), rd.Target()

	if w.Type == Union {
		b, err := readBranch(r, w)
		if err != nil {
			return nil, err
		}
		return resolveValue(r, b, rd, path)
	}
	if rd.Type == Union {
		b := matchBranch(w, rd)
		if b == nil {
			return nil, &ResolutionError{Path: path, Writer: w.FullName(), Reader: unionLabel(rd), Msg: "no matching union branch"}
		}
		return resolveValue(r, w, b, path)
	}

	if !matches(w, rd, false) {
		return nil, &ResolutionError{Path: path, Writer: w.FullName(), Reader: rd.FullName(), Msg: "incompatible types"}
	}

	switch rd.Type {
	case Long:
		if w.Type == Int {
			v, err := r.readInt()
			return int64(v), err
		}
	case Float:
		switch w.Type {
		case Int:
			v, err := r.readInt()
			return float32(v), err
		case Long:
			v, err := r.readLong()
			return float32(v), err
		}
	case Double:
		switch w.Type {
		case Int:
			v, err := r.readInt()
			return float64(v), err
		case Long:
			v, err := r.readLong()
			return float64(v), err
		case Float:
			v, err := r.readFloat()
			return float64(v), err
		}
	case String:
		if w.Type == Bytes {
			// same wire layout; the string reader checks UTF-8
			return r.readString()
		}
	case Bytes:
		if w.Type == String {
			return r.readBytes()
		}
	case Enum:
		return resolveEnum(r, w, rd, path)
	case Array:
		return resolveArray(r, w, rd, path)
	case Map:
		return resolveMap(r, w, rd, path)
	case Record:
		return resolveRecord(r, w, rd, path)
	}
	return decodeValue(r, w)
}

func resolveEnum(r *reader, w, rd *Schema, path string) (any, error) {
	idx, err := r.readInt()
	if err != nil {
		return nil, err
	}
	if idx < 0 || int(idx) >= len(w.Symbols) {
		return nil, r.fail("enum ordinal " + strconv.Itoa(int(idx)) + " out of range for " + w.FullName())
	}
	sym := w.Symbols[idx]
	if rd.SymbolIndex(sym) >= 0 {
		return sym, nil
	}
	if rd.EnumDefault != "" {
		logx.L().Debug("enum symbol replaced by reader default",
			zap.String("path", pathOrRoot(path)), zap.String("symbol", sym), zap.String("default", rd.EnumDefault))
		return rd.EnumDefault, nil
	}
	return nil, &ResolutionError{Path: path, Writer: w.FullName(), Reader: rd.FullName(), Msg: "symbol " + strconv.Quote(sym) + " unknown to reader"}
}

func resolveArray(r *reader, w, rd *Schema, path string) (any, error) {
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
			v, err := resolveValue(r, w.Items, rd.Items, path+"/"+strconv.Itoa(len(out)))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
}

func resolveMap(r *reader, w, rd *Schema, path string) (any, error) {
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
			v, err := resolveValue(r, w.Values, rd.Values, path+"/"+k)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
	}
}

func resolveRecord(r *reader, w, rd *Schema, path string) (any, error) {
	out := make(map[string]any, len(rd.Fields))
	seen := make(map[string]bool, len(w.Fields))
	for _, wf := range w.Fields {
		rf := readerField(rd, wf.Name)
		if rf == nil {
			logx.L().Debug("skipping writer field unknown to reader",
				zap.String("record", rd.FullName()), zap.String("field", wf.Name))
			if err := skipValue(r, wf.Type); err != nil {
				return nil, err
			}
			continue
		}
		v, err := resolveValue(r, wf.Type, rf.Type, path+"/"+rf.Name)
		if err != nil {
			return nil, err
		}
		out[rf.Name] = v
		seen[rf.Name] = true
	}
	for _, rf := range rd.Fields {
		if seen[rf.Name] {
			continue
		}
		switch {
		case rf.HasDefault:
			v, err := DefaultValue(rf.Type, rf.Default)
			if err != nil {
				return nil, &ResolutionError{Path: path + "/" + rf.Name, Field: rf.Name, Writer: w.FullName(), Reader: rd.FullName(), Msg: err.Error()}
			}
			logx.L().Debug("reader field filled from default",
				zap.String("record", rd.FullName()), zap.String("field", rf.Name))
			out[rf.Name] = v
		case rf.Type.Nullable():
			out[rf.Name] = nil
		default:
			return nil, &ResolutionError{
				Path:   path + "/" + rf.Name,
				Field:  rf.Name,
				Writer: w.FullName(),
				Reader: rd.FullName(),
				Msg:    "field " + strconv.Quote(rf.Name) + " is missing from the writer and has no default",
			}
		}
	}
	return out, nil
}

// readerField finds the reader field matching a writer field name, directly
// or through the reader field's aliases.
func readerField(rd *Schema, name string) *Field {
	if f, ok := rd.Field(name); ok {
		return f
	}
	for _, f := range rd.Fields {
		for _, a := range f.Aliases {
			if a == name {
				return f
			}
		}
	}
	return nil
}

// matchBranch picks the reader union branch for a non-union writer schema:
// the first identical branch, else the first promotable one.
func matchBranch(w *Schema, u *Schema) *Schema {
	for _, b := range u.Branches {
		if matches(w, b.Target(), true) {
			return b
		}
	}
	for _, b := range u.Branches {
		if matches(w, b.Target(), false) {
			return b
		}
	}
	return nil
}

// matches reports whether data written with w can be read as rd. With exact
// set, promotions are not considered.
func matches(w, rd *Schema, exact bool) bool {
	w, rd = w.Target(), rd.Target()
	if w.Type == Union {
		for _, b := range w.Branches {
			if matches(b, rd, exact) {
				return true
			}
		}
		return false
	}
	if rd.Type == Union {
		return matchBranch(w, rd) != nil
	}
	if w.Type == rd.Type {
		switch w.Type {
		case Record, Enum:
			return w.ShortName() == rd.ShortName() || aliased(rd, w)
		case Fixed:
			return (w.ShortName() == rd.ShortName() || aliased(rd, w)) && w.Size == rd.Size
		case Array:
			return matches(w.Items, rd.Items, false)
		case Map:
			return matches(w.Values, rd.Values, false)
		}
		return true
	}
	if exact {
		return false
	}
	switch w.Type {
	case Int:
		return rd.Type == Long || rd.Type == Float || rd.Type == Double
	case Long:
		return rd.Type == Float || rd.Type == Double
	case Float:
		return rd.Type == Double
	case String:
		return rd.Type == Bytes
	case Bytes:
		return rd.Type == String
	}
	return false
}

func aliased(rd, w *Schema) bool {
	for _, a := range rd.Aliases {
		if a == w.FullName() || a == w.ShortName() {
			return true
		}
	}
	return false
}
