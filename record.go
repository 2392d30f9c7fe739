package pulsarschema

import (
	"bytes"
	"reflect"
	"sort"
)

// Record is an instance of a RecordType. Every stored value has passed its
// field's validation. A Record changes only through Set and is not safe for
// concurrent mutation.
type Record struct {
	rt       *RecordType
	values   map[string]any
	presence map[string]Presence
}

// New constructs a Record from field values. Keys not declared by rt fail
// with CodeUnknownField; absent fields take their default, and an absent
// required field without one fails with CodeRequired. Construction is all or
// nothing.
func (rt *RecordType) New(values map[string]any) (*Record, error) {
	unknown := make([]string, 0)
	for k := range values {
		if _, ok := rt.index[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, newError(CodeUnknownField, "unknown_field", Error{Record: rt.FullName(), Field: unknown[0]})
	}

	r := &Record{
		rt:       rt,
		values:   make(map[string]any, len(rt.fields)),
		presence: make(map[string]Presence, len(rt.fields)),
	}
	for _, e := range rt.fields {
		v, present := values[e.name]
		var stored any
		if present {
			out, err := e.field.Validate(e.name, v)
			if err != nil {
				return nil, withRecord(err, rt)
			}
			stored = out
		} else {
			stored = e.field.Default()
			if stored == nil && e.field.IsRequired() && e.field.Kind() != KindNull {
				return nil, newError(CodeRequired, "required", Error{Record: rt.FullName(), Field: e.name, Expected: e.field.TypeName()})
			}
		}
		r.values[e.name] = stored
		r.presence[e.name] = presenceOf(present, v, stored)
	}
	return r, nil
}

// MustNew is like New but panics on error.
func (rt *RecordType) MustNew(values map[string]any) *Record {
	r, err := rt.New(values)
	if err != nil {
		panic(err)
	}
	return r
}

// withRecord fills in the record name of a field-level error.
func withRecord(err error, rt *RecordType) error {
	if e, ok := err.(*Error); ok && e.Record == "" {
		cp := *e
		cp.Record = rt.FullName()
		return &cp
	}
	return err
}

// Type returns the record's type.
func (r *Record) Type() *RecordType { return r.rt }

// Get returns the value of a declared field.
func (r *Record) Get(name string) (any, bool) {
	if _, ok := r.rt.index[name]; !ok {
		return nil, false
	}
	return r.values[name], true
}

// Set validates v against the field's descriptor and stores it.
func (r *Record) Set(name string, v any) error {
	f, ok := r.rt.Field(name)
	if !ok {
		return newError(CodeUnknownField, "unknown_field", Error{Record: r.rt.FullName(), Field: name})
	}
	out, err := f.Validate(name, v)
	if err != nil {
		return withRecord(err, r.rt)
	}
	r.values[name] = out
	r.presence[name] = presenceOf(true, v, out)
	return nil
}

// Presence reports how a field obtained its value.
func (r *Record) Presence(name string) Presence { return r.presence[name] }

// Fields returns the field names in schema order.
func (r *Record) Fields() []string { return r.rt.Fields() }

// Map returns a shallow copy of the field values.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Plain returns the values in the form the binary codec consumes: enum
// members as symbols and nested records as maps, recursively.
func (r *Record) Plain() map[string]any { return r.wire(false) }

func (r *Record) wire(jsonDefault bool) map[string]any {
	out := make(map[string]any, len(r.rt.fields))
	for _, e := range r.rt.fields {
		out[e.name] = wireValue(e.field, r.values[e.name], jsonDefault)
	}
	return out
}

// Equal reports whether both records have the same type and equal values.
// Presence flags are not compared.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.rt != other.rt {
		return false
	}
	for _, e := range r.rt.fields {
		if !valueEqual(r.values[e.name], other.values[e.name]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch x := a.(type) {
	case *Record:
		y, ok := b.(*Record)
		return ok && x.Equal(y)
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valueEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !valueEqual(xv, yv) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}
