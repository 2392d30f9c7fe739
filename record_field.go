package pulsarschema

import (
	"github.com/reoring/pulsarschema/avro"
)

// RecordField is a field holding a nested record.
type RecordField struct {
	fieldBase
	rt   *RecordType
	self bool
}

// RecordOf declares a field holding records of rt.
func RecordOf(rt *RecordType, opts ...FieldOption) *RecordField {
	f := &RecordField{rt: rt}
	initField(f, opts)
	return f
}

// Self declares a field holding records of the type being built, for
// recursive structures such as linked lists and trees. Self fields are
// optional unless Required is given; a required self reference can never be
// satisfied.
func Self(opts ...FieldOption) *RecordField {
	f := &RecordField{self: true}
	initField(f, opts)
	return f
}

// RecordType returns the nested record type.
func (f *RecordField) RecordType() *RecordType { return f.rt }

func (f *RecordField) Kind() Kind { return KindRecord }

func (f *RecordField) TypeName() string {
	if f.rt == nil {
		return KindRecord.String()
	}
	return f.rt.name
}

// Validate accepts a *Record of exactly the declared type, or a
// map[string]any which is constructed against it.
func (f *RecordField) Validate(name string, v any) (any, error) {
	if v == nil {
		return nullValue(f, name)
	}
	if f.rt == nil {
		return nil, typeConstraint("", name, f.TypeName(), v)
	}
	switch r := v.(type) {
	case *Record:
		if r == nil {
			return nullValue(f, name)
		}
		if r.rt != f.rt {
			return nil, newError(CodeTypeConstraint, "record_mismatch", Error{Field: name, Expected: f.rt.FullName(), Actual: r.rt.FullName()})
		}
		return r, nil
	case map[string]any:
		rec, err := f.rt.New(r)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, newError(CodeTypeConstraint, "record_mismatch", Error{Field: name, Expected: f.rt.FullName(), Actual: describe(v)})
}

func (f *RecordField) typeNode(d *deriver, ns string) *avro.Schema {
	return d.record(f.rt, ns)
}
