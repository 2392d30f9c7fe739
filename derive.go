package pulsarschema

import (
	"fmt"
	"strings"

	"github.com/reoring/pulsarschema/avro"
)

// deriver turns RecordTypes into schema documents. Each named type is
// defined in full at its first occurrence and referenced by name afterwards;
// records are registered before their fields are visited, so recursive
// types terminate. A qualified name belongs to the first RecordType or
// EnumType that claims it; a different type claiming it again is a conflict.
type deriver struct {
	names     *avro.Names
	owners    map[string]any
	conflicts []error
}

func derive(rt *RecordType) (*avro.Schema, []error) {
	d := &deriver{names: avro.NewNames(), owners: map[string]any{}}
	s := d.record(rt, "")
	return s, d.conflicts
}

// scope returns the namespace a named type defines for its children.
func scope(name, explicit, enclosing string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	if explicit != "" {
		return explicit
	}
	return enclosing
}

// lookupOrRegister reports the qualified name and, when the type is already
// defined, a reference node written relative to the enclosing namespace.
func (d *deriver) lookupOrRegister(name, ns, enclosing string, owner any) (string, *avro.Schema) {
	short := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		short = name[i+1:]
	}
	q, first := d.names.Register(short, ns)
	if first {
		d.owners[q] = owner
		return q, nil
	}
	if d.owners[q] != owner {
		d.conflicts = append(d.conflicts, fmt.Errorf("name %q is defined by two different types", q))
	}
	target, _ := d.names.Lookup(q)
	return q, avro.Reference(avro.RelativeName(q, enclosing), target)
}

func (d *deriver) record(rt *RecordType, enclosing string) *avro.Schema {
	ns := scope(rt.name, rt.namespace, enclosing)
	q, ref := d.lookupOrRegister(rt.name, ns, enclosing, rt)
	if ref != nil {
		return ref
	}
	node := avro.NewRecord(rt.name, rt.namespace).WithinNamespace(enclosing)
	node.Doc = rt.doc
	d.names.Bind(q, node)
	node.Fields = make([]*avro.Field, 0, len(rt.fields))
	for _, e := range rt.fields {
		node.Fields = append(node.Fields, d.field(e, ns))
	}
	return node
}

func (d *deriver) enum(e *EnumType, enclosing string) *avro.Schema {
	ns := scope(e.name, e.namespace, enclosing)
	q, ref := d.lookupOrRegister(e.name, ns, enclosing, e)
	if ref != nil {
		return ref
	}
	node := avro.NewEnum(e.name, e.namespace, e.Symbols()).WithinNamespace(enclosing)
	node.Doc = e.doc
	node.EnumDefault = e.fallback
	d.names.Bind(q, node)
	return node
}

// field renders one record field. Optional fields become ["null", T];
// required ones are bare. RequiredDefault embeds the default, and an
// optional field whose default is not null is written as [T, "null"] so
// the default matches the first branch.
func (d *deriver) field(e fieldEntry, ns string) *avro.Field {
	f := e.field
	t := f.typeNode(d, ns)
	out := &avro.Field{Name: e.name, Doc: e.doc}

	switch {
	case f.Kind() == KindNull || f.IsRequired():
		out.Type = t
		if f.HasRequiredDefault() {
			out.HasDefault = true
			out.Default = wireValue(f, f.Default(), true)
		}
	case f.HasRequiredDefault() && f.Default() != nil:
		out.Type = avro.NewUnion(t, avro.Primitive(avro.Null))
		out.HasDefault = true
		out.Default = wireValue(f, f.Default(), true)
	default:
		out.Type = avro.NewUnion(avro.Primitive(avro.Null), t)
		if f.HasRequiredDefault() {
			out.HasDefault = true
		}
	}
	return out
}

// wireValue converts a validated value into the plain form the binary
// codec consumes: enums become symbols and records become maps. With
// jsonDefault set, bytes become the latin-1 strings used in schema defaults.
func wireValue(f Field, v any, jsonDefault bool) any {
	if v == nil {
		return nil
	}
	switch t := f.(type) {
	case *EnumField:
		if sym, ok := t.enum.Symbol(v); ok {
			return sym
		}
	case *RecordField:
		if r, ok := v.(*Record); ok {
			return r.wire(jsonDefault)
		}
	case *ArrayField:
		if items, ok := v.([]any); ok {
			out := make([]any, len(items))
			for i, it := range items {
				out[i] = wireValue(t.items, it, jsonDefault)
			}
			return out
		}
	case *MapField:
		if m, ok := v.(map[string]any); ok {
			out := make(map[string]any, len(m))
			for k, mv := range m {
				out[k] = wireValue(t.values, mv, jsonDefault)
			}
			return out
		}
	case *PrimitiveField:
		if b, ok := v.([]byte); ok && jsonDefault {
			return avro.Latin1String(b)
		}
	}
	return v
}
