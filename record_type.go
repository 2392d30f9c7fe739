package pulsarschema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/reoring/pulsarschema/avro"
	"github.com/reoring/pulsarschema/internal/logx"
)

// RecordType is a built record definition: a name, an optional namespace and
// an ordered list of named field descriptors. It is immutable and safe for
// concurrent use.
type RecordType struct {
	name      string
	namespace string
	doc       string
	fields    []fieldEntry
	index     map[string]int
	schema    *avro.Schema
}

type fieldEntry struct {
	name  string
	doc   string
	field Field
}

// RecordBuilder collects the definition of a RecordType.
type RecordBuilder struct {
	name      string
	namespace string
	doc       string
	sorted    bool
	fields    []fieldEntry
}

// NewRecord starts a record definition. name may be a dotted full name.
func NewRecord(name string) *RecordBuilder { return &RecordBuilder{name: name} }

// Namespace sets the namespace of the record's schema name.
func (b *RecordBuilder) Namespace(ns string) *RecordBuilder {
	b.namespace = ns
	return b
}

// Doc sets the record documentation string.
func (b *RecordBuilder) Doc(doc string) *RecordBuilder {
	b.doc = doc
	return b
}

// SortedFields orders fields lexicographically by name instead of by
// declaration.
func (b *RecordBuilder) SortedFields() *RecordBuilder {
	b.sorted = true
	return b
}

// Field declares a field.
func (b *RecordBuilder) Field(name string, f Field) *RecordBuilder {
	b.fields = append(b.fields, fieldEntry{name: name, field: f})
	return b
}

// FieldDoc declares a field with a documentation string.
func (b *RecordBuilder) FieldDoc(name, doc string, f Field) *RecordBuilder {
	b.fields = append(b.fields, fieldEntry{name: name, doc: doc, field: f})
	return b
}

// Build validates the definition and returns the RecordType. Every problem
// found is reported; each is an *Error with CodeSchemaDefinition.
func (b *RecordBuilder) Build() (*RecordType, error) {
	rt := &RecordType{
		name:      b.name,
		namespace: b.namespace,
		doc:       b.doc,
		fields:    append([]fieldEntry(nil), b.fields...),
		index:     make(map[string]int, len(b.fields)),
	}
	full := rt.FullName()
	for i, e := range rt.fields {
		rt.fields[i].field = bindSelf(e.field, rt)
	}

	var result *multierror.Error
	short := b.name
	if i := strings.LastIndexByte(short, '.'); i >= 0 {
		short = short[i+1:]
	}
	if !avro.ValidName(short) || !avro.ValidNamespace(b.name) || !avro.ValidNamespace(b.namespace) {
		result = multierror.Append(result, definitionError(full, "", fmt.Errorf("invalid record name %q", full)))
	}
	for _, e := range rt.fields {
		if err := checkField(rt, e); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, e := range rt.fields {
		if _, dup := rt.index[e.name]; dup {
			result = multierror.Append(result, definitionError(full, e.name, fmt.Errorf("duplicate field %q", e.name)))
			continue
		}
		rt.index[e.name] = 0
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	if b.sorted {
		sort.SliceStable(rt.fields, func(i, j int) bool { return rt.fields[i].name < rt.fields[j].name })
	}
	for i, e := range rt.fields {
		rt.index[e.name] = i
	}

	s, conflicts := derive(rt)
	for _, c := range conflicts {
		result = multierror.Append(result, definitionError(full, "", c))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	rt.schema = s
	logx.L().Debug("schema derived", zap.String("record", full), zap.Int("fields", len(rt.fields)))
	return rt, nil
}

// bindSelf returns f with each Self descriptor inside it replaced by a copy
// bound to rt, leaving the caller's descriptor untouched.
func bindSelf(f Field, rt *RecordType) Field {
	switch t := f.(type) {
	case *RecordField:
		if t.self {
			c := *t
			c.rt = rt
			return &c
		}
	case *ArrayField:
		if items := bindSelf(t.items, rt); items != t.items {
			c := *t
			c.items = items
			return &c
		}
	case *MapField:
		if values := bindSelf(t.values, rt); values != t.values {
			c := *t
			c.values = values
			return &c
		}
	}
	return f
}

// MustBuild is like Build but panics on error.
func (b *RecordBuilder) MustBuild() *RecordType {
	rt, err := b.Build()
	if err != nil {
		panic(err)
	}
	return rt
}

func checkField(rt *RecordType, e fieldEntry) error {
	full := rt.FullName()
	if e.field == nil {
		return definitionError(full, e.name, errors.New("nil field descriptor"))
	}
	if !avro.ValidName(e.name) {
		return definitionError(full, e.name, fmt.Errorf("invalid field name %q", e.name))
	}
	return checkDescriptor(rt, e.name, e.field)
}

func checkDescriptor(rt *RecordType, name string, f Field) error {
	record := rt.FullName()
	b := f.base()
	if b.defErr != nil {
		return definitionError(record, name, fmt.Errorf("default does not validate: %w", b.defErr))
	}
	if b.required && b.requiredDefault && f.Default() == nil && f.Kind() != KindNull {
		return definitionError(record, name, errors.New("required field with an embedded default needs a default value"))
	}
	switch t := f.(type) {
	case *ArrayField:
		if t.items == nil {
			return definitionError(record, name, errors.New("array without item descriptor"))
		}
		return checkDescriptor(rt, name, t.items)
	case *MapField:
		if t.values == nil {
			return definitionError(record, name, errors.New("map without value descriptor"))
		}
		return checkDescriptor(rt, name, t.values)
	case *EnumField:
		if t.enum == nil {
			return definitionError(record, name, errors.New("enum field without enum type"))
		}
		if err := t.enum.validate(); err != nil {
			return definitionError(record, name, err)
		}
	case *RecordField:
		if t.rt == nil {
			return definitionError(record, name, errors.New("record field without record type"))
		}
	}
	return nil
}

// Name returns the record name as declared.
func (rt *RecordType) Name() string { return rt.name }

// Namespace returns the explicit namespace, if any.
func (rt *RecordType) Namespace() string { return rt.namespace }

// FullName returns the namespace-qualified name.
func (rt *RecordType) FullName() string { return avro.Qualify(rt.name, rt.namespace) }

// Fields returns the field names in schema order.
func (rt *RecordType) Fields() []string {
	out := make([]string, len(rt.fields))
	for i, e := range rt.fields {
		out[i] = e.name
	}
	return out
}

// Field returns the descriptor of the named field.
func (rt *RecordType) Field(name string) (Field, bool) {
	i, ok := rt.index[name]
	if !ok {
		return nil, false
	}
	return rt.fields[i].field, true
}

// Schema returns the derived schema document. It is computed by Build; the
// returned tree must not be modified.
func (rt *RecordType) Schema() *avro.Schema { return rt.schema }

// SchemaJSON renders the derived schema document.
func (rt *RecordType) SchemaJSON() ([]byte, error) { return rt.Schema().MarshalJSON() }
