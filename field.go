package pulsarschema

import (
	"github.com/reoring/pulsarschema/avro"
)

// Field is a field descriptor: the declared kind of a record field together
// with its required/default settings. Descriptors are created with the
// constructors in this package (Int, String, Array, EnumOf, RecordOf, ...)
// and are immutable once constructed.
type Field interface {
	// Kind reports the type family.
	Kind() Kind
	// TypeName is the name used in messages: the kind for primitives and
	// collections, the type name for enums and records.
	TypeName() string
	// IsRequired reports whether null values are rejected.
	IsRequired() bool
	// HasRequiredDefault reports whether the default is embedded in the
	// derived schema.
	HasRequiredDefault() bool
	// Default returns the value an absent or null optional field takes.
	Default() any
	// Validate checks v against the descriptor and returns the value to
	// store, after coercion.
	Validate(name string, v any) (any, error)

	base() *fieldBase
	typeNode(d *deriver, namespace string) *avro.Schema
}

// FieldOption configures a descriptor at construction.
type FieldOption func(*fieldBase)

// Required rejects null values and makes absence an error unless a default
// exists.
func Required() FieldOption { return func(b *fieldBase) { b.required = true } }

// Default sets the declared default. It must pass the descriptor's own
// validation; otherwise the record that declares the field fails to build.
func Default(v any) FieldOption {
	return func(b *fieldBase) {
		b.def = v
		b.hasDefault = true
	}
}

// RequiredDefault embeds the default in the derived schema so that readers
// of older data can fill the field.
func RequiredDefault() FieldOption { return func(b *fieldBase) { b.requiredDefault = true } }

type fieldBase struct {
	required        bool
	requiredDefault bool
	hasDefault      bool
	def             any
	defErr          error
}

func (b *fieldBase) base() *fieldBase { return b }

func (b *fieldBase) IsRequired() bool { return b.required }

func (b *fieldBase) HasRequiredDefault() bool { return b.requiredDefault }

func (b *fieldBase) Default() any { return b.def }

// initField applies opts and coerces the declared default through the
// descriptor's own validation. A failure is kept for Build to report.
func initField(f Field, opts []FieldOption) {
	b := f.base()
	for _, o := range opts {
		if o != nil {
			o(b)
		}
	}
	if !b.hasDefault || b.def == nil {
		return
	}
	v, err := f.Validate("default", b.def)
	if err != nil {
		b.defErr = err
		b.def = nil
		return
	}
	b.def = v
}

// nullValue handles an explicit nil for any descriptor.
func nullValue(f Field, name string) (any, error) {
	if f.Kind() == KindNull {
		return nil, nil
	}
	if !f.IsRequired() {
		return f.Default(), nil
	}
	return nil, newError(CodeTypeConstraint, "null_not_allowed", Error{Field: name, Expected: f.TypeName(), Actual: "null"})
}
