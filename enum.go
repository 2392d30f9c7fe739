package pulsarschema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/reoring/pulsarschema/avro"
)

// Integer is the set of Go types an enum can be declared over.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// EnumMember pairs a symbol with its native Go value.
type EnumMember[T Integer] struct {
	Symbol string
	Value  T
}

// Member declares one symbol of an enum.
func Member[T Integer](symbol string, value T) EnumMember[T] {
	return EnumMember[T]{Symbol: symbol, Value: value}
}

// EnumType binds a native Go enum type to an ordered symbol table. Fields of
// kind enum hold values of the bound Go type.
//
//	type Color int
//	const (Red Color = iota + 1; Green; Blue)
//	colors := pulsarschema.NewEnum("Color",
//	    pulsarschema.Member("red", Red),
//	    pulsarschema.Member("green", Green),
//	    pulsarschema.Member("blue", Blue))
type EnumType struct {
	name      string
	namespace string
	doc       string
	fallback  string
	goType    reflect.Type
	symbols   []string
	values    []any
	ints      []int64
}

// NewEnum creates an enum binding. Symbol order is member order. Invalid
// names or duplicate symbols are reported when a record declaring the enum
// is built.
func NewEnum[T Integer](name string, members ...EnumMember[T]) *EnumType {
	e := &EnumType{name: name, goType: reflect.TypeOf((*T)(nil)).Elem()}
	for _, m := range members {
		e.symbols = append(e.symbols, m.Symbol)
		e.values = append(e.values, m.Value)
		e.ints = append(e.ints, toInt64(reflect.ValueOf(m.Value)))
	}
	return e
}

// WithNamespace sets the namespace of the enum's schema name.
func (e *EnumType) WithNamespace(ns string) *EnumType {
	e.namespace = ns
	return e
}

// WithDoc sets the documentation string of the enum schema.
func (e *EnumType) WithDoc(doc string) *EnumType {
	e.doc = doc
	return e
}

// WithFallback names the symbol readers use for symbols they do not know.
func (e *EnumType) WithFallback(symbol string) *EnumType {
	e.fallback = symbol
	return e
}

// Name returns the enum's name as declared.
func (e *EnumType) Name() string { return e.name }

// Namespace returns the explicit namespace, if any.
func (e *EnumType) Namespace() string { return e.namespace }

// Symbols returns the ordered symbol table.
func (e *EnumType) Symbols() []string { return append([]string(nil), e.symbols...) }

// GoType returns the bound native type.
func (e *EnumType) GoType() reflect.Type { return e.goType }

// Symbol returns the symbol of a native value, symbol name or underlying
// integer.
func (e *EnumType) Symbol(v any) (string, bool) {
	i, ok := e.index(v)
	if !ok {
		return "", false
	}
	return e.symbols[i], true
}

// Value returns the native value bound to symbol.
func (e *EnumType) Value(symbol string) (any, bool) {
	for i, s := range e.symbols {
		if s == symbol {
			return e.values[i], true
		}
	}
	return nil, false
}

// index resolves v to a member. Values of other named types are rejected
// even when their integer value collides with a member.
func (e *EnumType) index(v any) (int, bool) {
	if v == nil {
		return 0, false
	}
	if sym, ok := v.(string); ok {
		for i, s := range e.symbols {
			if s == sym {
				return i, true
			}
		}
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type() == e.goType:
	case rv.Type().PkgPath() == "" && isIntegerKind(rv.Kind()):
		// predeclared integer: matched by underlying value
	default:
		return 0, false
	}
	n := toInt64(rv)
	for i, x := range e.ints {
		if x == n {
			return i, true
		}
	}
	return 0, false
}

func (e *EnumType) validate() error {
	var errs []string
	short := e.name
	if i := strings.LastIndexByte(short, '.'); i >= 0 {
		short = short[i+1:]
	}
	if !avro.ValidName(short) || !avro.ValidNamespace(e.name) || !avro.ValidNamespace(e.namespace) {
		errs = append(errs, fmt.Sprintf("invalid enum name %q", avro.Qualify(e.name, e.namespace)))
	}
	if len(e.symbols) == 0 {
		errs = append(errs, fmt.Sprintf("enum %s has no symbols", e.name))
	}
	seen := map[string]bool{}
	seenInt := map[int64]bool{}
	for i, s := range e.symbols {
		if !avro.ValidName(s) {
			errs = append(errs, fmt.Sprintf("enum %s: invalid symbol %q", e.name, s))
		}
		if seen[s] {
			errs = append(errs, fmt.Sprintf("enum %s: duplicate symbol %q", e.name, s))
		}
		if seenInt[e.ints[i]] {
			errs = append(errs, fmt.Sprintf("enum %s: duplicate value %d", e.name, e.ints[i]))
		}
		seen[s] = true
		seenInt[e.ints[i]] = true
	}
	if e.fallback != "" && !seen[e.fallback] {
		errs = append(errs, fmt.Sprintf("enum %s: fallback %q is not a symbol", e.name, e.fallback))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func toInt64(rv reflect.Value) int64 {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	}
	return rv.Int()
}

// EnumField is a field bound to an EnumType.
type EnumField struct {
	fieldBase
	enum *EnumType
}

// EnumOf declares a field holding members of e.
func EnumOf(e *EnumType, opts ...FieldOption) *EnumField {
	f := &EnumField{enum: e}
	initField(f, opts)
	return f
}

// EnumType returns the bound enum.
func (f *EnumField) EnumType() *EnumType { return f.enum }

func (f *EnumField) Kind() Kind { return KindEnum }

func (f *EnumField) TypeName() string {
	if f.enum == nil {
		return KindEnum.String()
	}
	return f.enum.name
}

// Validate accepts a value of the bound Go type, a symbol name or a plain
// integer, and returns the native value.
func (f *EnumField) Validate(name string, v any) (any, error) {
	if v == nil {
		return nullValue(f, name)
	}
	if f.enum == nil {
		return nil, typeConstraint("", name, f.TypeName(), v)
	}
	i, ok := f.enum.index(v)
	if !ok {
		return nil, newError(CodeTypeConstraint, "enum_mismatch", Error{Field: name, Expected: f.enum.name, Actual: describeValue(v)})
	}
	return f.enum.values[i], nil
}

func (f *EnumField) typeNode(d *deriver, ns string) *avro.Schema {
	return d.enum(f.enum, ns)
}

func describeValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v (%T)", v, v)
}
