package avro

import "strings"

// Type is the type tag of a schema node.
type Type string

const (
	Null    Type = "null"
	Boolean Type = "boolean"
	Int     Type = "int"
	Long    Type = "long"
	Float   Type = "float"
	Double  Type = "double"
	Bytes   Type = "bytes"
	String  Type = "string"
	Array   Type = "array"
	Map     Type = "map"
	Enum    Type = "enum"
	Record  Type = "record"
	Fixed   Type = "fixed"
	Union   Type = "union"
)

// IsPrimitive reports whether t is one of the eight primitive types.
func (t Type) IsPrimitive() bool {
	switch t {
	case Null, Boolean, Int, Long, Float, Double, Bytes, String:
		return true
	}
	return false
}

// IsNamed reports whether t is a named type (record, enum, fixed).
func (t Type) IsNamed() bool { return t == Record || t == Enum || t == Fixed }

// Schema is a node of a schema document.
//
// A node that refers back to an already defined named type carries the
// qualified name in Ref and shares the Type of its definition; Target returns
// the definition. Documents are treated as immutable once built or parsed.
type Schema struct {
	Type      Type
	Name      string
	Namespace string
	Doc       string
	Aliases   []string

	Fields      []*Field  // record
	Symbols     []string  // enum
	EnumDefault string    // enum, empty when absent
	Items       *Schema   // array
	Values      *Schema   // map
	Branches    []*Schema // union
	Size        int       // fixed
	LogicalType string

	Ref    string
	target *Schema
	full   string
}

// Field is a record field.
type Field struct {
	Name       string
	Type       *Schema
	Doc        string
	Aliases    []string
	Default    any // JSON-native form: nil, bool, json.Number/float64, string, []any, map[string]any
	HasDefault bool
	Order      string
}

// Primitive returns a fresh primitive node.
func Primitive(t Type) *Schema { return &Schema{Type: t} }

// NewArray returns an array node.
func NewArray(items *Schema) *Schema { return &Schema{Type: Array, Items: items} }

// NewMap returns a map node.
func NewMap(values *Schema) *Schema { return &Schema{Type: Map, Values: values} }

// NewUnion returns a union node with the given branches in order.
func NewUnion(branches ...*Schema) *Schema { return &Schema{Type: Union, Branches: branches} }

// NewRecord returns a record node without fields. The qualified name is
// computed from name and namespace.
func NewRecord(name, namespace string) *Schema {
	return &Schema{Type: Record, Name: name, Namespace: namespace, full: Qualify(name, namespace)}
}

// NewEnum returns an enum node.
func NewEnum(name, namespace string, symbols []string) *Schema {
	return &Schema{Type: Enum, Name: name, Namespace: namespace, Symbols: symbols, full: Qualify(name, namespace)}
}

// Reference returns a node that refers to target by its qualified name.
func Reference(qualified string, target *Schema) *Schema {
	s := &Schema{Ref: qualified, target: target}
	if target != nil {
		s.Type = target.Type
	}
	return s
}

// WithinNamespace qualifies a named node that declares no namespace of its
// own with the enclosing namespace, the way a parser would read it.
func (s *Schema) WithinNamespace(enclosing string) *Schema {
	if s.Namespace == "" && !strings.ContainsRune(s.Name, '.') {
		s.full = Qualify(s.Name, enclosing)
	}
	return s
}

// Target returns the definition of a reference node, or s itself.
func (s *Schema) Target() *Schema {
	if s != nil && s.Ref != "" && s.target != nil {
		return s.target
	}
	return s
}

// IsRef reports whether s is a back-reference node.
func (s *Schema) IsRef() bool { return s != nil && s.Ref != "" }

// FullName returns the qualified name of a named node (or of the definition a
// reference points to). Non-named nodes return their type tag.
func (s *Schema) FullName() string {
	if s == nil {
		return ""
	}
	if s.Ref != "" {
		if s.target != nil {
			return s.target.FullName()
		}
		return s.Ref
	}
	if !s.Type.IsNamed() {
		return string(s.Type)
	}
	if s.full != "" {
		return s.full
	}
	return Qualify(s.Name, s.Namespace)
}

// ShortName returns the unqualified name of a named node.
func (s *Schema) ShortName() string {
	fn := s.FullName()
	if i := strings.LastIndexByte(fn, '.'); i >= 0 {
		return fn[i+1:]
	}
	return fn
}

// Field returns the record field with the given name.
func (s *Schema) Field(name string) (*Field, bool) {
	t := s.Target()
	if t == nil {
		return nil, false
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Nullable reports whether a union node has a null branch.
func (s *Schema) Nullable() bool {
	if s == nil || s.Type != Union {
		return s != nil && s.Type == Null
	}
	for _, b := range s.Branches {
		if b.Type == Null {
			return true
		}
	}
	return false
}

// SymbolIndex returns the ordinal of an enum symbol.
func (s *Schema) SymbolIndex(symbol string) int {
	for i, sym := range s.Target().Symbols {
		if sym == symbol {
			return i
		}
	}
	return -1
}

// Qualify joins a namespace and a name. Names that already contain a dot are
// treated as full names.
func Qualify(name, namespace string) string {
	if namespace == "" || strings.ContainsRune(name, '.') {
		return name
	}
	return namespace + "." + name
}

// ValidName reports whether name is a legal unqualified name.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// ValidNamespace reports whether ns is empty or a dot-separated list of names.
func ValidNamespace(ns string) bool {
	if ns == "" {
		return true
	}
	for _, part := range strings.Split(ns, ".") {
		if !ValidName(part) {
			return false
		}
	}
	return true
}
