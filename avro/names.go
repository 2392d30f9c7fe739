package avro

import "strings"

// Names tracks the named types already defined within one schema document.
// A named type is defined in full the first time it is registered; every later
// occurrence must be written as a reference to its qualified name.
//
// Names is not safe for concurrent use; create one per derivation or parse.
type Names struct {
	defined map[string]*Schema
	order   []string
}

// NewNames returns an empty registry.
func NewNames() *Names { return &Names{defined: map[string]*Schema{}} }

// Register records the named type and reports whether this is its first
// occurrence in the document. The qualified name is `namespace.name` when a
// namespace is given, otherwise the bare name.
func (n *Names) Register(name, namespace string) (qualified string, first bool) {
	qualified = Qualify(name, namespace)
	if _, ok := n.defined[qualified]; ok {
		return qualified, false
	}
	n.defined[qualified] = nil
	n.order = append(n.order, qualified)
	return qualified, true
}

// Bind attaches the definition node to a registered name.
func (n *Names) Bind(qualified string, s *Schema) { n.defined[qualified] = s }

// Lookup returns the definition registered under qualified.
func (n *Names) Lookup(qualified string) (*Schema, bool) {
	s, ok := n.defined[qualified]
	return s, ok
}

// Resolve looks a reference up the way the binary format does: first
// qualified by the enclosing namespace, then as written.
func (n *Names) Resolve(ref, namespace string) (*Schema, string, bool) {
	if q := Qualify(ref, namespace); q != ref {
		if s, ok := n.defined[q]; ok {
			return s, q, true
		}
	}
	s, ok := n.defined[ref]
	return s, ref, ok
}

// RelativeName returns the form of qualified to write inside the enclosing
// namespace: the bare name when the namespaces agree, otherwise the full name.
func RelativeName(qualified, enclosing string) string {
	i := strings.LastIndexByte(qualified, '.')
	if i < 0 {
		return qualified
	}
	if qualified[:i] == enclosing {
		return qualified[i+1:]
	}
	return qualified
}

// Order returns qualified names in first-occurrence order.
func (n *Names) Order() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Len returns the number of named types registered.
func (n *Names) Len() int { return len(n.order) }
