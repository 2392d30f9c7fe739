package avro

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Parse parses a schema document in the standard JSON form.
func Parse(data []byte) (*Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &SchemaError{Msg: err.Error()}
	}
	return ParseValue(v)
}

// MustParse is like Parse but panics on error.
func MustParse(data string) *Schema {
	s, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return s
}

// ParseYAML parses a schema document written in YAML. The structure is the
// same as the JSON form.
func ParseYAML(data []byte) (*Schema, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, &SchemaError{Msg: err.Error()}
	}
	return ParseValue(normalizeYAML(v))
}

// ParseFile loads a schema document from disk. Files ending in .yaml or .yml
// are read as YAML; everything else (.avsc, .json) as JSON.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// ParseValue builds a schema from an already decoded JSON-like value
// (string, []any or map[string]any).
func ParseValue(v any) (*Schema, error) {
	p := &parser{names: NewNames()}
	return p.parse(v, "", "")
}

type parser struct {
	names *Names
}

func (p *parser) parse(v any, ns, path string) (*Schema, error) {
	switch t := v.(type) {
	case string:
		return p.parseName(t, ns, path)
	case []any:
		return p.parseUnion(t, ns, path)
	case map[string]any:
		return p.parseObject(t, ns, path)
	default:
		return nil, &SchemaError{Path: path, Msg: fmt.Sprintf("unexpected %s", typeOf(v))}
	}
}

func (p *parser) parseName(name, ns, path string) (*Schema, error) {
	if t := Type(name); t.IsPrimitive() {
		return Primitive(t), nil
	}
	def, q, ok := p.names.Resolve(name, ns)
	if !ok {
		return nil, &SchemaError{Path: path, Msg: fmt.Sprintf("unknown type %q", name)}
	}
	return Reference(q, def), nil
}

func (p *parser) parseUnion(branches []any, ns, path string) (*Schema, error) {
	u := &Schema{Type: Union, Branches: make([]*Schema, 0, len(branches))}
	seen := map[string]struct{}{}
	for i, b := range branches {
		bp := path + "/" + strconv.Itoa(i)
		s, err := p.parse(b, ns, bp)
		if err != nil {
			return nil, err
		}
		if s.Type == Union {
			return nil, &SchemaError{Path: bp, Msg: "unions may not immediately contain other unions"}
		}
		key := s.FullName()
		if _, dup := seen[key]; dup {
			return nil, &SchemaError{Path: bp, Msg: fmt.Sprintf("duplicate union branch %q", key)}
		}
		seen[key] = struct{}{}
		u.Branches = append(u.Branches, s)
	}
	return u, nil
}

func (p *parser) parseObject(m map[string]any, ns, path string) (*Schema, error) {
	rawType, ok := m["type"]
	if !ok {
		return nil, &SchemaError{Path: path, Msg: "missing \"type\""}
	}
	tname, ok := rawType.(string)
	if !ok {
		// {"type": {...}} or {"type": [...]}: the attribute holds a full schema.
		return p.parse(rawType, ns, path+"/type")
	}
	logical, _ := m["logicalType"].(string)
	switch Type(tname) {
	case Null, Boolean, Int, Long, Float, Double, Bytes, String:
		return &Schema{Type: Type(tname), LogicalType: logical}, nil
	case Array:
		items, ok := m["items"]
		if !ok {
			return nil, &SchemaError{Path: path, Msg: "array without \"items\""}
		}
		it, err := p.parse(items, ns, path+"/items")
		if err != nil {
			return nil, err
		}
		return &Schema{Type: Array, Items: it, LogicalType: logical}, nil
	case Map:
		values, ok := m["values"]
		if !ok {
			return nil, &SchemaError{Path: path, Msg: "map without \"values\""}
		}
		vs, err := p.parse(values, ns, path+"/values")
		if err != nil {
			return nil, err
		}
		return &Schema{Type: Map, Values: vs, LogicalType: logical}, nil
	case Enum, Fixed, Record, "error":
		return p.parseNamed(m, Type(tname), ns, path)
	default:
		if _, _, named := p.names.Resolve(tname, ns); named {
			return p.parseName(tname, ns, path)
		}
		return nil, &SchemaError{Path: path, Msg: fmt.Sprintf("unknown type %q", tname)}
	}
}

func (p *parser) parseNamed(m map[string]any, t Type, enclosing, path string) (*Schema, error) {
	name, _ := m["name"].(string)
	if name == "" {
		return nil, &SchemaError{Path: path, Msg: fmt.Sprintf("%s without \"name\"", t)}
	}
	explicitNS, hasNS := m["namespace"].(string)
	ns := enclosing
	if hasNS {
		ns = explicitNS
	}
	short := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ns, short = name[:i], name[i+1:]
	}
	if !ValidName(short) || !ValidNamespace(ns) {
		return nil, &SchemaError{Path: path, Msg: fmt.Sprintf("invalid name %q", Qualify(short, ns))}
	}
	q, first := p.names.Register(short, ns)
	if !first {
		return nil, &SchemaError{Path: path, Msg: fmt.Sprintf("type %q redefined", q)}
	}
	s := &Schema{Type: t, Name: name, full: q}
	if hasNS {
		s.Namespace = explicitNS
	}
	if t == "error" {
		s.Type = Record
	}
	s.Doc, _ = m["doc"].(string)
	s.LogicalType, _ = m["logicalType"].(string)
	s.Aliases = stringList(m["aliases"])
	p.names.Bind(q, s)

	switch s.Type {
	case Enum:
		syms, ok := m["symbols"].([]any)
		if !ok {
			return nil, &SchemaError{Path: path, Msg: "enum without \"symbols\""}
		}
		seen := map[string]struct{}{}
		for _, raw := range syms {
			sym, ok := raw.(string)
			if !ok || !ValidName(sym) {
				return nil, &SchemaError{Path: path + "/symbols", Msg: fmt.Sprintf("invalid symbol %v", raw)}
			}
			if _, dup := seen[sym]; dup {
				return nil, &SchemaError{Path: path + "/symbols", Msg: fmt.Sprintf("duplicate symbol %q", sym)}
			}
			seen[sym] = struct{}{}
			s.Symbols = append(s.Symbols, sym)
		}
		if d, ok := m["default"].(string); ok {
			if s.SymbolIndex(d) < 0 {
				return nil, &SchemaError{Path: path + "/default", Msg: fmt.Sprintf("default %q is not a symbol", d)}
			}
			s.EnumDefault = d
		}
	case Fixed:
		size, err := intAttr(m["size"])
		if err != nil || size < 0 {
			return nil, &SchemaError{Path: path, Msg: "fixed without a valid \"size\""}
		}
		s.Size = size
	case Record:
		raw, ok := m["fields"].([]any)
		if !ok {
			return nil, &SchemaError{Path: path, Msg: "record without \"fields\""}
		}
		seen := map[string]struct{}{}
		for i, rf := range raw {
			fp := path + "/fields/" + strconv.Itoa(i)
			fm, ok := rf.(map[string]any)
			if !ok {
				return nil, &SchemaError{Path: fp, Msg: "field is not an object"}
			}
			f, err := p.parseField(fm, ns, fp)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[f.Name]; dup {
				return nil, &SchemaError{Path: fp, Msg: fmt.Sprintf("duplicate field %q", f.Name)}
			}
			seen[f.Name] = struct{}{}
			s.Fields = append(s.Fields, f)
		}
	}
	return s, nil
}

func (p *parser) parseField(m map[string]any, ns, path string) (*Field, error) {
	name, _ := m["name"].(string)
	if !ValidName(name) {
		return nil, &SchemaError{Path: path, Msg: fmt.Sprintf("invalid field name %q", name)}
	}
	rawType, ok := m["type"]
	if !ok {
		return nil, &SchemaError{Path: path, Msg: fmt.Sprintf("field %q without \"type\"", name)}
	}
	ft, err := p.parse(rawType, ns, path+"/type")
	if err != nil {
		return nil, err
	}
	f := &Field{Name: name, Type: ft}
	f.Doc, _ = m["doc"].(string)
	f.Order, _ = m["order"].(string)
	f.Aliases = stringList(m["aliases"])
	if d, ok := m["default"]; ok {
		if _, err := DefaultValue(ft, d); err != nil {
			return nil, &SchemaError{Path: path + "/default", Msg: err.Error()}
		}
		f.Default = d
		f.HasDefault = true
	}
	return f, nil
}

func stringList(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intAttr(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

// normalizeYAML converts YAML-decoded values into the JSON-like shapes the
// parser understands (string-keyed maps, json.Number numbers).
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalizeYAML(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = normalizeYAML(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalizeYAML(t[i])
		}
		return out
	case int:
		return json.Number(strconv.Itoa(t))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	case float64:
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64))
	default:
		return v
	}
}
