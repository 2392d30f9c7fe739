package pulsarschema

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/reoring/pulsarschema/avro"
)

// ArrayField describes a sequence whose items share one descriptor. Items
// are never null.
type ArrayField struct {
	fieldBase
	items Field
}

// Array declares a sequence field of item.
func Array(item Field, opts ...FieldOption) *ArrayField {
	f := &ArrayField{items: item}
	initField(f, opts)
	return f
}

// Items returns the item descriptor.
func (f *ArrayField) Items() Field { return f.items }

func (f *ArrayField) Kind() Kind { return KindArray }

func (f *ArrayField) TypeName() string { return KindArray.String() }

func (f *ArrayField) Validate(name string, v any) (any, error) {
	if v == nil {
		return nullValue(f, name)
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, typeConstraint("", name, f.TypeName(), v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		item := rv.Index(i).Interface()
		var (
			iv  any
			err error
		)
		if item == nil {
			err = typeConstraint("", name, f.items.TypeName(), nil)
		} else {
			iv, err = f.items.Validate(name, item)
		}
		if err != nil {
			return nil, newError(CodeTypeConstraint, "array_items", Error{
				Field:    name,
				Expected: f.items.TypeName(),
				Actual:   describe(item),
				Cause:    err,
			})
		}
		out[i] = iv
	}
	return out, nil
}

func (f *ArrayField) typeNode(d *deriver, ns string) *avro.Schema {
	return avro.NewArray(f.items.typeNode(d, ns))
}

// MapField describes a string-keyed mapping whose values share one
// descriptor. Values are never null.
type MapField struct {
	fieldBase
	values Field
}

// Map declares a mapping field with values of value.
func Map(value Field, opts ...FieldOption) *MapField {
	f := &MapField{values: value}
	initField(f, opts)
	return f
}

// Values returns the value descriptor.
func (f *MapField) Values() Field { return f.values }

func (f *MapField) Kind() Kind { return KindMap }

func (f *MapField) TypeName() string { return KindMap.String() }

func (f *MapField) Validate(name string, v any) (any, error) {
	if v == nil {
		return nullValue(f, name)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, typeConstraint("", name, f.TypeName(), v)
	}
	kk := rv.Type().Key().Kind()
	if kk != reflect.String && kk != reflect.Interface {
		return nil, newError(CodeTypeConstraint, "map_keys", Error{Field: name, Expected: "string", Actual: rv.Type().Key().String()})
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface()) })
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		key, ok := k.Interface().(string)
		if !ok && kk == reflect.String {
			key, ok = k.String(), true
		}
		if !ok {
			return nil, newError(CodeTypeConstraint, "map_keys", Error{Field: name, Expected: "string", Actual: describe(k.Interface())})
		}
		item := rv.MapIndex(k).Interface()
		var (
			iv  any
			err error
		)
		if item == nil {
			err = typeConstraint("", name, f.values.TypeName(), nil)
		} else {
			iv, err = f.values.Validate(name, item)
		}
		if err != nil {
			return nil, newError(CodeTypeConstraint, "map_values", Error{
				Field:    name,
				Expected: f.values.TypeName(),
				Actual:   describe(item),
				Cause:    err,
			})
		}
		out[key] = iv
	}
	return out, nil
}

func (f *MapField) typeNode(d *deriver, ns string) *avro.Schema {
	return avro.NewMap(f.values.typeNode(d, ns))
}
