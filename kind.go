package pulsarschema

import (
	"fmt"

	"github.com/reoring/pulsarschema/avro"
)

// Kind identifies the type family of a field descriptor.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindString
	KindArray
	KindMap
	KindEnum
	KindRecord
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBoolean: "boolean",
	KindInt:     "int",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindBytes:   "bytes",
	KindString:  "string",
	KindArray:   "array",
	KindMap:     "map",
	KindEnum:    "enum",
	KindRecord:  "record",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// primitiveType maps a primitive kind to its schema type tag.
func (k Kind) primitiveType() avro.Type { return avro.Type(k.String()) }

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
