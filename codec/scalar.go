package codec

import (
	"context"
	"unicode/utf8"

	ps "github.com/reoring/pulsarschema"
)

// StringCodec passes UTF-8 text through as the payload.
type StringCodec struct{}

// String returns the text payload codec.
func String() StringCodec { return StringCodec{} }

func (StringCodec) Encode(ctx context.Context, s string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (StringCodec) Decode(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ps.NewError(ps.CodeTypeConstraint, ps.Error{Expected: "UTF-8 text", Actual: "invalid UTF-8"})
	}
	return string(data), nil
}

func (StringCodec) Info() SchemaInfo { return SchemaInfo{Name: "String", Type: SchemaString} }

// BytesCodec passes payload bytes through unchanged.
type BytesCodec struct{}

// Bytes returns the opaque payload codec.
func Bytes() BytesCodec { return BytesCodec{} }

func (BytesCodec) Encode(ctx context.Context, b []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

func (BytesCodec) Decode(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

func (BytesCodec) Info() SchemaInfo { return SchemaInfo{Name: "Bytes", Type: SchemaBytes} }
