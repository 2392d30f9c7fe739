package codec

import (
	"context"
	"fmt"
)

// UntypedCodec adapts a Codec[T] to callers holding values of unknown type,
// such as a producer fed from configuration or scripts.
type UntypedCodec[T any] struct {
	c Codec[T]
}

// Untyped wraps c.
func Untyped[T any](c Codec[T]) *UntypedCodec[T] { return &UntypedCodec[T]{c: c} }

// EncodeValue encodes v when it is of the codec's value type and fails with
// a type constraint error otherwise.
func (u *UntypedCodec[T]) EncodeValue(ctx context.Context, v any) ([]byte, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return nil, mismatch(u.c.Info().Name, fmt.Sprintf("%T", zero), v)
	}
	return u.c.Encode(ctx, t)
}

// DecodeValue decodes data and returns the value as any.
func (u *UntypedCodec[T]) DecodeValue(ctx context.Context, data []byte) (any, error) {
	return u.c.Decode(ctx, data)
}

// Info returns the wrapped codec's SchemaInfo.
func (u *UntypedCodec[T]) Info() SchemaInfo { return u.c.Info() }
