// Package message is the boundary between codecs and the messaging client.
// Encode turns a value into a Message envelope carrying the compressed
// payload and the schema version it was written with; Decode reverses it and
// resolves payloads written with another version of the schema.
package message

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/reoring/pulsarschema/avro"
	"github.com/reoring/pulsarschema/codec"
	"github.com/reoring/pulsarschema/compression"
	"github.com/reoring/pulsarschema/internal/logx"
)

// Message is the envelope handed to and received from the broker.
type Message struct {
	Payload          []byte
	SchemaVersion    []byte
	Compression      compression.Type
	UncompressedSize int
}

// Option configures Encode.
type Option func(*options)

type options struct {
	compression compression.Type
	version     []byte
}

// WithCompression compresses the payload with t.
func WithCompression(t compression.Type) Option {
	return func(o *options) { o.compression = t }
}

// WithSchemaVersion stamps the message with the version the payload was
// written with.
func WithSchemaVersion(v []byte) Option {
	return func(o *options) { o.version = v }
}

// Version renders a numeric schema version the way the broker stores it:
// eight bytes, big endian.
func Version(n int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(n))
	return b
}

// Encode encodes v with c and wraps the payload in a Message.
func Encode[T any](ctx context.Context, c codec.Codec[T], v T, opts ...Option) (*Message, error) {
	o := options{compression: compression.None}
	for _, opt := range opts {
		opt(&o)
	}
	payload, err := c.Encode(ctx, v)
	if err != nil {
		return nil, err
	}
	applied, out, err := compression.Compress(o.compression, payload)
	if err != nil {
		return nil, err
	}
	if applied != o.compression {
		logx.L().Debug("payload left uncompressed",
			zap.Stringer("requested", o.compression), zap.Int("size", len(payload)))
	}
	return &Message{
		Payload:          out,
		SchemaVersion:    o.version,
		Compression:      applied,
		UncompressedSize: len(payload),
	}, nil
}

// Decode decompresses msg and decodes it with c. When c can resolve schemas,
// the message carries a schema version and lookup is given, the writer
// document is fetched and the payload resolved against c's own schema if
// their layouts differ.
func Decode[T any](ctx context.Context, c codec.Codec[T], msg *Message, lookup WriterSchemas) (T, error) {
	var zero T
	if msg == nil {
		return zero, fmt.Errorf("message: nil message")
	}
	payload, err := compression.Decompress(msg.Compression, msg.Payload, msg.UncompressedSize)
	if err != nil {
		return zero, err
	}
	r, ok := c.(codec.Resolver[T])
	if !ok || lookup == nil || len(msg.SchemaVersion) == 0 {
		return c.Decode(ctx, payload)
	}
	writer, err := lookup.WriterSchema(ctx, msg.SchemaVersion)
	if err != nil {
		return zero, err
	}
	if own, ok := c.(interface{ Schema() *avro.Schema }); ok && avro.SameLayout(writer, own.Schema()) {
		return c.Decode(ctx, payload)
	}
	logx.L().Debug("resolving payload against writer schema",
		zap.String("writer", writer.FullName()), zap.Binary("version", msg.SchemaVersion))
	return r.DecodeWithWriter(ctx, payload, writer)
}
