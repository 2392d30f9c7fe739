package message_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	ps "github.com/reoring/pulsarschema"
	"github.com/reoring/pulsarschema/codec"
	"github.com/reoring/pulsarschema/compression"
	"github.com/reoring/pulsarschema/message"
)

func userV1() *ps.RecordType {
	return ps.NewRecord("User").Namespace("example").
		Field("id", ps.Int(ps.Required())).
		Field("bio", ps.String()).
		MustBuild()
}

func userV2() *ps.RecordType {
	return ps.NewRecord("User").Namespace("example").
		Field("id", ps.Long(ps.Required())).
		Field("bio", ps.String()).
		Field("active", ps.Boolean(ps.Required(), ps.Default(true), ps.RequiredDefault())).
		MustBuild()
}

func TestVersion(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, message.Version(0))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 1, 2}, message.Version(258))
}

func TestEncodeDecode_Compressed(t *testing.T) {
	ctx := context.Background()
	rt := userV1()
	c := codec.Avro(rt)
	r := rt.MustNew(map[string]any{"id": 1, "bio": string(bytes.Repeat([]byte("la"), 200))})

	for _, typ := range []compression.Type{compression.None, compression.ZLIB, compression.ZSTD, compression.SNAPPY, compression.LZ4} {
		msg, err := message.Encode(ctx, c, r, message.WithCompression(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, msg.Compression)
		assert.Nil(t, msg.SchemaVersion)

		got, err := message.Decode(ctx, c, msg, nil)
		require.NoError(t, err)
		assert.True(t, r.Equal(got))
	}
}

func TestEncode_LZ4Fallback(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ps.SetLogger(zap.New(core))
	t.Cleanup(func() { ps.SetLogger(nil) })

	msg, err := message.Encode(context.Background(), codec.Bytes(), []byte{1, 2, 3}, message.WithCompression(compression.LZ4))
	require.NoError(t, err)
	assert.Equal(t, compression.None, msg.Compression)
	assert.Equal(t, []byte{1, 2, 3}, msg.Payload)
	assert.Equal(t, 3, msg.UncompressedSize)
	assert.Equal(t, 1, logs.FilterMessage("payload left uncompressed").Len())
}

func TestDecode_ResolvesWriterVersion(t *testing.T) {
	ctx := context.Background()
	v1, v2 := userV1(), userV2()
	versions := message.NewVersions()
	ver1 := versions.Add(v1.Schema())
	ver2 := versions.Add(v2.Schema())
	assert.Equal(t, message.Version(0), ver1)
	assert.Equal(t, message.Version(1), ver2)
	assert.Equal(t, ver1, versions.Add(userV1().Schema()))

	msg, err := message.Encode(ctx, codec.Avro(v1), v1.MustNew(map[string]any{"id": 5}),
		message.WithSchemaVersion(ver1), message.WithCompression(compression.ZSTD))
	require.NoError(t, err)

	got, err := message.Decode(ctx, codec.Avro(v2), msg, versions)
	require.NoError(t, err)
	id, _ := got.Get("id")
	active, _ := got.Get("active")
	assert.Equal(t, int64(5), id)
	assert.Equal(t, true, active)

	same, err := message.Decode(ctx, codec.Avro(userV1()), msg, versions)
	require.NoError(t, err)
	id, _ = same.Get("id")
	assert.Equal(t, int32(5), id)
}

func TestDecode_UnknownVersion(t *testing.T) {
	ctx := context.Background()
	rt := userV1()
	msg, err := message.Encode(ctx, codec.Avro(rt), rt.MustNew(map[string]any{"id": 1}),
		message.WithSchemaVersion(message.Version(9)))
	require.NoError(t, err)

	_, err = message.Decode(ctx, codec.Avro(rt), msg, message.NewVersions())
	assert.ErrorIs(t, err, message.ErrUnknownVersion)

	// codecs without a schema ignore the version
	s, err := message.Decode(ctx, codec.Bytes(), msg, message.NewVersions())
	require.NoError(t, err)
	assert.Equal(t, msg.Payload, s)
}

func TestDecode_CorruptPayload(t *testing.T) {
	msg := &message.Message{Payload: []byte{0xff}, Compression: compression.ZLIB, UncompressedSize: 4}
	_, err := message.Decode(context.Background(), codec.Bytes(), msg, nil)
	assert.Error(t, err)

	_, err = message.Decode[[]byte](context.Background(), codec.Bytes(), nil, nil)
	assert.Error(t, err)
}
