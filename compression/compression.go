// Package compression implements the payload compression types carried in
// message metadata.
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies the compression applied to a payload. The values are wire
// constants shared with the broker.
type Type int

const (
	None   Type = 0
	LZ4    Type = 1
	ZLIB   Type = 2
	ZSTD   Type = 3
	SNAPPY Type = 4
)

var errIncompressible = errors.New("compression: data is incompressible")

func (t Type) String() string {
	switch t {
	case None:
		return "NONE"
	case LZ4:
		return "LZ4"
	case ZLIB:
		return "ZLIB"
	case ZSTD:
		return "ZSTD"
	case SNAPPY:
		return "SNAPPY"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParseType parses a compression type name, case-insensitively.
func ParseType(name string) (Type, error) {
	switch strings.ToUpper(name) {
	case "", "NONE":
		return None, nil
	case "LZ4":
		return LZ4, nil
	case "ZLIB":
		return ZLIB, nil
	case "ZSTD":
		return ZSTD, nil
	case "SNAPPY":
		return SNAPPY, nil
	default:
		return None, fmt.Errorf("unknown compression type: %q", name)
	}
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compression: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compression: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress compresses data with t and returns the type actually applied. For
// None the input is returned unchanged. LZ4 block compression falls back to
// None when it cannot shrink data.
func Compress(t Type, data []byte) (Type, []byte, error) {
	switch t {
	case None:
		return None, data, nil
	case LZ4:
		out, err := compressLZ4(data)
		if errors.Is(err, errIncompressible) {
			return None, data, nil
		}
		if err != nil {
			return None, nil, err
		}
		return LZ4, out, nil
	case ZLIB:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return None, nil, fmt.Errorf("zlib compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return None, nil, fmt.Errorf("zlib compress: %w", err)
		}
		return ZLIB, buf.Bytes(), nil
	case ZSTD:
		return ZSTD, zstdEncoder.EncodeAll(data, nil), nil
	case SNAPPY:
		return SNAPPY, snappy.Encode(nil, data), nil
	default:
		return None, nil, fmt.Errorf("unsupported compression type: %d", int(t))
	}
}

// lz4MaxRatio is the largest expansion an LZ4 block can encode.
const lz4MaxRatio = 255

// Decompress reverses Compress. size is the uncompressed length recorded in
// the message metadata and must match exactly.
func Decompress(t Type, data []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%s decompress: invalid uncompressed size %d", strings.ToLower(t.String()), size)
	}
	var (
		out []byte
		err error
	)
	switch t {
	case None:
		out = data
	case LZ4:
		if size > lz4MaxRatio*len(data)+16 {
			return nil, fmt.Errorf("lz4 decompress: uncompressed size %d out of range for %d bytes", size, len(data))
		}
		out = make([]byte, size)
		var n int
		n, err = lz4.UncompressBlock(data, out)
		if err == nil {
			out = out[:n]
		}
	case ZLIB:
		var r io.ReadCloser
		r, err = zlib.NewReader(bytes.NewReader(data))
		if err == nil {
			out, err = io.ReadAll(r)
			_ = r.Close()
		}
	case ZSTD:
		// the recorded size is only a capacity hint
		out, err = zstdDecoder.DecodeAll(data, make([]byte, 0, min(size, lz4MaxRatio*len(data))))
	case SNAPPY:
		out, err = snappy.Decode(nil, data)
	default:
		return nil, fmt.Errorf("unsupported compression type: %d", int(t))
	}
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", strings.ToLower(t.String()), err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("%s decompress: got %d bytes, expected %d", strings.ToLower(t.String()), len(out), size)
	}
	return out, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}
