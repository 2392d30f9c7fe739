package avro

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// writer appends binary-format primitives to a byte slice.
type writer struct {
	buf []byte
}

func (w *writer) writeLong(v int64) {
	w.buf = binary.AppendUvarint(w.buf, uint64((v<<1)^(v>>63)))
}

func (w *writer) writeInt(v int32) { w.writeLong(int64(v)) }

func (w *writer) writeBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *writer) writeFloat(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

func (w *writer) writeDouble(v float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

func (w *writer) writeBytes(b []byte) {
	w.writeLong(int64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) writeString(s string) {
	w.writeLong(int64(len(s)))
	w.buf = append(w.buf, s...)
}

// reader consumes binary-format primitives from a byte slice.
type reader struct {
	buf []byte
	off int
}

func (r *reader) fail(msg string) error { return &DataError{Offset: r.off, Msg: msg} }

func (r *reader) readLong() (int64, error) {
	var u uint64
	var shift uint
	for i := 0; ; i++ {
		if r.off >= len(r.buf) {
			return 0, r.fail("truncated varint")
		}
		if i >= 10 {
			return 0, r.fail("varint overflows 64 bits")
		}
		b := r.buf[r.off]
		r.off++
		u |= uint64(b&0x7f) << shift
		if b < 0x80 {
			break
		}
		shift += 7
	}
	return int64(u>>1) ^ -int64(u&1), nil
}

func (r *reader) readInt() (int32, error) {
	start := r.off
	v, err := r.readLong()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		r.off = start
		return 0, r.fail("int out of range")
	}
	return int32(v), nil
}

func (r *reader) readBool() (bool, error) {
	if r.off >= len(r.buf) {
		return false, r.fail("truncated boolean")
	}
	b := r.buf[r.off]
	r.off++
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, r.fail("invalid boolean byte")
}

func (r *reader) readFloat() (float32, error) {
	if len(r.buf)-r.off < 4 {
		return 0, r.fail("truncated float")
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.buf[r.off:]))
	r.off += 4
	return v, nil
}

func (r *reader) readDouble() (float64, error) {
	if len(r.buf)-r.off < 8 {
		return 0, r.fail("truncated double")
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(r.buf[r.off:]))
	r.off += 8
	return v, nil
}

func (r *reader) readFixed(n int) ([]byte, error) {
	if n < 0 || len(r.buf)-r.off < n {
		return nil, r.fail("truncated data")
	}
	out := make([]byte, n)
	copy(out, r.buf[r.off:r.off+n])
	r.off += n
	return out, nil
}

func (r *reader) readBytes() ([]byte, error) {
	n, err := r.readLong()
	if err != nil {
		return nil, err
	}
	if n < 0 || n > int64(len(r.buf)-r.off) {
		return nil, r.fail("invalid length")
	}
	return r.readFixed(int(n))
}

func (r *reader) readString() (string, error) {
	b, err := r.readBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", r.fail("invalid UTF-8 in string")
	}
	return string(b), nil
}

// readBlockCount reads an array/map block header. Negative counts carry a
// byte size that the reader does not need.
func (r *reader) readBlockCount() (int64, error) {
	n, err := r.readLong()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		if n == math.MinInt64 {
			return 0, r.fail("invalid block count")
		}
		n = -n
		if _, err := r.readLong(); err != nil {
			return 0, err
		}
	}
	// every item takes at least one byte unless the item type is empty (null)
	if n > int64(len(r.buf)-r.off)+1<<20 {
		return 0, r.fail("block count exceeds input")
	}
	return n, nil
}

func (r *reader) skip(n int) error {
	if n < 0 || len(r.buf)-r.off < n {
		return r.fail("truncated data")
	}
	r.off += n
	return nil
}
