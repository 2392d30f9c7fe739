package avro

import (
	"bytes"
	"strconv"
)

// Canonical returns the Parsing Canonical Form of s: full names, no
// namespaces, docs, aliases, defaults or logical types, fixed attribute order
// and no whitespace. Two documents that describe the same binary layout have
// the same canonical form.
func Canonical(s *Schema) []byte {
	var buf bytes.Buffer
	writeCanonical(&buf, s)
	return buf.Bytes()
}

func writeCanonical(buf *bytes.Buffer, s *Schema) {
	if s.Ref != "" {
		_ = writeJSONString(buf, s.FullName())
		return
	}
	switch s.Type {
	case Null, Boolean, Int, Long, Float, Double, Bytes, String:
		_ = writeJSONString(buf, string(s.Type))
	case Union:
		buf.WriteByte('[')
		for i, b := range s.Branches {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonical(buf, b)
		}
		buf.WriteByte(']')
	case Array:
		buf.WriteString(`{"type":"array","items":`)
		writeCanonical(buf, s.Items)
		buf.WriteByte('}')
	case Map:
		buf.WriteString(`{"type":"map","values":`)
		writeCanonical(buf, s.Values)
		buf.WriteByte('}')
	case Enum:
		buf.WriteString(`{"name":`)
		_ = writeJSONString(buf, s.FullName())
		buf.WriteString(`,"type":"enum","symbols":[`)
		for i, sym := range s.Symbols {
			if i > 0 {
				buf.WriteByte(',')
			}
			_ = writeJSONString(buf, sym)
		}
		buf.WriteString("]}")
	case Fixed:
		buf.WriteString(`{"name":`)
		_ = writeJSONString(buf, s.FullName())
		buf.WriteString(`,"type":"fixed","size":`)
		buf.WriteString(strconv.Itoa(s.Size))
		buf.WriteByte('}')
	case Record:
		buf.WriteString(`{"name":`)
		_ = writeJSONString(buf, s.FullName())
		buf.WriteString(`,"type":"record","fields":[`)
		for i, f := range s.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(`{"name":`)
			_ = writeJSONString(buf, f.Name)
			buf.WriteString(`,"type":`)
			writeCanonical(buf, f.Type)
			buf.WriteByte('}')
		}
		buf.WriteString("]}")
	}
}

// emptyFingerprint is the CRC-64-AVRO seed.
const emptyFingerprint uint64 = 0xc15d213aa4d7a795

var fingerprintTable = func() [256]uint64 {
	var t [256]uint64
	for i := range t {
		fp := uint64(i)
		for j := 0; j < 8; j++ {
			fp = (fp >> 1) ^ (emptyFingerprint & -(fp & 1))
		}
		t[i] = fp
	}
	return t
}()

// Fingerprint64 returns the CRC-64-AVRO (Rabin) fingerprint of the canonical
// form of s.
func Fingerprint64(s *Schema) uint64 {
	fp := emptyFingerprint
	for _, b := range Canonical(s) {
		fp = (fp >> 8) ^ fingerprintTable[byte(fp)^b]
	}
	return fp
}

// SameLayout reports whether a and b have the same canonical form.
func SameLayout(a, b *Schema) bool {
	return bytes.Equal(Canonical(a), Canonical(b))
}
