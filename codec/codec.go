// Package codec holds the binary layout helpers shared by every
// contract's persisted records, plus the text helpers for the
// `|`-separated call payloads.
package codec

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// Corrupt marks stored state that cannot be decoded. It is raised as a
// panic because a record the contract itself wrote can only be
// unreadable if the ledger is broken; the host converts the panic into
// a failed call.
type Corrupt string

func (c Corrupt) Error() string { return "corrupt state: " + string(c) }

func corrupt(msg string) {
	panic(Corrupt(msg))
}

// ---------- Binary writers ----------

func AppendByte(dst []byte, v byte) []byte { return append(dst, v) }

func AppendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}
	return append(dst, 0)
}

func AppendU16(dst []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(dst, tmp[:]...)
}

func AppendU64(dst []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(dst, tmp[:]...)
}

// AppendString16 writes a 2-byte length prefix followed by the bytes.
func AppendString16(dst []byte, s string) []byte {
	if len(s) > 65535 {
		corrupt("string too long")
	}
	dst = AppendU16(dst, uint16(len(s)))
	return append(dst, s...)
}

// ---------- Binary reader ----------

// Reader walks a byte slice with big-endian reads and bounds checks.
type Reader struct {
	b []byte
	i int
}

func NewReader(b []byte) *Reader { return &Reader{b: b} }

func (r *Reader) need(n int) {
	if r.i+n > len(r.b) {
		corrupt("decode overflow")
	}
}

func (r *Reader) U8() byte {
	r.need(1)
	v := r.b[r.i]
	r.i++
	return v
}

func (r *Reader) Bool() bool { return r.U8() == 1 }

func (r *Reader) U16() uint16 {
	r.need(2)
	v := binary.BigEndian.Uint16(r.b[r.i : r.i+2])
	r.i += 2
	return v
}

func (r *Reader) U64() uint64 {
	r.need(8)
	v := binary.BigEndian.Uint64(r.b[r.i : r.i+8])
	r.i += 8
	return v
}

func (r *Reader) Bytes(n int) []byte {
	r.need(n)
	v := r.b[r.i : r.i+n]
	r.i += n
	return v
}

// Str reads a 2-byte length-prefixed string.
func (r *Reader) Str() string {
	l := int(r.U16())
	return string(r.Bytes(l))
}

// MustEnd verifies the reader consumed the record exactly.
func (r *Reader) MustEnd() {
	if r.i != len(r.b) {
		corrupt("trailing bytes")
	}
}

// ---------- Payload fields ----------

// NextField pops the next `|`-separated field off the payload.
func NextField(s *string) string {
	i := strings.IndexByte(*s, '|')
	if i < 0 {
		f := *s
		*s = ""
		return f
	}
	f := (*s)[:i]
	*s = (*s)[i+1:]
	return f
}

// ParseU64 parses a decimal payload field.
func ParseU64(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func FormatU64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func FormatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
