// Package codec implements the little-endian primitive readers and
// writers shared by the KO reader and the KSM writer: fixed-width
// signed/unsigned integers, IEEE floats, and NUL-terminated or
// length-prefixed strings.
package codec

import (
	"encoding/binary"
	"errors"
	"math"

	werrors "tlog.app/go/errors"
)

// Reader walks a byte slice left to right, consuming primitives and
// tracking how many bytes have been read so callers can enforce
// section-size invariants.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Len() int { return len(r.buf) - r.pos }
func (r *Reader) Pos() int { return r.pos }

var ErrShortRead = errors.New("short read")

func (r *Reader) need(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, werrors.Wrap(ErrShortRead, "need %d bytes, have %d", n, r.Len())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.need(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.need(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.need(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) F64() (float64, error) {
	b, err := r.need(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// Bytes consumes and returns the next n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.need(n)
}

// CString reads bytes up to and including a terminating NUL, returning
// the string without the terminator.
func (r *Reader) CString() (string, error) {
	start := r.pos
	for {
		b, err := r.need(1)
		if err != nil {
			return "", werrors.Wrap(err, "unterminated string")
		}
		if b[0] == 0 {
			return string(r.buf[start : r.pos-1]), nil
		}
	}
}

// LenPrefixedString reads a one-byte length followed by that many raw
// bytes.
func (r *Reader) LenPrefixedString() (string, error) {
	n, err := r.U8()
	if err != nil {
		return "", err
	}
	b, err := r.need(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Writer accumulates serialized bytes. Only LenPrefixedString can fail:
// it rejects a string over 255 bytes before writing anything.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) I16(v int16) { w.U16(uint16(v)) }
func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }

func (w *Writer) F64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// UintW writes v as a W-byte little-endian unsigned integer, the
// uniform KSM operand width.
func (w *Writer) UintW(v uint64, width int) {
	for i := 0; i < width; i++ {
		w.buf = append(w.buf, byte(v>>(8*uint(i))))
	}
}

var ErrOverlongString = errors.New("string exceeds 255 bytes")

// LenPrefixedString writes a one-byte length followed by s's bytes.
func (w *Writer) LenPrefixedString(s string) error {
	if len(s) > 255 {
		return werrors.Wrap(ErrOverlongString, "%q is %d bytes", s, len(s))
	}
	w.U8(uint8(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}

// CString writes s followed by a terminating NUL.
func (w *Writer) CString(s string) {
	w.buf = append(w.buf, s...)
	w.U8(0)
}
