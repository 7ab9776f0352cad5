// Package binio provides the fixed-width integer and length-prefixed string
// primitives shared by the ShakeTracker file formats.
package binio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Reader reads primitives from a byte stream and tracks the stream offset so
// errors can point at the failing byte.
type Reader struct {
	r      *bufio.Reader
	offset int64
}

// NewReader wraps r in a buffered Reader.
func NewReader(r io.Reader) *Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return &Reader{r: br}
	}
	return &Reader{r: bufio.NewReader(r)}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// ReadFull reads exactly n bytes. A short read yields a *TruncatedReadError.
func (r *Reader) ReadFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(r.r, buf)
	start := r.offset
	r.offset += int64(got)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &TruncatedReadError{Offset: start, Want: n, Got: got}
		}
		return nil, err
	}
	return buf, nil
}

// Skip discards exactly n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.ReadFull(n)
	return err
}

// Byte reads one unsigned byte.
func (r *Reader) Byte() (uint8, error) {
	b, err := r.ReadFull(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// TryByte reads one byte, reporting ok=false instead of an error when the
// stream is already at its end.
func (r *Reader) TryByte() (b uint8, ok bool, err error) {
	b, err = r.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, false, nil
		}
		return 0, false, err
	}
	r.offset++
	return b, true, nil
}

// Uint16LE reads a little-endian 16-bit word.
func (r *Reader) Uint16LE() (uint16, error) {
	b, err := r.ReadFull(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Uint16BE reads a big-endian 16-bit word.
func (r *Reader) Uint16BE() (uint16, error) {
	b, err := r.ReadFull(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Uint32LE reads a little-endian 32-bit word.
func (r *Reader) Uint32LE() (uint32, error) {
	b, err := r.ReadFull(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// PascalBytes reads a string prefixed by a one byte length.
func (r *Reader) PascalBytes() ([]byte, error) {
	n, err := r.Byte()
	if err != nil {
		return nil, err
	}
	return r.ReadFull(int(n))
}

// PascalString is PascalBytes returned as a string.
func (r *Reader) PascalString() (string, error) {
	b, err := r.PascalBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FixedString reads an n byte field and returns its content up to the first
// NUL, or the whole field when it is not NUL terminated.
func (r *Reader) FixedString(n int) (string, error) {
	b, err := r.ReadFull(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}

// ExpectFixedString reads an n byte field and compares it to want.
func (r *Reader) ExpectFixedString(n int, want string) error {
	got, err := r.FixedString(n)
	if err != nil {
		return err
	}
	if got != want {
		return &SignatureError{Want: want, Got: got}
	}
	return nil
}

// ExpectPascalString reads a length-prefixed string and compares it to want.
func (r *Reader) ExpectPascalString(want string) error {
	got, err := r.PascalString()
	if err != nil {
		return err
	}
	if got != want {
		return &SignatureError{Want: want, Got: got}
	}
	return nil
}
