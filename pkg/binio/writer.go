package binio

import (
	"encoding/binary"
	"io"
)

// MaxPascalLength is the longest string a one byte length prefix can describe.
const MaxPascalLength = 255

// Writer writes primitives to w. The first write error sticks: later calls
// are no-ops and Err reports it.
type Writer struct {
	w   io.Writer
	n   int64
	err error
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

// Count returns the number of bytes written.
func (w *Writer) Count() int64 {
	return w.n
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	w.err = err
	return n, err
}

// Byte writes one byte.
func (w *Writer) Byte(b uint8) {
	_, _ = w.Write([]byte{b})
}

// Uint16LE writes a little-endian 16-bit word.
func (w *Writer) Uint16LE(v uint16) {
	_, _ = w.Write(binary.LittleEndian.AppendUint16(nil, v))
}

// Uint16BE writes a big-endian 16-bit word.
func (w *Writer) Uint16BE(v uint16) {
	_, _ = w.Write(binary.BigEndian.AppendUint16(nil, v))
}

// Uint32LE writes a little-endian 32-bit word.
func (w *Writer) Uint32LE(v uint32) {
	_, _ = w.Write(binary.LittleEndian.AppendUint32(nil, v))
}

// PascalBytes writes b with a one byte length prefix, truncating it to
// MaxPascalLength bytes.
func (w *Writer) PascalBytes(b []byte) {
	if len(b) > MaxPascalLength {
		b = b[:MaxPascalLength]
	}
	w.Byte(uint8(len(b)))
	_, _ = w.Write(b)
}

// PascalString writes s as PascalBytes.
func (w *Writer) PascalString(s string) {
	w.PascalBytes([]byte(s))
}
