package codec

import (
	"encoding/binary"
	"io"
	"time"
	"unicode/utf16"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// Writer encodes the same primitives the Reader decodes. The re-exporter
// uses it to frame output files; tests use it to fabricate fixtures.
type Writer struct {
	w   io.Writer
	buf [8]byte
}

// NewWriter returns a Writer encoding to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Uint8 writes one byte.
func (w *Writer) Uint8(v uint8) error {
	w.buf[0] = v
	_, err := w.w.Write(w.buf[:1])
	return err
}

// Uint32 writes a little-endian uint32.
func (w *Writer) Uint32(v uint32) error {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	_, err := w.w.Write(w.buf[:4])
	return err
}

// Uint64 writes a little-endian uint64.
func (w *Writer) Uint64(v uint64) error {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	_, err := w.w.Write(w.buf[:8])
	return err
}

// Bytes writes b verbatim.
func (w *Writer) Bytes(b []byte) error {
	_, err := w.w.Write(b)
	return err
}

// String writes a length-prefixed UTF-16LE string.
func (w *Writer) String(s string) error {
	units := utf16.Encode([]rune(s))
	if err := w.Uint32(uint32(len(units))); err != nil {
		return err
	}
	raw := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[i*2:i*2+2], u)
	}
	_, err := w.w.Write(raw)
	return err
}

// FixedString writes s as UTF-16LE into a block of exactly size bytes,
// padded with nulls. size must be even and large enough to hold s.
func (w *Writer) FixedString(s string, size int) error {
	units := utf16.Encode([]rune(s))
	raw := make([]byte, size)
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[i*2:i*2+2], u)
	}
	_, err := w.w.Write(raw)
	return err
}

// GUID writes g in the Windows mixed-endian layout.
func (w *Writer) GUID(g guid.GUID) error {
	arr := g.ToWindowsArray()
	_, err := w.w.Write(arr[:])
	return err
}

// Filetime writes t as a uint64 FILETIME value.
func (w *Writer) Filetime(t time.Time) error {
	return w.Uint64(uint64(t.UnixNano()/100 + filetimeEpochDelta))
}
