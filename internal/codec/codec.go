// Package codec implements the binary primitives shared by the container
// store and the embedded save archive: little-endian integers,
// length-prefixed UTF-16LE strings, fixed-width UTF-16LE text blocks,
// Windows mixed-endian GUIDs, and FILETIME timestamps.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// ErrStringTooLong is returned when a declared string length exceeds the
// supported limit, which almost always indicates a misaligned read.
var ErrStringTooLong = errors.New("wgsport: declared string length too long")

// maxStringChars bounds length-prefixed string reads. Save metadata strings
// are short; anything past this is a corrupt or misread length prefix.
const maxStringChars = 1 << 16

// filetimeEpochDelta is the offset between the FILETIME epoch (1601-01-01)
// and the Unix epoch, in 100ns intervals.
const filetimeEpochDelta = 116444736000000000

// Reader decodes the little-endian primitives used by the container store
// formats from an underlying stream. Methods return the underlying read
// error unmodified so callers can classify truncation as an I/O failure.
type Reader struct {
	r   io.Reader
	buf [16]byte
}

// NewReader returns a Reader decoding from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) fill(n int) ([]byte, error) {
	b := r.buf[:n]
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.fill(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.fill(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint64 reads a little-endian uint64.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.fill(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Bytes reads exactly n bytes into a fresh buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// String reads a length-prefixed UTF-16LE string: a uint32 code-unit count
// followed by that many little-endian code units.
func (r *Reader) String() (string, error) {
	n, err := r.Uint32()
	if err != nil {
		return "", err
	}
	if n > maxStringChars {
		return "", fmt.Errorf("%w: %d code units", ErrStringTooLong, n)
	}
	raw := make([]byte, int(n)*2)
	if _, err := io.ReadFull(r.r, raw); err != nil {
		return "", err
	}
	return decodeUTF16LE(raw), nil
}

// QuotedString reads a length-prefixed UTF-16LE string whose payload is
// wrapped in double quotes and returns the unquoted content. A payload
// without the surrounding quotes is returned as-is; the container index
// writer has been observed to quote these fields but the format does not
// document it.
func (r *Reader) QuotedString() (string, error) {
	s, err := r.String()
	if err != nil {
		return "", err
	}
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return s, nil
}

// FixedString reads a fixed-width UTF-16LE text block of size bytes and
// trims trailing null padding. size must be even.
func (r *Reader) FixedString(size int) (string, error) {
	raw := make([]byte, size)
	if _, err := io.ReadFull(r.r, raw); err != nil {
		return "", err
	}
	return strings.TrimRight(decodeUTF16LE(raw), "\x00"), nil
}

// GUID reads a 16-byte Windows mixed-endian GUID.
func (r *Reader) GUID() (guid.GUID, error) {
	b, err := r.fill(16)
	if err != nil {
		return guid.GUID{}, err
	}
	var arr [16]byte
	copy(arr[:], b)
	return guid.FromWindowsArray(arr), nil
}

// Filetime reads a uint64 FILETIME (100ns intervals since 1601-01-01)
// and returns it as UTC time.
func (r *Reader) Filetime() (time.Time, error) {
	ft, err := r.Uint64()
	if err != nil {
		return time.Time{}, err
	}
	return FiletimeToTime(ft), nil
}

// FiletimeToTime converts a FILETIME value to UTC time.
func FiletimeToTime(ft uint64) time.Time {
	return time.Unix(0, (int64(ft)-filetimeEpochDelta)*100).UTC()
}

// GUIDHex formats a GUID as uppercase hex without separators, the form the
// container store uses for directory and data-file names.
func GUIDHex(g guid.GUID) string {
	return fmt.Sprintf("%08X%04X%04X%02X%02X%02X%02X%02X%02X%02X%02X",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3],
		g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

func decodeUTF16LE(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2 : i*2+2])
	}
	return string(utf16.Decode(units))
}
