// Package archive parses the embedded game save archive: a marker string,
// a table of virtual file entries, and a single compressed payload holding
// all entry contents back to back.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/savetools/wgsport/internal/codec"
)

// Marker is the version property marker every archive must start with.
const Marker = "save_version"

// maxDeclaredSize bounds the declared compressed and decompressed payload
// sizes. Real saves are orders of magnitude smaller; a larger value is a
// corrupt header and must fail the parse rather than drive an allocation.
const maxDeclaredSize = 1 << 32

// Sentinel errors.
var (
	// ErrBadMagic is returned when the archive marker string does not
	// match Marker.
	ErrBadMagic = errors.New("wgsport: bad archive marker")

	// ErrDecompression is returned when the payload codec fails or
	// produces a length other than the declared decompressed size.
	ErrDecompression = errors.New("wgsport: payload decompression failed")
)

// DecompressFunc inflates compressed into exactly expectedSize bytes.
// Producing any other length is an error.
type DecompressFunc func(compressed []byte, expectedSize int) ([]byte, error)

// Header is the parsed archive metadata. The compressed payload itself is
// returned separately, already decompressed.
type Header struct {
	// Version is the archive format version. It is recorded for
	// diagnostics; this package does not gate on it.
	Version uint32

	// DecompressedSize is the declared length of the inflated payload.
	DecompressedSize uint64

	// CompressedSize is the declared length of the deflated payload.
	CompressedSize uint64

	// Entries holds the virtual file table in payload order: entry i's
	// bytes start at the sum of the sizes of entries 0..i-1.
	Entries []Entry
}

// Entry is one virtual file in the archive.
type Entry struct {
	// Path is the virtual path inside the save tree.
	Path string

	// Size is the entry's byte length inside the decompressed payload.
	Size uint64

	// Type is the entry-type tag driving sub-header synthesis on export.
	// Untyped entries (empty Type) are not part of the exported tree.
	Type string
}

// Load opens and parses the archive at path, returning the header and the
// decompressed payload.
//
// Entry sizes are not checked against the payload length here; the
// exporter owns that invariant because it is the consumer that walks the
// payload by declared sizes.
func Load(path string, dec DecompressFunc) (*Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	hdr, payload, err := Read(f, dec)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return hdr, payload, nil
}

// Read parses an archive from r, returning the header and the decompressed
// payload.
func Read(r io.Reader, dec DecompressFunc) (*Header, []byte, error) {
	cr := codec.NewReader(r)

	marker, err := cr.String()
	if err != nil {
		return nil, nil, err
	}
	if marker != Marker {
		return nil, nil, fmt.Errorf("%w: %q", ErrBadMagic, marker)
	}

	var hdr Header
	if hdr.Version, err = cr.Uint32(); err != nil {
		return nil, nil, err
	}
	if hdr.DecompressedSize, err = cr.Uint64(); err != nil {
		return nil, nil, err
	}
	if hdr.DecompressedSize > maxDeclaredSize {
		return nil, nil, fmt.Errorf("%w: declared decompressed size %d too large",
			ErrDecompression, hdr.DecompressedSize)
	}
	if _, err = cr.Uint32(); err != nil { // reserved
		return nil, nil, err
	}
	count, err := cr.Uint32()
	if err != nil {
		return nil, nil, err
	}

	hdr.Entries = make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := readEntry(cr)
		if err != nil {
			return nil, nil, fmt.Errorf("file entry %d: %w", i, err)
		}
		hdr.Entries = append(hdr.Entries, e)
	}

	if _, err = cr.Uint32(); err != nil { // reserved
		return nil, nil, err
	}
	if hdr.CompressedSize, err = cr.Uint64(); err != nil {
		return nil, nil, err
	}
	if hdr.CompressedSize > maxDeclaredSize {
		return nil, nil, fmt.Errorf("%w: declared compressed size %d too large",
			ErrDecompression, hdr.CompressedSize)
	}
	compressed, err := cr.Bytes(int(hdr.CompressedSize))
	if err != nil {
		return nil, nil, err
	}

	payload, err := dec(compressed, int(hdr.DecompressedSize))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDecompression, err)
	}
	if uint64(len(payload)) != hdr.DecompressedSize {
		return nil, nil, fmt.Errorf("%w: got %d bytes, declared %d",
			ErrDecompression, len(payload), hdr.DecompressedSize)
	}
	return &hdr, payload, nil
}

func readEntry(cr *codec.Reader) (Entry, error) {
	var e Entry
	var err error

	if e.Path, err = cr.String(); err != nil {
		return e, err
	}
	if e.Size, err = cr.Uint64(); err != nil {
		return e, err
	}
	if e.Type, err = cr.String(); err != nil {
		return e, err
	}
	if _, err = cr.Uint32(); err != nil { // reserved
		return e, err
	}
	return e, nil
}
