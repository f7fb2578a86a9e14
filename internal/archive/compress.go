package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

// Zlib inflates a zlib stream into exactly expectedSize bytes. This is the
// codec current builds of the game ship.
func Zlib(compressed []byte, expectedSize int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer zr.Close()

	out := make([]byte, expectedSize)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	// The stream must end exactly at expectedSize.
	var extra [1]byte
	if n, _ := zr.Read(extra[:]); n != 0 {
		return nil, fmt.Errorf("zlib: stream longer than declared size %d", expectedSize)
	}
	return out, nil
}

// LZ4Block inflates a raw LZ4 block into exactly expectedSize bytes, for
// builds of the game that ship LZ4 payloads.
func LZ4Block(compressed []byte, expectedSize int) ([]byte, error) {
	out := make([]byte, expectedSize)
	n, err := lz4.UncompressBlock(compressed, out)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if n != expectedSize {
		return nil, fmt.Errorf("lz4: inflated %d bytes, declared %d", n, expectedSize)
	}
	return out, nil
}
