package export

import (
	"io"

	"github.com/savetools/wgsport/internal/archive"
	"github.com/savetools/wgsport/internal/codec"
)

// Recognized entry-type tags. WorldMetaData shares WorldObjectData's
// sub-header layout. Anything else is passed through with the minimum
// framing so future game types survive conversion untouched.
const (
	TypeWorldObject = "WorldObjectData"
	TypeWorldMeta   = "WorldMetaData"
	TypePlayer      = "PlayerData"
)

// Constant tag values the platform expects in synthesized sub-headers.
const (
	worldTag  = 0x0001
	playerTag = 0x0002
)

// entryKind keys sub-header synthesis.
type entryKind int

const (
	kindUnknown entryKind = iota
	kindWorld
	kindPlayer
)

func kindOf(typeTag string) entryKind {
	switch typeTag {
	case TypeWorldObject, TypeWorldMeta:
		return kindWorld
	case TypePlayer:
		return kindPlayer
	default:
		return kindUnknown
	}
}

// writeFrames writes one complete output file body: the template header
// verbatim, the entry-type string, the type-specific sub-header, then the
// raw entry bytes.
func writeFrames(w io.Writer, template []byte, entry archive.Entry, version uint32, data []byte) error {
	cw := codec.NewWriter(w)

	if err := cw.Bytes(template); err != nil {
		return err
	}
	if err := cw.String(entry.Type); err != nil {
		return err
	}
	if err := writeSubHeader(cw, kindOf(entry.Type), version, uint64(len(data))); err != nil {
		return err
	}
	return cw.Bytes(data)
}

func writeSubHeader(cw *codec.Writer, kind entryKind, version uint32, size uint64) error {
	switch kind {
	case kindWorld:
		if err := cw.String(archive.Marker); err != nil {
			return err
		}
		if err := cw.Uint32(version); err != nil {
			return err
		}
		if err := cw.Uint32(worldTag); err != nil {
			return err
		}
		return cw.Uint64(size)
	case kindPlayer:
		if err := cw.Uint32(playerTag); err != nil {
			return err
		}
		return cw.Uint64(size)
	default:
		// Unknown types get no sub-header beyond the type string.
		return nil
	}
}
