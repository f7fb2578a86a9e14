package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savetools/wgsport/internal/archive"
	"github.com/savetools/wgsport/internal/codec"
)

var testTemplate = []byte{'T', 'P', 'L', 0, 1, 2, 3, 0xff}

// expectedFile reconstructs the exact bytes Export must produce for one
// typed entry.
func expectedFile(tb testing.TB, typeTag string, version uint32, data []byte) []byte {
	tb.Helper()

	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	require.NoError(tb, w.Bytes(testTemplate))
	require.NoError(tb, w.String(typeTag))
	switch typeTag {
	case TypeWorldObject, TypeWorldMeta:
		require.NoError(tb, w.String(archive.Marker))
		require.NoError(tb, w.Uint32(version))
		require.NoError(tb, w.Uint32(0x0001))
		require.NoError(tb, w.Uint64(uint64(len(data))))
	case TypePlayer:
		require.NoError(tb, w.Uint32(0x0002))
		require.NoError(tb, w.Uint64(uint64(len(data))))
	}
	require.NoError(tb, w.Bytes(data))
	return buf.Bytes()
}

func headerFor(payloadParts ...[]byte) (*archive.Header, []byte) {
	hdr := &archive.Header{Version: 8}
	var payload []byte
	for _, p := range payloadParts {
		payload = append(payload, p...)
	}
	hdr.DecompressedSize = uint64(len(payload))
	return hdr, payload
}

func TestExportRoundTrip(t *testing.T) {
	world := []byte("world object bytes")
	meta := []byte("meta")
	player := []byte("player state")
	other := []byte("??")
	hdr, payload := headerFor(world, meta, player, other)
	hdr.Entries = []archive.Entry{
		{Path: "Data/world/main", Size: uint64(len(world)), Type: TypeWorldObject},
		{Path: "Data/world/meta", Size: uint64(len(meta)), Type: TypeWorldMeta},
		{Path: "Data/players/p0", Size: uint64(len(player)), Type: TypePlayer},
		{Path: "Data/mods/extra", Size: uint64(len(other)), Type: "ModData"},
	}

	dest := t.TempDir()
	e := &Exporter{Template: testTemplate}
	require.NoError(t, e.Export(hdr, payload, dest))

	tests := []struct {
		path string
		tag  string
		data []byte
	}{
		{"world/main.sav", TypeWorldObject, world},
		{"world/meta.sav", TypeWorldMeta, meta},
		{"players/p0.sav", TypePlayer, player},
		{"mods/extra.sav", "ModData", other},
	}
	for _, tt := range tests {
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(tt.path)))
		require.NoError(t, err, tt.path)
		assert.Equal(t, expectedFile(t, tt.tag, 8, tt.data), got, tt.path)
	}
}

func TestExportIdempotent(t *testing.T) {
	data := []byte("stable bytes")
	hdr, payload := headerFor(data)
	hdr.Entries = []archive.Entry{
		{Path: "Data/world/main", Size: uint64(len(data)), Type: TypeWorldObject},
	}

	e := &Exporter{Template: testTemplate}

	read := func() []byte {
		dest := t.TempDir()
		require.NoError(t, e.Export(hdr, payload, dest))
		got, err := os.ReadFile(filepath.Join(dest, "world", "main.sav"))
		require.NoError(t, err)
		return got
	}

	assert.Equal(t, read(), read())
}

func TestExportSkipsUntypedEntries(t *testing.T) {
	skipped := []byte("not exported")
	after := []byte("exported")
	hdr, payload := headerFor(skipped, after)
	hdr.Entries = []archive.Entry{
		{Path: "Data/cache/blob", Size: uint64(len(skipped))},
		{Path: "Data/world/main", Size: uint64(len(after)), Type: TypePlayer},
	}

	dest := t.TempDir()
	e := &Exporter{Template: testTemplate}
	require.NoError(t, e.Export(hdr, payload, dest))

	// No file for the untyped entry.
	_, err := os.Stat(filepath.Join(dest, "cache", "blob.sav"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	// The cursor advanced correctly: the typed entry decodes to its bytes.
	got, err := os.ReadFile(filepath.Join(dest, "world", "main.sav"))
	require.NoError(t, err)
	assert.Equal(t, expectedFile(t, TypePlayer, 8, after), got)
}

func TestExportSidecarCopied(t *testing.T) {
	srcDir := t.TempDir()
	cfg := []byte("difficulty=hard\n")
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, SidecarName), cfg, 0o600))

	body := []byte("cfgref")
	hdr, payload := headerFor(body)
	hdr.Entries = []archive.Entry{
		{Path: "Data/Settings.CFG", Size: uint64(len(body))}, // case-insensitive match
	}

	dest := t.TempDir()
	e := &Exporter{Template: testTemplate, SidecarDir: srcDir}
	require.NoError(t, e.Export(hdr, payload, dest))

	got, err := os.ReadFile(filepath.Join(dest, "Settings.CFG"))
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestExportSidecarMissingIsNonFatal(t *testing.T) {
	body := []byte("cfgref")
	hdr, payload := headerFor(body)
	hdr.Entries = []archive.Entry{
		{Path: "Data/" + SidecarName, Size: uint64(len(body))},
	}

	dest := t.TempDir()
	e := &Exporter{Template: testTemplate, SidecarDir: t.TempDir()}
	require.NoError(t, e.Export(hdr, payload, dest))

	_, err := os.Stat(filepath.Join(dest, SidecarName))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExportIntegrityOverrun(t *testing.T) {
	hdr, payload := headerFor([]byte("short"))
	hdr.Entries = []archive.Entry{
		{Path: "Data/world/main", Size: uint64(len(payload)) + 1, Type: TypeWorldObject},
	}

	err := (&Exporter{Template: testTemplate}).Export(hdr, payload, t.TempDir())
	assert.ErrorIs(t, err, ErrIntegrityMismatch)
}

func TestExportIntegrityUnderrun(t *testing.T) {
	hdr, payload := headerFor([]byte("0123456789"))
	hdr.Entries = []archive.Entry{
		{Path: "Data/world/main", Size: 4, Type: TypeWorldObject},
	}

	err := (&Exporter{Template: testTemplate}).Export(hdr, payload, t.TempDir())
	assert.ErrorIs(t, err, ErrIntegrityMismatch)
}

func TestExportMissingPrefixStillWrites(t *testing.T) {
	data := []byte("no prefix")
	hdr, payload := headerFor(data)
	hdr.Entries = []archive.Entry{
		{Path: "odd/location", Size: uint64(len(data)), Type: TypePlayer},
	}

	dest := t.TempDir()
	require.NoError(t, (&Exporter{Template: testTemplate}).Export(hdr, payload, dest))

	_, err := os.Stat(filepath.Join(dest, "odd", "location.sav"))
	assert.NoError(t, err)
}
