package wgs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savetools/wgsport/internal/codec"
)

// testFile holds data for building container file fixtures.
type testFile struct {
	Name string
	ID   guid.GUID
	Data guid.GUID
}

// buildContainer fabricates a container.<subIndex> byte image.
func buildContainer(tb testing.TB, version uint32, files []testFile) []byte {
	tb.Helper()

	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	require.NoError(tb, w.Uint32(version))
	require.NoError(tb, w.Uint32(uint32(len(files))))
	for _, f := range files {
		require.NoError(tb, w.FixedString(f.Name, 128))
		require.NoError(tb, w.GUID(f.ID))
		require.NoError(tb, w.GUID(f.Data))
	}
	return buf.Bytes()
}

// writeContainer places a fabricated container file under the header's
// directory inside indexDir.
func writeContainer(tb testing.TB, indexDir string, header ContainerHeader, version uint32, files []testFile) {
	tb.Helper()
	dir := filepath.Join(indexDir, header.DirName())
	require.NoError(tb, os.MkdirAll(dir, 0o750))
	data := buildContainer(tb, version, files)
	name := fmt.Sprintf("container.%d", header.SubIndex)
	require.NoError(tb, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

func TestLoadContainer(t *testing.T) {
	indexDir := t.TempDir()
	header := ContainerHeader{
		ID:          ContainerID{Name: "island-WC"},
		SubIndex:    2,
		DirectoryID: mustGUID(t, "01020304-0506-0708-090a-0b0c0d0e0f10"),
	}
	dataID := mustGUID(t, "10203040-5060-7080-90a0-b0c0d0e0f000")
	writeContainer(t, indexDir, header, supportedContainerVersion, []testFile{
		{Name: "world-data", ID: mustGUID(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"), Data: dataID},
	})

	c, err := LoadContainer(indexDir, header)
	require.NoError(t, err)

	assert.Equal(t, header.DirName(), c.Dir)
	require.Len(t, c.Files, 1)
	assert.Equal(t, "world-data", c.Files[0].Name)
	assert.Equal(t, "102030405060708090A0B0C0D0E0F000", c.Files[0].DataFileName())
	assert.Equal(t,
		filepath.Join(indexDir, c.Dir, c.Files[0].DataFileName()),
		c.DataFilePath(indexDir, c.Files[0]))
}

func TestLoadContainerUnsupportedVersion(t *testing.T) {
	indexDir := t.TempDir()
	header := ContainerHeader{
		DirectoryID: mustGUID(t, "01020304-0506-0708-090a-0b0c0d0e0f10"),
	}
	writeContainer(t, indexDir, header, 5, nil)

	c, err := LoadContainer(indexDir, header)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Nil(t, c)
}

func TestLoadContainerMissing(t *testing.T) {
	header := ContainerHeader{
		DirectoryID: mustGUID(t, "01020304-0506-0708-090a-0b0c0d0e0f10"),
	}
	_, err := LoadContainer(t.TempDir(), header)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadContainerTruncated(t *testing.T) {
	indexDir := t.TempDir()
	header := ContainerHeader{
		DirectoryID: mustGUID(t, "01020304-0506-0708-090a-0b0c0d0e0f10"),
	}
	dir := filepath.Join(indexDir, header.DirName())
	require.NoError(t, os.MkdirAll(dir, 0o750))
	data := buildContainer(t, supportedContainerVersion, []testFile{{Name: "x"}})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "container.0"), data[:len(data)-4], 0o600))

	_, err := LoadContainer(indexDir, header)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
