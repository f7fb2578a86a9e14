// Package testutil fabricates container-store profile trees and embedded
// archives for tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"

	"github.com/savetools/wgsport/internal/codec"
)

// Container describes one fabricated container: its index header plus the
// container file written into its directory.
type Container struct {
	Name     string
	AltName  string
	Tag      string // quoted hex field; empty means `"0x01"`
	SubIndex uint8
	Dir      guid.GUID
	Modified time.Time
	Size     uint64
	Version  uint32 // container file version; 0 means the supported version
	Files    []File
}

// File is one container file entry.
type File struct {
	Name string
	ID   guid.GUID
	Data guid.GUID
}

// Entry is one virtual file in a fabricated archive. Its declared size is
// the length of Data.
type Entry struct {
	Path string
	Type string
	Data []byte
}

// GUID parses s or fails the test.
func GUID(tb testing.TB, s string) guid.GUID {
	tb.Helper()
	g, err := guid.FromString(s)
	require.NoError(tb, err)
	return g
}

// WriteProfile writes a containers.index for pkg plus each container's
// directory and container.<subIndex> file under dir.
func WriteProfile(tb testing.TB, dir, pkg string, containers []Container) {
	tb.Helper()

	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	require.NoError(tb, w.Uint32(0xe))
	require.NoError(tb, w.Uint32(1))
	require.NoError(tb, w.Uint32(uint32(len(containers))))
	require.NoError(tb, w.Uint32(0))
	require.NoError(tb, w.String(pkg))
	require.NoError(tb, w.Filetime(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)))
	require.NoError(tb, w.Uint32(0))
	require.NoError(tb, w.String("11111111-2222-3333-4444-555555555555"))
	require.NoError(tb, w.Uint32(0))
	require.NoError(tb, w.Uint32(0))
	for _, c := range containers {
		tag := c.Tag
		if tag == "" {
			tag = `"0x01"`
		}
		require.NoError(tb, w.String(c.Name))
		require.NoError(tb, w.String(c.AltName))
		require.NoError(tb, w.String(tag))
		require.NoError(tb, w.Uint8(c.SubIndex))
		require.NoError(tb, w.GUID(c.Dir))
		require.NoError(tb, w.Filetime(c.Modified))
		require.NoError(tb, w.Uint64(c.Size))
	}
	require.NoError(tb, os.WriteFile(filepath.Join(dir, "containers.index"), buf.Bytes(), 0o600))

	for _, c := range containers {
		writeContainer(tb, dir, c)
	}
}

func writeContainer(tb testing.TB, dir string, c Container) {
	tb.Helper()

	version := c.Version
	if version == 0 {
		version = 4
	}

	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	require.NoError(tb, w.Uint32(version))
	require.NoError(tb, w.Uint32(uint32(len(c.Files))))
	for _, f := range c.Files {
		require.NoError(tb, w.FixedString(f.Name, 128))
		require.NoError(tb, w.GUID(f.ID))
		require.NoError(tb, w.GUID(f.Data))
	}

	cdir := filepath.Join(dir, codec.GUIDHex(c.Dir))
	require.NoError(tb, os.MkdirAll(cdir, 0o750))
	name := fmt.Sprintf("container.%d", c.SubIndex)
	require.NoError(tb, os.WriteFile(filepath.Join(cdir, name), buf.Bytes(), 0o600))
}

// DataPath returns where a data blob for the given container and file
// GUIDs lives under dir.
func DataPath(dir string, c Container, f File) string {
	return filepath.Join(dir, codec.GUIDHex(c.Dir), codec.GUIDHex(f.Data))
}

// WriteArchive writes a fabricated archive to path. The payload is the
// concatenation of the entries' contents in order, zlib-compressed.
func WriteArchive(tb testing.TB, path string, entries []Entry) {
	tb.Helper()

	var payload []byte
	for _, e := range entries {
		payload = append(payload, e.Data...)
	}

	var comp bytes.Buffer
	zw := zlib.NewWriter(&comp)
	_, err := zw.Write(payload)
	require.NoError(tb, err)
	require.NoError(tb, zw.Close())

	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	require.NoError(tb, w.String("save_version"))
	require.NoError(tb, w.Uint32(8))
	require.NoError(tb, w.Uint64(uint64(len(payload))))
	require.NoError(tb, w.Uint32(0))
	require.NoError(tb, w.Uint32(uint32(len(entries))))
	for _, e := range entries {
		require.NoError(tb, w.String(e.Path))
		require.NoError(tb, w.Uint64(uint64(len(e.Data))))
		require.NoError(tb, w.String(e.Type))
		require.NoError(tb, w.Uint32(0))
	}
	require.NoError(tb, w.Uint32(0))
	require.NoError(tb, w.Uint64(uint64(comp.Len())))
	require.NoError(tb, w.Bytes(comp.Bytes()))

	require.NoError(tb, os.WriteFile(path, buf.Bytes(), 0o600))
}
