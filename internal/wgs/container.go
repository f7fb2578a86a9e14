package wgs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Microsoft/go-winio/pkg/guid"

	"github.com/savetools/wgsport/internal/codec"
)

// supportedContainerVersion is the only container file format generation
// this package reads.
const supportedContainerVersion = 4

// metadataFieldSize is the byte width of the fixed UTF-16LE metadata field
// in a container file entry.
const metadataFieldSize = 128

// Container is one parsed container.<subIndex> file: the list of physical
// data files belonging to a logical container.
type Container struct {
	Header ContainerHeader

	// Dir is the container's directory name inside the profile directory.
	Dir string

	// Files holds the container's file entries, in file order.
	Files []ContainerFile
}

// ContainerFile is one entry of a container file.
type ContainerFile struct {
	// Name is the entry's metadata text, trimmed of padding.
	Name string

	// ID identifies the entry.
	ID guid.GUID

	// DataFileID names the on-disk data blob inside the container
	// directory, formatted as uppercase hex without separators.
	DataFileID guid.GUID
}

// DataFileName returns the on-disk name of the entry's data blob.
func (f ContainerFile) DataFileName() string {
	return codec.GUIDHex(f.DataFileID)
}

// DataFilePath returns the full path of an entry's data blob for a
// container rooted at indexDir.
func (c *Container) DataFilePath(indexDir string, f ContainerFile) string {
	return filepath.Join(indexDir, c.Dir, f.DataFileName())
}

// LoadContainer reads and parses the container file for header inside
// indexDir: <indexDir>/<dir-GUID-hex>/container.<subIndex>.
func LoadContainer(indexDir string, header ContainerHeader) (*Container, error) {
	dir := header.DirName()
	path := filepath.Join(indexDir, dir, fmt.Sprintf("container.%d", header.SubIndex))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open container file: %w", err)
	}
	defer f.Close()

	files, err := readContainerFiles(codec.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &Container{
		Header: header,
		Dir:    dir,
		Files:  files,
	}, nil
}

func readContainerFiles(r *codec.Reader) ([]ContainerFile, error) {
	version, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if version != supportedContainerVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}

	files := make([]ContainerFile, 0, count)
	for i := uint32(0); i < count; i++ {
		var cf ContainerFile
		if cf.Name, err = r.FixedString(metadataFieldSize); err != nil {
			return nil, fmt.Errorf("file entry %d: %w", i, err)
		}
		if cf.ID, err = r.GUID(); err != nil {
			return nil, fmt.Errorf("file entry %d: %w", i, err)
		}
		if cf.DataFileID, err = r.GUID(); err != nil {
			return nil, fmt.Errorf("file entry %d: %w", i, err)
		}
		files = append(files, cf)
	}
	return files, nil
}
