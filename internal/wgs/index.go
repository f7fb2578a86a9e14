// Package wgs parses the Windows container save store: the containers.index
// file enumerating logical save containers for one application, and the
// per-container archive files that resolve each container to its on-disk
// data blobs.
package wgs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"

	"github.com/savetools/wgsport/internal/codec"
)

// IndexName is the file name of the container index inside a profile
// directory.
const IndexName = "containers.index"

// Suffixes the store uses to tag container identifiers.
const (
	worldSaveSuffix = "-WC"
	backupSuffix    = "-WC-B"
)

// Sentinel errors.
var (
	// ErrMalformedIndex is returned when the package identifier in
	// containers.index cannot be split into a package and an app name.
	ErrMalformedIndex = errors.New("wgsport: malformed container index")

	// ErrUnsupportedVersion is returned when a container file carries a
	// format version other than the supported one.
	ErrUnsupportedVersion = errors.New("wgsport: unsupported container version")
)

// ContainerIndex is the parsed containers.index: the application identity
// plus one header per logical save container.
type ContainerIndex struct {
	// PackageName is the part of the package identifier before '!'.
	PackageName string

	// AppName is the part of the package identifier after '!'.
	AppName string

	// CreatedAt is the index creation timestamp.
	CreatedAt time.Time

	// ID is the stable index identifier.
	ID guid.GUID

	// Containers holds one header per container, in index order.
	Containers []ContainerHeader
}

// ContainerID names one logical container.
type ContainerID struct {
	// Name is the primary identifier; world saves end with "-WC".
	Name string

	// AltName is the secondary identifier.
	AltName string

	// Tag is the numeric tag, parsed from the quoted hex field.
	Tag uint64
}

// ContainerHeader locates one container on disk.
type ContainerHeader struct {
	ID          ContainerID
	SubIndex    uint8
	DirectoryID guid.GUID
	ModifiedAt  time.Time
	Size        uint64
}

// DirName returns the name of the container's subdirectory inside the
// profile directory.
func (h ContainerHeader) DirName() string {
	return codec.GUIDHex(h.DirectoryID)
}

// IsWorldSave reports whether the container holds a full world save, as
// opposed to a backup copy or auxiliary data.
func (h ContainerHeader) IsWorldSave() bool {
	return strings.HasSuffix(h.ID.Name, worldSaveSuffix) &&
		!strings.HasSuffix(h.ID.Name, backupSuffix)
}

// LoadIndex reads and parses <dir>/containers.index.
func LoadIndex(dir string) (*ContainerIndex, error) {
	path := filepath.Join(dir, IndexName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open container index: %w", err)
	}
	defer f.Close()

	idx, err := readIndex(codec.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return idx, nil
}

func readIndex(r *codec.Reader) (*ContainerIndex, error) {
	// Magic, version, entry count, reserved zero. Only the count is used;
	// the store has never gated on the others.
	var count uint32
	for i := 0; i < 4; i++ {
		v, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		if i == 2 {
			count = v
		}
	}

	pkg, err := r.String()
	if err != nil {
		return nil, err
	}
	parts := strings.Split(pkg, "!")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: package identifier %q", ErrMalformedIndex, pkg)
	}

	createdAt, err := r.Filetime()
	if err != nil {
		return nil, err
	}
	if _, err := r.Uint32(); err != nil {
		return nil, err
	}
	idText, err := r.String()
	if err != nil {
		return nil, err
	}
	id, err := guid.FromString(idText)
	if err != nil {
		return nil, fmt.Errorf("%w: index id %q", ErrMalformedIndex, idText)
	}
	for j := 0; j < 2; j++ {
		if _, err := r.Uint32(); err != nil {
			return nil, err
		}
	}

	idx := &ContainerIndex{
		PackageName: parts[0],
		AppName:     parts[1],
		CreatedAt:   createdAt,
		ID:          id,
		Containers:  make([]ContainerHeader, 0, count),
	}
	for i := uint32(0); i < count; i++ {
		h, err := readContainerHeader(r)
		if err != nil {
			return nil, fmt.Errorf("container header %d: %w", i, err)
		}
		idx.Containers = append(idx.Containers, h)
	}
	return idx, nil
}

func readContainerHeader(r *codec.Reader) (ContainerHeader, error) {
	var h ContainerHeader
	var err error

	if h.ID.Name, err = r.String(); err != nil {
		return h, err
	}
	if h.ID.AltName, err = r.String(); err != nil {
		return h, err
	}
	tag, err := r.QuotedString()
	if err != nil {
		return h, err
	}
	if h.ID.Tag, err = parseHexTag(tag); err != nil {
		return h, err
	}
	if h.SubIndex, err = r.Uint8(); err != nil {
		return h, err
	}
	if h.DirectoryID, err = r.GUID(); err != nil {
		return h, err
	}
	if h.ModifiedAt, err = r.Filetime(); err != nil {
		return h, err
	}
	if h.Size, err = r.Uint64(); err != nil {
		return h, err
	}
	return h, nil
}

// parseHexTag parses the container tag field: the leading two characters
// ("0x") are stripped, the rest is hexadecimal.
func parseHexTag(s string) (uint64, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: hex tag %q", ErrMalformedIndex, s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: hex tag %q", ErrMalformedIndex, s)
	}
	return v, nil
}
