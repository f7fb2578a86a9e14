package wgsport

import (
	"errors"

	"github.com/savetools/wgsport/internal/archive"
	"github.com/savetools/wgsport/internal/export"
	"github.com/savetools/wgsport/internal/wgs"
)

// Errors re-exported from the parsing layers.
var (
	// ErrMalformedIndex is returned when containers.index cannot be
	// split into a package and an app name.
	ErrMalformedIndex = wgs.ErrMalformedIndex

	// ErrUnsupportedVersion is returned when a container file carries an
	// unrecognized format version.
	ErrUnsupportedVersion = wgs.ErrUnsupportedVersion

	// ErrBadMagic is returned when an archive does not start with the
	// expected marker string.
	ErrBadMagic = archive.ErrBadMagic

	// ErrDecompression is returned when the payload codec fails or
	// produces the wrong length.
	ErrDecompression = archive.ErrDecompression

	// ErrIntegrityMismatch is returned when an archive's entry sizes do
	// not tile its payload exactly.
	ErrIntegrityMismatch = export.ErrIntegrityMismatch
)

// Orchestration errors.
var (
	// ErrWrongApplication is returned when the index belongs to a
	// different application than the converter expects.
	ErrWrongApplication = errors.New("wgsport: index belongs to another application")

	// ErrNoWorldSave is returned when no container in the index is a
	// world save.
	ErrNoWorldSave = errors.New("wgsport: no world save container found")

	// ErrNoTemplate is returned by Convert when no template header has
	// been configured.
	ErrNoTemplate = errors.New("wgsport: no template header configured")
)
