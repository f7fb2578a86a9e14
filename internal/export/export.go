// Package export re-splits a decompressed archive payload into individual
// platform save files. Entries tile the payload contiguously in table
// order; each typed entry becomes one output file prefixed with the
// platform template header and a type-specific sub-header.
package export

import (
	"errors"
	"fmt"
	"io/fs"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/savetools/wgsport/internal/archive"
)

// Output path construction.
const (
	// pathPrefix is the virtual-path prefix the archive uses for the
	// save tree. It is stripped from output paths.
	pathPrefix = "Data/"

	// outputExt is appended to every exported file.
	outputExt = ".sav"

	// SidecarName is the configuration file referenced by the archive
	// but stored outside it, next to containers.index in the source
	// profile. Matched case-insensitively on the virtual path's base name.
	SidecarName = "settings.cfg"
)

// ErrIntegrityMismatch is returned when the entry table's declared sizes
// do not tile the payload exactly. Well-formed archives never trip this;
// it signals a corrupt archive or a size bookkeeping bug.
var ErrIntegrityMismatch = errors.New("wgsport: entry sizes do not tile payload")

// Exporter writes the individual save files for one archive.
type Exporter struct {
	// Template is the platform header blob prepended verbatim to every
	// output file.
	Template []byte

	// SidecarDir is the directory holding the sidecar configuration
	// file on the source side. Empty disables sidecar copying.
	SidecarDir string

	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Export walks the entry table in order, slicing payload by declared
// sizes, and writes one file per typed entry under destDir.
//
// Untyped entries advance the cursor without producing output, except the
// sidecar configuration file, which is copied from SidecarDir when
// present there. After the last entry the cursor must sit exactly at the
// end of the payload; otherwise ErrIntegrityMismatch is returned (output
// already written is kept).
func (e *Exporter) Export(hdr *archive.Header, payload []byte, destDir string) error {
	log := e.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}

	cursor := uint64(0)
	for i, entry := range hdr.Entries {
		if entry.Size > uint64(len(payload))-cursor {
			return fmt.Errorf("%w: entry %d (%s) needs %d bytes, %d remain",
				ErrIntegrityMismatch, i, entry.Path, entry.Size, uint64(len(payload))-cursor)
		}
		data := payload[cursor : cursor+entry.Size]
		cursor += entry.Size

		if entry.Type == "" {
			if isSidecar(entry.Path) {
				e.copySidecar(log, entry.Path, destDir)
			}
			continue
		}

		name := stripPrefix(log, entry.Path)
		if !fs.ValidPath(name) {
			return fmt.Errorf("export %s: invalid entry path", entry.Path)
		}
		outPath := filepath.Join(destDir, filepath.FromSlash(name)+outputExt)
		if err := e.writeEntry(outPath, entry, hdr.Version, data); err != nil {
			return fmt.Errorf("export %s: %w", entry.Path, err)
		}
		log.Debug("exported entry", "path", entry.Path, "type", entry.Type, "size", entry.Size)
	}

	if cursor != uint64(len(payload)) {
		return fmt.Errorf("%w: entries cover %d of %d payload bytes",
			ErrIntegrityMismatch, cursor, len(payload))
	}
	return nil
}

// writeEntry writes one output file atomically: a temp file in the target
// directory, renamed into place once fully written.
func (e *Exporter) writeEntry(outPath string, entry archive.Entry, version uint32, data []byte) error {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".wgsport-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := writeFrames(tmp, e.Template, entry, version, data); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	name := tmp.Name()
	tmp = nil
	return os.Rename(name, outPath)
}

// copySidecar copies the sidecar configuration file from the source
// profile into the output tree. Failure is a warning only; the archive is
// still fully convertible without it.
func (e *Exporter) copySidecar(log *slog.Logger, virtualPath, destDir string) {
	if e.SidecarDir == "" {
		return
	}
	// The source file carries the canonical name regardless of how the
	// archive cases the virtual path.
	src := filepath.Join(e.SidecarDir, SidecarName)
	data, err := os.ReadFile(src)
	if err != nil {
		log.Warn("sidecar config not copied", "path", src, "error", err)
		return
	}

	name := stripPrefix(log, virtualPath)
	if !fs.ValidPath(name) {
		log.Warn("sidecar config not copied", "path", virtualPath, "error", "invalid path")
		return
	}
	dst := filepath.Join(destDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		log.Warn("sidecar config not copied", "path", dst, "error", err)
		return
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		log.Warn("sidecar config not copied", "path", dst, "error", err)
	}
}

func stripPrefix(log *slog.Logger, virtualPath string) string {
	stripped, ok := strings.CutPrefix(virtualPath, pathPrefix)
	if !ok {
		log.Debug("virtual path missing expected prefix", "path", virtualPath, "prefix", pathPrefix)
	}
	return stripped
}

func isSidecar(virtualPath string) bool {
	base := filepath.Base(filepath.FromSlash(virtualPath))
	return strings.EqualFold(base, SidecarName)
}
