package wgsport

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/savetools/wgsport/internal/archive"
	"github.com/savetools/wgsport/internal/export"
	"github.com/savetools/wgsport/internal/wgs"
)

// DefaultAppName is the application name Convert and List expect in the
// container index unless overridden with WithAppName.
const DefaultAppName = "Sandbox"

// DecompressFunc inflates an archive payload to its declared size.
type DecompressFunc = archive.DecompressFunc

// Built-in payload codecs.
var (
	// Zlib is the default payload codec.
	Zlib DecompressFunc = archive.Zlib

	// LZ4Block handles builds of the game that ship LZ4 payloads.
	LZ4Block DecompressFunc = archive.LZ4Block
)

// Converter drives save conversion for one application.
type Converter struct {
	logger     *slog.Logger
	appName    string
	decompress DecompressFunc
	template   []byte
	workers    int
}

// New creates a Converter. By default it expects DefaultAppName, uses the
// Zlib codec, discards logs, and converts containers sequentially.
func New(opts ...Option) (*Converter, error) {
	c := &Converter{
		logger:     slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})),
		appName:    DefaultAppName,
		decompress: Zlib,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Save describes one world save found in a profile's container index.
type Save struct {
	// Name is the container's primary identifier.
	Name string

	// ModifiedAt is the container's timestamp.
	ModifiedAt time.Time

	// Size is the container's declared byte size.
	Size uint64

	// Dir is the container's directory name inside the profile.
	Dir string
}

// ContainerError records the failure of one container's conversion.
type ContainerError struct {
	Name string
	Err  error
}

func (e ContainerError) Error() string {
	return fmt.Sprintf("container %s: %v", e.Name, e.Err)
}

func (e ContainerError) Unwrap() error {
	return e.Err
}

// Result reports the outcome of one conversion run. A run with Failed
// entries still converted the saves in Converted; per-container failures
// do not abort the run.
type Result struct {
	// Converted lists the names of successfully converted world saves.
	Converted []string

	// Failed lists per-container failures.
	Failed []ContainerError
}

// List returns the world saves recorded in profileDir's container index,
// newest first is not guaranteed; order follows the index. It is
// read-only and never touches an output tree.
func (c *Converter) List(profileDir string) ([]Save, error) {
	idx, err := c.loadIndex(profileDir)
	if err != nil {
		return nil, err
	}

	var saves []Save
	for _, h := range idx.Containers {
		if !h.IsWorldSave() {
			continue
		}
		saves = append(saves, Save{
			Name:       h.ID.Name,
			ModifiedAt: h.ModifiedAt,
			Size:       h.Size,
			Dir:        h.DirName(),
		})
	}
	return saves, nil
}

// Convert converts every world save in profileDir's container index into
// <outputRoot>/<profileSubdir>, deleting and recreating that subdirectory
// first.
//
// A failure in one container is recorded in the Result and conversion
// continues with the rest. ErrWrongApplication, ErrNoWorldSave, and
// ErrNoTemplate abort the whole run before any output is written.
func (c *Converter) Convert(profileDir, outputRoot, profileSubdir string) (*Result, error) {
	if len(c.template) == 0 {
		return nil, ErrNoTemplate
	}

	idx, err := c.loadIndex(profileDir)
	if err != nil {
		return nil, err
	}

	var matched []wgs.ContainerHeader
	for _, h := range idx.Containers {
		if h.IsWorldSave() {
			matched = append(matched, h)
		}
	}
	if len(matched) == 0 {
		return nil, ErrNoWorldSave
	}

	dest := filepath.Join(outputRoot, profileSubdir)
	if err := os.RemoveAll(dest); err != nil {
		return nil, fmt.Errorf("clear destination %s: %w", dest, err)
	}
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", dest, err)
	}

	errs := make([]error, len(matched))
	if c.workers > 1 {
		var g errgroup.Group
		g.SetLimit(c.workers)
		for i, h := range matched {
			i, h := i, h
			g.Go(func() error {
				errs[i] = c.convertOne(profileDir, h, dest)
				return nil
			})
		}
		_ = g.Wait() // workers record failures into errs
	} else {
		for i, h := range matched {
			errs[i] = c.convertOne(profileDir, h, dest)
		}
	}

	res := &Result{}
	for i, h := range matched {
		if errs[i] != nil {
			c.logger.Error("world save not converted", "container", h.ID.Name, "error", errs[i])
			res.Failed = append(res.Failed, ContainerError{Name: h.ID.Name, Err: errs[i]})
			continue
		}
		c.logger.Info("world save converted", "container", h.ID.Name)
		res.Converted = append(res.Converted, h.ID.Name)
	}
	return res, nil
}

func (c *Converter) loadIndex(profileDir string) (*wgs.ContainerIndex, error) {
	idx, err := wgs.LoadIndex(profileDir)
	if err != nil {
		return nil, err
	}
	if idx.AppName != c.appName {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongApplication, idx.AppName, c.appName)
	}
	return idx, nil
}

// convertOne parses one world-save container's data blob and exports it.
func (c *Converter) convertOne(profileDir string, h wgs.ContainerHeader, dest string) error {
	cont, err := wgs.LoadContainer(profileDir, h)
	if err != nil {
		return err
	}
	if len(cont.Files) == 0 {
		return fmt.Errorf("container %s has no file entries", h.ID.Name)
	}

	dataPath := cont.DataFilePath(profileDir, cont.Files[0])
	hdr, payload, err := archive.Load(dataPath, c.decompress)
	if err != nil {
		return err
	}
	c.logger.Debug("archive parsed",
		"container", h.ID.Name,
		"entries", len(hdr.Entries),
		"payload", len(payload))

	e := &export.Exporter{
		Template:   c.template,
		SidecarDir: profileDir,
		Logger:     c.logger,
	}
	return e.Export(hdr, payload, dest)
}
