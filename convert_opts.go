package wgsport

import (
	"errors"
	"log/slog"
)

// Option configures a Converter.
type Option func(*Converter) error

// WithLogger sets a logger for the converter.
// If nil, a discard logger is used (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithAppName overrides the application name the container index must
// declare.
func WithAppName(name string) Option {
	return func(c *Converter) error {
		if name == "" {
			return errors.New("wgsport: app name must not be empty")
		}
		c.appName = name
		return nil
	}
}

// WithDecompressor selects the payload codec. Zlib is the default;
// LZ4Block is provided for builds that ship LZ4 payloads.
func WithDecompressor(fn DecompressFunc) Option {
	return func(c *Converter) error {
		if fn == nil {
			return errors.New("wgsport: decompressor must not be nil")
		}
		c.decompress = fn
		return nil
	}
}

// WithTemplateHeader sets the platform header blob prepended to every
// exported file. Convert fails without one.
func WithTemplateHeader(template []byte) Option {
	return func(c *Converter) error {
		c.template = template
		return nil
	}
}

// WithWorkers sets the number of containers converted in parallel.
// Values <= 1 convert sequentially (default). Each conversion is
// self-contained, so ordering across containers is not significant.
func WithWorkers(n int) Option {
	return func(c *Converter) error {
		c.workers = n
		return nil
	}
}
