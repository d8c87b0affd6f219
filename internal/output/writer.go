// Package output writes scraped records to a stream or file.
package output

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatText  Format = "text"
)

// Formats lists the supported formats in flag-help order.
var Formats = []Format{FormatJSON, FormatJSONL, FormatYAML, FormatText}

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "yml":
		return FormatYAML, nil
	case "ndjson":
		return FormatJSONL, nil
	case "txt":
		return FormatText, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// FormatFromPath guesses the format from a file extension, falling back to
// def when the extension is not recognised.
func FormatFromPath(path string, def Format) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return def
	}
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return def
}

// Writer accepts records and encodes them on Close. Streaming formats write
// each record as it arrives.
type Writer interface {
	Write(record any) error
	Close() error
}

// Option configures a writer.
type Option func(*config)

type config struct {
	pretty bool
	indent string
}

// WithPretty enables indented JSON.
func WithPretty(enabled bool) Option {
	return func(c *config) {
		c.pretty = enabled
	}
}

// WithIndent sets the JSON indentation string.
func WithIndent(indent string) Option {
	return func(c *config) {
		c.indent = indent
	}
}

// NewWriter creates a writer for format on w. Closing the writer does not
// close w.
func NewWriter(w io.Writer, format Format, opts ...Option) (Writer, error) {
	cfg := &config{pretty: true, indent: "  "}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return newJSONWriter(w, cfg), nil
	case FormatJSONL:
		return newJSONLWriter(w), nil
	case FormatYAML:
		return newYAMLWriter(w), nil
	case FormatText:
		return newTextWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Create opens path on fs and returns a writer that closes the file when it
// is closed. Parent directories are created.
func Create(fs afero.Fs, path string, format Format, opts ...Option) (Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	w, err := NewWriter(f, format, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileWriter{Writer: w, f: f}, nil
}

type fileWriter struct {
	Writer
	f afero.File
}

func (w *fileWriter) Close() error {
	return errors.Join(w.Writer.Close(), w.f.Close())
}
