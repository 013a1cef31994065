// Package codec provides streaming compression and decompression for read files.
package codec

import (
	"io"
	"path/filepath"
	"strings"
)

// Codec provides compression and decompression functionality.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
}

// Format identifies a compression container.
type Format int

const (
	FormatNone Format = iota
	FormatGzip
	FormatBgzf
	FormatBzip2
	FormatXz
	FormatZstd
)

// String returns the canonical name of the format.
func (f Format) String() string {
	switch f {
	case FormatGzip:
		return "gzip"
	case FormatBgzf:
		return "bgzf"
	case FormatBzip2:
		return "bzip2"
	case FormatXz:
		return "xz"
	case FormatZstd:
		return "zstd"
	default:
		return "none"
	}
}

// Extension returns the file extension used for the format, without dot.
// BGZF files conventionally carry the plain gzip extension.
func (f Format) Extension() string {
	switch f {
	case FormatGzip, FormatBgzf:
		return "gz"
	case FormatBzip2:
		return "bz2"
	case FormatXz:
		return "xz"
	case FormatZstd:
		return "zst"
	default:
		return ""
	}
}

// Compressed reports whether the format is an actual compression container.
func (f Format) Compressed() bool { return f != FormatNone }

// ParseFormat parses a format name. It accepts long names and the
// single-letter codes u, g, b, x, z. Parsing is case-insensitive.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(s) {
	case "u", "none", "":
		return FormatNone, true
	case "g", "gz", "gzip":
		return FormatGzip, true
	case "bgzf", "bgz":
		return FormatBgzf, true
	case "b", "bz2", "bzip2":
		return FormatBzip2, true
	case "x", "xz":
		return FormatXz, true
	case "z", "zst", "zstd":
		return FormatZstd, true
	}
	return FormatNone, false
}

// FromPath infers a format from a filename extension. Unknown extensions
// map to FormatNone. The plain ".gz" extension maps to FormatGzip; BGZF
// cannot be told apart from gzip by name alone and needs Detect.
func FromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return FormatGzip
	case ".bgz", ".bgzf":
		return FormatBgzf
	case ".bz2":
		return FormatBzip2
	case ".xz":
		return FormatXz
	case ".zst", ".zstd":
		return FormatZstd
	default:
		return FormatNone
	}
}

// TrimExtension removes a recognized compression extension from path, if
// present. The remainder still carries the record-format extension.
func TrimExtension(path string) string {
	if FromPath(path) != FormatNone {
		return strings.TrimSuffix(path, filepath.Ext(path))
	}
	return path
}
