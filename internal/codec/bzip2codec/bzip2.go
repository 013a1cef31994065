// Package bzip2codec provides a bzip2 compression codec.
package bzip2codec

import (
	"io"

	"github.com/dsnet/compress/bzip2"

	"github.com/seqclean/seqclean/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements bzip2 compression. bzip2 encoding is sequential;
// there is no worker knob.
type Codec struct{}

// New returns a new bzip2 codec.
func New() *Codec {
	return &Codec{}
}

// Reader wraps r to decompress bzip2 data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(r, nil)
}

// Writer wraps w to compress data with bzip2.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
}

// Extension returns "bz2".
func (c *Codec) Extension() string {
	return "bz2"
}
