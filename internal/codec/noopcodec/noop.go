// Package noopcodec provides a pass-through codec for uncompressed data.
package noopcodec

import (
	"io"

	"github.com/seqclean/seqclean/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec passes data through unchanged.
type Codec struct{}

// New returns a new pass-through codec.
func New() *Codec {
	return &Codec{}
}

// Reader wraps r without transformation.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

// Writer wraps w without transformation.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

// Extension returns "".
func (c *Codec) Extension() string {
	return ""
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
