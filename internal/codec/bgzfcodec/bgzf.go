// Package bgzfcodec provides a BGZF compression codec.
//
// BGZF is a gzip-compatible container built from fixed-size compressed
// blocks, which makes it both block-parallel and randomly accessible.
package bgzfcodec

import (
	"io"

	"github.com/biogo/hts/bgzf"

	"github.com/seqclean/seqclean/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements BGZF compression.
type Codec struct {
	workers int
}

// Option configures the codec.
type Option func(*Codec)

// WithWorkers sets the number of block (de)compression workers.
func WithWorkers(n int) Option {
	return func(c *Codec) { c.workers = n }
}

// New returns a new BGZF codec.
func New(opts ...Option) *Codec {
	c := &Codec{workers: 1}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = 1
	}
	return c
}

// Reader wraps r to decompress BGZF data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return bgzf.NewReader(r, c.workers)
}

// Writer wraps w to compress data into BGZF blocks.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return bgzf.NewWriter(w, c.workers), nil
}

// Extension returns "gz"; BGZF output is a valid gzip stream.
func (c *Codec) Extension() string {
	return "gz"
}
