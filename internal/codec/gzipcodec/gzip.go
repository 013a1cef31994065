// Package gzipcodec provides a gzip compression codec with a
// block-parallel writer.
package gzipcodec

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"

	"github.com/seqclean/seqclean/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements gzip compression. Writing splits the stream into
// independent deflate blocks compressed by a worker pool; the output is
// a single valid gzip stream regardless of the worker count.
type Codec struct {
	workers   int
	blockSize int
}

// Option configures the codec.
type Option func(*Codec)

// WithWorkers sets the number of compression workers.
func WithWorkers(n int) Option {
	return func(c *Codec) { c.workers = n }
}

// WithBlockSize sets the amount of plain data per compressed block.
func WithBlockSize(n int) Option {
	return func(c *Codec) { c.blockSize = n }
}

// New returns a new gzip codec.
func New(opts ...Option) *Codec {
	c := &Codec{workers: 1, blockSize: codec.DefaultBlockSize}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = 1
	}
	return c
}

// Reader wraps r to decompress gzip data. Multistream members, pgzip
// output, and BGZF containers all decode transparently.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// Writer wraps w to compress data with gzip across the configured
// worker count.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	zw := pgzip.NewWriter(w)
	if err := zw.SetConcurrency(c.blockSize, c.workers); err != nil {
		return nil, err
	}
	return zw, nil
}

// Extension returns "gz".
func (c *Codec) Extension() string {
	return "gz"
}
