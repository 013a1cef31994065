// Package zstdcodec provides a zstd compression codec.
package zstdcodec

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/seqclean/seqclean/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements zstd compression. Encoding distributes independent
// frames of the input across the configured worker count.
type Codec struct {
	workers int
}

// Option configures the codec.
type Option func(*Codec)

// WithWorkers sets the number of encoder and decoder workers.
func WithWorkers(n int) Option {
	return func(c *Codec) { c.workers = n }
}

// New returns a new zstd codec.
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

// Reader wraps r to decompress zstd data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(c.workers))
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

// Writer wraps w to compress data with zstd.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(c.workers),
		zstd.WithEncoderCRC(true),
	)
}

// Extension returns "zst".
func (c *Codec) Extension() string {
	return "zst"
}
