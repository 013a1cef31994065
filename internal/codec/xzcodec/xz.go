// Package xzcodec provides an xz compression codec with a
// block-parallel writer.
package xzcodec

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz"

	"github.com/seqclean/seqclean/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements xz compression. With more than one worker, writing
// produces a concatenation of independent xz streams encoded in
// parallel; xz decoders consume concatenated streams as one.
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

// WithBlockSize sets the amount of plain data per compressed stream
// when encoding in parallel.
func WithBlockSize(n int) Option {
	return func(c *Codec) { c.blockSize = n }
}

// New returns a new xz codec.
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

// Reader wraps r to decompress xz data, including multi-stream input.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}

// Writer wraps w to compress data with xz.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	if c.workers == 1 {
		return xz.NewWriter(w)
	}
	return codec.NewBlockWriter(w, encodeStream, c.workers, c.blockSize), nil
}

// encodeStream encodes one block as a complete standalone xz stream.
func encodeStream(block []byte) ([]byte, error) {
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := xw.Write(block); err != nil {
		return nil, err
	}
	if err := xw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Extension returns "xz".
func (c *Codec) Extension() string {
	return "xz"
}
