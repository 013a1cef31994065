package codec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultBlockSize is the amount of plain data encoded per independent
// block by BlockWriter.
const DefaultBlockSize = 1 << 20

// EncodeFunc encodes one block of plain bytes into a complete,
// independently decodable compressed unit. It must be safe for
// concurrent calls.
type EncodeFunc func(block []byte) ([]byte, error)

// BlockWriter compresses its input as a sequence of independent blocks,
// encoded by a bounded pool of workers and written out in input order.
// The result is a concatenation of self-contained compressed units,
// which decoders for multi-stream formats (xz, gzip) accept as a single
// stream. Workers only ever see opaque byte blocks.
type BlockWriter struct {
	buf       bytes.Buffer
	blockSize int
	seq       int
	jobs      chan blockJob
	results   chan blockResult

	ctx       context.Context
	cancel    context.CancelFunc
	g         *errgroup.Group
	collected chan error
	closeOnce sync.Once
	closeErr  error
}

type blockJob struct {
	seq  int
	data []byte
}

type blockResult struct {
	seq  int
	data []byte
	err  error
}

// NewBlockWriter returns a BlockWriter that encodes blocks of blockSize
// bytes with encode across workers goroutines and writes the encoded
// units to w in order. blockSize <= 0 selects DefaultBlockSize.
func NewBlockWriter(w io.Writer, encode EncodeFunc, workers, blockSize int) *BlockWriter {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	bw := &BlockWriter{
		blockSize: blockSize,
		jobs:      make(chan blockJob, workers),
		results:   make(chan blockResult, workers),
		ctx:       gctx,
		cancel:    cancel,
		g:         g,
		collected: make(chan error, 1),
	}

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for job := range bw.jobs {
				data, err := encode(job.data)
				select {
				case bw.results <- blockResult{seq: job.seq, data: data, err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	// Collector reorders finished blocks back into input order. On a
	// write failure it cancels the pool so nothing blocks on results.
	go func() {
		err := bw.collect(w)
		if err != nil {
			cancel()
		}
		bw.collected <- err
	}()

	return bw
}

func (bw *BlockWriter) collect(w io.Writer) error {
	pending := make(map[int][]byte)
	next := 0
	for res := range bw.results {
		if res.err != nil {
			return fmt.Errorf("encoding block %d: %w", res.seq, res.err)
		}
		pending[res.seq] = res.data
		for {
			data, ok := pending[next]
			if !ok {
				break
			}
			if _, err := w.Write(data); err != nil {
				return fmt.Errorf("writing block %d: %w", next, err)
			}
			delete(pending, next)
			next++
		}
	}
	return nil
}

// Write buffers p, dispatching full blocks to the worker pool.
func (bw *BlockWriter) Write(p []byte) (int, error) {
	bw.buf.Write(p)
	for bw.buf.Len() >= bw.blockSize {
		block := make([]byte, bw.blockSize)
		if _, err := bw.buf.Read(block); err != nil {
			return 0, err
		}
		if err := bw.dispatch(block); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (bw *BlockWriter) dispatch(block []byte) error {
	select {
	case bw.jobs <- blockJob{seq: bw.seq, data: block}:
		bw.seq++
		return nil
	case <-bw.ctx.Done():
		return bw.ctx.Err()
	}
}

// Close flushes the trailing partial block, drains the pool, and waits
// for all blocks to be written. Close is idempotent.
func (bw *BlockWriter) Close() error {
	bw.closeOnce.Do(func() {
		var dispatchErr error
		if bw.buf.Len() > 0 {
			block := make([]byte, bw.buf.Len())
			bw.buf.Read(block)
			dispatchErr = bw.dispatch(block)
		}
		close(bw.jobs)

		workerErr := bw.g.Wait()
		close(bw.results)
		collectErr := <-bw.collected
		bw.cancel()

		switch {
		case collectErr != nil:
			bw.closeErr = collectErr
		case workerErr != nil:
			bw.closeErr = workerErr
		default:
			bw.closeErr = dispatchErr
		}
	})
	return bw.closeErr
}
