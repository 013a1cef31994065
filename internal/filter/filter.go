package filter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/seqclean/seqclean/internal/codec"
	"github.com/seqclean/seqclean/internal/codec/bgzfcodec"
	"github.com/seqclean/seqclean/internal/codec/bzip2codec"
	"github.com/seqclean/seqclean/internal/codec/gzipcodec"
	"github.com/seqclean/seqclean/internal/codec/noopcodec"
	"github.com/seqclean/seqclean/internal/codec/xzcodec"
	"github.com/seqclean/seqclean/internal/codec/zstdcodec"
	"github.com/seqclean/seqclean/internal/fastx"
	"github.com/seqclean/seqclean/internal/kraken"
	"github.com/seqclean/seqclean/internal/stats"
)

// ctxCheckInterval is how often the pass polls for cancellation.
const ctxCheckInterval = 4096

// Engine drives the single-pass filter: it scans one or two record
// streams, consults the classification index once per read or pair,
// and routes kept records to the output writers. The pass itself runs
// on one goroutine; concurrency lives inside the codecs, whose workers
// only ever touch serialized byte blocks.
type Engine struct {
	index     *kraken.Index
	policy    Policy
	rule      fastx.MateSuffixRule
	outFormat codec.Format
	forceOut  bool
	workers   int
	overwrite bool
	decisions io.Writer
	logger    *zap.Logger
	collector stats.Collector
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutputFormat forces the output compression format instead of
// deriving it from the output filename or the input stream.
func WithOutputFormat(f codec.Format) Option {
	return func(e *Engine) { e.outFormat = f; e.forceOut = true }
}

// WithCodecWorkers sets the worker count for block-parallel codecs.
func WithCodecWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithOverwrite permits replacing existing output files.
func WithOverwrite(allow bool) Option {
	return func(e *Engine) { e.overwrite = allow }
}

// WithMateSuffixRule sets the id normalization used to match records
// against the index and between mates.
func WithMateSuffixRule(rule fastx.MateSuffixRule) Option {
	return func(e *Engine) { e.rule = rule }
}

// WithDecisionLog echoes one line per verdict applied, as a side log.
func WithDecisionLog(w io.Writer) Option {
	return func(e *Engine) { e.decisions = w }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithCollector sets the metrics collector.
func WithCollector(c stats.Collector) Option {
	return func(e *Engine) { e.collector = c }
}

// New returns an Engine filtering against index with policy.
func New(index *kraken.Index, policy Policy, opts ...Option) *Engine {
	e := &Engine{
		index:     index,
		policy:    policy,
		rule:      fastx.DefaultMateSuffix,
		workers:   1,
		logger:    zap.NewNop(),
		collector: stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	return e
}

// FilterSingle filters one single-end file into outPath.
func (e *Engine) FilterSingle(ctx context.Context, inPath, outPath string) (stats.Snapshot, error) {
	run := stats.NewRun(inPath)

	in, err := e.openInput(inPath)
	if err != nil {
		return stats.Snapshot{}, err
	}
	defer in.close()

	out, err := e.newOutput(outPath, e.resolveFormat(in.format, outPath))
	if err != nil {
		return stats.Snapshot{}, err
	}
	defer out.discard()

	for in.scanner.Scan() {
		if run.Total()%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return stats.Snapshot{}, err
			}
		}

		rec := in.scanner.Record()
		id := in.scanner.CanonicalID()
		c, err := e.index.Lookup(id)
		if err != nil {
			return stats.Snapshot{}, fmt.Errorf("%s: %w", inPath, err)
		}

		keep := e.policy.Keep(c)
		e.logDecision(id, c, keep)
		if keep {
			n, err := rec.WriteTo(out.w)
			run.AddBytes(0, n)
			if err != nil {
				return stats.Snapshot{}, fmt.Errorf("writing %s: %w", outPath, err)
			}
		}
		run.Record(keep, c.Classified)
	}
	if err := in.scanner.Err(); err != nil {
		return stats.Snapshot{}, err
	}
	run.AddBytes(in.scanner.Bytes(), 0)

	if err := out.finish(); err != nil {
		return stats.Snapshot{}, fmt.Errorf("finalizing %s: %w", outPath, err)
	}

	snap, err := run.Finalize(outPath)
	if err != nil {
		return stats.Snapshot{}, err
	}
	snap.Publish(e.collector)
	e.logger.Info("filtered file",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int64("total", snap.Total),
		zap.Int64("kept", snap.Kept),
		zap.Int64("discarded", snap.Discarded),
	)
	return snap, nil
}

// FilterPaired filters two mate files in lock-step. The decision for a
// pair is computed once from its shared id and applied to both mates,
// so pairing survives in both outputs.
func (e *Engine) FilterPaired(ctx context.Context, in1Path, in2Path, out1Path, out2Path string) (stats.Snapshot, error) {
	run := stats.NewRun(in1Path, in2Path)

	in1, err := e.openInput(in1Path)
	if err != nil {
		return stats.Snapshot{}, err
	}
	defer in1.close()

	in2, err := e.openInput(in2Path)
	if err != nil {
		return stats.Snapshot{}, err
	}
	defer in2.close()

	// The output codec resolves once, from the first input, and applies
	// to both mates.
	format := e.resolveFormat(in1.format, out1Path)
	out1, err := e.newOutput(out1Path, format)
	if err != nil {
		return stats.Snapshot{}, err
	}
	defer out1.discard()

	out2, err := e.newOutput(out2Path, format)
	if err != nil {
		return stats.Snapshot{}, err
	}
	defer out2.discard()

	for {
		if run.Total()%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return stats.Snapshot{}, err
			}
		}

		ok1 := in1.scanner.Scan()
		ok2 := in2.scanner.Scan()
		if err := in1.scanner.Err(); err != nil {
			return stats.Snapshot{}, err
		}
		if err := in2.scanner.Err(); err != nil {
			return stats.Snapshot{}, err
		}
		if ok1 != ok2 {
			return stats.Snapshot{}, &DesyncError{
				Path1:  in1Path,
				Path2:  in2Path,
				Pair:   run.Total() + 1,
				Detail: "files have unequal record counts",
			}
		}
		if !ok1 {
			break
		}

		id1 := in1.scanner.CanonicalID()
		id2 := in2.scanner.CanonicalID()
		if id1 != id2 {
			return stats.Snapshot{}, &DesyncError{
				Path1:  in1Path,
				Path2:  in2Path,
				Pair:   run.Total() + 1,
				Detail: fmt.Sprintf("mate ids %q and %q do not match", id1, id2),
			}
		}

		c, err := e.index.Lookup(id1)
		if err != nil {
			return stats.Snapshot{}, fmt.Errorf("%s: %w", in1Path, err)
		}

		keep := e.policy.Keep(c)
		e.logDecision(id1, c, keep)
		if keep {
			n1, err := in1.scanner.Record().WriteTo(out1.w)
			run.AddBytes(0, n1)
			if err != nil {
				return stats.Snapshot{}, fmt.Errorf("writing %s: %w", out1Path, err)
			}
			n2, err := in2.scanner.Record().WriteTo(out2.w)
			run.AddBytes(0, n2)
			if err != nil {
				return stats.Snapshot{}, fmt.Errorf("writing %s: %w", out2Path, err)
			}
		}
		run.Record(keep, c.Classified)
	}
	run.AddBytes(in1.scanner.Bytes()+in2.scanner.Bytes(), 0)

	if err := out1.finish(); err != nil {
		return stats.Snapshot{}, fmt.Errorf("finalizing %s: %w", out1Path, err)
	}
	if err := out2.finish(); err != nil {
		return stats.Snapshot{}, fmt.Errorf("finalizing %s: %w", out2Path, err)
	}

	snap, err := run.Finalize(out1Path, out2Path)
	if err != nil {
		return stats.Snapshot{}, err
	}
	snap.Publish(e.collector)
	e.logger.Info("filtered pair",
		zap.String("input1", in1Path),
		zap.String("input2", in2Path),
		zap.Int64("pairs", snap.Total),
		zap.Int64("kept", snap.Kept),
		zap.Int64("discarded", snap.Discarded),
	)
	return snap, nil
}

// resolveFormat applies the output codec precedence: explicit override,
// then the output filename, then the input's own codec.
func (e *Engine) resolveFormat(inFormat codec.Format, outPath string) codec.Format {
	if e.forceOut {
		return e.outFormat
	}
	if f := codec.FromPath(outPath); f != codec.FormatNone {
		return f
	}
	return inFormat
}

func (e *Engine) logDecision(id string, c kraken.Classification, keep bool) {
	if e.decisions == nil {
		return
	}
	flag := "U"
	if c.Classified {
		flag = "C"
	}
	verdict := "discard"
	if keep {
		verdict = "keep"
	}
	fmt.Fprintf(e.decisions, "%s\t%s\t%d\t%.4f\t%s\n", flag, id, c.TaxID, c.Confidence, verdict)
}

// codecFor maps a format to its codec implementation.
func codecFor(f codec.Format, workers int) codec.Codec {
	switch f {
	case codec.FormatGzip:
		return gzipcodec.New(gzipcodec.WithWorkers(workers))
	case codec.FormatBgzf:
		return bgzfcodec.New(bgzfcodec.WithWorkers(workers))
	case codec.FormatBzip2:
		return bzip2codec.New()
	case codec.FormatXz:
		return xzcodec.New(xzcodec.WithWorkers(workers))
	case codec.FormatZstd:
		return zstdcodec.New(zstdcodec.WithWorkers(workers))
	default:
		return noopcodec.New()
	}
}

// input owns one decoded record stream.
type input struct {
	path    string
	f       *os.File
	dec     io.ReadCloser
	scanner *fastx.Scanner
	format  codec.Format
}

// openInput opens path, sniffs its codec from the leading bytes, and
// stacks the decoder and record scanner on top.
func (e *Engine) openInput(path string) (*input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	br := bufio.NewReaderSize(f, 64*1024)
	format := codec.Detect(br)
	dec, err := codecFor(format, e.workers).Reader(br)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %s as %s: %w", path, format, err)
	}

	return &input{
		path:    path,
		f:       f,
		dec:     dec,
		scanner: fastx.NewScanner(dec, path, e.rule),
		format:  format,
	}, nil
}

func (in *input) close() {
	in.dec.Close()
	in.f.Close()
}

// output owns one encoded destination file. Until finish marks it
// complete, discard tears it down and removes the partial file, so a
// failed run leaves nothing behind at the destination.
type output struct {
	path string
	f    *os.File
	w    io.WriteCloser
	done bool
}

func (e *Engine) newOutput(path string, format codec.Format) (*output, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if e.overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s (use overwrite to replace)", ErrOutputExists, path)
		}
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	w, err := codecFor(format, e.workers).Writer(f)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("encoding %s as %s: %w", path, format, err)
	}

	return &output{path: path, f: f, w: w}, nil
}

// finish flushes the codec trailer and closes the file, exactly once.
func (o *output) finish() error {
	if o.done {
		return nil
	}
	o.done = true
	if err := o.w.Close(); err != nil {
		o.f.Close()
		os.Remove(o.path)
		return err
	}
	if err := o.f.Close(); err != nil {
		os.Remove(o.path)
		return err
	}
	return nil
}

// discard aborts the output, removing the partial file. No-op after
// finish.
func (o *output) discard() {
	if o.done {
		return
	}
	o.done = true
	o.w.Close()
	o.f.Close()
	os.Remove(o.path)
}
