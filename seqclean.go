// Package seqclean removes reads belonging to a host organism from
// sequencing data, using the external kraken2 classifier as the oracle.
//
// Example usage:
//
//	scrubber, err := seqclean.New(
//	    seqclean.WithDatabaseDir("/data/kraken/human"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	snap, err := scrubber.Scrub(ctx, seqclean.Input{Path1: "reads_1.fq.gz", Path2: "reads_2.fq.gz"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("kept %d of %d pairs\n", snap.Kept, snap.Total)
package seqclean

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seqclean/seqclean/internal/codec"
	"github.com/seqclean/seqclean/internal/database"
	"github.com/seqclean/seqclean/internal/fastx"
	"github.com/seqclean/seqclean/internal/filter"
	"github.com/seqclean/seqclean/internal/kraken"
	"github.com/seqclean/seqclean/internal/stats"
)

// DefaultTargetTaxon is the NCBI taxon id for Homo sapiens.
const DefaultTargetTaxon = 9606

// Sentinel errors for well-defined error conditions.
var (
	// ErrNoInputs indicates Scrub was called without input files.
	ErrNoInputs = errors.New("seqclean: no input files given")

	// ErrClassifierMissing indicates the classifier binary is not on PATH.
	ErrClassifierMissing = errors.New("seqclean: classifier not found on PATH")
)

// Input names one sequencing library: a single file, or two mate files
// filtered in lock-step.
type Input struct {
	Path1 string
	Path2 string
}

// Paired reports whether the input carries a second mate file.
func (in Input) Paired() bool { return in.Path2 != "" }

func (in Input) paths() []string {
	if in.Paired() {
		return []string{in.Path1, in.Path2}
	}
	return []string{in.Path1}
}

// Scrubber runs the depletion pipeline: classify reads with kraken2,
// index the verdicts, and filter each input in a single streaming pass.
// A Scrubber is safe for concurrent use; each Scrub call owns its own
// counters and file handles.
type Scrubber struct {
	cfg    options
	runner *kraken.Runner
}

// New creates a Scrubber with the given options.
func New(opts ...Option) (*Scrubber, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if err := kraken.ValidateConfidence(cfg.confidence); err != nil {
		return nil, fmt.Errorf("seqclean: %w", err)
	}
	if len(cfg.targets) == 0 {
		cfg.targets = []int{DefaultTargetTaxon}
	}
	if cfg.codecWorkers < 1 {
		cfg.codecWorkers = 1
	}
	if cfg.parallel < 1 {
		cfg.parallel = 1
	}

	return &Scrubber{
		cfg: cfg,
		runner: kraken.NewRunner(
			kraken.WithExecutable(cfg.executable),
			kraken.WithLogger(cfg.logger),
		),
	}, nil
}

// Scrub classifies and filters the given inputs. The classifier runs
// once per input; the filtering passes then run concurrently. The
// returned snapshot merges all per-input counts.
func (s *Scrubber) Scrub(ctx context.Context, inputs ...Input) (stats.Snapshot, error) {
	if len(inputs) == 0 {
		return stats.Snapshot{}, ErrNoInputs
	}
	if !s.runner.Available() {
		return stats.Snapshot{}, fmt.Errorf("%w: %s", ErrClassifierMissing, s.cfg.executable)
	}

	dbDir, err := database.Resolve(s.cfg.databaseDir)
	if err != nil {
		return stats.Snapshot{}, err
	}

	workDir := s.cfg.workDir
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "seqclean-*")
		if err != nil {
			return stats.Snapshot{}, fmt.Errorf("seqclean: creating work directory: %w", err)
		}
		defer os.RemoveAll(tmp)
		workDir = tmp
	}

	verdictPaths := make([]string, len(inputs))
	for i, in := range inputs {
		verdictPaths[i] = filepath.Join(workDir, fmt.Sprintf("verdicts_%d.tsv", i))
		_, err := s.runner.Run(ctx, kraken.RunParams{
			Database:   dbDir,
			Inputs:     in.paths(),
			Paired:     in.Paired(),
			Threads:    s.cfg.threads,
			Confidence: s.cfg.confidence,
			OutputPath: verdictPaths[i],
			LogPath:    filepath.Join(workDir, fmt.Sprintf("kraken_%d.log", i)),
		})
		if err != nil {
			return stats.Snapshot{}, err
		}
	}

	snaps := make([]stats.Snapshot, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.parallel)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			idx, err := s.buildIndex(verdictPaths[i])
			if err != nil {
				return err
			}
			snap, err := s.filterOne(gctx, idx, in)
			if err != nil {
				return err
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats.Snapshot{}, err
	}

	return s.finish(stats.Merge(snaps...))
}

// Filter applies a pre-computed verdict stream to the inputs without
// invoking the classifier. All inputs share the one read-only index, so
// concurrent passes cost no extra memory.
func (s *Scrubber) Filter(ctx context.Context, verdictPath string, inputs ...Input) (stats.Snapshot, error) {
	if len(inputs) == 0 {
		return stats.Snapshot{}, ErrNoInputs
	}

	idx, err := s.buildIndex(verdictPath)
	if err != nil {
		return stats.Snapshot{}, err
	}

	snaps := make([]stats.Snapshot, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.parallel)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			snap, err := s.filterOne(gctx, idx, in)
			if err != nil {
				return err
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats.Snapshot{}, err
	}

	return s.finish(stats.Merge(snaps...))
}

func (s *Scrubber) buildIndex(verdictPath string) (*kraken.Index, error) {
	f, err := os.Open(verdictPath)
	if err != nil {
		return nil, fmt.Errorf("seqclean: opening verdicts: %w", err)
	}
	defer f.Close()

	var opts []kraken.IndexOption
	if s.cfg.lenient {
		opts = append(opts, kraken.Lenient())
	}
	idx, err := kraken.NewIndex(f, s.mateRule(), opts...)
	if err != nil {
		return nil, err
	}
	s.cfg.stats.SetGauge(stats.MetricIndexSize, int64(idx.Len()))
	return idx, nil
}

func (s *Scrubber) filterOne(ctx context.Context, idx *kraken.Index, in Input) (stats.Snapshot, error) {
	engineOpts := []filter.Option{
		filter.WithCodecWorkers(s.cfg.codecWorkers),
		filter.WithOverwrite(s.cfg.overwrite),
		filter.WithMateSuffixRule(s.mateRule()),
		filter.WithLogger(s.cfg.logger),
		filter.WithCollector(s.cfg.stats),
	}
	if s.cfg.formatSet {
		engineOpts = append(engineOpts, filter.WithOutputFormat(s.cfg.outputFormat))
	}
	e := filter.New(idx, filter.NewPolicy(s.cfg.targets, s.cfg.confidence, s.cfg.invert), engineOpts...)

	if in.Paired() {
		return e.FilterPaired(ctx,
			in.Path1, in.Path2,
			s.outputPath(in.Path1), s.outputPath(in.Path2),
		)
	}
	return e.FilterSingle(ctx, in.Path1, s.outputPath(in.Path1))
}

// finish logs the merged snapshot and writes the stats artifact.
func (s *Scrubber) finish(merged stats.Snapshot) (stats.Snapshot, error) {
	s.cfg.logger.Info("scrub complete",
		zap.Int64("total", merged.Total),
		zap.Int64("kept", merged.Kept),
		zap.Int64("discarded", merged.Discarded),
		zap.Float64("elapsedSec", merged.ElapsedSec),
	)
	if s.cfg.statsPath != "" {
		if err := merged.WriteFile(s.cfg.statsPath); err != nil {
			return stats.Snapshot{}, err
		}
	}
	return merged, nil
}

func (s *Scrubber) mateRule() fastx.MateSuffixRule {
	if s.cfg.mateSeparators == "" {
		return fastx.DefaultMateSuffix
	}
	return fastx.MateSuffixRule{Separators: s.cfg.mateSeparators}
}

func (s *Scrubber) outputPath(input string) string {
	format := codec.FromPath(input)
	if s.cfg.formatSet {
		format = s.cfg.outputFormat
	}
	return OutputPath(input, s.cfg.outputDir, format)
}

// OutputPath derives the destination filename for an input: the codec
// suffix is replaced to match format and a ".clean" infix marks the
// file as filtered. "reads.fq.gz" becomes "reads.clean.fq.zst" when
// writing zstd.
func OutputPath(input, outDir string, format codec.Format) string {
	dir, file := filepath.Split(input)
	if outDir != "" {
		dir = outDir
	}

	base := codec.TrimExtension(file)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	name := stem + ".clean" + ext
	if e := format.Extension(); e != "" {
		name += "." + e
	}
	return filepath.Join(dir, name)
}
