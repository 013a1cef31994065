package seqclean

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seqclean/seqclean/internal/codec"
	"github.com/seqclean/seqclean/internal/config"
	"github.com/seqclean/seqclean/internal/kraken"
	"github.com/seqclean/seqclean/internal/stats"
)

// Option configures a Scrubber.
type Option interface {
	apply(*options)
}

// options holds the scrubber configuration.
type options struct {
	databaseDir    string
	executable     string
	threads        int
	targets        []int
	confidence     float64
	invert         bool
	lenient        bool
	mateSeparators string
	outputDir      string
	outputFormat   codec.Format
	formatSet      bool
	codecWorkers   int
	overwrite      bool
	statsPath      string
	workDir        string
	parallel       int
	stats          stats.Collector
	logger         *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		executable:     kraken.DefaultExecutable,
		threads:        1,
		targets:        []int{DefaultTargetTaxon},
		mateSeparators: "/.",
		codecWorkers:   1,
		parallel:       1,
		stats:          stats.NewNoop(),
		logger:         zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithDatabaseDir sets the kraken2 database directory.
func WithDatabaseDir(dir string) Option {
	return optionFunc(func(o *options) { o.databaseDir = dir })
}

// WithExecutable overrides the classifier binary looked up on PATH.
func WithExecutable(exe string) Option {
	return optionFunc(func(o *options) { o.executable = exe })
}

// WithThreads sets the classifier thread count.
func WithThreads(n int) Option {
	return optionFunc(func(o *options) { o.threads = n })
}

// WithTargets sets the target taxon ids to remove.
// Default is human (9606).
func WithTargets(taxa ...int) Option {
	return optionFunc(func(o *options) { o.targets = taxa })
}

// WithConfidence sets the minimum classifier confidence in [0, 1] for a
// read to count as a target.
func WithConfidence(v float64) Option {
	return optionFunc(func(o *options) { o.confidence = v })
}

// WithInvert keeps target reads and removes everything else.
func WithInvert(invert bool) Option {
	return optionFunc(func(o *options) { o.invert = invert })
}

// WithLenientIndex treats reads absent from the classifier output as
// unclassified instead of failing the run.
func WithLenientIndex(lenient bool) Option {
	return optionFunc(func(o *options) { o.lenient = lenient })
}

// WithMateSeparators sets the characters that may join a read id to its
// mate number suffix. Default is "/.".
func WithMateSeparators(seps string) Option {
	return optionFunc(func(o *options) { o.mateSeparators = seps })
}

// WithOutputDir writes filtered files to dir instead of alongside the
// inputs.
func WithOutputDir(dir string) Option {
	return optionFunc(func(o *options) { o.outputDir = dir })
}

// WithOutputFormat forces the output compression format. If not set,
// outputs mirror their input's format.
func WithOutputFormat(f codec.Format) Option {
	return optionFunc(func(o *options) {
		o.outputFormat = f
		o.formatSet = true
	})
}

// WithCodecWorkers sets the worker count for block-parallel codecs.
func WithCodecWorkers(n int) Option {
	return optionFunc(func(o *options) { o.codecWorkers = n })
}

// WithOverwrite permits replacing existing output files.
func WithOverwrite(allow bool) Option {
	return optionFunc(func(o *options) { o.overwrite = allow })
}

// WithStatsPath writes the merged run statistics to path as JSON.
func WithStatsPath(path string) Option {
	return optionFunc(func(o *options) { o.statsPath = path })
}

// WithWorkDir keeps classifier artifacts (verdicts, logs) in dir
// instead of a temporary directory removed after the run.
func WithWorkDir(dir string) Option {
	return optionFunc(func(o *options) { o.workDir = dir })
}

// WithParallel bounds how many inputs are filtered concurrently.
func WithParallel(n int) Option {
	return optionFunc(func(o *options) { o.parallel = n })
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) { o.stats = c })
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) { o.logger = l })
}

// FromConfig translates a loaded configuration file into options.
// Settings applied after FromConfig override the file.
func FromConfig(cfg config.Config) (Option, error) {
	var format codec.Format
	formatSet := false
	if cfg.Output.Format != "" {
		f, ok := codec.ParseFormat(cfg.Output.Format)
		if !ok {
			return nil, fmt.Errorf("seqclean: unknown output format %q", cfg.Output.Format)
		}
		format = f
		formatSet = true
	}

	return optionFunc(func(o *options) {
		if cfg.Database.Dir != "" {
			o.databaseDir = cfg.Database.Dir
		}
		if len(cfg.Filter.Taxa) > 0 {
			o.targets = cfg.Filter.Taxa
		}
		o.confidence = cfg.Filter.Confidence
		o.invert = cfg.Filter.Invert
		o.lenient = cfg.Filter.Lenient
		if cfg.Filter.MateSeparators != "" {
			o.mateSeparators = cfg.Filter.MateSeparators
		}
		if cfg.Filter.Threads > 0 {
			o.threads = cfg.Filter.Threads
		}
		if cfg.Output.Dir != "" {
			o.outputDir = cfg.Output.Dir
		}
		if formatSet {
			o.outputFormat = format
			o.formatSet = true
		}
		if cfg.Output.Workers > 0 {
			o.codecWorkers = cfg.Output.Workers
		}
		o.overwrite = cfg.Output.Overwrite
		if cfg.Output.StatsPath != "" {
			o.statsPath = cfg.Output.StatsPath
		}
	}), nil
}
