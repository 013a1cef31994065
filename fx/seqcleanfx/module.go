// Package seqcleanfx provides an fx module for embedding the depletion
// pipeline in a larger application.
package seqcleanfx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/seqclean/seqclean"
	"github.com/seqclean/seqclean/internal/stats"
	"github.com/seqclean/seqclean/internal/stats/logger"
)

// Config holds configuration for the scrubber.
type Config struct {
	// DatabaseDir is the kraken2 database directory.
	DatabaseDir string

	// Targets are the taxon ids to remove. Default is human (9606).
	Targets []int

	// Confidence is the minimum classifier confidence in [0, 1].
	Confidence float64

	// Threads is the classifier thread count. Default is 1.
	Threads int

	// CodecWorkers is the worker count for block-parallel codecs.
	// Default is 1.
	CodecWorkers int
}

// Module provides a *seqclean.Scrubber.
// Requires a *zap.Logger and a Config to be provided.
var Module = fx.Module("seqclean",
	fx.Provide(
		newStatsCollector,
		newScrubber,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("seqclean.stats"))
}

// Params holds dependencies for creating the scrubber.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
}

// Result holds the provided scrubber.
type Result struct {
	fx.Out

	Scrubber *seqclean.Scrubber
}

func newScrubber(p Params) (Result, error) {
	opts := []seqclean.Option{
		seqclean.WithDatabaseDir(p.Config.DatabaseDir),
		seqclean.WithConfidence(p.Config.Confidence),
		seqclean.WithStats(p.Collector),
		seqclean.WithLogger(p.Logger.Named("seqclean")),
	}
	if len(p.Config.Targets) > 0 {
		opts = append(opts, seqclean.WithTargets(p.Config.Targets...))
	}
	if p.Config.Threads > 0 {
		opts = append(opts, seqclean.WithThreads(p.Config.Threads))
	}
	if p.Config.CodecWorkers > 0 {
		opts = append(opts, seqclean.WithCodecWorkers(p.Config.CodecWorkers))
	}

	scrubber, err := seqclean.New(opts...)
	if err != nil {
		return Result{}, err
	}
	return Result{Scrubber: scrubber}, nil
}
