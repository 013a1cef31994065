package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seqclean/seqclean"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <reads> [mates]",
	Short: "Classify and filter one sequencing library",
	Long: `Run the full pipeline: classify the reads with kraken2, then
stream the input once more and drop every read the classifier assigned
to a target taxon.

With one input file the library is treated as single-end; with two it
is treated as paired-end and the mates are filtered in lock-step, so a
pair is always kept or dropped as a unit.

Examples:
  # Single-end
  seqclean run --db ./kraken-db reads.fq.gz

  # Paired-end, writing zstd outputs next to the inputs
  seqclean run --db ./kraken-db --format z reads_1.fq.gz reads_2.fq.gz

  # Target a different organism
  seqclean run --db ./mouse-db --taxid 10090 reads.fq.gz`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRun,
}

var (
	runOutDir     string
	runFormat     string
	runTaxa       []int
	runConfidence float64
	runInvert     bool
	runLenient    bool
	runThreads    int
	runWorkers    int
	runOverwrite  bool
	runStatsPath  string
	runWorkDir    string
	runExecutable string
	runSeparators string
)

func init() {
	runCmd.Flags().StringVarP(&runOutDir, "out-dir", "o", "", "directory for filtered files (default: alongside inputs)")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "", "output compression: u, g, b, x or z (default: mirror input)")
	runCmd.Flags().IntSliceVar(&runTaxa, "taxid", nil, "target taxon ids to remove (default: 9606)")
	runCmd.Flags().Float64Var(&runConfidence, "confidence", 0, "minimum classifier confidence in [0, 1]")
	runCmd.Flags().BoolVar(&runInvert, "invert", false, "keep target reads instead of removing them")
	runCmd.Flags().BoolVar(&runLenient, "lenient", false, "treat reads missing from classifier output as unclassified")
	runCmd.Flags().IntVarP(&runThreads, "threads", "t", 0, "classifier thread count")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "codec worker count for block-parallel compression")
	runCmd.Flags().BoolVar(&runOverwrite, "overwrite", false, "replace existing output files")
	runCmd.Flags().StringVar(&runStatsPath, "stats", "", "write run statistics to this JSON file")
	runCmd.Flags().StringVar(&runWorkDir, "work-dir", "", "keep classifier artifacts in this directory")
	runCmd.Flags().StringVar(&runExecutable, "kraken2", "", "path to the kraken2 binary")
	runCmd.Flags().StringVar(&runSeparators, "mate-separators", "", "characters joining a read id to its mate suffix")
	rootCmd.AddCommand(runCmd)
}

// signalContext returns a context canceled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runFlagOptions() ([]seqclean.Option, error) {
	var opts []seqclean.Option
	if runOutDir != "" {
		opts = append(opts, seqclean.WithOutputDir(runOutDir))
	}
	if runFormat != "" {
		f, err := parseFormatFlag(runFormat)
		if err != nil {
			return nil, err
		}
		opts = append(opts, seqclean.WithOutputFormat(f))
	}
	if len(runTaxa) > 0 {
		opts = append(opts, seqclean.WithTargets(runTaxa...))
	}
	if runConfidence > 0 {
		opts = append(opts, seqclean.WithConfidence(runConfidence))
	}
	if runInvert {
		opts = append(opts, seqclean.WithInvert(true))
	}
	if runLenient {
		opts = append(opts, seqclean.WithLenientIndex(true))
	}
	if runThreads > 0 {
		opts = append(opts, seqclean.WithThreads(runThreads))
	}
	if runWorkers > 0 {
		opts = append(opts, seqclean.WithCodecWorkers(runWorkers))
	}
	if runOverwrite {
		opts = append(opts, seqclean.WithOverwrite(true))
	}
	if runStatsPath != "" {
		opts = append(opts, seqclean.WithStatsPath(runStatsPath))
	}
	if runWorkDir != "" {
		opts = append(opts, seqclean.WithWorkDir(runWorkDir))
	}
	if runExecutable != "" {
		opts = append(opts, seqclean.WithExecutable(runExecutable))
	}
	if runSeparators != "" {
		opts = append(opts, seqclean.WithMateSeparators(runSeparators))
	}
	return opts, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts, err := baseOptions(logger)
	if err != nil {
		return err
	}
	flagOpts, err := runFlagOptions()
	if err != nil {
		return err
	}
	opts = append(opts, flagOpts...)

	scrubber, err := seqclean.New(opts...)
	if err != nil {
		return err
	}

	in := seqclean.Input{Path1: args[0]}
	if len(args) == 2 {
		in.Path2 = args[1]
	}

	ctx, cancel := signalContext()
	defer cancel()

	snap, err := scrubber.Scrub(ctx, in)
	if err != nil {
		return err
	}

	unit := "reads"
	if in.Paired() {
		unit = "pairs"
	}
	fmt.Printf("kept %d of %d %s (%d discarded)\n", snap.Kept, snap.Total, unit, snap.Discarded)
	return nil
}
