package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seqclean/seqclean"
)

var filterCmd = &cobra.Command{
	Use:   "filter [flags] <reads> [mates]",
	Short: "Filter reads using an existing kraken2 output file",
	Long: `Filter the inputs against a pre-computed kraken2 per-read
output file instead of invoking the classifier. Useful when the same
classification should drive several filtering runs, or when kraken2
ran on another machine.

Examples:
  seqclean filter --verdicts kraken.out reads.fq.gz
  seqclean filter --verdicts kraken.out --invert reads_1.fq.gz reads_2.fq.gz`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFilter,
}

var filterVerdicts string

func init() {
	filterCmd.Flags().StringVar(&filterVerdicts, "verdicts", "", "kraken2 per-read output file (required)")
	filterCmd.MarkFlagRequired("verdicts")

	// Filtering shares the run command's policy and output flags.
	filterCmd.Flags().StringVarP(&runOutDir, "out-dir", "o", "", "directory for filtered files (default: alongside inputs)")
	filterCmd.Flags().StringVarP(&runFormat, "format", "f", "", "output compression: u, g, b, x or z (default: mirror input)")
	filterCmd.Flags().IntSliceVar(&runTaxa, "taxid", nil, "target taxon ids to remove (default: 9606)")
	filterCmd.Flags().Float64Var(&runConfidence, "confidence", 0, "minimum classifier confidence in [0, 1]")
	filterCmd.Flags().BoolVar(&runInvert, "invert", false, "keep target reads instead of removing them")
	filterCmd.Flags().BoolVar(&runLenient, "lenient", false, "treat reads missing from classifier output as unclassified")
	filterCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "codec worker count for block-parallel compression")
	filterCmd.Flags().BoolVar(&runOverwrite, "overwrite", false, "replace existing output files")
	filterCmd.Flags().StringVar(&runStatsPath, "stats", "", "write run statistics to this JSON file")
	filterCmd.Flags().StringVar(&runSeparators, "mate-separators", "", "characters joining a read id to its mate suffix")
	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
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

	snap, err := scrubber.Filter(ctx, filterVerdicts, in)
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
