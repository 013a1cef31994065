package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seqclean/seqclean"
	"github.com/seqclean/seqclean/internal/codec"
	"github.com/seqclean/seqclean/internal/config"
)

var (
	// Global flags.
	configPath string
	dbDir      string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "seqclean",
	Short: "Remove host reads from sequencing data",
	Long: `Seqclean removes reads belonging to a host organism (human by
default) from FASTA and FASTQ files, using the kraken2 classifier to
decide which reads belong to the host.

Inputs and outputs stream through the pipeline, so memory stays flat
regardless of file size, and compressed files (gzip, bgzf, bzip2, xz,
zstd) are handled transparently in both directions.

Examples:
  # Remove human reads from a paired-end run
  seqclean run --db ./kraken-db reads_1.fq.gz reads_2.fq.gz

  # Keep only the human reads instead
  seqclean run --db ./kraken-db --invert reads.fq.gz

  # Reuse an existing kraken2 output file
  seqclean filter --verdicts kraken.out reads.fq.gz

  # Fetch the prebuilt human index
  seqclean download --dest ./kraken-db`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&dbDir, "db", "d", "", "kraken2 database directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// newLogger builds the CLI logger: human-readable on stderr, debug
// level when --verbose is set.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return cfg.Build()
}

// loadConfig reads the config file when given, defaults otherwise.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// baseOptions assembles the scrubber options shared by the run and
// filter commands: config file first, then flags on top.
func baseOptions(logger *zap.Logger) ([]seqclean.Option, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	fromCfg, err := seqclean.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	opts := []seqclean.Option{fromCfg, seqclean.WithLogger(logger)}
	if dbDir != "" {
		opts = append(opts, seqclean.WithDatabaseDir(dbDir))
	}
	return opts, nil
}

// parseFormatFlag turns a --format value into a codec format.
func parseFormatFlag(s string) (codec.Format, error) {
	f, ok := codec.ParseFormat(s)
	if !ok {
		return codec.FormatNone, fmt.Errorf("unknown output format %q (use u, g, b, x or z)", s)
	}
	return f, nil
}
