package seqclean

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/seqclean/seqclean/internal/codec"
	"github.com/seqclean/seqclean/internal/config"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		outDir string
		format codec.Format
		want   string
	}{
		{
			name:   "plain fastq",
			input:  "reads.fq",
			format: codec.FormatNone,
			want:   "reads.clean.fq",
		},
		{
			name:   "gzip to gzip",
			input:  "reads.fq.gz",
			format: codec.FormatGzip,
			want:   "reads.clean.fq.gz",
		},
		{
			name:   "gzip to zstd",
			input:  "reads.fq.gz",
			format: codec.FormatZstd,
			want:   "reads.clean.fq.zst",
		},
		{
			name:   "compressed to plain",
			input:  "reads.fastq.xz",
			format: codec.FormatNone,
			want:   "reads.clean.fastq",
		},
		{
			name:   "with directory",
			input:  "/data/run42/reads_1.fq.gz",
			format: codec.FormatGzip,
			want:   "/data/run42/reads_1.clean.fq.gz",
		},
		{
			name:   "output directory override",
			input:  "/data/run42/reads_1.fq.gz",
			outDir: "/out",
			format: codec.FormatGzip,
			want:   "/out/reads_1.clean.fq.gz",
		},
		{
			name:   "fasta bzip2",
			input:  "assembly.fa.bz2",
			format: codec.FormatBzip2,
			want:   "assembly.clean.fa.bz2",
		},
		{
			name:   "no inner extension",
			input:  "reads.gz",
			format: codec.FormatGzip,
			want:   "reads.clean.gz",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputPath(tt.input, tt.outDir, tt.format); got != tt.want {
				t.Errorf("OutputPath(%q, %q, %v) = %q, want %q", tt.input, tt.outDir, tt.format, got, tt.want)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(s.cfg.targets) != 1 || s.cfg.targets[0] != DefaultTargetTaxon {
		t.Errorf("default targets = %v, want [%d]", s.cfg.targets, DefaultTargetTaxon)
	}
	if s.cfg.executable != "kraken2" {
		t.Errorf("default executable = %q", s.cfg.executable)
	}
	if s.cfg.codecWorkers != 1 || s.cfg.parallel != 1 {
		t.Errorf("default workers = %d, parallel = %d, want 1/1", s.cfg.codecWorkers, s.cfg.parallel)
	}
}

func TestNew_InvalidConfidence(t *testing.T) {
	if _, err := New(WithConfidence(1.5)); err == nil {
		t.Fatal("New() accepted confidence outside [0, 1]")
	}
}

func TestNew_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Dir = "/data/db"
	cfg.Filter.Taxa = []int{9606, 562}
	cfg.Output.Format = "z"
	cfg.Output.Workers = 4

	opt, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	s, err := New(opt)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.cfg.databaseDir != "/data/db" {
		t.Errorf("databaseDir = %q", s.cfg.databaseDir)
	}
	if len(s.cfg.targets) != 2 {
		t.Errorf("targets = %v", s.cfg.targets)
	}
	if !s.cfg.formatSet || s.cfg.outputFormat != codec.FormatZstd {
		t.Errorf("outputFormat = %v (set=%v), want zstd", s.cfg.outputFormat, s.cfg.formatSet)
	}
	if s.cfg.codecWorkers != 4 {
		t.Errorf("codecWorkers = %d, want 4", s.cfg.codecWorkers)
	}
}

func TestFromConfig_BadFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Format = "lzma"
	if _, err := FromConfig(cfg); err == nil {
		t.Fatal("FromConfig() accepted unknown format")
	}
}

func TestScrub_NoInputs(t *testing.T) {
	s, err := New(WithDatabaseDir(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Scrub(context.Background()); !errors.Is(err, ErrNoInputs) {
		t.Errorf("Scrub() error = %v, want ErrNoInputs", err)
	}
}

func TestScrub_ClassifierMissing(t *testing.T) {
	s, err := New(
		WithDatabaseDir(t.TempDir()),
		WithExecutable("definitely-not-a-real-binary-seqclean"),
	)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Scrub(context.Background(), Input{Path1: "reads.fq"})
	if !errors.Is(err, ErrClassifierMissing) {
		t.Errorf("Scrub() error = %v, want ErrClassifierMissing", err)
	}
}

func TestFilter_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "reads.fq")
	fastq := "@r1\nACGT\n+\nIIII\n@r2\nTTTT\n+\nIIII\n"
	if err := os.WriteFile(in, []byte(fastq), 0o644); err != nil {
		t.Fatal(err)
	}

	verdicts := filepath.Join(dir, "verdicts.tsv")
	if err := os.WriteFile(verdicts, []byte("U\tr1\t0\t4\nC\tr2\t9606\t4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	statsPath := filepath.Join(dir, "stats.json")
	s, err := New(WithStatsPath(statsPath))
	if err != nil {
		t.Fatal(err)
	}

	snap, err := s.Filter(context.Background(), verdicts, Input{Path1: in})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if snap.Total != 2 || snap.Kept != 1 || snap.Discarded != 1 {
		t.Errorf("snapshot = %+v, want total=2 kept=1 discarded=1", snap)
	}

	out := filepath.Join(dir, "reads.clean.fq")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "@r1\nACGT\n+\nIIII\n" {
		t.Errorf("output = %q, want only r1", data)
	}
	if _, err := os.Stat(statsPath); err != nil {
		t.Errorf("stats artifact not written: %v", err)
	}
}

func TestFilter_MultipleInputsShareIndex(t *testing.T) {
	dir := t.TempDir()
	fastqA := "@r1\nACGT\n+\nIIII\n"
	fastqB := "@r2\nTTTT\n+\nIIII\n"
	inA := filepath.Join(dir, "a.fq")
	inB := filepath.Join(dir, "b.fq")
	for path, content := range map[string]string{inA: fastqA, inB: fastqB} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	verdicts := filepath.Join(dir, "verdicts.tsv")
	if err := os.WriteFile(verdicts, []byte("U\tr1\t0\t4\nC\tr2\t9606\t4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := New(WithParallel(2))
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.Filter(context.Background(), verdicts, Input{Path1: inA}, Input{Path1: inB})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if snap.Total != 2 || snap.Kept != 1 || snap.Discarded != 1 {
		t.Errorf("merged snapshot = %+v", snap)
	}
	if len(snap.InputPaths) != 2 || len(snap.OutputPaths) != 2 {
		t.Errorf("merged paths = %v / %v", snap.InputPaths, snap.OutputPaths)
	}
}
