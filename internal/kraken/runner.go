package kraken

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"go.uber.org/zap"
)

// DefaultExecutable is the classifier binary looked up on PATH.
const DefaultExecutable = "kraken2"

// UpstreamError reports a classifier invocation that exited non-zero or
// produced no usable output.
type UpstreamError struct {
	Cmd    string
	Stderr string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("kraken: %s failed: %v; stderr: %s", e.Cmd, e.Err, e.Stderr)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Runner invokes the external kraken2 classifier.
type Runner struct {
	exe    string
	logger *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithExecutable overrides the classifier binary.
func WithExecutable(exe string) RunnerOption {
	return func(r *Runner) { r.exe = exe }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner returns a Runner with the given options.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{exe: DefaultExecutable, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available reports whether the classifier binary is on PATH.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.exe)
	return err == nil
}

// RunParams describes one classifier invocation.
type RunParams struct {
	Database   string
	Inputs     []string
	Paired     bool
	Threads    int
	Confidence float64
	// OutputPath receives the per-read verdict stream.
	OutputPath string
	// LogPath, when set, captures the classifier's stderr verbatim as a
	// log artifact.
	LogPath string
}

// Run executes the classifier and returns the parsed stderr summary.
// The verdict stream is written to p.OutputPath. A non-zero exit or an
// empty verdict file is an UpstreamError.
func (r *Runner) Run(ctx context.Context, p RunParams) (Summary, error) {
	args := []string{
		"--db", p.Database,
		"--output", p.OutputPath,
		"--threads", strconv.Itoa(max(p.Threads, 1)),
	}
	if p.Confidence > 0 {
		args = append(args, "--confidence", strconv.FormatFloat(p.Confidence, 'f', -1, 64))
	}
	if p.Paired {
		args = append(args, "--paired")
	}
	args = append(args, p.Inputs...)

	r.logger.Debug("invoking classifier",
		zap.String("exe", r.exe),
		zap.Strings("args", args),
	)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.exe, args...)
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if p.LogPath != "" {
		if werr := os.WriteFile(p.LogPath, stderr.Bytes(), 0o644); werr != nil {
			r.logger.Warn("could not write classifier log", zap.String("path", p.LogPath), zap.Error(werr))
		}
	}
	if runErr != nil {
		return Summary{}, &UpstreamError{Cmd: r.exe, Stderr: stderr.String(), Err: runErr}
	}

	info, err := os.Stat(p.OutputPath)
	if err != nil || info.Size() == 0 {
		return Summary{}, &UpstreamError{
			Cmd:    r.exe,
			Stderr: stderr.String(),
			Err:    fmt.Errorf("no usable verdict output at %s", p.OutputPath),
		}
	}

	summary, ok := ParseSummary(stderr.String())
	if !ok {
		r.logger.Warn("classifier stderr carried no summary counts")
	} else {
		r.logger.Info("classifier finished",
			zap.Int64("processed", summary.Processed),
			zap.Int64("classified", summary.Classified),
			zap.Int64("unclassified", summary.Unclassified),
		)
	}
	return summary, nil
}

// ValidateConfidence rejects thresholds outside the closed interval
// [0, 1] before they reach the classifier or the filter policy.
func ValidateConfidence(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("kraken: confidence %v outside [0, 1]", v)
	}
	return nil
}
