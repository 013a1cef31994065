package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Run accumulates the business counters of one filtering pass. A Run is
// owned exclusively by the goroutine driving the pass; codec workers
// never see it, so no synchronization is needed. Finalize must be
// called exactly once.
type Run struct {
	started      time.Time
	total        int64
	kept         int64
	discarded    int64
	classified   int64
	unclassified int64
	bytesIn      int64
	bytesOut     int64
	inputs       []string
	finalized    bool
}

// NewRun starts counting for the given input paths.
func NewRun(inputs ...string) *Run {
	return &Run{started: time.Now(), inputs: inputs}
}

// Record counts one finalized filter decision.
func (r *Run) Record(kept, classified bool) {
	r.total++
	if kept {
		r.kept++
	} else {
		r.discarded++
	}
	if classified {
		r.classified++
	} else {
		r.unclassified++
	}
}

// AddBytes accounts decoded input and encoded output bytes.
func (r *Run) AddBytes(in, out int64) {
	r.bytesIn += in
	r.bytesOut += out
}

// Total returns the number of decisions recorded so far.
func (r *Run) Total() int64 { return r.total }

// Finalize checks the counter invariant and seals the run into an
// immutable snapshot. Calling Finalize twice is a programming error.
func (r *Run) Finalize(outputs ...string) (Snapshot, error) {
	if r.finalized {
		panic("stats: Run finalized twice")
	}
	r.finalized = true

	if r.kept+r.discarded != r.total {
		return Snapshot{}, fmt.Errorf("stats: kept %d + discarded %d != total %d", r.kept, r.discarded, r.total)
	}

	return Snapshot{
		Total:        r.total,
		Kept:         r.kept,
		Discarded:    r.discarded,
		Classified:   r.classified,
		Unclassified: r.unclassified,
		BytesIn:      r.bytesIn,
		BytesOut:     r.bytesOut,
		InputPaths:   r.inputs,
		OutputPaths:  outputs,
		ElapsedSec:   time.Since(r.started).Seconds(),
	}, nil
}

// Snapshot is the immutable result of a finalized run.
type Snapshot struct {
	Total        int64    `json:"total"`
	Kept         int64    `json:"kept"`
	Discarded    int64    `json:"discarded"`
	Classified   int64    `json:"classified"`
	Unclassified int64    `json:"unclassified"`
	BytesIn      int64    `json:"input_bytes"`
	BytesOut     int64    `json:"output_bytes"`
	InputPaths   []string `json:"input_paths"`
	OutputPaths  []string `json:"output_paths"`
	ElapsedSec   float64  `json:"elapsed_time"`
}

// Merge combines per-file snapshots at one defined join point, for runs
// that filter several files.
func Merge(parts ...Snapshot) Snapshot {
	var out Snapshot
	for _, p := range parts {
		out.Total += p.Total
		out.Kept += p.Kept
		out.Discarded += p.Discarded
		out.Classified += p.Classified
		out.Unclassified += p.Unclassified
		out.BytesIn += p.BytesIn
		out.BytesOut += p.BytesOut
		out.InputPaths = append(out.InputPaths, p.InputPaths...)
		out.OutputPaths = append(out.OutputPaths, p.OutputPaths...)
		if p.ElapsedSec > out.ElapsedSec {
			out.ElapsedSec = p.ElapsedSec
		}
	}
	return out
}

// WriteFile writes the snapshot as indented JSON.
func (s Snapshot) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("stats: marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("stats: writing snapshot: %w", err)
	}
	return nil
}

// Publish pushes the snapshot's headline numbers to a metrics collector.
func (s Snapshot) Publish(c Collector) {
	c.IncCounter(MetricRecords, s.Total)
	c.IncCounter(MetricKept, s.Kept)
	c.IncCounter(MetricDiscarded, s.Discarded)
	c.IncCounter(MetricBytesIn, s.BytesIn)
	c.IncCounter(MetricBytesOut, s.BytesOut)
	c.ObserveHistogram(MetricRunSeconds, s.ElapsedSec)
}
