// Package kraken consumes the output of the kraken2 taxonomic
// classifier: the per-read verdict stream, the stderr run summary, and
// the process invocation itself.
package kraken

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/seqclean/seqclean/internal/fastx"
)

// Classification is the classifier's verdict for one read.
type Classification struct {
	Classified bool
	TaxID      int
	Length     int
	// Confidence is the fraction of k-mer hits supporting the called
	// taxon, derived from the trace column. Verdict streams without a
	// trace column report 1.0 for classified reads.
	Confidence float64
}

// MissError reports a read id absent from the classifier output. Under
// the default strict policy this aborts the run: a read the classifier
// never saw must not be silently kept or silently removed.
type MissError struct {
	ID string
}

func (e *MissError) Error() string {
	return fmt.Sprintf("kraken: read %q not present in classifier output", e.ID)
}

// Index maps canonical read ids to classifications. It is built once
// and read-only afterwards, safe for concurrent lookups. Its memory
// footprint is O(number of classified reads): the one deliberate
// full-buffering exception in the pipeline, bounded by read count
// rather than sequence length.
type Index struct {
	m      map[string]Classification
	strict bool
}

// IndexOption configures index construction.
type IndexOption func(*Index)

// Lenient makes Lookup report absent ids as unclassified instead of
// failing. Use only when the verdict stream is known to be partial.
func Lenient() IndexOption {
	return func(x *Index) { x.strict = false }
}

// NewIndex builds an Index by consuming a tab-delimited verdict stream
// (columns: classified flag, read id, taxon id, length, optional
// trace). Ids are normalized with rule so paired-file ids resolve.
func NewIndex(r io.Reader, rule fastx.MateSuffixRule, opts ...IndexOption) (*Index, error) {
	x := &Index{m: make(map[string]Classification), strict: true}
	for _, opt := range opts {
		opt(x)
	}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for s.Scan() {
		line++
		raw := s.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		id, c, err := ParseLine(raw)
		if err != nil {
			return nil, fmt.Errorf("kraken: line %d: %w", line, err)
		}
		x.m[rule.Canonical(id)] = c
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("kraken: reading verdicts: %w", err)
	}
	return x, nil
}

// Lookup returns the classification for a canonical read id. Under the
// strict policy an absent id is a MissError.
func (x *Index) Lookup(id string) (Classification, error) {
	c, ok := x.m[id]
	if ok {
		return c, nil
	}
	if x.strict {
		return Classification{}, &MissError{ID: id}
	}
	return Classification{}, nil
}

// Len returns the number of indexed reads.
func (x *Index) Len() int { return len(x.m) }

// ParseLine parses one verdict line.
func ParseLine(line []byte) (string, Classification, error) {
	fields := strings.Split(string(bytes.TrimRight(line, "\r\n")), "\t")
	if len(fields) < 4 {
		return "", Classification{}, fmt.Errorf("expected at least 4 tab-separated columns, got %d", len(fields))
	}

	var c Classification
	switch fields[0] {
	case "C":
		c.Classified = true
	case "U":
		c.Classified = false
	default:
		return "", Classification{}, fmt.Errorf("invalid classified flag %q", fields[0])
	}

	id := fields[1]
	if id == "" {
		return "", Classification{}, fmt.Errorf("empty read id")
	}

	taxID, err := strconv.Atoi(fields[2])
	if err != nil {
		return "", Classification{}, fmt.Errorf("invalid taxon id %q", fields[2])
	}
	c.TaxID = taxID

	// Paired reads report lengths as "len1|len2"; the total is fine for
	// bookkeeping.
	for _, part := range strings.Split(fields[3], "|") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return "", Classification{}, fmt.Errorf("invalid length %q", fields[3])
		}
		c.Length += n
	}

	if c.Classified {
		c.Confidence = 1.0
		if len(fields) >= 5 {
			c.Confidence = traceConfidence(fields[4], c.TaxID)
		}
	}

	return id, c, nil
}

// traceConfidence computes the fraction of k-mers assigned to the
// called taxon among all assigned k-mers in the trace column. Ambiguous
// ("A") and unassigned ("0") k-mers count toward the denominator the
// way unassigned k-mers do upstream; mate traces separated by "|:|"
// are pooled.
func traceConfidence(trace string, taxID int) float64 {
	want := strconv.Itoa(taxID)
	var hit, total int
	for _, tok := range strings.Fields(trace) {
		taxon, count, ok := strings.Cut(tok, ":")
		if !ok || taxon == "|" {
			continue
		}
		n, err := strconv.Atoi(count)
		if err != nil || n < 0 {
			continue
		}
		if taxon == "A" {
			continue
		}
		total += n
		if taxon == want {
			hit += n
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(hit) / float64(total)
}
