// Package filter implements the single-pass read filtering engine.
package filter

import (
	"errors"
	"fmt"

	"github.com/seqclean/seqclean/internal/kraken"
)

// ErrOutputExists indicates a destination file is already present and
// overwriting was not permitted. The check runs before any byte is
// written, so a rejected run produces no output at all.
var ErrOutputExists = errors.New("filter: output path exists")

// DesyncError reports paired input files that fell out of step: ids
// differ at the same position, or one file ended before the other.
type DesyncError struct {
	Path1, Path2 string
	Pair         int64 // 1-based pair position
	Detail       string
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("filter: %s and %s desynchronized at pair %d: %s", e.Path1, e.Path2, e.Pair, e.Detail)
}

// Policy decides whether a read is kept. A read is a target when it is
// classified into one of the target taxa with at least the minimum
// confidence; targets are discarded unless Invert flips the filter to
// keep only targets.
type Policy struct {
	Targets       map[int]struct{}
	MinConfidence float64
	Invert        bool
}

// NewPolicy builds a Policy for the given target taxa.
func NewPolicy(taxa []int, minConfidence float64, invert bool) Policy {
	targets := make(map[int]struct{}, len(taxa))
	for _, t := range taxa {
		targets[t] = struct{}{}
	}
	return Policy{Targets: targets, MinConfidence: minConfidence, Invert: invert}
}

// IsTarget reports whether the classification matches the target set.
func (p Policy) IsTarget(c kraken.Classification) bool {
	if !c.Classified {
		return false
	}
	if _, ok := p.Targets[c.TaxID]; !ok {
		return false
	}
	return c.Confidence >= p.MinConfidence
}

// Keep applies the polarity: non-targets are kept, unless inverted.
func (p Policy) Keep(c kraken.Classification) bool {
	if p.Invert {
		return p.IsTarget(c)
	}
	return !p.IsTarget(c)
}
