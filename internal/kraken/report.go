package kraken

import (
	"fmt"
	"strconv"
	"strings"
)

// Summary is the diagnostic read count breakdown kraken2 prints to
// stderr at the end of a run.
type Summary struct {
	Processed    int64
	Classified   int64
	Unclassified int64
}

// ClassifiedPercent returns the classified share in percent, or 0 when
// nothing was processed.
func (s Summary) ClassifiedPercent() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Classified) / float64(s.Processed) * 100
}

func (s Summary) String() string {
	return fmt.Sprintf("%d processed, %d classified (%.2f%%), %d unclassified",
		s.Processed, s.Classified, s.ClassifiedPercent(), s.Unclassified)
}

// ParseSummary extracts the read counts from kraken2 stderr output.
// Counts use comma grouping for large numbers. The second return is
// false when no counts were found.
func ParseSummary(stderr string) (Summary, bool) {
	var s Summary
	found := false
	for _, line := range strings.Split(stderr, "\n") {
		var target *int64
		switch {
		case strings.Contains(line, "processed"):
			target = &s.Processed
		case strings.Contains(line, "sequences classified"):
			target = &s.Classified
		case strings.Contains(line, "sequences unclassified"):
			target = &s.Unclassified
		default:
			continue
		}
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		n, err := strconv.ParseInt(strings.ReplaceAll(fields[0], ",", ""), 10, 64)
		if err != nil {
			continue
		}
		*target = n
		found = true
	}
	return s, found
}
