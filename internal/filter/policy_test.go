package filter

import (
	"testing"

	"github.com/seqclean/seqclean/internal/kraken"
)

func TestPolicy_Keep(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		c      kraken.Classification
		want   bool
	}{
		{
			name:   "unclassified kept",
			policy: NewPolicy([]int{9606}, 0, false),
			c:      kraken.Classification{Classified: false},
			want:   true,
		},
		{
			name:   "target discarded",
			policy: NewPolicy([]int{9606}, 0, false),
			c:      kraken.Classification{Classified: true, TaxID: 9606, Confidence: 1.0},
			want:   false,
		},
		{
			name:   "non-target taxon kept",
			policy: NewPolicy([]int{9606}, 0, false),
			c:      kraken.Classification{Classified: true, TaxID: 562, Confidence: 1.0},
			want:   true,
		},
		{
			name:   "target below confidence threshold kept",
			policy: NewPolicy([]int{9606}, 0.5, false),
			c:      kraken.Classification{Classified: true, TaxID: 9606, Confidence: 0.3},
			want:   true,
		},
		{
			name:   "target at confidence threshold discarded",
			policy: NewPolicy([]int{9606}, 0.5, false),
			c:      kraken.Classification{Classified: true, TaxID: 9606, Confidence: 0.5},
			want:   false,
		},
		{
			name:   "inverted keeps target",
			policy: NewPolicy([]int{9606}, 0, true),
			c:      kraken.Classification{Classified: true, TaxID: 9606, Confidence: 1.0},
			want:   true,
		},
		{
			name:   "inverted discards unclassified",
			policy: NewPolicy([]int{9606}, 0, true),
			c:      kraken.Classification{Classified: false},
			want:   false,
		},
		{
			name:   "multiple targets",
			policy: NewPolicy([]int{9606, 562}, 0, false),
			c:      kraken.Classification{Classified: true, TaxID: 562, Confidence: 1.0},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Keep(tt.c); got != tt.want {
				t.Errorf("Keep(%+v) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}
