package source

import (
	"testing"
)

func TestSpan_ContainsAndOverlaps(t *testing.T) {
	outer := Span{File: 1, Start: 10, End: 30}
	tests := []struct {
		name     string
		other    Span
		contains bool
		overlaps bool
	}{
		{"identical", Span{File: 1, Start: 10, End: 30}, true, true},
		{"nested", Span{File: 1, Start: 12, End: 20}, true, true},
		{"empty at start", Span{File: 1, Start: 10, End: 10}, true, false},
		{"crosses end", Span{File: 1, Start: 25, End: 35}, false, true},
		{"adjacent after", Span{File: 1, Start: 30, End: 40}, false, false},
		{"other file", Span{File: 2, Start: 12, End: 20}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outer.Contains(tt.other); got != tt.contains {
				t.Errorf("Contains(%v) = %v, want %v", tt.other, got, tt.contains)
			}
			if got := outer.Overlaps(tt.other); got != tt.overlaps {
				t.Errorf("Overlaps(%v) = %v, want %v", tt.other, got, tt.overlaps)
			}
		})
	}
}
