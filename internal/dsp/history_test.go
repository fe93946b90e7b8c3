package dsp

import "testing"

func TestHistoryRing(t *testing.T) {
	h := NewHistory(3)
	if h.Mean() != 0 || h.Max() != 0 || h.Last() != 0 {
		t.Fatal("empty history should report zeros")
	}
	for _, v := range []float64{1, 2, 3, 4} {
		h.Push(v)
	}
	if got := h.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if got := h.Mean(); !almostEqual(got, 3, 1e-12) {
		t.Errorf("Mean() = %v, want 3", got)
	}
	if got := h.Max(); got != 4 {
		t.Errorf("Max() = %v, want 4", got)
	}
	if got := h.Last(); got != 4 {
		t.Errorf("Last() = %v, want 4", got)
	}
	h.Reset()
	if h.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", h.Len())
	}
}

func TestHistoryPercentile(t *testing.T) {
	h := NewHistory(10)
	for _, v := range []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1} {
		h.Push(v)
	}
	// Linear interpolation between closest ranks, as numpy.percentile does.
	tests := []struct {
		p, want float64
	}{
		{0, 1},
		{25, 3.25},
		{50, 5.5},
		{90, 9.1},
		{100, 10},
	}
	for _, tt := range tests {
		if got := h.Percentile(tt.p); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
