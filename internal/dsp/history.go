// Package dsp implements the per-frame signal chain that turns audio into
// band intensities and onset events: spectrum, band separation, gain
// control, compression, smoothing, dynamic floor and onset detection.
//
// Nothing in this package is safe for concurrent use. A pipeline is owned by
// the single goroutine that processes frames.
package dsp

import (
	"math"
	"slices"

	"github.com/viterin/vek"
)

// History is a fixed-capacity ring of the most recent values.
type History struct {
	buf     []float64
	next    int
	full    bool
	scratch []float64
}

// NewHistory returns an empty history holding at most capacity values.
func NewHistory(capacity int) *History {
	return &History{
		buf:     make([]float64, capacity),
		scratch: make([]float64, 0, capacity),
	}
}

// Push appends v, evicting the oldest value when full.
func (h *History) Push(v float64) {
	h.buf[h.next] = v
	h.next++
	if h.next == len(h.buf) {
		h.next = 0
		h.full = true
	}
}

// Len returns the number of stored values.
func (h *History) Len() int {
	if h.full {
		return len(h.buf)
	}
	return h.next
}

// filled returns the stored values in storage order.
func (h *History) filled() []float64 {
	return h.buf[:h.Len()]
}

// Mean returns the arithmetic mean, or 0 when empty.
func (h *History) Mean() float64 {
	if h.Len() == 0 {
		return 0
	}
	return vek.Mean(h.filled())
}

// Max returns the largest value, or 0 when empty.
func (h *History) Max() float64 {
	if h.Len() == 0 {
		return 0
	}
	return vek.Max(h.filled())
}

// Median returns the 50th percentile.
func (h *History) Median() float64 {
	return h.Percentile(50)
}

// Percentile returns the p-th percentile using linear interpolation between
// closest ranks, or 0 when empty.
func (h *History) Percentile(p float64) float64 {
	n := h.Len()
	if n == 0 {
		return 0
	}
	h.scratch = append(h.scratch[:0], h.filled()...)
	slices.Sort(h.scratch)

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return h.scratch[lo]
	}
	return h.scratch[lo] + (h.scratch[hi]-h.scratch[lo])*(rank-float64(lo))
}

// Last returns the most recently pushed value, or 0 when empty.
func (h *History) Last() float64 {
	if h.Len() == 0 {
		return 0
	}
	i := h.next - 1
	if i < 0 {
		i = len(h.buf) - 1
	}
	return h.buf[i]
}

// Reset discards all values.
func (h *History) Reset() {
	h.next = 0
	h.full = false
}
