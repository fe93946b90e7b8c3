package dsp

import "math"

const (
	testRate = 48000
	testHop  = 512
	testWin  = 1024
)

// sine returns n samples of a sine wave starting at sample offset.
func sine(freq, amp float64, n, offset int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(offset+i)/testRate)
	}
	return out
}

// impulse returns n zero samples with a single spike at pos.
func impulse(amp float64, n, pos int) []float64 {
	out := make([]float64, n)
	out[pos] = amp
	return out
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
