package dsp

import (
	"math"
	"math/cmplx"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/dsp/fourier"
)

// fluxScale divides the positive spectral difference before clamping.
const fluxScale = 8

// Spectrum computes the magnitude spectrum of fixed-size frames and keeps the
// previous frame's magnitudes for spectral flux.
type Spectrum struct {
	fft      *fourier.FFT
	coeffs   []complex128
	mag      []float64
	prev     []float64
	havePrev bool
	flux     float64
}

// NewSpectrum returns a spectrum for frames of n samples.
func NewSpectrum(n int) *Spectrum {
	bins := n/2 + 1
	return &Spectrum{
		fft:    fourier.NewFFT(n),
		coeffs: make([]complex128, bins),
		mag:    make([]float64, bins),
		prev:   make([]float64, bins),
	}
}

// Compute transforms frame and returns its magnitude spectrum. The returned
// slice is reused by the next call.
func (s *Spectrum) Compute(frame []float64) []float64 {
	s.fft.Coefficients(s.coeffs, frame)
	for i, c := range s.coeffs {
		s.mag[i] = cmplx.Abs(c)
	}

	if s.havePrev {
		var rise float64
		for i, m := range s.mag {
			if d := m - s.prev[i]; d > 0 {
				rise += d
			}
		}
		s.flux = math.Min(1, rise/((vek.Max(s.mag)+0.001)*fluxScale))
	} else {
		s.flux = 0
	}
	copy(s.prev, s.mag)
	s.havePrev = true

	return s.mag
}

// Flux returns the normalized positive spectral difference of the last frame
// against the one before it, in [0, 1]. The first frame has zero flux.
func (s *Spectrum) Flux() float64 { return s.flux }

// Coefficients returns the complex spectrum of the last frame.
func (s *Spectrum) Coefficients() []complex128 { return s.coeffs }

// Reset forgets the previous frame.
func (s *Spectrum) Reset() {
	s.havePrev = false
	s.flux = 0
}

// BinFrequencies returns the center frequency of each bin for an n-point
// real FFT at sampleRate.
func BinFrequencies(n, sampleRate int) []float64 {
	freqs := make([]float64, n/2+1)
	step := float64(sampleRate) / float64(n)
	for i := range freqs {
		freqs[i] = float64(i) * step
	}
	return freqs
}

// RMS returns the root mean square of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(vek.Dot(x, x) / float64(len(x)))
}
