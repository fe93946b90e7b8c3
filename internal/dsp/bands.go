package dsp

import (
	"math"

	"github.com/viterin/vek"
)

// Band identifies one of the three perceptual channels.
type Band int

const (
	Percussion Band = iota
	Bass
	Melody
	numBands
)

func (b Band) String() string {
	switch b {
	case Percussion:
		return "percussion"
	case Bass:
		return "bass"
	case Melody:
		return "melody"
	}
	return "unknown"
}

// BandWeights holds one normalized weight vector per band. Each vector sums
// to 1 over the spectrum bins.
type BandWeights struct {
	Percussion []float64
	Bass       []float64
	Melody     []float64

	power []float64
}

// NewBandWeights builds the weight vectors for an n-point real FFT at
// sampleRate.
func NewBandWeights(n, sampleRate int) *BandWeights {
	freqs := BinFrequencies(n, sampleRate)
	perc := make([]float64, len(freqs))
	bass := make([]float64, len(freqs))
	mel := make([]float64, len(freqs))

	for i, f := range freqs {
		perc[i] = percussionWeight(f)
		bass[i] = bassWeight(f)
		mel[i] = melodyWeight(f)
	}

	// Shared zones are attenuated so one transient does not light two bands.
	for i, f := range freqs {
		if 60 <= f && f <= 100 {
			bass[i] *= 0.3
		}
		if 150 <= f && f <= 300 {
			bass[i] *= 0.4
		}
		if 2000 <= f && f <= 4000 {
			mel[i] *= 0.5
		}
	}

	normalize(perc)
	normalize(bass)
	normalize(mel)

	return &BandWeights{
		Percussion: perc,
		Bass:       bass,
		Melody:     mel,
		power:      make([]float64, len(freqs)),
	}
}

func percussionWeight(f float64) float64 {
	var w float64
	switch {
	case 40 <= f && f < 60:
		w += 0.5
	case 60 <= f && f <= 100:
		w += 1.0
	case 100 < f && f <= 200:
		w += 0.4
	}
	if 150 <= f && f <= 300 {
		w += 0.6
	}
	if 2000 <= f && f <= 4000 {
		w += 0.9
	}
	if 5000 <= f && f <= 10000 {
		w += 1.0
	}
	if 10000 < f && f <= 14000 {
		w += 0.4
	}
	return w
}

func bassWeight(f float64) float64 {
	switch {
	case 40 <= f && f < 60:
		return 0.3
	case 60 <= f && f <= 100:
		return 0.5
	case 100 < f && f <= 250:
		return 1.0
	case 250 < f && f <= 500:
		return 0.5
	case 500 < f && f <= 1000:
		return 0.2
	}
	return 0
}

func melodyWeight(f float64) float64 {
	switch {
	case 200 <= f && f <= 500:
		return 0.3
	case 500 < f && f <= 1000:
		return 0.6
	case 1000 < f && f <= 2000:
		return 0.9
	case 2000 < f && f <= 4000:
		return 1.0
	case 4000 < f && f <= 6000:
		return 0.7
	case 6000 < f && f <= 8000:
		return 0.5
	case 8000 < f && f <= 10000:
		return 0.3
	}
	return 0
}

// normalize scales w in place so it sums to 1. An all-zero vector, which
// only happens for sample rates too low to reach the band, is left as is.
func normalize(w []float64) {
	if sum := vek.Sum(w); sum > 0 {
		vek.DivNumber_Inplace(w, sum)
	}
}

// Apply returns the weighted RMS energy of each band for the magnitude
// spectrum mag: sqrt(sum(mag² · w)).
func (bw *BandWeights) Apply(mag []float64) (perc, bass, melody float64) {
	power := vek.Mul_Into(bw.power[:len(mag)], mag, mag)
	perc = math.Sqrt(vek.Dot(power, bw.Percussion))
	bass = math.Sqrt(vek.Dot(power, bw.Bass))
	melody = math.Sqrt(vek.Dot(power, bw.Melody))
	return perc, bass, melody
}

// Weights returns the weight vector of band b.
func (bw *BandWeights) Weights(b Band) []float64 {
	switch b {
	case Percussion:
		return bw.Percussion
	case Bass:
		return bw.Bass
	default:
		return bw.Melody
	}
}
