package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Detector sub-bands and gates.
const (
	kickLowHz    = 40.0
	kickHighHz   = 150.0
	snareLowHz   = 200.0
	snareHighHz  = 2000.0
	drumHistory  = 50
	kickGate     = 0.15 // Fraction of the recent kick-band maximum
	snareGate    = 0.10 // Fraction of the recent snare-band maximum
	peakHistory  = 40
	peakMinLevel = 0.02
	peakJump     = 1.4
	peakAvgMin   = 0.01
	complexScale = 1.2
)

// BandReconstructor isolates a frequency range of a frame by zeroing every
// other bin and transforming back.
type BandReconstructor struct {
	fft    *fourier.FFT
	lo, hi int // Inclusive bin range
	masked []complex128
	out    []float64
}

// NewBandReconstructor returns a reconstructor for [lowHz, highHz] on n-point
// frames at sampleRate.
func NewBandReconstructor(n, sampleRate int, lowHz, highHz float64) *BandReconstructor {
	freqs := BinFrequencies(n, sampleRate)
	lo, hi := len(freqs), -1
	for i, f := range freqs {
		if f >= lowHz && f <= highHz {
			lo = min(lo, i)
			hi = max(hi, i)
		}
	}
	return &BandReconstructor{
		fft:    fourier.NewFFT(n),
		lo:     lo,
		hi:     hi,
		masked: make([]complex128, len(freqs)),
		out:    make([]float64, n),
	}
}

// Empty reports whether no bin falls inside the range.
func (r *BandReconstructor) Empty() bool { return r.hi < r.lo }

// MeanMagnitude returns the mean magnitude of the in-range bins of coeffs.
func (r *BandReconstructor) MeanMagnitude(coeffs []complex128) float64 {
	if r.Empty() {
		return 0
	}
	var sum float64
	for _, c := range coeffs[r.lo : r.hi+1] {
		sum += cmplx.Abs(c)
	}
	return sum / float64(r.hi-r.lo+1)
}

// Reconstruct returns the time-domain signal containing only the in-range
// bins of coeffs. The returned slice is reused by the next call.
func (r *BandReconstructor) Reconstruct(coeffs []complex128) []float64 {
	clear(r.masked)
	if !r.Empty() {
		copy(r.masked[r.lo:r.hi+1], coeffs[r.lo:r.hi+1])
	}
	r.fft.Sequence(r.out, r.masked)
	scale := 1 / float64(len(r.out))
	for i := range r.out {
		r.out[i] *= scale
	}
	return r.out
}

// DrumHit is the per-frame result of the drum detector.
type DrumHit struct {
	Kick  bool
	Snare bool
}

// DrumDetector fires kick and snare onsets on band-limited reconstructions
// of the frame, each gated against the recent maximum of its band.
type DrumDetector struct {
	fft          *fourier.FFT
	coeffs       []complex128
	kickBand     *BandReconstructor
	snareBand    *BandReconstructor
	kick         *Onset
	snare        *Onset
	kickHistory  *History
	snareHistory *History
}

// NewDrumDetector returns a drum detector for hop-sized frames.
func NewDrumDetector(hop, win, sampleRate int, preset DrumPreset) (*DrumDetector, error) {
	kick, err := NewOnset(OnsetConfig{
		Method:     MethodEnergy,
		WindowSize: win,
		HopSize:    hop,
		SampleRate: sampleRate,
		Threshold:  preset.KickThreshold,
		MinIOI:     preset.KickMinIOI,
	})
	if err != nil {
		return nil, err
	}
	snare, err := NewOnset(OnsetConfig{
		Method:     MethodHFC,
		WindowSize: win,
		HopSize:    hop,
		SampleRate: sampleRate,
		Threshold:  preset.SnareThreshold,
		MinIOI:     preset.SnareMinIOI,
	})
	if err != nil {
		return nil, err
	}

	return &DrumDetector{
		fft:          fourier.NewFFT(hop),
		coeffs:       make([]complex128, hop/2+1),
		kickBand:     NewBandReconstructor(hop, sampleRate, kickLowHz, kickHighHz),
		snareBand:    NewBandReconstructor(hop, sampleRate, snareLowHz, snareHighHz),
		kick:         kick,
		snare:        snare,
		kickHistory:  NewHistory(drumHistory),
		snareHistory: NewHistory(drumHistory),
	}, nil
}

// Process analyzes one normalized frame.
func (d *DrumDetector) Process(frame []float64) DrumHit {
	d.fft.Coefficients(d.coeffs, frame)

	ke := d.kickBand.MeanMagnitude(d.coeffs)
	se := d.snareBand.MeanMagnitude(d.coeffs)
	d.kickHistory.Push(ke)
	d.snareHistory.Push(se)

	// Both detectors see every frame so their windows stay continuous.
	kickOnset := d.kick.Process(d.kickBand.Reconstruct(d.coeffs))
	snareOnset := d.snare.Process(d.snareBand.Reconstruct(d.coeffs))

	return DrumHit{
		Kick:  kickOnset && ke > d.kickHistory.Max()*kickGate,
		Snare: snareOnset && se > d.snareHistory.Max()*snareGate,
	}
}

// Reset clears detector state.
func (d *DrumDetector) Reset() {
	d.kick.Reset()
	d.snare.Reset()
	d.kickHistory.Reset()
	d.snareHistory.Reset()
}

// PeakHit is the per-frame result of the peak detector.
type PeakHit struct {
	Hit       bool
	Intensity float64
}

// PeakDetector fires on any strong transient: either of two spectral onset
// functions, a jump of frame energy over its recent average, or a large
// frame-to-frame energy change.
type PeakDetector struct {
	hfc            *Onset
	complex        *Onset
	history        *History
	last           float64
	transientRatio float64
}

// NewPeakDetector returns a peak detector for hop-sized frames.
func NewPeakDetector(hop, win, sampleRate int, preset PeakPreset, minInterval float64) (*PeakDetector, error) {
	hfc, err := NewOnset(OnsetConfig{
		Method:     MethodDefault,
		WindowSize: win,
		HopSize:    hop,
		SampleRate: sampleRate,
		Threshold:  preset.OnsetThreshold,
		MinIOI:     minInterval,
	})
	if err != nil {
		return nil, err
	}
	complexOnset, err := NewOnset(OnsetConfig{
		Method:     MethodComplex,
		WindowSize: win,
		HopSize:    hop,
		SampleRate: sampleRate,
		Threshold:  preset.OnsetThreshold * complexScale,
		MinIOI:     minInterval,
	})
	if err != nil {
		return nil, err
	}
	return &PeakDetector{
		hfc:            hfc,
		complex:        complexOnset,
		history:        NewHistory(peakHistory),
		transientRatio: preset.TransientRatio,
	}, nil
}

// Process analyzes one normalized frame.
func (p *PeakDetector) Process(frame []float64) PeakHit {
	e := RMS(frame)
	p.history.Push(e)
	avg := p.history.Mean()
	peak := p.history.Max()
	transient := math.Abs(e - p.last)
	p.last = e

	if e <= peakMinLevel {
		return PeakHit{}
	}

	// Onset detectors only advance on frames loud enough to be considered.
	hit := p.hfc.Process(frame) ||
		p.complex.Process(frame) ||
		(avg > peakAvgMin && e/avg > peakJump) ||
		(avg > peakAvgMin && transient > avg*p.transientRatio)
	if !hit {
		return PeakHit{}
	}

	intensity := 0.5
	if peak > peakAvgMin {
		intensity = clamp(e/peak, 0.4, 1.0)
	}
	return PeakHit{Hit: true, Intensity: intensity}
}

// Reset clears detector state.
func (p *PeakDetector) Reset() {
	p.hfc.Reset()
	p.complex.Reset()
	p.history.Reset()
	p.last = 0
}
