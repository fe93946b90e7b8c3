package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// OnsetMethod selects the onset detection function.
type OnsetMethod string

const (
	MethodEnergy   OnsetMethod = "energy"   // Spectral energy
	MethodHFC      OnsetMethod = "hfc"      // High frequency content
	MethodComplex  OnsetMethod = "complex"  // Complex-domain deviation
	MethodPhase    OnsetMethod = "phase"    // Phase deviation
	MethodSpecFlux OnsetMethod = "specflux" // Positive magnitude difference
	MethodDefault  OnsetMethod = "default"  // Alias for hfc
)

// OnsetConfig configures an onset detector.
type OnsetConfig struct {
	Method     OnsetMethod
	WindowSize int
	HopSize    int
	SampleRate int
	Threshold  float64 // Peak-picking threshold relative to the recent ODF mean
	MinIOI     float64 // Minimum seconds between onsets
	SilenceDB  float64 // Hops quieter than this never fire
}

// Onset detector defaults.
const (
	DefaultSilenceDB = -70.0
	odfHistory       = 7
)

// Onset is an adaptive-threshold onset detector. It keeps a sliding window of
// WindowSize samples advanced by HopSize per call, computes a detection
// function over the Hann-windowed spectrum and fires when the function rises
// above median + threshold·mean of its recent values.
type Onset struct {
	cfg    OnsetConfig
	odf    func(*Onset) float64
	fft    *fourier.FFT
	buf    []float64
	frame  []float64
	coeffs []complex128
	mag    []float64
	prev   []float64 // Previous magnitudes
	phase1 []float64 // Phases one frame back
	phase2 []float64 // Phases two frames back

	history   *History
	lastODF   float64
	lastOnset int64 // Sample position of the last onset, -1 for none
	position  int64 // Samples consumed so far
	minIOI    int64 // In samples
}

// NewOnset returns a detector, or an error for an unknown method or
// inconsistent sizes.
func NewOnset(cfg OnsetConfig) (*Onset, error) {
	if cfg.HopSize <= 0 || cfg.WindowSize < cfg.HopSize {
		return nil, fmt.Errorf("invalid onset sizes: window %d, hop %d", cfg.WindowSize, cfg.HopSize)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", cfg.SampleRate)
	}

	var odf func(*Onset) float64
	switch cfg.Method {
	case MethodEnergy:
		odf = (*Onset).energy
	case MethodHFC, MethodDefault, "":
		odf = (*Onset).hfc
	case MethodComplex:
		odf = (*Onset).complexDomain
	case MethodPhase:
		odf = (*Onset).phaseDeviation
	case MethodSpecFlux:
		odf = (*Onset).specFlux
	default:
		return nil, fmt.Errorf("unknown onset method: %q", cfg.Method)
	}
	if cfg.SilenceDB == 0 {
		cfg.SilenceDB = DefaultSilenceDB
	}

	bins := cfg.WindowSize/2 + 1
	o := &Onset{
		cfg:       cfg,
		odf:       odf,
		fft:       fourier.NewFFT(cfg.WindowSize),
		buf:       make([]float64, cfg.WindowSize),
		frame:     make([]float64, cfg.WindowSize),
		coeffs:    make([]complex128, bins),
		mag:       make([]float64, bins),
		prev:      make([]float64, bins),
		phase1:    make([]float64, bins),
		phase2:    make([]float64, bins),
		history:   NewHistory(odfHistory),
		lastOnset: -1,
	}
	o.SetMinIOI(cfg.MinIOI)
	return o, nil
}

// SetMinIOI changes the minimum inter-onset interval in seconds.
func (o *Onset) SetMinIOI(seconds float64) {
	o.cfg.MinIOI = seconds
	o.minIOI = int64(math.Round(max(seconds, 0) * float64(o.cfg.SampleRate)))
}

// Process consumes one hop of samples and reports whether an onset starts in
// it. Hops of the wrong length are ignored.
func (o *Onset) Process(hop []float64) bool {
	if len(hop) != o.cfg.HopSize {
		return false
	}
	defer func() { o.position += int64(len(hop)) }()

	copy(o.buf, o.buf[len(hop):])
	copy(o.buf[len(o.buf)-len(hop):], hop)

	copy(o.frame, o.buf)
	window.Hann(o.frame)
	o.fft.Coefficients(o.coeffs, o.frame)
	for i, c := range o.coeffs {
		o.mag[i] = cmplx.Abs(c)
	}

	value := o.odf(o)
	o.advancePhase()
	copy(o.prev, o.mag)

	threshold := o.history.Median() + o.cfg.Threshold*o.history.Mean()
	rising := value > o.lastODF
	o.history.Push(value)
	o.lastODF = value

	if value <= threshold || !rising || value <= 0 {
		return false
	}
	if levelDB(hop) < o.cfg.SilenceDB {
		return false
	}
	if o.lastOnset >= 0 && o.position-o.lastOnset < o.minIOI {
		return false
	}
	o.lastOnset = o.position
	return true
}

// Reset clears all detector state.
func (o *Onset) Reset() {
	clear(o.buf)
	clear(o.prev)
	clear(o.phase1)
	clear(o.phase2)
	o.history.Reset()
	o.lastODF = 0
	o.lastOnset = -1
	o.position = 0
}

func (o *Onset) energy() float64 {
	var sum float64
	for _, m := range o.mag {
		sum += m * m
	}
	return sum
}

func (o *Onset) hfc() float64 {
	var sum float64
	for i, m := range o.mag {
		sum += float64(i+1) * m
	}
	return sum
}

func (o *Onset) specFlux() float64 {
	var sum float64
	for i, m := range o.mag {
		if d := m - o.prev[i]; d > 0 {
			sum += d
		}
	}
	return sum
}

// complexDomain sums the distance between each bin and its prediction from
// the previous magnitude and a linearly extrapolated phase.
func (o *Onset) complexDomain() float64 {
	var sum float64
	for i, c := range o.coeffs {
		predicted := cmplx.Rect(o.prev[i], 2*o.phase1[i]-o.phase2[i])
		sum += cmplx.Abs(c - predicted)
	}
	return sum
}

// phaseDeviation is the mean absolute second phase difference.
func (o *Onset) phaseDeviation() float64 {
	var sum float64
	for i, c := range o.coeffs {
		sum += math.Abs(princarg(cmplx.Phase(c) - 2*o.phase1[i] + o.phase2[i]))
	}
	return sum / float64(len(o.coeffs))
}

func (o *Onset) advancePhase() {
	for i, c := range o.coeffs {
		o.phase2[i] = o.phase1[i]
		o.phase1[i] = cmplx.Phase(c)
	}
}

// princarg wraps a phase into [-π, π).
func princarg(p float64) float64 {
	return p - 2*math.Pi*math.Floor((p+math.Pi)/(2*math.Pi))
}

// levelDB returns the mean power of x in decibels.
func levelDB(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(sum/float64(len(x)))
}
