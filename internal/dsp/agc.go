package dsp

import "math"

// AGCConfig holds automatic gain control parameters.
type AGCConfig struct {
	Enabled bool
	Target  float64
	MinGain float64
	MaxGain float64
	Attack  float64 // Rate used when the gain has to drop
	Release float64 // Rate used when the gain has to rise
	Window  int     // Number of recent energies averaged
}

// DefaultAGCConfig returns the tuned defaults.
func DefaultAGCConfig() AGCConfig {
	return AGCConfig{
		Enabled: true,
		Target:  0.35,
		MinGain: 0.8,
		MaxGain: 3.5,
		Attack:  0.03,
		Release: 0.01,
		Window:  100,
	}
}

const (
	agcWarmup  = 10
	agcEpsilon = 0.001
)

// AGC tracks a rolling energy average and moves a bounded gain toward the
// value that would bring that average to the target.
type AGC struct {
	cfg     AGCConfig
	gain    float64
	history *History
}

// NewAGC returns an AGC with unity gain.
func NewAGC(cfg AGCConfig) *AGC {
	if cfg.Window <= 0 {
		cfg.Window = DefaultAGCConfig().Window
	}
	return &AGC{
		cfg:     cfg,
		gain:    1.0,
		history: NewHistory(cfg.Window),
	}
}

// Process records energy, updates the gain and returns energy × gain.
// During the first frames the energy passes through unchanged.
func (a *AGC) Process(energy float64) float64 {
	if !a.cfg.Enabled {
		return energy
	}

	a.history.Push(energy)
	if a.history.Len() < agcWarmup {
		return energy
	}

	ideal := a.cfg.MaxGain
	if avg := a.history.Mean(); avg > agcEpsilon {
		ideal = a.cfg.Target / avg
	}
	ideal = clamp(ideal, a.cfg.MinGain, a.cfg.MaxGain)

	rate := a.cfg.Attack
	if ideal > a.gain {
		rate = a.cfg.Release
	}
	a.gain += (ideal - a.gain) * rate
	a.gain = clamp(a.gain, a.cfg.MinGain, a.cfg.MaxGain)

	return energy * a.gain
}

// Gain returns the current gain factor.
func (a *AGC) Gain() float64 { return a.gain }

// Reset restores unity gain and clears the history.
func (a *AGC) Reset() {
	a.gain = 1.0
	a.history.Reset()
}

// Normalization reference constants.
const (
	refWindow     = 200
	refWarmup     = 30
	refPercentile = 90
	refMinGain    = 0.3
	noiseFloor    = 0.008
)

// Normalizer maps raw band energies into [0, 1] against a rolling high
// percentile of recent per-frame band maxima, scaled by the AGC gain.
type Normalizer struct {
	history *History
}

// NewNormalizer returns a normalizer with an empty reference history.
func NewNormalizer() *Normalizer {
	return &Normalizer{history: NewHistory(refWindow)}
}

// Observe records the loudest band of this frame and returns the reference
// divisor for the given AGC gain.
func (n *Normalizer) Observe(perc, bass, melody, gain float64) float64 {
	n.history.Push(max(perc, bass, melody, 0.001))

	var ref float64
	if n.history.Len() > refWarmup {
		ref = n.history.Percentile(refPercentile) + 0.001
	} else {
		ref = n.history.Max() + 0.001
	}
	return ref / math.Max(refMinGain, gain)
}

// Normalize divides raw by ref, gating values under the noise floor to zero
// and clamping to 1.
func Normalize(raw, ref float64) float64 {
	if raw < noiseFloor || ref <= 0 {
		return 0
	}
	return math.Min(1, raw/ref)
}

// Reset clears the reference history.
func (n *Normalizer) Reset() { n.history.Reset() }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
