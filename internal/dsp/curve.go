package dsp

import "math"

// Curve selects the response curve applied to normalized band values.
type Curve string

const (
	CurveLinear      Curve = "linear"
	CurveExponential Curve = "exponential"
	CurveLogarithmic Curve = "logarithmic"
	CurveSCurve      Curve = "scurve"
)

// Valid reports whether c is a known curve.
func (c Curve) Valid() bool {
	switch c {
	case CurveLinear, CurveExponential, CurveLogarithmic, CurveSCurve:
		return true
	}
	return false
}

// Apply clamps v to [0, 1] and maps it through the curve. Unknown curves are
// linear.
func (c Curve) Apply(v float64) float64 {
	v = clamp(v, 0, 1)
	switch c {
	case CurveExponential:
		return math.Pow(v, 0.6)
	case CurveLogarithmic:
		return math.Log10(1 + 9*v)
	case CurveSCurve:
		return v * v * (3 - 2*v)
	default:
		return v
	}
}

// BandShape holds the per-band boost and expansion parameters.
type BandShape struct {
	Boost     float64
	Expansion float64
	Floor     float64
	Ceiling   float64
}

// Shape boosts v, expands it by 1/Expansion and clamps it to the ceiling.
// A value under Floor is scaled by Floor/max(0.001, Floor), which only
// changes it for floors below 0.001. The tuned floors of 0.1 leave it as is.
func (b BandShape) Shape(v float64) float64 {
	v *= b.Boost
	if b.Expansion > 0 && b.Expansion != 1 {
		v = math.Pow(v, 1/b.Expansion)
	}
	if v < b.Floor {
		v = b.Floor * (v / max(0.001, b.Floor))
	}
	if b.Ceiling > 0 {
		v = min(v, b.Ceiling)
	}
	return v
}

// snapThreshold is the level under which decaying values become exactly 0.
const snapThreshold = 1e-4

func snapToZero(v float64) float64 {
	if math.Abs(v) < snapThreshold {
		return 0
	}
	return v
}
