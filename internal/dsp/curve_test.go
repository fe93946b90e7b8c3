package dsp

import (
	"math"
	"testing"
)

func TestCurves(t *testing.T) {
	tests := []struct {
		curve Curve
		in    float64
		want  float64
	}{
		{CurveLinear, 0.5, 0.5},
		{CurveExponential, 0.5, math.Pow(0.5, 0.6)},
		{CurveLogarithmic, 0.5, math.Log10(5.5)},
		{CurveSCurve, 0.25, 0.15625},
		{CurveLinear, 1.7, 1},
		{CurveExponential, -0.2, 0},
		{Curve("bogus"), 0.3, 0.3},
	}
	for _, tt := range tests {
		if got := tt.curve.Apply(tt.in); !almostEqual(got, tt.want, 1e-12) {
			t.Errorf("%s.Apply(%v) = %v, want %v", tt.curve, tt.in, got, tt.want)
		}
	}
	for _, c := range []Curve{CurveLinear, CurveExponential, CurveLogarithmic, CurveSCurve} {
		if got := c.Apply(1); !almostEqual(got, 1, 1e-12) {
			t.Errorf("%s.Apply(1) = %v, want 1", c, got)
		}
		if !c.Valid() {
			t.Errorf("%s.Valid() = false", c)
		}
	}
}

func TestBandShape(t *testing.T) {
	tests := []struct {
		name  string
		shape BandShape
		in    float64
		want  float64
	}{
		{"boost only", BandShape{Boost: 2, Expansion: 1, Floor: 0.1, Ceiling: 1.4}, 0.3, 0.6},
		{"expansion", BandShape{Boost: 1, Expansion: 2, Floor: 0.1, Ceiling: 1.4}, 0.25, 0.5},
		{"ceiling", BandShape{Boost: 2, Expansion: 1, Floor: 0.1, Ceiling: 1.3}, 0.9, 1.3},
		{"zero", BandShape{Boost: 1.4, Expansion: 1.2, Floor: 0.1, Ceiling: 1.3}, 0, 0},
		{"under floor", BandShape{Boost: 1, Expansion: 1, Floor: 0.1, Ceiling: 1.3}, 0.05, 0.05},
		{"under tiny floor", BandShape{Boost: 1, Expansion: 1, Floor: 0.0005, Ceiling: 1.3}, 0.0004, 0.0002},
	}
	for _, tt := range tests {
		if got := tt.shape.Shape(tt.in); !almostEqual(got, tt.want, 1e-12) {
			t.Errorf("%s: Shape(%v) = %v, want %v", tt.name, tt.in, got, tt.want)
		}
	}
}
