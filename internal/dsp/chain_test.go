package dsp

import (
	"math/rand/v2"
	"testing"
)

func TestBandChainBounded(t *testing.T) {
	comp := NewCompressor(DefaultCompressorConfig())
	shapes := DefaultBandShapes()
	r := rand.New(rand.NewPCG(5, 6))
	for _, curve := range []Curve{CurveLinear, CurveExponential, CurveLogarithmic, CurveSCurve} {
		for b := range numBands {
			c := NewBandChain(curve, shapes[b], comp, DefaultSmootherConfig())
			for range 500 {
				v := c.Process(r.Float64()*1.2, r.Float64())
				if v < 0 || v > 1 {
					t.Fatalf("%s/%s: output %v outside [0, 1]", curve, Band(b), v)
				}
			}
		}
	}
}

func TestBandChainZeroStaysZero(t *testing.T) {
	c := NewBandChain(CurveLinear, DefaultBandShapes()[Melody], NewCompressor(DefaultCompressorConfig()), DefaultSmootherConfig())
	for range 20 {
		if v := c.Process(0, 0.5); v != 0 {
			t.Fatalf("Process(0) = %v, want 0", v)
		}
	}
}

func TestBandChainDecay(t *testing.T) {
	c := NewBandChain(CurveLinear, DefaultBandShapes()[Bass], NewCompressor(DefaultCompressorConfig()), DefaultSmootherConfig())
	for range 30 {
		c.Process(0.8, 1)
	}
	if c.Value() <= 0 {
		t.Fatal("chain did not rise")
	}
	for range 100 {
		c.Decay(0.85)
	}
	if c.Value() != 0 {
		t.Errorf("Value() after decay = %v, want 0", c.Value())
	}
}

func TestDynamicFloorLiftShared(t *testing.T) {
	f := NewDynamicFloor(DefaultFloorConfig())
	floor := f.Floor(0)
	before := f.Current()
	f.Lift(0, floor, 0)
	f.Lift(0, floor, 0)
	if f.Current() != before {
		t.Error("Lift advanced the floor")
	}
}
