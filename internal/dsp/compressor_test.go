package dsp

import "testing"

func TestCompressorIdentityBelowKnee(t *testing.T) {
	cfg := DefaultCompressorConfig()
	c := NewCompressor(cfg)
	for v := 0.0; v < cfg.Threshold-cfg.Knee; v += 0.001 {
		if got := c.Process(v); !almostEqual(got, v, 1e-12) {
			t.Fatalf("Process(%v) = %v, want unchanged", v, got)
		}
	}
	if got := c.Process(0); got != 0 {
		t.Errorf("Process(0) = %v, want 0", got)
	}
}

func TestCompressorMonotonicAndContinuous(t *testing.T) {
	cfg := DefaultCompressorConfig()
	c := NewCompressor(cfg)
	const step = 1e-4
	prev := c.Process(0)
	for v := step; v <= 1.5; v += step {
		got := c.Process(v)
		if got < prev-1e-12 {
			t.Fatalf("Process(%v) = %v < Process(%v) = %v", v, got, v-step, prev)
		}
		if got-prev > cfg.Makeup*step+1e-9 {
			t.Fatalf("jump of %v at %v exceeds slope bound", got-prev, v)
		}
		prev = got
	}
}

func TestCompressorBoundedAboveThreshold(t *testing.T) {
	cfg := DefaultCompressorConfig()
	c := NewCompressor(cfg)
	for v := cfg.Threshold; v <= 2; v += 0.01 {
		got := c.Process(v)
		if got > v*cfg.Makeup+1e-12 {
			t.Errorf("Process(%v) = %v > input × makeup", v, got)
		}
		if got < 0 || got > 1 {
			t.Errorf("Process(%v) = %v outside [0, 1]", v, got)
		}
	}
}

func TestCompressorReducesDynamics(t *testing.T) {
	c := NewCompressor(DefaultCompressorConfig())
	lo, hi := c.Process(0.45), c.Process(0.9)
	if hi-lo >= 0.45 {
		t.Errorf("output range %v not narrower than input range 0.45", hi-lo)
	}
}

func TestCompressorDisabled(t *testing.T) {
	cfg := DefaultCompressorConfig()
	cfg.Enabled = false
	c := NewCompressor(cfg)
	for _, v := range []float64{-0.1, 0, 0.3, 1.2} {
		if got := c.Process(v); got != v {
			t.Errorf("disabled Process(%v) = %v", v, got)
		}
	}
}

func TestCompressorCurve(t *testing.T) {
	c := NewCompressor(DefaultCompressorConfig())
	tests := []struct {
		in, want float64
	}{
		{0.05, 0.05},                // below the knee
		{0.30, 0.334809773021707},   // inside the knee
		{0.50, 0.45986115564627594}, // above the knee
		{0.90, 0.6838611556462758},
	}
	for _, tt := range tests {
		if got := c.Process(tt.in); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("Process(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
