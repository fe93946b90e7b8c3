package dsp

import "testing"

func TestDynamicFloorNoOpAtHighVolume(t *testing.T) {
	cfg := DefaultFloorConfig()
	f := NewDynamicFloor(cfg)
	// Raise the floor first so a stale floor would be visible.
	for range 100 {
		f.Apply(0, 0)
	}
	for _, volume := range []float64{cfg.Threshold, 0.5, 1} {
		for _, v := range []float64{0, 0.01, 0.5, 1} {
			if got := f.Apply(v, volume); got != v {
				t.Errorf("Apply(%v, %v) = %v, want %v", v, volume, got, v)
			}
		}
	}
}

func TestDynamicFloorLiftsQuietValues(t *testing.T) {
	cfg := DefaultFloorConfig()
	f := NewDynamicFloor(cfg)
	var got float64
	for range 200 {
		got = f.Apply(0, 0)
	}
	if !almostEqual(f.Current(), cfg.Max, 1e-6) {
		t.Errorf("floor at zero volume = %v, want %v", f.Current(), cfg.Max)
	}
	if !almostEqual(got, cfg.Max*0.7, 1e-6) {
		t.Errorf("Apply(0, 0) = %v, want %v", got, cfg.Max*0.7)
	}
	// Values above the floor pass through.
	if got := f.Apply(0.5, 0); got != 0.5 {
		t.Errorf("Apply(0.5, 0) = %v, want 0.5", got)
	}
}

func TestDynamicFloorDisabled(t *testing.T) {
	cfg := DefaultFloorConfig()
	cfg.Enabled = false
	f := NewDynamicFloor(cfg)
	for range 50 {
		if got := f.Apply(0.01, 0); got != 0.01 {
			t.Fatalf("disabled Apply = %v, want 0.01", got)
		}
	}
}
