package dsp

import "testing"

func TestDrumDetectorKickOnImpulse(t *testing.T) {
	d, err := NewDrumDetector(testHop, testWin, testRate, DrumPresetFor(SensitivityHigh, DefaultCustomDrumPreset))
	if err != nil {
		t.Fatalf("NewDrumDetector() error = %v", err)
	}
	silence := make([]float64, testHop)
	for i := range 10 {
		if hit := d.Process(silence); hit.Kick || hit.Snare {
			t.Fatalf("hit %+v on silent frame %d", hit, i)
		}
	}
	if hit := d.Process(impulse(1, testHop, testHop/2)); !hit.Kick {
		t.Errorf("Process(impulse) = %+v, want kick", hit)
	}
}

func TestDrumDetectorReset(t *testing.T) {
	d, err := NewDrumDetector(testHop, testWin, testRate, DrumPresetFor(SensitivityHigh, DefaultCustomDrumPreset))
	if err != nil {
		t.Fatalf("NewDrumDetector() error = %v", err)
	}
	d.Process(impulse(1, testHop, testHop/2))
	d.Reset()
	if hit := d.Process(impulse(1, testHop, testHop/2)); !hit.Kick {
		t.Errorf("Process after Reset = %+v, want kick", hit)
	}
}

func TestBandReconstructor(t *testing.T) {
	r := NewBandReconstructor(testHop, testRate, kickLowHz, kickHighHz)
	if r.Empty() {
		t.Fatal("kick band has no bins at 48 kHz")
	}
	if r.lo != 1 || r.hi != 1 {
		t.Errorf("kick bins = [%d, %d], want [1, 1]", r.lo, r.hi)
	}

	none := NewBandReconstructor(testHop, testRate, 10, 20)
	if !none.Empty() {
		t.Error("10-20 Hz band should have no bins")
	}
	coeffs := make([]complex128, testHop/2+1)
	coeffs[1] = 5
	if got := none.MeanMagnitude(coeffs); got != 0 {
		t.Errorf("MeanMagnitude on empty band = %v", got)
	}
	for _, v := range none.Reconstruct(coeffs) {
		if v != 0 {
			t.Fatal("empty band reconstructed a nonzero signal")
		}
	}
}

func TestPeakDetector(t *testing.T) {
	p, err := NewPeakDetector(testHop, testWin, testRate, PeakPresetFor(SensitivityMedium), 0.04)
	if err != nil {
		t.Fatalf("NewPeakDetector() error = %v", err)
	}

	silence := make([]float64, testHop)
	for range 5 {
		if hit := p.Process(silence); hit.Hit {
			t.Fatal("peak on silence")
		}
	}

	for i := range 20 {
		p.Process(sine(440, 0.05, testHop, i*testHop))
	}
	hit := p.Process(sine(440, 0.8, testHop, 20*testHop))
	if !hit.Hit {
		t.Fatal("no peak on loud burst")
	}
	if !almostEqual(hit.Intensity, 1, 1e-9) {
		t.Errorf("burst intensity = %v, want 1", hit.Intensity)
	}
}

func TestPeakDetectorIgnoresQuietFrames(t *testing.T) {
	p, err := NewPeakDetector(testHop, testWin, testRate, PeakPresetFor(SensitivityUltra), 0.04)
	if err != nil {
		t.Fatalf("NewPeakDetector() error = %v", err)
	}
	// RMS of 0.02 amplitude sine is about 0.014, under the level gate.
	for i := range 30 {
		if hit := p.Process(sine(440, 0.02, testHop, i*testHop)); hit.Hit {
			t.Fatalf("peak on quiet frame %d", i)
		}
	}
}
