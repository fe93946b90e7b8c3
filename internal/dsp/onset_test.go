package dsp

import "testing"

func newTestOnset(t *testing.T, method OnsetMethod, minIOI float64) *Onset {
	t.Helper()
	o, err := NewOnset(OnsetConfig{
		Method:     method,
		WindowSize: testWin,
		HopSize:    testHop,
		SampleRate: testRate,
		Threshold:  0.3,
		MinIOI:     minIOI,
	})
	if err != nil {
		t.Fatalf("NewOnset(%q) error = %v", method, err)
	}
	return o
}

func TestOnsetSilenceNeverFires(t *testing.T) {
	methods := []OnsetMethod{MethodEnergy, MethodHFC, MethodComplex, MethodPhase, MethodSpecFlux, MethodDefault}
	for _, m := range methods {
		o := newTestOnset(t, m, 0)
		silence := make([]float64, testHop)
		for i := range 50 {
			if o.Process(silence) {
				t.Errorf("%s: onset on silent hop %d", m, i)
			}
		}
	}
}

func TestOnsetImpulseFires(t *testing.T) {
	for _, m := range []OnsetMethod{MethodEnergy, MethodHFC, MethodSpecFlux} {
		o := newTestOnset(t, m, 0)
		silence := make([]float64, testHop)
		for range 5 {
			o.Process(silence)
		}
		if !o.Process(impulse(1, testHop, 0)) {
			t.Errorf("%s: no onset on impulse", m)
		}
	}
}

func TestOnsetMinIOI(t *testing.T) {
	tests := []struct {
		name   string
		minIOI float64
		want   bool
	}{
		{"blocked", 0.1, false},
		{"allowed", 0.02, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOnset(t, MethodEnergy, tt.minIOI)
			silence := make([]float64, testHop)

			if !o.Process(impulse(1, testHop, 0)) {
				t.Fatal("first impulse did not fire")
			}
			o.Process(silence)
			o.Process(silence)
			// Second impulse 1536 samples (32 ms) after the first.
			if got := o.Process(impulse(1, testHop, 0)); got != tt.want {
				t.Errorf("second impulse fired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOnsetWrongHopLength(t *testing.T) {
	o := newTestOnset(t, MethodEnergy, 0)
	if o.Process(impulse(1, testHop/2, 0)) {
		t.Error("onset on a short hop")
	}
}

func TestNewOnsetErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  OnsetConfig
	}{
		{"unknown method", OnsetConfig{Method: "wavelet", WindowSize: testWin, HopSize: testHop, SampleRate: testRate}},
		{"window smaller than hop", OnsetConfig{Method: MethodHFC, WindowSize: 256, HopSize: testHop, SampleRate: testRate}},
		{"zero hop", OnsetConfig{Method: MethodHFC, WindowSize: testWin, SampleRate: testRate}},
		{"zero rate", OnsetConfig{Method: MethodHFC, WindowSize: testWin, HopSize: testHop}},
	}
	for _, tt := range tests {
		if _, err := NewOnset(tt.cfg); err == nil {
			t.Errorf("%s: NewOnset() error = nil", tt.name)
		}
	}
}

func TestPrincarg(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{1, 1},
		{4, 4 - 2*3.141592653589793},
		{-4, -4 + 2*3.141592653589793},
	}
	for _, tt := range tests {
		if got := princarg(tt.in); !almostEqual(got, tt.want, 1e-12) {
			t.Errorf("princarg(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
