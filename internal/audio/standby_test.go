package audio

import (
	"testing"
	"time"
)

func TestStandbyDetector(t *testing.T) {
	cfg := StandbyConfig{ThresholdDB: -50, Duration: 10, Recovery: 1}
	d := NewStandbyDetector()
	t0 := time.Unix(1000, 0)
	at := func(sec float64) time.Time { return t0.Add(time.Duration(sec * float64(time.Second))) }

	steps := []struct {
		sec     float64
		level   float64
		standby bool
		entered bool
		exited  bool
	}{
		{0, -20, false, false, false},
		{1, -70, false, false, false},
		{10.9, -70, false, false, false},
		{11, -70, true, true, false},
		{15, -70, true, false, false},
		{16, -20, true, false, false}, // Recovery starts
		{16.5, -70, true, false, false},
		{17, -20, true, false, false}, // Recovery restarts
		{17.9, -20, true, false, false},
		{18, -20, false, false, true},
		{19, -20, false, false, false},
	}
	for _, s := range steps {
		ev := d.Update(s.level, cfg, at(s.sec))
		if ev.InStandby != s.standby || ev.JustEntered != s.entered || ev.JustExited != s.exited {
			t.Fatalf("t=%v level=%v: got %+v, want standby=%v entered=%v exited=%v",
				s.sec, s.level, ev, s.standby, s.entered, s.exited)
		}
		if s.exited && ev.TotalDuration != 17 {
			t.Errorf("TotalDuration = %v, want 17", ev.TotalDuration)
		}
	}
}

func TestStandbyDetectorReset(t *testing.T) {
	cfg := StandbyConfig{ThresholdDB: -50, Duration: 1, Recovery: 1}
	d := NewStandbyDetector()
	t0 := time.Unix(1000, 0)
	d.Update(-70, cfg, t0)
	d.Update(-70, cfg, t0.Add(2*time.Second))
	if !d.InStandby() {
		t.Fatal("detector did not enter standby")
	}
	d.Reset()
	if d.InStandby() {
		t.Error("Reset() kept standby")
	}
}

func TestPeakHolder(t *testing.T) {
	p := NewPeakHolder()
	t0 := time.Unix(1000, 0)
	if got := p.Update(-10, t0); got != -10 {
		t.Errorf("first Update = %v, want -10", got)
	}
	if got := p.Update(-30, t0.Add(time.Second)); got != -10 {
		t.Errorf("Update within hold = %v, want -10", got)
	}
	if got := p.Update(-30, t0.Add(PeakHoldDuration+time.Millisecond)); got != -30 {
		t.Errorf("Update after hold = %v, want -30", got)
	}
	p.Reset()
	if got := p.Update(MinDB, t0); got != MinDB {
		t.Errorf("Update after Reset = %v, want %v", got, MinDB)
	}
}
