package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oszuidwest/zwfm-ledsync/internal/dsp"
	"github.com/oszuidwest/zwfm-ledsync/internal/types"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	c := New(path)
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}

	s := c.Snapshot()
	if s.WebPort != DefaultWebPort || s.Mode != types.ModeBoth || s.Curve != dsp.CurveLinear {
		t.Errorf("default snapshot = port %d mode %s curve %s", s.WebPort, s.Mode, s.Curve)
	}
	if s.Drums != dsp.DrumPresetFor(dsp.SensitivityMedium, dsp.DefaultCustomDrumPreset) {
		t.Errorf("default drum preset = %+v", s.Drums)
	}
	if s.AGC != dsp.DefaultAGCConfig() || s.Compressor != dsp.DefaultCompressorConfig() {
		t.Errorf("default signal chain = %+v / %+v", s.AGC, s.Compressor)
	}
	if s.Smoothing != dsp.DefaultSmootherConfig() || s.Floor != dsp.DefaultFloorConfig() {
		t.Errorf("default smoothing = %+v / %+v", s.Smoothing, s.Floor)
	}
	if s.Shapes != dsp.DefaultBandShapes() {
		t.Errorf("default band shapes = %+v", s.Shapes)
	}
	if s.Fusion != dsp.DefaultFusionConfig() {
		t.Errorf("default fusion = %+v", s.Fusion)
	}
	if s.StandbyThreshold != DefaultStandbyThreshold || s.App != DefaultApp || !s.AppGate {
		t.Errorf("default standby/app = %v %q %v", s.StandbyThreshold, s.App, s.AppGate)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
  "web": {"port": 9090},
  "detection": {"sensitivity": "Custom", "custom": {"kick_threshold": 0.2, "snare_threshold": 0.3, "kick_min_ioi": 0.05, "snare_min_ioi": 0.05}, "hit_hold_seconds": 0.25},
  "agc": {"disabled": true, "max_gain": 2},
  "bands": {"curve": "scurve", "melody": {"boost": 2}},
  "standby": {"threshold_db": -60}
}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	c := New(path)
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s := c.Snapshot()

	if s.WebPort != 9090 || s.WebUser != DefaultWebUsername {
		t.Errorf("web = %d %q", s.WebPort, s.WebUser)
	}
	want := dsp.DrumPreset{KickThreshold: 0.2, SnareThreshold: 0.3, KickMinIOI: 0.05, SnareMinIOI: 0.05}
	if s.Sensitivity != dsp.SensitivityCustom || s.Drums != want {
		t.Errorf("custom preset = %q %+v", s.Sensitivity, s.Drums)
	}
	if s.Fusion.HitHold != 250*time.Millisecond || s.Fusion.PeakHold != dsp.DefaultPeakHold {
		t.Errorf("fusion = %+v", s.Fusion)
	}
	if s.AGC.Enabled || s.AGC.MaxGain != 2 || s.AGC.MinGain != dsp.DefaultAGCConfig().MinGain {
		t.Errorf("agc = %+v", s.AGC)
	}
	if s.Curve != dsp.CurveSCurve {
		t.Errorf("curve = %s", s.Curve)
	}
	if m := s.Shapes[dsp.Melody]; m.Boost != 2 || m.Expansion != 1.4 {
		t.Errorf("melody shape = %+v", m)
	}
	if s.StandbyThreshold != -60 || s.StandbyDuration != DefaultStandbyDuration {
		t.Errorf("standby = %v %v", s.StandbyThreshold, s.StandbyDuration)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad json", `{"web":`},
		{"bad mode", `{"detection": {"mode": "everything"}}`},
		{"bad sensitivity", `{"detection": {"sensitivity": "extreme"}}`},
		{"bad curve", `{"bands": {"curve": "cubic"}}`},
		{"bad ratio", `{"compressor": {"ratio": 0.5}}`},
		{"gain bounds", `{"agc": {"min_gain": 3, "max_gain": 2}}`},
		{"bad standby", `{"standby": {"threshold_db": 10}}`},
		{"bad port", `{"web": {"port": 70000}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}
			if err := New(path).Load(); err == nil {
				t.Error("Load() error = nil")
			}
		})
	}
}

func TestSettersPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := New(path)
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"mode", func() error { return c.SetDetectionMode("Drums") }},
		{"sensitivity", func() error { return c.SetSensitivity("ultra") }},
		{"peaks sensitivity", func() error { return c.SetPeaksSensitivity("low") }},
		{"curve", func() error { return c.SetCurve("logarithmic") }},
		{"input", func() error { return c.SetAudioInput("alsa_output.monitor") }},
		{"threshold", func() error { return c.SetStandbyThreshold(-45) }},
		{"duration", func() error { return c.SetStandbyDuration(30) }},
		{"recovery", func() error { return c.SetStandbyRecovery(2) }},
		{"webhook", func() error { return c.SetWebhookURL("https://example.com/hook") }},
		{"email", func() error { return c.SetEmailConfig(EmailConfig{Host: "smtp.example.com", Recipients: "a@example.com"}) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
	}

	reloaded := New(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	s := reloaded.Snapshot()
	if s.Mode != types.ModeDrums || s.Sensitivity != "ultra" || s.PeaksSensitivity != "low" {
		t.Errorf("detection = %s %s %s", s.Mode, s.Sensitivity, s.PeaksSensitivity)
	}
	if s.Curve != dsp.CurveLogarithmic || s.AudioInput != "alsa_output.monitor" {
		t.Errorf("curve %s input %q", s.Curve, s.AudioInput)
	}
	if s.StandbyThreshold != -45 || s.StandbyDuration != 30 || s.StandbyRecovery != 2 {
		t.Errorf("standby = %v %v %v", s.StandbyThreshold, s.StandbyDuration, s.StandbyRecovery)
	}
	if !s.HasWebhook() || !s.HasEmail() || s.HasLogPath() {
		t.Errorf("notifications webhook=%v email=%v log=%v", s.HasWebhook(), s.HasEmail(), s.HasLogPath())
	}
	if s.EmailSMTPPort != DefaultEmailSMTPPort {
		t.Errorf("email port = %d", s.EmailSMTPPort)
	}
}

func TestSettersReject(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "config.json"))
	tests := []struct {
		name string
		err  error
	}{
		{"mode", c.SetDetectionMode("loud")},
		{"sensitivity", c.SetSensitivity("max")},
		{"peaks sensitivity", c.SetPeaksSensitivity("")},
		{"curve", c.SetCurve("square")},
		{"threshold", c.SetStandbyThreshold(3)},
		{"duration", c.SetStandbyDuration(0)},
		{"recovery", c.SetStandbyRecovery(-1)},
		{"email port", c.SetEmailConfig(EmailConfig{Port: 99999})},
	}
	for _, tt := range tests {
		if tt.err == nil {
			t.Errorf("%s: invalid value accepted", tt.name)
		}
	}
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := New(path)
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	changed, err := c.Reload()
	if err != nil || changed {
		t.Fatalf("Reload() of unchanged file = %v, %v, want false, nil", changed, err)
	}

	if err := os.WriteFile(path, []byte(`{"detection": {"mode": "drums"}, "standby": {"threshold_db": -45}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	changed, err = c.Reload()
	if err != nil || !changed {
		t.Fatalf("Reload() of edited file = %v, %v, want true, nil", changed, err)
	}
	if s := c.Snapshot(); s.Mode != types.ModeDrums || s.StandbyThreshold != -45 {
		t.Errorf("reloaded snapshot mode %s threshold %v", s.Mode, s.StandbyThreshold)
	}

	if err := os.WriteFile(path, []byte(`{"detection": {"mode": "chaos"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Reload(); err == nil {
		t.Error("Reload() of invalid file error = nil")
	}
	if s := c.Snapshot(); s.Mode != types.ModeDrums {
		t.Errorf("invalid reload changed mode to %s", s.Mode)
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := New(path)
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before editing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"bands": {"curve": "exponential"}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("onChange not called after edit")
	}
	if s := c.Snapshot(); s.Curve != dsp.CurveExponential {
		t.Errorf("curve = %s, want exponential", s.Curve)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestYAMLConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `web:
  port: 9090
detection:
  mode: drums
bands:
  curve: scurve
standby:
  threshold_db: -55
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	c := New(path)
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s := c.Snapshot()
	if s.WebPort != 9090 || s.Mode != types.ModeDrums || s.Curve != dsp.CurveSCurve || s.StandbyThreshold != -55 {
		t.Errorf("snapshot = port %d mode %s curve %s threshold %v", s.WebPort, s.Mode, s.Curve, s.StandbyThreshold)
	}

	if err := c.SetCurve("linear"); err != nil {
		t.Fatalf("SetCurve() error = %v", err)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(string(written), "{") || !strings.Contains(string(written), "curve: linear") {
		t.Errorf("saved file is not block YAML:\n%s", written)
	}

	if changed, err := c.Reload(); err != nil || changed {
		t.Errorf("Reload() after save = %v, %v, want false, nil", changed, err)
	}
}
