package engine

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/oszuidwest/zwfm-ledsync/internal/audio"
	"github.com/oszuidwest/zwfm-ledsync/internal/config"
	"github.com/oszuidwest/zwfm-ledsync/internal/types"
)

const (
	helperEnv       = "LEDSYNC_TEST_CAPTURE"
	helperFramesEnv = "LEDSYNC_TEST_CAPTURE_FRAMES"
)

// TestHelperCapture is not a real test. It stands in for the capture
// process and writes a 440 Hz S16LE stereo tone to stdout until killed, or
// exits after LEDSYNC_TEST_CAPTURE_FRAMES frames when that is set.
func TestHelperCapture(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}

	limit, _ := strconv.Atoi(os.Getenv(helperFramesEnv))
	buf := make([]byte, types.HopSize*audio.BytesPerFrame)
	var n int
	for frames := 0; ; frames++ {
		if limit > 0 && frames == limit {
			os.Exit(0)
		}
		for i := range types.HopSize {
			v := int16(8000 * math.Sin(2*math.Pi*440*float64(n)/types.SampleRate))
			binary.LittleEndian.PutUint16(buf[i*4:], uint16(v))
			binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(v))
			n++
		}
		if _, err := os.Stdout.Write(buf); err != nil {
			os.Exit(0)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	cfg.Audio.DisableAppGate = true
	e := New(cfg)
	e.probe = func(string) error { return nil }
	e.command = func(string) (string, []string, error) {
		return os.Args[0], []string{"-test.run=^TestHelperCapture$"}, nil
	}
	return e
}

func TestEngineStartStop(t *testing.T) {
	t.Setenv(helperEnv, "1")
	e := newTestEngine(t)

	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })

	if !e.IsRunning() {
		t.Fatalf("IsRunning() = false after Start")
	}
	if err := e.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	if !waitFor(func() bool { return e.Snapshot().Frames > 20 }, 5*time.Second) {
		t.Fatalf("no frames analyzed, status %+v", e.Status())
	}
	if e.Volume() <= 0 || e.Energy() <= 0 {
		t.Errorf("Volume() = %v, Energy() = %v, want > 0", e.Volume(), e.Energy())
	}
	if e.Mid() != e.Melody() || e.High() != e.Percussion() {
		t.Error("band aliases disagree")
	}

	status := e.Status()
	if status.State != types.StateRunning || status.Command != os.Args[0] {
		t.Errorf("Status() = %+v", status)
	}

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	if e.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if s := e.Snapshot(); s.State != types.OnsetIdle || s.Volume != 0 || s.Frames != 0 {
		t.Errorf("Snapshot() after Stop = %+v, want idle", s)
	}
}

func TestEngineStartSourceUnavailable(t *testing.T) {
	e := newTestEngine(t)
	e.probe = func(string) error { return audio.ErrNoLoopbackDevice }

	err := e.Start()
	if !errors.Is(err, ErrSourceUnavailable) || !errors.Is(err, audio.ErrNoLoopbackDevice) {
		t.Fatalf("Start() error = %v, want ErrSourceUnavailable wrapping ErrNoLoopbackDevice", err)
	}
	if e.IsRunning() {
		t.Error("IsRunning() = true after failed Start")
	}
	if e.Status().LastError == "" {
		t.Error("Status().LastError is empty after failed Start")
	}
}

func TestEngineStartTimeout(t *testing.T) {
	e := newTestEngine(t)
	e.command = func(string) (string, []string, error) {
		return filepath.Join(t.TempDir(), "no-such-capture"), nil, nil
	}

	err := e.Start()
	if !errors.Is(err, ErrStartTimeout) {
		t.Fatalf("Start() error = %v, want ErrStartTimeout", err)
	}
	if state := e.EngineState(); state != types.StateStopped {
		t.Errorf("EngineState() = %s, want stopped", state)
	}
}

func TestStopWhenStopped(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Stop(); err != nil {
		t.Errorf("Stop() on a stopped engine error = %v", err)
	}
	if s := e.Snapshot(); s.State != types.OnsetIdle || s.AGCGain != 1 {
		t.Errorf("initial Snapshot() = %+v", s)
	}
}

func TestSnapshotReleasesExpiredOnset(t *testing.T) {
	e := newTestEngine(t)
	now := time.Unix(1_700_000_000, 0)
	e.now = func() time.Time { return now }

	tests := []struct {
		name  string
		state types.OnsetState
		age   time.Duration
		want  types.OnsetState
	}{
		{"kick within hold", types.OnsetKick, 100 * time.Millisecond, types.OnsetKick},
		{"kick after hold", types.OnsetKick, 2 * time.Second, types.OnsetIdle},
		{"snare within hit hold", types.OnsetSnare, 150 * time.Millisecond, types.OnsetSnare},
		{"peak after peak hold", types.OnsetPeak, 150 * time.Millisecond, types.OnsetIdle},
		{"idle", types.OnsetIdle, 0, types.OnsetIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.mu.Lock()
			e.snapshot = types.Snapshot{State: tt.state, Intensity: 0.7, Volume: 0.5, LastHit: now.Add(-tt.age)}
			e.mu.Unlock()

			if got := e.State(); got != tt.want {
				t.Errorf("State() = %s, want %s", got, tt.want)
			}
			wantIntensity := 0.7
			if tt.want == types.OnsetIdle {
				wantIntensity = 0
			}
			if got := e.Intensity(); got != wantIntensity {
				t.Errorf("Intensity() = %v, want %v", got, wantIntensity)
			}
			if got := e.Volume(); got != 0.5 {
				t.Errorf("Volume() = %v, want 0.5", got)
			}
		})
	}
}

func TestSnapshotIdleDuringRestartDelay(t *testing.T) {
	t.Setenv(helperEnv, "1")
	t.Setenv(helperFramesEnv, "40")
	e := newTestEngine(t)

	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })

	waiting := func() bool {
		return e.EngineState() == types.StateStarting && e.Status().SourceRetryCount == 1
	}
	if !waitFor(waiting, 5*time.Second) {
		t.Fatalf("capture exit did not schedule a restart, status %+v", e.Status())
	}

	s := e.Snapshot()
	if s.State != types.OnsetIdle || s.Volume != 0 || s.Energy != 0 || s.Bass != 0 || s.Melody != 0 || s.Percussion != 0 {
		t.Errorf("Snapshot() while waiting to restart = %+v, want idle", s)
	}
	if rate := e.Status().FrameRate; rate != 0 {
		t.Errorf("FrameRate = %v while waiting to restart, want 0", rate)
	}
}

func TestAnalysisPanicReleasesActivity(t *testing.T) {
	t.Setenv(helperEnv, "1")
	e := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopChan, done := make(chan struct{}), make(chan struct{})

	e.mu.Lock()
	e.state = types.StateStarting
	e.stopChan, e.done = stopChan, done
	e.activity = audio.NewAppActivity("player")
	e.activityCancel = cancel
	e.mu.Unlock()

	// A pipeline without analyzer panics on the first frame.
	p := &pipeline{
		standby:    audio.NewStandbyDetector(),
		peakHolder: audio.NewPeakHolder(),
	}
	go e.runSourceLoop("", p, stopChan, done)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("capture loop did not exit after the panic")
	}

	if ctx.Err() == nil {
		t.Error("activity poller still running after the panic")
	}
	e.mu.RLock()
	activity, activityCancel := e.activity, e.activityCancel
	e.mu.RUnlock()
	if activity != nil || activityCancel != nil {
		t.Error("activity poller still attached to the engine")
	}
	if state := e.EngineState(); state != types.StateStopped {
		t.Errorf("EngineState() = %s, want stopped", state)
	}
	if msg := e.Status().LastError; !strings.Contains(msg, errAnalysisPanic.Error()) {
		t.Errorf("LastError = %q, want the panic", msg)
	}
}

func TestNewAnalyzerConfigDefaults(t *testing.T) {
	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	snap := cfg.Snapshot()

	got := NewAnalyzerConfig(&snap)
	want := DefaultAnalyzerConfig()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NewAnalyzerConfig() = %+v\nwant %+v", got, want)
	}
}

func TestExtractLastError(t *testing.T) {
	long := strings.Repeat("x", 250)
	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{"empty", "", ""},
		{"single line", "Connection failure: Connection refused\n", "Connection failure: Connection refused"},
		{"last nonempty line", "warning: underrun\nStream error: No such entity\n\n  \n", "Stream error: No such entity"},
		{"truncated", long, strings.Repeat("x", 200) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractLastError(tt.stderr); got != tt.want {
				t.Errorf("extractLastError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateMeter(t *testing.T) {
	start := time.Unix(0, 0)
	m := newRateMeter(start)
	step := 10 * time.Millisecond

	var rate float64
	var updated bool
	for i := 1; i <= 100; i++ {
		rate, updated = m.tick(start.Add(time.Duration(i) * step))
	}
	if !updated || math.Abs(rate-100) > 1e-9 {
		t.Errorf("tick() = %v, %v, want 100, true", rate, updated)
	}
	if _, updated := m.tick(start.Add(101 * step)); updated {
		t.Error("tick() updated again within the same window")
	}
}

func TestRetryPolicy(t *testing.T) {
	p := newRetryPolicy()
	short := time.Second

	want := []time.Duration{3 * time.Second, 6 * time.Second, 12 * time.Second, 24 * time.Second, 48 * time.Second, 60 * time.Second}
	for i, w := range want {
		got, ok := p.failed(short)
		if !ok || got != w {
			t.Fatalf("failed() #%d = %v, %v, want %v, true", i, got, ok, w)
		}
	}

	if got, ok := p.failed(types.SuccessThreshold); !ok || got != types.InitialRetryDelay || p.failures != 0 {
		t.Errorf("after a stable run: delay %v ok %v failures %d", got, ok, p.failures)
	}

	for i := 1; i < types.MaxRetries; i++ {
		if _, ok := p.failed(short); !ok {
			t.Fatalf("gave up after %d failures", i)
		}
	}
	if _, ok := p.failed(short); ok {
		t.Errorf("still retrying after %d failures", types.MaxRetries)
	}
}
