// Package engine runs loopback capture and the per-frame analysis pipeline,
// and publishes the latest analysis snapshot to readers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-ledsync/internal/audio"
	"github.com/oszuidwest/zwfm-ledsync/internal/config"
	"github.com/oszuidwest/zwfm-ledsync/internal/dsp"
	"github.com/oszuidwest/zwfm-ledsync/internal/notify"
	"github.com/oszuidwest/zwfm-ledsync/internal/types"
	"github.com/oszuidwest/zwfm-ledsync/internal/util"
)

var (
	// ErrAlreadyRunning is returned by Start while the engine runs.
	ErrAlreadyRunning = errors.New("engine already running")
	// ErrStartTimeout is returned when the capture process does not come up
	// within the start grace period.
	ErrStartTimeout = errors.New("capture did not start in time")
	// ErrSourceUnavailable is returned when no capture source can be used.
	ErrSourceUnavailable = errors.New("audio source unavailable")

	errAnalysisPanic = errors.New("analysis panicked")
)

// readRetryDelay is the pause after a failed frame read.
const readRetryDelay = 10 * time.Millisecond

// BeatThreshold is the beat intensity above which IsBeat reports true.
const BeatThreshold = 0.3

// Engine manages the capture process and the analysis pipeline.
type Engine struct {
	config   *config.Config
	notifier *notify.StandbyNotifier

	// Capture backend, replaceable in tests.
	probe   func(device string) error
	command func(device string) (string, []string, error)
	now     func() time.Time

	mu             sync.RWMutex
	state          types.EngineState
	stopChan       chan struct{}
	done           chan struct{}
	sourceCmd      *exec.Cmd
	sourceCancel   context.CancelFunc
	activity       *audio.AppActivity
	activityCancel context.CancelFunc
	commandName    string
	lastError      string
	startTime      time.Time
	retryCount     int
	snapshot       types.Snapshot
	fusion         dsp.FusionConfig
	frameRate      float64
	kicks          uint64
	snares         uint64
	peaks          uint64
	clips          uint64
}

// New creates an Engine with the given configuration.
func New(cfg *config.Config) *Engine {
	return &Engine{
		config:   cfg,
		notifier: notify.NewStandbyNotifier(cfg),
		probe:    audio.Probe,
		command:  audio.BuildCaptureCommand,
		now:      time.Now,
		state:    types.StateStopped,
		snapshot: idleSnapshot(),
		fusion:   dsp.DefaultFusionConfig(),
	}
}

// NewAnalyzerConfig resolves the analyzer configuration of a config snapshot.
func NewAnalyzerConfig(s *config.Snapshot) AnalyzerConfig {
	return AnalyzerConfig{
		SampleRate:      types.SampleRate,
		HopSize:         types.HopSize,
		WindowSize:      types.WindowSize,
		Mode:            s.Mode,
		Drums:           s.Drums,
		Peaks:           s.Peaks,
		PeakMinInterval: s.PeakMinInterval,
		AGC:             s.AGC,
		Compressor:      s.Compressor,
		Smoothing:       s.Smoothing,
		Floor:           s.Floor,
		Curve:           s.Curve,
		Shapes:          s.Shapes,
		Fusion:          s.Fusion,
	}
}

// Start probes the capture backend, builds the pipeline from the current
// configuration and launches the capture loop. It returns once the capture
// process runs or the start grace period has passed.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.state == types.StateRunning || e.state == types.StateStarting {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.state = types.StateStarting
	e.lastError = ""
	e.retryCount = 0
	e.mu.Unlock()

	snap := e.config.Snapshot()

	if err := e.probe(snap.AudioInput); err != nil {
		e.fail(err.Error())
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	analyzer, err := NewAnalyzer(NewAnalyzerConfig(&snap))
	if err != nil {
		e.fail(err.Error())
		return util.WrapError("build analyzer", err)
	}

	var activity *audio.AppActivity
	activityCtx, activityCancel := context.WithCancel(context.Background())
	if snap.AppGate && snap.App != "" {
		activity = audio.NewAppActivity(snap.App)
		go activity.Run(activityCtx, audio.ActivityPollInterval)
	}

	e.mu.Lock()
	e.stopChan = make(chan struct{})
	e.done = make(chan struct{})
	e.activity = activity
	e.activityCancel = activityCancel
	e.snapshot = idleSnapshot()
	e.fusion = snap.Fusion
	e.kicks, e.snares, e.peaks, e.clips = 0, 0, 0, 0
	e.frameRate = 0
	stopChan, done := e.stopChan, e.done
	e.mu.Unlock()

	p := &pipeline{
		analyzer:   analyzer,
		standby:    audio.NewStandbyDetector(),
		peakHolder: audio.NewPeakHolder(),
		activity:   activity,
		standbyCfg: audio.StandbyConfig{
			ThresholdDB: snap.StandbyThreshold,
			Duration:    snap.StandbyDuration,
			Recovery:    snap.StandbyRecovery,
		},
	}
	go e.runSourceLoop(snap.AudioInput, p, stopChan, done)

	if waitFor(func() bool { return e.EngineState() == types.StateRunning }, types.StartGrace) {
		slog.Info("engine started", "mode", snap.Mode, "sensitivity", snap.Sensitivity)
		return nil
	}

	e.mu.RLock()
	lastErr := e.lastError
	e.mu.RUnlock()
	if err := e.Stop(); err != nil {
		slog.Warn("failed to stop engine after start timeout", "error", err)
	}
	if lastErr != "" {
		return fmt.Errorf("%w: %s", ErrStartTimeout, lastErr)
	}
	return ErrStartTimeout
}

// fail returns the engine to stopped after a failed start.
func (e *Engine) fail(msg string) {
	e.mu.Lock()
	e.state = types.StateStopped
	e.lastError = msg
	e.mu.Unlock()
}

// Stop stops capture with a graceful shutdown. It is safe to call at any
// time and more than once.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state == types.StateStopped || e.state == types.StateStopping {
		e.mu.Unlock()
		return nil
	}

	e.state = types.StateStopping
	if e.stopChan != nil {
		close(e.stopChan)
		e.stopChan = nil
	}

	// Get references while holding lock
	sourceCmd := e.sourceCmd
	sourceCancel := e.sourceCancel
	activityCancel := e.activityCancel
	done := e.done
	e.mu.Unlock()

	if activityCancel != nil {
		activityCancel()
	}

	if sourceCmd != nil && sourceCmd.Process != nil {
		if err := util.InterruptProcess(sourceCmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			slog.Warn("failed to signal capture process", "error", err)
		}
	}

	if done != nil {
		select {
		case <-done:
			slog.Info("capture stopped gracefully")
		case <-time.After(types.ShutdownTimeout):
			slog.Warn("capture did not stop in time, forcing kill")
			if sourceCancel != nil {
				sourceCancel()
			}
			select {
			case <-done:
			case <-time.After(types.ShutdownTimeout):
				slog.Error("capture loop did not exit after kill")
			}
		}
	}

	e.mu.Lock()
	e.state = types.StateStopped
	e.sourceCmd = nil
	e.sourceCancel = nil
	e.activity = nil
	e.activityCancel = nil
	e.snapshot = idleSnapshot()
	e.frameRate = 0
	e.mu.Unlock()

	return nil
}

// Restart stops and starts the engine, picking up configuration changes.
func (e *Engine) Restart() error {
	if err := e.Stop(); err != nil {
		return err
	}
	e.notifier.Reset()
	return e.Start()
}

// runSourceLoop runs the capture process with auto-restart.
func (e *Engine) runSourceLoop(device string, p *pipeline, stopChan <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	retry := newRetryPolicy()
	for {
		if e.stopping() {
			return
		}

		startTime := time.Now()
		stderrOutput, err := e.runSource(device, p, stopChan)
		runDuration := time.Since(startTime)

		if errors.Is(err, errAnalysisPanic) {
			e.mu.Lock()
			if e.state != types.StateStopping {
				e.state = types.StateStopped
			}
			e.lastError = err.Error()
			e.snapshot = idleSnapshot()
			cancel := e.releaseActivity()
			e.mu.Unlock()
			cancel()
			return
		}

		e.mu.Lock()
		if e.state == types.StateStopping || e.state == types.StateStopped {
			e.mu.Unlock()
			return
		}

		errMsg := "capture process exited"
		if err != nil {
			errMsg = err.Error()
		}
		if stderrOutput != "" {
			errMsg = stderrOutput
		}
		e.lastError = errMsg
		slog.Error("capture error", "error", errMsg, "ran", runDuration.Round(time.Millisecond))

		delay, retrying := retry.failed(runDuration)
		e.retryCount = retry.failures

		if !retrying {
			slog.Error("capture failed repeatedly, giving up", "attempts", types.MaxRetries)
			e.state = types.StateStopped
			e.lastError = fmt.Sprintf("stopped after %d failed attempts: %s", types.MaxRetries, errMsg)
			e.snapshot = idleSnapshot()
			msg := e.lastError
			cancel := e.releaseActivity()
			e.mu.Unlock()
			cancel()
			e.notifier.NotifyCaptureFailure(msg)
			return
		}

		e.state = types.StateStarting
		e.snapshot = idleSnapshot()
		e.frameRate = 0
		attempt := e.retryCount + 1
		e.mu.Unlock()

		slog.Warn("capture stopped, restarting", "delay", delay, "attempt", attempt, "max_attempts", types.MaxRetries)
		select {
		case <-stopChan:
			return
		case <-time.After(delay):
		}
	}
}

// releaseActivity detaches the application activity poller and returns its
// cancel function. The caller holds e.mu.
func (e *Engine) releaseActivity() context.CancelFunc {
	cancel := e.activityCancel
	e.activity = nil
	e.activityCancel = nil
	if cancel == nil {
		return func() {}
	}
	return cancel
}

func (e *Engine) stopping() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == types.StateStopping || e.state == types.StateStopped
}

// runSource executes one capture process and analyzes its output until it
// exits or the engine stops.
func (e *Engine) runSource(device string, p *pipeline, stopChan <-chan struct{}) (string, error) {
	cmdName, args, err := e.command(device)
	if err != nil {
		return "", err
	}

	slog.Info("starting audio capture", "command", cmdName, "args", strings.Join(args, " "))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd := exec.CommandContext(ctx, cmdName, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", util.WrapError("create stdout pipe", err)
	}
	stderr := util.NewStderrBuffer()
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return "", util.WrapError("start capture process", err)
	}

	e.mu.Lock()
	e.sourceCmd = cmd
	e.sourceCancel = cancel
	e.commandName = cmdName
	if e.state == types.StateStarting {
		e.state = types.StateRunning
	}
	e.startTime = time.Now()
	e.lastError = ""
	e.mu.Unlock()

	readErr := e.readFrames(stdout, p, stopChan)
	if readErr != nil {
		cancel()
	}
	waitErr := cmd.Wait()

	e.mu.Lock()
	e.sourceCmd = nil
	e.sourceCancel = nil
	e.mu.Unlock()

	if readErr != nil {
		return "", readErr
	}
	return extractLastError(stderr.String()), waitErr
}

// readFrames reads hop-sized frames from r and publishes one snapshot per
// frame. It returns nil at end of stream or when the engine stops.
func (e *Engine) readFrames(r io.Reader, p *pipeline, stopChan <-chan struct{}) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("analysis panic", "panic", rec, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", errAnalysisPanic, rec)
		}
	}()

	buf := make([]byte, types.HopSize*audio.BytesPerFrame)
	frame := make([]float64, types.HopSize)
	meter := newRateMeter(time.Now())

	for {
		select {
		case <-stopChan:
			return nil
		default:
		}

		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			slog.Debug("short audio read", "error", err)
			time.Sleep(readRetryDelay)
			continue
		}

		now := time.Now()
		snap, clipped := p.process(buf, frame, now)
		kicks, snares, peaks := p.analyzer.Counts()
		rate, updated := meter.tick(now)

		e.mu.Lock()
		e.snapshot = snap
		e.kicks, e.snares, e.peaks = kicks, snares, peaks
		e.clips += uint64(clipped)
		if updated {
			e.frameRate = rate
		}
		e.mu.Unlock()

		p.handleStandby(e.notifier)
	}
}

// pipeline is the per-session state owned by the capture goroutine.
type pipeline struct {
	analyzer   *Analyzer
	standby    *audio.StandbyDetector
	peakHolder *audio.PeakHolder
	activity   *audio.AppActivity
	standbyCfg audio.StandbyConfig
	event      audio.StandbyEvent
}

// process decodes and analyzes one frame.
func (p *pipeline) process(buf []byte, frame []float64, now time.Time) (types.Snapshot, int) {
	_, clipped := audio.DecodeFrame(buf, frame)
	levels := audio.FrameLevels(frame)

	var snap types.Snapshot
	if p.activity != nil && p.activity.Silent() {
		snap = p.analyzer.Mute(now)
	} else {
		snap = p.analyzer.Process(frame, now)
	}

	p.event = p.standby.Update(levels.RMSDB, p.standbyCfg, now)
	snap.RMSDB = levels.RMSDB
	snap.PeakDB = p.peakHolder.Update(levels.PeakDB, now)
	snap.Standby = p.event.InStandby
	if p.event.InStandby {
		snap.StandbyDuration = p.event.Duration
	}
	return snap, clipped
}

func (p *pipeline) handleStandby(n *notify.StandbyNotifier) {
	if p.event.JustEntered {
		slog.Warn("playback stopped, entering standby", "quiet_seconds", p.event.Duration)
	}
	if p.event.JustExited {
		slog.Info("playback resumed", "standby_seconds", p.event.TotalDuration)
	}
	if p.event.JustEntered || p.event.JustExited {
		n.HandleEvent(p.event)
	}
}

// rateMeter measures processed frames per second over one-second windows.
type rateMeter struct {
	start  time.Time
	frames int
}

func newRateMeter(now time.Time) *rateMeter {
	return &rateMeter{start: now}
}

func (m *rateMeter) tick(now time.Time) (float64, bool) {
	m.frames++
	elapsed := now.Sub(m.start)
	if elapsed < time.Second {
		return 0, false
	}
	rate := float64(m.frames) / elapsed.Seconds()
	m.start = now
	m.frames = 0
	return rate, true
}

// waitFor polls condition until it holds or timeout passes.
func waitFor(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if condition() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(types.PollInterval)
	}
}

func idleSnapshot() types.Snapshot {
	return types.Snapshot{
		State:   types.OnsetIdle,
		AGCGain: 1,
		RMSDB:   audio.MinDB,
		PeakDB:  audio.MinDB,
	}
}

// extractLastError returns the last meaningful line of capture stderr.
func extractLastError(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" {
			if len(line) > 200 {
				return line[:200] + "..."
			}
			return line
		}
	}
	return ""
}
