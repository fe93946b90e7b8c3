package dsp

import (
	"time"

	"github.com/oszuidwest/zwfm-ledsync/internal/types"
)

// Onset fusion defaults.
const (
	DefaultHitHold    = 180 * time.Millisecond
	DefaultPeakHold   = 120 * time.Millisecond
	DefaultFlashDecay = 0.85
	beatCutoff        = 0.02
	kickMinIntensity  = 0.7
	kickOverrideLimit = 0.8
)

// Detection is the per-frame onset decision before it is merged into the
// published state.
type Detection struct {
	State     types.OnsetState
	Intensity float64
}

// Decide merges the detector results of one frame. A snare always wins with
// intensity 1. A kick replaces a peak only while the peak intensity is under
// 0.8, and lifts the intensity to at least 0.7.
func Decide(peak PeakHit, drums DrumHit) Detection {
	d := Detection{State: types.OnsetIdle}
	if peak.Hit {
		d = Detection{State: types.OnsetPeak, Intensity: peak.Intensity}
	}
	switch {
	case drums.Snare:
		d = Detection{State: types.OnsetSnare, Intensity: 1.0}
	case drums.Kick && d.Intensity < kickOverrideLimit:
		d = Detection{State: types.OnsetKick, Intensity: max(d.Intensity, kickMinIntensity)}
	}
	return d
}

// FusionConfig holds hold times and the beat flash decay.
type FusionConfig struct {
	HitHold    time.Duration // Hold for kick and snare
	PeakHold   time.Duration
	FlashDecay float64
}

// DefaultFusionConfig returns the tuned defaults.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		HitHold:    DefaultHitHold,
		PeakHold:   DefaultPeakHold,
		FlashDecay: DefaultFlashDecay,
	}
}

// Fusion is the onset state machine. States are idle, kick, snare and peak;
// a state falls back to idle once its hold time has elapsed since the last
// hit.
type Fusion struct {
	cfg       FusionConfig
	state     types.OnsetState
	intensity float64
	lastHit   time.Time
	beat      float64
}

// NewFusion returns an idle state machine.
func NewFusion(cfg FusionConfig) *Fusion {
	return &Fusion{cfg: cfg, state: types.OnsetIdle}
}

// Update applies the detection of the frame processed at now.
func (f *Fusion) Update(det Detection, now time.Time) {
	switch det.State {
	case types.OnsetKick, types.OnsetSnare:
		f.beat = det.Intensity
	default:
		f.beat *= f.cfg.FlashDecay
		if f.beat < beatCutoff {
			f.beat = 0
		}
	}

	f.expire(now)

	switch det.State {
	case types.OnsetSnare:
		f.state = types.OnsetSnare
		f.intensity = 1.0
	case types.OnsetKick:
		if f.state != types.OnsetSnare {
			f.state = types.OnsetKick
			f.intensity = max(f.intensity, kickMinIntensity)
		}
	case types.OnsetPeak:
		if f.state != types.OnsetKick && f.state != types.OnsetSnare {
			f.state = types.OnsetPeak
			f.intensity = max(f.intensity, det.Intensity)
		}
	default:
		return
	}
	f.lastHit = now
}

// expire drops an elapsed state back to idle.
func (f *Fusion) expire(now time.Time) {
	if f.state == types.OnsetIdle {
		return
	}
	if now.Sub(f.lastHit) > f.Hold(f.state) {
		f.state = types.OnsetIdle
		f.intensity = 0
	}
}

// Hold returns the hold time of state.
func (f *Fusion) Hold(state types.OnsetState) time.Duration {
	if state == types.OnsetPeak {
		return f.cfg.PeakHold
	}
	return f.cfg.HitHold
}

// State returns the state as seen at now, with hold expiry applied.
func (f *Fusion) State(now time.Time) types.OnsetState {
	return StateAt(f.state, f.lastHit, f.Hold(f.state), now)
}

// Intensity returns the intensity of the last hit.
func (f *Fusion) Intensity() float64 { return f.intensity }

// Beat returns the decaying beat intensity.
func (f *Fusion) Beat() float64 { return f.beat }

// LastHit returns the time of the last accepted hit.
func (f *Fusion) LastHit() time.Time { return f.lastHit }

// RawState returns the stored state without hold expiry.
func (f *Fusion) RawState() types.OnsetState { return f.state }

// DecayBeat applies silence decay to the beat intensity.
func (f *Fusion) DecayBeat(factor float64) {
	f.beat = snapToZero(f.beat * factor)
}

// Reset returns to idle.
func (f *Fusion) Reset() {
	f.state = types.OnsetIdle
	f.intensity = 0
	f.lastHit = time.Time{}
	f.beat = 0
}

// StateAt applies hold expiry to a stored state.
func StateAt(state types.OnsetState, lastHit time.Time, hold time.Duration, now time.Time) types.OnsetState {
	if state != types.OnsetIdle && now.Sub(lastHit) > hold {
		return types.OnsetIdle
	}
	return state
}
