package engine

import (
	"time"

	"github.com/oszuidwest/zwfm-ledsync/internal/dsp"
	"github.com/oszuidwest/zwfm-ledsync/internal/notify"
	"github.com/oszuidwest/zwfm-ledsync/internal/types"
	"github.com/oszuidwest/zwfm-ledsync/internal/util"
)

// Snapshot returns the latest analysis snapshot. The onset state reads as
// idle once its hold has passed, also when no new frame has arrived.
func (e *Engine) Snapshot() types.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return releaseOnset(e.snapshot, e.fusion, e.now())
}

// releaseOnset clears the onset of s when its hold expired before now.
func releaseOnset(s types.Snapshot, cfg dsp.FusionConfig, now time.Time) types.Snapshot {
	hold := cfg.HitHold
	if s.State == types.OnsetPeak {
		hold = cfg.PeakHold
	}
	if dsp.StateAt(s.State, s.LastHit, hold, now) == types.OnsetIdle {
		s.State = types.OnsetIdle
		s.Intensity = 0
	}
	return s
}

// State returns the current onset state.
func (e *Engine) State() types.OnsetState { return e.Snapshot().State }

// Intensity returns the intensity of the current onset state.
func (e *Engine) Intensity() float64 { return e.Snapshot().Intensity }

// Volume returns the smoothed absolute volume.
func (e *Engine) Volume() float64 { return e.Snapshot().Volume }

// VolumeNormalized returns the volume relative to the recent maximum.
func (e *Engine) VolumeNormalized() float64 { return e.Snapshot().VolumeNormalized }

// Energy returns the smoothed frame energy.
func (e *Engine) Energy() float64 { return e.Snapshot().Energy }

// SpectralFlux returns the smoothed spectral flux.
func (e *Engine) SpectralFlux() float64 { return e.Snapshot().SpectralFlux }

// BeatIntensity returns the decaying kick/snare intensity.
func (e *Engine) BeatIntensity() float64 { return e.Snapshot().BeatIntensity }

// Bass returns the bass band value.
func (e *Engine) Bass() float64 { return e.Snapshot().Bass }

// Melody returns the melody band value.
func (e *Engine) Melody() float64 { return e.Snapshot().Melody }

// Percussion returns the percussion band value.
func (e *Engine) Percussion() float64 { return e.Snapshot().Percussion }

// Mid is an alias for Melody.
func (e *Engine) Mid() float64 { return e.Melody() }

// High is an alias for Percussion.
func (e *Engine) High() float64 { return e.Percussion() }

// IsBeat reports whether the beat intensity is above BeatThreshold.
func (e *Engine) IsBeat() bool { return e.BeatIntensity() > BeatThreshold }

// AGCGain returns the current automatic gain.
func (e *Engine) AGCGain() float64 { return e.Snapshot().AGCGain }

// IsRunning reports whether frames are being analyzed.
func (e *Engine) IsRunning() bool { return e.EngineState() == types.StateRunning }

// EngineState returns the lifecycle state.
func (e *Engine) EngineState() types.EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Status returns the current engine status.
func (e *Engine) Status() types.EngineStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var uptime string
	if e.state == types.StateRunning {
		uptime = util.FormatUptime(time.Since(e.startTime))
	}

	status := types.EngineStatus{
		State:            e.state,
		Uptime:           uptime,
		LastError:        e.lastError,
		Command:          e.commandName,
		FrameRate:        e.frameRate,
		KickCount:        e.kicks,
		SnareCount:       e.snares,
		PeakCount:        e.peaks,
		ClipCount:        e.clips,
		SourceRetryCount: e.retryCount,
		SourceMaxRetries: types.MaxRetries,
	}
	if e.activity != nil {
		if active, known := e.activity.State(); known {
			status.AppActive = &active
		}
	}
	return status
}

// TriggerTestWebhook sends a test webhook.
func (e *Engine) TriggerTestWebhook() error {
	return notify.SendTestWebhook(e.config.Snapshot().WebhookURL)
}

// TriggerTestEmail sends a test email to verify configuration.
func (e *Engine) TriggerTestEmail() error {
	cfg := e.config.Snapshot()
	return notify.SendTestEmail(notify.EmailConfigFromSnapshot(&cfg))
}

// TriggerTestLog writes a test entry to the event log.
func (e *Engine) TriggerTestLog() error {
	return notify.WriteTestLog(e.config.Snapshot().LogPath)
}

// RecentEvents returns up to limit event log entries, newest first.
func (e *Engine) RecentEvents(limit int) ([]types.EventLogEntry, error) {
	return notify.ReadLog(e.config.Snapshot().LogPath, limit)
}
