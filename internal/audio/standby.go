package audio

import "time"

// StandbyConfig holds the thresholds for standby detection.
type StandbyConfig struct {
	ThresholdDB float64 // Level below which playback is considered stopped
	Duration    float64 // Seconds of quiet before entering standby
	Recovery    float64 // Seconds of audio before leaving standby
}

// StandbyDetector tracks whether playback has stopped, with hysteresis.
// It enters standby after Duration seconds of continuous quiet and leaves it
// after Recovery seconds of continuous audio.
type StandbyDetector struct {
	quietStart    time.Time
	recoveryStart time.Time
	standbyStart  time.Time
	inStandby     bool
}

// NewStandbyDetector creates a detector outside standby.
func NewStandbyDetector() *StandbyDetector {
	return &StandbyDetector{}
}

// StandbyEvent is the result of one detector update.
type StandbyEvent struct {
	InStandby     bool
	Duration      float64 // Seconds of the current quiet period
	JustEntered   bool
	JustExited    bool
	TotalDuration float64 // Length of the standby period that just ended
}

// Update feeds one level reading and returns the resulting state.
func (d *StandbyDetector) Update(levelDB float64, cfg StandbyConfig, now time.Time) StandbyEvent {
	var ev StandbyEvent

	if levelDB < cfg.ThresholdDB {
		d.recoveryStart = time.Time{}
		if d.quietStart.IsZero() {
			d.quietStart = now
		}
		quiet := now.Sub(d.quietStart).Seconds()

		switch {
		case d.inStandby:
			ev.InStandby = true
			ev.Duration = quiet
		case quiet >= cfg.Duration:
			d.inStandby = true
			d.standbyStart = d.quietStart
			ev.InStandby = true
			ev.JustEntered = true
			ev.Duration = quiet
		}
		return ev
	}

	d.quietStart = time.Time{}
	if !d.inStandby {
		return ev
	}

	if d.recoveryStart.IsZero() {
		d.recoveryStart = now
	}
	if now.Sub(d.recoveryStart).Seconds() >= cfg.Recovery {
		ev.JustExited = true
		ev.TotalDuration = now.Sub(d.standbyStart).Seconds()
		d.inStandby = false
		d.recoveryStart = time.Time{}
		d.standbyStart = time.Time{}
		return ev
	}

	ev.InStandby = true
	return ev
}

// InStandby reports whether the detector is in standby.
func (d *StandbyDetector) InStandby() bool { return d.inStandby }

// Reset clears all detector state.
func (d *StandbyDetector) Reset() {
	d.quietStart = time.Time{}
	d.recoveryStart = time.Time{}
	d.standbyStart = time.Time{}
	d.inStandby = false
}
