// Package types provides shared type definitions used across the analyzer.
package types

import "time"

// EngineState represents the lifecycle state of the analysis engine.
type EngineState string

const (
	// StateStopped indicates the engine is not capturing audio.
	StateStopped EngineState = "stopped"
	// StateStarting indicates the capture process is being launched.
	StateStarting EngineState = "starting"
	// StateRunning indicates frames are being analyzed.
	StateRunning EngineState = "running"
	// StateStopping indicates the engine is shutting down.
	StateStopping EngineState = "stopping"
)

// OnsetState is the published onset classification.
type OnsetState string

const (
	OnsetIdle  OnsetState = "idle"
	OnsetKick  OnsetState = "kick"
	OnsetSnare OnsetState = "snare"
	OnsetPeak  OnsetState = "peak"
)

// DetectionMode selects which onset detectors run per frame.
type DetectionMode string

const (
	ModePeaks DetectionMode = "peaks"
	ModeDrums DetectionMode = "drums"
	ModeBoth  DetectionMode = "both"
)

// Valid reports whether m is a known detection mode.
func (m DetectionMode) Valid() bool {
	switch m {
	case ModePeaks, ModeDrums, ModeBoth:
		return true
	}
	return false
}

// Peaks reports whether the generic peak detector runs in this mode.
func (m DetectionMode) Peaks() bool { return m == ModePeaks || m == ModeBoth }

// Drums reports whether the kick and snare detectors run in this mode.
func (m DetectionMode) Drums() bool { return m == ModeDrums || m == ModeBoth }

// Retry settings.
const (
	InitialRetryDelay = 3 * time.Second
	MaxRetryDelay     = 60 * time.Second
	MaxRetries        = 10
	SuccessThreshold  = 30 * time.Second // Reset retry count after running this long
)

// Shutdown settings.
const (
	ShutdownTimeout = 3 * time.Second        // Time to wait for the capture loop before SIGKILL
	StartGrace      = 500 * time.Millisecond // Time the capture process gets to come up
	PollInterval    = 50 * time.Millisecond  // Interval for polling process state
)

// Capture format shared by every platform backend.
const (
	SampleRate = 48000
	Channels   = 2
	HopSize    = 512  // Samples per analysis frame
	WindowSize = 1024 // Onset analysis window
)

// AudioDevice represents a loopback-capable audio source.
type AudioDevice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Loopback bool   `json:"loopback"`
}

// Snapshot is the externally observable analysis state. It is replaced
// wholesale once per processed frame.
type Snapshot struct {
	State            OnsetState `json:"state"`
	Intensity        float64    `json:"intensity"`
	Volume           float64    `json:"volume"`
	VolumeNormalized float64    `json:"volume_normalized"`
	Energy           float64    `json:"energy"`
	SpectralFlux     float64    `json:"spectral_flux"`
	BeatIntensity    float64    `json:"beat_intensity"`
	Percussion       float64    `json:"percussion"`
	Bass             float64    `json:"bass"`
	Melody           float64    `json:"melody"`
	AGCGain          float64    `json:"agc_gain"`
	RMSDB            float64    `json:"rms_db"`
	PeakDB           float64    `json:"peak_db"`
	Standby          bool       `json:"standby,omitzero"`
	StandbyDuration  float64    `json:"standby_duration,omitzero"`
	Frames           uint64     `json:"frames"`
	LastHit          time.Time  `json:"-"`
}

// EngineStatus contains a summary of the engine's operational state.
type EngineStatus struct {
	State            EngineState `json:"state"`
	Uptime           string      `json:"uptime,omitzero"`
	LastError        string      `json:"last_error,omitzero"`
	Command          string      `json:"command,omitzero"`
	FrameRate        float64     `json:"frame_rate"`
	KickCount        uint64      `json:"kick_count"`
	SnareCount       uint64      `json:"snare_count"`
	PeakCount        uint64      `json:"peak_count"`
	ClipCount        uint64      `json:"clip_count,omitzero"`
	AppActive        *bool       `json:"app_active,omitzero"`
	SourceRetryCount int         `json:"source_retry_count,omitzero"`
	SourceMaxRetries int         `json:"source_max_retries"`
}

// EventLogEntry is one line in the JSON-lines event log.
type EventLogEntry struct {
	Timestamp   string  `json:"timestamp"`
	Event       string  `json:"event"`
	DurationSec float64 `json:"duration_sec,omitzero"`
	ThresholdDB float64 `json:"threshold_db,omitzero"`
	Message     string  `json:"message,omitzero"`
}

// WSTestResult is sent to the client after a notification test.
type WSTestResult struct {
	Type     string `json:"type"`
	TestType string `json:"test_type"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitzero"`
}

// WSEventLogResult carries recent event log entries to the client.
type WSEventLogResult struct {
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Error   string          `json:"error,omitzero"`
	Entries []EventLogEntry `json:"entries,omitzero"`
	Path    string          `json:"path,omitzero"`
}

// VersionInfo describes the running build and the latest release.
type VersionInfo struct {
	Current     string `json:"current"`
	Latest      string `json:"latest,omitzero"`
	UpdateAvail bool   `json:"update_available"`
	Commit      string `json:"commit,omitzero"`
	BuildTime   string `json:"build_time,omitzero"`
}
