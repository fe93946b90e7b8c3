// Package config provides application configuration management.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-ledsync/internal/dsp"
	"github.com/oszuidwest/zwfm-ledsync/internal/types"
	"github.com/oszuidwest/zwfm-ledsync/internal/util"
)

// Configuration defaults.
const (
	DefaultWebPort          = 8080
	DefaultWebUsername      = "admin"
	DefaultWebPassword      = "ledsync"
	DefaultApp              = "spotify"
	DefaultDetectionMode    = types.ModeBoth
	DefaultSensitivity      = dsp.SensitivityMedium
	DefaultPeakMinInterval  = 0.04
	DefaultStandbyThreshold = -50.0
	DefaultStandbyDuration  = 10.0
	DefaultStandbyRecovery  = 1.0
	DefaultEmailSMTPPort    = 587
	DefaultEmailFromName    = "LED Sync"
)

// WebConfig contains web server configuration.
type WebConfig struct {
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// AudioConfig contains capture configuration.
type AudioConfig struct {
	Input          string `json:"input,omitempty"`
	App            string `json:"app,omitempty"`
	DisableAppGate bool   `json:"disable_app_gate,omitempty"`
}

// DetectionConfig contains onset detection configuration.
type DetectionConfig struct {
	Mode             string          `json:"mode,omitempty"`
	Sensitivity      string          `json:"sensitivity,omitempty"`
	PeaksSensitivity string          `json:"peaks_sensitivity,omitempty"`
	Custom           *dsp.DrumPreset `json:"custom,omitempty"`
	HitHoldSeconds   float64         `json:"hit_hold_seconds,omitempty"`
	PeakHoldSeconds  float64         `json:"peak_hold_seconds,omitempty"`
	PeakMinInterval  float64         `json:"peak_min_interval,omitempty"`
	FlashDecay       float64         `json:"flash_decay,omitempty"`
}

// AGCConfig contains automatic gain control configuration.
type AGCConfig struct {
	Disabled bool    `json:"disabled,omitempty"`
	Target   float64 `json:"target,omitempty"`
	MinGain  float64 `json:"min_gain,omitempty"`
	MaxGain  float64 `json:"max_gain,omitempty"`
	Attack   float64 `json:"attack,omitempty"`
	Release  float64 `json:"release,omitempty"`
	Window   int     `json:"window,omitempty"`
}

// CompressorConfig contains band compressor configuration.
type CompressorConfig struct {
	Disabled  bool    `json:"disabled,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Ratio     float64 `json:"ratio,omitempty"`
	Knee      float64 `json:"knee,omitempty"`
	Makeup    float64 `json:"makeup,omitempty"`
}

// SmoothingConfig contains band smoother configuration.
type SmoothingConfig struct {
	Attack             float64 `json:"attack,omitempty"`
	Decay              float64 `json:"decay,omitempty"`
	Fixed              bool    `json:"fixed,omitempty"` // Disables low-volume decay slowdown
	LowVolumeMult      float64 `json:"low_volume_mult,omitempty"`
	LowVolumeThreshold float64 `json:"low_volume_threshold,omitempty"`
}

// FloorConfig contains dynamic floor configuration.
type FloorConfig struct {
	Disabled  bool    `json:"disabled,omitempty"`
	Max       float64 `json:"max,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

// BandConfig contains the boost and expansion of one band.
type BandConfig struct {
	Boost     float64 `json:"boost,omitempty"`
	Expansion float64 `json:"expansion,omitempty"`
	Floor     float64 `json:"floor,omitempty"`
	Ceiling   float64 `json:"ceiling,omitempty"`
}

// BandsConfig contains the response curve and per-band shaping.
type BandsConfig struct {
	Curve      string     `json:"curve,omitempty"`
	Percussion BandConfig `json:"percussion,omitzero"`
	Bass       BandConfig `json:"bass,omitzero"`
	Melody     BandConfig `json:"melody,omitzero"`
}

// StandbyConfig contains standby detection configuration.
type StandbyConfig struct {
	ThresholdDB     float64 `json:"threshold_db,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	RecoverySeconds float64 `json:"recovery_seconds,omitempty"`
}

// EmailConfig contains email notification configuration.
type EmailConfig struct {
	Host       string `json:"host,omitempty"`
	Port       int    `json:"port,omitempty"`
	FromName   string `json:"from_name,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	Recipients string `json:"recipients,omitempty"`
}

// NotificationsConfig contains all notification configuration.
type NotificationsConfig struct {
	WebhookURL string      `json:"webhook_url,omitempty"`
	LogPath    string      `json:"log_path,omitempty"`
	Email      EmailConfig `json:"email,omitzero"`
}

// Config holds all application configuration. It is safe for concurrent use.
type Config struct {
	Web           WebConfig           `json:"web"`
	Audio         AudioConfig         `json:"audio"`
	Detection     DetectionConfig     `json:"detection,omitzero"`
	AGC           AGCConfig           `json:"agc,omitzero"`
	Compressor    CompressorConfig    `json:"compressor,omitzero"`
	Smoothing     SmoothingConfig     `json:"smoothing,omitzero"`
	DynamicFloor  FloorConfig         `json:"dynamic_floor,omitzero"`
	Bands         BandsConfig         `json:"bands,omitzero"`
	Standby       StandbyConfig       `json:"standby,omitzero"`
	Notifications NotificationsConfig `json:"notifications,omitzero"`

	mu       sync.RWMutex
	filePath string
}

// New creates a new Config with default values.
func New(filePath string) *Config {
	return &Config{
		Web: WebConfig{
			Port:     DefaultWebPort,
			Username: DefaultWebUsername,
			Password: DefaultWebPassword,
		},
		Detection: DetectionConfig{
			Mode:             string(DefaultDetectionMode),
			Sensitivity:      DefaultSensitivity,
			PeaksSensitivity: DefaultSensitivity,
		},
		Bands:    BandsConfig{Curve: string(dsp.CurveLinear)},
		filePath: filePath,
	}
}

// Load reads config from file, creating a default if none exists.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		return c.saveLocked()
	}
	if err != nil {
		return util.WrapError("read config", err)
	}

	if err := decode(c.filePath, data, c); err != nil {
		return util.WrapError("parse config", err)
	}

	c.applyDefaults()
	if err := c.validateLocked(); err != nil {
		return fmt.Errorf("invalid config %s: %w", c.filePath, err)
	}
	return nil
}

// applyDefaults sets default values for zero-value fields.
func (c *Config) applyDefaults() {
	c.Web.Port = cmp.Or(c.Web.Port, DefaultWebPort)
	c.Web.Username = cmp.Or(c.Web.Username, DefaultWebUsername)
	c.Web.Password = cmp.Or(c.Web.Password, DefaultWebPassword)
	c.Detection.Mode = strings.ToLower(cmp.Or(c.Detection.Mode, string(DefaultDetectionMode)))
	c.Detection.Sensitivity = strings.ToLower(cmp.Or(c.Detection.Sensitivity, DefaultSensitivity))
	c.Detection.PeaksSensitivity = strings.ToLower(cmp.Or(c.Detection.PeaksSensitivity, DefaultSensitivity))
	c.Bands.Curve = strings.ToLower(cmp.Or(c.Bands.Curve, string(dsp.CurveLinear)))
}

// Save writes the configuration to file.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

// saveLocked persists configuration. Caller must hold c.mu.
func (c *Config) saveLocked() error {
	data, err := encode(c.filePath, c)
	if err != nil {
		return util.WrapError("marshal config", err)
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return util.WrapError("create config directory", err)
	}

	if err := os.WriteFile(c.filePath, data, 0o600); err != nil {
		return util.WrapError("write config", err)
	}

	return nil
}

// Validate checks every configured value.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validateLocked()
}

// validateLocked range-checks the configuration. Zero values mean "use the
// default" and always pass. Caller must hold c.mu.
func (c *Config) validateLocked() error {
	var errs []error
	check := func(v *util.ValidationError) {
		if v != nil {
			errs = append(errs, v)
		}
	}
	optional := func(field string, value, minVal, maxVal float64) {
		if value != 0 {
			check(util.ValidateRangeFloat(field, value, minVal, maxVal))
		}
	}

	check(util.ValidatePort("web.port", c.Web.Port))
	check(util.ValidateOneOf("detection.mode", c.Detection.Mode,
		string(types.ModePeaks), string(types.ModeDrums), string(types.ModeBoth)))
	check(util.ValidateOneOf("detection.sensitivity", c.Detection.Sensitivity, dsp.Sensitivities()...))
	check(util.ValidateOneOf("detection.peaks_sensitivity", c.Detection.PeaksSensitivity, dsp.Sensitivities()...))
	check(util.ValidateOneOf("bands.curve", c.Bands.Curve, curveNames()...))

	optional("detection.hit_hold_seconds", c.Detection.HitHoldSeconds, 0.01, 2)
	optional("detection.peak_hold_seconds", c.Detection.PeakHoldSeconds, 0.01, 2)
	optional("detection.peak_min_interval", c.Detection.PeakMinInterval, 0.005, 1)
	optional("detection.flash_decay", c.Detection.FlashDecay, 0.1, 0.99)
	if p := c.Detection.Custom; p != nil {
		check(util.ValidateRangeFloat("detection.custom.kick_threshold", p.KickThreshold, 0.01, 5))
		check(util.ValidateRangeFloat("detection.custom.snare_threshold", p.SnareThreshold, 0.01, 5))
		check(util.ValidateRangeFloat("detection.custom.kick_min_ioi", p.KickMinIOI, 0, 1))
		check(util.ValidateRangeFloat("detection.custom.snare_min_ioi", p.SnareMinIOI, 0, 1))
	}

	optional("agc.target", c.AGC.Target, 0.01, 1)
	optional("agc.min_gain", c.AGC.MinGain, 0.01, 10)
	optional("agc.max_gain", c.AGC.MaxGain, 0.1, 20)
	optional("agc.attack", c.AGC.Attack, 0.0001, 1)
	optional("agc.release", c.AGC.Release, 0.0001, 1)
	if c.AGC.Window != 0 {
		check(util.ValidateRange("agc.window", c.AGC.Window, 1, 10000))
	}
	if c.AGC.MinGain != 0 && c.AGC.MaxGain != 0 && c.AGC.MinGain > c.AGC.MaxGain {
		errs = append(errs, &util.ValidationError{Field: "agc.min_gain", Message: "agc.min_gain must not exceed agc.max_gain"})
	}

	optional("compressor.threshold", c.Compressor.Threshold, 0.01, 1)
	optional("compressor.ratio", c.Compressor.Ratio, 1, 20)
	optional("compressor.knee", c.Compressor.Knee, 0, 0.5)
	optional("compressor.makeup", c.Compressor.Makeup, 0.1, 4)

	optional("smoothing.attack", c.Smoothing.Attack, 0.01, 1)
	optional("smoothing.decay", c.Smoothing.Decay, 0.001, 1)
	optional("smoothing.low_volume_mult", c.Smoothing.LowVolumeMult, 1, 10)
	optional("smoothing.low_volume_threshold", c.Smoothing.LowVolumeThreshold, 0.01, 1)

	optional("dynamic_floor.max", c.DynamicFloor.Max, 0.001, 0.5)
	optional("dynamic_floor.threshold", c.DynamicFloor.Threshold, 0.01, 1)

	for name, b := range map[string]BandConfig{
		"bands.percussion": c.Bands.Percussion,
		"bands.bass":       c.Bands.Bass,
		"bands.melody":     c.Bands.Melody,
	} {
		optional(name+".boost", b.Boost, 0.1, 5)
		optional(name+".expansion", b.Expansion, 0.25, 4)
		optional(name+".floor", b.Floor, 0.001, 1)
		optional(name+".ceiling", b.Ceiling, 0.1, 2)
	}

	optional("standby.threshold_db", c.Standby.ThresholdDB, -90, -1)
	optional("standby.duration_seconds", c.Standby.DurationSeconds, 1, 3600)
	optional("standby.recovery_seconds", c.Standby.RecoverySeconds, 0.1, 600)

	if c.Notifications.Email.Port != 0 {
		check(util.ValidatePort("notifications.email.port", c.Notifications.Email.Port))
	}

	return errors.Join(errs...)
}

func curveNames() []string {
	return []string{
		string(dsp.CurveLinear),
		string(dsp.CurveExponential),
		string(dsp.CurveLogarithmic),
		string(dsp.CurveSCurve),
	}
}

// WebPort returns the web server port.
func (c *Config) WebPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Web.Port
}

// AudioInput returns the configured capture device.
func (c *Config) AudioInput() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Audio.Input
}

// SetAudioInput updates the capture device and saves the configuration.
func (c *Config) SetAudioInput(input string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Audio.Input = input
	return c.saveLocked()
}

// SetDetectionMode updates the detection mode and saves the configuration.
func (c *Config) SetDetectionMode(mode string) error {
	mode = strings.ToLower(mode)
	if !types.DetectionMode(mode).Valid() {
		return util.ValidateOneOf("mode", mode, string(types.ModePeaks), string(types.ModeDrums), string(types.ModeBoth))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Detection.Mode = mode
	return c.saveLocked()
}

// SetSensitivity updates the drum sensitivity preset and saves the
// configuration.
func (c *Config) SetSensitivity(name string) error {
	name = strings.ToLower(name)
	if err := util.ValidateOneOf("sensitivity", name, dsp.Sensitivities()...); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Detection.Sensitivity = name
	return c.saveLocked()
}

// SetPeaksSensitivity updates the peak sensitivity preset and saves the
// configuration.
func (c *Config) SetPeaksSensitivity(name string) error {
	name = strings.ToLower(name)
	if err := util.ValidateOneOf("peaks_sensitivity", name, dsp.Sensitivities()...); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Detection.PeaksSensitivity = name
	return c.saveLocked()
}

// SetCurve updates the response curve and saves the configuration.
func (c *Config) SetCurve(curve string) error {
	curve = strings.ToLower(curve)
	if err := util.ValidateOneOf("curve", curve, curveNames()...); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Bands.Curve = curve
	return c.saveLocked()
}

// SetStandbyThreshold updates the standby threshold and saves the
// configuration.
func (c *Config) SetStandbyThreshold(db float64) error {
	if err := util.ValidateRangeFloat("standby_threshold", db, -90, -1); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Standby.ThresholdDB = db
	return c.saveLocked()
}

// SetStandbyDuration updates the time before standby and saves the
// configuration.
func (c *Config) SetStandbyDuration(seconds float64) error {
	if err := util.ValidateRangeFloat("standby_duration", seconds, 1, 3600); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Standby.DurationSeconds = seconds
	return c.saveLocked()
}

// SetStandbyRecovery updates the recovery time and saves the configuration.
func (c *Config) SetStandbyRecovery(seconds float64) error {
	if err := util.ValidateRangeFloat("standby_recovery", seconds, 0.1, 600); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Standby.RecoverySeconds = seconds
	return c.saveLocked()
}

// SetWebhookURL updates the webhook URL and saves the configuration.
func (c *Config) SetWebhookURL(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Notifications.WebhookURL = url
	return c.saveLocked()
}

// SetLogPath updates the event log path and saves the configuration.
func (c *Config) SetLogPath(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Notifications.LogPath = path
	return c.saveLocked()
}

// SetEmailConfig updates all email configuration fields and saves.
func (c *Config) SetEmailConfig(email EmailConfig) error {
	if email.Port != 0 {
		if err := util.ValidatePort("email_port", email.Port); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Notifications.Email = email
	return c.saveLocked()
}

// Snapshot contains a point-in-time copy of all configuration values with
// defaults applied. The analysis pipeline is built from one snapshot.
type Snapshot struct {
	// Web
	WebPort     int
	WebUser     string
	WebPassword string

	// Audio
	AudioInput string
	App        string
	AppGate    bool

	// Detection
	Mode             types.DetectionMode
	Sensitivity      string
	PeaksSensitivity string
	Drums            dsp.DrumPreset
	Peaks            dsp.PeakPreset
	PeakMinInterval  float64
	Fusion           dsp.FusionConfig

	// Signal chain
	AGC        dsp.AGCConfig
	Compressor dsp.CompressorConfig
	Smoothing  dsp.SmootherConfig
	Floor      dsp.FloorConfig
	Curve      dsp.Curve
	Shapes     [3]dsp.BandShape

	// Standby
	StandbyThreshold float64
	StandbyDuration  float64
	StandbyRecovery  float64

	// Notifications
	WebhookURL string
	LogPath    string

	// Email
	EmailSMTPHost   string
	EmailSMTPPort   int
	EmailFromName   string
	EmailUsername   string
	EmailPassword   string
	EmailRecipients string
}

// Snapshot returns a point-in-time copy of all configuration values.
func (c *Config) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	custom := dsp.DefaultCustomDrumPreset
	if c.Detection.Custom != nil {
		custom = *c.Detection.Custom
	}
	fusion := dsp.DefaultFusionConfig()
	agc := dsp.DefaultAGCConfig()
	comp := dsp.DefaultCompressorConfig()
	smoothing := dsp.DefaultSmootherConfig()
	floor := dsp.DefaultFloorConfig()
	shapes := dsp.DefaultBandShapes()

	return Snapshot{
		// Web
		WebPort:     c.Web.Port,
		WebUser:     c.Web.Username,
		WebPassword: c.Web.Password,

		// Audio
		AudioInput: c.Audio.Input,
		App:        cmp.Or(c.Audio.App, DefaultApp),
		AppGate:    !c.Audio.DisableAppGate,

		// Detection (with defaults)
		Mode:             types.DetectionMode(cmp.Or(c.Detection.Mode, string(DefaultDetectionMode))),
		Sensitivity:      cmp.Or(c.Detection.Sensitivity, DefaultSensitivity),
		PeaksSensitivity: cmp.Or(c.Detection.PeaksSensitivity, DefaultSensitivity),
		Drums:            dsp.DrumPresetFor(cmp.Or(c.Detection.Sensitivity, DefaultSensitivity), custom),
		Peaks:            dsp.PeakPresetFor(cmp.Or(c.Detection.PeaksSensitivity, DefaultSensitivity)),
		PeakMinInterval:  cmp.Or(c.Detection.PeakMinInterval, DefaultPeakMinInterval),
		Fusion: dsp.FusionConfig{
			HitHold:    cmp.Or(seconds(c.Detection.HitHoldSeconds), fusion.HitHold),
			PeakHold:   cmp.Or(seconds(c.Detection.PeakHoldSeconds), fusion.PeakHold),
			FlashDecay: cmp.Or(c.Detection.FlashDecay, fusion.FlashDecay),
		},

		// Signal chain (with defaults)
		AGC: dsp.AGCConfig{
			Enabled: !c.AGC.Disabled,
			Target:  cmp.Or(c.AGC.Target, agc.Target),
			MinGain: cmp.Or(c.AGC.MinGain, agc.MinGain),
			MaxGain: cmp.Or(c.AGC.MaxGain, agc.MaxGain),
			Attack:  cmp.Or(c.AGC.Attack, agc.Attack),
			Release: cmp.Or(c.AGC.Release, agc.Release),
			Window:  cmp.Or(c.AGC.Window, agc.Window),
		},
		Compressor: dsp.CompressorConfig{
			Enabled:   !c.Compressor.Disabled,
			Threshold: cmp.Or(c.Compressor.Threshold, comp.Threshold),
			Ratio:     cmp.Or(c.Compressor.Ratio, comp.Ratio),
			Knee:      cmp.Or(c.Compressor.Knee, comp.Knee),
			Makeup:    cmp.Or(c.Compressor.Makeup, comp.Makeup),
		},
		Smoothing: dsp.SmootherConfig{
			Attack:          cmp.Or(c.Smoothing.Attack, smoothing.Attack),
			Decay:           cmp.Or(c.Smoothing.Decay, smoothing.Decay),
			Adaptive:        !c.Smoothing.Fixed,
			LowVolumeMult:   cmp.Or(c.Smoothing.LowVolumeMult, smoothing.LowVolumeMult),
			LowVolumeThresh: cmp.Or(c.Smoothing.LowVolumeThreshold, smoothing.LowVolumeThresh),
		},
		Floor: dsp.FloorConfig{
			Enabled:   !c.DynamicFloor.Disabled,
			Max:       cmp.Or(c.DynamicFloor.Max, floor.Max),
			Threshold: cmp.Or(c.DynamicFloor.Threshold, floor.Threshold),
		},
		Curve: dsp.Curve(cmp.Or(c.Bands.Curve, string(dsp.CurveLinear))),
		Shapes: [3]dsp.BandShape{
			dsp.Percussion: bandShape(c.Bands.Percussion, shapes[dsp.Percussion]),
			dsp.Bass:       bandShape(c.Bands.Bass, shapes[dsp.Bass]),
			dsp.Melody:     bandShape(c.Bands.Melody, shapes[dsp.Melody]),
		},

		// Standby (with defaults)
		StandbyThreshold: cmp.Or(c.Standby.ThresholdDB, DefaultStandbyThreshold),
		StandbyDuration:  cmp.Or(c.Standby.DurationSeconds, DefaultStandbyDuration),
		StandbyRecovery:  cmp.Or(c.Standby.RecoverySeconds, DefaultStandbyRecovery),

		// Notifications
		WebhookURL: c.Notifications.WebhookURL,
		LogPath:    c.Notifications.LogPath,

		// Email (with defaults)
		EmailSMTPHost:   c.Notifications.Email.Host,
		EmailSMTPPort:   cmp.Or(c.Notifications.Email.Port, DefaultEmailSMTPPort),
		EmailFromName:   cmp.Or(c.Notifications.Email.FromName, DefaultEmailFromName),
		EmailUsername:   c.Notifications.Email.Username,
		EmailPassword:   c.Notifications.Email.Password,
		EmailRecipients: c.Notifications.Email.Recipients,
	}
}

func bandShape(b BandConfig, def dsp.BandShape) dsp.BandShape {
	return dsp.BandShape{
		Boost:     cmp.Or(b.Boost, def.Boost),
		Expansion: cmp.Or(b.Expansion, def.Expansion),
		Floor:     cmp.Or(b.Floor, def.Floor),
		Ceiling:   cmp.Or(b.Ceiling, def.Ceiling),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// HasWebhook returns true if a webhook URL is configured.
func (s *Snapshot) HasWebhook() bool {
	return s.WebhookURL != ""
}

// HasEmail returns true if email notifications are configured.
func (s *Snapshot) HasEmail() bool {
	return s.EmailSMTPHost != "" && s.EmailRecipients != ""
}

// HasLogPath returns true if a log path is configured.
func (s *Snapshot) HasLogPath() bool {
	return s.LogPath != ""
}
