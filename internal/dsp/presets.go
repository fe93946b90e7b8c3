package dsp

import "strings"

// Sensitivity preset names.
const (
	SensitivityLow    = "low"
	SensitivityMedium = "medium"
	SensitivityHigh   = "high"
	SensitivityUltra  = "ultra"
	SensitivityCustom = "custom"
)

// DrumPreset holds kick and snare onset thresholds and minimum inter-onset
// intervals in seconds.
type DrumPreset struct {
	KickThreshold  float64 `json:"kick_threshold"`
	SnareThreshold float64 `json:"snare_threshold"`
	KickMinIOI     float64 `json:"kick_min_ioi"`
	SnareMinIOI    float64 `json:"snare_min_ioi"`
}

// PeakPreset holds the peak onset threshold and the transient ratio.
type PeakPreset struct {
	OnsetThreshold float64
	TransientRatio float64
}

var drumPresets = map[string]DrumPreset{
	SensitivityLow:    {KickThreshold: 1.0, SnareThreshold: 0.9, KickMinIOI: 0.15, SnareMinIOI: 0.12},
	SensitivityMedium: {KickThreshold: 0.7, SnareThreshold: 0.6, KickMinIOI: 0.10, SnareMinIOI: 0.08},
	SensitivityHigh:   {KickThreshold: 0.45, SnareThreshold: 0.35, KickMinIOI: 0.06, SnareMinIOI: 0.04},
	SensitivityUltra:  {KickThreshold: 0.30, SnareThreshold: 0.25, KickMinIOI: 0.04, SnareMinIOI: 0.03},
}

var peakPresets = map[string]PeakPreset{
	SensitivityLow:    {OnsetThreshold: 0.8, TransientRatio: 2.5},
	SensitivityMedium: {OnsetThreshold: 0.5, TransientRatio: 2.0},
	SensitivityHigh:   {OnsetThreshold: 0.35, TransientRatio: 1.5},
	SensitivityUltra:  {OnsetThreshold: 0.25, TransientRatio: 1.2},
}

// DefaultCustomDrumPreset is used for the custom sensitivity when nothing
// else is configured.
var DefaultCustomDrumPreset = DrumPreset{
	KickThreshold:  0.45,
	SnareThreshold: 0.35,
	KickMinIOI:     0.06,
	SnareMinIOI:    0.04,
}

// DrumPresetFor resolves a sensitivity name. "custom" returns custom and
// unknown names fall back to high.
func DrumPresetFor(name string, custom DrumPreset) DrumPreset {
	name = strings.ToLower(name)
	if name == SensitivityCustom {
		return custom
	}
	if p, ok := drumPresets[name]; ok {
		return p
	}
	return drumPresets[SensitivityHigh]
}

// PeakPresetFor resolves a peak sensitivity name, falling back to high.
func PeakPresetFor(name string) PeakPreset {
	if p, ok := peakPresets[strings.ToLower(name)]; ok {
		return p
	}
	return peakPresets[SensitivityHigh]
}

// Sensitivities lists the selectable sensitivity names.
func Sensitivities() []string {
	return []string{SensitivityLow, SensitivityMedium, SensitivityHigh, SensitivityUltra, SensitivityCustom}
}
