// Package audio provides loopback capture, PCM decoding, level metering and
// standby detection.
package audio

import (
	"errors"
	"os/exec"
	"regexp"

	"github.com/oszuidwest/zwfm-ledsync/internal/types"
)

// ErrNoLoopbackDevice is returned when no loopback-capable source is available.
var ErrNoLoopbackDevice = errors.New("no loopback audio source found")

// CaptureConfig defines platform-specific loopback capture configuration.
type CaptureConfig struct {
	// Command is the capture executable (e.g., "parec", "ffmpeg").
	Command string

	// DefaultDevice is used when no device is configured. Empty means the
	// first listed device matching LoopbackPattern.
	DefaultDevice string

	// LoopbackPattern matches device names that carry system output. Nil
	// means every listed device is a loopback source.
	LoopbackPattern *regexp.Regexp

	// BuildArgs returns the command arguments for capturing device as
	// S16LE stereo at types.SampleRate on stdout.
	BuildArgs func(device string) []string

	// Devices describes how to enumerate sources.
	Devices DeviceListConfig
}

// BuildCaptureCommand returns the command and arguments for capturing
// device. If device is empty the platform default or the first detected
// loopback source is used.
func BuildCaptureCommand(device string) (cmd string, args []string, err error) {
	cfg := getPlatformConfig()

	if device == "" {
		device = cfg.DefaultDevice
	}
	if device == "" {
		dev, err := cfg.findLoopback()
		if err != nil {
			return "", nil, err
		}
		device = dev.ID
	}

	return cfg.Command, cfg.BuildArgs(device), nil
}

// Probe reports whether capture can start for device: the capture command
// must be installed and, when no device is configured, a loopback source
// must be listed.
func Probe(device string) error {
	cfg := getPlatformConfig()
	if _, err := exec.LookPath(cfg.Command); err != nil {
		return err
	}
	if device != "" {
		return nil
	}
	_, err := cfg.findLoopback()
	return err
}

// findLoopback returns the first listed loopback source, ignoring fallbacks.
func (cfg CaptureConfig) findLoopback() (types.AudioDevice, error) {
	list := cfg.Devices
	list.Fallback = nil
	for _, dev := range list.run() {
		if cfg.isLoopback(dev) {
			return dev, nil
		}
	}
	return types.AudioDevice{}, ErrNoLoopbackDevice
}
