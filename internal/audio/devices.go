package audio

import (
	"log/slog"
	"os/exec"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-ledsync/internal/types"
)

// deviceCacheTTL bounds how often the list command runs. The web monitor
// asks for the list with every status push.
const deviceCacheTTL = 10 * time.Second

// DeviceListConfig describes how a platform enumerates its sources.
type DeviceListConfig struct {
	// Command and args that print the source list.
	Command []string

	// SectionStart opens the audio part of the output. Empty means the
	// whole output is audio.
	SectionStart string

	// SectionEnd closes the audio part (optional).
	SectionEnd string

	// Pattern matches one source line.
	Pattern *regexp.Regexp

	// Parse builds a device from Pattern's submatches.
	Parse func(matches []string) *types.AudioDevice

	// Fallback is listed when the command fails or finds nothing.
	Fallback []types.AudioDevice
}

type deviceCache struct {
	mu      sync.Mutex
	at      time.Time
	devices []types.AudioDevice
	list    func() []types.AudioDevice
	now     func() time.Time
}

var sources = &deviceCache{
	list: func() []types.AudioDevice {
		cfg := getPlatformConfig()
		return cfg.listDevices()
	},
	now: time.Now,
}

// ListDevices returns the capture sources of the current platform with
// loopback sources flagged. Results are reused for a few seconds.
func ListDevices() []types.AudioDevice {
	return sources.get()
}

func (c *deviceCache) get() []types.AudioDevice {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.devices == nil || now.Sub(c.at) >= deviceCacheTTL {
		c.devices = c.list()
		c.at = now
	}
	return slices.Clone(c.devices)
}

// listDevices runs the platform list command and flags loopback sources.
func (cfg *CaptureConfig) listDevices() []types.AudioDevice {
	devices := cfg.Devices.run()
	for i := range devices {
		devices[i].Loopback = cfg.isLoopback(devices[i])
	}
	return devices
}

// isLoopback reports whether dev carries system output. Without a
// LoopbackPattern every listed source qualifies.
func (cfg *CaptureConfig) isLoopback(dev types.AudioDevice) bool {
	return cfg.LoopbackPattern == nil || cfg.LoopbackPattern.MatchString(dev.Name)
}

// run executes the list command and parses its output.
func (l *DeviceListConfig) run() []types.AudioDevice {
	if len(l.Command) == 0 {
		return slices.Clone(l.Fallback)
	}

	output, err := exec.Command(l.Command[0], l.Command[1:]...).CombinedOutput()
	// ffmpeg exits non-zero after listing, so only an empty output fails.
	if err != nil && len(output) == 0 {
		slog.Warn("failed to list audio devices", "command", l.Command[0], "error", err)
		return slices.Clone(l.Fallback)
	}

	if devices := l.parse(string(output)); len(devices) > 0 {
		return devices
	}
	return slices.Clone(l.Fallback)
}

// parse extracts the sources from list command output.
func (l *DeviceListConfig) parse(output string) []types.AudioDevice {
	if l.Pattern == nil || l.Parse == nil {
		return nil
	}

	var devices []types.AudioDevice
	inSection := l.SectionStart == ""
	for line := range strings.SplitSeq(output, "\n") {
		switch {
		case l.SectionStart != "" && strings.Contains(line, l.SectionStart):
			inSection = true
			continue
		case l.SectionEnd != "" && strings.Contains(line, l.SectionEnd):
			inSection = false
			continue
		case !inSection, strings.Contains(line, "Alternative name"):
			// DirectShow repeats each device as an "Alternative name" line.
			continue
		}

		if m := l.Pattern.FindStringSubmatch(line); m != nil {
			if dev := l.Parse(m); dev != nil {
				devices = append(devices, *dev)
			}
		}
	}
	return devices
}
