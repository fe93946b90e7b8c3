//go:build windows

package audio

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/oszuidwest/zwfm-ledsync/internal/types"
)

func getPlatformConfig() CaptureConfig {
	return CaptureConfig{
		Command:         "ffmpeg",
		LoopbackPattern: regexp.MustCompile(`(?i)stereo mix|what u hear|loopback|cable output|wave out`),
		BuildArgs:       buildWindowsArgs,
		Devices: DeviceListConfig{
			Command:      []string{"ffmpeg", "-f", "dshow", "-list_devices", "true", "-i", "dummy"},
			SectionStart: "DirectShow audio devices",
			SectionEnd:   "DirectShow video devices",
			Pattern:      regexp.MustCompile(`\[dshow[^\]]*\]\s*"([^"]+)"`),
			Parse: func(matches []string) *types.AudioDevice {
				if len(matches) < 2 {
					return nil
				}
				name := strings.TrimSpace(matches[1])
				return &types.AudioDevice{ID: "audio=" + name, Name: name}
			},
		},
	}
}

func buildWindowsArgs(device string) []string {
	return []string{
		"-f", "dshow",
		"-audio_buffer_size", "20",
		"-i", device,
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-vn",
		"-f", "s16le",
		"-ac", strconv.Itoa(types.Channels),
		"-ar", strconv.Itoa(types.SampleRate),
		"pipe:1",
	}
}
