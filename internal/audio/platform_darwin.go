//go:build darwin

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
		LoopbackPattern: regexp.MustCompile(`(?i)blackhole|soundflower|loopback|aggregate`),
		BuildArgs:       buildDarwinArgs,
		Devices: DeviceListConfig{
			Command:      []string{"ffmpeg", "-f", "avfoundation", "-list_devices", "true", "-i", ""},
			SectionStart: "AVFoundation audio devices:",
			SectionEnd:   "AVFoundation video devices:",
			Pattern:      regexp.MustCompile(`\[AVFoundation[^\]]*\]\s*\[(\d+)\]\s*(.+)`),
			Parse: func(matches []string) *types.AudioDevice {
				if len(matches) < 3 {
					return nil
				}
				return &types.AudioDevice{
					ID:   ":" + matches[1],
					Name: strings.TrimSpace(matches[2]),
				}
			},
		},
	}
}

func buildDarwinArgs(device string) []string {
	return []string{
		"-f", "avfoundation",
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
