//go:build linux

package audio

import (
	"regexp"
	"strconv"

	"github.com/oszuidwest/zwfm-ledsync/internal/types"
)

// defaultMonitor is the PulseAudio/PipeWire alias for the monitor of the
// current default sink.
const defaultMonitor = "@DEFAULT_MONITOR@"

func getPlatformConfig() CaptureConfig {
	return CaptureConfig{
		Command:       "parec",
		DefaultDevice: defaultMonitor,
		BuildArgs:     buildLinuxArgs,
		Devices:       linuxDeviceList(),
	}
}

func buildLinuxArgs(device string) []string {
	return []string{
		"--device=" + device,
		"--format=s16le",
		"--rate=" + strconv.Itoa(types.SampleRate),
		"--channels=" + strconv.Itoa(types.Channels),
		"--latency-msec=20",
		"--raw",
	}
}

// linuxDeviceList parses `pactl list short sources`, keeping only sink
// monitors:
//
//	57	alsa_output.pci-0000_00_1f.3.analog-stereo.monitor	PipeWire	s16le 2ch 48000Hz	RUNNING
func linuxDeviceList() DeviceListConfig {
	return DeviceListConfig{
		Command: []string{"pactl", "list", "short", "sources"},
		Pattern: regexp.MustCompile(`^\d+\s+(\S+\.monitor)\s`),
		Parse: func(matches []string) *types.AudioDevice {
			if len(matches) < 2 {
				return nil
			}
			return &types.AudioDevice{ID: matches[1], Name: matches[1]}
		},
		Fallback: []types.AudioDevice{
			{ID: defaultMonitor, Name: "Default output monitor"},
		},
	}
}
