//go:build linux

package audio

import (
	"context"
	"os/exec"
	"time"
)

const probeTimeout = 2 * time.Second

func probeApp(ctx context.Context, app string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return false, err
	}
	return parseSinkInputs(string(out), app), nil
}
