//go:build !linux

package audio

import "context"

func probeApp(context.Context, string) (bool, error) {
	return false, ErrActivityUnsupported
}
