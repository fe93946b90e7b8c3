//go:build !windows

package util

import (
	"os"
	"syscall"
)

// ShutdownSignals returns the signals that stop the daemon.
func ShutdownSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

// ReloadSignals returns the signals that make the daemon re-read its
// configuration file.
func ReloadSignals() []os.Signal {
	return []os.Signal{syscall.SIGHUP}
}

// InterruptProcess asks a capture process to exit. parec and ffmpeg both
// close their output cleanly on SIGINT.
func InterruptProcess(p *os.Process) error {
	return p.Signal(syscall.SIGINT)
}
