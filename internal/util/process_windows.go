//go:build windows

package util

import "os"

// ShutdownSignals returns the signals that stop the daemon.
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// ReloadSignals returns nothing: Windows has no SIGHUP. Config changes are
// still picked up by the file watcher.
func ReloadSignals() []os.Signal {
	return nil
}

// InterruptProcess stops a capture process. Console processes cannot be
// signalled on Windows, so it is killed outright.
func InterruptProcess(p *os.Process) error {
	return p.Kill()
}
