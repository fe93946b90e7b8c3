// Package util provides shared helpers for errors, validation, process
// control and notifications.
package util

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
)

// WrapError prefixes err with the operation that failed. A nil err stays nil.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// SafeClose closes closer and logs a failure. Nil closers and resources
// that were already closed are ignored.
func SafeClose(closer io.Closer, name string) {
	if closer == nil {
		return
	}
	err := closer.Close()
	if err == nil || errors.Is(err, os.ErrClosed) || errors.Is(err, net.ErrClosed) {
		return
	}
	slog.Warn("failed to close resource", "resource", name, "error", err)
}

// SafeCloseFunc returns SafeClose bound to closer, for use with defer.
func SafeCloseFunc(closer io.Closer, name string) func() {
	return func() { SafeClose(closer, name) }
}
