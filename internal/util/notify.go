package util

import "log/slog"

// LogNotifyResult runs a notification sender and logs its outcome.
// Errors are logged here, so callers can fire and forget.
func LogNotifyResult(fn func() error, notifyType string, enabled bool) {
	if err := fn(); err != nil {
		slog.Error("notification failed", "type", notifyType, "error", err)
		return
	}
	if enabled {
		slog.Info("notification sent", "type", notifyType)
	}
}
