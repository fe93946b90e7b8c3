package notify

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"slices"

	"github.com/oszuidwest/zwfm-ledsync/internal/types"
	"github.com/oszuidwest/zwfm-ledsync/internal/util"
)

// LogStandbyStart records the start of a standby period.
func LogStandbyStart(logPath string, threshold float64) error {
	return appendLogEntry(logPath, types.EventLogEntry{
		Timestamp:   util.RFC3339Now(),
		Event:       EventStandbyEntered,
		ThresholdDB: threshold,
	})
}

// LogStandbyEnd records the end of a standby period with its duration.
func LogStandbyEnd(logPath string, standbyDuration, threshold float64) error {
	return appendLogEntry(logPath, types.EventLogEntry{
		Timestamp:   util.RFC3339Now(),
		Event:       EventStandbyExited,
		DurationSec: standbyDuration,
		ThresholdDB: threshold,
	})
}

// LogCaptureFailure records that capture gave up.
func LogCaptureFailure(logPath, message string) error {
	return appendLogEntry(logPath, types.EventLogEntry{
		Timestamp: util.RFC3339Now(),
		Event:     EventCaptureFailed,
		Message:   message,
	})
}

// WriteTestLog writes a test entry to verify log file configuration.
func WriteTestLog(logPath string) error {
	if logPath == "" {
		return errors.New("log file path not configured")
	}

	return appendLogEntry(logPath, types.EventLogEntry{
		Timestamp: util.RFC3339Now(),
		Event:     EventTest,
	})
}

// ReadLog returns up to limit of the most recent entries, newest first.
// Lines that are not valid entries are skipped.
func ReadLog(logPath string, limit int) ([]types.EventLogEntry, error) {
	if logPath == "" {
		return nil, errors.New("log file path not configured")
	}

	f, err := os.Open(logPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, util.WrapError("open log file", err)
	}
	defer util.SafeCloseFunc(f, "log file")()

	var entries []types.EventLogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry types.EventLogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) > limit {
			entries = entries[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, util.WrapError("read log file", err)
	}

	slices.Reverse(entries)
	return entries, nil
}

// appendLogEntry appends a JSON log entry to the file.
func appendLogEntry(logPath string, entry types.EventLogEntry) error {
	if !util.IsConfigured(logPath) {
		return nil
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		return util.WrapError("marshal log entry", err)
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return util.WrapError("open log file", err)
	}
	defer util.SafeCloseFunc(f, "log file")()

	if _, err := f.Write(append(jsonData, '\n')); err != nil {
		return util.WrapError("write log entry", err)
	}

	return nil
}
