package server

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/oszuidwest/zwfm-ledsync/internal/config"
	"github.com/oszuidwest/zwfm-ledsync/internal/types"
)

// eventLogLimit is the number of log entries returned to the client.
const eventLogLimit = 100

// WSCommand is a command received from a WebSocket client.
type WSCommand struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Engine is the part of the analysis engine the command handler drives.
type Engine interface {
	IsRunning() bool
	Restart() error
	TriggerTestWebhook() error
	TriggerTestEmail() error
	TriggerTestLog() error
	RecentEvents(limit int) ([]types.EventLogEntry, error)
}

// CommandHandler processes WebSocket commands.
type CommandHandler struct {
	cfg    *config.Config
	engine Engine

	// async runs work off the connection's read loop; tests replace it.
	async func(func())
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(cfg *config.Config, engine Engine) *CommandHandler {
	return &CommandHandler{
		cfg:    cfg,
		engine: engine,
		async:  func(fn func()) { go fn() },
	}
}

// Handle processes a WebSocket command. Replies are passed to reply, which
// must be safe to call from any goroutine.
func (h *CommandHandler) Handle(cmd WSCommand, reply func(any), triggerStatusUpdate func()) {
	switch cmd.Type {
	case "update_settings":
		h.handleUpdateSettings(cmd)
	case "restart":
		h.restart("restart")
	case "test_webhook", "test_log", "test_email":
		h.handleTest(reply, cmd.Type)
	case "view_log":
		h.handleViewLog(reply)
	default:
		slog.Warn("unknown WebSocket command type", "type", cmd.Type)
	}

	triggerStatusUpdate()
}

// settingsUpdate is the payload of update_settings. Absent fields are left
// unchanged.
type settingsUpdate struct {
	AudioInput       *string  `json:"audio_input"`
	DetectionMode    *string  `json:"detection_mode"`
	Sensitivity      *string  `json:"sensitivity"`
	PeaksSensitivity *string  `json:"peaks_sensitivity"`
	Curve            *string  `json:"curve"`
	StandbyThreshold *float64 `json:"standby_threshold"`
	StandbyDuration  *float64 `json:"standby_duration"`
	StandbyRecovery  *float64 `json:"standby_recovery"`
	WebhookURL       *string  `json:"webhook_url"`
	LogPath          *string  `json:"log_path"`
	EmailSMTPHost    *string  `json:"email_smtp_host"`
	EmailSMTPPort    *int     `json:"email_smtp_port"`
	EmailFromName    *string  `json:"email_from_name"`
	EmailUsername    *string  `json:"email_username"`
	EmailPassword    *string  `json:"email_password"`
	EmailRecipients  *string  `json:"email_recipients"`
}

// apply runs setter when value is present and reports whether it saved.
func apply[T any](value *T, name string, setter func(T) error) bool {
	if value == nil {
		return false
	}
	if err := setter(*value); err != nil {
		slog.Warn("update_settings: rejected", "setting", name, "error", err)
		return false
	}
	slog.Info("update_settings: changed setting", "setting", name)
	return true
}

func (h *CommandHandler) handleUpdateSettings(cmd WSCommand) {
	var s settingsUpdate
	if err := json.Unmarshal(cmd.Data, &s); err != nil {
		slog.Warn("update_settings: invalid JSON data", "error", err)
		return
	}

	// The pipeline is built once per session, so analysis settings only
	// take effect after a restart.
	changed := false
	changed = apply(s.AudioInput, "audio input", h.cfg.SetAudioInput) || changed
	changed = apply(s.DetectionMode, "detection mode", h.cfg.SetDetectionMode) || changed
	changed = apply(s.Sensitivity, "sensitivity", h.cfg.SetSensitivity) || changed
	changed = apply(s.PeaksSensitivity, "peaks sensitivity", h.cfg.SetPeaksSensitivity) || changed
	changed = apply(s.Curve, "curve", h.cfg.SetCurve) || changed
	changed = apply(s.StandbyThreshold, "standby threshold", h.cfg.SetStandbyThreshold) || changed
	changed = apply(s.StandbyDuration, "standby duration", h.cfg.SetStandbyDuration) || changed
	changed = apply(s.StandbyRecovery, "standby recovery", h.cfg.SetStandbyRecovery) || changed

	apply(s.WebhookURL, "webhook URL", h.cfg.SetWebhookURL)
	apply(s.LogPath, "log path", h.cfg.SetLogPath)
	h.updateEmail(s)

	if changed && h.engine.IsRunning() {
		h.restart("update_settings")
	}
}

func (h *CommandHandler) updateEmail(s settingsUpdate) {
	if s.EmailSMTPHost == nil && s.EmailSMTPPort == nil && s.EmailFromName == nil &&
		s.EmailUsername == nil && s.EmailPassword == nil && s.EmailRecipients == nil {
		return
	}

	// Start from the current values for fields not being updated
	cur := h.cfg.Snapshot()
	email := config.EmailConfig{
		Host:       cur.EmailSMTPHost,
		Port:       cur.EmailSMTPPort,
		FromName:   cur.EmailFromName,
		Username:   cur.EmailUsername,
		Password:   cur.EmailPassword,
		Recipients: cur.EmailRecipients,
	}
	if s.EmailSMTPHost != nil {
		email.Host = *s.EmailSMTPHost
	}
	if s.EmailSMTPPort != nil {
		email.Port = *s.EmailSMTPPort
	}
	if s.EmailFromName != nil {
		email.FromName = *s.EmailFromName
	}
	if s.EmailUsername != nil {
		email.Username = *s.EmailUsername
	}
	if s.EmailPassword != nil {
		email.Password = *s.EmailPassword
	}
	if s.EmailRecipients != nil {
		email.Recipients = *s.EmailRecipients
	}

	apply(&email, "email", h.cfg.SetEmailConfig)
}

func (h *CommandHandler) restart(source string) {
	h.async(func() {
		if err := h.engine.Restart(); err != nil {
			slog.Error("failed to restart engine", "source", source, "error", err)
		}
	})
}

// handleTest executes a notification test and replies with the result.
// testCmd has the form "test_<type>".
func (h *CommandHandler) handleTest(reply func(any), testCmd string) {
	testType := strings.TrimPrefix(testCmd, "test_")

	var trigger func() error
	switch testType {
	case "webhook":
		trigger = h.engine.TriggerTestWebhook
	case "email":
		trigger = h.engine.TriggerTestEmail
	case "log":
		trigger = h.engine.TriggerTestLog
	}

	h.async(func() {
		result := types.WSTestResult{
			Type:     "test_result",
			TestType: testType,
			Success:  true,
		}

		if err := trigger(); err != nil {
			slog.Error("test failed", "command", testCmd, "error", err)
			result.Success = false
			result.Error = err.Error()
		} else {
			slog.Info("test succeeded", "command", testCmd)
		}
		reply(result)
	})
}

// handleViewLog replies with the most recent event log entries.
func (h *CommandHandler) handleViewLog(reply func(any)) {
	h.async(func() {
		result := types.WSEventLogResult{
			Type:    "log_result",
			Success: true,
		}

		entries, err := h.engine.RecentEvents(eventLogLimit)
		if err != nil {
			result.Success = false
			result.Error = err.Error()
		} else {
			result.Entries = entries
			result.Path = h.cfg.Snapshot().LogPath
		}
		reply(result)
	})
}
