package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oszuidwest/zwfm-ledsync/internal/util"
)

// Webhook event names.
const (
	EventStandbyEntered = "standby_entered"
	EventStandbyExited  = "standby_exited"
	EventCaptureFailed  = "capture_failed"
	EventTest           = "test"
)

const webhookTimeout = 10 * time.Second

// SendStandbyWebhook posts a standby_entered event.
func SendStandbyWebhook(webhookURL string, duration, threshold float64) error {
	return sendWebhook(webhookURL, map[string]any{
		"event":          EventStandbyEntered,
		"quiet_duration": duration,
		"threshold":      threshold,
		"timestamp":      util.RFC3339Now(),
	})
}

// SendResumeWebhook posts a standby_exited event.
func SendResumeWebhook(webhookURL string, standbyDuration float64) error {
	return sendWebhook(webhookURL, map[string]any{
		"event":            EventStandbyExited,
		"standby_duration": standbyDuration,
		"timestamp":        util.RFC3339Now(),
	})
}

// SendCaptureFailureWebhook posts a capture_failed event.
func SendCaptureFailureWebhook(webhookURL, message string) error {
	return sendWebhook(webhookURL, map[string]any{
		"event":     EventCaptureFailed,
		"message":   message,
		"timestamp": util.RFC3339Now(),
	})
}

// SendTestWebhook sends a test POST request to verify webhook configuration.
func SendTestWebhook(webhookURL string) error {
	if webhookURL == "" {
		return errors.New("webhook URL not configured")
	}

	return sendWebhook(webhookURL, map[string]any{
		"event":     EventTest,
		"message":   "This is a test notification from LED Sync",
		"timestamp": util.RFC3339Now(),
	})
}

// sendWebhook sends a POST request with JSON payload to the webhook URL.
// Every delivery carries a unique event_id so receivers can drop repeats.
func sendWebhook(webhookURL string, payload map[string]any) error {
	if !util.IsConfigured(webhookURL) {
		return nil
	}
	payload["event_id"] = uuid.NewString()

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return util.WrapError("marshal payload", err)
	}

	client := &http.Client{Timeout: webhookTimeout}
	resp, err := client.Post(webhookURL, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return util.WrapError("send webhook request", err)
	}
	defer util.SafeCloseFunc(resp.Body, "webhook response body")()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
