package notify

import (
	"sync"

	"github.com/oszuidwest/zwfm-ledsync/internal/audio"
	"github.com/oszuidwest/zwfm-ledsync/internal/config"
	"github.com/oszuidwest/zwfm-ledsync/internal/util"
)

// StandbyNotifier turns standby detector events into webhook, email and log
// notifications. Each channel fires at most once per standby period and
// only sends a resume notice if it sent the matching standby notice.
type StandbyNotifier struct {
	cfg *config.Config

	// mu protects the sent flags.
	mu          sync.Mutex
	webhookSent bool
	emailSent   bool
	logSent     bool

	// send runs a sender; tests replace it to run synchronously.
	send func(func())
}

// NewStandbyNotifier returns a notifier reading settings from cfg.
func NewStandbyNotifier(cfg *config.Config) *StandbyNotifier {
	return &StandbyNotifier{
		cfg:  cfg,
		send: func(fn func()) { go fn() },
	}
}

// HandleEvent processes one standby detector event.
func (n *StandbyNotifier) HandleEvent(event audio.StandbyEvent) {
	if event.JustEntered {
		n.handleStandbyStart(event.Duration)
	}
	if event.JustExited {
		n.handleStandbyEnd(event.TotalDuration)
	}
}

func (n *StandbyNotifier) handleStandbyStart(duration float64) {
	cfg := n.cfg.Snapshot()

	n.trySend(&n.webhookSent, cfg.HasWebhook(), func() {
		util.LogNotifyResult(func() error {
			return SendStandbyWebhook(cfg.WebhookURL, duration, cfg.StandbyThreshold)
		}, "standby webhook", true)
	})
	n.trySend(&n.emailSent, cfg.HasEmail(), func() {
		util.LogNotifyResult(func() error {
			return SendStandbyAlert(EmailConfigFromSnapshot(&cfg), duration, cfg.StandbyThreshold)
		}, "standby email", true)
	})
	n.trySend(&n.logSent, cfg.HasLogPath(), func() {
		util.LogNotifyResult(func() error {
			return LogStandbyStart(cfg.LogPath, cfg.StandbyThreshold)
		}, "standby log", true)
	})
}

// trySend atomically checks and sets a notification flag, then runs the
// sender if needed.
func (n *StandbyNotifier) trySend(sent *bool, condition bool, sender func()) {
	n.mu.Lock()
	shouldSend := !*sent && condition
	if shouldSend {
		*sent = true
	}
	n.mu.Unlock()
	if shouldSend {
		n.send(sender)
	}
}

func (n *StandbyNotifier) handleStandbyEnd(totalDuration float64) {
	cfg := n.cfg.Snapshot()

	n.mu.Lock()
	webhook, email, log := n.webhookSent, n.emailSent, n.logSent
	n.webhookSent, n.emailSent, n.logSent = false, false, false
	n.mu.Unlock()

	if webhook {
		n.send(func() {
			util.LogNotifyResult(func() error {
				return SendResumeWebhook(cfg.WebhookURL, totalDuration)
			}, "resume webhook", true)
		})
	}
	if email {
		n.send(func() {
			util.LogNotifyResult(func() error {
				return SendResumeAlert(EmailConfigFromSnapshot(&cfg), totalDuration)
			}, "resume email", true)
		})
	}
	if log {
		n.send(func() {
			util.LogNotifyResult(func() error {
				return LogStandbyEnd(cfg.LogPath, totalDuration, cfg.StandbyThreshold)
			}, "resume log", true)
		})
	}
}

// NotifyCaptureFailure sends the capture failure on every configured
// channel.
func (n *StandbyNotifier) NotifyCaptureFailure(message string) {
	cfg := n.cfg.Snapshot()

	if cfg.HasWebhook() {
		n.send(func() {
			util.LogNotifyResult(func() error {
				return SendCaptureFailureWebhook(cfg.WebhookURL, message)
			}, "capture failure webhook", true)
		})
	}
	if cfg.HasEmail() {
		n.send(func() {
			util.LogNotifyResult(func() error {
				return SendCaptureFailure(EmailConfigFromSnapshot(&cfg), message)
			}, "capture failure email", true)
		})
	}
	if cfg.HasLogPath() {
		n.send(func() {
			util.LogNotifyResult(func() error {
				return LogCaptureFailure(cfg.LogPath, message)
			}, "capture failure log", true)
		})
	}
}

// Reset clears the notification state.
func (n *StandbyNotifier) Reset() {
	n.mu.Lock()
	n.webhookSent = false
	n.emailSent = false
	n.logSent = false
	n.mu.Unlock()
}
