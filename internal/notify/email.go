// Package notify provides notification services for standby and capture
// failure events.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/oszuidwest/zwfm-ledsync/internal/config"
	"github.com/oszuidwest/zwfm-ledsync/internal/util"
	"github.com/wneessen/go-mail"
)

// EmailConfig contains SMTP server settings for email notifications.
type EmailConfig struct {
	Host       string
	Port       int
	FromName   string
	Username   string
	Password   string
	Recipients string
}

// EmailConfigFromSnapshot extracts the email settings of a configuration
// snapshot.
func EmailConfigFromSnapshot(s *config.Snapshot) *EmailConfig {
	return &EmailConfig{
		Host:       s.EmailSMTPHost,
		Port:       s.EmailSMTPPort,
		FromName:   s.EmailFromName,
		Username:   s.EmailUsername,
		Password:   s.EmailPassword,
		Recipients: s.EmailRecipients,
	}
}

// smtpTimeout bounds one delivery, including the TLS handshake.
const smtpTimeout = 30 * time.Second

// emailField is one "label: value" line of a notification email.
type emailField struct {
	label string
	value string
}

// email is a plain-text notification: an intro line, aligned fields and a
// closing line.
type email struct {
	subject string
	intro   string
	fields  []emailField
	outro   string
}

func (e email) body() string {
	var b strings.Builder
	b.WriteString(e.intro)
	b.WriteString("\n\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 1, ' ', 0)
	for _, f := range e.fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f.label, f.value)
	}
	_ = tw.Flush()

	if e.outro != "" {
		b.WriteString("\n")
		b.WriteString(e.outro)
	}
	return b.String()
}

// SendStandbyAlert sends an email notification when playback stops.
func SendStandbyAlert(cfg *EmailConfig, duration, threshold float64) error {
	return sendIfConfigured(cfg, email{
		subject: "[STANDBY] Playback stopped - LED Sync",
		intro:   "No audio reached the LED analyzer.",
		fields: []emailField{
			{"Quiet for", fmt.Sprintf("%.1f seconds", duration)},
			{"Threshold", fmt.Sprintf("%.1f dB", threshold)},
			{"Time", util.HumanTime()},
		},
		outro: "The lights are idle until playback resumes.",
	})
}

// SendResumeAlert sends an email notification when playback resumes.
func SendResumeAlert(cfg *EmailConfig, standbyDuration float64) error {
	return sendIfConfigured(cfg, email{
		subject: "[OK] Playback resumed - LED Sync",
		intro:   "Audio is reaching the LED analyzer again.",
		fields: []emailField{
			{"Standby lasted", fmt.Sprintf("%.1f seconds", standbyDuration)},
			{"Time", util.HumanTime()},
		},
	})
}

// SendCaptureFailure sends an email notification when capture gives up.
func SendCaptureFailure(cfg *EmailConfig, message string) error {
	return sendIfConfigured(cfg, email{
		subject: "[ALERT] Audio capture stopped - LED Sync",
		intro:   "Loopback capture failed and will not be retried.",
		fields: []emailField{
			{"Error", message},
			{"Time", util.HumanTime()},
		},
		outro: "Restart the analyzer from the web interface once the audio source is fixed.",
	})
}

// SendTestEmail sends a test email to verify SMTP configuration. Unlike
// the alerts it reports missing settings as errors.
func SendTestEmail(cfg *EmailConfig) error {
	switch {
	case cfg.Host == "":
		return errors.New("SMTP host not configured")
	case cfg.Username == "":
		return errors.New("email username not configured")
	case cfg.Recipients == "":
		return errors.New("email recipients not configured")
	}

	return sendEmail(cfg, email{
		subject: "[TEST] LED Sync",
		intro:   "Test email from the LED analyzer.",
		fields:  []emailField{{"Time", util.HumanTime()}},
		outro:   "SMTP configuration is working correctly.",
	})
}

// parseRecipients splits a comma-separated recipient list.
func parseRecipients(list string) []string {
	var recipients []string
	for r := range strings.SplitSeq(list, ",") {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	return recipients
}

func sendIfConfigured(cfg *EmailConfig, e email) error {
	if !util.IsConfigured(cfg.Host, cfg.Username, cfg.Recipients) {
		return nil
	}
	return sendEmail(cfg, e)
}

// newMessage builds the message for e addressed to cfg's recipients.
func newMessage(cfg *EmailConfig, e email) (*mail.Msg, error) {
	recipients := parseRecipients(cfg.Recipients)
	if len(recipients) == 0 {
		return nil, errors.New("no valid recipients")
	}

	m := mail.NewMsg()
	var err error
	if cfg.FromName != "" {
		err = m.FromFormat(cfg.FromName, cfg.Username)
	} else {
		err = m.From(cfg.Username)
	}
	if err != nil {
		return nil, util.WrapError("set from address", err)
	}
	if err := m.To(recipients...); err != nil {
		return nil, util.WrapError("set recipient address", err)
	}
	m.Subject(e.subject)
	m.SetBodyString(mail.TypeTextPlain, e.body())
	return m, nil
}

// sendEmail delivers e over SMTP. The TLS mode follows the port: implicit
// TLS on 465, mandatory STARTTLS on 587, opportunistic elsewhere.
func sendEmail(cfg *EmailConfig, e email) error {
	m, err := newMessage(cfg, e)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(smtpTimeout),
	}
	switch cfg.Port {
	case 465:
		opts = append(opts, mail.WithSSL())
	case 587:
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	}

	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return util.WrapError("create SMTP client", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), smtpTimeout)
	defer cancel()
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return util.WrapError("send email", err)
	}
	return nil
}
