package audio

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ActivityPollInterval is how often the application probe runs.
const ActivityPollInterval = 500 * time.Millisecond

// ErrActivityUnsupported is returned where per-application playback state
// cannot be queried.
var ErrActivityUnsupported = errors.New("application activity probe not supported on this platform")

// AppActivity follows whether one application has an active playback
// stream. It is advisory: when the state cannot be determined it is unknown
// and never gates analysis.
type AppActivity struct {
	app   string
	probe func(ctx context.Context, app string) (bool, error)

	mu      sync.RWMutex
	active  bool
	known   bool
	lastErr string
}

// NewAppActivity returns a probe for app (matched case-insensitively
// against the stream's application name or binary).
func NewAppActivity(app string) *AppActivity {
	return &AppActivity{app: app, probe: probeApp}
}

// Run polls until ctx is done.
func (a *AppActivity) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.poll(ctx)
		}
	}
}

func (a *AppActivity) poll(ctx context.Context) {
	active, err := a.probe(ctx, a.app)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		if msg := err.Error(); msg != a.lastErr {
			slog.Debug("application activity unknown", "app", a.app, "error", err)
			a.lastErr = msg
		}
		a.known = false
		return
	}
	a.lastErr = ""
	a.active = active
	a.known = true
}

// Silent reports whether the application is known to have no active stream.
func (a *AppActivity) Silent() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.known && !a.active
}

// State returns the last probe result and whether it is known.
func (a *AppActivity) State() (active, known bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active, a.known
}

// parseSinkInputs reports whether `pactl list sink-inputs` output contains
// an uncorked stream belonging to app.
func parseSinkInputs(output, app string) bool {
	app = strings.ToLower(app)
	for block := range strings.SplitSeq(output, "Sink Input #") {
		var corked, matches bool
		for line := range strings.SplitSeq(block, "\n") {
			line = strings.TrimSpace(line)
			if v, ok := strings.CutPrefix(line, "Corked:"); ok {
				corked = strings.TrimSpace(v) == "yes"
				continue
			}
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			switch strings.TrimSpace(key) {
			case "application.name", "application.process.binary":
				name := strings.ToLower(strings.Trim(strings.TrimSpace(value), `"`))
				if strings.Contains(name, app) {
					matches = true
				}
			}
		}
		if matches && !corked {
			return true
		}
	}
	return false
}
