package engine

import (
	"time"

	"github.com/oszuidwest/zwfm-ledsync/internal/types"
)

// retryPolicy decides when a failed capture process is relaunched. Delays
// double from initial up to maxDelay. A run that lasted stableAfter or
// longer clears the failure count and the delay.
type retryPolicy struct {
	initial     time.Duration
	maxDelay    time.Duration
	maxFailures int
	stableAfter time.Duration

	delay    time.Duration
	failures int
}

func newRetryPolicy() *retryPolicy {
	return &retryPolicy{
		initial:     types.InitialRetryDelay,
		maxDelay:    types.MaxRetryDelay,
		maxFailures: types.MaxRetries,
		stableAfter: types.SuccessThreshold,
		delay:       types.InitialRetryDelay,
	}
}

// failed records a capture run that ended after ran. It returns the wait
// before the next launch, or false once maxFailures short runs in a row
// have been seen.
func (p *retryPolicy) failed(ran time.Duration) (time.Duration, bool) {
	if ran >= p.stableAfter {
		p.failures = 0
		p.delay = p.initial
	} else {
		p.failures++
	}
	if p.failures >= p.maxFailures {
		return 0, false
	}

	delay := p.delay
	p.delay = min(2*p.delay, p.maxDelay)
	return delay, true
}
