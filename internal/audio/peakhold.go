package audio

import "time"

// PeakHoldDuration is how long a peak is held before it may fall.
const PeakHoldDuration = 1500 * time.Millisecond

// PeakHolder tracks the held peak shown on level meters.
type PeakHolder struct {
	held     float64
	holdTime time.Time
}

// NewPeakHolder creates a peak holder at the minimum level.
func NewPeakHolder() *PeakHolder {
	return &PeakHolder{held: MinDB}
}

// Update records peakDB and returns the held peak.
func (p *PeakHolder) Update(peakDB float64, now time.Time) float64 {
	if peakDB >= p.held || now.Sub(p.holdTime) > PeakHoldDuration {
		p.held = peakDB
		p.holdTime = now
	}
	return p.held
}

// Reset drops the held peak to the minimum level.
func (p *PeakHolder) Reset() {
	p.held = MinDB
	p.holdTime = time.Time{}
}
