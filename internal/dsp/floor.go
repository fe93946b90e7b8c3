package dsp

// FloorConfig holds dynamic floor parameters.
type FloorConfig struct {
	Enabled   bool
	Max       float64
	Threshold float64 // Volume under which the floor starts to rise
}

// DefaultFloorConfig returns the tuned defaults.
func DefaultFloorConfig() FloorConfig {
	return FloorConfig{Enabled: true, Max: 0.15, Threshold: 0.30}
}

const floorSmoothing = 0.1

// DynamicFloor lifts quiet band values when overall volume is low. The floor
// itself is smoothed frame to frame.
type DynamicFloor struct {
	cfg     FloorConfig
	current float64
}

// NewDynamicFloor returns a floor starting at zero.
func NewDynamicFloor(cfg FloorConfig) *DynamicFloor {
	return &DynamicFloor{cfg: cfg}
}

// Floor advances the smoothed floor for volume and returns it.
func (f *DynamicFloor) Floor(volume float64) float64 {
	if !f.cfg.Enabled {
		return 0
	}
	var target float64
	if volume < f.cfg.Threshold {
		target = f.cfg.Max * (1 - max(volume, 0)/f.cfg.Threshold)
	}
	f.current += (target - f.current) * floorSmoothing
	return f.current
}

// Apply blends value toward the floor when it sits below it. At or above the
// threshold volume the value is returned unchanged.
func (f *DynamicFloor) Apply(value, volume float64) float64 {
	return f.Lift(value, f.Floor(volume), volume)
}

// Lift blends value toward an already advanced floor. It lets several bands
// share one floor update per frame.
func (f *DynamicFloor) Lift(value, floor, volume float64) float64 {
	if !f.cfg.Enabled || volume >= f.cfg.Threshold || value >= floor {
		return value
	}
	return floor*0.7 + value*0.3
}

// Current returns the smoothed floor without advancing it.
func (f *DynamicFloor) Current() float64 { return f.current }

// Reset drops the floor back to zero.
func (f *DynamicFloor) Reset() { f.current = 0 }
