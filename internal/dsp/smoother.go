package dsp

// SmootherConfig holds adaptive smoother parameters.
type SmootherConfig struct {
	Attack          float64
	Decay           float64
	Adaptive        bool
	LowVolumeMult   float64 // Decay is divided by up to this factor at zero volume
	LowVolumeThresh float64 // Volume under which decay slows down
}

// DefaultSmootherConfig returns the tuned defaults.
func DefaultSmootherConfig() SmootherConfig {
	return SmootherConfig{
		Attack:          0.45,
		Decay:           0.08,
		Adaptive:        true,
		LowVolumeMult:   2.5,
		LowVolumeThresh: 0.35,
	}
}

// AdaptiveSmoother is an asymmetric envelope follower whose decay slows down
// at low volume.
type AdaptiveSmoother struct {
	cfg   SmootherConfig
	value float64
}

// NewAdaptiveSmoother returns a smoother starting at zero.
func NewAdaptiveSmoother(cfg SmootherConfig) *AdaptiveSmoother {
	cfg.Attack = clamp(cfg.Attack, 0, 1)
	cfg.Decay = clamp(cfg.Decay, 0, 1)
	cfg.LowVolumeMult = max(cfg.LowVolumeMult, 1)
	return &AdaptiveSmoother{cfg: cfg}
}

// Update moves the smoothed value toward target and returns it. The result
// always lies between the previous value and target.
func (s *AdaptiveSmoother) Update(target, volume float64) float64 {
	if target > s.value {
		s.value += (target - s.value) * s.cfg.Attack
		return s.value
	}
	s.value += (target - s.value) * s.decay(volume)
	return s.value
}

func (s *AdaptiveSmoother) decay(volume float64) float64 {
	if !s.cfg.Adaptive || s.cfg.LowVolumeThresh <= 0 || volume >= s.cfg.LowVolumeThresh {
		return s.cfg.Decay
	}
	volFactor := max(volume, 0) / s.cfg.LowVolumeThresh
	mult := 1 + (s.cfg.LowVolumeMult-1)*(1-volFactor)
	return s.cfg.Decay / mult
}

// Value returns the current smoothed value.
func (s *AdaptiveSmoother) Value() float64 { return s.value }

// Scale multiplies the current value by f, used for silence decay.
func (s *AdaptiveSmoother) Scale(f float64) float64 {
	s.value = snapToZero(s.value * f)
	return s.value
}

// Reset sets the value back to zero.
func (s *AdaptiveSmoother) Reset() { s.value = 0 }
