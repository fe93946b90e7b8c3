package dsp

import "math"

// CompressorConfig holds soft-knee compressor parameters.
type CompressorConfig struct {
	Enabled   bool
	Threshold float64
	Ratio     float64
	Knee      float64 // Half-width of the knee around Threshold
	Makeup    float64
}

// DefaultCompressorConfig returns the tuned defaults.
func DefaultCompressorConfig() CompressorConfig {
	return CompressorConfig{
		Enabled:   true,
		Threshold: 0.25,
		Ratio:     2.5,
		Knee:      0.15,
		Makeup:    1.4,
	}
}

// Compressor is a stateless soft-knee dynamics compressor for values in
// [0, 1].
//
// Inside the knee the effective ratio grows quadratically with the position
// in the knee, from 1 at its start to Ratio at its end, and is applied as the
// local slope of the transfer curve. Above the knee the curve continues with
// slope 1/Ratio. Makeup gain scales everything above the knee start, so the
// curve is the identity below the knee and continuous everywhere.
type Compressor struct {
	cfg     CompressorConfig
	start   float64
	width   float64
	kneeOut float64 // Compressed excess at the end of the knee
}

// NewCompressor returns a compressor. A ratio below 1 is treated as 1.
func NewCompressor(cfg CompressorConfig) *Compressor {
	cfg.Ratio = max(cfg.Ratio, 1)
	cfg.Knee = max(cfg.Knee, 0)
	cfg.Makeup = max(cfg.Makeup, 0)

	c := &Compressor{
		cfg:   cfg,
		start: cfg.Threshold - cfg.Knee,
		width: 2 * cfg.Knee,
	}
	c.kneeOut = c.kneeCurve(c.width)
	return c
}

// kneeCurve integrates 1/(1 + (ratio-1)·p²) over the first x of the knee,
// where p is the normalized knee position.
func (c *Compressor) kneeCurve(x float64) float64 {
	if c.width == 0 {
		return 0
	}
	if c.cfg.Ratio == 1 {
		return x
	}
	s := math.Sqrt(c.cfg.Ratio - 1)
	return c.width / s * math.Atan(s*x/c.width)
}

// Process compresses value, applies makeup gain and clamps to [0, 1].
// Disabled compressors return value unchanged.
func (c *Compressor) Process(value float64) float64 {
	if !c.cfg.Enabled {
		return value
	}
	if value <= 0 {
		return 0
	}
	if value <= c.start {
		return value
	}

	excess := value - c.start
	var out float64
	if excess < c.width {
		out = c.kneeCurve(excess)
	} else {
		out = c.kneeOut + (excess-c.width)/c.cfg.Ratio
	}

	return clamp(c.start+out*c.cfg.Makeup, 0, 1)
}
