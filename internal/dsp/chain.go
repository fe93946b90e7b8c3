package dsp

// DefaultBandShapes returns the tuned per-band boost and expansion, indexed
// by Band.
func DefaultBandShapes() [numBands]BandShape {
	return [numBands]BandShape{
		Percussion: {Boost: 1.4, Expansion: 1.2, Floor: 0.1, Ceiling: 1.3},
		Bass:       {Boost: 1.2, Expansion: 1.0, Floor: 0.1, Ceiling: 1.4},
		Melody:     {Boost: 1.7, Expansion: 1.4, Floor: 0.1, Ceiling: 1.3},
	}
}

// BandChain shapes one normalized band value per frame: response curve,
// boost and expansion, compression, then adaptive smoothing. The dynamic
// floor is shared between bands and applied by the caller.
type BandChain struct {
	curve    Curve
	shape    BandShape
	comp     *Compressor
	smoother *AdaptiveSmoother
}

// NewBandChain returns a chain. The compressor may be shared between chains.
func NewBandChain(curve Curve, shape BandShape, comp *Compressor, smoothing SmootherConfig) *BandChain {
	return &BandChain{
		curve:    curve,
		shape:    shape,
		comp:     comp,
		smoother: NewAdaptiveSmoother(smoothing),
	}
}

// Process runs normalized through the chain and returns the smoothed value.
// volume drives the adaptive decay.
func (c *BandChain) Process(normalized, volume float64) float64 {
	v := c.curve.Apply(normalized)
	v = c.shape.Shape(v)
	v = c.comp.Process(v)
	return c.smoother.Update(min(v, 1), volume)
}

// Value returns the current smoothed value.
func (c *BandChain) Value() float64 { return c.smoother.Value() }

// Decay scales the smoothed value by factor.
func (c *BandChain) Decay(factor float64) float64 { return c.smoother.Scale(factor) }

// Reset clears the smoother.
func (c *BandChain) Reset() { c.smoother.Reset() }
