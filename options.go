package completeness

import (
	"fmt"
	"math"
)

type Option func(*Injector) error

// WithReferenceMagnitude sets the magnitude C whose flux is 1, so that
// flux = 10^((C - magnitude) / 2.5).
func WithReferenceMagnitude(c float64) Option {
	return func(in *Injector) error {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("reference magnitude %v", c)
		}
		in.cal.ReferenceMagnitude = c
		return nil
	}
}

// WithPixelScale sets the detector pixel scale in arcsec per pixel.
func WithPixelScale(b float64) Option {
	return func(in *Injector) error {
		if !(b > 0) || math.IsInf(b, 0) {
			return fmt.Errorf("pixel scale %v must be > 0", b)
		}
		in.cal.PixelScale = b
		return nil
	}
}

// WithSeed sets the seed every batch sub-stream is derived from.
func WithSeed(seed uint64) Option {
	return func(in *Injector) error {
		in.seed = seed
		return nil
	}
}
