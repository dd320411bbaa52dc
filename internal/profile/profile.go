// Package profile models the light distribution of a synthetic diffuse
// galaxy as an exponential disk.
package profile

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/yyyoichi/completeness/internal/field"
)

const (
	DefaultReferenceMagnitude = 26.2299
	DefaultPixelScale         = 0.13
)

var ErrInvalidSize = errors.New("profile scale must be positive")

// Calibration converts user units to pixels and magnitudes to flux.
type Calibration struct {
	// ReferenceMagnitude is the zero point C in m = C - 2.5 log10(F).
	ReferenceMagnitude float64
	// PixelScale is B, arcsec per pixel.
	PixelScale float64
}

func DefaultCalibration() Calibration {
	return Calibration{
		ReferenceMagnitude: DefaultReferenceMagnitude,
		PixelScale:         DefaultPixelScale,
	}
}

// Model is an exponential disk I(r) = flux/(2π s²) · exp(-r/s).
type Model struct {
	SizeArcsec float64
	Magnitude  float64
	// ScalePx is the scale length s in pixels.
	ScalePx float64
	Flux    float64
	FWHM    float64
}

func New(sizeArcsec, magnitude float64, cal Calibration) (Model, error) {
	if cal.PixelScale <= 0 || math.IsNaN(cal.PixelScale) {
		return Model{}, fmt.Errorf("%w: pixel scale %v", ErrInvalidSize, cal.PixelScale)
	}
	s := sizeArcsec / cal.PixelScale
	if !(s > 0) || math.IsInf(s, 0) {
		return Model{}, fmt.Errorf("%w: size %v arcsec", ErrInvalidSize, sizeArcsec)
	}
	return Model{
		SizeArcsec: sizeArcsec,
		Magnitude:  magnitude,
		ScalePx:    s,
		Flux:       math.Pow(10, (cal.ReferenceMagnitude-magnitude)/2.5),
		FWHM:       -2 * s * math.Log(0.5),
	}, nil
}

// Intensity is the surface brightness at radius r pixels from the center.
func (m Model) Intensity(r float64) float64 {
	return m.Flux / (2 * math.Pi * m.ScalePx * m.ScalePx) * math.Exp(-r/m.ScalePx)
}

// Render adds the profile centered on (cx, cy) to every pixel of f.
// Non-finite pixels stay non-finite.
func (m Model) Render(f *field.Field, cx, cy float64) {
	var (
		w, h  = f.Width(), f.Height()
		px    = f.Pixels()
		amp   = m.Flux / (2 * math.Pi * m.ScalePx * m.ScalePx)
		scale = m.ScalePx
		parts = min(runtime.GOMAXPROCS(0), h)
		rows  = (h + parts - 1) / parts
	)
	// Rows are independent, so the result does not depend on scheduling.
	var wg sync.WaitGroup
	for start := 0; start < h; start += rows {
		end := min(start+rows, h)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for y := start; y < end; y++ {
				dy := float64(y) - cy
				row := px[y*w : (y+1)*w : (y+1)*w]
				for x := range row {
					dx := float64(x) - cx
					row[x] += amp * math.Exp(-math.Sqrt(dx*dx+dy*dy)/scale)
				}
			}
		}(start, end)
	}
	wg.Wait()
}
