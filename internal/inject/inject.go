// Package inject places synthetic galaxies at random valid positions of a
// base image.
package inject

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/yyyoichi/completeness/internal/field"
	"github.com/yyyoichi/completeness/internal/profile"
	"github.com/yyyoichi/completeness/internal/truth"
)

// SourcesPerBatch is the number of galaxies rendered onto each image.
const SourcesPerBatch = 3

var ErrNoFinitePixels = errors.New("base image has no finite pixels")

// Stream returns the random sub-stream of one batch. The PCG state is
// seeded with (seed XOR batchIndex, seed), so a batch draws the same
// positions no matter which order or goroutine it runs in.
func Stream(seed uint64, batchIndex int) *rand.Rand {
	return rand.New(rand.NewPCG(seed^uint64(batchIndex), seed))
}

// CheckFinite fails when no pixel of f can host a source. Rejection
// sampling would never terminate on such an image.
func CheckFinite(f *field.Field) error {
	for y := range f.Height() {
		for x := range f.Width() {
			if f.Finite(x, y) {
				return nil
			}
		}
	}
	return ErrNoFinitePixels
}

type Injector struct {
	cal profile.Calibration
}

func New(cal profile.Calibration) *Injector {
	return &Injector{cal: cal}
}

// Inject renders SourcesPerBatch galaxies of the same size and magnitude
// onto a copy of base. The sources accumulate on one image. base is only
// read; the caller must have checked it with CheckFinite.
func (in *Injector) Inject(ctx context.Context, base *field.Field, rng *rand.Rand, sizeArcsec, magnitude float64) (*field.Field, []truth.Source, error) {
	model, err := profile.New(sizeArcsec, magnitude, in.cal)
	if err != nil {
		return nil, nil, err
	}

	img := base.Copy()
	sources := make([]truth.Source, 0, SourcesPerBatch)
	for i := range SourcesPerBatch {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		x, y := position(base, rng)
		model.Render(img, float64(x), float64(y))
		sources = append(sources, truth.Source{
			Index:      i + 1,
			X:          float64(x),
			Y:          float64(y),
			Flux:       model.Flux,
			Magnitude:  magnitude,
			SizeArcsec: sizeArcsec,
			SizePx:     model.ScalePx,
			FWHM:       model.FWHM,
		})
	}
	return img, sources, nil
}

// position draws pixel coordinates until the base pixel there is finite.
func position(base *field.Field, rng *rand.Rand) (x, y int) {
	for {
		x = rng.IntN(base.Width())
		y = rng.IntN(base.Height())
		if base.Finite(x, y) {
			return x, y
		}
	}
}
