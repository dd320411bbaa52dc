// Package match correlates injected sources with detector output.
package match

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/yyyoichi/completeness/internal/catalog"
	"github.com/yyyoichi/completeness/internal/truth"
)

const (
	// lowerFWHMRatio times the injected FWHM is the exclusive lower bound
	// on a recovered FWHM.
	lowerFWHMRatio = 0.5
	// upperFWHMRatio times the image size is the inclusive upper bound.
	upperFWHMRatio = 0.25
)

// Record is the outcome for one injected source.
type Record struct {
	Source truth.Source
	// Candidate is the chosen detection, nil when none was in range.
	Candidate *catalog.Detection
	// Distance in pixels; meaningful only with a Candidate.
	Distance float64
	// OutOfRange is set when a candidate exists but its FWHM fails the
	// range check.
	OutOfRange bool
	// Matches is 1 for a recovered source, 0 otherwise.
	Matches int
}

func (r Record) Recovered() bool { return r.Matches == 1 }

// Radius is the search radius around a source in an image whose smaller
// side is imgSize pixels. The pixel size is rounded half to even.
func Radius(s truth.Source, imgSize int) float64 {
	return float64(imgSize)/4 + math.RoundToEven(s.SizePx)
}

// Match returns one Record per source, in order. Sources are matched
// independently, so one detection can be the best candidate of several
// sources.
//
// Among detections strictly closer than Radius with a known FWHM, the one
// with the largest FWHM wins (first in catalog order on ties). It counts as
// recovered when 0.5·source FWHM < FWHM ≤ 0.25·imgSize.
func Match(sources []truth.Source, detections []catalog.Detection, imgSize int) []Record {
	var (
		records = make([]Record, 0, len(sources))
		upper   = float64(imgSize) * upperFWHMRatio
	)
	for _, s := range sources {
		rec := Record{Source: s}
		n := Radius(s, imgSize)
		at := r2.Vec{X: s.X, Y: s.Y}

		best := -1
		for i := range detections {
			d := r2.Norm(r2.Sub(r2.Vec{X: detections[i].X, Y: detections[i].Y}, at))
			if !(d < n) || math.IsNaN(detections[i].FWHM) {
				continue
			}
			if best < 0 || detections[i].FWHM > detections[best].FWHM {
				best = i
				rec.Distance = d
			}
		}

		if best >= 0 {
			cand := detections[best]
			rec.Candidate = &cand
			if cand.FWHM > lowerFWHMRatio*s.FWHM && cand.FWHM <= upper {
				rec.Matches = 1
			} else {
				rec.OutOfRange = true
			}
		}
		records = append(records, rec)
	}
	return records
}
