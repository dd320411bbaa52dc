// Package rates turns per-source match outcomes into detection rates on the
// size by magnitude grid.
package rates

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/yyyoichi/completeness/internal/store"
)

// Cell is the detection rate of one (size, magnitude) pair.
type Cell struct {
	SizeArcsec float64
	Magnitude  float64
	Injected   int
	Recovered  int
	Rate       float64
	// StdErr is the binomial standard error of Rate.
	StdErr float64
}

type cellKey struct {
	size, mag float64
}

// Aggregate groups outcomes by (size, magnitude). Cells are ordered by
// magnitude, then size.
func Aggregate(outcomes []store.Outcome) []Cell {
	groups := make(map[cellKey][]float64)
	for _, o := range outcomes {
		k := cellKey{o.SizeArcsec, o.Magnitude}
		groups[k] = append(groups[k], float64(o.Matches))
	}

	cells := make([]Cell, 0, len(groups))
	for k, m := range groups {
		cells = append(cells, newCell(k, m))
	}
	slices.SortFunc(cells, func(a, b Cell) int {
		if c := cmp.Compare(a.Magnitude, b.Magnitude); c != 0 {
			return c
		}
		return cmp.Compare(a.SizeArcsec, b.SizeArcsec)
	})
	return cells
}

func newCell(k cellKey, matches []float64) Cell {
	// match counts are 0 or 1, so their sum is the recovered count
	recovered := int(floats.Sum(matches))
	n := float64(len(matches))
	p := stat.Mean(matches, nil)
	return Cell{
		SizeArcsec: k.size,
		Magnitude:  k.mag,
		Injected:   len(matches),
		Recovered:  recovered,
		Rate:       p,
		StdErr:     math.Sqrt(p * (1 - p) / n),
	}
}
