package sweep

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yyyoichi/completeness/internal/config"
)

// Batch is one rendered image of the sweep.
type Batch struct {
	// Index is the position in plan order and selects the random
	// sub-stream.
	Index      int
	SizeArcsec float64
	Magnitude  float64
	// Repeat counts from 1 within a (size, magnitude) pair.
	Repeat int
	// Dir is the batch directory relative to the output directory.
	Dir string
	// ID is the file stem shared by the image and its truth table.
	ID string
}

// Plan lists the batches of a sweep: magnitudes in the outer loop, sizes
// in the inner loop, then repeats.
func Plan(cfg *config.Config) []Batch {
	name := imageName(cfg.Image)
	var (
		batches []Batch
		index   int
	)
	for _, mag := range cfg.Magnitudes() {
		for _, size := range cfg.Sizes() {
			container := fmt.Sprintf("%s_%s-%s", name, padSize(size), formatNum(mag))
			for k := 1; k <= cfg.Repeats; k++ {
				num := fmt.Sprintf("%s_%d", name, k)
				batches = append(batches, Batch{
					Index:      index,
					SizeArcsec: size,
					Magnitude:  mag,
					Repeat:     k,
					Dir:        filepath.Join(container, num),
					ID:         fmt.Sprintf("%s_ag%s_%s", num, formatNum(size), formatNum(mag)),
				})
				index++
			}
		}
	}
	return batches
}

func (b Batch) ImagePath() string   { return filepath.Join(b.Dir, b.ID+".fits") }
func (b Batch) TruthPath() string   { return filepath.Join(b.Dir, b.ID+".csv") }
func (b Batch) CatalogPath() string { return filepath.Join(b.Dir, "output_cold_"+b.ID+".cat") }
func (b Batch) CheckPath() string   { return filepath.Join(b.Dir, "check_"+b.ID+".fits") }

func imageName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// padSize keeps the size label of a container at least two characters wide.
func padSize(size float64) string {
	s := formatNum(size)
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}

func formatNum(v float64) string {
	return fmt.Sprintf("%g", v)
}
