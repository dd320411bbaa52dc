package completeness_test

import (
	"context"
	"fmt"

	"github.com/yyyoichi/completeness"
)

func Example_match() {
	sources := []completeness.Source{
		{Index: 1, X: 50, Y: 50, SizePx: 4, FWHM: 8},
		{Index: 2, X: 10, Y: 90, SizePx: 4, FWHM: 8},
	}
	detections := []completeness.Detection{
		{ID: 1, X: 55, Y: 52, FWHM: 10, MagAuto: -9.2},
		{ID: 2, X: 53, Y: 49, FWHM: 3, MagAuto: -7.5},
	}

	for _, rec := range completeness.Match(sources, detections, 100) {
		if rec.Candidate == nil {
			fmt.Printf("source %d: no candidate\n", rec.Source.Index)
			continue
		}
		fmt.Printf("source %d: detection %d at %.2f px, matches=%d\n",
			rec.Source.Index, rec.Candidate.ID, rec.Distance, rec.Matches)
	}

	// Output:
	// source 1: detection 1 at 5.39 px, matches=1
	// source 2: no candidate
}

func Example_inject() {
	base, err := completeness.NewField(200, 200, make([]float64, 200*200))
	if err != nil {
		fmt.Printf("Error creating field: %v\n", err)
		return
	}

	in, err := completeness.New(
		completeness.WithPixelScale(0.13),
		completeness.WithSeed(42),
	)
	if err != nil {
		fmt.Printf("Error creating injector: %v\n", err)
		return
	}

	img, sources, err := in.InjectBatch(context.Background(), base, 0, 2, 24)
	if err != nil {
		fmt.Printf("Error injecting: %v\n", err)
		return
	}

	fmt.Println(len(sources), img.Width(), img.Height())
	fmt.Printf("fwhm=%.3f px\n", sources[0].FWHM)

	// Output:
	// 3 200 200
	// fwhm=21.328 px
}
