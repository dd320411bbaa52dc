package rates

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var Columns = []string{"size_arcsec", "magnitude", "injected", "recovered", "rate", "stderr"}

// WriteCSV writes one row per cell.
func WriteCSV(w io.Writer, cells []Cell) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, c := range cells {
		row := []string{
			formatFloat(c.SizeArcsec),
			formatFloat(c.Magnitude),
			strconv.Itoa(c.Injected),
			strconv.Itoa(c.Recovered),
			formatFloat(c.Rate),
			formatFloat(c.StdErr),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHeatmap renders the detection rate (%) as an HTML heatmap with size
// on the x axis and magnitude on the y axis.
func WriteHeatmap(w io.Writer, cells []Cell) error {
	var sizes, mags []float64
	for _, c := range cells {
		sizes = append(sizes, c.SizeArcsec)
		mags = append(mags, c.Magnitude)
	}
	slices.Sort(sizes)
	slices.Sort(mags)
	sizes = slices.Compact(sizes)
	mags = slices.Compact(mags)

	var xLabels, yLabels []string
	for _, s := range sizes {
		xLabels = append(xLabels, fmt.Sprintf("%g\"", s))
	}
	for _, m := range mags {
		yLabels = append(yLabels, fmt.Sprintf("%g", m))
	}

	var data []opts.HeatMapData
	for _, c := range cells {
		data = append(data, opts.HeatMapData{
			Value: [3]any{
				slices.Index(sizes, c.SizeArcsec),
				slices.Index(mags, c.Magnitude),
				c.Rate * 100,
			},
		})
	}

	heatmap := charts.NewHeatMap()
	heatmap.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Detection Rate",
			Subtitle: "Recovered injected sources (%) per size and magnitude",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "Size (arcsec)",
			Type:      "category",
			Data:      xLabels,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "Magnitude",
			Type:      "category",
			Data:      yLabels,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        100,
			Range:      []float32{0, 100},
			InRange:    &opts.VisualMapInRange{Color: []string{"#313695", "#74add1", "#fee090", "#f46d43", "#a50026"}},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	heatmap.AddSeries("Detection Rate", data)
	return heatmap.Render(w)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
