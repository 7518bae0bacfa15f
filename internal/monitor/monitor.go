// Package monitor renders pipeline diagnostics: per-channel validity plots
// and catalog summary reports. Diagnostics are informational only and never
// gate pipeline decisions.
package monitor

import (
	"fmt"
	"io"
	"math"

	"github.com/ctessum/sparse"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cumulus-data/swath.report/internal/catalog"
	"github.com/cumulus-data/swath.report/internal/swath"
)

// ChannelValidity returns the fraction of non-NaN pixels per channel.
func ChannelValidity(grid *sparse.DenseArray) ([]float64, error) {
	channels, rows, cols, err := swath.GridDims(grid)
	if err != nil {
		return nil, err
	}
	plane := rows * cols
	fractions := make([]float64, channels)
	for ch := 0; ch < channels; ch++ {
		valid := 0
		for _, v := range grid.Elements[ch*plane : (ch+1)*plane] {
			if !math.IsNaN(v) {
				valid++
			}
		}
		fractions[ch] = float64(valid) / float64(plane)
	}
	return fractions, nil
}

// TensorValidity returns the fraction of non-NaN values per channel of a
// fused tensor. Channels the gap filler could not rescue keep their NaNs
// through stacking, so this exposes what went unfilled.
func TensorValidity(t *swath.Tensor) []float64 {
	plane := t.Rows * t.Cols
	fractions := make([]float64, t.Channels)
	for ch := 0; ch < t.Channels; ch++ {
		valid := 0
		for _, v := range t.ChannelSlice(ch) {
			if v == v { // not NaN
				valid++
			}
		}
		fractions[ch] = float64(valid) / float64(plane)
	}
	return fractions
}

// PlotChannelValidity saves a bar chart of per-channel valid-pixel fractions
// to path. The image format follows the path extension.
func PlotChannelValidity(path string, grid *sparse.DenseArray) error {
	fractions, err := ChannelValidity(grid)
	if err != nil {
		return err
	}
	return PlotValidity(path, fractions)
}

// PlotValidity saves a bar chart of the given per-channel fractions to path.
func PlotValidity(path string, fractions []float64) error {
	p := plot.New()
	p.Title.Text = "Channel validity"
	p.Y.Label.Text = "valid pixel fraction"
	p.Y.Min, p.Y.Max = 0, 1

	bars, err := plotter.NewBarChart(plotter.Values(fractions), vg.Points(12))
	if err != nil {
		return fmt.Errorf("building validity chart: %w", err)
	}
	p.Add(bars)

	labels := make([]string, len(fractions))
	for i := range labels {
		labels[i] = fmt.Sprintf("%d", i)
	}
	p.NominalX(labels...)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving validity chart %s: %w", path, err)
	}
	return nil
}

// WriteCatalogReport renders an HTML summary of the extraction catalog: the
// per-tag swath distribution and the labelled/unlabelled tile totals.
func WriteCatalogReport(w io.Writer, dist []catalog.TagCount, labelled, unlabelled int) error {
	tags := make([]string, len(dist))
	counts := make([]opts.BarData, len(dist))
	for i, tc := range dist {
		tags[i] = tc.Tag
		counts[i] = opts.BarData{Value: tc.Count}
	}

	swaths := charts.NewBar()
	swaths.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Extracted swaths", Subtitle: "per usability tag"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	swaths.SetXAxis(tags).AddSeries("swaths", counts)

	tiles := charts.NewBar()
	tiles.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Sample tiles"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	tiles.SetXAxis([]string{"labelled", "unlabelled"}).
		AddSeries("tiles", []opts.BarData{{Value: labelled}, {Value: unlabelled}})

	page := components.NewPage()
	page.AddCharts(swaths, tiles)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("rendering catalog report: %w", err)
	}
	return nil
}
