// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package plot renders diagnostic figures of a gap search.
package plot

import (
	"errors"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/rditech/rdi-repair/data"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	inlierColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	outlierColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	trendColor   = color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff}
)

const histBins = 50

// WriteGapDiagnostics draws the standardized frame intervals of det, with
// the intervals flagged as gaps in red, above a histogram of the same
// values, and encodes the figure as PNG.
func WriteGapDiagnostics(w io.Writer, det *data.Detection) error {
	if det == nil || len(det.Standardized) == 0 {
		return errors.New("no intervals to plot")
	}

	series, err := seriesPlot(det)
	if err != nil {
		return err
	}
	hist, err := histPlot(det)
	if err != nil {
		return err
	}

	img := vgimg.New(6*vg.Inch, 6*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Points(4)}
	canvases := plot.Align([][]*plot.Plot{{series}, {hist}}, tiles, dc)
	series.Draw(canvases[0][0])
	hist.Draw(canvases[1][0])

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	return encoder.Encode(w, img.Image())
}

func seriesPlot(det *data.Detection) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, err
	}
	p.Title.Text = "Frame intervals"
	p.X.Label.Text = "interval"
	p.Y.Label.Text = "standardized interval"
	p.X.Tick.Marker = RollTicks{NSuggestedTicks: 5}
	p.Add(plotter.NewGrid())

	outlier := make(map[int]bool, len(det.Outliers))
	for _, i := range det.Outliers {
		outlier[i] = true
	}
	var in, out plotter.XYs
	for i, z := range det.Standardized {
		pt := plotter.XY{X: float64(i), Y: z}
		if outlier[i] {
			out = append(out, pt)
		} else {
			in = append(in, pt)
		}
	}

	trend := make(plotter.XYs, len(det.Standardized))
	for i, z := range smooth(det.Standardized, 0.05) {
		trend[i] = plotter.XY{X: float64(i), Y: z}
	}
	line, err := plotter.NewLine(trend)
	if err != nil {
		return nil, err
	}
	line.Color = trendColor
	p.Add(line)

	for _, set := range []struct {
		xys   plotter.XYs
		color color.Color
		shape draw.GlyphDrawer
		name  string
	}{
		{in, inlierColor, draw.CircleGlyph{}, "cadence"},
		{out, outlierColor, draw.CrossGlyph{}, "gap"},
	} {
		if len(set.xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(set.xys)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = set.color
		s.GlyphStyle.Shape = set.shape
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
		p.Legend.Add(set.name, s)
	}
	p.Legend.Top = true
	return p, nil
}

func histPlot(det *data.Detection) (*plot.Plot, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, z := range det.Standardized {
		lo = math.Min(lo, z)
		hi = math.Max(hi, z)
	}
	pad := 0.05 * (hi - lo)
	if pad == 0 {
		pad = 1
	}

	hb := hbook.NewH1D(histBins, lo-pad, hi+pad)
	for _, z := range det.Standardized {
		hb.Fill(z, 1)
	}

	p, err := plot.New()
	if err != nil {
		return nil, err
	}
	hp := &hplot.Plot{
		Plot:  p,
		Style: hplot.DefaultStyle,
	}
	hp.Title.Text = "Interval distribution"
	hp.X.Label.Text = "standardized interval"
	hp.Y.Label.Text = "entries"
	hp.Y.Tick.Marker = LogTicks{}
	hp.Y.Scale = &FuncScale{Func: Log10Min1}

	h := hplot.NewH1D(hb)
	h.Infos.Style = hplot.HInfoMean | hplot.HInfoStdDev
	hp.Add(h)
	hp.Add(hplot.NewGrid())
	return p, nil
}
