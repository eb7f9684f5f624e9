// export/plot.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fieldlength/takeoff/takeoff"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrEmptyPlot = errors.New("nothing to plot")

// Chart sizes.
var (
	PlotWidth  = 8 * vg.Inch
	PlotHeight = 5 * vg.Inch
)

var (
	continuedColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	abortedColor   = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	markerColor    = color.RGBA{A: 0xff}
)

// TraceChart names a time history chart and the quantity it shows.
type TraceChart struct {
	Name   string
	YLabel string
	Y      func(takeoff.Sample) float64
}

var TraceCharts = []TraceChart{
	{"distance", "distance (m)", func(s takeoff.Sample) float64 { return s.State[takeoff.Distance] }},
	{"speed", "speed (m/s)", func(s takeoff.Sample) float64 { return s.State[takeoff.Speed] }},
	{"altitude", "altitude (m)", func(s takeoff.Sample) float64 { return s.State[takeoff.Altitude] }},
	{"gamma", "flight path angle (deg)", func(s takeoff.Sample) float64 { return s.State[takeoff.Gamma] }},
	{"alpha", "angle of attack (deg)", func(s takeoff.Sample) float64 { return s.Alpha }},
	{"cl", "lift coefficient", func(s takeoff.Sample) float64 { return s.CL }},
	{"load-factor", "load factor", func(s takeoff.Sample) float64 { return s.LoadFactor }},
	{"forces", "force (N)", nil},
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
	}
	return pts
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, c color.Color, dashed bool) error {
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	l.LineStyle.Width = vg.Points(1.5)
	l.LineStyle.Color = c
	if dashed {
		l.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
	}
	p.Add(l)
	if name != "" {
		p.Legend.Add(name, l)
	}
	return nil
}

// PlotTrace draws one time history chart of a run.
func PlotTrace(tr takeoff.Trace, chart TraceChart) (*plot.Plot, error) {
	if len(tr) < 2 {
		return nil, ErrEmptyPlot
	}
	p := plot.New()
	p.Title.Text = chart.Name
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = chart.YLabel
	p.Add(plotter.NewGrid())

	ts := tr.Times()
	if chart.Y != nil {
		if err := addLine(p, "", xys(ts, tr.Column(chart.Y)), continuedColor, false); err != nil {
			return nil, err
		}
		return p, nil
	}

	for i, c := range []struct {
		name string
		y    func(takeoff.Sample) float64
	}{
		{"thrust", func(s takeoff.Sample) float64 { return s.Thrust }},
		{"drag", func(s takeoff.Sample) float64 { return s.Drag }},
		{"lift", func(s takeoff.Sample) float64 { return s.Lift }},
		{"friction", func(s takeoff.Sample) float64 { return s.Friction }},
	} {
		col := [...]color.Color{continuedColor, abortedColor, markerColor, color.Gray{Y: 0x80}}[i]
		if err := addLine(p, c.name, xys(ts, tr.Column(c.y)), col, false); err != nil {
			return nil, err
		}
	}
	p.Legend.Top = true
	return p, nil
}

// PlotBalancedField draws the fitted continued and aborted distance
// curves with the samples and the V1 intersection.
func PlotBalancedField(bf *takeoff.BalancedField) (*plot.Plot, error) {
	if len(bf.Curve) < 2 {
		return nil, ErrEmptyPlot
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("balanced field: V1 %.1f m/s, %.0f m", bf.V1, bf.Length)
	p.X.Label.Text = "failure speed (m/s)"
	p.Y.Label.Text = "distance (m)"
	p.Add(plotter.NewGrid())

	cont, abrt := make(plotter.XYs, len(bf.Curve)), make(plotter.XYs, len(bf.Curve))
	for i, c := range bf.Curve {
		cont[i] = plotter.XY{X: c.FailureSpeed, Y: c.Continued}
		abrt[i] = plotter.XY{X: c.FailureSpeed, Y: c.Aborted}
	}
	if err := addLine(p, "continued", cont, continuedColor, false); err != nil {
		return nil, err
	}
	if err := addLine(p, "aborted", abrt, abortedColor, true); err != nil {
		return nil, err
	}

	samples := make(plotter.XYs, 0, 2*len(bf.Samples))
	for _, s := range bf.Samples {
		samples = append(samples, plotter.XY{X: s.FailureSpeed, Y: s.Continued},
			plotter.XY{X: s.FailureSpeed, Y: s.Aborted})
	}
	sc, err := plotter.NewScatter(samples)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = markerColor
	sc.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(sc)

	v1, err := plotter.NewScatter(plotter.XYs{{X: bf.V1, Y: bf.Length}})
	if err != nil {
		return nil, err
	}
	v1.GlyphStyle.Color = markerColor
	v1.GlyphStyle.Radius = vg.Points(5)
	p.Add(v1)
	p.Legend.Add("V1", v1)
	p.Legend.Top = true
	return p, nil
}

// WritePlot renders p in the given format ("png", "svg", "pdf", ...).
func WritePlot(w io.Writer, p *plot.Plot, format string) error {
	wt, err := p.WriterTo(PlotWidth, PlotHeight, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePlots writes a PNG for every trace chart and, if bf is non-nil,
// the balanced field chart into dir. It returns the files written.
func SavePlots(dir, prefix string, tr takeoff.Trace, bf *takeoff.BalancedField) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var files []string
	save := func(name string, p *plot.Plot) error {
		path := filepath.Join(dir, strings.Join([]string{prefix, name}, "-")+".png")
		if err := p.Save(PlotWidth, PlotHeight, path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		files = append(files, path)
		return nil
	}

	for _, c := range TraceCharts {
		p, err := PlotTrace(tr, c)
		if err != nil {
			return files, fmt.Errorf("%s: %w", c.Name, err)
		}
		if err := save(c.Name, p); err != nil {
			return files, err
		}
	}
	if bf != nil {
		p, err := PlotBalancedField(bf)
		if err != nil {
			return files, err
		}
		if err := save("bfl", p); err != nil {
			return files, err
		}
	}
	return files, nil
}
