package output

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 3 * vg.Inch
)

// WaveformPNG 绘制第 i 个未知量一个周期内的稳态波形
func WaveformPNG(w io.Writer, s *Steady, i int) error {
	if i < 0 || i >= len(s.Names) {
		return fmt.Errorf("未知量索引越界: %d", i)
	}
	p := plot.New()
	p.Title.Text = s.Names[i]
	p.X.Label.Text = "t (s)"
	series := s.Series(i)
	pts := make(plotter.XYs, len(series))
	for k := range pts {
		pts[k].X, pts[k].Y = s.TimePoints[k], series[k]
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(l, plotter.NewGrid())
	return writePNG(w, p)
}

// SpectrumPNG 绘制第 i 个未知量的单边幅度谱
func SpectrumPNG(w io.Writer, s *Steady, i int) error {
	if i < 0 || i >= len(s.Names) {
		return fmt.Errorf("未知量索引越界: %d", i)
	}
	p := plot.New()
	p.Title.Text = s.Names[i] + " spectrum"
	p.X.Label.Text = "harmonic"
	_, mags := s.Magnitude(i)
	bars, err := plotter.NewBarChart(plotter.Values(mags), vg.Points(12))
	if err != nil {
		return err
	}
	p.Add(bars, plotter.NewGrid())
	return writePNG(w, p)
}

func writePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
