package output

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// 图例统一放在右侧滚动
var legendOpts = opts.Legend{
	Type:   "scroll",
	Orient: "vertical",
	Right:  "10",
	Top:    "20",
	Bottom: "20",
}

// newLine 创建统一风格的曲线图
func newLine(title, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithLegendOpts(legendOpts),
		charts.WithXAxisOpts(opts.XAxis{
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(true),
	)
	return line
}

// recordLine 一个输出类别的全部未知量曲线
func recordLine(category string, r *Record) *charts.Line {
	line := newLine(fmt.Sprintf("%s 曲线", category), "未知量随时间变化曲线")
	line.SetXAxis(r.Time)
	if len(r.Values) == 0 {
		return line
	}
	for i := range r.Values[0] {
		items := make([]opts.LineData, len(r.Time))
		for k, row := range r.Values {
			items[k].Value = row[i]
		}
		line.AddSeries(seriesName(r.Names, i), items)
	}
	return line
}

// steadyLine 稳态时域波形
func steadyLine(s *Steady) *charts.Line {
	line := newLine("谐波平衡时域波形", "一个周期内的稳态解")
	line.SetXAxis(s.TimePoints)
	for i := range s.Names {
		series := s.Series(i)
		items := make([]opts.LineData, len(series))
		for k, v := range series {
			items[k].Value = v
		}
		line.AddSeries(s.Names[i], items)
	}
	return line
}

// spectrumBar 单边幅度谱
func spectrumBar(s *Steady) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "谐波幅度谱",
			Subtitle: "直流与各次谐波幅值",
		}),
		charts.WithLegendOpts(legendOpts),
	)
	var freqs []float64
	for i, name := range s.Names {
		f, mags := s.Magnitude(i)
		freqs = f
		items := make([]opts.BarData, len(mags))
		for k, v := range mags {
			items[k].Value = v
		}
		bar.AddSeries(name, items)
	}
	bar.SetXAxis(freqs)
	return bar
}

func seriesName(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("x%d", i)
}

// RenderCharts 渲染 HTML 页面：各类别的瞬态曲线以及（若有）稳态波形与频谱
func RenderCharts(w io.Writer, m *Manager, s *Steady) error {
	page := components.NewPage()
	if m != nil {
		for _, c := range m.Categories() {
			page.AddCharts(recordLine(c, m.Get(c)))
		}
	}
	if s != nil {
		page.AddCharts(steadyLine(s), spectrumBar(s))
	}
	return page.Render(w)
}
