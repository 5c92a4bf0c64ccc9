package hb

import "fmt"

// TimeGrid 一个周期内的均匀采样时间与对称频率点
type TimeGrid struct {
	Points []float64 // N+1 个时间点，最后一个为闭合点 t0+period
	Freqs  []float64 // N 个频率点 (k-M)/period，负频率在前
	Period float64
}

// NewTimeGrid 以 t0 为起点构建 n 点网格
func NewTimeGrid(t0, period float64, n int) (TimeGrid, error) {
	if n < 1 || !(period > 0) {
		return TimeGrid{}, fmt.Errorf("非法网格: n=%d period=%g", n, period)
	}
	g := TimeGrid{
		Points: make([]float64, n+1),
		Freqs:  make([]float64, n),
		Period: period,
	}
	step := period / float64(n)
	for i := 0; i < n; i++ {
		g.Points[i] = t0 + float64(i)*step
	}
	g.Points[n] = t0 + period
	m := (n - 1) / 2
	for k := 0; k < n; k++ {
		g.Freqs[k] = float64(k-m) / period
	}
	return g, nil
}

// Size 频率点数 N
func (g TimeGrid) Size() int { return len(g.Freqs) }

// Samples 不含闭合点的 N 个采样时间
func (g TimeGrid) Samples() []float64 { return g.Points[:len(g.Freqs)] }
