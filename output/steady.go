package output

import "math/cmplx"

// Steady 谐波平衡稳态结果（与分析实现无关的纯数据）
type Steady struct {
	Names      []string    // 未知量名称
	TimePoints []float64   // 一个周期内的采样时间（N 个）
	FreqPoints []float64   // 频率点（N 个，负频率在前）
	TimeDomain [][]float64 // [时间点][未知量]
	FreqReal   [][]float64 // [谐波][未知量] 实部
	FreqImag   [][]float64 // [谐波][未知量] 虚部
}

// Phasor 第 k 个频率点、第 i 个未知量的复数幅值
func (s *Steady) Phasor(k, i int) complex128 {
	return complex(s.FreqReal[k][i], s.FreqImag[k][i])
}

// Magnitude 单边幅度谱：直流取 |X0|，其余取 2|Xk|
func (s *Steady) Magnitude(i int) (freqs, mags []float64) {
	m := (len(s.FreqPoints) - 1) / 2
	for k := m; k < len(s.FreqPoints); k++ {
		a := cmplx.Abs(s.Phasor(k, i))
		if k > m {
			a *= 2
		}
		freqs = append(freqs, s.FreqPoints[k])
		mags = append(mags, a)
	}
	return freqs, mags
}

// Series 第 i 个未知量的时域波形
func (s *Steady) Series(i int) []float64 {
	out := make([]float64, len(s.TimeDomain))
	for k, row := range s.TimeDomain {
		out[k] = row[i]
	}
	return out
}
