package hb

import (
	"errors"
	"fmt"

	"hbcircuit/maths"
	"hbcircuit/output"
)

// ErrNoSolution 尚无可输出的谐波平衡解
var ErrNoSolution = errors.New("没有谐波平衡解")

// Output 谐波平衡输出
type Output struct {
	TimePoints []float64          // N+1 个快速时间点
	FreqPoints []float64          // N 个频率点
	TimeDomain *maths.BlockVector // N 块，每块为全部未知量
	FreqReal   *maths.BlockVector // N 块，第 M 块为直流
	FreqImag   *maths.BlockVector
}

// PrepareOutput 由 ERF 解生成时域波形与按频率点分块的谐波系数
func (h *HB) PrepareOutput(solution maths.Vector) (Output, error) {
	if solution == nil || h.builder == nil {
		return Output{}, ErrNoSolution
	}
	if solution.Length() != h.builder.Size() {
		return Output{}, fmt.Errorf("解向量长度 %d, 期望 %d: %w", solution.Length(), h.builder.Size(), maths.ErrDimension)
	}
	freq := maths.AsBlockVector(solution, h.builder.Unknowns())
	re, im := h.transform.HarmonicBlocks(freq)
	return Output{
		TimePoints: append([]float64(nil), h.grid.Points...),
		FreqPoints: append([]float64(nil), h.grid.Freqs...),
		TimeDomain: h.transform.ToTime(freq),
		FreqReal:   re,
		FreqImag:   im,
	}, nil
}

// Steady 转换为与分析无关的结果数据
func (o Output) Steady(names []string) *output.Steady {
	n := o.TimeDomain.BlockCount()
	s := &output.Steady{
		Names:      names,
		TimePoints: o.TimePoints[:n],
		FreqPoints: o.FreqPoints,
		TimeDomain: rows(o.TimeDomain),
		FreqReal:   rows(o.FreqReal),
		FreqImag:   rows(o.FreqImag),
	}
	return s
}

func rows(bv *maths.BlockVector) [][]float64 {
	out := make([][]float64, bv.BlockCount())
	for i := range out {
		out[i] = append([]float64(nil), bv.Block(i).ToDense()...)
	}
	return out
}
