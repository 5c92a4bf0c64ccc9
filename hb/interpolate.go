package hb

import (
	"errors"
	"fmt"

	"hbcircuit/maths"
	"hbcircuit/tia"
)

// ErrInsufficientHistory 瞬态历史无法覆盖全部网格点
var ErrInsufficientHistory = errors.New("瞬态历史不足以覆盖均匀网格")

// GridPointIC 一个均匀网格点上的初值
type GridPointIC struct {
	Solution maths.Vector
	State    maths.Vector
	Charge   maths.Vector
	Store    maths.Vector
}

// IrregularHistory 按时间递增的瞬态历史
type IrregularHistory []tia.HistoryPoint

// Interpolate 将不规则瞬态历史线性插值到 targets（不含闭合点）。
// 每个目标点 t 取满足 t_i ≤ t < t_{i+1} 的区间 i，零宽区间不会被选中；
// 任一目标点无法定位时返回 ErrInsufficientHistory。
// 插值完成后历史中的向量被释放。
func Interpolate(history IrregularHistory, targets []float64) ([]GridPointIC, error) {
	n := len(targets)
	if n == 0 {
		return nil, nil
	}
	if len(history) < 2 {
		return nil, fmt.Errorf("%d 个历史点: %w", len(history), ErrInsufficientHistory)
	}
	good := make([]int, 0, n)
	idx := 0
	for i := 0; i+1 < len(history); i++ {
		for idx < n && history[i].Time <= targets[idx] && targets[idx] < history[i+1].Time {
			good = append(good, i)
			idx++
		}
	}
	if len(good) < n {
		return nil, fmt.Errorf("仅定位到 %d/%d 个网格点，历史范围 [%g, %g]: %w",
			len(good), n, history[0].Time, history[len(history)-1].Time, ErrInsufficientHistory)
	}

	ic := make([]GridPointIC, n)
	for i, lo := range good {
		a, b := history[lo], history[lo+1]
		f := (targets[i] - a.Time) / (b.Time - a.Time)
		ic[i] = GridPointIC{
			Solution: lerp(a.Solution, b.Solution, f),
			State:    lerp(a.State, b.State, f),
			Charge:   lerp(a.Charge, b.Charge, f),
			Store:    lerp(a.Store, b.Store, f),
		}
	}
	clear(history)
	return ic, nil
}

func lerp(lo, hi maths.Vector, f float64) maths.Vector {
	if lo == nil || hi == nil {
		return nil
	}
	out := maths.NewDenseVector(lo.Length())
	maths.LerpVector(out, lo, hi, f)
	return out
}
