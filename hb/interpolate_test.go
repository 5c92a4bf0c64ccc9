package hb

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hbcircuit/maths"
	"hbcircuit/tia"
)

func point(t, v float64) tia.HistoryPoint {
	vec := func() maths.Vector { return maths.NewDenseVectorWithData([]float64{v, 2 * v}) }
	return tia.HistoryPoint{Time: t, Solution: vec(), State: vec(), Charge: vec(), Store: vec()}
}

func TestInterpolateExactSamples(t *testing.T) {
	g, err := NewTimeGrid(0, 1, 5)
	require.NoError(t, err)
	var h IrregularHistory
	for _, tp := range g.Points {
		h = append(h, point(tp, 10*tp))
	}
	ic, err := Interpolate(h, g.Samples())
	require.NoError(t, err)
	require.Len(t, ic, 5)
	for i, p := range ic {
		assert.InDelta(t, 10*g.Points[i], p.Solution.Get(0), 1e-12)
		assert.InDelta(t, 20*g.Points[i], p.Store.Get(1), 1e-12)
	}
}

func TestInterpolateIrregular(t *testing.T) {
	h := IrregularHistory{point(0, 0), point(0.3, 3), point(0.35, 1), point(0.9, 9), point(1, 0)}
	ic, err := Interpolate(h, []float64{0, 0.25, 0.5, 0.75})
	require.NoError(t, err)
	assert.InDelta(t, 0, ic[0].Solution.Get(0), 1e-12)
	assert.InDelta(t, 2.5, ic[1].Solution.Get(0), 1e-12)
	// 0.5 位于 [0.35, 0.9]
	assert.InDelta(t, 1+8*(0.15/0.55), ic[2].Solution.Get(0), 1e-12)
	assert.InDelta(t, 1+8*(0.4/0.55), ic[3].Charge.Get(0), 1e-12)

	// 插值结果位于相邻样本之间
	for i, p := range ic {
		assert.GreaterOrEqual(t, p.Solution.Get(0), -1e-12, "point %d", i)
		assert.LessOrEqual(t, p.Solution.Get(0), 9+1e-12, "point %d", i)
	}
	for _, hp := range h {
		assert.Nil(t, hp.Solution, "history released")
	}
}

func TestInterpolateInsufficientHistory(t *testing.T) {
	_, err := Interpolate(IrregularHistory{point(0, 0)}, []float64{0, 0.5})
	assert.True(t, errors.Is(err, ErrInsufficientHistory))

	// 历史只覆盖半个周期
	h := IrregularHistory{point(0, 0), point(0.2, 1), point(0.45, 2)}
	_, err = Interpolate(h, []float64{0, 0.25, 0.5, 0.75})
	assert.True(t, errors.Is(err, ErrInsufficientHistory))
}

func TestInterpolateSkipsZeroWidthInterval(t *testing.T) {
	// 断点处重复的时间戳
	h := IrregularHistory{point(0, 1), point(0, 2), point(0.5, 3), point(1, 4)}
	ic, err := Interpolate(h, []float64{0, 0.5})
	require.NoError(t, err)
	assert.Equal(t, 2.0, ic[0].Solution.Get(0))
	assert.Equal(t, 3.0, ic[1].Solution.Get(0))
	for _, p := range ic {
		assert.False(t, math.IsNaN(p.Solution.Get(1)))
	}
}

func TestInterpolateHistoryStartsLate(t *testing.T) {
	h := IrregularHistory{point(0.4, 4), point(0.7, 7), point(1.2, 12)}
	_, err := Interpolate(h, []float64{0, 0.5})
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}
