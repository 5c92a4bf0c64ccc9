package hb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"hbcircuit/maths"
)

// 1 + 2cos(θ) + 0.5sin(2θ)，θ = 2πi/7
func toneSamples(n int) *maths.BlockVector {
	tv := maths.NewBlockVector(n, 2)
	for i := 0; i < n; i++ {
		th := 2 * math.Pi * float64(i) / float64(n)
		tv.Block(i).Set(0, 1+2*math.Cos(th)+0.5*math.Sin(2*th))
		tv.Block(i).Set(1, -3)
	}
	return tv
}

func TestToFrequencyLayout(t *testing.T) {
	tr := NewTransform(7)
	f := tr.ToFrequency(toneSamples(7))
	assert.Equal(t, 2, f.BlockCount())
	assert.Equal(t, 14, f.BlockSize())

	want := []float64{
		1, 0, // 直流
		1, 0, // +1
		0, -0.25, // +2
		0, 0, // +3
		0, 0, // -3
		0, 0.25, // -2
		1, 0, // -1
	}
	assert.InDeltaSlice(t, want, f.Block(0).ToDense(), 1e-12)
	assert.InDelta(t, -3, f.Block(1).Get(0), 1e-12)
}

func TestTransformRoundTrip(t *testing.T) {
	tr := NewTransform(7)
	orig := toneSamples(7)
	back := tr.ToTime(tr.ToFrequency(orig))
	assert.InDeltaSlice(t, orig.ToDense(), back.ToDense(), 1e-12)
}

func TestToTimeIgnoresRedundantBins(t *testing.T) {
	tr := NewTransform(5)
	f := maths.NewBlockVector(1, 10)
	f.Block(0).Set(0, 2)
	f.Block(0).Set(1, 7) // 直流虚部
	f.Block(0).Set(8, 9) // -1 槽
	tv := tr.ToTime(f)
	for i := 0; i < 5; i++ {
		assert.InDelta(t, 2, tv.Block(i).Get(0), 1e-12)
	}
}

func TestHarmonicBlocks(t *testing.T) {
	tr := NewTransform(7)
	re, im := tr.HarmonicBlocks(tr.ToFrequency(toneSamples(7)))
	assert.Equal(t, 7, re.BlockCount())
	assert.InDelta(t, 1, re.Block(3).Get(0), 1e-12)
	assert.InDelta(t, 1, re.Block(4).Get(0), 1e-12)
	assert.InDelta(t, 1, re.Block(2).Get(0), 1e-12)
	assert.InDelta(t, -0.25, im.Block(5).Get(0), 1e-12)
	assert.InDelta(t, 0.25, im.Block(1).Get(0), 1e-12)
	assert.InDelta(t, -3, re.Block(3).Get(1), 1e-12)
}

func TestSinglePointTransform(t *testing.T) {
	tr := NewTransform(1)
	tv := maths.NewBlockVector(1, 1)
	tv.Block(0).Set(0, 4)
	f := tr.ToFrequency(tv)
	assert.Equal(t, []float64{4, 0}, f.ToDense())
	assert.Equal(t, []float64{4}, tr.ToTime(f).ToDense())
}

func TestNewTransformEvenPanics(t *testing.T) {
	assert.Panics(t, func() { NewTransform(4) })
}
