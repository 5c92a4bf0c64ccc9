package hb

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hbcircuit/device"
	"hbcircuit/maths"
)

func newTestLoader(t *testing.T, c *device.Circuit, n int) (*Loader, *Builder, *Transform) {
	t.Helper()
	c.SetMPDEFlag(true)
	require.NoError(t, c.RegisterFastSources(nil))
	b := NewBuilder(n, c.SolutionSize(), c.StateSize(), c.StoreSize())
	tr := NewTransform(n)
	g, err := NewTimeGrid(0, testPeriod, n)
	require.NoError(t, err)
	l := NewLoader(c, b, tr, g, b.CreateTimeDomainStateBlockVector(), b.CreateTimeDomainStoreBlockVector())
	return l, b, tr
}

// guess 在各采样点按 fn(θ) 给出全部未知量
func guess(b *Builder, tr *Transform, fn func(j int, th float64) float64) maths.Vector {
	tv := b.CreateTimeDomainBlockVector()
	for i := 0; i < b.Harmonics(); i++ {
		th := 2 * math.Pi * float64(i) / float64(b.Harmonics())
		for j := 0; j < b.Unknowns(); j++ {
			tv.Block(i).Set(j, fn(j, th))
		}
	}
	return tr.ToFrequency(tv).Vector
}

func TestLoaderJacobianMatchesFiniteDifference(t *testing.T) {
	c := rectifier(t)
	l, b, tr := newTestLoader(t, c, 5)
	x := guess(b, tr, func(j int, th float64) float64 {
		switch j {
		case 0:
			return 0.8 * math.Sin(th)
		case 1:
			return 0.2 + 0.05*math.Cos(th)
		}
		return -1e-4 * math.Sin(th)
	})
	v := guess(b, tr, func(j int, th float64) float64 { return 0.1*float64(j+1) + 0.05*math.Cos(2*th+float64(j)) })
	v.Set(1, 0.3) // 直流虚部分量
	v.Set(8, 0.7) // 冗余分量

	require.NoError(t, l.LoadJacobian(x))
	jv := maths.NewDenseVector(b.Size())
	require.NoError(t, l.ApplyJacobian(v, jv))

	const eps = 1e-6
	xp, xm := x.Clone(), x.Clone()
	xp.AddScaled(eps, v)
	xm.AddScaled(-eps, v)
	rp, rm := maths.NewDenseVector(b.Size()), maths.NewDenseVector(b.Size())
	require.NoError(t, l.Residual(xp, rp))
	require.NoError(t, l.Residual(xm, rm))
	fd := maths.NewDenseVector(b.Size())
	fd.LinearCombo(1/(2*eps), rp, -1/(2*eps), rm)

	for i := 0; i < b.Size(); i++ {
		assert.InDelta(t, fd.Get(i), jv.Get(i), 1e-7*math.Max(1, math.Abs(fd.Get(i))), "row %d", i)
	}
}

func TestResidualVanishesAtAnalyticSolution(t *testing.T) {
	c := rcCircuit(t)
	l, b, tr := newTestLoader(t, c, 7)
	w := 2 * math.Pi / testPeriod
	h := complex(1, 0) / complex(1, w*1e-3)
	out := index(c.UnknownNames(), "V(OUT)")
	in := index(c.UnknownNames(), "V(IN)")
	x := guess(b, tr, func(j int, th float64) float64 {
		// V1 = sin = Im(e^{jθ})
		vout := imagPart(h, th)
		switch j {
		case in:
			return math.Sin(th)
		case out:
			return vout
		}
		// I(V1) 为流入源正端的电流：-(vin - vout)/R
		return -(math.Sin(th) - vout) / 1e3
	})
	r := maths.NewDenseVector(b.Size())
	require.NoError(t, l.Residual(x, r))
	assert.Less(t, r.MaxAbs(), 1e-12)
}

func TestBlockJacobiInvertsLinearJacobian(t *testing.T) {
	c := rcCircuit(t)
	l, b, tr := newTestLoader(t, c, 5)
	x := maths.NewDenseVector(b.Size())
	require.NoError(t, l.LoadJacobian(x))

	v := guess(b, tr, func(j int, th float64) float64 { return float64(j+1) * (1 + math.Sin(th) + 0.3*math.Cos(2*th)) })
	jv := maths.NewDenseVector(b.Size())
	require.NoError(t, l.ApplyJacobian(v, jv))

	log, _ := test.NewNullLogger()
	p, err := NewPrecondFactory(l, log).Create()
	require.NoError(t, err)
	z := maths.NewDenseVector(b.Size())
	require.NoError(t, p.Apply(jv, z))

	nh := b.Harmonics()
	m := (nh - 1) / 2
	for j := 0; j < b.Unknowns(); j++ {
		base := 2 * nh * j
		assert.InDelta(t, v.Get(base), z.Get(base), 1e-9)
		for k := 1; k <= m; k++ {
			assert.InDelta(t, v.Get(base+2*k), z.Get(base+2*k), 1e-9)
			assert.InDelta(t, v.Get(base+2*k+1), z.Get(base+2*k+1), 1e-9)
		}
	}
}

func imagPart(h complex128, th float64) float64 {
	return imag(h * complex(math.Cos(th), math.Sin(th)))
}

func index(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
