package device

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hbcircuit/maths"
	"hbcircuit/mna"
)

// divider 电压源 + 两电阻分压
func divider(t *testing.T) (*Circuit, *VoltageSource) {
	t.Helper()
	c := NewCircuit()
	in, out := c.Node("in"), c.Node("out")
	vs := NewVoltageSource("V1", in, mna.Gnd, c.Branch("V1"), Waveform{Offset: 1, Amplitude: 2, Freq: 50})
	r1, err := NewResistor("R1", in, out, 1e3)
	require.NoError(t, err)
	r2, err := NewResistor("R2", out, mna.Gnd, 1e3)
	require.NoError(t, err)
	for _, d := range []Device{vs, r1, r2} {
		require.NoError(t, c.Add(d))
	}
	return c, vs
}

func TestCircuitSizes(t *testing.T) {
	c, _ := divider(t)
	assert.Equal(t, 3, c.SolutionSize())
	assert.Equal(t, []string{"V(IN)", "V(OUT)", "I(V1)"}, c.UnknownNames())
	assert.Equal(t, mna.Gnd, c.Node("gnd"))

	err := c.Add(&Resistor{base: base{name: "r1"}, g: 1})
	assert.True(t, errors.Is(err, ErrDuplicateName))
}

func TestMPDEFreezesSlowSources(t *testing.T) {
	c, vs := divider(t)
	sys := mna.NewSystem(c.SolutionSize())
	x := maths.NewDenseVector(3)
	tq := 1.0 / 200 // 四分之一周期，sin=1

	load := func() float64 {
		sys.Reset(true)
		require.NoError(t, c.LoadDAE(tq, x, nil, nil, sys))
		return -sys.F.Get(2) // 支路方程 V(in) - v = 0，x=0 时为 -v
	}

	assert.InDelta(t, 3, load(), 1e-12)

	c.SetMPDEFlag(true)
	assert.InDelta(t, 1, load(), 1e-12, "slow source frozen at DC")

	require.NoError(t, c.RegisterFastSources(nil))
	assert.True(t, vs.Fast())
	c.SetFastTime(0)
	assert.InDelta(t, 1, load(), 1e-12)
	c.SetFastTime(tq)
	assert.InDelta(t, 3, load(), 1e-12)

	require.NoError(t, c.DeRegisterFastSources([]string{"v1"}))
	assert.False(t, vs.Fast())
	assert.ErrorIs(t, c.RegisterFastSources([]string{"V9"}), ErrUnknownSource)
}

func TestDiodeLimiter(t *testing.T) {
	c := NewCircuit()
	a := c.Node("a")
	d, err := NewDiode("D1", a, mna.Gnd, DefaultDiodeParams())
	require.NoError(t, err)
	require.NoError(t, c.Add(d))

	sys := mna.NewSystem(1)
	x := maths.NewDenseVectorWithData([]float64{5})
	store := maths.NewDenseVector(c.StoreSize())

	c.SetVoltageLimiterFlag(true)
	sys.Reset(true)
	require.NoError(t, c.LoadDAE(0, x, nil, store, sys))
	limited := sys.F.Get(0)
	assert.False(t, math.IsInf(limited, 0))
	assert.Equal(t, 5.0, d.LastVoltage(store.ToDense()))

	c.SetVoltageLimiterFlag(false)
	sys.Reset(true)
	require.NoError(t, c.LoadDAE(0, x, nil, store, sys))
	assert.Greater(t, sys.F.Get(0), limited)
}

// residual 在 x 处装载 F、G
func residual(t *testing.T, c *Circuit, x []float64) *mna.System {
	t.Helper()
	sys := mna.NewSystem(c.SolutionSize())
	sys.Reset(true)
	require.NoError(t, c.LoadDAE(0, maths.NewDenseVectorWithData(x), nil, nil, sys))
	return sys
}

func TestControlledSources(t *testing.T) {
	c := NewCircuit()
	in, out, out2 := c.Node("in"), c.Node("out"), c.Node("out2")
	r1, err := NewResistor("R1", out, mna.Gnd, 1e3)
	require.NoError(t, err)
	r2, err := NewResistor("R2", out2, mna.Gnd, 1e3)
	require.NoError(t, err)
	for _, d := range []Device{
		NewVoltageSource("V1", in, mna.Gnd, c.Branch("V1"), Waveform{Offset: 1}),
		NewVCVS("E1", out, mna.Gnd, in, mna.Gnd, c.Branch("E1"), 2),
		NewVCCS("G1", mna.Gnd, out2, in, mna.Gnd, 1e-3),
		r1, r2,
	} {
		require.NoError(t, c.Add(d))
	}
	assert.Equal(t, []string{"V(IN)", "V(OUT)", "V(OUT2)", "I(V1)", "I(E1)"}, c.UnknownNames())

	// V(out)=2*V(in)，E1 提供负载电流；G1 注入 1mA 到 out2
	sol := []float64{1, 2, 1, 0, -2e-3}
	sys := residual(t, c, sol)
	for i := range sol {
		assert.InDelta(t, 0, sys.F.Get(i), 1e-12, "row %d", i)
	}

	// 线性电路: F(x) - F(0) = G*x
	x := []float64{0.3, -1.2, 0.7, 2e-3, -5e-4}
	fx := residual(t, c, x)
	f0 := residual(t, c, make([]float64, len(x)))
	for i := range x {
		var gx float64
		for j := range x {
			gx += fx.G.At(i, j) * x[j]
		}
		assert.InDelta(t, fx.F.Get(i)-f0.F.Get(i), gx, 1e-12, "row %d", i)
	}
}
