package hb

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"hbcircuit/device"
	"hbcircuit/maths"
	"hbcircuit/mna"
	"hbcircuit/nonlinear"
	"hbcircuit/tia"
	"hbcircuit/types"
)

const testPeriod = 1e-3

// rcCircuit V1 in 0 SIN(0 1 1k); R1 in out 1k; C1 out 0 1u
func rcCircuit(t *testing.T) *device.Circuit {
	t.Helper()
	c := device.NewCircuit()
	in, out := c.Node("in"), c.Node("out")
	vs := device.NewVoltageSource("V1", in, mna.Gnd, c.Branch("V1"), device.Waveform{Amplitude: 1, Freq: 1 / testPeriod})
	r, err := device.NewResistor("R1", in, out, 1e3)
	require.NoError(t, err)
	cp, err := device.NewCapacitor("C1", out, mna.Gnd, 1e-6)
	require.NoError(t, err)
	for _, d := range []device.Device{vs, r, cp} {
		require.NoError(t, c.Add(d))
	}
	return c
}

// rectifier V1 in 0 SIN(0 1 1k); D1 in out; R1 out 0 1k
func rectifier(t *testing.T) *device.Circuit {
	t.Helper()
	c := device.NewCircuit()
	in, out := c.Node("in"), c.Node("out")
	vs := device.NewVoltageSource("V1", in, mna.Gnd, c.Branch("V1"), device.Waveform{Amplitude: 1, Freq: 1 / testPeriod})
	d, err := device.NewDiode("D1", in, out, device.DefaultDiodeParams())
	require.NoError(t, err)
	r, err := device.NewResistor("R1", out, mna.Gnd, 1e3)
	require.NoError(t, err)
	for _, dv := range []device.Device{vs, d, r} {
		require.NoError(t, c.Add(dv))
	}
	return c
}

func unknownIndex(t *testing.T, c *device.Circuit, name string) int {
	t.Helper()
	for i, n := range c.UnknownNames() {
		if n == name {
			return i
		}
	}
	t.Fatalf("unknown %s not found", name)
	return -1
}

type call struct {
	kind     string
	p        tia.Params
	mpde     bool   // 运行时的 MPDE 标志
	category string // 运行时的输出类别
}

// fakeRouter 输出类别栈
type fakeRouter struct{ stack []string }

func (r *fakeRouter) Push(category string) func() {
	r.stack = append(r.stack, category)
	return func() { r.stack = r.stack[:len(r.stack)-1] }
}

func (r *fakeRouter) current() string {
	if len(r.stack) == 0 {
		return ""
	}
	return r.stack[len(r.stack)-1]
}

// fakeAnalyses 记录子分析调用，瞬态运行按均匀步长生成历史
type fakeAnalyses struct {
	dev    Device
	ds     *tia.DataStore
	router *fakeRouter
	calls  []call
	steps  func(p tia.Params) int
	failAt map[int]bool
}

func newFakeAnalyses(dev Device, ds *tia.DataStore) *fakeAnalyses {
	return &fakeAnalyses{
		dev:    dev,
		ds:     ds,
		router: &fakeRouter{},
		steps:  func(tia.Params) int { return 40 },
		failAt: map[int]bool{},
	}
}

func (a *fakeAnalyses) NewTransient(p tia.Params) Runner { return &fakeRunner{a: a, kind: "transient", p: p} }
func (a *fakeAnalyses) NewSteadyState() Runner           { return &fakeRunner{a: a, kind: "steady"} }

func (a *fakeAnalyses) transients() []tia.Params {
	var out []tia.Params
	for _, c := range a.calls {
		if c.kind == "transient" {
			out = append(out, c.p)
		}
	}
	return out
}

func (a *fakeAnalyses) kinds() []string {
	out := make([]string, len(a.calls))
	for i, c := range a.calls {
		out[i] = c.kind
	}
	return out
}

type fakeRunner struct {
	a     *fakeAnalyses
	kind  string
	p     tia.Params
	stats types.Stats
}

func (r *fakeRunner) Run(ctx context.Context) bool {
	idx := len(r.a.calls)
	r.a.calls = append(r.a.calls, call{
		kind:     r.kind,
		p:        r.p,
		mpde:     r.a.dev.MPDEFlag(),
		category: r.a.router.current(),
	})
	ok := !r.a.failAt[idx]
	if r.kind == "steady" {
		r.stats.SuccessfulSteps = 1
		return ok
	}
	n := r.a.steps(r.p)
	r.stats.SuccessfulSteps = n
	ds, dev := r.a.ds, r.a.dev
	ds.Allocate(dev.SolutionSize(), dev.StateSize(), dev.StoreSize())
	span := r.p.FinalTime - r.p.InitialTime
	for i := 0; i <= n; i++ {
		t := r.p.InitialTime + span*float64(i)/float64(n)
		x := maths.NewDenseVector(dev.SolutionSize())
		for j := 0; j < x.Length(); j++ {
			x.Set(j, t)
		}
		if r.p.SaveTimeSteps {
			ds.AddFastTimePoint(tia.HistoryPoint{
				Time:     t,
				Solution: x,
				State:    maths.NewDenseVector(dev.StateSize()),
				Charge:   maths.NewDenseVector(dev.SolutionSize()),
				Store:    maths.NewDenseVector(dev.StoreSize()),
			})
		}
		x.Copy(ds.CurrSolution)
	}
	return ok
}

func (r *fakeRunner) StatisticsInto(s *types.Stats) { s.Add(r.stats) }

type fixture struct {
	hb     *HB
	dev    *device.Circuit
	ds     *tia.DataStore
	nls    *nonlinear.Manager
	fake   *fakeAnalyses
	hook   *test.Hook
	ctx    *Context
	saved  *savedSystem
	router *fakeRouter
}

type savedSystem struct{ size int }

func (s *savedSystem) Size() int { return s.size }

// newFixture 以假子分析构建谐波平衡，求解器预先注册一个外部线性系统
func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	dev := rcCircuit(t)
	ds := tia.NewDataStore(dev.SolutionSize(), dev.StateSize(), dev.StoreSize())
	nls := nonlinear.NewManager(log)
	saved := &savedSystem{size: dev.SolutionSize()}
	nls.RegisterLinearSystem(saved)
	fake := newFakeAnalyses(dev, ds)
	ctx := &Context{
		Device:   dev,
		Store:    ds,
		NLS:      nls,
		Analyses: fake,
		Params:   tia.DefaultParams(),
		Output:   fake.router,
		Log:      log,
	}
	if cfg.Period == 0 {
		cfg.Period = testPeriod
	}
	return &fixture{
		hb: New(cfg, ctx), dev: dev, ds: ds, nls: nls, fake: fake,
		hook: hook, ctx: ctx, saved: saved, router: fake.router,
	}
}

func hasLevel(h *test.Hook, lvl logrus.Level) bool {
	for _, e := range h.AllEntries() {
		if e.Level == lvl {
			return true
		}
	}
	return false
}
