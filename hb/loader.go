package hb

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"hbcircuit/maths"
	"hbcircuit/mna"
)

// Device 谐波平衡所需的器件装载接口
type Device interface {
	SolutionSize() int
	StateSize() int
	StoreSize() int
	LoadDAE(t float64, x, state, store maths.Vector, sys *mna.System) error
	SetFastTime(t float64)
	RegisterFastSources(names []string) error
	DeRegisterFastSources(names []string) error
	SetVoltageLimiterFlag(on bool)
	VoltageLimiterFlag() bool
	SetMPDEFlag(on bool)
	MPDEFlag() bool
}

// Loader 谐波平衡残差与雅可比装载器。
//
// 在每个采样点装载 f(x(t_i)) 与 q(x(t_i))，变换到频域后
// 残差为 F_k + jω_k Q_k（k=0..M），其余 ERF 分量为共轭对称约束。
// 雅可比不显式组装：LoadJacobian 缓存每个采样点的 G_i、C_i，
// ApplyJacobian 在时域完成 G_i v_i、C_i v_i 再变换回频域。
type Loader struct {
	dev     Device
	builder *Builder
	fft     *Transform
	times   []float64
	omega   float64

	sys   []*mna.System
	state *maths.BlockVector
	store *maths.BlockVector

	xt, ft, qt *maths.BlockVector
	fh, qh     *maths.BlockVector
}

// NewLoader 创建装载器，state/store 为各采样点的初始状态与存储（被装载器持有）
func NewLoader(dev Device, b *Builder, fft *Transform, grid TimeGrid, state, store *maths.BlockVector) *Loader {
	n := b.Unknowns()
	l := &Loader{
		dev:     dev,
		builder: b,
		fft:     fft,
		times:   grid.Samples(),
		omega:   2 * math.Pi / grid.Period,
		sys:     make([]*mna.System, b.Harmonics()),
		state:   state,
		store:   store,
		xt:      b.CreateTimeDomainBlockVector(),
		ft:      b.CreateTimeDomainBlockVector(),
		qt:      b.CreateTimeDomainBlockVector(),
		fh:      b.CreateExpandedRealFormBlockVector(),
		qh:      b.CreateExpandedRealFormBlockVector(),
	}
	for i := range l.sys {
		l.sys[i] = mna.NewSystem(n)
	}
	return l
}

// Residual 实现 nonlinear.Loader
func (l *Loader) Residual(x, r maths.Vector) error {
	if err := l.load(x, false); err != nil {
		return err
	}
	l.assemble(r, l.fh, l.qh, x)
	return nil
}

// LoadJacobian 实现 nonlinear.Loader
func (l *Loader) LoadJacobian(x maths.Vector) error {
	return l.load(x, true)
}

// ApplyJacobian 实现 nonlinear.Loader
func (l *Loader) ApplyJacobian(v, jv maths.Vector) error {
	if v.Length() != l.builder.Size() || jv.Length() != l.builder.Size() {
		return maths.ErrDimension
	}
	l.fft.ToTimeInto(l.builder.asFrequency(v), l.xt)
	for i, sys := range l.sys {
		maths.MatVec(sys.G, l.xt.Block(i), l.ft.Block(i))
		maths.MatVec(sys.C, l.xt.Block(i), l.qt.Block(i))
	}
	l.fft.ToFrequencyInto(l.ft, l.fh)
	l.fft.ToFrequencyInto(l.qt, l.qh)
	l.assemble(jv, l.fh, l.qh, v)
	return nil
}

// load 在全部采样点装载器件
func (l *Loader) load(x maths.Vector, jacobian bool) error {
	if x.Length() != l.builder.Size() {
		return fmt.Errorf("谐波平衡解向量长度 %d, 期望 %d: %w", x.Length(), l.builder.Size(), maths.ErrDimension)
	}
	l.fft.ToTimeInto(l.builder.asFrequency(x), l.xt)
	for i, t := range l.times {
		sys := l.sys[i]
		sys.Reset(jacobian)
		l.dev.SetFastTime(t)
		if err := l.dev.LoadDAE(t, l.xt.Block(i), l.state.Block(i), l.store.Block(i), sys); err != nil {
			return fmt.Errorf("采样点 %d (t=%g): %w", i, t, err)
		}
		sys.F.Copy(l.ft.Block(i))
		sys.Q.Copy(l.qt.Block(i))
	}
	l.fft.ToFrequencyInto(l.ft, l.fh)
	l.fft.ToFrequencyInto(l.qt, l.qh)
	return nil
}

// assemble out = F + jωQ（k≤M），直流虚部与 k>M 分量为对称约束
func (l *Loader) assemble(out maths.Vector, fh, qh *maths.BlockVector, x maths.Vector) {
	nh := l.builder.Harmonics()
	m := (nh - 1) / 2
	xd, od := x.ToDense(), out.ToDense()
	for j := 0; j < l.builder.Unknowns(); j++ {
		base := 2 * nh * j
		f, q := fh.Block(j), qh.Block(j)
		for k := 0; k <= m; k++ {
			w := float64(k) * l.omega
			od[base+2*k] = f.Get(2*k) - w*q.Get(2*k+1)
			od[base+2*k+1] = f.Get(2*k+1) + w*q.Get(2*k)
		}
		od[base+1] = xd[base+1]
		for k := m + 1; k < nh; k++ {
			od[base+2*k] = xd[base+2*k] - xd[base+2*(nh-k)]
			od[base+2*k+1] = xd[base+2*k+1] + xd[base+2*(nh-k)+1]
		}
	}
}

// averageJacobians 各采样点 G、C 的平均值
func (l *Loader) averageJacobians() (g, c *mat.Dense) {
	n := l.builder.Unknowns()
	g, c = mat.NewDense(n, n, nil), mat.NewDense(n, n, nil)
	for _, sys := range l.sys {
		g.Add(g, sys.G)
		c.Add(c, sys.C)
	}
	s := 1 / float64(len(l.sys))
	g.Scale(s, g)
	c.Scale(s, c)
	return g, c
}
