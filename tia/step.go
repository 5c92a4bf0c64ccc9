package tia

import (
	"gonum.org/v1/gonum/mat"

	"hbcircuit/maths"
	"hbcircuit/mna"
)

// Device 瞬态分析所需的器件接口
type Device interface {
	SolutionSize() int
	StateSize() int
	StoreSize() int
	LoadDAE(t float64, x, state, store maths.Vector, sys *mna.System) error
}

// stepLoader 后向欧拉单步方程 (q(x)-q_prev)/h + f(x) = 0；h=0 时为直流方程 f(x)+gmin*x = 0
type stepLoader struct {
	dev   Device
	sys   *mna.System
	t, h  float64
	qPrev maths.Vector
	state maths.Vector
	store maths.Vector
	jac   *mat.Dense
}

func newStepLoader(dev Device, sys *mna.System, nState, nStore int) *stepLoader {
	n := sys.Size()
	return &stepLoader{
		dev:   dev,
		sys:   sys,
		qPrev: maths.NewDenseVector(n),
		state: maths.NewDenseVector(nState),
		store: maths.NewDenseVector(nStore),
		jac:   mat.NewDense(n, n, nil),
	}
}

func (l *stepLoader) Size() int { return l.sys.Size() }

func (l *stepLoader) load(x maths.Vector, jacobian bool) error {
	l.sys.Reset(jacobian)
	return l.dev.LoadDAE(l.t, x, l.state, l.store, l.sys)
}

func (l *stepLoader) Residual(x, r maths.Vector) error {
	if err := l.load(x, false); err != nil {
		return err
	}
	l.sys.F.Copy(r)
	if l.h > 0 {
		r.AddScaled(1/l.h, l.sys.Q)
		r.AddScaled(-1/l.h, l.qPrev)
	} else {
		r.AddScaled(dcGmin, x)
	}
	return nil
}

func (l *stepLoader) LoadJacobian(x maths.Vector) error {
	if err := l.load(x, true); err != nil {
		return err
	}
	l.jac.Copy(l.sys.G)
	if l.h > 0 {
		var c mat.Dense
		c.Scale(1/l.h, l.sys.C)
		l.jac.Add(l.jac, &c)
	} else {
		n := l.sys.Size()
		for i := 0; i < n; i++ {
			l.jac.Set(i, i, l.jac.At(i, i)+dcGmin)
		}
	}
	return nil
}

func (l *stepLoader) ApplyJacobian(v, jv maths.Vector) error {
	maths.MatVec(l.jac, v, jv)
	return nil
}

func (l *stepLoader) Matrix() (*mat.Dense, error) {
	return mat.DenseCopyOf(l.jac), nil
}
