package hb

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"hbcircuit/maths"
	"hbcircuit/nonlinear"
	"hbcircuit/types"
)

// PrecondKind 谐波平衡预处理器类型
type PrecondKind int

const (
	PrecondBlockJacobi PrecondKind = iota
	PrecondNone
)

// ParsePrecond 从 LINSOL-HB 选项块读取 PREC，默认 BLOCKJACOBI
func ParsePrecond(ob types.OptionBlock) (PrecondKind, error) {
	v, ok := ob.Lookup("PREC")
	if !ok {
		return PrecondBlockJacobi, nil
	}
	switch strings.ToUpper(v) {
	case "BLOCKJACOBI":
		return PrecondBlockJacobi, nil
	case "NONE":
		return PrecondNone, nil
	}
	return PrecondNone, fmt.Errorf("未知预处理器 %q", v)
}

// PrecondFactory 逐谐波块雅可比预处理器工厂。
// 每个谐波 k 使用平均雅可比 [[G, -ωkC], [ωkC, G]] 的 LU 分解。
type PrecondFactory struct {
	loader *Loader
	log    logrus.FieldLogger
}

// NewPrecondFactory 创建工厂
func NewPrecondFactory(l *Loader, log logrus.FieldLogger) *PrecondFactory {
	return &PrecondFactory{loader: l, log: log}
}

// Create 实现 nonlinear.PrecondFactory
func (f *PrecondFactory) Create() (nonlinear.Preconditioner, error) {
	g, c := f.loader.averageJacobians()
	b := f.loader.builder
	nh, n := b.Harmonics(), b.Unknowns()
	m := (nh - 1) / 2
	p := &blockJacobi{n: n, nh: nh, lus: make([]*maths.LU, m+1)}
	for k := 0; k <= m; k++ {
		a := harmonicBlock(g, c, float64(k)*f.loader.omega, k == 0)
		lu := &maths.LU{}
		if err := lu.Factorize(a); err != nil {
			// 该谐波块退化为单位预处理
			f.log.WithField("harmonic", k).Debug("谐波块奇异，跳过预处理")
			continue
		}
		p.lus[k] = lu
	}
	return p, nil
}

// harmonicBlock 直流为 n×n 的 G，其余为 2n×2n 实数形式
func harmonicBlock(g, c *mat.Dense, w float64, dc bool) *mat.Dense {
	n, _ := g.Dims()
	if dc {
		return mat.DenseCopyOf(g)
	}
	a := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			gv, cv := g.At(i, j), w*c.At(i, j)
			a.Set(i, j, gv)
			a.Set(i, n+j, -cv)
			a.Set(n+i, j, cv)
			a.Set(n+i, n+j, gv)
		}
	}
	return a
}

type blockJacobi struct {
	n, nh int
	lus   []*maths.LU
}

// Apply 实现 nonlinear.Preconditioner，约束分量按单位矩阵处理
func (p *blockJacobi) Apply(r, z maths.Vector) error {
	if r.Length() != p.n*2*p.nh || z.Length() != r.Length() {
		return maths.ErrDimension
	}
	r.Copy(z)
	rd, zd := r.ToDense(), z.ToDense()
	for k, lu := range p.lus {
		if lu == nil {
			continue
		}
		size := lu.Size()
		rk, zk := maths.NewDenseVector(size), maths.NewDenseVector(size)
		for j := 0; j < p.n; j++ {
			base := 2*p.nh*j + 2*k
			rk.Set(j, rd[base])
			if k > 0 {
				rk.Set(p.n+j, rd[base+1])
			}
		}
		if err := lu.Solve(rk, zk); err != nil {
			return err
		}
		for j := 0; j < p.n; j++ {
			base := 2*p.nh*j + 2*k
			zd[base] = zk.Get(j)
			if k > 0 {
				zd[base+1] = zk.Get(p.n + j)
			}
		}
	}
	return nil
}
