package hb

import "hbcircuit/maths"

// Builder 谐波平衡线性系统的结构：n 个未知量，每个未知量 2N 个 ERF 分量。
type Builder struct {
	harmonics int
	n         int
	nState    int
	nStore    int
}

// NewBuilder 创建构建器
func NewBuilder(harmonics, n, nState, nStore int) *Builder {
	return &Builder{harmonics: harmonics, n: n, nState: nState, nStore: nStore}
}

// Size 实现 nonlinear.LinearSystem
func (b *Builder) Size() int { return b.n * 2 * b.harmonics }

// Harmonics 频率点数 N
func (b *Builder) Harmonics() int { return b.harmonics }

// Unknowns 每个时间点的未知量个数
func (b *Builder) Unknowns() int { return b.n }

func (b *Builder) CreateTimeDomainBlockVector() *maths.BlockVector {
	return maths.NewBlockVector(b.harmonics, b.n)
}

func (b *Builder) CreateTimeDomainStateBlockVector() *maths.BlockVector {
	return maths.NewBlockVector(b.harmonics, b.nState)
}

func (b *Builder) CreateTimeDomainStoreBlockVector() *maths.BlockVector {
	return maths.NewBlockVector(b.harmonics, b.nStore)
}

// CreateExpandedRealFormBlockVector 按未知量分块的 ERF 向量
func (b *Builder) CreateExpandedRealFormBlockVector() *maths.BlockVector {
	return maths.NewBlockVector(b.n, 2*b.harmonics)
}

// asFrequency 将求解器传入的扁平向量视为 ERF 分块向量
func (b *Builder) asFrequency(v maths.Vector) *maths.BlockVector {
	if bv, ok := v.(*maths.BlockVector); ok && bv.BlockCount() == b.n {
		return bv
	}
	return maths.AsBlockVector(v, b.n)
}
