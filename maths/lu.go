package maths

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// maxCondition 条件数上限，超过即视为奇异
const maxCondition = 1e15

// LU 稠密矩阵LU分解器，封装 gonum 的 mat.LU
type LU struct {
	lu mat.LU
	n  int
}

// Factorize 对方阵执行LU分解（PA=LU）
func (l *LU) Factorize(a *mat.Dense) error {
	r, c := a.Dims()
	if r != c {
		return ErrDimension
	}
	l.n = r
	l.lu.Factorize(a)
	if cond := l.lu.Cond(); cond > maxCondition || math.IsNaN(cond) {
		return ErrSingular
	}
	return nil
}

// Solve 利用分解结果求解 Ax=b
func (l *LU) Solve(b, x Vector) error {
	if b.Length() != l.n || x.Length() != l.n {
		return ErrDimension
	}
	dst := mat.NewVecDense(l.n, x.ToDense())
	if err := l.lu.SolveVecTo(dst, false, mat.NewVecDense(l.n, b.ToDense())); err != nil {
		return ErrSingular
	}
	return nil
}

// Size 矩阵维度
func (l *LU) Size() int { return l.n }

// MatVec 计算 out = A*in
func MatVec(a *mat.Dense, in, out Vector) {
	r, _ := a.Dims()
	dst := mat.NewVecDense(r, out.ToDense())
	dst.MulVec(a, mat.NewVecDense(in.Length(), in.ToDense()))
}
