package maths

import (
	"errors"
	"math"
)

// ErrBreakdown GMRES 出现无法继续的数值破坏
var ErrBreakdown = errors.New("GMRES 数值破坏")

// GMRES 重启型广义最小残差法（右预处理）
type GMRES struct {
	Restart int     // 重启长度 m
	MaxIter int     // 总迭代上限
	Tol     float64 // 相对残差容差 ||r||/||b||
}

// GMRESResult 求解结果
type GMRESResult struct {
	Iterations int     // 实际迭代次数
	Residual   float64 // 最终相对残差
	Converged  bool    // 是否收敛
}

// DefaultGMRES 默认参数
func DefaultGMRES() GMRES {
	return GMRES{Restart: 50, MaxIter: 500, Tol: 1e-9}
}

// Solve 求解 A x = b，x 作为初值传入并返回解。precond 为 nil 时不做预处理。
// 右预处理：求解 A M⁻¹ u = b，x = M⁻¹ u。
func (g GMRES) Solve(a, precond Operator, b, x Vector) (GMRESResult, error) {
	n := b.Length()
	if x.Length() != n {
		return GMRESResult{}, ErrDimension
	}
	m := g.Restart
	if m <= 0 || m > n {
		m = n
	}
	res := GMRESResult{}
	bnorm := b.Norm2()
	if bnorm == 0 {
		x.Zero()
		res.Converged = true
		return res, nil
	}
	// Krylov 基与预处理后的方向
	v := make([]Vector, m+1)
	z := make([]Vector, m)
	for i := range v {
		v[i] = NewDenseVector(n)
	}
	for i := range z {
		z[i] = NewDenseVector(n)
	}
	h := make([][]float64, m+1)
	for i := range h {
		h[i] = make([]float64, m)
	}
	cs, sn := make([]float64, m), make([]float64, m)
	gv := make([]float64, m+1)
	w := NewDenseVector(n)
	r := NewDenseVector(n)

	for res.Iterations < g.MaxIter {
		// r = b - A x
		if err := a(x, r); err != nil {
			return res, err
		}
		r.LinearCombo(1, b, -1, r)
		beta := r.Norm2()
		res.Residual = beta / bnorm
		if res.Residual <= g.Tol {
			res.Converged = true
			return res, nil
		}
		v[0].LinearCombo(1/beta, r, 0, r)
		for i := range gv {
			gv[i] = 0
		}
		gv[0] = beta
		k := 0
		for j := 0; j < m && res.Iterations < g.MaxIter; j++ {
			res.Iterations++
			if precond != nil {
				if err := precond(v[j], z[j]); err != nil {
					return res, err
				}
			} else {
				v[j].Copy(z[j])
			}
			if err := a(z[j], w); err != nil {
				return res, err
			}
			// 修正 Gram-Schmidt 正交化
			for i := 0; i <= j; i++ {
				h[i][j] = w.DotProduct(v[i])
				w.AddScaled(-h[i][j], v[i])
			}
			h[j+1][j] = w.Norm2()
			if h[j+1][j] > 0 {
				v[j+1].LinearCombo(1/h[j+1][j], w, 0, w)
			}
			// 应用之前的 Givens 旋转
			for i := 0; i < j; i++ {
				t := cs[i]*h[i][j] + sn[i]*h[i+1][j]
				h[i+1][j] = -sn[i]*h[i][j] + cs[i]*h[i+1][j]
				h[i][j] = t
			}
			denom := math.Hypot(h[j][j], h[j+1][j])
			if denom == 0 {
				return res, ErrBreakdown
			}
			cs[j], sn[j] = h[j][j]/denom, h[j+1][j]/denom
			h[j][j] = denom
			h[j+1][j] = 0
			gv[j+1] = -sn[j] * gv[j]
			gv[j] = cs[j] * gv[j]
			k = j + 1
			res.Residual = math.Abs(gv[j+1]) / bnorm
			if res.Residual <= g.Tol {
				break
			}
		}
		// 回代求解上三角系统 H y = g
		y := make([]float64, k)
		for i := k - 1; i >= 0; i-- {
			s := gv[i]
			for l := i + 1; l < k; l++ {
				s -= h[i][l] * y[l]
			}
			y[i] = s / h[i][i]
		}
		for i := 0; i < k; i++ {
			x.AddScaled(y[i], z[i])
		}
		if res.Residual <= g.Tol {
			res.Converged = true
			return res, nil
		}
	}
	return res, nil
}
