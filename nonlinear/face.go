// Package nonlinear 实现牛顿迭代求解器管理器以及单点稳态（直流扫描）运行器。
package nonlinear

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"hbcircuit/maths"
)

var (
	// ErrNoConvergence 牛顿迭代在最大步数内未收敛
	ErrNoConvergence = errors.New("牛顿迭代未收敛")
	// ErrNoLoader 未注册非线性方程装载器
	ErrNoLoader = errors.New("未注册非线性方程装载器")
	// ErrLinearSolve 线性子问题求解失败
	ErrLinearSolve = errors.New("线性求解失败")
)

// Loader 非线性方程 F(x)=0 的装载器
type Loader interface {
	// Residual 计算 r = F(x)
	Residual(x, r maths.Vector) error
	// LoadJacobian 在 x 处装载雅可比（结果由装载器缓存）
	LoadJacobian(x maths.Vector) error
	// ApplyJacobian 计算 jv = J·v，J 为最近一次 LoadJacobian 的结果
	ApplyJacobian(v, jv maths.Vector) error
}

// MatrixLoader 可直接给出组装好的雅可比矩阵的装载器
type MatrixLoader interface {
	Matrix() (*mat.Dense, error)
}

// LinearSystem 线性系统结构（维度）
type LinearSystem interface {
	Size() int
}

// Preconditioner 预处理器 z = M⁻¹ r
type Preconditioner interface {
	Apply(r, z maths.Vector) error
}

// PrecondFactory 在每次雅可比装载后创建预处理器
type PrecondFactory interface {
	Create() (Preconditioner, error)
}
