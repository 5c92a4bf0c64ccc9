package nonlinear

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"hbcircuit/maths"
	"hbcircuit/types"
)

// 牛顿迭代默认参数
const (
	defaultMaxIter     = 50
	defaultAbsTol      = 1e-6 // 更新量绝对容差
	defaultRelTol      = 1e-3 // 更新量相对容差
	defaultResidualTol = 1e-9 // 残差容差
	minDamping         = 1.0 / 64
)

// Options 牛顿迭代参数
type Options struct {
	MaxIter     int
	AbsTol      float64
	RelTol      float64
	ResidualTol float64
}

// DefaultOptions 默认牛顿参数
func DefaultOptions() Options {
	return Options{MaxIter: defaultMaxIter, AbsTol: defaultAbsTol, RelTol: defaultRelTol, ResidualTol: defaultResidualTol}
}

// Result 一次求解的结果
type Result struct {
	Iterations int
	Residual   float64
	Converged  bool
}

// Manager 非线性求解器管理器：持有当前注册的线性系统、装载器与预处理器工厂。
type Manager struct {
	system     LinearSystem
	loader     Loader
	matrixFree bool
	precond    PrecondFactory
	mode       types.AnalysisMode

	gmres   maths.GMRES
	options Options
	stats   types.Stats
	log     logrus.FieldLogger
}

// NewManager 创建管理器
func NewManager(log logrus.FieldLogger) *Manager {
	if log == nil {
		panic("nonlinear: 日志不能为空")
	}
	return &Manager{gmres: maths.DefaultGMRES(), options: DefaultOptions(), log: log}
}

// ------------------------------ 注册 ------------------------------

func (m *Manager) RegisterLinearSystem(s LinearSystem)      { m.system = s }
func (m *Manager) LinearSystem() LinearSystem               { return m.system }
func (m *Manager) RegisterLoader(l Loader)                  { m.loader = l }
func (m *Manager) Loader() Loader                           { return m.loader }
func (m *Manager) SetMatrixFreeFlag(on bool)                { m.matrixFree = on }
func (m *Manager) MatrixFreeFlag() bool                     { return m.matrixFree }
func (m *Manager) RegisterPrecondFactory(f PrecondFactory)  { m.precond = f }
func (m *Manager) SetAnalysisMode(mode types.AnalysisMode) { m.mode = mode }
func (m *Manager) AnalysisMode() types.AnalysisMode         { return m.mode }
func (m *Manager) SetOptions(o Options)                     { m.options = o }
func (m *Manager) Options() Options                         { return m.options }

// SetLinSolOptions 设置线性求解参数：KRYLOV_MAXITER、KRYLOV_RESTART、KRYLOV_TOL。
// 其他键由调用方处理，这里忽略并给出警告。
func (m *Manager) SetLinSolOptions(ob types.OptionBlock) error {
	g := maths.DefaultGMRES()
	for _, p := range ob.Params {
		var err error
		switch p.Tag {
		case "KRYLOV_MAXITER":
			g.MaxIter, err = p.Int()
		case "KRYLOV_RESTART":
			g.Restart, err = p.Int()
		case "KRYLOV_TOL":
			g.Tol, err = p.Float()
		case "PREC", "DIRECT":
		default:
			m.log.WithField("option", p.Tag).Warn("忽略未识别的线性求解选项")
		}
		if err != nil {
			return fmt.Errorf("线性求解选项 %s: %w", ob.Name, err)
		}
	}
	m.gmres = g
	return nil
}

// GMRES 当前的 Krylov 参数
func (m *Manager) GMRES() maths.GMRES { return m.gmres }

// Stats 累计统计
func (m *Manager) Stats() types.Stats { return m.stats }

// ResetStats 清零统计
func (m *Manager) ResetStats() { m.stats.Reset() }

// ------------------------------ 求解 ------------------------------

// Solve 以 x 为初值求解 F(x)=0，结果写回 x。
func (m *Manager) Solve(x maths.Vector) (Result, error) {
	if m.loader == nil {
		return Result{}, ErrNoLoader
	}
	if m.system != nil && m.system.Size() != x.Length() {
		return Result{}, fmt.Errorf("解向量长度 %d 与线性系统 %d 不一致: %w", x.Length(), m.system.Size(), maths.ErrDimension)
	}
	n := x.Length()
	r := maths.NewDenseVector(n)
	rTrial := maths.NewDenseVector(n)
	dx := maths.NewDenseVector(n)
	xTrial := maths.NewDenseVector(n)

	res := Result{}
	rnorm, err := m.residual(x, r)
	if err != nil {
		return res, err
	}
	res.Residual = rnorm
	for res.Iterations < m.options.MaxIter {
		res.Iterations++
		if err := m.linearSolve(x, r, dx); err != nil {
			m.stats.NonlinearFailures++
			return res, err
		}
		// 回溯阻尼
		lambda := 1.0
		var trial float64
		for {
			xTrial.LinearCombo(1, x, lambda, dx)
			trial, err = m.residual(xTrial, rTrial)
			if err == nil && !math.IsNaN(trial) && (trial <= (1-1e-4*lambda)*rnorm || lambda <= minDamping) {
				break
			}
			if lambda <= minDamping {
				m.stats.NonlinearFailures++
				return res, fmt.Errorf("阻尼步失败: %w", ErrNoConvergence)
			}
			lambda /= 2
		}
		dxNorm := m.weightedNorm(dx, x, lambda)
		xTrial.Copy(x)
		rTrial.Copy(r)
		rnorm = trial
		res.Residual = rnorm
		if dxNorm <= 1 && rnorm <= m.options.ResidualTol {
			res.Converged = true
			return res, nil
		}
	}
	m.stats.NonlinearFailures++
	return res, fmt.Errorf("%d 次迭代后残差 %g: %w", res.Iterations, rnorm, ErrNoConvergence)
}

func (m *Manager) residual(x, r maths.Vector) (float64, error) {
	start := time.Now()
	err := m.loader.Residual(x, r)
	m.stats.ResidualEvals++
	m.stats.ResidualLoadTime += time.Since(start)
	if err != nil {
		return 0, err
	}
	return r.MaxAbs(), nil
}

// weightedNorm 加权最大范数 max|λdx_i|/(abs + rel*|x_i|)
func (m *Manager) weightedNorm(dx, x maths.Vector, lambda float64) float64 {
	nrm := 0.0
	for i := 0; i < dx.Length(); i++ {
		w := m.options.AbsTol + m.options.RelTol*math.Abs(x.Get(i))
		nrm = math.Max(nrm, math.Abs(lambda*dx.Get(i))/w)
	}
	return nrm
}

// linearSolve 求解 J dx = -r
func (m *Manager) linearSolve(x, r, dx maths.Vector) error {
	start := time.Now()
	err := m.loader.LoadJacobian(x)
	m.stats.JacobianEvals++
	m.stats.JacobianLoadTime += time.Since(start)
	if err != nil {
		return err
	}

	start = time.Now()
	defer func() { m.stats.LinearSolveTime += time.Since(start) }()
	m.stats.LinearSolves++

	rhs := r.Clone()
	rhs.Scale(-1)
	dx.Zero()
	if m.matrixFree {
		return m.krylovSolve(rhs, dx)
	}
	return m.directSolve(rhs, dx)
}

func (m *Manager) krylovSolve(rhs, dx maths.Vector) error {
	var precond maths.Operator
	if m.precond != nil {
		p, err := m.precond.Create()
		if err != nil {
			m.stats.FailedLinearSolves++
			return fmt.Errorf("创建预处理器: %w", err)
		}
		m.stats.Factorizations++
		precond = p.Apply
	}
	res, err := m.gmres.Solve(m.loader.ApplyJacobian, precond, rhs, dx)
	m.stats.LinearIters += res.Iterations
	if err != nil {
		m.stats.FailedLinearSolves++
		return fmt.Errorf("%w: %v", ErrLinearSolve, err)
	}
	if !res.Converged {
		// 未完全收敛的 Krylov 解仍可作为牛顿方向
		m.log.WithFields(logrus.Fields{"iters": res.Iterations, "residual": res.Residual}).Debug("GMRES 未达到容差")
	}
	return nil
}

func (m *Manager) directSolve(rhs, dx maths.Vector) error {
	var (
		a   *mat.Dense
		err error
	)
	if ml, ok := m.loader.(MatrixLoader); ok {
		a, err = ml.Matrix()
	} else {
		a, err = m.assemble(rhs.Length())
	}
	if err != nil {
		m.stats.FailedLinearSolves++
		return err
	}
	var lu maths.LU
	m.stats.Factorizations++
	if err := lu.Factorize(a); err != nil {
		m.stats.FailedLinearSolves++
		return fmt.Errorf("%w: %v", ErrLinearSolve, err)
	}
	if err := lu.Solve(rhs, dx); err != nil {
		m.stats.FailedLinearSolves++
		return fmt.Errorf("%w: %v", ErrLinearSolve, err)
	}
	return nil
}

// assemble 逐列应用雅可比得到稠密矩阵
func (m *Manager) assemble(n int) (*mat.Dense, error) {
	a := mat.NewDense(n, n, nil)
	e := maths.NewDenseVector(n)
	col := maths.NewDenseVector(n)
	for j := 0; j < n; j++ {
		e.Zero()
		e.Set(j, 1)
		if err := m.loader.ApplyJacobian(e, col); err != nil {
			return nil, err
		}
		a.SetCol(j, col.ToDense())
	}
	return a, nil
}
