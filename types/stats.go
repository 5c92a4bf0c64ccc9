package types

import (
	"fmt"
	"time"
)

// Stats 分析运行统计（单调计数器）
type Stats struct {
	SuccessfulSteps    int // 成功时间步
	FailedSteps        int // 失败时间步
	JacobianEvals      int // 雅可比矩阵求值次数
	Factorizations     int // 矩阵分解次数
	LinearSolves       int // 线性求解次数
	FailedLinearSolves int // 线性求解失败次数
	LinearIters        int // 线性迭代次数（Krylov）
	ResidualEvals      int // 残差求值次数
	NonlinearFailures  int // 非线性收敛失败次数

	ResidualLoadTime time.Duration // 残差装载耗时
	JacobianLoadTime time.Duration // 雅可比装载耗时
	LinearSolveTime  time.Duration // 线性求解耗时
}

// Add 累加另一次运行的统计
func (s *Stats) Add(o Stats) {
	s.SuccessfulSteps += o.SuccessfulSteps
	s.FailedSteps += o.FailedSteps
	s.JacobianEvals += o.JacobianEvals
	s.Factorizations += o.Factorizations
	s.LinearSolves += o.LinearSolves
	s.FailedLinearSolves += o.FailedLinearSolves
	s.LinearIters += o.LinearIters
	s.ResidualEvals += o.ResidualEvals
	s.NonlinearFailures += o.NonlinearFailures
	s.ResidualLoadTime += o.ResidualLoadTime
	s.JacobianLoadTime += o.JacobianLoadTime
	s.LinearSolveTime += o.LinearSolveTime
}

// Reset 清零
func (s *Stats) Reset() { *s = Stats{} }

// String 单行摘要
func (s Stats) String() string {
	return fmt.Sprintf("steps=%d failed=%d jac=%d lu=%d solves=%d(failed %d) iters=%d res=%d nlfail=%d",
		s.SuccessfulSteps, s.FailedSteps, s.JacobianEvals, s.Factorizations,
		s.LinearSolves, s.FailedLinearSolves, s.LinearIters, s.ResidualEvals, s.NonlinearFailures)
}
