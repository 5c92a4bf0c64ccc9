package nonlinear

import (
	"context"

	"github.com/sirupsen/logrus"

	"hbcircuit/maths"
	"hbcircuit/types"
)

// Sweep 单点稳态求解运行器：对当前注册的装载器在整个未知向量上执行一次牛顿求解。
// 成功时结果写入 curr，next 保存最后一次迭代值。
type Sweep struct {
	mgr   *Manager
	next  maths.Vector
	curr  maths.Vector
	stats types.Stats
	log   logrus.FieldLogger
}

// NewSweep 创建单点扫描，curr 可为 nil
func NewSweep(mgr *Manager, next, curr maths.Vector, log logrus.FieldLogger) *Sweep {
	if mgr == nil || next == nil {
		panic("nonlinear: 扫描需要求解器管理器与初值向量")
	}
	return &Sweep{mgr: mgr, next: next, curr: curr, log: log}
}

// Run 执行求解
func (s *Sweep) Run(ctx context.Context) bool {
	before := s.mgr.Stats()
	res, err := s.mgr.Solve(s.next)
	s.stats = diffStats(s.mgr.Stats(), before)
	if err != nil {
		s.stats.FailedSteps++
		s.log.WithError(err).WithField("iterations", res.Iterations).Error("稳态求解失败")
		return false
	}
	s.stats.SuccessfulSteps++
	if s.curr != nil && s.curr.Length() == s.next.Length() {
		s.next.Copy(s.curr)
	}
	s.log.WithFields(logrus.Fields{
		"mode":       s.mgr.AnalysisMode(),
		"iterations": res.Iterations,
		"residual":   res.Residual,
	}).Info("稳态求解收敛")
	return true
}

// StatisticsInto 累加本次运行的统计
func (s *Sweep) StatisticsInto(st *types.Stats) { st.Add(s.stats) }

// diffStats 返回 a-b
func diffStats(a, b types.Stats) types.Stats {
	return types.Stats{
		SuccessfulSteps:    a.SuccessfulSteps - b.SuccessfulSteps,
		FailedSteps:        a.FailedSteps - b.FailedSteps,
		JacobianEvals:      a.JacobianEvals - b.JacobianEvals,
		Factorizations:     a.Factorizations - b.Factorizations,
		LinearSolves:       a.LinearSolves - b.LinearSolves,
		FailedLinearSolves: a.FailedLinearSolves - b.FailedLinearSolves,
		LinearIters:        a.LinearIters - b.LinearIters,
		ResidualEvals:      a.ResidualEvals - b.ResidualEvals,
		NonlinearFailures:  a.NonlinearFailures - b.NonlinearFailures,
		ResidualLoadTime:   a.ResidualLoadTime - b.ResidualLoadTime,
		JacobianLoadTime:   a.JacobianLoadTime - b.JacobianLoadTime,
		LinearSolveTime:    a.LinearSolveTime - b.LinearSolveTime,
	}
}
