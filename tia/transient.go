package tia

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"hbcircuit/maths"
	"hbcircuit/mna"
	"hbcircuit/nonlinear"
	"hbcircuit/types"
)

// Recorder 输出记录器
type Recorder interface {
	Record(t float64, x []float64)
}

// Transient 后向欧拉自适应步长瞬态运行器。
// 步长由预测-校正差估计的局部截断误差控制，与积分阶数匹配的指数为 1/2。
type Transient struct {
	dev    Device
	ds     *DataStore
	params Params
	out    Recorder
	log    logrus.FieldLogger
	stats  types.Stats
}

// NewTransient 创建瞬态运行器，out 可为 nil
func NewTransient(dev Device, ds *DataStore, p Params, out Recorder, log logrus.FieldLogger) *Transient {
	if dev == nil || ds == nil || log == nil {
		panic("tia: 瞬态运行器缺少器件、数据存储或日志")
	}
	return &Transient{dev: dev, ds: ds, params: p, out: out, log: log}
}

// StatisticsInto 累加本次运行的统计
func (tr *Transient) StatisticsInto(s *types.Stats) { s.Add(tr.stats) }

// Run 执行瞬态分析，结果保存在数据存储的 Curr* 向量中
func (tr *Transient) Run(ctx context.Context) bool {
	tr.stats.Reset()
	if err := tr.run(); err != nil {
		tr.log.WithError(err).WithFields(logrus.Fields{
			"from": tr.params.InitialTime,
			"to":   tr.params.FinalTime,
		}).Error("瞬态分析失败")
		return false
	}
	return true
}

func (tr *Transient) run() error {
	p, err := tr.params.validate()
	if err != nil {
		return err
	}
	n, ns, nst := tr.dev.SolutionSize(), tr.dev.StateSize(), tr.dev.StoreSize()
	ds := tr.ds
	ds.Allocate(n, ns, nst)

	sys := mna.NewSystem(n)
	step := newStepLoader(tr.dev, sys, ns, nst)
	mgr := nonlinear.NewManager(tr.log)
	mgr.RegisterLinearSystem(step)
	mgr.RegisterLoader(step)
	mgr.SetAnalysisMode(types.ModeTransient)
	defer func() {
		st := mgr.Stats()
		st.SuccessfulSteps, st.FailedSteps = tr.stats.SuccessfulSteps, tr.stats.FailedSteps
		tr.stats = st
	}()

	// 初始工作点；NOOP 时状态与存储也取自数据存储
	t := p.InitialTime
	x := ds.NextSolution.Clone()
	step.t, step.h = t, 0
	if p.NOOP {
		ds.NextState.Copy(step.state)
		ds.NextStore.Copy(step.store)
	} else {
		if _, err := mgr.Solve(x); err != nil {
			return fmt.Errorf("直流工作点: %w", err)
		}
	}
	if err := tr.accept(step, x, t, true, p.SaveTimeSteps); err != nil {
		return err
	}

	h := p.InitialStep
	var xPrev maths.Vector
	hPrev := 0.0
	xNew := maths.NewDenseVector(n)
	for accepted := 0; p.FinalTime-t > p.MinStep; {
		if accepted+tr.stats.FailedSteps >= p.MaxSteps {
			return fmt.Errorf("t=%g: %w", t, ErrTooManySteps)
		}
		// 落在终点上，避免留下极短的最后一步
		if t+h > p.FinalTime-1e-3*h {
			h = p.FinalTime - t
		}
		// 线性外推预测
		if xPrev != nil {
			xNew.LinearCombo(1+h/hPrev, x, -h/hPrev, xPrev)
		} else {
			x.Copy(xNew)
		}
		xPred := xNew.Clone()

		ds.CurrQ.Copy(step.qPrev)
		step.t, step.h = t+h, h
		if _, err := mgr.Solve(xNew); err != nil {
			tr.stats.FailedSteps++
			h *= failureScale
			if h < p.MinStep {
				return fmt.Errorf("t=%g h=%g: %w", t, h, ErrStepTooSmall)
			}
			continue
		}

		ratio := 0.0
		if xPrev != nil {
			ratio = lteRatio(xNew, xPred, h/(h+hPrev), p)
		}
		scale := maxStepScale
		if ratio > 0 {
			scale = math.Max(minStepScale, math.Min(maxStepScale, defaultSafety/math.Sqrt(ratio)))
		}
		if ratio > 1 {
			tr.stats.FailedSteps++
			h *= math.Min(scale, defaultSafety)
			if h < p.MinStep {
				return fmt.Errorf("t=%g h=%g: %w", t, h, ErrStepTooSmall)
			}
			continue
		}

		if xPrev == nil {
			xPrev = maths.NewDenseVector(n)
		}
		x.Copy(xPrev)
		xNew.Copy(x)
		hPrev = h
		t += h
		accepted++
		tr.stats.SuccessfulSteps++
		if err := tr.accept(step, x, t, false, p.SaveTimeSteps); err != nil {
			return err
		}
		h = math.Min(h*scale, p.MaxStep)
	}
	if p.SaveTimeSteps {
		ds.markLastBreakpoint()
	}
	tr.log.WithFields(logrus.Fields{
		"steps":  tr.stats.SuccessfulSteps,
		"failed": tr.stats.FailedSteps,
		"reltol": p.RelErrorTol,
	}).Debug("瞬态分析完成")
	return nil
}

// accept 以 x 重新装载得到电荷/状态/存储，写入数据存储并记录
func (tr *Transient) accept(step *stepLoader, x maths.Vector, t float64, breakpoint, save bool) error {
	if err := step.load(x, false); err != nil {
		return err
	}
	ds := tr.ds
	x.Copy(ds.CurrSolution)
	x.Copy(ds.NextSolution)
	step.state.Copy(ds.CurrState)
	step.state.Copy(ds.NextState)
	step.store.Copy(ds.CurrStore)
	step.store.Copy(ds.NextStore)
	step.sys.Q.Copy(ds.CurrQ)
	step.sys.Q.Copy(ds.NextQ)
	if save {
		ds.recordFastTime(t, breakpoint)
	}
	if tr.out != nil {
		tr.out.Record(t, x.ToDense())
	}
	return nil
}

// lteRatio 后向欧拉局部截断误差估计与容差之比（加权最大范数）
func lteRatio(corr, pred maths.Vector, factor float64, p Params) float64 {
	r := 0.0
	for i := 0; i < corr.Length(); i++ {
		w := p.AbsErrorTol + p.RelErrorTol*math.Abs(corr.Get(i))
		r = math.Max(r, factor*math.Abs(corr.Get(i)-pred.Get(i))/w)
	}
	return r
}
