// Package hb 实现谐波平衡(Harmonic Balance)稳态分析的编排：
// 容差校准、预热瞬态、初值瞬态、均匀网格插值、频域问题构建与求解，
// 以及分析结束后求解器状态的恢复。
package hb

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"hbcircuit/maths"
	"hbcircuit/nonlinear"
	"hbcircuit/tia"
	"hbcircuit/types"
)

// HB 谐波平衡分析
type HB struct {
	cfg    Config
	ctx    *Context
	tracer trace.Tracer

	phases []Phase
	stats  types.Stats // 本次运行累计统计
	totals types.Stats // 最近一次成功运行的统计
	mode   types.AnalysisMode

	grid         TimeGrid
	historyStart float64
	history      IrregularHistory
	startupIC    *GridPointIC
	ic           []GridPointIC

	builder   *Builder
	transform *Transform
	loader    *Loader
	icFreq    *maths.BlockVector
	icState   *maths.BlockVector
	icStore   *maths.BlockVector
	solution  maths.Vector

	hbLinSol types.OptionBlock
	linSol   *types.OptionBlock // 谐波平衡之外使用的线性求解选项

	registered  bool
	savedSystem nonlinear.LinearSystem
	savedLoader nonlinear.Loader

	restoreMPDE    func()
	restoreLimiter func()

	origin      tia.Params // 本步首次运行前的主瞬态参数
	originSaved bool

	resetCalledBefore bool
	stepStart         time.Time
}

// New 创建谐波平衡分析。ctx 缺少必需的协作者时 panic。
func New(cfg Config, ctx *Context) *HB {
	if ctx == nil || ctx.Device == nil || ctx.Store == nil || ctx.NLS == nil || ctx.Analyses == nil || ctx.Log == nil {
		panic("hb: 上下文缺少器件、数据存储、求解器、分析工厂或日志")
	}
	tracer := ctx.Tracer
	if tracer == nil {
		tracer = otel.Tracer("hbcircuit")
	}
	return &HB{
		cfg:       cfg,
		ctx:       ctx,
		tracer:    tracer,
		hbLinSol:  types.NewOptionBlock("LINSOL-HB"),
		stepStart: time.Now(),
	}
}

// Config 当前配置
func (h *HB) Config() Config { return h.cfg }

// SetHBOptions 解析 HBINT 选项块
func (h *HB) SetHBOptions(ob types.OptionBlock) error {
	return h.cfg.Apply(ob, h.ctx.Log)
}

// SetHBLinSolOptions 保存谐波平衡阶段使用的线性求解选项
func (h *HB) SetHBLinSolOptions(ob types.OptionBlock) error {
	if _, err := ParsePrecond(ob); err != nil {
		return err
	}
	h.hbLinSol = ob
	return nil
}

// SetLinSolOptions 保存谐波平衡结束后恢复的线性求解选项
func (h *HB) SetLinSolOptions(ob types.OptionBlock) error {
	h.linSol = &ob
	return nil
}

// Run 执行完整的谐波平衡分析：init 后总是执行求解循环，两者都成功才执行收尾。
// 主瞬态参数在本步首次运行时保存，每次运行都从保存的起始时间开始。
func (h *HB) Run(ctx context.Context) bool {
	if !h.originSaved {
		h.origin, h.originSaved = h.ctx.Params, true
	}
	h.stats.Reset()
	h.phases = nil
	h.solution = nil
	ctx, span := h.tracer.Start(ctx, "hb.run")
	defer span.End()

	ok := h.init(ctx)
	loopOK := h.loopProcess(ctx)
	ok = ok && loopOK
	if ok {
		ok = h.finish(ctx)
	}
	if h.ctx.Metrics != nil {
		h.ctx.Metrics.ObserveRun(ok, h.stats)
	}
	return ok
}

// init 计算初值并构建谐波平衡问题
func (h *HB) init(ctx context.Context) bool {
	if err := h.cfg.normalize(h.ctx.Log); err != nil {
		h.ctx.Log.WithError(err).Error("HB 配置错误")
		return false
	}
	h.history, h.startupIC, h.ic = nil, nil, nil
	h.grid = TimeGrid{}
	h.ctx.Params.InitialTime = h.origin.InitialTime
	h.historyStart = h.ctx.Params.InitialTime
	h.ctx.Log.WithFields(logrus.Fields{
		"numfreq": h.cfg.NumHarmonics,
		"period":  h.cfg.Period,
		"startup": h.cfg.StartupPeriods,
		"tahb":    h.cfg.AdaptiveGrid,
		"policy":  h.cfg.Policy,
	}).Info(" ***** Harmonic Balance Analysis *****")

	if h.restoreLimiter == nil {
		h.restoreLimiter = h.ctx.overrideVoltageLimiter(h.cfg.VoltageLimiter)
	} else {
		h.ctx.Device.SetVoltageLimiterFlag(h.cfg.VoltageLimiter)
	}

	ok := true
	if h.cfg.AdaptiveGrid {
		steps := []struct {
			phase Phase
			skip  bool
			run   func(context.Context) bool
		}{
			{PhaseCalibrate, false, h.calibrate},
			{PhaseStartup, h.cfg.StartupPeriods == 0, h.startup},
			{PhaseICTransient, h.cfg.StartupPeriods == 0, h.icTransient},
			{PhaseInterpolate, false, h.interpolate},
		}
		for _, s := range steps {
			if s.skip {
				continue
			}
			if !ok && h.cfg.Policy == PolicyStrict {
				h.ctx.Log.WithField("phase", s.phase.String()).Warn("前序阶段失败，跳过")
				continue
			}
			ok = h.runPhase(ctx, s.phase, s.run) && ok
		}
	} else {
		ok = h.runPhase(ctx, PhaseFixedGrid, h.fixedGrid)
	}

	if !ok && h.cfg.Policy == PolicyStrict {
		return false
	}
	return h.runPhase(ctx, PhaseProblemSetup, h.setupProblem) && ok
}

func (h *HB) runPhase(ctx context.Context, p Phase, run func(context.Context) bool) bool {
	ctx, end := h.enter(ctx, p)
	if p == PhaseCalibrate || p == PhaseStartup || p == PhaseICTransient {
		h.mode = types.ModeTransient
	}
	ok := run(ctx)
	h.mode = types.ModeNone
	end(ok)
	if !ok {
		h.ctx.Log.WithField("phase", p.String()).Error("HB 阶段失败")
	}
	return ok
}

// loopProcess 以初值求解频域非线性问题
func (h *HB) loopProcess(ctx context.Context) bool {
	ctx, end := h.enter(ctx, PhaseSolve)
	h.ctx.Log.Info(" ***** Beginning full HB simulation....")
	if h.loader == nil {
		h.ctx.Log.Error("HB 问题尚未构建，跳过求解")
		end(false)
		return false
	}
	if h.cfg.TestMode {
		h.ctx.Log.Warn("HB 测试模式：跳过牛顿求解，保留初值")
		end(true)
		return true
	}

	h.mode = types.ModeDCSweep
	r := h.ctx.Analyses.NewSteadyState()
	ok := r.Run(ctx)
	h.mode = types.ModeNone
	var st types.Stats
	r.StatisticsInto(&st)
	h.stats.Add(st)
	end(ok)

	h.ctx.Log.Info(" ***** Harmonic Balance Computation Summary *****")
	h.ctx.Log.WithField("step_time", time.Since(h.stepStart)).Info(h.stats.String())
	return ok
}

// finish 保存解与统计
func (h *HB) finish(ctx context.Context) bool {
	_, end := h.enter(ctx, PhaseFinish)
	h.solution = h.ctx.Store.CurrSolution.Clone()
	h.totals = h.stats
	end(true)
	return true
}

// ResetForStepAnalysis 在参数扫描的各步之间恢复求解器与器件状态。
// 第一次调用只做标记，之后的调用撤销上一次运行的注册与标志覆盖，
// 并恢复主瞬态参数（起始时间、校准容差），可重复调用。每次调用重新开始步计时。
func (h *HB) ResetForStepAnalysis() {
	if h.resetCalledBefore {
		h.history, h.startupIC, h.ic = nil, nil, nil
		h.ctx.Store.ResetFastTimeData()
		if h.registered {
			nls := h.ctx.NLS
			nls.RegisterLinearSystem(h.savedSystem)
			nls.RegisterLoader(h.savedLoader)
			nls.SetMatrixFreeFlag(false)
			nls.RegisterPrecondFactory(nil)
			nls.SetAnalysisMode(types.ModeNone)
			if h.linSol != nil {
				if err := nls.SetLinSolOptions(*h.linSol); err != nil {
					h.ctx.Log.WithError(err).Warn("恢复线性求解选项失败")
				}
			}
			if err := h.ctx.Device.DeRegisterFastSources(nil); err != nil {
				h.ctx.Log.WithError(err).Warn("取消快速源失败")
			}
			h.registered = false
			h.savedSystem, h.savedLoader = nil, nil
		}
		if h.restoreMPDE != nil {
			h.restoreMPDE()
			h.restoreMPDE = nil
		}
		if h.restoreLimiter != nil {
			h.restoreLimiter()
			h.restoreLimiter = nil
		}
		dev := h.ctx.Device
		h.ctx.Store.Allocate(dev.SolutionSize(), dev.StateSize(), dev.StoreSize())
		h.loader, h.builder, h.icFreq, h.icState, h.icStore = nil, nil, nil, nil, nil
		if h.originSaved {
			h.ctx.Params = h.origin
			h.originSaved = false
		}
	}
	h.resetCalledBefore = true
	h.stepStart = time.Now()
}

// IsAnalysis 当前是否处于指定的子分析
func (h *HB) IsAnalysis(mode types.AnalysisMode) bool {
	switch mode {
	case types.ModeTransient, types.ModeDCSweep:
		return h.mode == mode
	}
	return false
}

// Phases 最近一次运行经历的阶段
func (h *HB) Phases() []Phase { return append([]Phase(nil), h.phases...) }

// Stats 最近一次运行的累计统计
func (h *HB) Stats() types.Stats { return h.stats }

// Totals 最近一次成功运行的统计
func (h *HB) Totals() types.Stats { return h.totals }

// TimeGrid 均匀时间网格
func (h *HB) TimeGrid() TimeGrid { return h.grid }

// Solution 最近一次成功运行的 ERF 解
func (h *HB) Solution() maths.Vector { return h.solution }

// InitialGuess 问题构建时的 ERF 初值
func (h *HB) InitialGuess() maths.Vector {
	if h.icFreq == nil {
		return nil
	}
	return h.icFreq.Vector
}
