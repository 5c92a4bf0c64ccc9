package hb

import (
	"context"

	"github.com/sirupsen/logrus"

	"hbcircuit/maths"
	"hbcircuit/types"
)

// interpolate 将瞬态历史插值到以历史起点为原点的均匀网格
func (h *HB) interpolate(ctx context.Context) bool {
	grid, err := NewTimeGrid(h.historyStart, h.cfg.Period, h.cfg.NumHarmonics)
	if err != nil {
		h.ctx.Log.WithError(err).Error("构建时间网格失败")
		return false
	}
	h.grid = grid
	history := h.history
	if history == nil {
		history = h.ctx.Store.TakeFastTimeData()
	}
	h.history = nil
	ic, err := Interpolate(history, grid.Samples())
	if err != nil {
		h.ctx.Log.WithError(err).Error("HB 初值插值失败")
		return false
	}
	h.ic = ic
	h.ctx.Log.WithField("points", len(ic)).Debug("HB 初值插值完成")
	return true
}

// fixedGrid 不运行瞬态，以当前数据存储的解在每个网格点复制作为初值
func (h *HB) fixedGrid(ctx context.Context) bool {
	grid, err := NewTimeGrid(h.ctx.Params.InitialTime, h.cfg.Period, h.cfg.NumHarmonics)
	if err != nil {
		h.ctx.Log.WithError(err).Error("构建时间网格失败")
		return false
	}
	h.grid = grid
	dev, ds := h.ctx.Device, h.ctx.Store
	ds.Allocate(dev.SolutionSize(), dev.StateSize(), dev.StoreSize())
	h.ic = make([]GridPointIC, grid.Size())
	for i := range h.ic {
		h.ic[i] = GridPointIC{
			Solution: ds.CurrSolution.Clone(),
			State:    ds.CurrState.Clone(),
			Charge:   ds.CurrQ.Clone(),
			Store:    ds.CurrStore.Clone(),
		}
	}
	return true
}

// setupProblem 构建谐波平衡问题，向求解器注册线性系统/装载器/预处理器，
// 并把初值写入数据存储。缺少网格点初值时以零初值继续。
func (h *HB) setupProblem(ctx context.Context) bool {
	dev, ds, nls := h.ctx.Device, h.ctx.Store, h.ctx.NLS
	n, nState, nStore := dev.SolutionSize(), dev.StateSize(), dev.StoreSize()
	if len(h.grid.Freqs) != h.cfg.NumHarmonics {
		grid, err := NewTimeGrid(h.historyStart, h.cfg.Period, h.cfg.NumHarmonics)
		if err != nil {
			h.ctx.Log.WithError(err).Error("构建时间网格失败")
			return false
		}
		h.grid = grid
	}

	h.builder = NewBuilder(h.cfg.NumHarmonics, n, nState, nStore)
	h.transform = NewTransform(h.cfg.NumHarmonics)
	timeIC := h.builder.CreateTimeDomainBlockVector()
	h.icState = h.builder.CreateTimeDomainStateBlockVector()
	h.icStore = h.builder.CreateTimeDomainStoreBlockVector()
	if len(h.ic) == h.cfg.NumHarmonics {
		for i, g := range h.ic {
			copyInto(g.Solution, timeIC.Block(i))
			copyInto(g.State, h.icState.Block(i))
			copyInto(g.Store, h.icStore.Block(i))
		}
	} else {
		h.ctx.Log.Warn("缺少网格点初值，使用零初值")
	}
	h.ic = nil
	h.icFreq = h.transform.ToFrequency(timeIC)

	if h.restoreMPDE == nil {
		h.restoreMPDE = h.ctx.overrideMPDE(true)
	} else {
		dev.SetMPDEFlag(true)
	}
	if err := dev.RegisterFastSources(nil); err != nil {
		h.ctx.Log.WithError(err).Error("注册快速源失败")
		return false
	}

	kind, err := ParsePrecond(h.hbLinSol)
	if err != nil {
		h.ctx.Log.WithError(err).Error("LINSOL-HB 选项错误")
		return false
	}
	if err := nls.SetLinSolOptions(h.hbLinSol); err != nil {
		h.ctx.Log.WithError(err).Error("LINSOL-HB 选项错误")
		return false
	}
	if !h.registered {
		h.savedSystem = nls.LinearSystem()
		h.savedLoader = nls.Loader()
		h.registered = true
	}
	h.loader = NewLoader(dev, h.builder, h.transform, h.grid, h.icState.CloneBlock(), h.icStore.CloneBlock())
	nls.RegisterLinearSystem(h.builder)
	nls.RegisterLoader(h.loader)
	nls.SetMatrixFreeFlag(!h.directSolve())
	if kind == PrecondBlockJacobi {
		nls.RegisterPrecondFactory(NewPrecondFactory(h.loader, h.ctx.Log))
	} else {
		nls.RegisterPrecondFactory(nil)
	}
	nls.SetAnalysisMode(types.ModeHB)

	ds.NextSolution = h.icFreq.Vector.Clone()
	ds.CurrSolution = h.icFreq.Vector.Clone()
	ds.NextState = h.icState.Vector.Clone()
	ds.NextStore = h.icStore.Vector.Clone()
	h.ctx.Log.WithFields(logrus.Fields{
		"unknowns": n,
		"numfreq":  h.cfg.NumHarmonics,
		"size":     h.builder.Size(),
	}).Info("HB 问题构建完成")
	return true
}

// directSolve LINSOL-HB DIRECT=1 时使用稠密直接求解
func (h *HB) directSolve() bool {
	v, ok := h.hbLinSol.Lookup("DIRECT")
	if !ok {
		return false
	}
	on, err := types.Param{Tag: "DIRECT", Value: v}.Bool()
	return err == nil && on
}

// copyInto 长度一致时复制 src 到 dst
func copyInto(src, dst maths.Vector) {
	if src != nil && src.Length() == dst.Length() {
		src.Copy(dst)
	}
}
