package hb

import (
	"context"

	"hbcircuit/tia"
	"hbcircuit/types"
)

// startup 运行 S 个周期的预热瞬态，快照末端状态并将主起始时间后移 S 个周期
func (h *HB) startup(ctx context.Context) bool {
	h.ctx.Log.WithField("periods", h.cfg.StartupPeriods).Info(" ***** Beginning startup period simulation....")
	span := float64(h.cfg.StartupPeriods) * h.cfg.Period

	p := h.ctx.Params
	p.FinalTime = p.InitialTime + span
	p.SaveTimeSteps = false
	p.NOOP = false

	restore := h.ctx.push(types.CategoryStartup)
	ok := h.runTransient(ctx, p)
	restore()

	ds := h.ctx.Store
	h.startupIC = &GridPointIC{
		Solution: ds.CurrSolution.Clone(),
		State:    ds.CurrState.Clone(),
		Charge:   ds.CurrQ.Clone(),
		Store:    ds.CurrStore.Clone(),
	}
	h.ctx.Params.InitialTime += span
	return ok
}

// icTransient 运行一个周期并保存全部时间步作为插值历史。
// 运行期间 MPDE 标志强制关闭。
func (h *HB) icTransient(ctx context.Context) bool {
	h.ctx.Log.Info(" ***** Beginning transient simulation for HB initial conditions....")
	restoreMPDE := h.ctx.overrideMPDE(false)
	defer restoreMPDE()
	if h.cfg.SaveICData {
		defer h.ctx.push(types.CategoryHBIC)()
	}

	ds := h.ctx.Store
	p := h.ctx.Params
	p.FinalTime = p.InitialTime + h.cfg.Period
	p.SaveTimeSteps = true
	p.NOOP = false
	if ic := h.startupIC; ic != nil {
		p.NOOP = true
		ds.Allocate(h.ctx.Device.SolutionSize(), h.ctx.Device.StateSize(), h.ctx.Device.StoreSize())
		ic.Solution.Copy(ds.NextSolution)
		ic.State.Copy(ds.NextState)
		ic.Store.Copy(ds.NextStore)
	}
	ds.ResetFastTimeData()
	h.historyStart = p.InitialTime

	ok := h.runTransient(ctx, p)
	h.history = ds.TakeFastTimeData()
	h.ctx.Params.InitialTime += h.cfg.Period
	return ok
}

func (h *HB) runTransient(ctx context.Context, p tia.Params) bool {
	r := h.ctx.Analyses.NewTransient(p)
	ok := r.Run(ctx)
	r.StatisticsInto(&h.stats)
	return ok
}
