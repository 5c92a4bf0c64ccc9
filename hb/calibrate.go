package hb

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"hbcircuit/tia"
	"hbcircuit/types"
)

// calibrate 以一阶积分运行一个周期的瞬态，逐次收紧相对容差，
// 直到一个周期内的样本数不少于 1.2·N 或容差到达下限。
// 得到的容差写回主瞬态参数。
func (h *HB) calibrate(ctx context.Context) bool {
	h.ctx.Log.Info(" ***** Computing tolerance parameters for HB IC calculation....")
	saveHistory := h.cfg.StartupPeriods == 0

	p := h.ctx.Params
	p.FinalTime = p.InitialTime + h.cfg.Period
	p.SaveTimeSteps = saveHistory
	p.NOOP = false
	h.historyStart = p.InitialTime

	need := sampleFactor * float64(h.cfg.NumHarmonics)
	ok, samples := h.runCalibration(ctx, p)
	for float64(samples) < need && p.RelErrorTol > toleranceFloor {
		if saveHistory {
			h.ctx.Store.ResetFastTimeData()
		}
		p.RelErrorTol = math.Max(p.RelErrorTol/10, toleranceFloor)
		var runOK bool
		runOK, samples = h.runCalibration(ctx, p)
		ok = ok && runOK
	}
	fields := logrus.Fields{"reltol": p.RelErrorTol, "samples": samples, "need": need}
	if float64(samples) < need {
		h.ctx.Log.WithFields(fields).Warn("容差已到下限，一个周期内的样本数仍不足")
	} else {
		h.ctx.Log.WithFields(fields).Info("HB IC 容差校准完成")
	}
	h.ctx.Params.RelErrorTol = p.RelErrorTol
	return ok
}

// runCalibration 运行一次，返回成功与否及样本数（成功步数+1）
func (h *HB) runCalibration(ctx context.Context, p tia.Params) (bool, int) {
	r := h.ctx.Analyses.NewTransient(p)
	ok := r.Run(ctx)
	var st types.Stats
	r.StatisticsInto(&st)
	h.stats.Add(st)
	h.ctx.Log.WithFields(logrus.Fields{"reltol": p.RelErrorTol, "steps": st.SuccessfulSteps}).Debug("校准运行")
	return ok, st.SuccessfulSteps + 1
}
