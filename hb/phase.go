package hb

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Phase 谐波平衡运行阶段
type Phase int

const (
	PhaseCalibrate Phase = iota
	PhaseStartup
	PhaseICTransient
	PhaseInterpolate
	PhaseFixedGrid
	PhaseProblemSetup
	PhaseSolve
	PhaseFinish
)

var phaseNames = [...]string{
	PhaseCalibrate:    "calibrate",
	PhaseStartup:      "startup",
	PhaseICTransient:  "ic_transient",
	PhaseInterpolate:  "interpolate",
	PhaseFixedGrid:    "fixed_grid",
	PhaseProblemSetup: "problem_setup",
	PhaseSolve:        "solve",
	PhaseFinish:       "finish",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// enter 记录阶段并开启追踪 span，返回的函数结束该阶段
func (h *HB) enter(ctx context.Context, p Phase) (context.Context, func(ok bool)) {
	h.phases = append(h.phases, p)
	ctx, span := h.tracer.Start(ctx, "hb."+p.String(),
		trace.WithAttributes(attribute.Int("hb.numfreq", h.cfg.NumHarmonics)))
	start := time.Now()
	return ctx, func(ok bool) {
		d := time.Since(start)
		if !ok {
			span.SetStatus(codes.Error, p.String()+" failed")
		}
		span.End()
		if h.ctx.Metrics != nil {
			h.ctx.Metrics.ObservePhase(p.String(), d)
		}
		h.ctx.Log.WithFields(logrus.Fields{"phase": p.String(), "ok": ok, "elapsed": d}).Debug("HB phase done")
	}
}
