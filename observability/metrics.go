// Package observability 提供谐波平衡运行的 Prometheus 指标与 OpenTelemetry 追踪。
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"hbcircuit/types"
)

// HBCollector 谐波平衡运行指标
type HBCollector struct {
	gatherer prometheus.Gatherer

	Runs           *prometheus.CounterVec
	PhaseDurations *prometheus.HistogramVec
	Steps          prometheus.Gauge
	FailedSteps    prometheus.Gauge
	JacobianEvals  prometheus.Gauge
	LinearIters    prometheus.Gauge
	ResidualEvals  prometheus.Gauge
	LinearSolveSec prometheus.Gauge
}

// NewHBCollector 在 reg 上注册指标，reg 为 nil 时使用全局注册表
func NewHBCollector(reg prometheus.Registerer) (*HBCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hb_runs_total",
		Help: "Harmonic balance runs, labeled by result.",
	}, []string{"result"}), "hb_runs_total")
	if err != nil {
		return nil, err
	}
	phases, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hb_phase_duration_seconds",
		Help:    "Wall time spent in each harmonic balance phase.",
		Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
	}, []string{"phase"}), "hb_phase_duration_seconds")
	if err != nil {
		return nil, err
	}

	c := &HBCollector{gatherer: gatherer, Runs: runs, PhaseDurations: phases}
	gauges := []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&c.Steps, "hb_steps", "Successful steps accumulated over the last run."},
		{&c.FailedSteps, "hb_failed_steps", "Failed steps accumulated over the last run."},
		{&c.JacobianEvals, "hb_jacobian_evals", "Jacobian evaluations over the last run."},
		{&c.LinearIters, "hb_linear_iterations", "Krylov iterations over the last run."},
		{&c.ResidualEvals, "hb_residual_evals", "Residual evaluations over the last run."},
		{&c.LinearSolveSec, "hb_linear_solve_seconds", "Time spent in linear solves over the last run."},
	}
	for _, g := range gauges {
		*g.dst, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: g.name, Help: g.help}), g.name)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObservePhase 记录阶段耗时
func (c *HBCollector) ObservePhase(phase string, d time.Duration) {
	if c == nil || c.PhaseDurations == nil {
		return
	}
	c.PhaseDurations.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveRun 记录一次运行的结果与统计
func (c *HBCollector) ObserveRun(ok bool, st types.Stats) {
	if c == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	c.Runs.WithLabelValues(result).Inc()
	c.Steps.Set(float64(st.SuccessfulSteps))
	c.FailedSteps.Set(float64(st.FailedSteps))
	c.JacobianEvals.Set(float64(st.JacobianEvals))
	c.LinearIters.Set(float64(st.LinearIters))
	c.ResidualEvals.Set(float64(st.ResidualEvals))
	c.LinearSolveSec.Set(st.LinearSolveTime.Seconds())
}

// WriteTextfile 以 node_exporter textfile 格式写出
func (c *HBCollector) WriteTextfile(path string) error {
	g := c.gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return prometheus.WriteToTextfile(path, g)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
