package hb

import (
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"hbcircuit/nonlinear"
	"hbcircuit/tia"
	"hbcircuit/types"
)

// SolverManager 谐波平衡需要的求解器注册接口，*nonlinear.Manager 满足
type SolverManager interface {
	RegisterLinearSystem(s nonlinear.LinearSystem)
	LinearSystem() nonlinear.LinearSystem
	RegisterLoader(l nonlinear.Loader)
	Loader() nonlinear.Loader
	SetMatrixFreeFlag(on bool)
	RegisterPrecondFactory(f nonlinear.PrecondFactory)
	SetAnalysisMode(mode types.AnalysisMode)
	SetLinSolOptions(ob types.OptionBlock) error
}

// OutputRouter 输出类别切换，返回恢复函数
type OutputRouter interface {
	Push(category string) func()
}

// PhaseObserver 阶段耗时观测（如 Prometheus 收集器）
type PhaseObserver interface {
	ObservePhase(phase string, d time.Duration)
	ObserveRun(ok bool, st types.Stats)
}

// Context 谐波平衡运行所依赖的协作者
type Context struct {
	Device   Device
	Store    *tia.DataStore
	NLS      SolverManager
	Analyses Analyses
	Params   tia.Params // 主瞬态参数，运行中回写校准容差与起始时间，ResetForStepAnalysis 时恢复
	Output   OutputRouter
	Log      logrus.FieldLogger
	Tracer   trace.Tracer
	Metrics  PhaseObserver
}

// push 切换输出类别，未配置输出时为空操作
func (c *Context) push(category string) func() {
	if c.Output == nil {
		return func() {}
	}
	return c.Output.Push(category)
}

// overrideMPDE 设置 MPDE 标志，返回恢复原值的函数
func (c *Context) overrideMPDE(on bool) func() {
	prev := c.Device.MPDEFlag()
	c.Device.SetMPDEFlag(on)
	return func() { c.Device.SetMPDEFlag(prev) }
}

// overrideVoltageLimiter 设置电压限幅标志，返回恢复原值的函数
func (c *Context) overrideVoltageLimiter(on bool) func() {
	prev := c.Device.VoltageLimiterFlag()
	c.Device.SetVoltageLimiterFlag(on)
	return func() { c.Device.SetVoltageLimiterFlag(prev) }
}
