package hb

import (
	"context"

	"github.com/sirupsen/logrus"

	"hbcircuit/nonlinear"
	"hbcircuit/tia"
	"hbcircuit/types"
)

// Runner 子分析运行器
type Runner interface {
	Run(ctx context.Context) bool
	StatisticsInto(s *types.Stats)
}

// Analyses 子分析工厂：瞬态运行与稳态（单点扫描）运行
type Analyses interface {
	NewTransient(p tia.Params) Runner
	NewSteadyState() Runner
}

type analyses struct {
	dev tia.Device
	ds  *tia.DataStore
	nls *nonlinear.Manager
	out tia.Recorder
	log logrus.FieldLogger
}

// NewAnalyses 默认工厂：tia.Transient 与 nonlinear.Sweep。
// 稳态运行在创建时绑定数据存储当前的 Next/Curr 解向量。
func NewAnalyses(dev tia.Device, ds *tia.DataStore, nls *nonlinear.Manager, out tia.Recorder, log logrus.FieldLogger) Analyses {
	return &analyses{dev: dev, ds: ds, nls: nls, out: out, log: log}
}

func (a *analyses) NewTransient(p tia.Params) Runner {
	return tia.NewTransient(a.dev, a.ds, p, a.out, a.log)
}

func (a *analyses) NewSteadyState() Runner {
	return nonlinear.NewSweep(a.nls, a.ds.NextSolution, a.ds.CurrSolution, a.log)
}
