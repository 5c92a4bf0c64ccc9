// Package tia 时间积分：瞬态分析参数、共享数据存储与自适应步长瞬态运行器。
package tia

import (
	"errors"
	"fmt"
)

// 常量定义（通用配置阈值）
const (
	defaultAbsTol  = 1e-6 // 默认绝对误差容差
	defaultRelTol  = 1e-4 // 默认相对误差容差
	defaultSafety  = 0.85 // 默认步长调整安全系数
	defaultMaxStep = 1e6  // 默认最大步数
	dcGmin         = 1e-12

	maxStepScale = 2.5 // 最大步长增长倍数
	minStepScale = 0.4 // 最小步长缩减倍数
	failureScale = 0.25
)

// ErrInvalidInterval 仿真区间非法
var ErrInvalidInterval = errors.New("仿真区间非法")

// ErrStepTooSmall 步长低于下限
var ErrStepTooSmall = errors.New("时间步长过小")

// ErrTooManySteps 步数超过上限
var ErrTooManySteps = errors.New("时间步数超过上限")

// Params 瞬态分析参数
type Params struct {
	InitialTime float64 // 起始时间
	FinalTime   float64 // 终止时间
	RelErrorTol float64 // 相对误差容差
	AbsErrorTol float64 // 绝对误差容差
	InitialStep float64 // 初始步长，0 表示自动
	MinStep     float64 // 最小步长，0 表示自动
	MaxStep     float64 // 最大步长，0 表示自动
	MaxSteps    int     // 最大步数，0 表示默认

	SaveTimeSteps bool // 保留每一步的快速时间历史
	NOOP          bool // 跳过直流工作点，直接使用数据存储中的初值
}

// DefaultParams 默认参数
func DefaultParams() Params {
	return Params{RelErrorTol: defaultRelTol, AbsErrorTol: defaultAbsTol}
}

// Span 仿真区间长度
func (p Params) Span() float64 { return p.FinalTime - p.InitialTime }

// validate 检查并补全自动参数
func (p Params) validate() (Params, error) {
	span := p.Span()
	if !(span > 0) {
		return p, fmt.Errorf("[%g, %g]: %w", p.InitialTime, p.FinalTime, ErrInvalidInterval)
	}
	if p.RelErrorTol <= 0 {
		p.RelErrorTol = defaultRelTol
	}
	if p.AbsErrorTol <= 0 {
		p.AbsErrorTol = defaultAbsTol
	}
	if p.MaxStep <= 0 {
		p.MaxStep = span / 10
	}
	if p.InitialStep <= 0 {
		p.InitialStep = span / 100
	}
	if p.MinStep <= 0 {
		p.MinStep = span * 1e-12
	}
	if p.InitialStep > p.MaxStep {
		p.InitialStep = p.MaxStep
	}
	if p.MaxSteps <= 0 {
		p.MaxSteps = defaultMaxStep
	}
	return p, nil
}
