// Package device 提供谐波平衡与瞬态分析共用的器件模型与器件接口。
//
// 所有器件以半显式DAE形式 d/dt q(x) + f(x) = 0 向 mna.Stamper 加盖。
package device

import (
	"errors"

	"hbcircuit/mna"
)

var (
	// ErrUnknownSource 注册快速源时找不到对应名称
	ErrUnknownSource = errors.New("未知的独立源")
	// ErrDuplicateName 器件重名
	ErrDuplicateName = errors.New("器件名称重复")
)

// Load 一次装载的输入/输出上下文
type Load struct {
	Time     float64   // 当前时间
	X        []float64 // 解向量
	State    []float64 // 状态向量（器件写入电荷等），可为 nil
	Store    []float64 // 存储向量（器件读写限幅历史等），可为 nil
	Limit    bool      // 电压限幅开启
	MPDE     bool      // MPDE 模式：非快速源冻结为直流值
	FastTime float64   // MPDE 模式下快速源的求值时间
}

// Device 器件接口
type Device interface {
	Name() string                 // 器件名称
	StateSize() int               // 所需状态量个数
	StoreSize() int               // 所需存储量个数
	Bind(state, store int)        // 由电路分配状态/存储偏移
	Load(l *Load, s mna.Stamper) // 加盖 f、q 及其雅可比
}

// base 器件公共字段
type base struct {
	name  string
	state int // 状态偏移
	store int // 存储偏移
}

func (b *base) Name() string          { return b.name }
func (b *base) StateSize() int        { return 0 }
func (b *base) StoreSize() int        { return 0 }
func (b *base) Bind(state, store int) { b.state, b.store = state, store }

// setState 写入状态量（状态向量为空时忽略）
func (b *base) setState(l *Load, i int, v float64) {
	if len(l.State) > b.state+i {
		l.State[b.state+i] = v
	}
}

// getStore / setStore 读写存储量
func (b *base) getStore(l *Load, i int) (float64, bool) {
	if len(l.Store) > b.store+i {
		return l.Store[b.store+i], true
	}
	return 0, false
}

func (b *base) setStore(l *Load, i int, v float64) {
	if len(l.Store) > b.store+i {
		l.Store[b.store+i] = v
	}
}
