package device

import (
	"fmt"
	"strings"

	"hbcircuit/maths"
	"hbcircuit/mna"
)

// Circuit 器件集合，同时实现分析层使用的器件接口。
type Circuit struct {
	devices []Device
	sources []Source
	names   map[string]bool

	nodes    map[string]mna.NodeID // 节点名 -> 未知量索引
	unknowns []string              // 未知量名称：V(n) 或 I(name)
	numState int
	numStore int

	fastTime float64
	mpde     bool
	limiter  bool
}

// NewCircuit 创建空电路
func NewCircuit() *Circuit {
	return &Circuit{
		names: make(map[string]bool),
		nodes: make(map[string]mna.NodeID),
	}
}

// ------------------------------ 拓扑构建 ------------------------------

// Node 返回节点索引，"0" 与 "GND" 为地，新名称自动分配
func (c *Circuit) Node(name string) mna.NodeID {
	name = strings.ToUpper(name)
	if name == "0" || name == "GND" {
		return mna.Gnd
	}
	if id, ok := c.nodes[name]; ok {
		return id
	}
	id := mna.NodeID(len(c.unknowns))
	c.nodes[name] = id
	c.unknowns = append(c.unknowns, "V("+name+")")
	return id
}

// Branch 为器件分配支路电流未知量
func (c *Circuit) Branch(name string) mna.NodeID {
	id := mna.NodeID(len(c.unknowns))
	c.unknowns = append(c.unknowns, "I("+strings.ToUpper(name)+")")
	return id
}

// Add 添加器件并分配其状态/存储偏移
func (c *Circuit) Add(d Device) error {
	key := strings.ToUpper(d.Name())
	if c.names[key] {
		return fmt.Errorf("%w: %s", ErrDuplicateName, d.Name())
	}
	c.names[key] = true
	d.Bind(c.numState, c.numStore)
	c.numState += d.StateSize()
	c.numStore += d.StoreSize()
	c.devices = append(c.devices, d)
	if s, ok := d.(Source); ok {
		c.sources = append(c.sources, s)
	}
	return nil
}

// Devices 全部器件
func (c *Circuit) Devices() []Device { return c.devices }

// Sources 全部独立源
func (c *Circuit) Sources() []Source { return c.sources }

// UnknownNames 未知量名称，顺序与解向量一致
func (c *Circuit) UnknownNames() []string { return c.unknowns }

// ------------------------------ 器件接口 ------------------------------

func (c *Circuit) SolutionSize() int { return len(c.unknowns) }
func (c *Circuit) StateSize() int    { return c.numState }
func (c *Circuit) StoreSize() int    { return c.numStore }

// LoadDAE 在时间 t 装载全部器件到 sys（调用方负责 sys.Reset）。
// state、store 可为 nil；非空时器件写入本次装载对应的状态/存储值。
func (c *Circuit) LoadDAE(t float64, x, state, store maths.Vector, sys *mna.System) error {
	if x.Length() != c.SolutionSize() || sys.Size() != c.SolutionSize() {
		return fmt.Errorf("装载维度不一致: x=%d sys=%d 未知量=%d: %w",
			x.Length(), sys.Size(), c.SolutionSize(), maths.ErrDimension)
	}
	l := &Load{
		Time:     t,
		X:        x.ToDense(),
		Limit:    c.limiter,
		MPDE:     c.mpde,
		FastTime: c.fastTime,
	}
	if state != nil {
		l.State = state.ToDense()
	}
	if store != nil {
		l.Store = store.ToDense()
	}
	for _, d := range c.devices {
		d.Load(l, sys)
	}
	return nil
}

// SetFastTime MPDE 模式下快速源的求值时间
func (c *Circuit) SetFastTime(t float64) { c.fastTime = t }

// RegisterFastSources 标记快速源，names 为空表示全部独立源
func (c *Circuit) RegisterFastSources(names []string) error {
	return c.markFast(names, true)
}

// DeRegisterFastSources 取消快速源标记，names 为空表示全部独立源
func (c *Circuit) DeRegisterFastSources(names []string) error {
	return c.markFast(names, false)
}

func (c *Circuit) markFast(names []string, fast bool) error {
	if len(names) == 0 {
		for _, s := range c.sources {
			s.SetFast(fast)
		}
		return nil
	}
	for _, n := range names {
		found := false
		for _, s := range c.sources {
			if strings.EqualFold(s.Name(), n) {
				s.SetFast(fast)
				found = true
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrUnknownSource, n)
		}
	}
	return nil
}

func (c *Circuit) SetVoltageLimiterFlag(on bool) { c.limiter = on }
func (c *Circuit) VoltageLimiterFlag() bool      { return c.limiter }
func (c *Circuit) SetMPDEFlag(on bool)           { c.mpde = on }
func (c *Circuit) MPDEFlag() bool                { return c.mpde }

// Fundamental 返回独立源中的最低非零频率，用于未指定 .HB 频率时
func (c *Circuit) Fundamental() float64 {
	f := 0.0
	for _, s := range c.sources {
		if w := s.Waveform(); w.Freq > 0 && (f == 0 || w.Freq < f) {
			f = w.Freq
		}
	}
	return f
}
