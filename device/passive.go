package device

import (
	"fmt"

	"hbcircuit/mna"
)

// Resistor 电阻 f = (V1-V2)/R
type Resistor struct {
	base
	n1, n2 mna.NodeID
	g      float64
}

// NewResistor 创建电阻，阻值必须大于0
func NewResistor(name string, n1, n2 mna.NodeID, r float64) (*Resistor, error) {
	if r <= 0 {
		return nil, fmt.Errorf("电阻 %s 阻值必须大于0: %g", name, r)
	}
	return &Resistor{base: base{name: name}, n1: n1, n2: n2, g: 1 / r}, nil
}

func (r *Resistor) Load(l *Load, s mna.Stamper) {
	v := s.Voltage(l.X, r.n1) - s.Voltage(l.X, r.n2)
	s.StampBranchCurrent(r.n1, r.n2, r.g*v)
	s.StampAdmittance(r.n1, r.n2, r.g)
}

// Capacitor 线性电容 q = C*(V1-V2)，状态量保存电荷
type Capacitor struct {
	base
	n1, n2 mna.NodeID
	c      float64
}

// NewCapacitor 创建电容，容值不能为负
func NewCapacitor(name string, n1, n2 mna.NodeID, c float64) (*Capacitor, error) {
	if c < 0 {
		return nil, fmt.Errorf("电容 %s 容值不能为负: %g", name, c)
	}
	return &Capacitor{base: base{name: name}, n1: n1, n2: n2, c: c}, nil
}

func (c *Capacitor) StateSize() int { return 1 }

func (c *Capacitor) Load(l *Load, s mna.Stamper) {
	q := c.c * (s.Voltage(l.X, c.n1) - s.Voltage(l.X, c.n2))
	s.StampCharge(c.n1, q)
	s.StampCharge(c.n2, -q)
	s.StampCapacitor(c.n1, c.n2, c.c)
	c.setState(l, 0, q)
}

// Inductor 线性电感，引入支路电流 b：q_b = L*i，f_b = -(V1-V2)
type Inductor struct {
	base
	n1, n2, b mna.NodeID
	l         float64
}

// NewInductor 创建电感，b 为其支路电流未知量
func NewInductor(name string, n1, n2, b mna.NodeID, ind float64) (*Inductor, error) {
	if ind <= 0 {
		return nil, fmt.Errorf("电感 %s 感值必须大于0: %g", name, ind)
	}
	return &Inductor{base: base{name: name}, n1: n1, n2: n2, b: b, l: ind}, nil
}

func (d *Inductor) StateSize() int { return 1 }

func (d *Inductor) Load(l *Load, s mna.Stamper) {
	i := s.Voltage(l.X, d.b)
	s.StampBranchCurrent(d.n1, d.n2, i)
	s.StampCurrent(d.b, -(s.Voltage(l.X, d.n1) - s.Voltage(l.X, d.n2)))
	s.StampCharge(d.b, d.l*i)

	s.StampConductance(d.n1, d.b, 1)
	s.StampConductance(d.n2, d.b, -1)
	s.StampConductance(d.b, d.n1, -1)
	s.StampConductance(d.b, d.n2, 1)
	s.StampCapacitance(d.b, d.b, d.l)
	d.setState(l, 0, d.l*i)
}
