package device

import "hbcircuit/mna"

// VCVS 电压控制电压源 V(op,on) = gain*V(cp,cn)
type VCVS struct {
	base
	op, on, cp, cn, b mna.NodeID
	gain              float64
}

// NewVCVS b 为输出支路电流未知量
func NewVCVS(name string, op, on, cp, cn, b mna.NodeID, gain float64) *VCVS {
	return &VCVS{base: base{name: name}, op: op, on: on, cp: cp, cn: cn, b: b, gain: gain}
}

func (e *VCVS) Load(l *Load, s mna.Stamper) {
	s.StampVCVS(l.X, e.op, e.on, e.cp, e.cn, e.b, e.gain)
}

// VCCS 电压控制电流源，gm*V(cp,cn) 由 op 经源流向 on
type VCCS struct {
	base
	op, on, cp, cn mna.NodeID
	gm             float64
}

func NewVCCS(name string, op, on, cp, cn mna.NodeID, gm float64) *VCCS {
	return &VCCS{base: base{name: name}, op: op, on: on, cp: cp, cn: cn, gm: gm}
}

func (g *VCCS) Load(l *Load, s mna.Stamper) {
	s.StampVCCS(l.X, g.op, g.on, g.cp, g.cn, g.gm)
}
