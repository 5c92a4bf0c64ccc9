package device

import (
	"fmt"
	"math"

	"hbcircuit/mna"
)

const (
	thermalVoltage = 0.025864 // 300.15K 时的热电压 kT/q (V)
	diodeGmin      = 1e-12    // 并联最小电导，防止矩阵奇异
	maxExpArg      = 40.0     // 限幅指数的线性延拓起点
)

// DiodeParams 二极管模型参数
type DiodeParams struct {
	IS  float64 // 反向饱和电流 (A)
	N   float64 // 发射系数
	CJO float64 // 零偏结电容 (F)，按线性电容处理
}

// DefaultDiodeParams 默认硅二极管参数
func DefaultDiodeParams() DiodeParams {
	return DiodeParams{IS: 1e-14, N: 1}
}

// Diode 肖克利二极管。存储量保存上一次装载的结电压。
type Diode struct {
	base
	a, k mna.NodeID
	p    DiodeParams
	vt   float64 // N*Vt
}

// NewDiode 创建二极管
func NewDiode(name string, a, k mna.NodeID, p DiodeParams) (*Diode, error) {
	if p.IS <= 0 || p.N <= 0 {
		return nil, fmt.Errorf("二极管 %s 参数非法: IS=%g N=%g", name, p.IS, p.N)
	}
	return &Diode{base: base{name: name}, a: a, k: k, p: p, vt: p.N * thermalVoltage}, nil
}

func (d *Diode) StateSize() int { return 1 }
func (d *Diode) StoreSize() int { return 1 }

// limexp 带线性延拓的指数函数，返回值与导数
func limexp(x float64) (float64, float64) {
	if x < maxExpArg {
		e := math.Exp(x)
		return e, e
	}
	e := math.Exp(maxExpArg)
	return e * (1 + x - maxExpArg), e
}

func (d *Diode) Load(l *Load, s mna.Stamper) {
	vd := s.Voltage(l.X, d.a) - s.Voltage(l.X, d.k)
	x := vd / d.vt
	var e, de float64
	if l.Limit {
		e, de = limexp(x)
	} else {
		e = math.Exp(math.Min(x, 700))
		de = e
	}
	i := d.p.IS*(e-1) + diodeGmin*vd
	g := d.p.IS*de/d.vt + diodeGmin

	s.StampBranchCurrent(d.a, d.k, i)
	s.StampAdmittance(d.a, d.k, g)

	q := d.p.CJO * vd
	if d.p.CJO > 0 {
		s.StampCharge(d.a, q)
		s.StampCharge(d.k, -q)
		s.StampCapacitor(d.a, d.k, d.p.CJO)
	}
	d.setState(l, 0, q)
	d.setStore(l, 0, vd)
}

// LastVoltage 从存储向量读取上一次的结电压
func (d *Diode) LastVoltage(store []float64) float64 {
	v, _ := d.getStore(&Load{Store: store}, 0)
	return v
}
