package mna

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"hbcircuit/maths"
)

// System 是 Stamper 的稠密实现，保存一次装载得到的 f、q、G、C。
type System struct {
	size     int          // 未知量数量
	F        maths.Vector // 阻性向量 f(x)
	Q        maths.Vector // 电荷向量 q(x)
	G        *mat.Dense   // df/dx
	C        *mat.Dense   // dq/dx
	jacobian bool         // 是否装载 G、C
}

// NewSystem 创建 n 个未知量的系统。
func NewSystem(n int) *System {
	if n <= 0 {
		panic(fmt.Sprintf("mna: 非法的系统维度 %d", n))
	}
	return &System{
		size:     n,
		F:        maths.NewDenseVector(n),
		Q:        maths.NewDenseVector(n),
		G:        mat.NewDense(n, n, nil),
		C:        mat.NewDense(n, n, nil),
		jacobian: true,
	}
}

// Reset 清零并设置本次装载是否需要雅可比。
func (s *System) Reset(jacobian bool) {
	s.F.Zero()
	s.Q.Zero()
	if jacobian {
		s.G.Zero()
		s.C.Zero()
	}
	s.jacobian = jacobian
}

// ------------------------------ 系统信息查询 ------------------------------

func (s *System) Size() int          { return s.size }
func (s *System) NeedJacobian() bool { return s.jacobian }

// Voltage 读取节点值，地节点或越界返回0。
func (s *System) Voltage(x []float64, n NodeID) float64 {
	if n > Gnd && int(n) < len(x) {
		return x[n]
	}
	return 0
}

// ------------------------------ 向量加盖 ------------------------------

func (s *System) StampCurrent(n NodeID, i float64) {
	if n > Gnd {
		s.F.Increment(int(n), i)
	}
}

func (s *System) StampCharge(n NodeID, q float64) {
	if n > Gnd {
		s.Q.Increment(int(n), q)
	}
}

// ------------------------------ 矩阵加盖 ------------------------------

func (s *System) StampConductance(i, j NodeID, g float64) {
	if s.jacobian && i > Gnd && j > Gnd {
		s.G.Set(int(i), int(j), s.G.At(int(i), int(j))+g)
	}
}

func (s *System) StampCapacitance(i, j NodeID, c float64) {
	if s.jacobian && i > Gnd && j > Gnd {
		s.C.Set(int(i), int(j), s.C.At(int(i), int(j))+c)
	}
}

// StampAdmittance 为导纳元件加盖，修改G的四个相关元素。
func (s *System) StampAdmittance(n1, n2 NodeID, g float64) {
	s.StampConductance(n1, n1, g)
	s.StampConductance(n2, n2, g)
	s.StampConductance(n1, n2, -g)
	s.StampConductance(n2, n1, -g)
}

// StampCapacitor 为电容元件加盖，修改C的四个相关元素。
func (s *System) StampCapacitor(n1, n2 NodeID, c float64) {
	s.StampCapacitance(n1, n1, c)
	s.StampCapacitance(n2, n2, c)
	s.StampCapacitance(n1, n2, -c)
	s.StampCapacitance(n2, n1, -c)
}

// StampBranchCurrent 电流从n1流出、流入n2。
func (s *System) StampBranchCurrent(n1, n2 NodeID, i float64) {
	s.StampCurrent(n1, i)
	s.StampCurrent(n2, -i)
}

// StampVoltageSource 为独立电压源加盖，b 为支路电流未知量索引。
func (s *System) StampVoltageSource(x []float64, n1, n2, b NodeID, v float64) {
	ib := s.Voltage(x, b)
	s.StampCurrent(n1, ib)
	s.StampCurrent(n2, -ib)
	s.StampCurrent(b, s.Voltage(x, n1)-s.Voltage(x, n2)-v)
	s.StampConductance(n1, b, 1)
	s.StampConductance(n2, b, -1)
	s.StampConductance(b, n1, 1)
	s.StampConductance(b, n2, -1)
}

// StampVCVS 受控源的 KCL 贡献同独立电压源，支路方程为控制关系。
func (s *System) StampVCVS(x []float64, op, on, cp, cn, b NodeID, gain float64) {
	ib := s.Voltage(x, b)
	s.StampCurrent(op, ib)
	s.StampCurrent(on, -ib)
	vc := s.Voltage(x, cp) - s.Voltage(x, cn)
	s.StampCurrent(b, s.Voltage(x, op)-s.Voltage(x, on)-gain*vc)
	s.StampConductance(op, b, 1)
	s.StampConductance(on, b, -1)
	s.StampConductance(b, op, 1)
	s.StampConductance(b, on, -1)
	s.StampConductance(b, cp, -gain)
	s.StampConductance(b, cn, gain)
}

// StampVCCS 跨导加盖。
func (s *System) StampVCCS(x []float64, op, on, cp, cn NodeID, gm float64) {
	s.StampBranchCurrent(op, on, gm*(s.Voltage(x, cp)-s.Voltage(x, cn)))
	s.StampConductance(op, cp, gm)
	s.StampConductance(op, cn, -gm)
	s.StampConductance(on, cp, -gm)
	s.StampConductance(on, cn, gm)
}

// String 输出系统状态，主要用于调试。
func (s *System) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "f = %s\nq = %s\n", s.F, s.Q)
	fmt.Fprintf(&sb, "G =\n%v\n", mat.Formatted(s.G, mat.Prefix("    ")))
	fmt.Fprintf(&sb, "C =\n%v\n", mat.Formatted(s.C, mat.Prefix("    ")))
	return sb.String()
}
