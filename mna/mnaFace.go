package mna

// NodeID 定义了电路节点（或支路电流未知量）在解向量中的索引。
type NodeID int

// Gnd 表示电路的接地节点，其电位为零，所有涉及地节点的加盖都会被忽略。
const Gnd NodeID = -1

// Stamper 定义了器件向半显式DAE系统 d/dt q(x) + f(x) = 0 加盖的能力。
//
// f 为阻性部分（含独立源），q 为电荷/磁链部分；G=df/dx，C=dq/dx。
// 同一套加盖既服务于瞬态积分（G + C/h），也服务于谐波平衡（F̂ + jωQ̂）。
type Stamper interface {
	// Size 返回未知量总数（节点电压 + 支路电流）。
	Size() int

	// Voltage 从给定解中读取节点值，地节点返回0。
	Voltage(x []float64, n NodeID) float64

	// StampCurrent 向 f 的第n行累加电流。
	StampCurrent(n NodeID, i float64)

	// StampCharge 向 q 的第n行累加电荷。
	StampCharge(n NodeID, q float64)

	// StampConductance 向 G 的(i,j)元素累加。
	StampConductance(i, j NodeID, g float64)

	// StampCapacitance 向 C 的(i,j)元素累加。
	StampCapacitance(i, j NodeID, c float64)

	// StampAdmittance 为两端电导加盖。
	// 数学模型: 在G的对角元(n1,n1)和(n2,n2)加上g，非对角元(n1,n2)和(n2,n1)减去g。
	StampAdmittance(n1, n2 NodeID, g float64)

	// StampCapacitor 为两端电容加盖（C矩阵，形式同 StampAdmittance）。
	StampCapacitor(n1, n2 NodeID, c float64)

	// StampBranchCurrent 两端器件的支路电流 i 从 n1 流向 n2。
	StampBranchCurrent(n1, n2 NodeID, i float64)

	// StampVoltageSource 为独立电压源加盖。
	// 数学模型: 引入支路电流 x[b]，KCL 中 n1 流出 x[b]、n2 流入；支路方程 V(n1)-V(n2)-v=0。
	StampVoltageSource(x []float64, n1, n2, b NodeID, v float64)

	// StampVCVS 为电压控制电压源加盖，b 为输出支路电流未知量。
	// 支路方程: V(op)-V(on) - gain*(V(cp)-V(cn)) = 0。
	StampVCVS(x []float64, op, on, cp, cn, b NodeID, gain float64)

	// StampVCCS 为电压控制电流源加盖，电流 gm*(V(cp)-V(cn)) 从 op 经源流向 on。
	StampVCCS(x []float64, op, on, cp, cn NodeID, gm float64)

	// NeedJacobian 是否需要装载 G、C（仅求残差时可跳过）。
	NeedJacobian() bool
}
