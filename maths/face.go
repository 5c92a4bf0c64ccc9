package maths

import "errors"

// ErrSingular 矩阵奇异（或条件数过大）无法分解
var ErrSingular = errors.New("矩阵奇异，无法完成LU分解")

// ErrDimension 维度不一致
var ErrDimension = errors.New("向量或矩阵维度不一致")

// 向量接口定义
type Vector interface {
	// 基础属性方法
	Length() int    // 获取向量长度
	String() string // 格式化字符串输出

	// 数据访问方法
	Get(index int) float64              // 获取指定索引元素值
	Set(index int, value float64)       // 设置指定索引元素值
	Increment(index int, value float64) // 增量更新元素（value累加）

	// 数据操作和转换方法
	ToDense() []float64             // 底层切片引用（直接操作底层数据）
	BuildFromDense(dense []float64) // 从稠密切片构建向量

	// 数据修改方法
	Zero()         // 清空向量为零向量
	Copy(a Vector) // 复制自身数据到目标向量a
	Clone() Vector // 深拷贝

	// 数学运算方法
	DotProduct(other Vector) float64                       // 计算与另一个向量的点积
	Scale(scalar float64)                                  // 向量缩放（所有元素乘scalar）
	Add(other Vector)                                      // 向量加法（自身 += 另一个向量）
	AddScaled(alpha float64, other Vector)                 // 自身 += alpha*other
	LinearCombo(a float64, x Vector, b float64, y Vector) // 自身 = a*x + b*y

	// 统计方法
	Norm2() float64  // 二范数
	MaxAbs() float64 // 绝对值最大的元素
}

// Operator 线性算子 out = A*in，用于无矩阵(matrix-free)求解
type Operator func(in, out Vector) error
