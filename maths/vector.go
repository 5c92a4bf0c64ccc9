package maths

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// denseVector 稠密向量实现
type denseVector struct {
	data []float64
}

// NewDenseVector 创建新的稠密向量
func NewDenseVector(length int) Vector {
	return &denseVector{data: make([]float64, length)}
}

// NewDenseVectorWithData 从现有数据创建稠密向量（共享底层切片）
func NewDenseVectorWithData(data []float64) Vector {
	return &denseVector{data: data}
}

// BuildFromDense 从稠密向量构建向量
func (v *denseVector) BuildFromDense(dense []float64) {
	if len(dense) != len(v.data) {
		panic("dimension mismatch")
	}
	copy(v.data, dense)
}

// Copy 将自身值复制到 a 向量
func (v *denseVector) Copy(a Vector) {
	if a.Length() != len(v.data) {
		panic("vector dimension mismatch")
	}
	copy(a.ToDense(), v.data)
}

// Clone 深拷贝
func (v *denseVector) Clone() Vector {
	return &denseVector{data: append([]float64(nil), v.data...)}
}

func (v *denseVector) Get(index int) float64              { return v.data[index] }
func (v *denseVector) Set(index int, value float64)       { v.data[index] = value }
func (v *denseVector) Increment(index int, value float64) { v.data[index] += value }
func (v *denseVector) Length() int                        { return len(v.data) }
func (v *denseVector) ToDense() []float64                 { return v.data }

// Zero 清空向量
func (v *denseVector) Zero() {
	for i := range v.data {
		v.data[i] = 0
	}
}

// String 返回向量的字符串表示
func (v *denseVector) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, x := range v.data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.6g", x)
	}
	sb.WriteByte(']')
	return sb.String()
}

// DotProduct 计算与另一个向量的点积
func (v *denseVector) DotProduct(other Vector) float64 {
	if other.Length() != v.Length() {
		panic("vector dimension mismatch")
	}
	return floats.Dot(v.data, other.ToDense())
}

// Scale 向量缩放
func (v *denseVector) Scale(scalar float64) { floats.Scale(scalar, v.data) }

// Add 向量加法
func (v *denseVector) Add(other Vector) {
	if other.Length() != v.Length() {
		panic("vector dimension mismatch")
	}
	floats.Add(v.data, other.ToDense())
}

// AddScaled 自身 += alpha*other
func (v *denseVector) AddScaled(alpha float64, other Vector) {
	if other.Length() != v.Length() {
		panic("vector dimension mismatch")
	}
	floats.AddScaled(v.data, alpha, other.ToDense())
}

// LinearCombo 自身 = a*x + b*y，允许 x、y 与自身共享存储
func (v *denseVector) LinearCombo(a float64, x Vector, b float64, y Vector) {
	if x.Length() != v.Length() || y.Length() != v.Length() {
		panic("vector dimension mismatch")
	}
	xd, yd := x.ToDense(), y.ToDense()
	for i := range v.data {
		v.data[i] = a*xd[i] + b*yd[i]
	}
}

// Norm2 二范数
func (v *denseVector) Norm2() float64 {
	if len(v.data) == 0 {
		return 0
	}
	return floats.Norm(v.data, 2)
}

// MaxAbs 绝对值最大的元素
func (v *denseVector) MaxAbs() float64 {
	m := 0.0
	for _, x := range v.data {
		m = math.Max(m, math.Abs(x))
	}
	return m
}
