package maths

import (
	"math"
	"testing"
)

// TestDenseVectorOperations 测试稠密向量的基本操作，
// 包括创建、设置/获取元素、点积、加法和标量乘法。
func TestDenseVectorOperations(t *testing.T) {
	v1 := NewDenseVectorWithData([]float64{1, 2, 3})
	if v1.Length() != 3 {
		t.Errorf("Expected length 3, got %d", v1.Length())
	}
	if v1.Get(1) != 2 {
		t.Errorf("Expected Get(1) to be 2, got %f", v1.Get(1))
	}

	v2 := NewDenseVectorWithData([]float64{4, 5, 6})
	dot := v1.DotProduct(v2)
	if expected := 1.0*4.0 + 2.0*5.0 + 3.0*6.0; dot != expected {
		t.Errorf("Expected dot product %f, got %f", expected, dot)
	}

	v1.Add(v2)
	if v1.Get(0) != 5 || v1.Get(1) != 7 || v1.Get(2) != 9 {
		t.Errorf("Vector Add failed. Got %s", v1)
	}

	v1.Scale(2)
	if v1.Get(0) != 10 || v1.Get(1) != 14 || v1.Get(2) != 18 {
		t.Errorf("Vector Scale failed. Got %s", v1)
	}

	v1.AddScaled(-2, v2)
	if v1.Get(0) != 2 || v1.Get(1) != 4 || v1.Get(2) != 6 {
		t.Errorf("Vector AddScaled failed. Got %s", v1)
	}
	if v1.MaxAbs() != 6 {
		t.Errorf("Expected MaxAbs 6, got %f", v1.MaxAbs())
	}
}

// TestLinearComboAliasing 线性组合允许输出与输入共享存储
func TestLinearComboAliasing(t *testing.T) {
	x := NewDenseVectorWithData([]float64{1, 2})
	y := NewDenseVectorWithData([]float64{10, 20})
	y.LinearCombo(2, x, -1, y)
	if y.Get(0) != -8 || y.Get(1) != -16 {
		t.Errorf("LinearCombo aliasing failed. Got %s", y)
	}
}

// TestCloneIndependent 深拷贝与原向量互不影响
func TestCloneIndependent(t *testing.T) {
	v := NewDenseVectorWithData([]float64{3, 4})
	c := v.Clone()
	c.Set(0, 100)
	if v.Get(0) != 3 {
		t.Errorf("Clone shares storage with source")
	}
	if math.Abs(v.Norm2()-5) > 1e-15 {
		t.Errorf("Expected norm 5, got %f", v.Norm2())
	}
}

// TestLerp 泛型线性插值
func TestLerp(t *testing.T) {
	tests := []struct {
		lo, hi, f, want float64
	}{
		{0, 10, 0, 0},
		{0, 10, 1, 10},
		{2, 4, 0.25, 2.5},
		{-1, 1, 0.5, 0},
	}
	for _, tt := range tests {
		if got := Lerp(tt.lo, tt.hi, tt.f); got != tt.want {
			t.Errorf("Lerp(%v,%v,%v) = %v, want %v", tt.lo, tt.hi, tt.f, got, tt.want)
		}
	}
	if got := Lerp[float32](1, 3, 0.5); got != 2 {
		t.Errorf("Lerp[float32] = %v, want 2", got)
	}

	dst := NewDenseVector(2)
	LerpVector(dst, NewDenseVectorWithData([]float64{0, 1}), NewDenseVectorWithData([]float64{2, 3}), 0.5)
	if dst.Get(0) != 1 || dst.Get(1) != 2 {
		t.Errorf("LerpVector failed. Got %s", dst)
	}
}
