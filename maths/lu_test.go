package maths

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// TestLUSolve 测试LU分解求解
func TestLUSolve(t *testing.T) {
	a := mat.NewDense(3, 3, []float64{
		4, -2, 1,
		-2, 4, -2,
		1, -2, 4,
	})
	var lu LU
	if err := lu.Factorize(a); err != nil {
		t.Fatalf("Factorize: %v", err)
	}
	want := []float64{1, 2, 3}
	b := NewDenseVector(3)
	MatVec(a, NewDenseVectorWithData(want), b)
	x := NewDenseVector(3)
	if err := lu.Solve(b, x); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	for i, w := range want {
		if math.Abs(x.Get(i)-w) > 1e-12 {
			t.Errorf("x[%d] = %v, want %v", i, x.Get(i), w)
		}
	}
}

// TestLUSingular 奇异矩阵返回 ErrSingular
func TestLUSingular(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 2, 4})
	var lu LU
	if err := lu.Factorize(a); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
}
