package maths

import "golang.org/x/exp/constraints"

// Lerp 线性插值 lo + f*(hi-lo)
func Lerp[T constraints.Float](lo, hi, f T) T {
	return lo + f*(hi-lo)
}

// LerpVector 逐元素线性插值 dst = lo + f*(hi-lo)
func LerpVector(dst, lo, hi Vector, f float64) {
	if dst.Length() != lo.Length() || lo.Length() != hi.Length() {
		panic("vector dimension mismatch")
	}
	d, l, h := dst.ToDense(), lo.ToDense(), hi.ToDense()
	for i := range d {
		d[i] = Lerp(l[i], h[i], f)
	}
}
