package hb

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"hbcircuit/maths"
)

// Transform 时域与扩展实数形式(ERF)频域之间的变换。
//
// 时域向量按采样点分块（N 块，每块为全部未知量），
// ERF 向量按未知量分块（每块 2N：第 k 个频率槽的实部/虚部位于 [2k, 2k+1]）。
// 频率系数按 1/N 归一化，k>M 的槽为 N-k 槽的共轭。
type Transform struct {
	n     int
	fft   *fourier.FFT
	seq   []float64
	coeff []complex128
}

// NewTransform 创建 n 点变换（n 为奇数）
func NewTransform(n int) *Transform {
	if n < 1 || n%2 == 0 {
		panic(fmt.Sprintf("hb: 变换点数必须为正奇数: %d", n))
	}
	t := &Transform{
		n:     n,
		seq:   make([]float64, n),
		coeff: make([]complex128, n/2+1),
	}
	if n > 1 {
		t.fft = fourier.NewFFT(n)
	}
	return t
}

// Size 变换点数 N
func (t *Transform) Size() int { return t.n }

// ToFrequency 时域分块向量 → ERF 分块向量
func (t *Transform) ToFrequency(time *maths.BlockVector) *maths.BlockVector {
	freq := maths.NewBlockVector(time.BlockSize(), 2*t.n)
	t.ToFrequencyInto(time, freq)
	return freq
}

// ToFrequencyInto 结果写入 freq
func (t *Transform) ToFrequencyInto(time, freq *maths.BlockVector) {
	t.check(time, freq)
	m := (t.n - 1) / 2
	scale := 1 / float64(t.n)
	for j := 0; j < time.BlockSize(); j++ {
		for i := 0; i < t.n; i++ {
			t.seq[i] = time.Block(i).Get(j)
		}
		t.forward()
		out := freq.Block(j)
		for k := 0; k <= m; k++ {
			out.Set(2*k, real(t.coeff[k])*scale)
			out.Set(2*k+1, imag(t.coeff[k])*scale)
		}
		for k := m + 1; k < t.n; k++ {
			out.Set(2*k, out.Get(2*(t.n-k)))
			out.Set(2*k+1, -out.Get(2*(t.n-k)+1))
		}
	}
}

// ToTime ERF 分块向量 → 时域分块向量
func (t *Transform) ToTime(freq *maths.BlockVector) *maths.BlockVector {
	time := maths.NewBlockVector(t.n, freq.BlockCount())
	t.ToTimeInto(freq, time)
	return time
}

// ToTimeInto 结果写入 time。只使用 0..M 槽与直流实部，冗余槽不参与。
func (t *Transform) ToTimeInto(freq, time *maths.BlockVector) {
	t.check(time, freq)
	m := (t.n - 1) / 2
	for j := 0; j < freq.BlockCount(); j++ {
		in := freq.Block(j)
		t.coeff[0] = complex(in.Get(0), 0)
		for k := 1; k <= m; k++ {
			t.coeff[k] = complex(in.Get(2*k), in.Get(2*k+1))
		}
		t.inverse()
		for i := 0; i < t.n; i++ {
			time.Block(i).Set(j, t.seq[i])
		}
	}
}

// HarmonicBlocks 将 ERF 解向量重排为按频率点分块的实部/虚部向量，
// 第 M 块为直流，M±i 块对应 ±i 次谐波。
func (t *Transform) HarmonicBlocks(freq *maths.BlockVector) (re, im *maths.BlockVector) {
	if freq.BlockSize() != 2*t.n {
		panic(fmt.Sprintf("hb: ERF 块大小 %d 与 2N=%d 不一致", freq.BlockSize(), 2*t.n))
	}
	nu := freq.BlockCount()
	re = maths.NewBlockVector(t.n, nu)
	im = maths.NewBlockVector(t.n, nu)
	m := (t.n - 1) / 2
	for j := 0; j < nu; j++ {
		raw := freq.Block(j)
		re.Block(m).Set(j, raw.Get(0))
		im.Block(m).Set(j, raw.Get(1))
		for i := 1; i <= m; i++ {
			re.Block(m-i).Set(j, raw.Get(2*(t.n-i)))
			im.Block(m-i).Set(j, raw.Get(2*(t.n-i)+1))
			re.Block(m+i).Set(j, raw.Get(2*i))
			im.Block(m+i).Set(j, raw.Get(2*i+1))
		}
	}
	return re, im
}

func (t *Transform) forward() {
	if t.n == 1 {
		t.coeff[0] = complex(t.seq[0], 0)
		return
	}
	t.fft.Coefficients(t.coeff, t.seq)
}

// inverse 未归一化逆变换，与 1/N 缩放的正变换互逆
func (t *Transform) inverse() {
	if t.n == 1 {
		t.seq[0] = real(t.coeff[0])
		return
	}
	t.fft.Sequence(t.seq, t.coeff)
}

func (t *Transform) check(time, freq *maths.BlockVector) {
	if time.BlockCount() != t.n || freq.BlockSize() != 2*t.n || time.BlockSize() != freq.BlockCount() {
		panic(fmt.Sprintf("hb: 变换维度不一致: 时域 %d×%d, 频域 %d×%d, N=%d",
			time.BlockCount(), time.BlockSize(), freq.BlockCount(), freq.BlockSize(), t.n))
	}
}
