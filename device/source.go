package device

import (
	"fmt"
	"math"

	"hbcircuit/mna"
)

// Waveform 独立源波形：DC 或 SIN(VO VA FREQ)
type Waveform struct {
	Offset    float64 // VO / DC 值
	Amplitude float64 // VA
	Freq      float64 // 频率 (Hz)，0 表示直流
}

// DC 直流值
func (w Waveform) DC() float64 { return w.Offset }

// At 返回 t 时刻的值
func (w Waveform) At(t float64) float64 {
	if w.Freq == 0 {
		return w.Offset
	}
	return w.Offset + w.Amplitude*math.Sin(2*math.Pi*w.Freq*t)
}

// Source 独立源
type Source interface {
	Device
	Waveform() Waveform
	SetFast(fast bool)
	Fast() bool
}

// sourceBase 独立源公共部分
type sourceBase struct {
	base
	wave Waveform
	fast bool
}

func (s *sourceBase) Waveform() Waveform { return s.wave }
func (s *sourceBase) SetFast(fast bool)  { s.fast = fast }
func (s *sourceBase) Fast() bool         { return s.fast }

// value MPDE 模式下非快速源冻结为直流值，快速源在快速时间求值
func (s *sourceBase) value(l *Load) float64 {
	if l.MPDE {
		if !s.fast {
			return s.wave.DC()
		}
		return s.wave.At(l.FastTime)
	}
	return s.wave.At(l.Time)
}

// VoltageSource 独立电压源
type VoltageSource struct {
	sourceBase
	n1, n2, b mna.NodeID
}

// NewVoltageSource 创建电压源，b 为其支路电流未知量
func NewVoltageSource(name string, n1, n2, b mna.NodeID, w Waveform) *VoltageSource {
	return &VoltageSource{sourceBase: sourceBase{base: base{name: name}, wave: w}, n1: n1, n2: n2, b: b}
}

func (v *VoltageSource) Load(l *Load, s mna.Stamper) {
	s.StampVoltageSource(l.X, v.n1, v.n2, v.b, v.value(l))
}

// CurrentSource 独立电流源，电流从 n1 经源流向 n2
type CurrentSource struct {
	sourceBase
	n1, n2 mna.NodeID
}

// NewCurrentSource 创建电流源
func NewCurrentSource(name string, n1, n2 mna.NodeID, w Waveform) *CurrentSource {
	return &CurrentSource{sourceBase: sourceBase{base: base{name: name}, wave: w}, n1: n1, n2: n2}
}

func (c *CurrentSource) Load(l *Load, s mna.Stamper) {
	s.StampBranchCurrent(c.n1, c.n2, c.value(l))
}

func (w Waveform) String() string {
	if w.Freq == 0 {
		return fmt.Sprintf("DC %g", w.Offset)
	}
	return fmt.Sprintf("SIN(%g %g %g)", w.Offset, w.Amplitude, w.Freq)
}
