package output

import (
	"io"
	"math"
	"math/cmplx"

	"gopkg.in/yaml.v3"

	"hbcircuit/types"
)

// Harmonic 摘要中的一个谐波
type Harmonic struct {
	Index     int     `yaml:"index"`
	Frequency float64 `yaml:"frequency"`
	Magnitude float64 `yaml:"magnitude"`
	Phase     float64 `yaml:"phase_deg"`
}

// UnknownSummary 单个未知量的谐波摘要
type UnknownSummary struct {
	Name      string     `yaml:"name"`
	DC        float64    `yaml:"dc"`
	Harmonics []Harmonic `yaml:"harmonics"`
}

// Summary 谐波平衡结果摘要
type Summary struct {
	Fundamental float64          `yaml:"fundamental"`
	NumFreq     int              `yaml:"numfreq"`
	Stats       StatsSummary     `yaml:"stats"`
	Unknowns    []UnknownSummary `yaml:"unknowns"`
}

// StatsSummary 统计摘要
type StatsSummary struct {
	Steps          int    `yaml:"steps"`
	FailedSteps    int    `yaml:"failed_steps"`
	JacobianEvals  int    `yaml:"jacobian_evals"`
	LinearSolves   int    `yaml:"linear_solves"`
	LinearIters    int    `yaml:"linear_iters"`
	ResidualEvals  int    `yaml:"residual_evals"`
	LinearSolveDur string `yaml:"linear_solve_time"`
}

// Summarize 生成摘要
func Summarize(s *Steady, st types.Stats) Summary {
	out := Summary{
		NumFreq: len(s.FreqPoints),
		Stats: StatsSummary{
			Steps:          st.SuccessfulSteps,
			FailedSteps:    st.FailedSteps,
			JacobianEvals:  st.JacobianEvals,
			LinearSolves:   st.LinearSolves,
			LinearIters:    st.LinearIters,
			ResidualEvals:  st.ResidualEvals,
			LinearSolveDur: st.LinearSolveTime.String(),
		},
	}
	m := (len(s.FreqPoints) - 1) / 2
	if m+1 < len(s.FreqPoints) {
		out.Fundamental = s.FreqPoints[m+1]
	}
	for i, name := range s.Names {
		u := UnknownSummary{Name: name, DC: s.FreqReal[m][i]}
		for k := m + 1; k < len(s.FreqPoints); k++ {
			p := s.Phasor(k, i)
			u.Harmonics = append(u.Harmonics, Harmonic{
				Index:     k - m,
				Frequency: s.FreqPoints[k],
				Magnitude: 2 * cmplx.Abs(p),
				Phase:     cmplx.Phase(p) * 180 / math.Pi,
			})
		}
		out.Unknowns = append(out.Unknowns, u)
	}
	return out
}

// WriteSummary 以 YAML 写出摘要
func WriteSummary(w io.Writer, s *Steady, st types.Stats) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Summarize(s, st)); err != nil {
		return err
	}
	return enc.Close()
}
