package output

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"hbcircuit/types"
)

// sineSteady N=5，x = 1 + 2cos(ωt) 的理想稳态
func sineSteady() *Steady {
	n, period := 5, 1e-3
	s := &Steady{Names: []string{"V(OUT)"}}
	for k := 0; k < n; k++ {
		t := float64(k) * period / float64(n)
		s.TimePoints = append(s.TimePoints, t)
		s.TimeDomain = append(s.TimeDomain, []float64{1 + 2*math.Cos(2*math.Pi*t/period)})
		s.FreqPoints = append(s.FreqPoints, float64(k-2)/period)
		re := 0.0
		switch k {
		case 2:
			re = 1
		case 1, 3:
			re = 1
		}
		s.FreqReal = append(s.FreqReal, []float64{re})
		s.FreqImag = append(s.FreqImag, []float64{0})
	}
	return s
}

func TestManagerCategories(t *testing.T) {
	m := NewManager([]string{"a"})
	m.Record(0, []float64{1, 99})
	restore := m.Push(types.CategoryStartup)
	assert.Equal(t, types.CategoryStartup, m.Category())
	m.Record(1, []float64{2})
	restore()
	assert.Equal(t, types.CategoryTransient, m.Category())

	assert.Equal(t, []string{types.CategoryStartup, types.CategoryTransient}, m.Categories())
	tr := m.Get(types.CategoryTransient)
	require.NotNil(t, tr)
	assert.Equal(t, [][]float64{{1}}, tr.Values, "values truncated to named unknowns")
	assert.Nil(t, m.Get(types.CategoryHBIC))

	var buf bytes.Buffer
	require.NoError(t, tr.Render(&buf))
	assert.Contains(t, buf.String(), `"Time":[0]`)
}

func TestMagnitudeAndSummary(t *testing.T) {
	s := sineSteady()
	freqs, mags := s.Magnitude(0)
	assert.Equal(t, []float64{0, 1000, 2000}, freqs)
	assert.InDeltaSlice(t, []float64{1, 2, 0}, mags, 1e-12)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, s, types.Stats{SuccessfulSteps: 3}))
	var got Summary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 1000.0, got.Fundamental)
	assert.Equal(t, 5, got.NumFreq)
	assert.Equal(t, 3, got.Stats.Steps)
	require.Len(t, got.Unknowns, 1)
	assert.Equal(t, 1.0, got.Unknowns[0].DC)
	require.Len(t, got.Unknowns[0].Harmonics, 2)
	assert.InDelta(t, 2, got.Unknowns[0].Harmonics[0].Magnitude, 1e-12)
}

func TestRenderChartsAndPNG(t *testing.T) {
	s := sineSteady()
	m := NewManager(s.Names)
	m.Record(0, []float64{0})
	m.Record(1e-4, []float64{0.5})

	var html bytes.Buffer
	require.NoError(t, RenderCharts(&html, m, s))
	assert.True(t, strings.Contains(html.String(), "echarts"))

	var png bytes.Buffer
	require.NoError(t, WaveformPNG(&png, s, 0))
	assert.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")))
	png.Reset()
	require.NoError(t, SpectrumPNG(&png, s, 0))
	assert.NotZero(t, png.Len())
	assert.Error(t, WaveformPNG(&png, s, 3))
}
