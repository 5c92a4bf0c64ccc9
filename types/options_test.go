package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	for in, want := range map[string]float64{
		"1.5":    1.5,
		"1e-3":   1e-3,
		"1k":     1e3,
		"10u":    10e-6,
		"2.2MEG": 2.2e6,
		"5mV":    5e-3,
		"3p":     3e-12,
		"60Hz":   60,
		" 4 ":    4,
	} {
		got, err := ParseValue(in)
		require.NoError(t, err, in)
		assert.InEpsilon(t, want, got, 1e-12, in)
	}
	for _, in := range []string{"", "abc", "k1"} {
		_, err := ParseValue(in)
		assert.Error(t, err, in)
	}
}

func TestOptionBlock(t *testing.T) {
	ob, err := ParseOptionBlock("hbint", []string{"numfreq=7", "tahb=1", "NumFreq=9"})
	require.NoError(t, err)
	assert.Equal(t, "HBINT", ob.Name)
	assert.Len(t, ob.Params, 2, "duplicate keys overwrite")

	v, ok := ob.Lookup("NUMFREQ")
	assert.True(t, ok)
	assert.Equal(t, "9", v)
	_, ok = ob.Lookup("period")
	assert.False(t, ok)

	_, err = ParseOptionBlock("HBINT", []string{"numfreq"})
	assert.Error(t, err)
	_, err = ParseOptionBlock("HBINT", []string{"=3"})
	assert.Error(t, err)
}

func TestParamConversions(t *testing.T) {
	n, err := Param{Tag: "N", Value: "1e2"}.Int()
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	_, err = Param{Tag: "N", Value: "many"}.Int()
	assert.Error(t, err)

	f, err := Param{Tag: "FREQ", Value: "1k"}.Float()
	require.NoError(t, err)
	assert.Equal(t, 1e3, f)

	for in, want := range map[string]bool{"": true, "yes": true, "0": false, "off": false, "2": true} {
		b, err := Param{Tag: "B", Value: in}.Bool()
		require.NoError(t, err, in)
		assert.Equal(t, want, b, in)
	}
	_, err = Param{Tag: "B", Value: "maybe"}.Bool()
	assert.Error(t, err)
}
