package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		cfg  Config
		want logrus.Level
	}{
		{Config{Level: "debug"}, logrus.DebugLevel},
		{Config{Level: "WARN"}, logrus.WarnLevel},
		{Config{Level: "error"}, logrus.ErrorLevel},
		{Config{}, logrus.InfoLevel},
		{Config{Verbose: true}, logrus.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, New(tt.cfg).GetLevel(), "%+v", tt.cfg)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Output: &buf})
	log.WithField("phase", "init").Info("hello")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "init", entry["phase"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestLevelForDebug(t *testing.T) {
	log := New(Config{Level: "info"})
	LevelForDebug(log, 0)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	LevelForDebug(log, 1)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	LevelForDebug(log, 3)
	assert.Equal(t, logrus.TraceLevel, log.GetLevel())
	LevelForDebug(log, 1)
	assert.Equal(t, logrus.TraceLevel, log.GetLevel(), "never lowers the level")
}
