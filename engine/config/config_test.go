package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad_Empty(t *testing.T) {
	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_Overrides(t *testing.T) {
	doc := `
window:
  title: squares
  width: 800
engine:
  tick_rate: 120
  clear_color: [0, 0, 0, 1]
renderer:
  present_mode: immediate
logging:
  level: debug
`
	c, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "squares", c.Window.Title)
	assert.Equal(t, 800, c.Window.Width)
	assert.Equal(t, 720, c.Window.Height)
	assert.Equal(t, 120.0, c.Engine.TickRate)
	assert.Equal(t, [4]float64{0, 0, 0, 1}, c.Engine.ClearColor)
	assert.True(t, c.Engine.BuiltinModels)
	assert.Equal(t, "immediate", c.Renderer.PresentMode)
	assert.Equal(t, "debug", c.Logging.Level)

	assert.Len(t, c.EngineOptions(), 7)
	assert.Len(t, c.WindowOptions(), 4)
	assert.Len(t, c.RendererOptions(), 2)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"negative tick rate", "engine:\n  tick_rate: -1\n"},
		{"nan tick rate", "engine:\n  tick_rate: .nan\n"},
		{"infinite tick rate", "engine:\n  tick_rate: .inf\n"},
		{"infinite frame limit", "engine:\n  frame_limit: .inf\n"},
		{"nan frame limit", "engine:\n  frame_limit: .NaN\n"},
		{"zero width", "window:\n  width: 0\n"},
		{"bad present mode", "renderer:\n  present_mode: mailbox\n"},
		{"clear color out of range", "engine:\n  clear_color: [2, 0, 0, 1]\n"},
		{"bad level", "logging:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Load(strings.NewReader("engine:\n  tickrate: 5\n"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window:\n  title: file\n"), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file", c.Window.Title)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(LoggingConfig{Level: "warn"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	l, err = NewLogger(LoggingConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
