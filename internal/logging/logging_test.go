package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	t.Run("writes_to_output_file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "s4view.log")
		require.NoError(t, Init(Config{Level: "debug", Format: "json", OutputPath: out}))

		Named("test").Debug("hello")
		_ = Sync()

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"hello"`)
		assert.Contains(t, string(data), `"logger":"test"`)
	})

	t.Run("unknown_level_falls_back_to_info", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "s4view.log")
		require.NoError(t, Init(Config{Level: "chatty", OutputPath: out}))
		assert.Equal(t, zapcore.InfoLevel, globalLevel.Level())
	})
}

func TestSetLevel(t *testing.T) {
	SetLevel("warn")
	assert.Equal(t, zapcore.WarnLevel, globalLevel.Level())

	SetLevel("not-a-level")
	assert.Equal(t, zapcore.WarnLevel, globalLevel.Level())

	SetLevel("info")
}
