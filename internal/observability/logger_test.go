// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/estate-scout/internal/config"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// syncBuffer lets a bytes.Buffer act as a zap WriteSyncer.
type syncBuffer struct {
	bytes.Buffer
}

func (s *syncBuffer) Sync() error { return nil }

func TestNewLogger(t *testing.T) {
	t.Run("console format colorizes levels", func(t *testing.T) {
		var buf syncBuffer
		logger := NewLogger(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "scout",
			Colors:      config.ColorConfig{Info: "green"},
		}, &buf)

		logger.Info("Listing page loaded.")
		require.NoError(t, logger.Sync())

		out := buf.String()
		assert.Contains(t, out, colorGreen+"INFO"+colorReset)
		assert.Contains(t, out, "scout.")
		assert.Contains(t, out, "Listing page loaded.")
	})

	t.Run("json format emits structured fields", func(t *testing.T) {
		var buf syncBuffer
		logger := NewLogger(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "scout"}, &buf)

		logger.Warn("Strategy failed.", zap.String("target", "search-input"))
		require.NoError(t, logger.Sync())

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "scout", entry["logger"])
		assert.Equal(t, "Strategy failed.", entry["msg"])
		assert.Equal(t, "search-input", entry["target"])
	})

	t.Run("level below threshold is dropped", func(t *testing.T) {
		var buf syncBuffer
		logger := NewLogger(config.LoggerConfig{Level: "warn", Format: "json"}, &buf)
		logger.Info("quiet")
		assert.Zero(t, buf.Len())
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		var buf syncBuffer
		logger := NewLogger(config.LoggerConfig{Level: "loud", Format: "json"}, &buf)
		logger.Debug("hidden")
		logger.Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("file core receives json output", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "scout.log")
		var buf syncBuffer
		logger := NewLogger(config.LoggerConfig{
			Level:   "debug",
			Format:  "console",
			LogFile: logPath,
			MaxSize: 1,
		}, &buf)

		logger.Error("Retries exhausted.")
		require.NoError(t, logger.Sync())

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"Retries exhausted."`)
	})
}

func TestInitialize(t *testing.T) {
	t.Run("only the first configuration wins", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		var buf syncBuffer
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"}, zapcore.AddSync(&buf))
		first := GetLogger()

		Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "Second"}, zapcore.AddSync(&buf))
		second := GetLogger()

		assert.Same(t, first, second)
		second.Info("test")
		Sync()
		assert.Contains(t, buf.String(), "First")
		assert.NotContains(t, buf.String(), "Second")
	})

	t.Run("fallback before initialization", func(t *testing.T) {
		ResetForTest()
		logger := GetLogger()
		require.NotNil(t, logger)
		assert.Nil(t, globalLogger.Load())
	})
}

func TestInitTracingWithoutEndpoint(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := InitTracing(context.Background(), config.TelemetryConfig{}, "estate-scout")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider(), "no endpoint must leave the global provider alone")
}
