package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stats-agent/pkg/config"
	"github.com/stats-agent/pkg/logger"
)

// mockFatalHook 捕获 fatal 日志（不退出进程）
type mockFatalHook struct {
	called bool
}

func (h *mockFatalHook) Hook(e zapcore.Entry) error {
	if e.Level == zapcore.FatalLevel {
		h.called = true
	}
	return nil
}

func TestLoggerLevels(t *testing.T) {
	cfg := &config.ZapLogConfig{
		Level:  "debug",
		Format: "json",
		Path:   t.TempDir(),
	}

	l, err := logger.InitLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, l)

	// 普通日志
	logger.Debug("debug msg")
	logger.Info("info msg", zap.String("k", "v"))
	logger.Warn("warn msg")
	logger.Error("error msg")

	// Panic 测试
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic, but no panic occurred")
			}
		}()
		logger.Panic("panic msg")
	}()

	// Fatal 测试（使用 zap.Hooks，不触发 os.Exit）
	hook := &mockFatalHook{}
	hooked := logger.GetLogger().WithOptions(zap.Hooks(hook.Hook), zap.OnFatal(zapcore.WriteThenPanic))
	func() {
		defer func() { _ = recover() }()
		hooked.Fatal("fatal msg")
	}()
	assert.True(t, hook.called)

	// 重复Init返回同一实例
	again, err := logger.InitLogger(cfg)
	require.NoError(t, err)
	assert.Same(t, l, again)

	_ = logger.Sync()
}
