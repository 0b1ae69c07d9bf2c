package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	defer SetOutput(os.Stderr)

	log := Logger("test/output")
	log.Info("test message", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "key=value")
	assert.Contains(t, output, "subsystem=test/output")
}

func TestSetOutput_ExistingLogger(t *testing.T) {
	// logger 在切换输出之前创建
	log := Logger("test/existing")

	buf := &bytes.Buffer{}
	SetOutput(buf)
	defer SetOutput(os.Stderr)

	log.Info("after switch", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "after switch")
	assert.Contains(t, output, "key=value")
}

func TestSetLevel_AppliesToDerivedLoggers(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	defer SetOutput(os.Stderr)

	derived := With("test/level", "dispatcher", "d1")

	SetLevel("test/level", slog.LevelError)
	derived.Warn("hidden")
	assert.NotContains(t, buf.String(), "hidden")

	SetLevel("test/level", slog.LevelDebug)
	derived.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "dispatcher=d1")
}

func TestSetGlobalLevel_AppliesToLaterLoggers(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	defer SetOutput(os.Stderr)
	defer ResetConfig()
	defer SetGlobalLevel(slog.LevelInfo)

	SetGlobalLevel(slog.LevelError)

	later := Logger("test/global-later")
	later.Warn("hidden")
	assert.NotContains(t, buf.String(), "hidden")

	later.Error("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "subsystem=test/global-later")
}

func TestGlobalLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	defer SetOutput(os.Stderr)

	assert.Same(t, GlobalLogger(), GlobalLogger())
	assert.Same(t, Logger("asyncevent"), GlobalLogger())

	GlobalLogger().Info("global message")
	assert.Contains(t, buf.String(), "subsystem=asyncevent")
}

func TestLogger_Cached(t *testing.T) {
	a := Logger("test/cached")
	b := Logger("test/cached")
	assert.Same(t, a, b)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for name, want := range cases {
		got, ok := ParseLevel(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := ParseLevel("verbose")
	assert.False(t, ok)
}

func TestParseLevelConfig(t *testing.T) {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
	}
	parseLevelConfig(cfg, "core/dispatcher=debug, core/queue=warn ,error,bogus=nope")

	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("core/dispatcher"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelForSubsystem("core/queue"))
	assert.Equal(t, slog.LevelError, cfg.LevelForSubsystem("core/registry"))
	_, exists := cfg.SubsystemLevels["bogus"]
	assert.False(t, exists)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	require.NotNil(t, log)
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
