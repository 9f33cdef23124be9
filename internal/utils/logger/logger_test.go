package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, lvl Level) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	SetLevel(lvl)
	t.Cleanup(func() {
		SetOutput(bytes.NewBuffer(nil))
		SetLevel(LevelInfo)
	})
	return buf
}

func TestLoggerWritesServiceAndMessage(t *testing.T) {
	buf := capture(t, LevelDebug)

	New("assets").Info("uploaded %s", "a.png")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "assets")
	assert.Contains(t, out, "uploaded a.png")
	assert.Contains(t, out, "logger_test.go")
}

func TestLoggerLevelFilter(t *testing.T) {
	buf := capture(t, LevelWarn)
	log := New("svc")

	log.Info("hidden")
	log.Debug("hidden too")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerErrorWraps(t *testing.T) {
	capture(t, LevelDebug)
	cause := errors.New("boom")

	err := New("svc").Error("saving %s", cause, "product")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "saving product: boom", err.Error())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"WARN":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
