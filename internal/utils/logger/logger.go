package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level is the minimum severity a Logger writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelSuccess
	LevelWarn
	LevelError
)

var (
	// INFO_EMOJI Emoji constants
	INFO_EMOJI    = "ℹ️ "
	SUCCESS_EMOJI = "✅ "
	WARN_EMOJI    = "⚠️ "
	ERROR_EMOJI   = "❌ "
	DEBUG_EMOJI   = "🔍 "
)

var (
	outputMu sync.Mutex
	output   io.Writer = color.Output
	minLevel           = LevelInfo
)

// SetOutput redirects every logger. Tests use it to capture or silence output.
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	output = w
}

// SetLevel sets the process-wide minimum level.
func SetLevel(l Level) {
	outputMu.Lock()
	defer outputMu.Unlock()
	minLevel = l
}

// ParseLevel maps LOG_LEVEL values to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type Logger struct {
	serviceName string
}

func New(serviceName string) *Logger {
	return &Logger{
		serviceName: serviceName,
	}
}

func (l *Logger) formatMessage(level, emoji, msg string) string {
	_, file, line, _ := runtime.Caller(3)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fileName := filepath.Base(file)

	return fmt.Sprintf("%s | %s | %s | %s:%d | %s | %s",
		emoji,
		timestamp,
		level,
		fileName,
		line,
		l.serviceName,
		msg,
	)
}

func (l *Logger) write(lvl Level, name, emoji string, paint *color.Color, msg string) {
	formatted := l.formatMessage(name, emoji, msg)

	outputMu.Lock()
	defer outputMu.Unlock()
	if lvl < minLevel {
		return
	}
	_, _ = paint.Fprintln(output, formatted)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.write(LevelInfo, "INFO", INFO_EMOJI, color.New(color.FgCyan), fmt.Sprintf(msg, args...))
}

func (l *Logger) Success(msg string, args ...interface{}) {
	l.write(LevelSuccess, "SUCCESS", SUCCESS_EMOJI, color.New(color.FgGreen), fmt.Sprintf(msg, args...))
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.write(LevelWarn, "WARN", WARN_EMOJI, color.New(color.FgYellow), fmt.Sprintf(msg, args...))
}

// Error logs msg with err appended and returns err wrapped with msg.
func (l *Logger) Error(msg string, err error, args ...interface{}) error {
	text := fmt.Sprintf(msg, args...)
	l.write(LevelError, "ERROR", ERROR_EMOJI, color.New(color.FgRed), fmt.Sprintf("%s: %v", text, err))
	return fmt.Errorf("%s: %w", text, err)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.write(LevelDebug, "DEBUG", DEBUG_EMOJI, color.New(color.FgMagenta), fmt.Sprintf(msg, args...))
}

// Discard silences all loggers until the returned func is called.
func Discard() (restore func()) {
	outputMu.Lock()
	prev := output
	output = io.Discard
	outputMu.Unlock()
	return func() { SetOutput(prev) }
}

func init() {
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		minLevel = ParseLevel(v)
	}
}
