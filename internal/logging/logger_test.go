package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New()
	l.SetLevel(level)
	l.SetOutput(&buf, 0)
	return l, &buf
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug allowed at debug", LevelDebug, LevelDebug, true},
		{"debug blocked at info", LevelInfo, LevelDebug, false},
		{"info allowed at info", LevelInfo, LevelInfo, true},
		{"info blocked at warn", LevelWarn, LevelInfo, false},
		{"warn allowed at warn", LevelWarn, LevelWarn, true},
		{"warn blocked at error", LevelError, LevelWarn, false},
		{"error allowed at error", LevelError, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(tt.minLevel)

			switch tt.logLevel {
			case LevelDebug:
				logger.Debug("test message")
			case LevelInfo:
				logger.Info("test message")
			case LevelWarn:
				logger.Warn("test message")
			case LevelError:
				logger.Error("test message")
			}

			if tt.shouldLog {
				assert.Contains(t, buf.String(), "test message")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestLoggerWith_FieldOrder(t *testing.T) {
	logger, buf := newTestLogger(LevelDebug)

	child := logger.With("session", "abc123").With("state", "interactive")
	child.Warn("something happened", "port", 4444)

	assert.Equal(t, "WARN: something happened | session=abc123 state=interactive port=4444\n", buf.String())
}

func TestLoggerWith_SharesLevel(t *testing.T) {
	logger, buf := newTestLogger(LevelWarn)
	child := logger.With("k", "v")

	child.Info("hidden")
	assert.Empty(t, buf.String())

	logger.SetLevel(LevelInfo)
	child.Info("shown")
	assert.Contains(t, buf.String(), "INFO: shown | k=v")
}

func TestLoggerWith_DoesNotLeakToSiblings(t *testing.T) {
	logger, buf := newTestLogger(LevelDebug)
	parent := logger.With("a", 1)
	_ = parent.With("b", 2)
	parent.Info("msg", "c", 3)

	assert.Equal(t, "INFO: msg | a=1 c=3\n", buf.String())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"plain string", "abc", "abc"},
		{"string with space", "a b", `"a b"`},
		{"empty string", "", `""`},
		{"error", errors.New("bind failed"), `"bind failed"`},
		{"int", 42, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.in))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
