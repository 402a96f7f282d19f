package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"ERROR":   LogLevelError,
		"warn":    LogLevelWarn,
		" Debug ": LogLevelDebug,
		"TRACE":   LogLevelTrace,
		"INFO":    LogLevelInfo,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for raw, want := range cases {
		assert.Equal(t, want, parseLevel(raw), "raw %q", raw)
	}
}

func TestLoggerLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, NewLogger(LogLevelDebug).GetLevel())
}
