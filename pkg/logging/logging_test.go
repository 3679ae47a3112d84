package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestLogging_Filtering(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Debug("Test", "should be filtered")
	Info("Test", "hello %s", "world")

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "subsystem=Test")
}

func TestLogging_ErrorAttr(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelDebug, &buf)

	Error("Test", assert.AnError, "something failed")

	out := buf.String()
	assert.Contains(t, out, "something failed")
	assert.Contains(t, out, "error=")
}
