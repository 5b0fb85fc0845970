package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestInitWritesToExtraWriter 额外的输出目标收到JSON格式的日志
func TestInitWritesToExtraWriter(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json"}, &buf)

	Info().Str("key", "value").Msg("hello from logger")

	out := buf.String()
	assert.Contains(t, out, `"hello from logger"`)
	assert.Contains(t, out, `"key":"value"`)
	assert.Contains(t, out, `"level":"info"`)
}

// TestInitLevelFiltering 低于配置级别的日志被过滤
func TestInitLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json"}, &buf)

	Info().Msg("below threshold")
	Warn().Msg("at threshold")

	out := buf.String()
	assert.NotContains(t, out, "below threshold")
	assert.Contains(t, out, "at threshold")
}

// TestInitInvalidLevelDefaultsToInfo 非法级别回退到info
func TestInitInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "bogus", Format: "json"}, &buf)

	Debug().Msg("debug suppressed")
	Info().Msg("info kept")

	out := buf.String()
	assert.NotContains(t, out, "debug suppressed")
	assert.Contains(t, out, "info kept")
}
