package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withCapturedOutput(t *testing.T, format string) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	mu.Lock()
	output = buf
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		output = nil
		mu.Unlock()
	})
	require.NoError(t, Init(Config{Level: "DEBUG", Format: format}))
	return buf
}

func TestTextOutputContainsLevelAndMessage(t *testing.T) {
	buf := withCapturedOutput(t, "text")
	Info("run started", "ixlan_id", 7)

	line := buf.String()
	assert.Contains(t, line, "[INFO]")
	assert.Contains(t, line, "run started")
	assert.Contains(t, line, "ixlan_id=7")
}

func TestJSONOutputIsValid(t *testing.T) {
	buf := withCapturedOutput(t, "json")
	Warn("feed fetch slow", "url", "https://ix.example/export.json")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "feed fetch slow", decoded["msg"])
	assert.Equal(t, "https://ix.example/export.json", decoded["url"])
}

func TestSetLevelFiltersBelowThreshold(t *testing.T) {
	buf := withCapturedOutput(t, "text")
	SetLevel("WARN")
	Debug("should not appear")
	Info("should not appear either")
	Warn("this one shows")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "this one shows")
}

func TestWithFieldsAttachesToCtxLogging(t *testing.T) {
	buf := withCapturedOutput(t, "text")
	ctx := WithFields(context.Background(), "run_id", "abc123")
	InfoCtx(ctx, "processing connection", "asn", 64500)

	out := buf.String()
	assert.True(t, strings.Contains(out, "run_id=abc123") && strings.Contains(out, "asn=64500"))
}
