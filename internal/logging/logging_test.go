package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerDropsNoise(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelInfo, true, true))

	logger.Info("request", "ip", "127.0.0.1", "path", "/", "empty", "", "status", 200)
	out := buf.String()

	assert.Contains(t, out, "request")
	assert.Contains(t, out, "path=/")
	assert.Contains(t, out, "status=200")
	assert.NotContains(t, out, "ip=")
	assert.NotContains(t, out, "empty=")
}

func TestHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelWarn)
	logger := slog.New(NewHandler(&buf, ll, true, true))

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	ll.Set(slog.LevelDebug)
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
