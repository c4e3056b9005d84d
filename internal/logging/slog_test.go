package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "text", "warn")
	ctx := context.Background()

	log.Debug(ctx, "dbg")
	log.Info(ctx, "inf")
	log.Warn(ctx, "wrn", "target", "@chan1")
	log.Error(ctx, "err", "code", 400)

	out := buf.String()
	assert.NotContains(t, out, "msg=dbg")
	assert.NotContains(t, out, "msg=inf")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "target=@chan1")
	assert.Contains(t, out, "code=400")
}

func TestNew_JSONHandler_WithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "debug").With("component", "publish")

	log.Debug(context.Background(), "publish started", "platforms", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, "publish started", line["msg"])
	assert.Equal(t, "publish", line["component"])
	assert.Equal(t, float64(2), line["platforms"])
	assert.Equal(t, "DEBUG", line["level"])
}

func TestParseLevel_UnknownFallsBackToInfo(t *testing.T) {
	assert.Equal(t, parseLevel("info"), parseLevel("verbose"))
	assert.Equal(t, parseLevel("warn"), parseLevel("WARNING"))
}

func TestNop_DoesNotPanic(t *testing.T) {
	log := Nop()
	ctx := context.TODO()
	require.NotPanics(t, func() {
		log.Debug(ctx, "x")
		log.Info(ctx, "x")
		log.With("k", "v").Warn(ctx, "x")
		log.Error(ctx, "x")
	})
}
