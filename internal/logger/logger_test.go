package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContextAddsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug", "json")
	t.Cleanup(func() { Init("INFO", "json") })

	ctx := ContextWithUserID(ContextWithRequestID(context.Background(), "req-1"), 5)
	WithContext(ctx).Debug("hello", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, float64(5), line["user_id"])
	assert.Equal(t, "v", line["k"])
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "WARN", "text")
	t.Cleanup(func() { Init("INFO", "json") })

	Get().Info("dropped")
	Get().Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "msg=kept")
}
