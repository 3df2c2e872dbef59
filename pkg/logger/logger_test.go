package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithCtxFallsBackToBase(t *testing.T) {
	assert.Same(t, L, WithCtx(context.Background()))
}

func TestInjectLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	scoped := New(&buf, "local").With("request_id", "abc123")

	ctx := InjectLogger(context.Background(), scoped)
	WithCtx(ctx).Info("order admitted", "user_id", 7)

	assert.Contains(t, buf.String(), "request_id=abc123")
	assert.Contains(t, buf.String(), "user_id=7")
}

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "production").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
