package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithLogger(t *testing.T) {
	lg := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	base := context.Background()

	ctx := ContextWithLogger(base, lg)
	assert.Same(t, lg, LoggerFromContext(ctx))
	assert.Equal(t, base, ContextWithLogger(base, nil))
	assert.Same(t, slog.Default(), LoggerFromContext(base))
	//nolint:staticcheck // nil context is part of the contract
	assert.Same(t, slog.Default(), LoggerFromContext(nil))
}

func TestContextWithRequestID(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))

	base := context.Background()
	assert.Equal(t, base, ContextWithRequestID(base, ""))
}

func TestContextWithEvaluation(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx = ContextWithEvaluation(ctx, "eval-1")

	assert.Equal(t, "eval-1", EvaluationIDFromContext(ctx))
	LoggerFromContext(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "eval-1", line["evaluation_id"])
	assert.Empty(t, EvaluationIDFromContext(context.Background()))
}
