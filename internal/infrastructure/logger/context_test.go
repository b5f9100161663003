package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext_FromContext(t *testing.T) {
	logger := zap.NewNop()
	ctx := WithContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestFromContext_ReturnsNopWhenMissing(t *testing.T) {
	logger := FromContext(context.Background())
	assert.NotNil(t, logger)
	// Must not panic
	logger.Info("no-op")
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ctx, enriched := WithRequestID(context.Background(), logger, "req-123")
	enriched.Info("test message")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Same(t, enriched, FromContext(ctx))

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
}

func TestWithActor(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ctx, enriched := WithActor(context.Background(), logger, "risk-ops")
	enriched.Info("test message")

	assert.Equal(t, "risk-ops", GetActor(ctx))

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "risk-ops", entries[0].ContextMap()["actor"])
}

func TestGetRequestID_NotFound(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGetActor_NotFound(t *testing.T) {
	assert.Empty(t, GetActor(context.Background()))
}

func TestChainedEnrichment(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	ctx, logger = WithRequestID(ctx, logger, "req-1")
	ctx, _ = WithActor(ctx, logger, "system")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "system", GetActor(ctx))
}

func TestContextKeysAreDistinct(t *testing.T) {
	assert.NotEqual(t, RequestIDKey, ActorKey)
	assert.NotEqual(t, LoggerKey, RequestIDKey)
}
