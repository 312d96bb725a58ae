package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "ixfimportd", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	require.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	tracer = nil
	enabled = false

	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartRunSpanAndPhaseSpans(t *testing.T) {
	ctx := context.Background()

	runCtx, runSpan := StartRunSpan(ctx, "ixlan-1", true)
	require.NotNil(t, runCtx)
	defer runSpan.End()

	_, fetchSpan := StartPhaseSpan(runCtx, SpanFetch)
	fetchSpan.End()
}

func TestRecordErrorSetsStatus(t *testing.T) {
	ctx := context.Background()
	_, span := StartSpan(ctx, "test.op")
	defer span.End()

	RecordError(ctx, errors.New("boom"))
	SetStatus(ctx, codes.Error, "boom")
}

func TestRecordErrorNilIsNoop(t *testing.T) {
	ctx := context.Background()
	RecordError(ctx, nil)
}
