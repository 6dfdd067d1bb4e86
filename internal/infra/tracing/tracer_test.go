package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func TestSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", sampler(1).Description())
	assert.Equal(t, "AlwaysOnSampler", sampler(3).Description())
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Equal(t, "AlwaysOffSampler", sampler(-1).Description())
	assert.Contains(t, sampler(0.25).Description(), "ParentBased{root:TraceIDRatioBased{0.25}")
}

func TestNewResource(t *testing.T) {
	res := newResource("collect")

	name, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "labeler", name.AsString())

	cmd, ok := res.Set().Value(CommandKey)
	require.True(t, ok)
	assert.Equal(t, "collect", cmd.AsString())

	_, ok = newResource("").Set().Value(CommandKey)
	assert.False(t, ok)
}

func TestInitTracer(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracer(ctx, Options{
		Endpoint:    "http://127.0.0.1:4318/v1/traces",
		Command:     "review",
		SampleRatio: 0,
	})
	require.NoError(t, err)
	defer tp.Shutdown(ctx)

	_, span := tp.Tracer("test").Start(ctx, "export")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()
}
