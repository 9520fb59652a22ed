package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/phrazzld/scry-worker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

// These tests replace the global tracer provider and must not run in parallel.

func TestSetupNone(t *testing.T) {
	shutdown, err := setup(context.Background(), config.TracingConfig{Exporter: ExporterNone}, nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestSetupStdout(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := setup(context.Background(), config.TracingConfig{
		Exporter:    ExporterStdout,
		ServiceName: "scry-worker-test",
		SampleRatio: 1,
	}, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "task.execute")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, shutdown(context.Background()))
	out := buf.String()
	assert.True(t, strings.Contains(out, "task.execute"), out)
	assert.Contains(t, out, "scry-worker-test")
}

func TestSetupErrors(t *testing.T) {
	_, err := setup(context.Background(), config.TracingConfig{Exporter: "zipkin"}, nil)
	assert.ErrorContains(t, err, "unknown trace exporter")

	_, err = setup(context.Background(), config.TracingConfig{Exporter: ExporterOTLPHTTP}, nil)
	assert.ErrorContains(t, err, "endpoint is required")
}

func TestSampler(t *testing.T) {
	assert.Contains(t, Sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
