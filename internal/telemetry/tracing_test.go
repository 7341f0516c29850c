package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupTracingDisabled(t *testing.T) {
	for _, exporter := range []string{"", "none", " NONE "} {
		shutdown, err := SetupTracing(context.Background(), TraceConfig{ServiceName: "gradient", Exporter: exporter})
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	}
}

func TestSetupTracingRejectsBadConfig(t *testing.T) {
	_, err := SetupTracing(context.Background(), TraceConfig{Exporter: "otlp"})
	assert.Error(t, err)

	_, err = SetupTracing(context.Background(), TraceConfig{Exporter: "jaeger"})
	assert.Error(t, err)
}

func TestSetupTracingStdoutExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := SetupTracing(context.Background(), TraceConfig{ServiceName: "gradient", Exporter: "stdout", Writer: &buf})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "pipeline.submit")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "pipeline.submit")
}
