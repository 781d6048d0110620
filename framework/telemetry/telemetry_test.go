package telemetry

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/km-arc/go-laravel/framework/config"
	"github.com/km-arc/go-laravel/framework/multibind"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"disabled", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"shouting", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLogger_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	log.Info().Msg("hidden")
	child := Component(log, "multibind")
	child.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"component":"multibind"`)
	assert.Contains(t, out, `"message":"shown"`)
}

func TestNewMetrics_DisabledIsNil(t *testing.T) {
	assert.Nil(t, NewMetrics(config.MetricsConfig{Enabled: false}))
}

func TestMetrics_ObserveMaterialize(t *testing.T) {
	m := NewMetrics(config.MetricsConfig{Enabled: true, Namespace: "test"})
	var _ multibind.Recorder = m

	m.ObserveMaterialize("shape", 5, time.Millisecond, nil)
	m.ObserveMaterialize("shape", 0, time.Millisecond, &multibind.NullElementError{Position: 2})
	m.ObserveMaterialize("shape", 0, time.Millisecond, &multibind.ResolverFailure{Err: errors.New("boom")})
	m.ObserveMaterialize("shape", 0, 0, &multibind.ConfigurationStateError{Op: "materialize"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.materializations.WithLabelValues("shape", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.materializations.WithLabelValues("shape", "null_element")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.materializations.WithLabelValues("shape", "resolver_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.materializations.WithLabelValues("shape", "not_finalized")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.size.WithLabelValues("shape")), "failures leave the size alone")
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(config.MetricsConfig{Enabled: true, Namespace: "test"})
	m.ObserveMaterialize("shape", 3, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `test_multibind_materializations_total{element="shape",outcome="ok"} 1`)
	assert.Contains(t, body, `test_multibind_list_size{element="shape"} 3`)

	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP test_multibind_list_size Number of elements in the last successful materialization
# TYPE test_multibind_list_size gauge
test_multibind_list_size{element="shape"} 3
`), "test_multibind_list_size")
	assert.NoError(t, err)
}

func TestNewTracing_Disabled(t *testing.T) {
	tr, err := NewTracing(config.TracingConfig{Enabled: false}, "svc", "testing")
	require.NoError(t, err)

	_, span := tr.Tracer().Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestNewTracing_UnknownExporter(t *testing.T) {
	_, err := NewTracing(config.TracingConfig{Enabled: true, Exporter: "zipkin"}, "svc", "testing")
	assert.ErrorContains(t, err, "zipkin")
}

func TestNewTracing_NoneExporterStillTraces(t *testing.T) {
	tr, err := NewTracing(config.TracingConfig{Enabled: true, Exporter: "none"}, "svc", "testing")
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	_, span := tr.Tracer().Start(context.Background(), "sampled")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestTracing_EngineSpansReachExporter(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tr := NewTracingWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)))
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	set := multibind.NewContributorSet[string]()
	_, err := set.Add("greeting.go:1", nil, func(context.Context) (string, error) { return "hi", nil })
	require.NoError(t, err)
	set.Finalize()
	engine := multibind.NewEngine(set, nil, multibind.WithName("greeting"), multibind.WithTracer(tr.Tracer()))

	_, err = engine.Materialize(context.Background())
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "multibind.materialize", spans[0].Name)
	assert.Equal(t, multibind.TracerName, spans[0].InstrumentationScope.Name)
}
