package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"drivertree/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// manualMetrics returns business metrics backed by a manual reader
func manualMetrics(t *testing.T) (*BusinessMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return metrics, reader
}

// sumByAttr returns the int64 sum data points of the named metric keyed by
// the value of attribute key.
func sumByAttr(t *testing.T, reader *sdkmetric.ManualReader, name, key string) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key(key))
				out[v.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestNewOTelConfig(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")

	cfg := NewOTelConfig(config.TelemetryConfig{
		TracingExporter: "stdout",
		MetricsEnabled:  true,
	})

	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, config.AppVersion, cfg.ServiceVersion)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, 1.0, cfg.SampleRatio)

	t.Setenv("ENVIRONMENT", "production")
	cfg = NewOTelConfig(config.TelemetryConfig{ServiceName: "reports"})
	assert.Equal(t, "reports", cfg.ServiceName)
	assert.Equal(t, "production", cfg.Environment)
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name        string
		config      *OTelConfig
		wantTracing bool
		wantMetrics bool
		wantErr     bool
	}{
		{
			name: "stdout tracing and metrics",
			config: &OTelConfig{
				ServiceName:    "test-service",
				ServiceVersion: "v1.0.0",
				Environment:    "development",
				TraceExporter:  "stdout",
				EnableMetrics:  true,
				SampleRatio:    1.0,
			},
			wantTracing: true,
			wantMetrics: true,
		},
		{
			name: "disabled tracing",
			config: &OTelConfig{
				ServiceName:   "test-service",
				TraceExporter: "none",
				EnableMetrics: true,
			},
			wantMetrics: true,
		},
		{
			name: "everything disabled",
			config: &OTelConfig{
				ServiceName:   "test-service",
				TraceExporter: "none",
			},
		},
		{
			name: "unknown exporter",
			config: &OTelConfig{
				ServiceName:   "test-service",
				TraceExporter: "jaeger",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.config, discardLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			// the globals stand in for disabled signals
			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)

			assert.Equal(t, tt.wantTracing, providers.TracerProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.MeterProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.PrometheusHTTP != nil)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			assert.NoError(t, providers.Shutdown(ctx))
		})
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:   "test-service",
		TraceExporter: "none",
		EnableMetrics: true,
	}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	RecordPipelineRun(context.Background(), metrics, nil)

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, string(body), "pipeline_runs_total")
}

func TestBusinessMetrics(t *testing.T) {
	metrics, reader := manualMetrics(t)
	ctx := context.Background()

	RecordStageMetrics(ctx, metrics, "unpivot", 104, time.Millisecond)
	RecordStageMetrics(ctx, metrics, "yoy", 52, time.Millisecond)
	RecordPipelineWarning(ctx, metrics, "missing_weeks")
	RecordPipelineWarning(ctx, metrics, "missing_weeks")
	RecordPipelineRun(ctx, metrics, nil)
	RecordPipelineRun(ctx, metrics, errors.New("bad layout"))
	RecordModelCall(ctx, metrics, "summary", time.Second, nil)
	RecordModelCall(ctx, metrics, "question", time.Second, errors.New("quota"))

	assert.Equal(t, map[string]int64{"unpivot": 104, "yoy": 52},
		sumByAttr(t, reader, "pipeline_stage_rows_total", "stage"))
	assert.Equal(t, map[string]int64{"missing_weeks": 2},
		sumByAttr(t, reader, "pipeline_warnings_total", "kind"))
	assert.Equal(t, map[string]int64{"success": 1, "failure": 1},
		sumByAttr(t, reader, "pipeline_runs_total", "status"))
	assert.Equal(t, map[string]int64{"summary": 1, "question": 1},
		sumByAttr(t, reader, "model_requests_total", "kind"))
	assert.Equal(t, map[string]int64{"question": 1},
		sumByAttr(t, reader, "model_errors_total", "kind"))
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordStageMetrics(ctx, nil, "unpivot", 1, time.Millisecond)
		RecordPipelineWarning(ctx, nil, "missing_weeks")
		RecordPipelineRun(ctx, nil, nil)
		RecordModelCall(ctx, nil, "summary", time.Second, nil)
	})
}

func TestSpanOperations(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	recorder := &spanRecorder{}
	tp.RegisterSpanProcessor(recorder)

	ctx, span := tp.Tracer("test").Start(context.Background(), "pipeline")

	AddSpanEvent(ctx, "stage.completed", map[string]interface{}{
		"stage":        "runrate",
		"rows":         208,
		"recent_weeks": []int{10, 9, 8, 7},
		"skipped":      false,
	})
	RecordError(ctx, assert.AnError)
	span.End()

	require.Len(t, recorder.ended, 1)
	ended := recorder.ended[0]
	require.Len(t, ended.Events(), 2)
	assert.Equal(t, "stage.completed", ended.Events()[0].Name)
	assert.Len(t, ended.Events()[0].Attributes, 4)
	assert.Equal(t, "exception", ended.Events()[1].Name)
	assert.Equal(t, assert.AnError.Error(), ended.Status().Description)
}

func TestSpanHelpers_NotRecording(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		AddSpanEvent(ctx, "ignored", map[string]interface{}{"k": "v"})
		RecordError(ctx, assert.AnError)
	})
}

// spanRecorder collects ended spans
type spanRecorder struct {
	ended []sdktrace.ReadOnlySpan
}

func (r *spanRecorder) OnStart(context.Context, sdktrace.ReadWriteSpan) {}
func (r *spanRecorder) OnEnd(s sdktrace.ReadOnlySpan)                  { r.ended = append(r.ended, s) }
func (r *spanRecorder) Shutdown(context.Context) error                 { return nil }
func (r *spanRecorder) ForceFlush(context.Context) error               { return nil }
