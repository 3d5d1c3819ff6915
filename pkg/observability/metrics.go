package observability

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string

	// Registry defaults to a fresh prometheus.Registry when nil.
	Registry *prometheus.Registry
}

// InitMetrics initializes the Prometheus metrics exporter.
// Returns the MeterProvider and an HTTP handler for the /metrics endpoint.
func InitMetrics(cfg MetricsConfig) (*sdkmetric.MeterProvider, http.Handler, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, fmt.Errorf("observability: create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return provider, handler, nil
}

// ServiceMetrics holds the instruments recorded by the image service, plus the
// most recent upload response time surfaced on the dashboard.
type ServiceMetrics struct {
	uploadDuration  metric.Float64Histogram
	riskEvaluations metric.Int64Counter

	lastResponseMs atomic.Int64
	lastUpdatedAt  atomic.Int64
}

// NewServiceMetrics creates the service instruments on the given provider.
func NewServiceMetrics(provider metric.MeterProvider, serviceName string) (*ServiceMetrics, error) {
	meter := provider.Meter(serviceName)

	uploadDuration, err := meter.Float64Histogram(
		"upload_duration_ms",
		metric.WithDescription("Time spent handling an image upload"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create upload histogram: %w", err)
	}

	riskEvaluations, err := meter.Int64Counter(
		"risk_evaluations_total",
		metric.WithDescription("Risk evaluations by resulting category"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create evaluation counter: %w", err)
	}

	m := &ServiceMetrics{
		uploadDuration:  uploadDuration,
		riskEvaluations: riskEvaluations,
	}
	m.lastResponseMs.Store(-1)
	return m, nil
}

// RecordUpload records an upload duration and remembers it as the last response time.
func (m *ServiceMetrics) RecordUpload(ctx context.Context, d time.Duration) {
	ms := d.Milliseconds()
	m.uploadDuration.Record(ctx, float64(ms))
	m.lastResponseMs.Store(ms)
	m.lastUpdatedAt.Store(time.Now().UTC().UnixNano())
}

// RecordRiskEvaluation counts a completed evaluation.
func (m *ServiceMetrics) RecordRiskEvaluation(ctx context.Context, category string) {
	m.riskEvaluations.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

// LastResponseTime returns the most recent upload duration in milliseconds and
// when it was recorded. ok is false until the first upload.
func (m *ServiceMetrics) LastResponseTime() (ms int64, at time.Time, ok bool) {
	ms = m.lastResponseMs.Load()
	if ms < 0 {
		return 0, time.Time{}, false
	}
	return ms, time.Unix(0, m.lastUpdatedAt.Load()).UTC(), true
}
