package engine

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// metricsRecorder holds the OpenTelemetry instruments the engine updates as
// vertices execute, exported through a Prometheus reader registered into
// its own registry rather than the global default, so embedding an Engine
// never collides with a host application's own metrics.
type metricsRecorder struct {
	registry        *prometheus.Registry
	meterProvider   *sdkmetric.MeterProvider
	nodeExecutions  metric.Int64Counter
	nodeDurationSec metric.Float64Histogram
	runsTotal       metric.Int64Counter
}

func newMetricsRecorder() *metricsRecorder {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		// Can only fail on a duplicate collector registration against
		// registry, impossible here since newMetricsRecorder just created it.
		panic(err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(tracerName)

	nodeExecutions, err := meter.Int64Counter(
		"flow_node_executions_total",
		metric.WithDescription("Count of vertex executions by terminal status."),
	)
	if err != nil {
		panic(err)
	}
	nodeDurationSec, err := meter.Float64Histogram(
		"flow_node_duration_seconds",
		metric.WithDescription("Vertex execution latency in seconds."),
	)
	if err != nil {
		panic(err)
	}
	runsTotal, err := meter.Int64Counter(
		"flow_runs_total",
		metric.WithDescription("Count of completed flow executions."),
	)
	if err != nil {
		panic(err)
	}

	return &metricsRecorder{
		registry:        registry,
		meterProvider:   provider,
		nodeExecutions:  nodeExecutions,
		nodeDurationSec: nodeDurationSec,
		runsTotal:       runsTotal,
	}
}

func (m *metricsRecorder) recordNodeDuration(ctx context.Context, kind string, seconds float64) {
	m.nodeDurationSec.Record(ctx, seconds, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *metricsRecorder) recordNodeExecution(ctx context.Context, status string) {
	m.nodeExecutions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *metricsRecorder) recordRun(ctx context.Context) {
	m.runsTotal.Add(ctx, 1)
}

// Registry exposes the Prometheus registry so a host process can serve it
// over /metrics.
func (e *Engine) Registry() *prometheus.Registry {
	return e.metrics.registry
}
