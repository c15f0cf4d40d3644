package engine

import (
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this package's spans within its own TracerProvider.
const tracerName = "github.com/AIM-Intelligence/AIM-Forge/pkg/engine"

// newTracerProvider builds a private SDK TracerProvider for one Engine,
// the way pkg/telemetry.Provider in the reference workflow engine keeps its
// own resource-tagged provider rather than relying on whatever the host
// process has (or hasn't) installed globally. No span processor or exporter
// is attached, so the spans recorded through this provider are dropped.
func newTracerProvider() *sdktrace.TracerProvider {
	res := resource.NewSchemaless(semconv.ServiceName("aim-forge-engine"))
	return sdktrace.NewTracerProvider(sdktrace.WithResource(res))
}

func newTracer(provider *sdktrace.TracerProvider) trace.Tracer {
	return provider.Tracer(tracerName)
}
