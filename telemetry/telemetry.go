// Package telemetry constructs the OpenTelemetry providers the knowledge
// base instruments itself with. The catalog records a span and counters per
// dispatched operation through the otel API; this package owns the SDK
// wiring behind it.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// serviceName identifies this library in exported traces.
const serviceName = "attackkb"

// NewTracerProvider creates a TracerProvider exporting through the given
// span exporter. The dataset version is attached as a resource attribute so
// traces from different snapshot generations stay distinguishable.
//
// The provider uses a SimpleSpanProcessor for immediate export without
// batching; query operations are low-volume relative to their span cost.
func NewTracerProvider(exporter sdktrace.SpanExporter, datasetVersion string, logger *slog.Logger) *sdktrace.TracerProvider {
	if logger == nil {
		logger = slog.Default()
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(datasetVersion),
		),
	)
	if err != nil {
		logger.Warn("failed to create resource, using default", "error", err)
		res = resource.Default()
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	}
	return sdktrace.NewTracerProvider(opts...)
}

// Tracer returns the library tracer from a provider, or the globally
// registered one when provider is nil.
func Tracer(tp *sdktrace.TracerProvider) trace.Tracer {
	if tp == nil {
		return otel.Tracer(serviceName)
	}
	return tp.Tracer(serviceName)
}

// Shutdown flushes and stops a provider, logging instead of failing when the
// exporter cannot drain in time.
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider, logger *slog.Logger) {
	if tp == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Warn("tracer provider shutdown failed", "error", err)
	}
}
