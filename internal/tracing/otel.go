package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	providerMu   sync.Mutex
	provider     *sdktrace.TracerProvider
	providerRefs int
)

// InitOpenTelemetry installs a process-wide tracer provider. Calls are
// reference counted: the first builds the provider, later ones share it, and
// each must be paired with ShutdownOpenTelemetry.
func InitOpenTelemetry(serviceName string, sampleRatio float64) error {
	providerMu.Lock()
	defer providerMu.Unlock()

	if provider != nil {
		providerRefs++
		return nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return err
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
		sdktrace.WithResource(res),
	)
	providerRefs = 1

	otel.SetTracerProvider(provider)
	return nil
}

// ShutdownOpenTelemetry releases one InitOpenTelemetry call. The last release
// flushes the provider and restores a no-op global, so a later
// InitOpenTelemetry builds a fresh one.
func ShutdownOpenTelemetry(ctx context.Context) error {
	providerMu.Lock()
	if provider == nil {
		providerMu.Unlock()
		return nil
	}
	providerRefs--
	if providerRefs > 0 {
		providerMu.Unlock()
		return nil
	}
	tp := provider
	provider = nil
	otel.SetTracerProvider(noop.NewTracerProvider())
	providerMu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	return tp.Shutdown(ctx)
}

// StartSpan starts a span and records its trace id in ctx when none is set
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))

	if GetTraceID(ctx) == "" {
		if sc := span.SpanContext(); sc.IsValid() {
			ctx = WithTraceID(ctx, sc.TraceID().String())
		}
	}

	return ctx, span
}
