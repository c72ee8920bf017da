// Package observability sets up OpenTelemetry tracing.
package observability

import (
	"context"
	"strings"
	"time"

	"github.com/lshigami/pblagro/config"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

// InitTracing installs a global tracer provider when tracing is enabled. The returned
// Shutdown is always safe to call.
func InitTracing(ctx context.Context, cfg *config.Config) (Shutdown, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Tracing.Enabled {
		return noop, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.Tracing.ServiceName),
		attribute.String("deployment.environment", cfg.Env),
	))
	if err != nil {
		log.Warn().Err(err).Msg("otel resource init failed (continuing)")
	}

	exporter, err := buildExporter(ctx, cfg.Tracing.OTLPEndpoint)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.Tracing.SampleRatio)))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info().Str("service", cfg.Tracing.ServiceName).Str("endpoint", cfg.Tracing.OTLPEndpoint).Msg("OpenTelemetry tracing initialized")
	return tp.Shutdown, nil
}

func buildExporter(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		log.Warn().Msg("otel using stdout exporter (no OTLP endpoint configured)")
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if strings.Contains(endpoint, "://") {
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	}
	return otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint))
}

func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}
