package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// isURL reports whether endpoint carries a scheme (http://host:4318/v1/traces)
// rather than a bare host:port.
func isURL(endpoint string) bool {
	return strings.Contains(endpoint, "://")
}

func buildOTLPTraceExporter(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	var opts []otlptracehttp.Option
	if isURL(endpoint) {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}
	if otlpInsecure() {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if h := otlpHeaders(); h != nil {
		opts = append(opts, otlptracehttp.WithHeaders(h))
	}
	return otlptracehttp.New(ctx, opts...)
}

func buildOTLPMetricExporter(ctx context.Context, endpoint string) (sdkmetric.Exporter, error) {
	var opts []otlpmetrichttp.Option
	if isURL(endpoint) {
		opts = append(opts, otlpmetrichttp.WithEndpointURL(endpoint))
	} else {
		opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
	}
	if otlpInsecure() {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if h := otlpHeaders(); h != nil {
		opts = append(opts, otlpmetrichttp.WithHeaders(h))
	}
	return otlpmetrichttp.New(ctx, opts...)
}
