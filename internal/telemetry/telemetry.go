// Package telemetry owns tracing for the countryguess server.
//
// Packages obtain tracers through Tracer so every span is reported under one
// instrumentation namespace. Until Setup runs, the global provider is a no-op
// and spans cost nothing.
package telemetry

import (
	"context"
	"os"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "countryguess"
	// DefaultVersion is reported when Options.Version is empty.
	DefaultVersion = "0.1.0"
)

// Options describes the running server in the exported resource.
type Options struct {
	Version         string
	CountriesSource string // "remote" or "embedded"
}

// Setup installs a global tracer provider exporting over OTLP/HTTP.
// OTEL_EXPORTER_OTLP_ENDPOINT and OTEL_EXPORTER_OTLP_HEADERS configure the
// exporter. The returned function flushes and stops the provider.
func Setup(ctx context.Context, opts Options) (shutdown func(context.Context) error, err error) {
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(Attributes(opts)...))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Attributes returns the resource attributes for opts.
func Attributes(opts Options) []attribute.KeyValue {
	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}
	attrs := []attribute.KeyValue{
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
		attribute.String("host.name", hostname()),
		attribute.String("process.runtime.version", runtime.Version()),
	}
	if opts.CountriesSource != "" {
		attrs = append(attrs, attribute.String("countryguess.countries_source", opts.CountriesSource))
	}
	return attrs
}

// Tracer returns the tracer for a component ("game", "catalog", ...).
// It resolves the global provider on each call, so tracers taken before
// Setup still export once Setup has run.
func Tracer(component string) trace.Tracer {
	return otel.Tracer(serviceName + "/" + component)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
