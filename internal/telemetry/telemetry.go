// Package telemetry wires OpenTelemetry tracing for the battle service.
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

	"github.com/ericogr/pokearena/internal/constants"
	"github.com/ericogr/pokearena/internal/version"
)

// Setup initializes OpenTelemetry with an OTLP HTTP exporter configured from
// the standard OTEL_EXPORTER_OTLP_* environment variables.
//
// Returns a shutdown function that should be called on application exit.
func Setup(ctx context.Context) (shutdown func(context.Context) error, err error) {
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	// Own resource instead of merging with resource.Default() to avoid
	// schema URL conflicts.
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", constants.ServiceName),
			attribute.String("service.version", version.String()),
			attribute.String("host.name", hostname()),
			attribute.String("os.type", runtime.GOOS),
			attribute.String("process.runtime.name", "go"),
			attribute.String("process.runtime.version", runtime.Version()),
		),
	)
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

// Tracer returns a named tracer for the given component. Until Setup runs
// the global provider is a no-op, so callers can trace unconditionally.
func Tracer(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(constants.ServiceName + "/" + name)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
