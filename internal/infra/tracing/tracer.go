package tracing

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const serviceName = "labeler"

// CommandKey tags every span with the labeler subcommand that produced it, so
// review exports and collector writes can be told apart in one backend.
var CommandKey = attribute.Key("labeler.command")

type Options struct {
	Endpoint    string
	Command     string
	SampleRatio float64
}

// InitTracer installs a global tracer provider exporting over OTLP/HTTP. The
// exporter connects lazily, so an unreachable collector only drops spans.
func InitTracer(ctx context.Context, opts Options) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(opts.Endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sampler(opts.SampleRatio)),
		sdktrace.WithResource(newResource(opts.Command)),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

func newResource(command string) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(serviceName),
		semconv.ProcessPIDKey.Int(os.Getpid()),
	}
	if host, err := os.Hostname(); err == nil {
		attrs = append(attrs, semconv.HostNameKey.String(host))
	}
	if command != "" {
		attrs = append(attrs, CommandKey.String(command))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

// sampler samples every root span at ratio >= 1 and none at ratio <= 0.
// Between the two, children follow their parent's decision.
func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}
