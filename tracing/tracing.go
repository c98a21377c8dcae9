// Package tracing wires OpenTelemetry into the wiki client. Each api.php round
// trip, each article operation and each MCP tool call gets a span. Nothing is
// exported unless the OTEL_* environment asks for it.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer and the default service
const TracerName = "gowiki"

// Exporter selects where finished spans go
type Exporter string

const (
	ExporterNone   Exporter = "none"
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
)

// Config holds tracing configuration
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Exporter       Exporter
	OTLPEndpoint   string

	// Writer receives stdout exporter output; stderr when nil. Stdout itself
	// carries page text and the MCP stdio transport.
	Writer     io.Writer
	SampleRate float64
}

// Enabled reports whether spans are exported at all
func (c Config) Enabled() bool {
	return c.Exporter == ExporterStdout || c.Exporter == ExporterOTLP
}

// DefaultConfig reads OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_ENABLED, OTEL_ENVIRONMENT
// and OTEL_TRACES_SAMPLER_ARG. An OTLP endpoint wins over OTEL_ENABLED, which
// only turns on the stderr exporter.
func DefaultConfig(version string) Config {
	cfg := Config{
		ServiceName:    TracerName,
		ServiceVersion: version,
		Environment:    getEnvOrDefault("OTEL_ENVIRONMENT", "development"),
		Exporter:       ExporterNone,
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SampleRate:     1.0,
	}
	switch {
	case cfg.OTLPEndpoint != "":
		cfg.Exporter = ExporterOTLP
	case os.Getenv("OTEL_ENABLED") == "true":
		cfg.Exporter = ExporterStdout
	}
	if arg := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); arg != "" {
		if rate, err := strconv.ParseFloat(arg, 64); err == nil {
			cfg.SampleRate = rate
		}
	}
	return cfg
}

// ShutdownFunc flushes pending spans and stops the exporter
type ShutdownFunc func(context.Context) error

// Setup installs the global tracer provider described by config
func Setup(ctx context.Context, config Config) (ShutdownFunc, error) {
	if !config.Enabled() {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, config)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(config)),
		sdktrace.WithSampler(sampler(config.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// newResource describes this process. It is not merged with resource.Default,
// whose schema URL follows the sdk release and need not match semconv.
func newResource(config Config) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
		attribute.String("environment", config.Environment),
	)
}

func newExporter(ctx context.Context, config Config) (sdktrace.SpanExporter, error) {
	switch config.Exporter {
	case ExporterOTLP:
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(config.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
	case ExporterStdout:
		w := config.Writer
		if w == nil {
			w = os.Stderr
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", config.Exporter)
	}
}

// sampler clamps rate to [0, 1]
func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// StartSpan starts a span on the gowiki tracer
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, opts...)
}

// AddToolAttributes tags an MCP tool span
func AddToolAttributes(span trace.Span, toolName, category string) {
	span.SetAttributes(
		attribute.String("mcp.tool.name", toolName),
		attribute.String("mcp.tool.category", category),
	)
}

// AddWikiAttributes adds the api.php action and, when known, the page title
func AddWikiAttributes(span trace.Span, action, page string) {
	span.SetAttributes(attribute.String("wiki.api.action", action))
	if page != "" {
		span.SetAttributes(attribute.String("wiki.page.title", page))
	}
}

// AddHTTPAttributes records the outcome of one api.php round trip
func AddHTTPAttributes(span trace.Span, method string, status, bytes int) {
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.Int("http.response.status_code", status),
		attribute.Int("wiki.response.bytes", bytes),
	)
}

// RecordError marks the span failed; a nil error is ignored
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
