// Package otel configures the OpenTelemetry tracer provider and the eventbus
// subscribers that annotate HTTP request spans.
package otel

import (
	"context"
	"fmt"

	eventbus "github.com/hanpama/gqltrace/internal/eventbus"
	events "github.com/hanpama/gqltrace/internal/events"
	reqid "github.com/hanpama/gqltrace/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Exporter protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// Config selects the OTLP exporter.
type Config struct {
	Endpoint    string // host:port; empty disables export
	Protocol    string // ProtocolGRPC (default) or ProtocolHTTP
	Insecure    bool
	Headers     map[string]string
	ServiceName string
	Version     string
}

// Setup installs a global tracer provider exporting to cfg.Endpoint. If the
// endpoint is empty, the global provider is left untouched and the returned
// shutdown is a no-op.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", cfg.Protocol, err)
	}
	tp := NewTracerProvider(cfg.ServiceName, cfg.Version, sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// NewTracerProvider returns an SDK provider carrying the service resource.
func NewTracerProvider(service, version string, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	attrs := []attribute.KeyValue{semconv.ServiceName(service)}
	if version != "" {
		attrs = append(attrs, semconv.ServiceVersion(version))
	}
	opts = append(opts, sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, attrs...)))
	return sdktrace.NewTracerProvider(opts...)
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Protocol {
	case "", ProtocolGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		return otlptracegrpc.New(ctx, opts...)
	case ProtocolHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown protocol %q", cfg.Protocol)
	}
}

// Subscribe attaches the span annotating handlers to the global event bus.
// Handlers read the span from the event context, so they annotate whatever
// span the publisher installed.
func Subscribe() (unsubscribe func()) {
	stops := []func(){
		eventbus.Subscribe(onHTTPStart),
		eventbus.Subscribe(onHTTPFinish),
		eventbus.Subscribe(onGraphQLStart),
		eventbus.Subscribe(onGraphQLFinish),
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

func onHTTPStart(ctx context.Context, e events.HTTPStart) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		semconv.HTTPMethodKey.String(e.Request.Method),
		semconv.HTTPTargetKey.String(e.Request.URL.Path),
	)
	if rid, ok := reqid.FromContext(ctx); ok {
		span.SetAttributes(attribute.String("http.request_id", rid.String()))
	}
}

func onHTTPFinish(ctx context.Context, e events.HTTPFinish) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
	if e.Status >= 500 {
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", e.Status))
	}
}

func onGraphQLStart(ctx context.Context, e events.GraphQLStart) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.operation.type", e.OperationType),
	)
}

func onGraphQLFinish(ctx context.Context, e events.GraphQLFinish) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("graphql.error.count", len(e.Errors)))
}
