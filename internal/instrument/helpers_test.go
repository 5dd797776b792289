package instrument

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	executor "github.com/hanpama/gqltrace/internal/executor"
	schema "github.com/hanpama/gqltrace/internal/schema"
)

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func newTestInstrumentation(t *testing.T, cfg Config) (*Instrumentation, *tracetest.SpanRecorder) {
	t.Helper()
	sr, tp := newRecorder(t)
	return New(WithTracerProvider(tp), WithStaticConfig(cfg)), sr
}

// begin starts an execution of src and returns the resolver context and a
// function ending the execution span.
func begin(t *testing.T, inst *Instrumentation, src string) (context.Context, func()) {
	t.Helper()
	ctx, finish := inst.BeginExecution(context.Background(), &executor.ExecutionRequest{Source: src})
	return ctx, func() {
		if finish != nil {
			finish(&executor.ExecutionResult{})
		}
	}
}

func params(ctx context.Context, path *schema.ResponsePath) schema.ResolveParams {
	name, _ := path.Key.(string)
	return schema.ResolveParams{
		Context: ctx,
		Info: schema.ResolveInfo{
			FieldName:  name,
			Path:       path,
			ReturnType: schema.NamedType("String"),
		},
	}
}

func spanNamed(t *testing.T, spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	require.Failf(t, "span not found", "no span named %q", name)
	return nil
}

func spanNames(spans []sdktrace.ReadOnlySpan) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Name()
	}
	return out
}

func attrs(s sdktrace.ReadOnlySpan) map[string]string {
	out := make(map[string]string)
	for _, kv := range s.Attributes() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func requireChildOf(t *testing.T, child, parent sdktrace.ReadOnlySpan) {
	t.Helper()
	require.Equal(t, parent.SpanContext().SpanID(), child.Parent().SpanID(),
		"%s should be a child of %s", child.Name(), parent.Name())
}

// countingSpan counts End calls; the SDK ignores repeated Ends.
type countingSpan struct {
	noop.Span
	name string

	mu     sync.Mutex
	ends   int
	errs   []error
	status codes.Code
}

func (s *countingSpan) End(...trace.SpanEndOption) {
	s.mu.Lock()
	s.ends++
	s.mu.Unlock()
}

func (s *countingSpan) RecordError(err error, _ ...trace.EventOption) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

func (s *countingSpan) SetStatus(code codes.Code, _ string) {
	s.mu.Lock()
	s.status = code
	s.mu.Unlock()
}

func (s *countingSpan) IsRecording() bool { return true }

func (s *countingSpan) snapshot() (ends int, errs []error, status codes.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ends, append([]error(nil), s.errs...), s.status
}

type countingTracer struct {
	noop.Tracer

	mu    sync.Mutex
	spans []*countingSpan
}

func (t *countingTracer) Start(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	s := &countingSpan{name: name}
	t.mu.Lock()
	t.spans = append(t.spans, s)
	t.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

func (t *countingTracer) span(name string) *countingSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.spans {
		if s.name == name {
			return s
		}
	}
	return nil
}

type countingProvider struct {
	noop.TracerProvider
	tracer *countingTracer
}

func (p countingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer { return p.tracer }
