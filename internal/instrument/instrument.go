// Package instrument records OpenTelemetry spans for GraphQL operations: one
// span per parse, validation and execution, and one span per resolved field
// path.
//
// Field spans are correlated by response path rather than by call stack.
// Every resolver invocation normalizes its path, looks up the span stored for
// it in the execution's registry, and creates one parented to the nearest
// instrumented ancestor when there is none. Resolvers may therefore run and
// complete in any order, including through deferred values settled on other
// goroutines, and still produce a correctly nested trace.
package instrument

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	executor "github.com/hanpama/gqltrace/internal/executor"
	language "github.com/hanpama/gqltrace/internal/language"
	schema "github.com/hanpama/gqltrace/internal/schema"
)

const instrumentationName = "github.com/hanpama/gqltrace/internal/instrument"

// Instrumentation creates GraphQL spans. It implements executor.ExecutionHook.
type Instrumentation struct {
	tracer trace.Tracer
	config func() Config

	mu      sync.Mutex
	wrapped map[*schema.Field]bool
}

var _ executor.ExecutionHook = (*Instrumentation)(nil)

// New returns an Instrumentation using the global tracer provider and
// DefaultConfig unless overridden by opts.
func New(opts ...Option) *Instrumentation {
	i := &Instrumentation{
		tracer:  otel.GetTracerProvider().Tracer(instrumentationName),
		config:  DefaultConfig,
		wrapped: make(map[*schema.Field]bool),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Config returns the configuration currently in effect.
func (i *Instrumentation) Config() Config {
	return i.config()
}

// Parse parses source inside a graphql.parse span.
func (i *Instrumentation) Parse(ctx context.Context, source string) (*language.QueryDocument, error) {
	cfg := i.config()
	if !cfg.Enabled {
		return language.ParseQuery(source)
	}
	_, span := i.tracer.Start(ctx, SpanParse)
	defer span.End()

	doc, err := language.ParseQuery(source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if tokens, err := language.Tokenize(source); err == nil {
		span.SetAttributes(attribute.String(AttrSource, Excerpt(tokens, cfg.AllowValues)))
	}
	return doc, nil
}

// Validate checks doc against sch inside a graphql.validate span. Schemas
// assembled without an SDL document are not validated.
func (i *Instrumentation) Validate(ctx context.Context, sch *schema.Schema, doc *language.QueryDocument) language.ErrorList {
	if sch.AST == nil {
		return nil
	}
	if !i.config().Enabled {
		return language.Validate(sch.AST, doc)
	}
	_, span := i.tracer.Start(ctx, SpanValidate)
	defer span.End()

	errs := language.Validate(sch.AST, doc)
	if len(errs) > 0 {
		span.SetAttributes(attribute.Int(AttrErrorCount, len(errs)))
		for _, e := range errs {
			span.RecordError(e)
		}
		span.SetStatus(codes.Error, errs[0].Message)
	}
	return errs
}

// BeginExecution starts the graphql.execute span and installs the field span
// registry into the returned context.
func (i *Instrumentation) BeginExecution(ctx context.Context, req *executor.ExecutionRequest) (context.Context, func(*executor.ExecutionResult)) {
	cfg := i.config()
	if !cfg.Enabled {
		return ctx, nil
	}

	attrs := []attribute.KeyValue{}
	if op := req.Operation; op != nil {
		attrs = append(attrs, attribute.String(AttrOperationType, string(op.Operation)))
		if op.Name != "" {
			attrs = append(attrs, attribute.String(AttrOperationName, op.Name))
		}
	} else if req.OperationName != "" {
		attrs = append(attrs, attribute.String(AttrOperationName, req.OperationName))
	}
	tokens, err := language.Tokenize(req.Source)
	if err != nil {
		tokens = nil
	}
	if tokens != nil {
		attrs = append(attrs, attribute.String(AttrSource, Excerpt(tokens, cfg.AllowValues)))
	}

	ctx, span := i.tracer.Start(ctx, SpanExecute, trace.WithAttributes(attrs...))
	ctx = context.WithValue(ctx, executionKey{}, newExecution(span, tokens))

	return ctx, func(res *executor.ExecutionResult) {
		defer span.End()
		if res == nil || len(res.Errors) == 0 {
			return
		}
		span.SetAttributes(attribute.Int(AttrErrorCount, len(res.Errors)))
		for _, e := range res.Errors {
			span.RecordError(errors.New(e.Message))
		}
		span.SetStatus(codes.Error, res.Errors[0].Message)
	}
}
