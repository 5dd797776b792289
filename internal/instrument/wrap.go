package instrument

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	schema "github.com/hanpama/gqltrace/internal/schema"
)

type executionKey struct{}

var errResolverExited = errors.New("resolver exited without returning")

// resolvingKey marks the context handed to an instrumented resolver with the
// path it resolves, so a resolver wrapped twice records one span.
type resolvingKey struct{}

func executionFrom(ctx context.Context) *execution {
	if ctx == nil {
		return nil
	}
	e, _ := ctx.Value(executionKey{}).(*execution)
	return e
}

// WrapResolver returns a resolver that runs fn inside the span of the field
// path being resolved. Outside an instrumented execution it calls fn
// directly. Errors, panics and deferred outcomes of fn reach the caller
// unchanged.
func (i *Instrumentation) WrapResolver(fn schema.FieldResolveFn) schema.FieldResolveFn {
	return func(p schema.ResolveParams) (any, error) {
		return i.resolve(fn, p, false)
	}
}

// WrapTrivialResolver is WrapResolver for the executor's default field
// resolver. Its spans are skipped when IgnoreTrivialResolveSpans is set.
func (i *Instrumentation) WrapTrivialResolver(fn schema.FieldResolveFn) schema.FieldResolveFn {
	return func(p schema.ResolveParams) (any, error) {
		return i.resolve(fn, p, true)
	}
}

func (i *Instrumentation) resolve(fn schema.FieldResolveFn, p schema.ResolveParams, trivial bool) (any, error) {
	exec := executionFrom(p.Context)
	if exec == nil || p.Info.Path == nil {
		return fn(p)
	}
	if active, _ := p.Context.Value(resolvingKey{}).(*schema.ResponsePath); active == p.Info.Path {
		return fn(p)
	}
	cfg := i.config()
	if !cfg.Enabled || cfg.IgnoreResolveSpans || (trivial && cfg.IgnoreTrivialResolveSpans) {
		return fn(p)
	}

	path := normalizePath(p.Info.Path, cfg.MergeItems)
	var (
		rec   *record
		owned bool
	)
	if cfg.Depth >= 0 && fieldDepth(p.Info.Path) > cfg.Depth {
		if rec = exec.get(path); rec == nil {
			rec = exec.nearestAncestor(path)
		}
	} else {
		rec, owned = exec.findOrCreate(path, func(parent trace.Span) trace.Span {
			return i.startResolveSpan(exec, parent, path, p, cfg)
		})
	}

	ctx := trace.ContextWithSpan(p.Context, rec.span)
	p.Context = context.WithValue(ctx, resolvingKey{}, p.Info.Path)

	var once sync.Once
	finish := func(err error) {
		once.Do(func() {
			if !owned {
				return
			}
			if err != nil {
				exec.setError(rec, err)
				rec.span.RecordError(err)
				rec.span.SetStatus(codes.Error, err.Error())
			}
			rec.span.End()
		})
	}

	returned := false
	defer func() {
		if returned {
			return
		}
		r := recover()
		if r == nil {
			// runtime.Goexit; let it keep unwinding.
			finish(errResolverExited)
			return
		}
		finish(fmt.Errorf("panic: %v", r))
		panic(r)
	}()
	v, err := fn(p)
	returned = true

	if err != nil {
		finish(err)
		return v, err
	}
	if d, ok := v.(*schema.Deferred); ok && d != nil {
		out := schema.NewDeferred()
		d.Then(func(v any, err error) {
			finish(err)
			if err != nil {
				out.Reject(err)
				return
			}
			out.Resolve(v)
		})
		return out, nil
	}
	finish(nil)
	return v, nil
}

func (i *Instrumentation) startResolveSpan(exec *execution, parent trace.Span, path []string, p schema.ResolveParams, cfg Config) trace.Span {
	key := pathKey(path)
	attrs := []attribute.KeyValue{
		attribute.String(AttrFieldName, p.Info.FieldName),
		attribute.String(AttrFieldPath, key),
		attribute.String(AttrFieldType, p.Info.ReturnType.String()),
	}
	if len(p.Info.FieldNodes) > 0 && exec.tokens != nil {
		if src, ok := FieldExcerpt(exec.tokens, p.Info.FieldNodes[0].Position, cfg.AllowValues); ok {
			attrs = append(attrs, attribute.String(AttrSource, src))
		}
	}
	ctx := trace.ContextWithSpan(p.Context, parent)
	_, span := i.tracer.Start(ctx, SpanResolve+" "+key, trace.WithAttributes(attrs...))
	return span
}
