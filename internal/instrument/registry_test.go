package instrument

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestRegistry(t *testing.T) {
	sr, tp := newRecorder(t)
	tracer := tp.Tracer("test")
	_, root := tracer.Start(context.Background(), "root")

	starter := func(name string, calls *int) func(trace.Span) trace.Span {
		return func(parent trace.Span) trace.Span {
			*calls++
			_, s := tracer.Start(trace.ContextWithSpan(context.Background(), parent), name)
			return s
		}
	}

	t.Run("find or create", func(t *testing.T) {
		exec := newExecution(root, nil)
		calls := 0
		rec, created := exec.findOrCreate([]string{"a"}, starter("a", &calls))
		require.True(t, created)
		again, created := exec.findOrCreate([]string{"a"}, starter("a", &calls))
		require.False(t, created)
		require.Same(t, rec, again)
		require.Equal(t, 1, calls)
		require.Same(t, rec, exec.get([]string{"a"}))
		require.Nil(t, exec.get([]string{"b"}))
	})

	t.Run("distinct paths get distinct records", func(t *testing.T) {
		exec := newExecution(root, nil)
		calls := 0
		a, _ := exec.findOrCreate([]string{"items", "0", "name"}, starter("x", &calls))
		b, _ := exec.findOrCreate([]string{"items", "1", "name"}, starter("y", &calls))
		require.NotSame(t, a, b)
		require.Equal(t, 2, calls)
	})

	t.Run("root span parents top level fields", func(t *testing.T) {
		exec := newExecution(root, nil)
		calls := 0
		rec, _ := exec.findOrCreate([]string{"a"}, starter("a", &calls))
		require.Equal(t, root, rec.parent)
		require.Equal(t, root, exec.nearestAncestor([]string{"z", "y"}).span)
	})

	// Pattern: a missing intermediate level is skipped, not replaced by root
	t.Run("nearest ancestor skips missing level", func(t *testing.T) {
		exec := newExecution(root, nil)
		calls := 0
		a, _ := exec.findOrCreate([]string{"a"}, starter("a", &calls))
		require.Nil(t, exec.get([]string{"a", "b"}))
		c, created := exec.findOrCreate([]string{"a", "b", "c"}, starter("a.b.c", &calls))
		require.True(t, created)
		require.Equal(t, a.span, c.parent)

		a.span.End()
		c.span.End()
		requireChildOf(t, spanNamed(t, sr.Ended(), "a.b.c"), spanNamed(t, sr.Ended(), "a"))
	})

	t.Run("longest prefix wins", func(t *testing.T) {
		exec := newExecution(root, nil)
		calls := 0
		exec.findOrCreate([]string{"a"}, starter("a", &calls))
		ab, _ := exec.findOrCreate([]string{"a", "b"}, starter("a.b", &calls))
		require.Same(t, ab, exec.nearestAncestor([]string{"a", "b", "c", "d"}))
	})

	t.Run("a path is not its own ancestor", func(t *testing.T) {
		exec := newExecution(root, nil)
		calls := 0
		exec.findOrCreate([]string{"a", "b"}, starter("a.b", &calls))
		require.Equal(t, root, exec.nearestAncestor([]string{"a", "b"}).span)
	})
}
