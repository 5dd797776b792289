package instrument

import (
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"

	language "github.com/hanpama/gqltrace/internal/language"
)

// record tracks the span of one normalized field path.
type record struct {
	span   trace.Span
	parent trace.Span
	err    error
}

// execution is the state of one instrumented operation. Records are never
// removed, so descendants resolving after a parent span ended still find it.
type execution struct {
	root   trace.Span
	tokens *language.Token

	mu     sync.Mutex
	fields map[string]*record
}

func newExecution(root trace.Span, tokens *language.Token) *execution {
	return &execution{
		root:   root,
		tokens: tokens,
		fields: make(map[string]*record),
	}
}

func pathKey(path []string) string {
	return strings.Join(path, ".")
}

// get returns the record stored for path, or nil.
func (e *execution) get(path []string) *record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fields[pathKey(path)]
}

// findOrCreate returns the record for path. When none exists, start is called
// with the nearest ancestor span and its span is stored; created reports
// whether that happened.
func (e *execution) findOrCreate(path []string, start func(parent trace.Span) trace.Span) (rec *record, created bool) {
	key := pathKey(path)
	e.mu.Lock()
	defer e.mu.Unlock()
	if rec := e.fields[key]; rec != nil {
		return rec, false
	}
	parent := e.nearestAncestorLocked(path).span
	rec = &record{span: start(parent), parent: parent}
	e.fields[key] = rec
	return rec, true
}

// nearestAncestor returns the record of the longest proper prefix of path
// that has one, or a record holding the root span.
func (e *execution) nearestAncestor(path []string) *record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nearestAncestorLocked(path)
}

func (e *execution) nearestAncestorLocked(path []string) *record {
	for n := len(path) - 1; n >= 1; n-- {
		if rec := e.fields[pathKey(path[:n])]; rec != nil {
			return rec
		}
	}
	return &record{span: e.root}
}

// setError keeps the first error recorded for rec.
func (e *execution) setError(rec *record, err error) {
	e.mu.Lock()
	if rec.err == nil {
		rec.err = err
	}
	e.mu.Unlock()
}
