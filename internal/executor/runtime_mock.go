package executor

import (
	"context"
	"fmt"
	"sync"

	schema "github.com/hanpama/gqltrace/internal/schema"
)

// MockResolver resolves a single field instance in tests.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// CallKind identifies whether a resolver returned a plain value or a deferred one.
const (
	CallKindSync     = "sync"
	CallKindDeferred = "deferred"
)

// NewMockValueResolver returns a MockResolver that always returns the provided value.
func NewMockValueResolver(val any) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return val, nil
	}
}

// NewMockErrorResolver returns a MockResolver that always returns the provided error.
func NewMockErrorResolver(err error) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return nil, err
	}
}

// NewMockDeferredResolver returns a MockResolver whose result settles on
// another goroutine with val.
func NewMockDeferredResolver(val any) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		d := schema.NewDeferred()
		go d.Resolve(val)
		return d, nil
	}
}

// NewMockRejectedResolver returns a MockResolver whose result settles on
// another goroutine with err.
func NewMockRejectedResolver(err error) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		d := schema.NewDeferred()
		go d.Reject(err)
		return d, nil
	}
}

// Call represents a single resolver invocation record.
type Call struct {
	Kind       string
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
}

// MockRuntime implements Runtime and FieldResolver with a single resolver
// registry and a single call log.
type MockRuntime struct {
	mu        sync.Mutex
	resolvers map[string]MockResolver
	calls     []Call

	typeResolver func(value any) (string, error)
	serializer   func(val any, t schema.TypeRef) (any, error)
}

// NewMockRuntime creates a MockRuntime with the provided resolvers.
// The resolvers map keys are of the form "ObjectType.Field".
func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{
		resolvers: make(map[string]MockResolver),
		typeResolver: func(value any) (string, error) {
			if m, ok := value.(map[string]any); ok {
				if typename, ok := m["__typename"].(string); ok {
					return typename, nil
				}
			}
			return "", fmt.Errorf("cannot resolve type")
		},
		serializer: func(val any, t schema.TypeRef) (any, error) {
			return val, nil
		},
	}
	m.mu.Lock()
	for k, v := range resolvers {
		m.resolvers[k] = v
	}
	m.mu.Unlock()
	return m
}

// SetResolver registers or updates a resolver for the given object type and field.
func (m *MockRuntime) SetResolver(objectType, field string, resolver MockResolver) {
	key := objectType + "." + field
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolvers == nil {
		m.resolvers = make(map[string]MockResolver)
	}
	m.resolvers[key] = resolver
}

func SetTypeResolver(r Runtime, f func(value any) (string, error)) {
	if mr, ok := r.(*MockRuntime); ok {
		mr.mu.Lock()
		mr.typeResolver = f
		mr.mu.Unlock()
	}
}

func SetSerializer(r Runtime, f func(val any, t schema.TypeRef) (any, error)) {
	if mr, ok := r.(*MockRuntime); ok {
		mr.mu.Lock()
		mr.serializer = f
		mr.mu.Unlock()
	}
}

// ResolveField implements FieldResolver by looking up "ParentType.field".
// Unregistered fields resolve to null.
func (m *MockRuntime) ResolveField(p schema.ResolveParams) (any, error) {
	objectType := p.Info.ParentType.Name
	field := p.Info.FieldName
	key := objectType + "." + field

	m.mu.Lock()
	r := m.resolvers[key]
	m.mu.Unlock()

	var (
		val any
		err error
	)
	if r != nil {
		val, err = r(p.Context, p.Source, p.Args)
	}

	kind := CallKindSync
	if _, ok := val.(*schema.Deferred); ok {
		kind = CallKindDeferred
	}
	m.mu.Lock()
	m.calls = append(m.calls, Call{
		Kind:       kind,
		ObjectType: objectType,
		Field:      field,
		Source:     p.Source,
		Args:       p.Args,
	})
	m.mu.Unlock()

	return val, err
}

// ResolveType implements Runtime.ResolveType
func (m *MockRuntime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if m.typeResolver == nil {
		return "", fmt.Errorf("type resolver not configured")
	}
	return m.typeResolver(value)
}

// SerializeLeafValue implements Runtime.SerializeLeafValue
func (m *MockRuntime) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error) {
	if m.serializer == nil {
		return value, nil
	}
	return m.serializer(value, *schema.NamedType(scalarOrEnumTypeName))
}

// GetCalls returns a copy of the recorded calls in order.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears recorded calls (resolvers remain).
func (m *MockRuntime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
