package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	schema "github.com/hanpama/gqltrace/internal/schema"
)

// Pattern: Calls comparison
func TestRuntimeContract_Routing_SyncVsDeferred_Calls(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query":  {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{{Name: "a", Type: schema.NamedType("String")}, {Name: "b", Type: schema.NamedType("String")}}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
		"Query.b": NewMockDeferredResolver("B"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ a b }")

	_ = exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	gotCalls := rt.GetCalls()

	wantCalls := []Call{
		{Kind: "sync", ObjectType: "Query", Field: "a", Source: nil, Args: map[string]any{}},
		{Kind: "deferred", ObjectType: "Query", Field: "b", Source: nil, Args: map[string]any{}},
	}
	if diff := cmp.Diff(wantCalls, gotCalls); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Calls comparison
func TestRuntimeContract_PayloadTransparency_Calls(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query":  {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{{Name: "obj", Type: schema.NamedType("Obj")}}},
			"Obj":    {Name: "Obj", Kind: schema.TypeKindObject, Fields: []*schema.Field{{Name: "a", Type: schema.NamedType("String"), Arguments: []*schema.InputValue{{Name: "arg", Type: schema.NamedType("String")}}}}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.obj": NewMockValueResolver(map[string]any{"token": "root"}),
		"Obj.a":     func(ctx context.Context, src any, args map[string]any) (any, error) { return "A", nil },
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ obj { a(arg: \"val\") } }")

	_ = exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	gotCalls := rt.GetCalls()

	wantCalls := []Call{
		{Kind: "sync", ObjectType: "Query", Field: "obj", Source: nil, Args: map[string]any{}},
		{Kind: "sync", ObjectType: "Obj", Field: "a", Source: map[string]any{"token": "root"}, Args: map[string]any{"arg": "val"}},
	}
	if diff := cmp.Diff(wantCalls, gotCalls); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Calls comparison
func TestRuntimeContract_FieldResolveWinsOverRuntime_Calls(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "a", Type: schema.NamedType("String"), Resolve: func(p schema.ResolveParams) (any, error) { return "own", nil }},
				{Name: "b", Type: schema.NamedType("String")},
			}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
		"Query.b": NewMockValueResolver("B"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ a b }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	gotCalls := rt.GetCalls()

	wantRes := &ExecutionResult{Data: map[string]any{"a": "own", "b": "B"}, Errors: []GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []Call{
		{Kind: "sync", ObjectType: "Query", Field: "b", Source: nil, Args: map[string]any{}},
	}
	if diff := cmp.Diff(wantCalls, gotCalls); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Calls + Result comparison
func TestRuntimeContract_HookInvocation_Serialize_ResolveType_CallsAndResult(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query":  {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{{Name: "iface", Type: schema.NamedType("Node")}}},
			"Node":   {Name: "Node", Kind: schema.TypeKindInterface, PossibleTypes: []string{"Obj"}},
			"Obj":    {Name: "Obj", Kind: schema.TypeKindObject, Interfaces: []string{"Node"}, Fields: []*schema.Field{{Name: "a", Type: schema.NamedType("String")}}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.iface": NewMockValueResolver(map[string]any{}),
		"Obj.a":       NewMockValueResolver("A"),
	})

	typeCount := 0
	serializerCount := 0
	SetTypeResolver(rt, func(value any) (string, error) { typeCount++; return "Obj", nil })
	SetSerializer(rt, func(val any, t schema.TypeRef) (any, error) { serializerCount++; return val.(string) + "!", nil })

	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ iface { a } }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	gotCalls := rt.GetCalls()

	wantRes := &ExecutionResult{Data: map[string]any{"iface": map[string]any{"a": "A!"}}, Errors: []GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []Call{
		{Kind: "sync", ObjectType: "Query", Field: "iface", Source: nil, Args: map[string]any{}},
		{Kind: "sync", ObjectType: "Obj", Field: "a", Source: map[string]any{}, Args: map[string]any{}},
	}
	if diff := cmp.Diff(wantCalls, gotCalls); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
	if typeCount != 1 || serializerCount != 1 {
		t.Fatalf("hook counts wrong type=%d serializer=%d", typeCount, serializerCount)
	}
}

// Pattern: Calls + Result comparison
func TestRuntimeContract_PartialFailure_CallsAndResult(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query":  {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{{Name: "a", Type: schema.NamedType("String")}, {Name: "b", Type: schema.NamedType("String")}}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockRejectedResolver(fmt.Errorf("boom")),
		"Query.b": NewMockDeferredResolver("B"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ a b }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	gotCalls := rt.GetCalls()

	wantRes := &ExecutionResult{Data: map[string]any{"a": nil, "b": "B"}, Errors: []GraphQLError{{Message: "boom", Path: Path{"a"}}}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []Call{
		{Kind: "deferred", ObjectType: "Query", Field: "a", Source: nil, Args: map[string]any{}},
		{Kind: "deferred", ObjectType: "Query", Field: "b", Source: nil, Args: map[string]any{}},
	}
	if diff := cmp.Diff(wantCalls, gotCalls); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestRuntimeContract_CancelledContext_Result(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query":  {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{{Name: "a", Type: schema.NamedType("String")}}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return schema.NewDeferred(), nil // never settles
		},
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ a }")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gotRes := exec.ExecuteRequest(ctx, doc, "", nil, nil)

	wantRes := &ExecutionResult{Data: map[string]any{"a": nil}, Errors: []GraphQLError{{Message: context.Canceled.Error(), Path: Path{"a"}}}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}
