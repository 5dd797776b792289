package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	schema "github.com/hanpama/gqltrace/internal/schema"
)

func contextTestExecutor() *Executor {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "a", Type: schema.NamedType("String")},
				{Name: "b", Type: schema.NamedType("String")},
				{Name: "echo", Type: schema.NamedType("Int"), Arguments: []*schema.InputValue{{Name: "v", Type: schema.NamedType("Int")}}},
			}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
			"Int":    {Name: "Int", Kind: schema.TypeKindScalar},
		},
	}
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a":    NewMockValueResolver("A"),
		"Query.b":    NewMockValueResolver("B"),
		"Query.echo": func(ctx context.Context, src any, args map[string]any) (any, error) { return args["v"], nil },
	})
	return NewExecutor(rt, sch)
}

// Pattern: Result comparison
func TestContext_OperationSelection_Result(t *testing.T) {
	notFound := &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}
	cases := []struct {
		name      string
		query     string
		operation string
		want      *ExecutionResult
	}{
		{"inline operation", "{ a }", "", &ExecutionResult{Data: map[string]any{"a": "A"}, Errors: []GraphQLError{}}},
		{"single named operation without name", "query Foo { a }", "", &ExecutionResult{Data: map[string]any{"a": "A"}, Errors: []GraphQLError{}}},
		{"named operation provided", "query Foo { a } query Bar { b }", "Bar", &ExecutionResult{Data: map[string]any{"b": "B"}, Errors: []GraphQLError{}}},
		{"no operation in document", "fragment F on Query { a }", "", notFound},
		{"no name with multiple operations", "query Foo { a } query Bar { b }", "", notFound},
		{"unknown operation name", "query Foo { a } query Bar { b }", "Baz", notFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := contextTestExecutor()
			got := exec.ExecuteRequest(context.Background(), mustParseQuery(t, tc.query), tc.operation, nil, nil)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Pattern: Result comparison
func TestContext_VariableCoercion_Result(t *testing.T) {
	failed := func(msg string) *ExecutionResult {
		return &ExecutionResult{Errors: []GraphQLError{{Message: msg}}}
	}
	cases := []struct {
		name  string
		query string
		vars  map[string]any
		want  *ExecutionResult
	}{
		{
			name:  "provided variable",
			query: "query($v: Int!){ echo(v:$v) }",
			vars:  map[string]any{"v": 3},
			want:  &ExecutionResult{Data: map[string]any{"echo": 3}, Errors: []GraphQLError{}},
		},
		{
			name:  "integral float from JSON",
			query: "query($v: Int!){ echo(v:$v) }",
			vars:  map[string]any{"v": float64(4)},
			want:  &ExecutionResult{Data: map[string]any{"echo": 4}, Errors: []GraphQLError{}},
		},
		{
			name:  "use default",
			query: "query($v: Int = 5){ echo(v:$v) }",
			want:  &ExecutionResult{Data: map[string]any{"echo": 5}, Errors: []GraphQLError{}},
		},
		{
			name:  "missing required variable",
			query: "query($v: Int!){ echo(v:$v) }",
			want:  failed("variable $v of required type Int! was not provided"),
		},
		{
			name:  "null for non-null variable",
			query: "query($v: Int!){ echo(v:$v) }",
			vars:  map[string]any{"v": nil},
			want:  failed("variable $v of type Int! cannot be null"),
		},
		{
			name:  "wrong scalar",
			query: "query($v: Int!){ echo(v:$v) }",
			vars:  map[string]any{"v": "three"},
			want:  failed("variable $v of type Int! cannot be coerced: cannot coerce three (string) to Int"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := contextTestExecutor()
			got := exec.ExecuteRequest(context.Background(), mustParseQuery(t, tc.query), "", tc.vars, nil)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
