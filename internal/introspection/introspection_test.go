package introspection_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/gqltrace/internal/executor"
	"github.com/hanpama/gqltrace/internal/introspection"
	language "github.com/hanpama/gqltrace/internal/language"
	schema "github.com/hanpama/gqltrace/internal/schema"
)

const catalogSDL = `
type Query {
  book(id: ID!): Book
  books: [Book!]!
}

"A published book."
type Book {
  title: String!
  isbn: String @deprecated(reason: "use identifiers")
}
`

func execute(t *testing.T, sch *schema.Schema, query string) *executor.ExecutionResult {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	exec := executor.NewExecutor(executor.NewDefaultRuntime(sch), sch)
	return exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
}

func TestExtend(t *testing.T) {
	sch, err := schema.BuildFromSDL("catalog.graphql", catalogSDL)
	require.NoError(t, err)
	ext := introspection.Extend(sch)

	t.Run("original schema untouched", func(t *testing.T) {
		require.Nil(t, sch.GetQueryType().FieldByName("__schema"))
		require.NotNil(t, ext.GetQueryType().FieldByName("__schema"))
		require.NotNil(t, ext.GetQueryType().FieldByName("__type"))
	})

	t.Run("query type name", func(t *testing.T) {
		res := execute(t, ext, `{ __schema { queryType { name } mutationType { name } } }`)
		require.Empty(t, res.Errors)
		want := map[string]any{
			"__schema": map[string]any{
				"queryType":    map[string]any{"name": "Query"},
				"mutationType": nil,
			},
		}
		if diff := cmp.Diff(want, res.Data); diff != "" {
			t.Errorf("result mismatch (-want +got):\n%s", diff)
		}
	})

	// Pattern: wrapper types unwind through ofType down to the named type
	t.Run("type references", func(t *testing.T) {
		res := execute(t, ext, `{
  __type(name: "Query") {
    fields { name type { kind name ofType { kind name ofType { kind name ofType { kind name } } } } }
  }
}`)
		require.Empty(t, res.Errors)
		want := map[string]any{
			"__type": map[string]any{
				"fields": []any{
					map[string]any{
						"name": "book",
						"type": map[string]any{"kind": "OBJECT", "name": "Book", "ofType": nil},
					},
					map[string]any{
						"name": "books",
						"type": map[string]any{
							"kind": "NON_NULL", "name": nil,
							"ofType": map[string]any{
								"kind": "LIST", "name": nil,
								"ofType": map[string]any{
									"kind": "NON_NULL", "name": nil,
									"ofType": map[string]any{"kind": "OBJECT", "name": "Book"},
								},
							},
						},
					},
				},
			},
		}
		if diff := cmp.Diff(want, res.Data); diff != "" {
			t.Errorf("result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("deprecated fields", func(t *testing.T) {
		res := execute(t, ext, `{
  __type(name: "Book") {
    description
    active: fields { name }
    all: fields(includeDeprecated: true) { name isDeprecated deprecationReason }
  }
}`)
		require.Empty(t, res.Errors)
		want := map[string]any{
			"__type": map[string]any{
				"description": "A published book.",
				"active":      []any{map[string]any{"name": "title"}},
				"all": []any{
					map[string]any{"name": "title", "isDeprecated": false, "deprecationReason": nil},
					map[string]any{"name": "isbn", "isDeprecated": true, "deprecationReason": "use identifiers"},
				},
			},
		}
		if diff := cmp.Diff(want, res.Data); diff != "" {
			t.Errorf("result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		res := execute(t, ext, `{ __type(name: "Missing") { name } }`)
		require.Empty(t, res.Errors)
		if diff := cmp.Diff(map[string]any{"__type": nil}, res.Data); diff != "" {
			t.Errorf("result mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestTypenameWithoutExtension(t *testing.T) {
	sch, err := schema.BuildFromSDL("catalog.graphql", catalogSDL)
	require.NoError(t, err)
	res := execute(t, sch, `{ __typename }`)
	require.Empty(t, res.Errors)
	if diff := cmp.Diff(map[string]any{"__typename": "Query"}, res.Data); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}
