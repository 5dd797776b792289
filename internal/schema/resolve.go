package schema

import (
	"context"
	"strconv"
	"strings"

	"github.com/hanpama/gqltrace/internal/language"
)

// FieldResolveFn resolves the value of one field instance. It returns either
// the value itself or a *Deferred that settles later.
type FieldResolveFn func(p ResolveParams) (any, error)

// ResolveParams is passed to every field resolver.
type ResolveParams struct {
	Context context.Context
	Source  any
	Args    map[string]any
	Info    ResolveInfo
}

// ResolveInfo describes the field being resolved and where it sits in the
// response.
type ResolveInfo struct {
	FieldName  string
	FieldNodes []*language.Field
	ReturnType *TypeRef
	ParentType *Type
	Path       *ResponsePath
	Operation  *language.OperationDefinition
	Document   *language.QueryDocument
	Schema     *Schema
}

// ResponsePath is a leaf-to-root linked list of response keys. Key is a
// string for fields (the response name) and an int for list indices.
type ResponsePath struct {
	Prev *ResponsePath
	Key  any
}

// WithKey returns a child path of p.
func (p *ResponsePath) WithKey(key any) *ResponsePath {
	return &ResponsePath{Prev: p, Key: key}
}

// AsArray returns the keys from root to leaf.
func (p *ResponsePath) AsArray() []any {
	var n int
	for cur := p; cur != nil; cur = cur.Prev {
		n++
	}
	out := make([]any, n)
	for cur := p; cur != nil; cur = cur.Prev {
		n--
		out[n] = cur.Key
	}
	return out
}

func (p *ResponsePath) String() string {
	keys := p.AsArray()
	parts := make([]string, len(keys))
	for i, k := range keys {
		switch v := k.(type) {
		case string:
			parts[i] = v
		case int:
			parts[i] = strconv.Itoa(v)
		}
	}
	return strings.Join(parts, ".")
}
