package instrument

import (
	"sort"

	schema "github.com/hanpama/gqltrace/internal/schema"
)

// WrapSchema wraps the resolver of every field reachable from the root
// types of sch, then of every remaining type. Fields already wrapped by this
// Instrumentation are left alone, so the call is idempotent.
func (i *Instrumentation) WrapSchema(sch *schema.Schema) {
	visited := make(map[*schema.Type]bool)
	for _, name := range []string{sch.QueryType, sch.MutationType, sch.SubscriptionType} {
		if name != "" {
			i.wrapFields(sch, sch.Types[name], visited)
		}
	}
	names := make([]string, 0, len(sch.Types))
	for name := range sch.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		i.wrapFields(sch, sch.Types[name], visited)
	}
}

// WrapType wraps the resolvers of t and of every type reachable through its
// fields.
func (i *Instrumentation) WrapType(sch *schema.Schema, t *schema.Type) {
	i.wrapFields(sch, t, make(map[*schema.Type]bool))
}

func (i *Instrumentation) wrapFields(sch *schema.Schema, t *schema.Type, visited map[*schema.Type]bool) {
	if t == nil || visited[t] {
		return
	}
	visited[t] = true
	if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
		return
	}
	for _, f := range t.Fields {
		if f.Resolve != nil {
			i.wrapField(f)
		}
		if f.Type != nil {
			i.wrapFields(sch, sch.Types[f.Type.GetNamedType()], visited)
		}
	}
}

func (i *Instrumentation) wrapField(f *schema.Field) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.wrapped[f] {
		return
	}
	i.wrapped[f] = true
	f.Resolve = i.WrapResolver(f.Resolve)
}
