package introspection

import (
	"fmt"
	"sort"
	"strings"

	schema "github.com/hanpama/gqltrace/internal/schema"
)

type resolver struct {
	schema *schema.Schema
}

func (r *resolver) resolveSchema(p schema.ResolveParams) (any, error) {
	return r.schema, nil
}

func (r *resolver) resolveType(p schema.ResolveParams) (any, error) {
	name, _ := p.Args["name"].(string)
	if t := r.schema.Types[name]; t != nil {
		return t, nil
	}
	return nil, nil
}

// resolveMeta serves every field of the introspection types, dispatching on
// the model value the parent field produced.
func (r *resolver) resolveMeta(p schema.ResolveParams) (any, error) {
	field := p.Info.FieldName
	var (
		v  any
		ok bool
	)
	switch src := p.Source.(type) {
	case *schema.Schema:
		v, ok = r.schemaField(src, field)
	case *schema.Type:
		v, ok = r.typeField(src, field, p.Args)
	case *schema.TypeRef:
		v, ok = r.typeRefField(src, field)
	case *schema.Field:
		v, ok = r.fieldField(src, field, p.Args)
	case *schema.InputValue:
		v, ok = r.inputValueField(src, field)
	case *schema.EnumValue:
		v, ok = enumValueField(src, field)
	case *schema.Directive:
		v, ok = r.directiveField(src, field, p.Args)
	}
	if !ok {
		return nil, fmt.Errorf("introspection field %s.%s is not supported for %T", p.Info.ParentType.Name, field, p.Source)
	}
	return v, nil
}

// typeOf returns the named type for named references and the reference
// itself for LIST and NON_NULL wrappers.
func (r *resolver) typeOf(tr *schema.TypeRef) any {
	if tr == nil {
		return nil
	}
	if tr.Kind == schema.TypeRefKindNamed {
		if t := r.schema.Types[tr.Named]; t != nil {
			return t
		}
		return nil
	}
	return tr
}

func (r *resolver) schemaField(sch *schema.Schema, field string) (any, bool) {
	switch field {
	case "types":
		return sortedTypes(sch), true
	case "queryType":
		return nilIfAbsent(sch.GetQueryType()), true
	case "mutationType":
		return nilIfAbsent(sch.GetMutationType()), true
	case "subscriptionType":
		return nilIfAbsent(sch.GetSubscriptionType()), true
	case "directives":
		return sortedDirectives(sch), true
	case "description":
		return optionalString(sch.Description), true
	}
	return nil, false
}

func (r *resolver) typeField(t *schema.Type, field string, args map[string]any) (any, bool) {
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return optionalString(t.Description), true
	case "specifiedByURL":
		if t.SpecifiedByURL == nil {
			return nil, true
		}
		return *t.SpecifiedByURL, true
	case "fields":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil, true
		}
		out := []*schema.Field{}
		for _, f := range t.Fields {
			if strings.HasPrefix(f.Name, "__") || (f.IsDeprecated && !boolArg(args, "includeDeprecated")) {
				continue
			}
			out = append(out, f)
		}
		return out, true
	case "interfaces":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil, true
		}
		return r.namedTypes(t.Interfaces), true
	case "possibleTypes":
		if t.Kind != schema.TypeKindInterface && t.Kind != schema.TypeKindUnion {
			return nil, true
		}
		return r.namedTypes(t.PossibleTypes), true
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil, true
		}
		out := []*schema.EnumValue{}
		for _, ev := range t.EnumValues {
			if ev.IsDeprecated && !boolArg(args, "includeDeprecated") {
				continue
			}
			out = append(out, ev)
		}
		return out, true
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return inputValues(t.InputFields, args), true
	case "isOneOf":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return t.OneOf, true
	case "ofType":
		return nil, true
	}
	return nil, false
}

func (r *resolver) typeRefField(tr *schema.TypeRef, field string) (any, bool) {
	switch field {
	case "kind":
		return string(tr.Kind), true
	case "ofType":
		return r.typeOf(tr.OfType), true
	case "name", "description", "specifiedByURL", "fields", "interfaces",
		"possibleTypes", "enumValues", "inputFields", "isOneOf":
		return nil, true
	}
	return nil, false
}

func (r *resolver) fieldField(f *schema.Field, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return optionalString(f.Description), true
	case "args":
		return inputValues(f.Arguments, args), true
	case "type":
		return r.typeOf(f.Type), true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(f.IsDeprecated, f.DeprecationReason), true
	}
	return nil, false
}

func (r *resolver) inputValueField(a *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "description":
		return optionalString(a.Description), true
	case "type":
		return r.typeOf(a.Type), true
	case "defaultValue":
		if a.DefaultValue == nil {
			return nil, true
		}
		return printValue(a.DefaultValue), true
	case "isDeprecated":
		return a.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(a.IsDeprecated, a.DeprecationReason), true
	}
	return nil, false
}

func enumValueField(ev *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return optionalString(ev.Description), true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(ev.IsDeprecated, ev.DeprecationReason), true
	}
	return nil, false
}

func (r *resolver) directiveField(d *schema.Directive, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return optionalString(d.Description), true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		locs := make([]string, len(d.Locations))
		copy(locs, d.Locations)
		return locs, true
	case "args":
		return inputValues(d.Arguments, args), true
	}
	return nil, false
}

func (r *resolver) namedTypes(names []string) []*schema.Type {
	out := []*schema.Type{}
	for _, name := range names {
		if def := r.schema.Types[name]; def != nil {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedTypes(sch *schema.Schema) []*schema.Type {
	out := make([]*schema.Type, 0, len(sch.Types))
	for _, t := range sch.Types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedDirectives(sch *schema.Schema) []*schema.Directive {
	out := make([]*schema.Directive, 0, len(sch.Directives))
	for _, d := range sch.Directives {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func inputValues(values []*schema.InputValue, args map[string]any) []*schema.InputValue {
	out := []*schema.InputValue{}
	for _, v := range values {
		if v.IsDeprecated && !boolArg(args, "includeDeprecated") {
			continue
		}
		out = append(out, v)
	}
	return out
}

func nilIfAbsent(t *schema.Type) any {
	if t == nil {
		return nil
	}
	return t
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}

// printValue renders a default value in GraphQL literal syntax.
func printValue(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = printValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + printValue(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}
