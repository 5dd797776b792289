package executor

import (
	"context"
	"fmt"
	"reflect"

	schema "github.com/hanpama/gqltrace/internal/schema"
)

// Runtime defines the host integration surface the Executor cannot derive
// from field resolvers: abstract type resolution and leaf-value serialization.
//
// General contract
//   - Errors returned from any method are converted into located GraphQL errors.
//     If the field's return type is Non-Null, the Executor will propagate the
//     null up to the nearest nullable ancestor.
//   - Implementations should be stateless or otherwise concurrency-safe. The
//     Executor may call these methods concurrently for different operations.
//   - Implementations must not mutate the values passed to them.
//
// Abstract types and leaf values
//   - ResolveType must return the concrete type name for interface/union values.
//   - SerializeLeafValue must coerce/serialize scalars and enums into JSON-safe
//     Go values (string, float64, int, bool, etc.). For enums, return the enum
//     name as string.
type Runtime interface {
	// ResolveType determines the concrete runtime type name for a value of an
	// abstract GraphQL type (interface or union).
	//
	// Must return a type name that is a possible type of the abstractType in the
	// provided schema; otherwise return an error.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue serializes a scalar or enum value to a JSON-safe Go
	// value according to the GraphQL schema and custom scalar mappings.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// FieldResolver is an optional Runtime extension. When the Runtime passed to
// NewExecutor implements it, ResolveField replaces DefaultFieldResolver for
// fields without a resolver of their own.
type FieldResolver interface {
	ResolveField(p schema.ResolveParams) (any, error)
}

// TypeNamer is implemented by values that know their GraphQL object type.
type TypeNamer interface {
	GraphQLTypeName() string
}

// DefaultRuntime resolves abstract types from a "__typename" map entry, a
// TypeNamer implementation or the Go type name, and serializes the built-in
// scalars with the same coercion rules used for input values. Custom scalars
// and enums are passed through.
type DefaultRuntime struct {
	Schema *schema.Schema
}

func NewDefaultRuntime(sch *schema.Schema) *DefaultRuntime {
	return &DefaultRuntime{Schema: sch}
}

func (r *DefaultRuntime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	var name string
	switch v := value.(type) {
	case map[string]any:
		name, _ = v["__typename"].(string)
	case TypeNamer:
		name = v.GraphQLTypeName()
	default:
		rt := reflect.TypeOf(value)
		for rt != nil && rt.Kind() == reflect.Ptr {
			rt = rt.Elem()
		}
		if rt != nil {
			name = rt.Name()
		}
	}
	if name == "" {
		return "", fmt.Errorf("cannot resolve concrete type of %s for %T", abstractType, value)
	}
	if r.Schema != nil {
		if t := r.Schema.Types[abstractType]; t != nil && !containsString(t.PossibleTypes, name) {
			return "", fmt.Errorf("type %s is not a possible type of %s", name, abstractType)
		}
	}
	return name, nil
}

func (r *DefaultRuntime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	switch typeName {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	}
	if r.Schema != nil {
		if t := r.Schema.Types[typeName]; t != nil && t.Kind == schema.TypeKindEnum {
			name := fmt.Sprint(value)
			for _, ev := range t.EnumValues {
				if ev.Name == name {
					return name, nil
				}
			}
			return nil, fmt.Errorf("enum %s has no value %q", typeName, name)
		}
	}
	return value, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
