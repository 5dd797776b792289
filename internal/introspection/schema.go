package introspection

import (
	schema "github.com/hanpama/gqltrace/internal/schema"
)

// Extend returns a copy of sch that answers introspection queries. The query
// type gains __schema and __type, and the __Schema family of types resolve
// against the returned schema. sch itself is not modified.
func Extend(sch *schema.Schema) *schema.Schema {
	extended := &schema.Schema{
		QueryType:        sch.QueryType,
		MutationType:     sch.MutationType,
		SubscriptionType: sch.SubscriptionType,
		Types:            make(map[string]*schema.Type, len(sch.Types)+8),
		Directives:       sch.Directives,
		Description:      sch.Description,
		AST:              sch.AST,
	}
	for name, typ := range sch.Types {
		extended.Types[name] = typ
	}

	r := &resolver{schema: extended}
	for _, t := range metaTypes() {
		for _, f := range t.Fields {
			f.Resolve = r.resolveMeta
		}
		t.BuiltIn = true
		extended.Types[t.Name] = t
	}

	if q := sch.GetQueryType(); q != nil {
		qc := *q
		qc.Fields = make([]*schema.Field, 0, len(q.Fields)+2)
		for _, f := range q.Fields {
			if f.Name != "__schema" && f.Name != "__type" {
				qc.Fields = append(qc.Fields, f)
			}
		}
		qc.Fields = append(qc.Fields,
			schema.NewField("__schema", "Access the current type schema of this server.",
				schema.NonNullType(schema.NamedType("__Schema"))).
				SetResolve(r.resolveSchema),
			schema.NewField("__type", "Request the type information of a single type.",
				schema.NamedType("__Type")).
				AddArgument(schema.NewInputValue("name", "The name of the type to look up.",
					schema.NonNullType(schema.NamedType("String")))).
				SetResolve(r.resolveType),
		)
		extended.Types[qc.Name] = &qc
	}
	return extended
}

func metaTypes() []*schema.Type {
	return []*schema.Type{
		schemaType(),
		typeType(),
		fieldType(),
		inputValueType(),
		enumValueType(),
		directiveType(),
		typeKindEnum(),
		directiveLocationEnum(),
	}
}

func includeDeprecated() *schema.InputValue {
	return schema.NewInputValue("includeDeprecated", "", schema.NamedType("Boolean")).SetDefault(false)
}

func listOf(name string) *schema.TypeRef {
	return schema.ListType(schema.NonNullType(schema.NamedType(name)))
}

func nonNull(name string) *schema.TypeRef {
	return schema.NonNullType(schema.NamedType(name))
}

func schemaType() *schema.Type {
	t := schema.NewType("__Schema", schema.TypeKindObject,
		"A GraphQL Schema defines the capabilities of a GraphQL server.")
	t.Fields = schema.NewFieldMap(
		schema.NewField("description", "", schema.NamedType("String")),
		schema.NewField("types", "A list of all types supported by this server.", schema.NonNullType(listOf("__Type"))),
		schema.NewField("queryType", "The type that query operations will be rooted at.", nonNull("__Type")),
		schema.NewField("mutationType", "If this server supports mutation, the type that mutation operations will be rooted at.", schema.NamedType("__Type")),
		schema.NewField("subscriptionType", "If this server support subscription, the type that subscription operations will be rooted at.", schema.NamedType("__Type")),
		schema.NewField("directives", "A list of all directives supported by this server.", schema.NonNullType(listOf("__Directive"))),
	)
	return t
}

func typeType() *schema.Type {
	t := schema.NewType("__Type", schema.TypeKindObject,
		"The fundamental unit of any GraphQL Schema is the type.")
	t.Fields = schema.NewFieldMap(
		schema.NewField("kind", "", nonNull("__TypeKind")),
		schema.NewField("name", "", schema.NamedType("String")),
		schema.NewField("description", "", schema.NamedType("String")),
		schema.NewField("specifiedByURL", "", schema.NamedType("String")),
		schema.NewField("fields", "", listOf("__Field")).AddArgument(includeDeprecated()),
		schema.NewField("interfaces", "", listOf("__Type")),
		schema.NewField("possibleTypes", "", listOf("__Type")),
		schema.NewField("enumValues", "", listOf("__EnumValue")).AddArgument(includeDeprecated()),
		schema.NewField("inputFields", "", listOf("__InputValue")).AddArgument(includeDeprecated()),
		schema.NewField("ofType", "", schema.NamedType("__Type")),
		schema.NewField("isOneOf", "", schema.NamedType("Boolean")),
	)
	return t
}

func fieldType() *schema.Type {
	t := schema.NewType("__Field", schema.TypeKindObject, "")
	t.Fields = schema.NewFieldMap(
		schema.NewField("name", "", nonNull("String")),
		schema.NewField("description", "", schema.NamedType("String")),
		schema.NewField("args", "", schema.NonNullType(listOf("__InputValue"))).AddArgument(includeDeprecated()),
		schema.NewField("type", "", nonNull("__Type")),
		schema.NewField("isDeprecated", "", nonNull("Boolean")),
		schema.NewField("deprecationReason", "", schema.NamedType("String")),
	)
	return t
}

func inputValueType() *schema.Type {
	t := schema.NewType("__InputValue", schema.TypeKindObject, "")
	t.Fields = schema.NewFieldMap(
		schema.NewField("name", "", nonNull("String")),
		schema.NewField("description", "", schema.NamedType("String")),
		schema.NewField("type", "", nonNull("__Type")),
		schema.NewField("defaultValue", "", schema.NamedType("String")),
		schema.NewField("isDeprecated", "", nonNull("Boolean")),
		schema.NewField("deprecationReason", "", schema.NamedType("String")),
	)
	return t
}

func enumValueType() *schema.Type {
	t := schema.NewType("__EnumValue", schema.TypeKindObject, "")
	t.Fields = schema.NewFieldMap(
		schema.NewField("name", "", nonNull("String")),
		schema.NewField("description", "", schema.NamedType("String")),
		schema.NewField("isDeprecated", "", nonNull("Boolean")),
		schema.NewField("deprecationReason", "", schema.NamedType("String")),
	)
	return t
}

func directiveType() *schema.Type {
	t := schema.NewType("__Directive", schema.TypeKindObject, "")
	t.Fields = schema.NewFieldMap(
		schema.NewField("name", "", nonNull("String")),
		schema.NewField("description", "", schema.NamedType("String")),
		schema.NewField("isRepeatable", "", nonNull("Boolean")),
		schema.NewField("locations", "", schema.NonNullType(listOf("__DirectiveLocation"))),
		schema.NewField("args", "", schema.NonNullType(listOf("__InputValue"))).AddArgument(includeDeprecated()),
	)
	return t
}

func enumType(name string, values ...string) *schema.Type {
	t := schema.NewType(name, schema.TypeKindEnum, "")
	for _, v := range values {
		t.AddEnumValue(schema.NewEnumValue(v, ""))
	}
	return t
}

func typeKindEnum() *schema.Type {
	return enumType("__TypeKind",
		"SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL")
}

func directiveLocationEnum() *schema.Type {
	return enumType("__DirectiveLocation",
		"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
		"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
		"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT",
		"INPUT_FIELD_DEFINITION")
}
