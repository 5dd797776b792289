package instrument

// Span names.
const (
	SpanExecute  = "graphql.execute"
	SpanParse    = "graphql.parse"
	SpanValidate = "graphql.validate"
	SpanResolve  = "graphql.resolve"
)

// Attribute keys.
const (
	AttrFieldName     = "graphql.field.name"
	AttrFieldPath     = "graphql.field.path"
	AttrFieldType     = "graphql.field.type"
	AttrSource        = "graphql.source"
	AttrOperationName = "graphql.operation.name"
	AttrOperationType = "graphql.operation.type"
	AttrErrorCount    = "graphql.error.count"
)
