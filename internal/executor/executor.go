package executor

import (
	"context"
	"fmt"
	"reflect"

	language "github.com/hanpama/gqltrace/internal/language"
	schema "github.com/hanpama/gqltrace/internal/schema"
)

type Path []PathElement

type PathElement any

// executionState holds the state during query execution
type executionState struct {
	runtime         Runtime
	schema          *schema.Schema
	document        *language.QueryDocument
	operation       *language.OperationDefinition
	variableValues  map[string]any
	context         context.Context
	defaultResolver schema.FieldResolveFn
	pending         []pendingField
	errors          []GraphQLError
	// prefixes of paths that have been nullified (tombstoned)
	nullifiedPrefix map[string]struct{}
}

// pendingField is a field whose resolver returned a *schema.Deferred. It is
// completed at the next flush once the deferred value settles.
type pendingField struct {
	Deferred     *schema.Deferred
	ResponsePath Path
	FieldType    *schema.TypeRef
	Fields       []*language.Field
}

type settledField struct {
	Value any
	Error error
}

type asyncPending struct{}

type Executor struct {
	runtime         Runtime
	schema          *schema.Schema
	hooks           []ExecutionHook
	defaultResolver schema.FieldResolveFn
}

// Option configures an Executor.
type Option func(*Executor)

// WithHook registers h to observe every request. Hooks begin in registration
// order and finish in reverse order.
func WithHook(h ExecutionHook) Option {
	return func(e *Executor) { e.hooks = append(e.hooks, h) }
}

// WithDefaultResolver replaces DefaultFieldResolver for fields that carry no
// resolver of their own.
func WithDefaultResolver(fn schema.FieldResolveFn) Option {
	return func(e *Executor) { e.defaultResolver = fn }
}

func NewExecutor(runtime Runtime, schema *schema.Schema, opts ...Option) *Executor {
	e := &Executor{runtime: runtime, schema: schema, defaultResolver: DefaultFieldResolver}
	if fr, ok := runtime.(FieldResolver); ok {
		e.defaultResolver = fr.ResolveField
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteRequest executes document without a registered source text.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	return e.Execute(ctx, &ExecutionRequest{
		Document:      document,
		OperationName: operationName,
		Variables:     variableValues,
		RootValue:     initialValue,
	})
}

// Execute runs req through the registered hooks and the BFS loop.
func (e *Executor) Execute(ctx context.Context, req *ExecutionRequest) (result *ExecutionResult) {
	req.Operation = getOperation(req.Document, req.OperationName)
	if req.Source == "" {
		req.Source = documentSource(req.Document)
	}
	for _, h := range e.hooks {
		var finish func(*ExecutionResult)
		ctx, finish = h.BeginExecution(ctx, req)
		if finish != nil {
			defer func() { finish(result) }()
		}
	}
	return e.execute(ctx, req)
}

func (e *Executor) execute(ctx context.Context, req *ExecutionRequest) *ExecutionResult {
	operation := req.Operation
	if operation == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}
	}

	coercedVariableValues, err := coerceVariableValues(e.schema, operation, req.Variables)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	case language.Subscription:
		rootType = e.schema.GetSubscriptionType()
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation)}}}
	}

	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("root type not found for %s operation", operation.Operation)}}}
	}

	state := &executionState{
		runtime:         e.runtime,
		schema:          e.schema,
		document:        req.Document,
		operation:       operation,
		variableValues:  coercedVariableValues,
		context:         ctx,
		defaultResolver: e.defaultResolver,
		errors:          []GraphQLError{},
		nullifiedPrefix: make(map[string]struct{}),
	}

	responseRoot := make(map[string]any)

	// Root selection set: plain values complete immediately, deferred ones are queued
	rootResult := executeSelectionSet(state, rootType, operation.SelectionSet, req.RootValue, Path{})
	for k, v := range rootResult {
		responseRoot[k] = v
	}

	// Depth-wise flush loop
	for len(state.pending) > 0 {
		filtered, results := flushPending(state)
		for i, r := range results {
			completePendingField(state, filtered[i], r, responseRoot)
		}
	}

	return &ExecutionResult{Data: responseRoot, Errors: state.errors}
}

// executeSelectionSet executes a selection set without flushing
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path Path) map[string]any {
	groupedFields := collectFields(state, objectType, selectionSet)
	resultMap := make(map[string]any)

	for _, collectedField := range groupedFields.orderedFields() {
		responseName := collectedField.ResponseName
		fields := collectedField.Fields
		fieldPath := appendPath(path, responseName)

		fieldResult := executeFieldGroup(state, objectType, objectValue, fields, fieldPath)

		// Handle __typename special case
		if fields[0].Name == "__typename" {
			resultMap[responseName] = fieldResult
			continue
		}

		fieldDef := getFieldDefinition(objectType, fields[0].Name)
		if fieldDef == nil {
			// Unknown field – error was already recorded in executeFieldGroup; do not include it
			continue
		}

		// Handle non-null child behavior with nullish detection
		if schema.IsNonNull(fieldDef.Type) && isNullish(fieldResult) {
			if len(path) > 0 {
				return nil
			}
			// Root level: keep going but write nil
			resultMap[responseName] = nil
			continue
		}

		// For nullable fields, coerce typed-nil to interface-nil
		if isNullish(fieldResult) {
			resultMap[responseName] = nil
		} else {
			resultMap[responseName] = fieldResult
		}
	}

	return resultMap
}

func executeFieldGroup(state *executionState, objectType *schema.Type, objectValue any, fields []*language.Field, path Path) any {
	field := fields[0]
	fieldName := field.Name

	// Handle __typename meta field
	if fieldName == "__typename" {
		return objectType.Name
	}

	fieldDef := getFieldDefinition(objectType, fieldName)
	if fieldDef == nil {
		state.errors = append(state.errors, GraphQLError{
			Message: fmt.Sprintf("Cannot query field '%s' on type '%s'", fieldName, objectType.Name),
			Path:    path,
		})
		return nil
	}

	argumentValues := coerceArgumentValues(state.schema, fieldDef, field.Arguments, state.variableValues, state, path)

	resolvedValue := resolveField(state, objectType, fieldDef, fields, objectValue, argumentValues, path)
	if d, ok := resolvedValue.(*schema.Deferred); ok && d != nil {
		state.pending = append(state.pending, pendingField{
			Deferred:     d,
			ResponsePath: path,
			FieldType:    fieldDef.Type,
			Fields:       fields,
		})
		return asyncPending{}
	}
	return completeValue(state, fieldDef.Type, fields, resolvedValue, path)
}

// resolveField invokes the field's resolver, or the default resolver when the
// field has none. Errors are recorded at path and yield nil.
func resolveField(state *executionState, objectType *schema.Type, fieldDef *schema.Field, fields []*language.Field, source any, args map[string]any, path Path) any {
	resolve := fieldDef.Resolve
	if resolve == nil {
		resolve = state.defaultResolver
	}
	value, err := resolve(schema.ResolveParams{
		Context: state.context,
		Source:  source,
		Args:    args,
		Info: schema.ResolveInfo{
			FieldName:  fieldDef.Name,
			FieldNodes: fields,
			ReturnType: fieldDef.Type,
			ParentType: objectType,
			Path:       responsePath(path),
			Operation:  state.operation,
			Document:   state.document,
			Schema:     state.schema,
		},
	})
	if err != nil {
		state.addError(err.Error(), path)
		return nil
	}
	return value
}

// flushPending waits for every queued deferred value of the current depth,
// skipping those under nullified paths.
func flushPending(state *executionState) ([]pendingField, []settledField) {
	filtered := make([]pendingField, 0, len(state.pending))
	for _, pf := range state.pending {
		if state.hasNullifiedPrefix(pf.ResponsePath) {
			continue
		}
		filtered = append(filtered, pf)
	}

	// Clear group before waiting; completions queue the next depth
	state.pending = nil

	results := make([]settledField, len(filtered))
	for i, pf := range filtered {
		v, err := pf.Deferred.Await(state.context)
		results[i] = settledField{Value: v, Error: err}
	}
	return filtered, results
}

// completePendingField completes a single settled value, with non-null propagation and pruning
func completePendingField(state *executionState, pf pendingField, res settledField, responseRoot map[string]any) {
	path := pf.ResponsePath
	// If this path is already nullified by an ancestor, ignore
	if state.hasNullifiedPrefix(path) {
		return
	}

	// Handle error case first
	if res.Error != nil {
		state.errors = append(state.errors, GraphQLError{Message: res.Error.Error(), Path: path})
		// If non-null field, propagate to top-level field
		if schema.IsNonNull(pf.FieldType) {
			top := topLevelFieldPath(path)
			setValueAtPath(responseRoot, top, nil)
			state.markNullifiedPrefix(top)
			return
		}
		setValueAtPath(responseRoot, path, nil)
		return
	}

	completed := completeValue(state, pf.FieldType, pf.Fields, res.Value, path)

	// If non-null type but completion yielded nullish → propagate
	if schema.IsNonNull(pf.FieldType) && isNullish(completed) {
		top := topLevelFieldPath(path)
		setValueAtPath(responseRoot, top, nil)
		state.markNullifiedPrefix(top)
		return
	}

	// Normal write; coerce typed-nil to interface nil
	if isNullish(completed) {
		setValueAtPath(responseRoot, path, nil)
	} else {
		setValueAtPath(responseRoot, path, completed)
	}
}

// completeValue completes a value
func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.errors = append(state.errors, GraphQLError{Message: fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), Path: path})
			}
			return nil
		}
		inner := schema.Unwrap(fieldType)
		completed := completeValue(state, inner, fields, result, path)
		if isNullish(completed) {
			// Error already recorded at original path; propagate only
			return nil
		}
		return completed
	}

	if isNullish(result) {
		return nil
	}

	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path)
	}
	namedType := schema.GetNamedType(fieldType)
	typeObj := state.schema.Types[namedType]
	if typeObj == nil {
		state.errors = append(state.errors, GraphQLError{Message: fmt.Sprintf("Unknown type: %s", namedType), Path: path})
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := state.runtime.SerializeLeafValue(state.context, namedType, result)
		if err != nil {
			state.errors = append(state.errors, GraphQLError{Message: err.Error(), Path: path})
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		return completeObjectValue(state, typeObj, fields, result, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return completeAbstractValue(state, namedType, fields, result, path)
	default:
		state.errors = append(state.errors, GraphQLError{Message: fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), Path: path})
		return nil
	}
}

// completeListValue completes a list value
func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			state.errors = append(state.errors, GraphQLError{Message: fmt.Sprintf("Expected list value, got %T", result), Path: path})
			return nil
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		p := appendPath(path, i)
		v := completeValue(state, inner, fields, item, p)
		if schema.IsNonNull(inner) && isNullish(v) {
			// Propagate null to the list field; error already recorded by inner completion
			return nil
		}
		completed[i] = v
	}
	return completed
}

func completeObjectValue(state *executionState, objectType *schema.Type, fields []*language.Field, result any, path Path) any {
	sub := mergeSelectionSets(fields)
	return executeSelectionSet(state, objectType, sub, result, path)
}

func completeAbstractValue(state *executionState, abstractTypeName string, fields []*language.Field, result any, path Path) any {
	typeName, err := state.runtime.ResolveType(state.context, abstractTypeName, result)
	if err != nil {
		state.addError(err.Error(), path)
		return nil
	}
	objectType := state.schema.Types[typeName]
	if objectType == nil || objectType.Kind != schema.TypeKindObject {
		state.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstractTypeName, typeName), path)
		return nil
	}
	return completeObjectValue(state, objectType, fields, result, path)
}

func pathToString(path Path) string {
	result := ""
	for i, elem := range path {
		if i > 0 {
			result += "."
		}
		switch v := elem.(type) {
		case string:
			result += v
		case int:
			result += fmt.Sprintf("[%d]", v)
		}
	}
	return result
}

func appendPath(path Path, elem PathElement) Path {
	newPath := make(Path, len(path)+1)
	copy(newPath, path)
	newPath[len(path)] = elem
	return newPath
}

// responsePath links path into the leaf-to-root form handed to resolvers.
func responsePath(path Path) *schema.ResponsePath {
	var p *schema.ResponsePath
	for _, elem := range path {
		p = p.WithKey(elem)
	}
	return p
}

// Prefix tombstone helpers
func (s *executionState) markNullifiedPrefix(p Path) {
	key := pathToString(p)
	if key != "" {
		s.nullifiedPrefix[key] = struct{}{}
	}
}

func (s *executionState) hasNullifiedPrefix(p Path) bool {
	if len(s.nullifiedPrefix) == 0 {
		return false
	}
	// Build prefixes progressively
	cur := Path{}
	for _, elem := range p {
		cur = append(cur, elem)
		key := pathToString(cur)
		if _, ok := s.nullifiedPrefix[key]; ok {
			return true
		}
	}
	return false
}

func topLevelFieldPath(p Path) Path {
	for _, elem := range p {
		if name, ok := elem.(string); ok {
			return Path{name}
		}
	}
	return Path{}
}

// getOperation retrieves the operation from the document
func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if document == nil {
		return nil
	}
	if operationName == "" && len(document.Operations) == 1 {
		return document.Operations[0]
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op
		}
	}
	return nil
}

// documentSource recovers the text a parsed document was read from.
func documentSource(document *language.QueryDocument) string {
	if document == nil {
		return ""
	}
	for _, op := range document.Operations {
		if op.Position != nil && op.Position.Src != nil {
			return op.Position.Src.Input
		}
	}
	for _, f := range document.Fragments {
		if f.Position != nil && f.Position.Src != nil {
			return f.Position.Src.Input
		}
	}
	return ""
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}

// Helper function to add an error to the execution state
func (state *executionState) addError(message string, path Path) {
	state.errors = append(state.errors, GraphQLError{Message: message, Path: path})
}

// hasErrorAtPath reports whether an error with the given path already exists.
func (state *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range state.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// Helper function to set value at a specific path in response tree
func setValueAtPath(responseRoot map[string]any, path Path, value any) {
	if len(path) == 0 {
		return
	}
	current := any(responseRoot)
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return
			}
			next, exists := m[e]
			if !exists {
				next = make(map[string]any)
				m[e] = next
			}
			current = next
		case int:
			slice, ok := current.([]any)
			if !ok || e >= len(slice) {
				return
			}
			if slice[e] == nil {
				slice[e] = make(map[string]any)
			}
			current = slice[e]
		}
	}
	switch fe := path[len(path)-1].(type) {
	case string:
		if m, ok := current.(map[string]any); ok {
			m[fe] = value
		}
	case int:
		if slice, ok := current.([]any); ok && fe < len(slice) {
			slice[fe] = value
		}
	}
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
