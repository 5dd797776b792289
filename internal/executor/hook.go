package executor

import (
	"context"

	language "github.com/hanpama/gqltrace/internal/language"
)

// ExecutionRequest is one operation to execute.
type ExecutionRequest struct {
	Document      *language.QueryDocument
	Source        string // query text; recovered from Document positions when empty
	OperationName string
	Variables     map[string]any
	RootValue     any

	// Operation is selected by the Executor before hooks run. It is nil when
	// no operation matches OperationName.
	Operation *language.OperationDefinition
}

// ExecutionHook observes whole executions. BeginExecution returns the context
// resolvers will receive and an optional callback invoked with the final
// result.
type ExecutionHook interface {
	BeginExecution(ctx context.Context, req *ExecutionRequest) (context.Context, func(*ExecutionResult))
}

// ExecutionHookFunc adapts a function to ExecutionHook.
type ExecutionHookFunc func(ctx context.Context, req *ExecutionRequest) (context.Context, func(*ExecutionResult))

func (f ExecutionHookFunc) BeginExecution(ctx context.Context, req *ExecutionRequest) (context.Context, func(*ExecutionResult)) {
	return f(ctx, req)
}
