package events

import "time"

// GraphQLStart is emitted after a GraphQL document parsed, before it is
// validated and executed.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation. Errors holds
// syntax, validation and execution errors alike.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}
