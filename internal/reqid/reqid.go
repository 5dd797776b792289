package reqid

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// key is the context key for the request ID.
type key struct{}

// NewContext returns a copy of parent carrying a new request ID, along with
// the ID. IDs sort by creation time.
func NewContext(parent context.Context) (context.Context, ulid.ULID) {
	id := ulid.Make()
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (ulid.ULID, bool) {
	id, ok := ctx.Value(key{}).(ulid.ULID)
	return id, ok
}
