package instrument

import (
	"fmt"
	"strconv"

	schema "github.com/hanpama/gqltrace/internal/schema"
)

// itemWildcard replaces list indices when list items are merged.
const itemWildcard = "*"

// normalizePath returns the segments of p from root to leaf. List indices
// become itemWildcard when mergeItems is set.
func normalizePath(p *schema.ResponsePath, mergeItems bool) []string {
	keys := p.AsArray()
	out := make([]string, len(keys))
	for i, k := range keys {
		switch v := k.(type) {
		case string:
			out[i] = v
		case int:
			if mergeItems {
				out[i] = itemWildcard
			} else {
				out[i] = strconv.Itoa(v)
			}
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

// fieldDepth counts the field segments of p.
func fieldDepth(p *schema.ResponsePath) int {
	n := 0
	for cur := p; cur != nil; cur = cur.Prev {
		if _, ok := cur.Key.(string); ok {
			n++
		}
	}
	return n
}
