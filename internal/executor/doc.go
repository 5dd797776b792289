// Package executor implements a breadth-first GraphQL executor that invokes
// per-field resolvers, completes deferred resolver results depth by depth, and
// delegates abstract-type resolution and leaf serialization to a Runtime.
//
// # Overview
//
// The executor follows a level-by-level (BFS) execution model designed to:
//   - Expand fields whose resolvers return plain values immediately without
//     adding depth.
//   - Queue fields whose resolvers return a *schema.Deferred and complete them
//     once they settle, at the flush that ends the current depth.
//   - Complete values according to the GraphQL specification (lists, leafs,
//     objects, abstract types), including Non-Null null-propagation rules.
//   - Accumulate located errors while allowing partial success.
//
// # Preparation
//
// Before execution, the executor:
//  1. Chooses the operation (by name or by uniqueness when unnamed).
//  2. Runs the registered ExecutionHooks, which may replace the context passed
//     to every resolver and observe the final result.
//  3. Coerces variables from the provided input against operation variable
//     definitions, producing a variableValues map. Errors here stop execution.
//  4. Determines the root object type from the operation (Query/Mutation/Subscription)
//     and collects the root selection set.
//
// # Resolvers
//
// Each field instance is resolved by its schema.Field.Resolve function, or by
// the default resolver when the field has none. The default resolver is
// DefaultFieldResolver unless replaced with WithDefaultResolver or supplied by
// a Runtime implementing FieldResolver. Resolvers receive schema.ResolveParams:
// the context returned by the hooks, the parent value, coerced arguments, and
// a ResolveInfo carrying the field nodes, the declared return type and the
// response path as a leaf-to-root linked list (aliases as keys, list indices
// as ints).
//
// BFS Loop (per depth)
//
//	A. Expansion
//	   - For each field in the current selection set, compute argument values and
//	     call its resolver.
//	   - A plain result is completed immediately. If it is an object, its
//	     subfields are collected and expanded in the same pass.
//	   - A *schema.Deferred result is queued in the current depth's pending set.
//
//	B. Flush
//	   - Wait for every queued deferred value (after filtering out any paths
//	     nullified by prior Non-Null violations). Values may settle on other
//	     goroutines in any order; waiting honors context cancellation.
//	   - Each settled value is completed and written at its response path.
//	     Deferred values found while completing are queued for the next flush.
//
//	C. Non-Null propagation and pruning
//	   - A Non-Null violation at path p sets the nearest nullable ancestor to
//	     null and marks that ancestor path as a tombstone. Any queued fields
//	     under that path are dropped. Errors are recorded as located errors.
//
// # Value Completion
//
//   - Non-Null: unwrap and complete the inner type. If the inner completion
//     produced null, record a Non-Null violation and propagate null upwards.
//   - Null: nil results produce GraphQL null.
//   - List: complete each element recursively with index-aware paths. A null
//     element for a Non-Null inner type nullifies the entire list value.
//   - Leaf (Scalar/Enum): defer to Runtime.SerializeLeafValue.
//   - Abstract (Interface/Union): defer to Runtime.ResolveType to determine the
//     concrete object type, validate it against the schema, then complete as an
//     object.
//   - Object: collect subfields, honoring fragment type conditions on the
//     object type, its interfaces and unions containing it.
//
// # Errors and Partial Success
//
// Errors are accumulated as located GraphQL errors (message + path). For a
// Non-Null field, a null result or error triggers propagation to the nearest
// nullable ancestor; otherwise, the field value is set to null and execution
// continues. Panics raised by resolvers are not recovered.
package executor
