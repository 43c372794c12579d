// Package core implements the action execution runtime at the heart of
// ActionKit. It defines the foundational abstractions every other package
// builds on:
//
//   - Action (a named, typed, registry-resident unit of invocable logic)
//   - ActionKind (the closed category an action belongs to) and the
//     "/<kind>/<name>" key codec
//   - RunContext (per-invocation ambient state: a key/value context map plus
//     a chunk-emission capability for incremental output)
//   - Registry (process-wide action map with plugin-supplied lazy resolvers)
//   - the structured error types crossing the invocation boundary
//
// Actions are invoked uniformly through Run (await the final result,
// optionally observing chunks via a callback) or Stream (consume chunks as
// they are produced plus a separate handle to the eventual final result),
// regardless of how the wrapped function is written. Ambient context rides on
// context.Context, so it propagates implicitly through nested action calls
// while staying isolated between concurrently outstanding call trees.
package core
