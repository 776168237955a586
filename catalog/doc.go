// Package catalog exposes the knowledge base as a static table of named
// operations with JSON-schema parameter declarations, the shape a
// tool-calling integration consumes.
//
// The table is built once at init and never mutated: the operation
// vocabulary is part of the API, so integrations can enumerate it, render
// the schemas, and rely on names staying stable across calls.
//
// A Dispatcher binds the table to a snapshot manager. Dispatch validates the
// arguments against the operation's schema, resolves the active snapshot,
// runs the handler, and instruments every call with an OpenTelemetry span
// and counters.
package catalog
