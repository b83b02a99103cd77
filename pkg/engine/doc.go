// Package engine is an in-process continuous-query engine.
//
// A query is a list of statements. Ingest statements declare streams fed by external sources,
// derive statements declare streams computed from other streams, and subscribe statements hand
// the latest events of their inputs to external sinks. Statements only read streams declared
// before them, so the list is always in dependency order.
//
// Every statement runs in its own goroutine once the engine is started. Streams fan out to one
// buffered channel per reading input. When a source is exhausted its stream is closed, and
// closing propagates downstream until every statement has drained.
package engine
