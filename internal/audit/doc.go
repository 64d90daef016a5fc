// Package audit implements async event dispatching for authentication task
// outcomes.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, zap, no-op).
//   - [Dispatcher]: buffered async relay that drops when full or waits a bounded time.
//   - [Event]: structured audit record with timestamp, type, account, task and metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit. That responsibility belongs to the Engine and its tasks.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import yggauth or any sibling internal package.
//   - Carry secret token material in events.
package audit
