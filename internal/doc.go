// Package internal contains helper utilities that are intentionally private to
// yggauth: client-token and task-id generation.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators for every task kind
//   - metrics: lock-free counters and a task latency histogram
//
// # What this package must NOT do
//
//   - Export types that appear in the public yggauth API.
//   - Be imported by any package outside the yggauth module.
package internal
