// Package flows contains pure-function orchestrators for every authentication
// task kind.
//
// Each flow function (RunLogin, RunValidate, RunRefresh, RunLogout) accepts a
// typed dependency struct and returns a result value without touching account
// state. The root package applies results to an Account on task completion.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the remote authentication server and
// validate what it returns. They do NOT own the remote client, the executor
// or the account; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import yggauth (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through the Remote interface.
package flows
