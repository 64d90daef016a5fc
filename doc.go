// Package yggauth holds the authentication state of Yggdrasil (Mojang-style)
// game accounts: credential tokens, game profiles, the current profile
// selection and a derived verification status.
//
// Accounts are changed only through explicit setters and through
// asynchronous authentication tasks (login, validate, refresh, logout) that
// run against a remote token-issuing server. At most one task owns an
// account at a time; a task writes its result back into the account when it
// completes and never keeps the account alive on its own.
//
// # Architecture boundaries
//
// yggauth is the public surface. It exposes [Engine], [Builder], [Config],
// [Account], [Task] and value types. Remote calls go through the yggdrasil
// package; flow orchestration, audit dispatch and metric storage live under
// internal/; persistence formats live in document and the Redis store in
// store.
//
// # What this package must NOT do
//
//   - Log or audit secret token values.
//   - Let a task mutate an account it does not currently own.
//   - Import any sub-package that re-imports yggauth (no import cycles).
package yggauth
