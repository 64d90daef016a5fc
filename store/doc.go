// Package store persists account documents in Redis.
//
// Each account is one string key holding an encoded document.Document, keyed
// by login username, plus a set indexing every stored login. Reading a
// document written in an older layout rewrites it in the current layout
// without touching its TTL.
//
// # Architecture boundaries
//
// The store knows documents, not accounts. Converting between the two is the
// Engine's job.
package store
