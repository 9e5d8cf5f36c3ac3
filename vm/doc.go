// Package vm implements a small garbage-collected host runtime that
// speaks the sys.Env protocol.
//
// This package contains:
//   - NaN-boxed value representation
//   - Heap objects (plain objects, arrays, strings, functions, errors,
//     externals with type tags)
//   - Handle scopes backed by a slot stack, with escapable scopes
//   - A mark/sweep collector rooted only in live slots and module
//     namespaces
//   - A worker goroutine that serializes host access, and a periodic
//     collector driven through it
//   - CBOR heap snapshots
//
// The VM is strict where a production engine would crash: a stale Local
// yields StatusInvalidLocal, and fatal errors panic with *sys.FatalError.
package vm
