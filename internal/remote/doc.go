// Package remote defines the remote configuration collaborator contract
// consumed by the composition engine, together with built-in clients.
//
// A Client resolves a namespace into a Config handle. A Config exposes
// the namespace's current key-value pairs and accepts change listeners
// that fire once per remote notification. Retry, caching, and transport
// concerns live inside the client implementations; the composition
// engine only calls GetConfig and AddChangeListener.
//
// Three clients are provided:
//
//   - MemoryClient: in-process values, mutated programmatically. Used by
//     tests and as the demo default.
//   - FileClient: one <dir>/<namespace>.yaml file per namespace, watched
//     with fsnotify for hot reload.
//   - consul.Client (subpackage): one KV prefix per namespace, watched
//     with blocking queries.
//
// Notification ordering is guaranteed within a namespace only. Listener
// callbacks may run concurrently across namespaces and must not block.
package remote
