// Package consul implements a remote configuration client backed by
// the Consul KV store.
//
// Each namespace maps to the KV prefix <prefix>/<namespace>/; keys
// below the prefix become dotted property names. A blocking-query
// watch goroutine per namespace converts KV writes into change
// notifications.
package consul
