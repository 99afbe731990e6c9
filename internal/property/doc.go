// Package property implements the ordered property source model used by
// the configuration client.
//
// A Source is a named collection of string key-value pairs. Sources are
// arranged in an ordered chain (Sources) where the first source that
// knows a key wins. A Composite merges several sources into one chain
// member so that a whole group of remote namespaces occupies a single
// precedence slot.
//
// # Lookup
//
//	chain := property.NewSources()
//	chain.AddFirst(property.NewMapSource("overrides", map[string]string{"a": "1"}))
//	chain.AddLast(property.NewSystemEnvSource())
//	value, ok := chain.Property("a")
//
// # Placeholder resolution
//
// Strings may reference chain values with ${key} or ${key:-default}
// syntax. ResolveRequiredPlaceholders fails on an unresolvable
// reference; ResolvePlaceholders leaves it verbatim.
package property
