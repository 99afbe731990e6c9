// Package compose implements the namespace-ordered property source
// composition and live-update engine.
//
// Declaration sites register (priority, namespace) pairs on an Engine.
// Container initialization then composes every registered namespace
// into one ordered composite source, splices it into the target
// environment's property source chain at a policy-determined position,
// and wires change listeners that republish remote notifications as
// generic change events.
//
//	engine := compose.NewEngine(client, compose.WithLogger(logger))
//	engine.Register([]string{"db", "app"}, 0)
//	err := engine.OnContainerInit("main", chain, func(c remote.Change) {
//	    // handle live update
//	})
//
// A structurally identical bootstrap pass (OnBootstrapInit,
// PostProcessEnvironment) can run earlier with its own flag-driven
// namespace list; the main pass detects its composite by name and
// inserts itself immediately after it.
//
// Precedence rules: ascending numeric priority composes first, so a
// lower priority number means higher lookup precedence; within one
// priority, registration order is preserved.
package compose
