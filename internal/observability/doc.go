// Package observability provides logging and metrics functionality for
// the configuration client.
//
// # Logging
//
// The Logger interface wraps zap with a small field vocabulary shared by
// all packages:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    panic(err)
//	}
//	logger.Info("composed property sources",
//	    observability.Int("namespaces", 3),
//	)
//
// # Deferred logging
//
// During eager bootstrap the client may run before the application's
// logging system is configured. DeferredLogger buffers records until
// ReplayTo is called with the real logger:
//
//	deferred := observability.NewDeferredLogger()
//	// ... bootstrap work logs through deferred ...
//	deferred.ReplayTo(logger)
//
// # Metrics
//
// Metrics exposes Prometheus counters for composition passes, loaded
// namespaces, and change events.
package observability
