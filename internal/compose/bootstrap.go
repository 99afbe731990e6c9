package compose

import (
	"os"
	"strings"

	"github.com/vyrodovalexey/avconfig/internal/observability"
	"github.com/vyrodovalexey/avconfig/internal/property"
)

// OnBootstrapInit runs the bootstrap composition pass against chain
// when the bootstrap flag is enabled. It is structurally identical to
// the main pass but uses its own flag-driven namespace list and
// composite name, and runs strictly before the main overlay.
//
// Re-entry (after an eager pass already installed the bootstrap
// composite) replays any deferred log output and, when
// override-system-properties is on, re-pins the bootstrap composite to
// the front of the chain.
func (e *Engine) OnBootstrapInit(chain *property.Sources) error {
	if !chain.BoolProperty(BootstrapEnabledKey, false) {
		e.logger.Debug("bootstrap config is not enabled",
			observability.String("flag", BootstrapEnabledKey),
		)
		return nil
	}
	return e.initializeBootstrap(chain, false)
}

// PostProcessEnvironment is the eager bootstrap trigger. It runs before
// logging setup, so any log output it produces is buffered by the
// deferred logger and replayed when OnBootstrapInit fires later.
//
// It always seeds well-known system properties from the chain first;
// the bootstrap pass itself runs only when both the eager-load and
// bootstrap flags are enabled.
func (e *Engine) PostProcessEnvironment(chain *property.Sources) error {
	e.seedSystemProperties(chain)

	if !chain.BoolProperty(BootstrapEagerLoadKey, false) {
		return nil
	}
	if !chain.BoolProperty(BootstrapEnabledKey, false) {
		return nil
	}

	e.deferredMu.Lock()
	e.deferredEnabled = true
	e.deferredMu.Unlock()

	return e.initializeBootstrap(chain, true)
}

// initializeBootstrap composes the bootstrap namespaces into chain.
func (e *Engine) initializeBootstrap(chain *property.Sources, eager bool) error {
	logger := e.bootstrapLogger()
	override := chain.BoolProperty(OverrideSystemPropertiesKey, true)

	if chain.Contains(BootstrapPropertySourceName) {
		// Already installed by an earlier trigger. Replay whatever the
		// eager pass logged before logging was ready.
		if !eager {
			e.deferred.ReplayTo(e.logger)
		}
		if override {
			chain.EnsureFirst(BootstrapPropertySourceName)
		}
		return nil
	}

	namespaces := splitNamespaces(
		chain.PropertyOrDefault(BootstrapNamespacesKey, DefaultNamespace),
	)
	logger.Debug("bootstrap namespaces",
		observability.Strings("namespaces", namespaces),
	)

	composite, err := e.build(
		BootstrapPropertySourceName,
		chain.BoolProperty(PropertyNamesCacheKey, false),
		namespaces,
	)
	if err != nil {
		return err
	}

	spliceBootstrap(chain, composite, override)

	if e.metrics != nil {
		e.metrics.RecordComposition("bootstrap")
		e.metrics.SetNamespacesLoaded(len(e.factory.allSources()))
	}

	logger.Info("composed bootstrap property sources",
		observability.String("source", BootstrapPropertySourceName),
		observability.Int("namespaces", composite.Size()),
	)
	return nil
}

// bootstrapLogger returns the deferred buffer while the eager path is
// active, the real logger otherwise. Post-replay the buffer forwards
// directly, so routing through it stays correct.
func (e *Engine) bootstrapLogger() observability.Logger {
	e.deferredMu.Lock()
	defer e.deferredMu.Unlock()
	if e.deferredEnabled {
		return e.deferred
	}
	return e.logger
}

// DeferredLogBuffered reports how many bootstrap log records are
// waiting for replay. For tests.
func (e *Engine) DeferredLogBuffered() int {
	return e.deferred.Buffered()
}

// seedSystemProperties copies well-known keys from the chain into the
// process environment when not already set there, mirroring how the
// chain's flags become visible to code that only reads the
// environment.
func (e *Engine) seedSystemProperties(chain *property.Sources) {
	for _, key := range systemPropertyKeys {
		envName := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
		if os.Getenv(envName) != "" {
			continue
		}
		if value, ok := chain.Property(key); ok && value != "" {
			_ = os.Setenv(envName, value)
		}
	}
}

// splitNamespaces splits a comma-separated namespace list, trimming
// whitespace and dropping empty entries.
func splitNamespaces(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
