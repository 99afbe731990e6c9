package compose

// Composite source names. The main pass detects a bootstrap-phase
// composite by name and orders itself after it.
const (
	// PropertySourceName is the chain name of the main composite.
	PropertySourceName = "AvConfigPropertySources"
	// BootstrapPropertySourceName is the chain name of the bootstrap
	// composite.
	BootstrapPropertySourceName = "AvConfigBootstrapPropertySources"
)

// DefaultNamespace is the namespace loaded by the bootstrap pass when
// none are configured.
const DefaultNamespace = "application"

// Configuration flag keys, consumed from the ambient property chain.
const (
	// BootstrapEnabledKey enables the bootstrap composition pass.
	BootstrapEnabledKey = "avconfig.bootstrap.enabled"
	// BootstrapNamespacesKey is a comma-separated namespace list for the
	// bootstrap pass.
	BootstrapNamespacesKey = "avconfig.bootstrap.namespaces"
	// BootstrapEagerLoadKey runs the bootstrap pass before logging
	// setup.
	BootstrapEagerLoadKey = "avconfig.bootstrap.eagerLoad.enabled"
	// OverrideSystemPropertiesKey controls whether remote values outrank
	// the system environment source.
	OverrideSystemPropertiesKey = "avconfig.overrideSystemProperties"
	// PropertyNamesCacheKey selects the key-caching composite variant.
	PropertyNamesCacheKey = "avconfig.propertyNamesCache.enabled"
)

// systemPropertyKeys are copied from the ambient chain into the process
// environment during bootstrap when not already set there.
var systemPropertyKeys = []string{
	"avconfig.cluster",
	"avconfig.cacheDir",
	"avconfig.accessKey.secret",
	"avconfig.meta",
	OverrideSystemPropertiesKey,
	PropertyNamesCacheKey,
}
