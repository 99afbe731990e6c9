package compose

import "github.com/vyrodovalexey/avconfig/internal/property"

// splice inserts the main composite into the chain. Rules, checked in
// order:
//
//  1. A source with the composite's name already present: no-op.
//  2. A bootstrap composite present: when override-system-properties is
//     on, first re-pin the bootstrap composite to the front (a wrapping
//     layer may have displaced it), then insert immediately after it.
//  3. Override off and a system environment source present: insert
//     immediately after that source.
//  4. Otherwise insert at the front.
func splice(chain *property.Sources, composite property.Source, overrideSystemProperties bool) {
	if chain.Contains(composite.Name()) {
		return
	}

	if chain.Contains(BootstrapPropertySourceName) {
		if overrideSystemProperties {
			chain.EnsureFirst(BootstrapPropertySourceName)
		}
		// AddAfter cannot fail here: the bootstrap source was just
		// observed and chain mutations are serialized on startup.
		_ = chain.AddAfter(BootstrapPropertySourceName, composite)
		return
	}

	spliceBootstrap(chain, composite, overrideSystemProperties)
}

// spliceBootstrap applies rules 3 and 4 only; the bootstrap pass never
// orders itself relative to another composite.
func spliceBootstrap(chain *property.Sources, composite property.Source, overrideSystemProperties bool) {
	if !overrideSystemProperties && chain.Contains(property.SystemEnvironmentName) {
		_ = chain.AddAfter(property.SystemEnvironmentName, composite)
		return
	}
	chain.AddFirst(composite)
}
