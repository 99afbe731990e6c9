package remote

import "sync"

// MemoryClient is an in-process Client whose namespaces are mutated
// programmatically. It backs tests and the demo's default mode.
type MemoryClient struct {
	mu      sync.Mutex
	configs map[string]*MemoryConfig
}

// NewMemoryClient creates an empty MemoryClient.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{configs: make(map[string]*MemoryConfig)}
}

// GetConfig returns the namespace's config, creating an empty one on
// first access. It never fails.
func (c *MemoryClient) GetConfig(namespace string) (Config, error) {
	return c.config(namespace), nil
}

// Seed replaces the namespace's values without notifying listeners.
func (c *MemoryClient) Seed(namespace string, values map[string]string) {
	cfg := c.config(namespace)
	cfg.mu.Lock()
	cfg.values = make(map[string]string, len(values))
	for k, v := range values {
		cfg.values[k] = v
	}
	cfg.mu.Unlock()
}

// Config returns the namespace's concrete config for direct mutation.
func (c *MemoryClient) Config(namespace string) *MemoryConfig {
	return c.config(namespace)
}

func (c *MemoryClient) config(namespace string) *MemoryConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg, ok := c.configs[namespace]
	if !ok {
		cfg = &MemoryConfig{
			namespace: namespace,
			values:    make(map[string]string),
		}
		c.configs[namespace] = cfg
	}
	return cfg
}

// MemoryConfig is one in-memory namespace. Mutations notify listeners
// synchronously on the mutating goroutine, preserving per-namespace
// ordering.
type MemoryConfig struct {
	namespace string
	mu        sync.RWMutex
	values    map[string]string
	listeners []ChangeListener
}

// Property returns the value for key.
func (c *MemoryConfig) Property(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// PropertyNames returns all known keys.
func (c *MemoryConfig) PropertyNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.values))
	for k := range c.values {
		names = append(names, k)
	}
	return names
}

// AddChangeListener subscribes listener to future changes.
func (c *MemoryConfig) AddChangeListener(listener ChangeListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// SetProperty stores a value and notifies listeners of the resulting
// change, if any.
func (c *MemoryConfig) SetProperty(key, value string) {
	c.mu.Lock()
	oldValue, existed := c.values[key]
	c.values[key] = value
	listeners := c.snapshotListenersLocked()
	c.mu.Unlock()

	if existed && oldValue == value {
		return
	}

	change := Change{
		Namespace:    c.namespace,
		PropertyName: key,
		NewValue:     value,
		ChangeType:   ChangeAdded,
	}
	if existed {
		change.OldValue = oldValue
		change.ChangeType = ChangeModified
	}
	notify(listeners, change)
}

// DeleteProperty removes a value and notifies listeners.
func (c *MemoryConfig) DeleteProperty(key string) {
	c.mu.Lock()
	oldValue, existed := c.values[key]
	delete(c.values, key)
	listeners := c.snapshotListenersLocked()
	c.mu.Unlock()

	if !existed {
		return
	}
	notify(listeners, Change{
		Namespace:    c.namespace,
		PropertyName: key,
		OldValue:     oldValue,
		ChangeType:   ChangeDeleted,
	})
}

// Replace swaps the full value set and notifies listeners of every
// resulting change in deterministic order.
func (c *MemoryConfig) Replace(values map[string]string) {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}

	c.mu.Lock()
	changes := Diff(c.namespace, c.values, copied)
	c.values = copied
	listeners := c.snapshotListenersLocked()
	c.mu.Unlock()

	for _, change := range changes {
		notify(listeners, change)
	}
}

// snapshotListenersLocked copies the listener slice so callbacks run
// without holding the config lock.
func (c *MemoryConfig) snapshotListenersLocked() []ChangeListener {
	listeners := make([]ChangeListener, len(c.listeners))
	copy(listeners, c.listeners)
	return listeners
}

func notify(listeners []ChangeListener, change Change) {
	for _, listener := range listeners {
		listener(change)
	}
}
