package property

import "sync"

// Composite merges an ordered sequence of sources into one chain
// member. Lookup order equals insertion order: the first sub-source
// that knows a key wins.
//
// Sub-sources must all be added before the composite is published into
// a chain; after that the composite is read-only.
type Composite struct {
	name    string
	sources []Source
}

// NewComposite creates an empty composite with the given name.
func NewComposite(name string) *Composite {
	return &Composite{name: name}
}

// Name returns the composite name.
func (c *Composite) Name() string {
	return c.name
}

// Add appends a sub-source at the lowest precedence position.
func (c *Composite) Add(src Source) {
	c.sources = append(c.sources, src)
}

// Property returns the value from the first sub-source that knows key.
func (c *Composite) Property(key string) (string, bool) {
	for _, src := range c.sources {
		if v, ok := src.Property(key); ok {
			return v, true
		}
	}
	return "", false
}

// PropertyNames returns the union of sub-source keys in precedence
// order, without duplicates.
func (c *Composite) PropertyNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, src := range c.sources {
		for _, k := range src.PropertyNames() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			names = append(names, k)
		}
	}
	return names
}

// Sources returns the ordered sub-sources.
func (c *Composite) Sources() []Source {
	return c.sources
}

// Size returns the number of sub-sources.
func (c *Composite) Size() int {
	return len(c.sources)
}

// CachedComposite is a Composite that caches which sub-source owns each
// key, trading staleness for cheaper existence checks on large chains.
// The cache is rebuilt lazily after Invalidate; values are always read
// through to the owning source.
type CachedComposite struct {
	Composite

	mu     sync.RWMutex
	owners map[string]Source
	names  []string
}

// NewCachedComposite creates an empty cached composite.
func NewCachedComposite(name string) *CachedComposite {
	return &CachedComposite{Composite: Composite{name: name}}
}

// Property returns the value for key using the key-ownership cache.
func (c *CachedComposite) Property(key string) (string, bool) {
	c.mu.RLock()
	owners := c.owners
	c.mu.RUnlock()

	if owners == nil {
		owners = c.rebuild()
	}

	src, ok := owners[key]
	if !ok {
		return "", false
	}
	return src.Property(key)
}

// PropertyNames returns the cached key union in precedence order.
func (c *CachedComposite) PropertyNames() []string {
	c.mu.RLock()
	owners, names := c.owners, c.names
	c.mu.RUnlock()

	if owners == nil {
		c.rebuild()
		c.mu.RLock()
		names = c.names
		c.mu.RUnlock()
	}
	return names
}

// Invalidate discards the cache. It is called when a remote change
// notification arrives for any sub-source.
func (c *CachedComposite) Invalidate() {
	c.mu.Lock()
	c.owners = nil
	c.names = nil
	c.mu.Unlock()
}

// rebuild recomputes key ownership from the sub-sources.
func (c *CachedComposite) rebuild() map[string]Source {
	owners := make(map[string]Source)
	var names []string
	for _, src := range c.Composite.sources {
		for _, k := range src.PropertyNames() {
			if _, ok := owners[k]; ok {
				continue
			}
			owners[k] = src
			names = append(names, k)
		}
	}

	c.mu.Lock()
	c.owners = owners
	c.names = names
	c.mu.Unlock()
	return owners
}
