package compose

import (
	"sync"

	"github.com/vyrodovalexey/avconfig/internal/remote"
	"github.com/vyrodovalexey/avconfig/internal/util"
)

// ConfigSource adapts one namespace's remote configuration handle as a
// named property source. The source name is the namespace name.
type ConfigSource struct {
	namespace string
	config    remote.Config
}

// Name returns the namespace name.
func (s *ConfigSource) Name() string {
	return s.namespace
}

// Property returns the value for key from the remote handle.
func (s *ConfigSource) Property(key string) (string, bool) {
	return s.config.Property(key)
}

// PropertyNames returns all keys known to the remote handle.
func (s *ConfigSource) PropertyNames() []string {
	return s.config.PropertyNames()
}

// AddChangeListener subscribes listener to the remote handle's change
// notifications. Listeners are never detached.
func (s *ConfigSource) AddChangeListener(listener remote.ChangeListener) {
	s.config.AddChangeListener(listener)
}

// sourceFactory creates one ConfigSource per distinct namespace,
// reusing the remote handle across composition passes, and remembers
// every source ever created so the live-update wiring can enumerate
// them.
type sourceFactory struct {
	client remote.Client

	mu          sync.Mutex
	byNamespace map[string]*ConfigSource
	all         []*ConfigSource
}

func newSourceFactory(client remote.Client) *sourceFactory {
	return &sourceFactory{
		client:      client,
		byNamespace: make(map[string]*ConfigSource),
	}
}

// get fetches or reuses the adapter for namespace.
func (f *sourceFactory) get(namespace string) (*ConfigSource, error) {
	f.mu.Lock()
	if src, ok := f.byNamespace[namespace]; ok {
		f.mu.Unlock()
		return src, nil
	}
	f.mu.Unlock()

	// Fetch without holding the factory lock; the remote client owns
	// any timeout or retry policy.
	config, err := f.client.GetConfig(namespace)
	if err != nil {
		return nil, util.NewNamespaceError(namespace, "failed to fetch config", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if src, ok := f.byNamespace[namespace]; ok {
		return src, nil
	}
	src := &ConfigSource{namespace: namespace, config: config}
	f.byNamespace[namespace] = src
	f.all = append(f.all, src)
	return src, nil
}

// allSources returns every adapter created so far, in creation order.
func (f *sourceFactory) allSources() []*ConfigSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*ConfigSource, len(f.all))
	copy(out, f.all)
	return out
}

// reset forgets all created adapters.
func (f *sourceFactory) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byNamespace = make(map[string]*ConfigSource)
	f.all = nil
}
