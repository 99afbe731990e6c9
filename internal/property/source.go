package property

import (
	"os"
	"sort"
	"strings"
	"sync"
)

// SystemEnvironmentName is the well-known name of the process
// environment source in a chain. The splice policy keys off this name
// when override-system-properties mode is disabled.
const SystemEnvironmentName = "systemEnvironment"

// Source is a single named, queryable group of configuration
// properties.
type Source interface {
	// Name returns the unique name of this source within a chain.
	Name() string
	// Property returns the value for key and whether it exists.
	Property(key string) (string, bool)
	// PropertyNames returns all known keys.
	PropertyNames() []string
}

// MapSource is a mutable in-memory Source backed by a map.
type MapSource struct {
	name   string
	mu     sync.RWMutex
	values map[string]string
}

// NewMapSource creates a MapSource with a copy of values.
func NewMapSource(name string, values map[string]string) *MapSource {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &MapSource{name: name, values: copied}
}

// Name returns the source name.
func (s *MapSource) Name() string {
	return s.name
}

// Property returns the value for key.
func (s *MapSource) Property(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// PropertyNames returns all keys in sorted order.
func (s *MapSource) PropertyNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Set stores a value.
func (s *MapSource) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// SystemEnvSource exposes the process environment as a Source named
// SystemEnvironmentName. Dotted property keys are translated to their
// environment form on lookup (a.b.c matches A_B_C).
type SystemEnvSource struct {
	values map[string]string
}

// NewSystemEnvSource snapshots the current process environment.
func NewSystemEnvSource() *SystemEnvSource {
	values := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			values[kv[:i]] = kv[i+1:]
		}
	}
	return &SystemEnvSource{values: values}
}

// Name returns SystemEnvironmentName.
func (s *SystemEnvSource) Name() string {
	return SystemEnvironmentName
}

// Property looks up key, falling back to its environment-variable
// translation.
func (s *SystemEnvSource) Property(key string) (string, bool) {
	if v, ok := s.values[key]; ok {
		return v, true
	}
	v, ok := s.values[envKey(key)]
	return v, ok
}

// PropertyNames returns all environment variable names in sorted order.
func (s *SystemEnvSource) PropertyNames() []string {
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// envKey translates a dotted property key to environment form.
func envKey(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}
