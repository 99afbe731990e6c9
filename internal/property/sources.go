package property

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/vyrodovalexey/avconfig/internal/util"
)

// Sources is a mutable, ordered chain of property sources. Earlier
// sources have higher lookup precedence. All operations are safe for
// concurrent use.
type Sources struct {
	mu   sync.RWMutex
	list []Source
}

// NewSources creates an empty chain.
func NewSources(sources ...Source) *Sources {
	s := &Sources{}
	s.list = append(s.list, sources...)
	return s
}

// Contains reports whether a source with the given name is present.
func (s *Sources) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(name) >= 0
}

// Get returns the source with the given name.
func (s *Sources) Get(name string) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(name); i >= 0 {
		return s.list[i], true
	}
	return nil, false
}

// AddFirst inserts src at the highest precedence position, replacing
// any existing source with the same name.
func (s *Sources) AddFirst(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(src.Name())
	s.list = append([]Source{src}, s.list...)
}

// AddLast appends src at the lowest precedence position, replacing any
// existing source with the same name.
func (s *Sources) AddLast(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(src.Name())
	s.list = append(s.list, src)
}

// AddAfter inserts src immediately after the source named relativeName.
func (s *Sources) AddAfter(relativeName string, src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if relativeName == src.Name() {
		return fmt.Errorf("%w: source %q cannot be added relative to itself",
			util.ErrInvalidInput, relativeName)
	}
	s.removeLocked(src.Name())

	i := s.indexOf(relativeName)
	if i < 0 {
		return fmt.Errorf("%w: property source %q", util.ErrNotFound, relativeName)
	}

	s.list = append(s.list, nil)
	copy(s.list[i+2:], s.list[i+1:])
	s.list[i+1] = src
	return nil
}

// Remove deletes the source with the given name and returns it.
func (s *Sources) Remove(name string) (Source, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(name)
}

// EnsureFirst moves an existing source to the highest precedence
// position. It reports whether the source was found.
func (s *Sources) EnsureFirst(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.removeLocked(name)
	if !ok {
		return false
	}
	s.list = append([]Source{src}, s.list...)
	return true
}

// Names returns the chain's source names in precedence order.
func (s *Sources) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.list))
	for i, src := range s.list {
		names[i] = src.Name()
	}
	return names
}

// Len returns the number of sources in the chain.
func (s *Sources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

// Property returns the value for key from the first source that knows
// it.
func (s *Sources) Property(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, src := range s.list {
		if v, ok := src.Property(key); ok {
			return v, true
		}
	}
	return "", false
}

// PropertyOrDefault returns the value for key or def when absent.
func (s *Sources) PropertyOrDefault(key, def string) string {
	if v, ok := s.Property(key); ok {
		return v
	}
	return def
}

// BoolProperty returns the boolean value for key or def when the key is
// absent or not parseable as a boolean.
func (s *Sources) BoolProperty(key string, def bool) bool {
	v, ok := s.Property(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// indexOf returns the position of the named source, or -1. Callers must
// hold the lock.
func (s *Sources) indexOf(name string) int {
	for i, src := range s.list {
		if src.Name() == name {
			return i
		}
	}
	return -1
}

// removeLocked removes the named source. Callers must hold the lock.
func (s *Sources) removeLocked(name string) (Source, bool) {
	i := s.indexOf(name)
	if i < 0 {
		return nil, false
	}
	src := s.list[i]
	s.list = append(s.list[:i], s.list[i+1:]...)
	return src, true
}
