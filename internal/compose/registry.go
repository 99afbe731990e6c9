package compose

import (
	"sort"
	"sync"
)

// registration is one (priority, namespace) pair.
type registration struct {
	priority  int
	namespace string
}

// Registry accumulates (priority, namespace) declarations from
// independent declaration sites until a composition pass drains it.
// An identical pair is recorded once; within one priority bucket,
// first-registered-first-served order is preserved.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	buckets map[int][]string
	seen    map[registration]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[int][]string),
		seen:    make(map[registration]struct{}),
	}
}

// Register appends every namespace under priority. It reports whether
// any new pair was added; duplicates of an identical pair are ignored.
func (r *Registry) Register(namespaces []string, priority int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := false
	for _, namespace := range namespaces {
		pair := registration{priority: priority, namespace: namespace}
		if _, ok := r.seen[pair]; ok {
			continue
		}
		r.seen[pair] = struct{}{}
		r.buckets[priority] = append(r.buckets[priority], namespace)
		added = true
	}
	return added
}

// Len returns the number of registered pairs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// drain returns all registrations ordered by ascending priority, then
// registration order within each priority, and clears the registry.
func (r *Registry) drain() []registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	priorities := make([]int, 0, len(r.buckets))
	for priority := range r.buckets {
		priorities = append(priorities, priority)
	}
	sort.Ints(priorities)

	var out []registration
	for _, priority := range priorities {
		for _, namespace := range r.buckets[priority] {
			out = append(out, registration{priority: priority, namespace: namespace})
		}
	}

	r.buckets = make(map[int][]string)
	r.seen = make(map[registration]struct{})
	return out
}

// Reset clears the registry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buckets = make(map[int][]string)
	r.seen = make(map[registration]struct{})
}
