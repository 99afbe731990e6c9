package compose

import "sync"

// Guard tracks which container identities have already been wired for
// live updates. TryAcquire is an atomic check-and-set, so concurrent
// initialization attempts for one container succeed exactly once per
// process lifetime.
type Guard struct {
	mu       sync.Mutex
	acquired map[string]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{acquired: make(map[string]struct{})}
}

// TryAcquire records containerID and reports whether this call was the
// first to do so.
func (g *Guard) TryAcquire(containerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.acquired[containerID]; ok {
		return false
	}
	g.acquired[containerID] = struct{}{}
	return true
}

// Reset clears all acquired identities.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.acquired = make(map[string]struct{})
}
