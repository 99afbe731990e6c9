package compose

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namespacesOf(regs []registration) []string {
	out := make([]string, len(regs))
	for i, r := range regs {
		out[i] = r.namespace
	}
	return out
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	assert.True(t, registry.Register([]string{"db", "app"}, 0))
	assert.Equal(t, 2, registry.Len())

	// Identical pair is not added twice.
	assert.False(t, registry.Register([]string{"db"}, 0))
	assert.Equal(t, 2, registry.Len())

	// Same namespace under a different priority is a new pair.
	assert.True(t, registry.Register([]string{"db"}, 1))
	assert.Equal(t, 3, registry.Len())
}

func TestRegistry_DrainOrdersByPriority(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register([]string{"low"}, 10)
	registry.Register([]string{"high"}, -5)
	registry.Register([]string{"mid"}, 0)

	regs := registry.drain()
	assert.Equal(t, []string{"high", "mid", "low"}, namespacesOf(regs))
}

func TestRegistry_DrainPreservesBucketOrder(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register([]string{"a", "b"}, 0)
	registry.Register([]string{"c"}, 0)
	registry.Register([]string{"d"}, 0)

	regs := registry.drain()
	assert.Equal(t, []string{"a", "b", "c", "d"}, namespacesOf(regs))
}

func TestRegistry_DrainClears(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register([]string{"app"}, 0)

	require.Len(t, registry.drain(), 1)
	assert.Empty(t, registry.drain())
	assert.Zero(t, registry.Len())

	// Registering after a drain starts a fresh pass, including a pair
	// that was drained before.
	assert.True(t, registry.Register([]string{"app"}, 0))
	assert.Len(t, registry.drain(), 1)
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			registry.Register([]string{fmt.Sprintf("ns-%d", i)}, i%5)
		}(i)
	}
	wg.Wait()

	regs := registry.drain()
	assert.Len(t, regs, 50)

	// Ascending priority across the drained sequence.
	for i := 1; i < len(regs); i++ {
		assert.LessOrEqual(t, regs[i-1].priority, regs[i].priority)
	}
}
