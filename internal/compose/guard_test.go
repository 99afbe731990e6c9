package compose

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard_TryAcquire(t *testing.T) {
	t.Parallel()

	guard := NewGuard()

	assert.True(t, guard.TryAcquire("container-1"))
	assert.False(t, guard.TryAcquire("container-1"))
	assert.True(t, guard.TryAcquire("container-2"))
}

func TestGuard_TryAcquire_Concurrent(t *testing.T) {
	t.Parallel()

	guard := NewGuard()

	var successes atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if guard.TryAcquire("container-1") {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
}

func TestGuard_Reset(t *testing.T) {
	t.Parallel()

	guard := NewGuard()
	assert.True(t, guard.TryAcquire("container-1"))

	guard.Reset()
	assert.True(t, guard.TryAcquire("container-1"))
}
