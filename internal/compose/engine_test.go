package compose

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avconfig/internal/observability"
	"github.com/vyrodovalexey/avconfig/internal/property"
	"github.com/vyrodovalexey/avconfig/internal/remote"
	"github.com/vyrodovalexey/avconfig/internal/util"
)

// recordingLogger captures log messages for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	infos []string
}

func (l *recordingLogger) Debug(string, ...observability.Field) {}

func (l *recordingLogger) Info(msg string, _ ...observability.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...observability.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Error(string, ...observability.Field) {}
func (l *recordingLogger) Fatal(string, ...observability.Field) {}

func (l *recordingLogger) With(...observability.Field) observability.Logger { return l }
func (l *recordingLogger) Sync() error                                      { return nil }

func (l *recordingLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

// failingClient always fails fetches.
type failingClient struct {
	err error
}

func (c *failingClient) GetConfig(string) (remote.Config, error) {
	return nil, c.err
}

func mainCompositeNames(t *testing.T, chain *property.Sources) []string {
	t.Helper()
	src, ok := chain.Get(PropertySourceName)
	require.True(t, ok)
	composite, ok := src.(*property.Composite)
	require.True(t, ok)

	names := make([]string, 0, composite.Size())
	for _, sub := range composite.Sources() {
		names = append(names, sub.Name())
	}
	return names
}

func TestEngine_OnContainerInit_OrdersByPriority(t *testing.T) {
	t.Parallel()

	client := remote.NewMemoryClient()
	engine := NewEngine(client)

	engine.Register([]string{"db"}, 0)
	engine.Register([]string{"app"}, 1)

	chain := property.NewSources()
	require.NoError(t, engine.OnContainerInit("c1", chain, func(remote.Change) {}))

	assert.Equal(t, []string{"db", "app"}, mainCompositeNames(t, chain))
}

func TestEngine_OnContainerInit_BucketStability(t *testing.T) {
	t.Parallel()

	client := remote.NewMemoryClient()
	engine := NewEngine(client)

	engine.Register([]string{"a", "b"}, 5)
	engine.Register([]string{"c"}, 5)
	engine.Register([]string{"z"}, -1)

	chain := property.NewSources()
	require.NoError(t, engine.OnContainerInit("c1", chain, func(remote.Change) {}))

	assert.Equal(t, []string{"z", "a", "b", "c"}, mainCompositeNames(t, chain))
}

func TestEngine_SecondBuildIsEmpty(t *testing.T) {
	t.Parallel()

	client := remote.NewMemoryClient()
	engine := NewEngine(client)
	engine.Register([]string{"app"}, 0)

	first := property.NewSources()
	require.NoError(t, engine.OnContainerInit("c1", first, func(remote.Change) {}))
	assert.Equal(t, []string{"app"}, mainCompositeNames(t, first))

	// The registry was drained; a second pass against a fresh chain
	// composes an empty set.
	second := property.NewSources()
	require.NoError(t, engine.OnContainerInit("c2", second, func(remote.Change) {}))
	assert.Empty(t, mainCompositeNames(t, second))
}

func TestEngine_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	client := remote.NewMemoryClient()
	engine := NewEngine(client)

	assert.True(t, engine.Register([]string{"app"}, 0))
	assert.False(t, engine.Register([]string{"app"}, 0))

	chain := property.NewSources()
	require.NoError(t, engine.OnContainerInit("c1", chain, func(remote.Change) {}))

	assert.Equal(t, []string{"app"}, mainCompositeNames(t, chain))
}

func TestEngine_RegisterIn_ResolvesPlaceholders(t *testing.T) {
	t.Parallel()

	client := remote.NewMemoryClient()
	engine := NewEngine(client)

	chain := property.NewSources(property.NewMapSource("ambient", map[string]string{
		"env.ns": "app-prod",
	}))

	added, err := engine.RegisterIn(chain, []string{"${env.ns}", "db"}, 0)
	require.NoError(t, err)
	assert.True(t, added)

	require.NoError(t, engine.OnContainerInit("c1", chain, func(remote.Change) {}))
	assert.Equal(t, []string{"app-prod", "db"}, mainCompositeNames(t, chain))
}

func TestEngine_RegisterIn_UnresolvableIsFatal(t *testing.T) {
	t.Parallel()

	client := remote.NewMemoryClient()
	engine := NewEngine(client)

	chain := property.NewSources()

	_, err := engine.RegisterIn(chain, []string{"${env.ns}"}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrInvalidReference)
	assert.Zero(t, engine.registry.Len())
}

func TestEngine_RegisterIn_NilChainUsesRawNameAndWarnsOnce(t *testing.T) {
	t.Parallel()

	client := remote.NewMemoryClient()
	logger := &recordingLogger{}
	engine := NewEngine(client, WithLogger(logger))

	added, err := engine.RegisterIn(nil, []string{"${env.ns}"}, 0)
	require.NoError(t, err)
	assert.True(t, added)

	// Second degraded registration does not warn again.
	_, err = engine.RegisterIn(nil, []string{"${other.ns}"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, logger.warnCount())

	chain := property.NewSources()
	require.NoError(t, engine.OnContainerInit("c1", chain, func(remote.Change) {}))
	assert.Equal(t, []string{"${env.ns}", "${other.ns}"}, mainCompositeNames(t, chain))
}

func TestEngine_RegisterIn_NilChainPlainNamesNoWarning(t *testing.T) {
	t.Parallel()

	client := remote.NewMemoryClient()
	logger := &recordingLogger{}
	engine := NewEngine(client, WithLogger(logger))

	_, err := engine.RegisterIn(nil, []string{"app", "db"}, 0)
	require.NoError(t, err)
	assert.Zero(t, logger.warnCount())
}

func TestEngine_FetchFailureAbortsBuild(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	engine := NewEngine(&failingClient{err: cause})
	engine.Register([]string{"app"}, 0)

	chain := property.NewSources()
	err := engine.OnContainerInit("c1", chain, func(remote.Change) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.False(t, chain.Contains(PropertySourceName))
}

func TestEngine_ChangeEventPublishedOnce(t *testing.T) {
	t.Parallel()

	client := remote.NewMemoryClient()
	client.Seed("app", map[string]string{"timeout": "30"})

	engine := NewEngine(client)
	engine.Register([]string{"app"}, 0)

	var mu sync.Mutex
	var events []remote.Change
	publish := func(c remote.Change) {
		mu.Lock()
		events = append(events, c)
		mu.Unlock()
	}

	chain := property.NewSources()
	require.NoError(t, engine.OnContainerInit("c1", chain, publish))

	client.Config("app").SetProperty("timeout", "60")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, remote.Change{
		Namespace:    "app",
		PropertyName: "timeout",
		OldValue:     "30",
		NewValue:     "60",
		ChangeType:   remote.ChangeModified,
	}, events[0])
}

func TestEngine_WiringIdempotentPerContainer(t *testing.T) {
	t.Parallel()

	client := remote.NewMemoryClient()
	engine := NewEngine(client)
	engine.Register([]string{"app"}, 0)

	var mu sync.Mutex
	count := 0
	publish := func(remote.Change) {
		mu.Lock()
		count++
		mu.Unlock()
	}

	chain := property.NewSources()
	require.NoError(t, engine.OnContainerInit("c1", chain, publish))

	// A redundant init for the same container is silently absorbed.
	require.NoError(t, engine.OnContainerInit("c1", chain, publish))

	// A second container must not duplicate adapter listeners either.
	require.NoError(t, engine.OnContainerInit("c2", chain, publish))

	client.Config("app").SetProperty("key", "value")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestEngine_PropertyNamesCacheFlag(t *testing.T) {
	t.Parallel()

	client := remote.NewMemoryClient()
	client.Seed("app", map[string]string{"a": "1"})

	engine := NewEngine(client)
	engine.Register([]string{"app"}, 0)

	chain := property.NewSources(property.NewMapSource("flags", map[string]string{
		PropertyNamesCacheKey: "true",
	}))
	require.NoError(t, engine.OnContainerInit("c1", chain, func(remote.Change) {}))

	src, ok := chain.Get(PropertySourceName)
	require.True(t, ok)
	cached, ok := src.(*property.CachedComposite)
	require.True(t, ok)

	v, ok := cached.Property("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	// A remote change invalidates the key cache, so new keys become
	// visible.
	client.Config("app").SetProperty("b", "2")
	v, ok = cached.Property("b")
	require.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestEngine_Reset(t *testing.T) {
	t.Parallel()

	client := remote.NewMemoryClient()
	engine := NewEngine(client)
	engine.Register([]string{"app"}, 0)

	chain := property.NewSources()
	require.NoError(t, engine.OnContainerInit("c1", chain, func(remote.Change) {}))

	engine.Reset()

	assert.Zero(t, engine.registry.Len())
	assert.Empty(t, engine.factory.allSources())
	assert.True(t, engine.guard.TryAcquire("c1"))
}
