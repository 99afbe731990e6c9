package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposite_FirstMatchWins(t *testing.T) {
	t.Parallel()

	composite := NewComposite("group")
	composite.Add(NewMapSource("db", map[string]string{"shared": "db", "db.url": "postgres://"}))
	composite.Add(NewMapSource("app", map[string]string{"shared": "app", "app.name": "demo"}))

	assert.Equal(t, "group", composite.Name())
	assert.Equal(t, 2, composite.Size())

	v, ok := composite.Property("shared")
	require.True(t, ok)
	assert.Equal(t, "db", v)

	v, ok = composite.Property("app.name")
	require.True(t, ok)
	assert.Equal(t, "demo", v)

	_, ok = composite.Property("missing")
	assert.False(t, ok)
}

func TestComposite_PropertyNames(t *testing.T) {
	t.Parallel()

	composite := NewComposite("group")
	composite.Add(NewMapSource("db", map[string]string{"a": "1", "b": "2"}))
	composite.Add(NewMapSource("app", map[string]string{"b": "3", "c": "4"}))

	assert.Equal(t, []string{"a", "b", "c"}, composite.PropertyNames())
}

func TestCachedComposite_Lookup(t *testing.T) {
	t.Parallel()

	db := NewMapSource("db", map[string]string{"shared": "db"})
	app := NewMapSource("app", map[string]string{"shared": "app", "app.name": "demo"})

	composite := NewCachedComposite("group")
	composite.Add(db)
	composite.Add(app)

	v, ok := composite.Property("shared")
	require.True(t, ok)
	assert.Equal(t, "db", v)

	// Value changes read through the cached owner.
	db.Set("shared", "db-2")
	v, ok = composite.Property("shared")
	require.True(t, ok)
	assert.Equal(t, "db-2", v)
}

func TestCachedComposite_Invalidate(t *testing.T) {
	t.Parallel()

	db := NewMapSource("db", map[string]string{"a": "1"})
	composite := NewCachedComposite("group")
	composite.Add(db)

	_, ok := composite.Property("b")
	assert.False(t, ok)

	// A key added after the cache was built is invisible until
	// invalidation.
	db.Set("b", "2")
	_, ok = composite.Property("b")
	assert.False(t, ok)

	composite.Invalidate()
	v, ok := composite.Property("b")
	require.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestCachedComposite_PropertyNames(t *testing.T) {
	t.Parallel()

	composite := NewCachedComposite("group")
	composite.Add(NewMapSource("db", map[string]string{"a": "1", "b": "2"}))
	composite.Add(NewMapSource("app", map[string]string{"b": "3", "c": "4"}))

	assert.ElementsMatch(t, []string{"a", "b", "c"}, composite.PropertyNames())
}
