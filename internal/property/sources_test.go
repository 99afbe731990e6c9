package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avconfig/internal/util"
)

func newTestChain() *Sources {
	return NewSources(
		NewMapSource("first", map[string]string{"shared": "from-first", "only.first": "1"}),
		NewMapSource("second", map[string]string{"shared": "from-second", "only.second": "2"}),
	)
}

func TestSources_PropertyPrecedence(t *testing.T) {
	t.Parallel()

	chain := newTestChain()

	v, ok := chain.Property("shared")
	require.True(t, ok)
	assert.Equal(t, "from-first", v)

	v, ok = chain.Property("only.second")
	require.True(t, ok)
	assert.Equal(t, "2", v)

	_, ok = chain.Property("missing")
	assert.False(t, ok)
}

func TestSources_AddFirst(t *testing.T) {
	t.Parallel()

	chain := newTestChain()
	chain.AddFirst(NewMapSource("override", map[string]string{"shared": "override"}))

	assert.Equal(t, []string{"override", "first", "second"}, chain.Names())

	v, ok := chain.Property("shared")
	require.True(t, ok)
	assert.Equal(t, "override", v)
}

func TestSources_AddFirst_ReplacesSameName(t *testing.T) {
	t.Parallel()

	chain := newTestChain()
	chain.AddFirst(NewMapSource("second", map[string]string{"shared": "moved"}))

	assert.Equal(t, []string{"second", "first"}, chain.Names())
	assert.Equal(t, 2, chain.Len())
}

func TestSources_AddAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		relativeName string
		wantErr      bool
		wantNames    []string
	}{
		{
			name:         "after first",
			relativeName: "first",
			wantNames:    []string{"first", "inserted", "second"},
		},
		{
			name:         "after last",
			relativeName: "second",
			wantNames:    []string{"first", "second", "inserted"},
		},
		{
			name:         "relative source missing",
			relativeName: "absent",
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			chain := newTestChain()
			err := chain.AddAfter(tt.relativeName, NewMapSource("inserted", nil))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, util.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, chain.Names())
		})
	}
}

func TestSources_AddAfter_SelfReference(t *testing.T) {
	t.Parallel()

	chain := newTestChain()
	err := chain.AddAfter("loop", NewMapSource("loop", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestSources_EnsureFirst(t *testing.T) {
	t.Parallel()

	chain := newTestChain()

	require.True(t, chain.EnsureFirst("second"))
	assert.Equal(t, []string{"second", "first"}, chain.Names())

	// Already first is a no-op.
	require.True(t, chain.EnsureFirst("second"))
	assert.Equal(t, []string{"second", "first"}, chain.Names())

	assert.False(t, chain.EnsureFirst("absent"))
}

func TestSources_Remove(t *testing.T) {
	t.Parallel()

	chain := newTestChain()

	src, ok := chain.Remove("first")
	require.True(t, ok)
	assert.Equal(t, "first", src.Name())
	assert.Equal(t, []string{"second"}, chain.Names())

	_, ok = chain.Remove("first")
	assert.False(t, ok)
}

func TestSources_BoolProperty(t *testing.T) {
	t.Parallel()

	chain := NewSources(NewMapSource("flags", map[string]string{
		"enabled":  "true",
		"disabled": "false",
		"garbage":  "not-a-bool",
	}))

	assert.True(t, chain.BoolProperty("enabled", false))
	assert.False(t, chain.BoolProperty("disabled", true))
	assert.True(t, chain.BoolProperty("garbage", true))
	assert.True(t, chain.BoolProperty("missing", true))
	assert.False(t, chain.BoolProperty("missing", false))
}

func TestSources_ResolvePlaceholders(t *testing.T) {
	t.Parallel()

	chain := NewSources(NewMapSource("values", map[string]string{
		"env.name": "production",
		"db.host":  "db-1",
	}))

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain string untouched", input: "application", want: "application"},
		{name: "single reference", input: "ns-${env.name}", want: "ns-production"},
		{name: "multiple references", input: "${env.name}/${db.host}", want: "production/db-1"},
		{name: "default used", input: "${missing:-fallback}", want: "fallback"},
		{name: "default ignored when present", input: "${env.name:-fallback}", want: "production"},
		{name: "empty default", input: "${missing:-}", want: ""},
		{name: "unresolvable left verbatim", input: "${missing}", want: "${missing}"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, chain.ResolvePlaceholders(tt.input))
		})
	}
}

func TestSources_ResolveRequiredPlaceholders(t *testing.T) {
	t.Parallel()

	chain := NewSources(NewMapSource("values", map[string]string{
		"env.name": "production",
	}))

	out, err := chain.ResolveRequiredPlaceholders("ns-${env.name}")
	require.NoError(t, err)
	assert.Equal(t, "ns-production", out)

	_, err = chain.ResolveRequiredPlaceholders("ns-${env.missing}")
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrInvalidReference)

	var refErr *util.ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "env.missing", refErr.Key)
}

func TestContainsPlaceholder(t *testing.T) {
	t.Parallel()

	assert.True(t, ContainsPlaceholder("${env.ns}"))
	assert.True(t, ContainsPlaceholder("prefix-${x}"))
	assert.False(t, ContainsPlaceholder("application"))
}

func TestSystemEnvSource_Translation(t *testing.T) {
	src := NewSystemEnvSource()
	assert.Equal(t, SystemEnvironmentName, src.Name())

	t.Setenv("AVCONFIG_TEST_VALUE", "42")

	// Snapshot taken before Setenv does not see it; take a fresh one.
	src = NewSystemEnvSource()

	v, ok := src.Property("AVCONFIG_TEST_VALUE")
	require.True(t, ok)
	assert.Equal(t, "42", v)

	v, ok = src.Property("avconfig.test.value")
	require.True(t, ok)
	assert.Equal(t, "42", v)
}
