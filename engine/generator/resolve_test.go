package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dao-ai/builder/engine/config"
	"github.com/dao-ai/builder/engine/refs"
)

func TestResolveReference(t *testing.T) {
	candidates := config.Section{
		"gpt":  {"name": "gpt-4o", "provider": "openai"},
		"mini": {"name": "gpt-4o-mini", "provider": "openai"},
	}

	t.Run("Should prefer the import-time index over structural matching", func(t *testing.T) {
		b := refs.NewBuilder()
		b.AddAnchor("mini", "resources.llms.mini")
		b.AddAliasUse("mini", "agents.helper.model")
		cfg := config.New()
		g := New(cfg, b.Build())
		// The value structurally equals gpt, but the index remembers mini at
		// this exact position.
		key, ok := g.resolveReference("agents.helper.model",
			map[string]any{"name": "gpt-4o", "provider": "openai"}, candidates)
		require.True(t, ok)
		assert.Equal(t, "mini", key)
	})
	t.Run("Should resolve a star string against the candidates", func(t *testing.T) {
		g := newTestGenerator(nil)
		key, ok := g.resolveReference("agents.a.model", "*gpt", candidates)
		require.True(t, ok)
		assert.Equal(t, "gpt", key)
	})
	t.Run("Should leave a stale star string unresolved", func(t *testing.T) {
		g := newTestGenerator(nil)
		_, ok := g.resolveReference("agents.a.model", "*deleted", candidates)
		assert.False(t, ok)
	})
	t.Run("Should match by structural equality", func(t *testing.T) {
		g := newTestGenerator(nil)
		key, ok := g.resolveReference("agents.a.model",
			map[string]any{"provider": "openai", "name": "gpt-4o-mini"}, candidates)
		require.True(t, ok)
		assert.Equal(t, "mini", key)
	})
	t.Run("Should fall back to a name-field match", func(t *testing.T) {
		g := newTestGenerator(nil)
		key, ok := g.resolveReference("agents.a.model",
			map[string]any{"name": "gpt-4o", "temperature": 0.9}, candidates)
		require.True(t, ok)
		assert.Equal(t, "gpt", key)
	})
	t.Run("Should never return a key absent from the candidates", func(t *testing.T) {
		b := refs.NewBuilder()
		b.AddAnchor("deleted", "resources.llms.deleted")
		b.AddAliasUse("deleted", "agents.helper.model")
		g := New(config.New(), b.Build())
		_, ok := g.resolveReference("agents.helper.model",
			map[string]any{"kind": "opaque"}, candidates)
		assert.False(t, ok)
	})
	t.Run("Should miss on nil and on empty candidates", func(t *testing.T) {
		g := newTestGenerator(nil)
		_, ok := g.resolveReference("agents.a.model", nil, candidates)
		assert.False(t, ok)
		_, ok = g.resolveReference("agents.a.model", map[string]any{"name": "x"}, config.Section{})
		assert.False(t, ok)
	})
}
