package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dao-ai/builder/engine/config"
	"github.com/dao-ai/builder/engine/refs"
)

func TestStorePutAndGet(t *testing.T) {
	t.Run("Should store and retrieve a deep copy", func(t *testing.T) {
		s := New()
		ctx := context.Background()
		original := map[string]any{"name": "gpt-4o", "provider": "openai"}
		etag, err := s.PutEntity(ctx, config.ResourceLLMs, "gpt", original)
		require.NoError(t, err)
		assert.NotEmpty(t, etag)

		original["provider"] = "mutated"
		got, gotTag, err := s.GetEntity(ctx, config.ResourceLLMs, "gpt")
		require.NoError(t, err)
		assert.Equal(t, "openai", got["provider"])
		assert.Equal(t, etag, gotTag)

		got["name"] = "mutated"
		again, _, err := s.GetEntity(ctx, config.ResourceLLMs, "gpt")
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o", again["name"])
	})
	t.Run("Should reject an empty key", func(t *testing.T) {
		s := New()
		_, err := s.PutEntity(context.Background(), config.ResourceLLMs, "", map[string]any{"name": "x"})
		assert.Error(t, err)
	})
	t.Run("Should reject an unknown section", func(t *testing.T) {
		s := New()
		_, err := s.PutEntity(context.Background(), "widgets", "w", map[string]any{"name": "x"})
		assert.ErrorIs(t, err, ErrUnknownSection)
	})
	t.Run("Should enforce key uniqueness across sections", func(t *testing.T) {
		s := New()
		ctx := context.Background()
		_, err := s.PutEntity(ctx, config.ResourceLLMs, "shared", map[string]any{"name": "llm"})
		require.NoError(t, err)
		_, err = s.PutEntity(ctx, config.SectionTools, "shared", map[string]any{"name": "tool"})
		assert.ErrorIs(t, err, ErrKeyConflict)
		// Replacement inside the same section stays legal.
		_, err = s.PutEntity(ctx, config.ResourceLLMs, "shared", map[string]any{"name": "llm-2"})
		assert.NoError(t, err)
	})
}

func TestStorePatchEntity(t *testing.T) {
	t.Run("Should merge fields over the stored entity", func(t *testing.T) {
		s := New()
		ctx := context.Background()
		_, err := s.PutEntity(ctx, config.ResourceLLMs, "gpt", map[string]any{
			"name":        "gpt-4o",
			"provider":    "openai",
			"temperature": 0.2,
		})
		require.NoError(t, err)
		_, err = s.PatchEntity(ctx, config.ResourceLLMs, "gpt", map[string]any{"temperature": 0.7})
		require.NoError(t, err)
		got, _, err := s.GetEntity(ctx, config.ResourceLLMs, "gpt")
		require.NoError(t, err)
		assert.Equal(t, 0.7, got["temperature"])
		assert.Equal(t, "openai", got["provider"])
	})
	t.Run("Should return not found for a missing entity", func(t *testing.T) {
		s := New()
		_, err := s.PatchEntity(context.Background(), config.ResourceLLMs, "ghost", map[string]any{"a": 1})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoreDeleteEntity(t *testing.T) {
	t.Run("Should delete and stay idempotent", func(t *testing.T) {
		s := New()
		ctx := context.Background()
		_, err := s.PutEntity(ctx, config.SectionTools, "search", map[string]any{"name": "search"})
		require.NoError(t, err)
		require.NoError(t, s.DeleteEntity(ctx, config.SectionTools, "search"))
		require.NoError(t, s.DeleteEntity(ctx, config.SectionTools, "search"))
		_, _, err = s.GetEntity(ctx, config.SectionTools, "search")
		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("Should leave dangling references to the deleted key in place", func(t *testing.T) {
		s := New()
		ctx := context.Background()
		_, err := s.PutEntity(ctx, config.SectionTools, "search", map[string]any{"name": "search"})
		require.NoError(t, err)
		_, err = s.PutEntity(ctx, config.SectionAgents, "helper", map[string]any{
			"name":  "helper",
			"tools": []any{"search"},
		})
		require.NoError(t, err)
		require.NoError(t, s.DeleteEntity(ctx, config.SectionTools, "search"))
		agent, _, err := s.GetEntity(ctx, config.SectionAgents, "helper")
		require.NoError(t, err)
		assert.Equal(t, []any{"search"}, agent["tools"])
	})
}

func TestStoreListSection(t *testing.T) {
	t.Run("Should list keys in sorted order", func(t *testing.T) {
		s := New()
		ctx := context.Background()
		for _, key := range []string{"zeta", "alpha", "mid"} {
			_, err := s.PutEntity(ctx, config.SectionAgents, key, map[string]any{"name": key})
			require.NoError(t, err)
		}
		keys, err := s.ListSection(ctx, config.SectionAgents)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "mid", "zeta"}, keys)
	})
}

func TestStoreSnapshotAndReplace(t *testing.T) {
	t.Run("Should isolate the snapshot from later writes", func(t *testing.T) {
		s := New()
		ctx := context.Background()
		_, err := s.PutEntity(ctx, config.ResourceLLMs, "gpt", map[string]any{"name": "gpt-4o"})
		require.NoError(t, err)
		snap, idx, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, idx.Len())

		require.NoError(t, s.DeleteEntity(ctx, config.ResourceLLMs, "gpt"))
		assert.Contains(t, snap.Resources.LLMs, "gpt")
	})
	t.Run("Should swap configuration and index atomically", func(t *testing.T) {
		s := New()
		ctx := context.Background()
		cfg := config.New()
		cfg.Resources.LLMs["gpt"] = map[string]any{"name": "gpt-4o"}
		b := refs.NewBuilder()
		b.AddAnchor("gpt", "resources.llms.gpt")
		b.AddAliasUse("gpt", "agents.helper.model")
		require.NoError(t, s.Replace(ctx, cfg, b.Build()))

		snap, idx, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.Contains(t, snap.Resources.LLMs, "gpt")
		assert.Equal(t, 1, idx.Len())

		// Mutating the caller's config after Replace must not leak in.
		cfg.Resources.LLMs["gpt"]["name"] = "mutated"
		snap2, _, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o", snap2.Resources.LLMs["gpt"]["name"])
	})
	t.Run("Should fall back to an empty index when nil is given", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Replace(context.Background(), config.New(), nil))
		_, idx, err := s.Snapshot(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, idx.Len())
	})
}

func TestStoreSectionCounts(t *testing.T) {
	t.Run("Should count only populated sections", func(t *testing.T) {
		s := New()
		ctx := context.Background()
		_, err := s.PutEntity(ctx, config.ResourceLLMs, "gpt", map[string]any{"name": "g"})
		require.NoError(t, err)
		_, err = s.PutEntity(ctx, config.SectionAgents, "helper", map[string]any{"name": "h"})
		require.NoError(t, err)
		require.NoError(t, s.SetMemory(ctx, map[string]any{"checkpointer": map[string]any{}}))
		counts := s.SectionCounts(ctx)
		assert.Equal(t, 1, counts[config.ResourceLLMs])
		assert.Equal(t, 1, counts[config.SectionAgents])
		assert.Equal(t, 1, counts[config.SectionMemory])
		assert.NotContains(t, counts, config.SectionTools)
	})
}
