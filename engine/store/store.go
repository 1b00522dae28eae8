package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"dario.cat/mergo"

	"github.com/dao-ai/builder/engine/config"
	"github.com/dao-ai/builder/engine/core"
	"github.com/dao-ai/builder/engine/refs"
	"github.com/dao-ai/builder/pkg/logger"
)

// Store guards the single working configuration and the reference index of
// the most recent import. It is safe for concurrent use. Values are
// deep-copied on the way in and out so callers can never mutate shared state,
// and an import replaces the configuration and the index atomically: anchors
// from one document must never leak into another.
type Store struct {
	mu  sync.RWMutex
	cfg *config.Config
	idx *refs.Index
}

var (
	// ErrNotFound is returned when the addressed entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrKeyConflict is returned when a reference key is already taken by an
	// entity in another section. Keys are unique across the whole
	// configuration because they double as anchor names.
	ErrKeyConflict = errors.New("reference key already in use by another section")
	// ErrUnknownSection is returned for section names outside the document
	// vocabulary.
	ErrUnknownSection = errors.New("unknown section")
)

// New returns a store with an empty configuration and no import history.
func New() *Store {
	return &Store{cfg: config.New(), idx: refs.Empty()}
}

// PutEntity inserts or replaces one entity, returning its fingerprint.
func (s *Store) PutEntity(ctx context.Context, section, key string, value map[string]any) (string, error) {
	if key == "" {
		return "", fmt.Errorf("reference key is required")
	}
	if value == nil {
		return "", fmt.Errorf("nil entity is not allowed")
	}
	cp, err := core.CopyEntity(value)
	if err != nil {
		return "", fmt.Errorf("deep copy failed: %w", err)
	}
	etag := core.ETagFromAny(cp)
	s.mu.Lock()
	defer s.mu.Unlock()
	target, err := s.cfg.EnsureSection(section)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	if owner, taken := s.cfg.FindKey(key); taken && owner != section {
		return "", fmt.Errorf("%w: %q is defined in %s", ErrKeyConflict, key, owner)
	}
	target[key] = cp
	logger.FromContext(ctx).Debug("entity stored", "section", section, "key", key, "etag", etag[:8])
	return etag, nil
}

// PatchEntity merges the provided fields into an existing entity.
func (s *Store) PatchEntity(ctx context.Context, section, key string, fields map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, err := s.cfg.EnsureSection(section)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	current, ok := target[key]
	if !ok {
		return "", ErrNotFound
	}
	merged, err := core.CopyEntity(current)
	if err != nil {
		return "", fmt.Errorf("deep copy failed: %w", err)
	}
	if err := mergo.Merge(&merged, fields, mergo.WithOverride); err != nil {
		return "", fmt.Errorf("failed to merge entity fields: %w", err)
	}
	target[key] = merged
	etag := core.ETagFromAny(merged)
	logger.FromContext(ctx).Debug("entity patched", "section", section, "key", key, "etag", etag[:8])
	return etag, nil
}

// GetEntity returns a deep copy of one entity and its fingerprint.
func (s *Store) GetEntity(_ context.Context, section, key string) (map[string]any, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.cfg.SectionMap(section)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	value, exists := sec[key]
	if !exists {
		return nil, "", ErrNotFound
	}
	cp, err := core.CopyEntity(value)
	if err != nil {
		return nil, "", fmt.Errorf("deep copy failed: %w", err)
	}
	return cp, core.ETagFromAny(cp), nil
}

// DeleteEntity removes one entity. Deleting a missing key is idempotent.
// References other entities hold to the deleted key are left in place; the
// generator drops them with a diagnostic at export time.
func (s *Store) DeleteEntity(ctx context.Context, section, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.cfg.SectionMap(section)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	if _, exists := sec[key]; exists {
		delete(sec, key)
		logger.FromContext(ctx).Debug("entity deleted", "section", section, "key", key)
	}
	return nil
}

// ListSection returns the entity keys of one section in sorted order.
func (s *Store) ListSection(_ context.Context, section string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.cfg.SectionMap(section)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	keys := make([]string, 0, len(sec))
	for k := range sec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// SetMemory replaces the singleton memory section.
func (s *Store) SetMemory(_ context.Context, memory map[string]any) error {
	cp, err := core.CopyEntity(memory)
	if err != nil {
		return fmt.Errorf("deep copy failed: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Memory = cp
	return nil
}

// SetApp replaces the singleton app section.
func (s *Store) SetApp(_ context.Context, app map[string]any) error {
	cp, err := core.CopyEntity(app)
	if err != nil {
		return fmt.Errorf("deep copy failed: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.App = cp
	return nil
}

// Snapshot returns an isolated copy of the configuration together with the
// reference index it should be generated against. The index is immutable and
// shared; the configuration copy belongs to the caller.
func (s *Store) Snapshot(_ context.Context) (*config.Config, *refs.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, err := s.cfg.DeepCopy()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to snapshot configuration: %w", err)
	}
	return cp, s.idx, nil
}

// Replace atomically swaps in a freshly imported configuration and its index.
func (s *Store) Replace(ctx context.Context, cfg *config.Config, idx *refs.Index) error {
	if cfg == nil {
		return fmt.Errorf("configuration is required")
	}
	if idx == nil {
		idx = refs.Empty()
	}
	cp, err := cfg.DeepCopy()
	if err != nil {
		return fmt.Errorf("failed to copy configuration: %w", err)
	}
	s.mu.Lock()
	s.cfg = cp
	s.idx = idx
	s.mu.Unlock()
	logger.FromContext(ctx).Info("configuration replaced", "anchors", idx.Len())
	return nil
}

// SectionCounts reports how many entities each non-empty section holds.
func (s *Store) SectionCounts(_ context.Context) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int)
	for _, name := range config.KeyedSectionNames() {
		sec, _ := s.cfg.SectionMap(name)
		if len(sec) > 0 {
			out[name] = len(sec)
		}
	}
	if len(s.cfg.Memory) > 0 {
		out[config.SectionMemory] = 1
	}
	if len(s.cfg.App) > 0 {
		out[config.SectionApp] = 1
	}
	return out
}
