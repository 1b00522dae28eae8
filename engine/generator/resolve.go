package generator

import (
	"sort"

	"github.com/dao-ai/builder/engine/config"
	"github.com/dao-ai/builder/engine/core"
	"github.com/dao-ai/builder/engine/refs"
)

// resolveReference decides whether the value at path should be emitted as a
// reference to an entity in candidates, returning the target key. Strategies
// run in fixed priority order; the first success wins:
//
//  1. the import-time index remembers an alias at this position
//  2. the value is already a marker/alias string
//  3. the value is structurally identical to a candidate (serialize-and-compare)
//  4. the value's name matches a candidate's name
//
// A miss means the caller emits the value inline; the resolver never guesses
// beyond these strategies and never returns a key absent from candidates.
func (g *Generator) resolveReference(path string, value any, candidates config.Section) (string, bool) {
	if value == nil || len(candidates) == 0 {
		return "", false
	}
	if name, ok := g.idx.FindOriginalReference(path, value); ok {
		if _, exists := candidates[name]; exists {
			return name, true
		}
	}
	if s, ok := value.(string); ok {
		if key, ok := refs.AliasTarget(s); ok {
			if _, exists := candidates[key]; exists {
				return key, true
			}
		}
		// A stale textual reference stays a plain string; the serializer
		// quotes it, so it can never turn into a dangling alias.
		return "", false
	}
	for _, key := range sortedKeys(candidates) {
		if core.StableEqual(candidates[key], value) {
			return key, true
		}
	}
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["name"].(string); ok && name != "" {
			for _, key := range sortedKeys(candidates) {
				if cn, _ := candidates[key]["name"].(string); cn == name {
					return key, true
				}
			}
		}
	}
	return "", false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
