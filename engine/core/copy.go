package core

import (
	"fmt"

	"github.com/mohae/deepcopy"
)

// DeepCopy returns a deep copy of v. Entity values in this codebase are plain
// map[string]any graphs (the denormalized form the editor works on), so the
// generic copy from the deepcopy library is sufficient; the assertion guards
// against the library devolving the result into an unexpected type.
func DeepCopy[T any](v T) (T, error) {
	var zero T
	copied := deepcopy.Copy(v)
	result, ok := copied.(T)
	if !ok {
		return zero, fmt.Errorf("failed to deep copy value of type %T", v)
	}
	return result, nil
}

// CopyEntity deep-copies one denormalized entity map. Nil maps stay nil.
func CopyEntity(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	return DeepCopy(m)
}

// CopySection deep-copies a whole section of keyed entities.
func CopySection(s map[string]map[string]any) (map[string]map[string]any, error) {
	if s == nil {
		return nil, nil
	}
	out := make(map[string]map[string]any, len(s))
	for k, v := range s {
		cp, err := CopyEntity(v)
		if err != nil {
			return nil, fmt.Errorf("failed to copy entity %q: %w", k, err)
		}
		out[k] = cp
	}
	return out, nil
}
