package refs

// FindOriginalReference decides which anchor, if any, the value at the given
// structural path should alias in the regenerated document. The round-trip
// through the editor's denormalized object graph loses anchor identity, so the
// decision is re-derived from the static import-time index using a fixed
// strategy order; the first strategy that succeeds wins. The function is pure:
// it keeps no cross-call state and every call re-derives from the index.
//
// Returning ("", false) means the caller must emit the value inline. The
// caller is also responsible for checking that the returned anchor still
// resolves to a currently-defined entity; this function only reconstructs the
// original intent.
func (i *Index) FindOriginalReference(path string, value any) (string, bool) {
	if len(i.aliasUsage) == 0 {
		return "", false
	}
	norm := NormalizePath(path)
	if name, ok := i.matchExactPath(norm); ok {
		return name, true
	}
	if name, ok := i.matchPathSuffix(norm); ok {
		return name, true
	}
	if name, ok := i.matchStructural(norm, value); ok {
		return name, true
	}
	return "", false
}

// matchExactPath: the edited value sits at the very path where an alias was
// used in the imported document.
func (i *Index) matchExactPath(norm string) (string, bool) {
	for _, name := range i.sortedNames {
		for _, use := range i.aliasUsage[name] {
			if NormalizePath(use) == norm {
				return name, true
			}
		}
	}
	return "", false
}

// matchPathSuffix: same final path component, and one path is a whole-segment
// suffix of the other. Editing can shift the leading segments of a path (an
// entity imported under one agent and reattached under another) without
// changing what the trailing field position means.
func (i *Index) matchPathSuffix(norm string) (string, bool) {
	last := lastSegment(norm)
	if last == "" {
		return "", false
	}
	for _, name := range i.sortedNames {
		for _, use := range i.aliasUsage[name] {
			nu := NormalizePath(use)
			if lastSegment(nu) != last {
				continue
			}
			if isSegmentSuffix(norm, nu) || isSegmentSuffix(nu, norm) {
				return name, true
			}
		}
	}
	return "", false
}

// matchStructural: value-shape heuristics for well-known entity forms, then a
// generic suffix-index lookup. Only applied to structured values; bare
// scalars carry too little signal to risk a guess.
func (i *Index) matchStructural(norm string, value any) (string, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return "", false
	}
	if hasKey(m, "catalog_name") && hasKey(m, "schema_name") {
		if name, ok := i.matchSchemaLike(norm); ok {
			return name, true
		}
	}
	if hasKey(m, "name") || hasKey(m, "function") {
		if name, ok := i.matchToolLike(norm); ok {
			return name, true
		}
	}
	for _, n := range []int{2, 1} {
		suffix := lastSegments(norm, n)
		if suffix == "" {
			continue
		}
		if name, ok := i.pathSuffixToAnchor[suffix]; ok {
			return name, true
		}
	}
	return "", false
}

// matchSchemaLike: a catalog/schema pair in a field position where an alias
// with the same final component was used, preferring a usage that also shares
// the parent component.
func (i *Index) matchSchemaLike(norm string) (string, bool) {
	last := lastSegment(norm)
	parent := lastSegments(norm, 2)
	fallback := ""
	for _, name := range i.sortedNames {
		for _, use := range i.aliasUsage[name] {
			nu := NormalizePath(use)
			if lastSegment(nu) != last {
				continue
			}
			if lastSegments(nu, 2) == parent {
				return name, true
			}
			if fallback == "" {
				fallback = name
			}
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// matchToolLike: tool-shaped values are matched through their attachment
// context. An alias used inside agents.<a>.tools only transfers to a query
// path inside the same agent's tool list, or failing that, any tool list.
func (i *Index) matchToolLike(norm string) (string, bool) {
	agent := agentToolsContext(norm)
	if agent == "" && !containsSegment(norm, "tools") {
		return "", false
	}
	fallback := ""
	for _, name := range i.sortedNames {
		for _, use := range i.aliasUsage[name] {
			nu := NormalizePath(use)
			useAgent := agentToolsContext(nu)
			if useAgent == "" && !containsSegment(nu, "tools") {
				continue
			}
			if agent != "" && useAgent == agent {
				return name, true
			}
			if fallback == "" {
				fallback = name
			}
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

func hasKey(m map[string]any, key string) bool {
	v, ok := m[key]
	return ok && v != nil
}
