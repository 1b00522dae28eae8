package refs

import "strings"

// Structural paths are dot-separated section/key/field/array-index strings,
// e.g. "agents.helper.model" or "agents.helper.tools.0". They identify where
// an anchor was defined or aliased in the imported document and where a value
// sits in the document being generated.

// JoinPath appends segments to a base path.
func JoinPath(base string, segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	if base != "" {
		parts = append(parts, base)
	}
	parts = append(parts, segments...)
	return strings.Join(parts, ".")
}

// NormalizePath lowers the path and folds hyphens into underscores so that
// cosmetic key-style differences between the imported document and the edited
// object graph do not break matching.
func NormalizePath(path string) string {
	return strings.ReplaceAll(strings.ToLower(path), "-", "_")
}

func pathSegments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// LastSegment returns the final component of a structural path.
func LastSegment(path string) string {
	segs := pathSegments(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

func lastSegment(path string) string {
	return LastSegment(path)
}

func lastSegments(path string, n int) string {
	segs := pathSegments(path)
	if len(segs) <= n {
		return strings.Join(segs, ".")
	}
	return strings.Join(segs[len(segs)-n:], ".")
}

// isSegmentSuffix reports whether suffix is a whole-segment suffix of path.
func isSegmentSuffix(path, suffix string) bool {
	if suffix == "" {
		return false
	}
	if path == suffix {
		return true
	}
	return strings.HasSuffix(path, "."+suffix)
}

// agentToolsContext extracts the agent key from an "agents.<key>.tools..."
// path, or "" when the path is not inside an agent tool list.
func agentToolsContext(path string) string {
	segs := pathSegments(path)
	for i := 0; i+2 < len(segs); i++ {
		if segs[i] == "agents" && segs[i+2] == "tools" {
			return segs[i+1]
		}
	}
	return ""
}

func containsSegment(path, segment string) bool {
	for _, s := range pathSegments(path) {
		if s == segment {
			return true
		}
	}
	return false
}
