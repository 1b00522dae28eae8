package refs

import "strings"

// The YAML serializer has no concept of "alias this value to a named anchor"
// for objects that are not the same in-memory instance, so the generator
// injects string sentinels into the plain object tree and a final text pass
// rewrites them into literal alias/merge syntax. Markers never survive into
// the emitted document.
const (
	// MarkerPrefix introduces a simple alias marker: __REF__<key>.
	MarkerPrefix = "__REF__"
	// MergeKey is the map key whose value names a merge-key alias target:
	// __MERGE__: <key>  becomes  <<: *<key>.
	MergeKey = "__MERGE__"
)

// Marker returns the alias sentinel for the given reference key.
func Marker(key string) string {
	return MarkerPrefix + key
}

// IsMarker reports whether s is an alias sentinel.
func IsMarker(s string) bool {
	return strings.HasPrefix(s, MarkerPrefix) && len(s) > len(MarkerPrefix)
}

// MarkerTarget extracts the reference key from an alias sentinel.
func MarkerTarget(s string) (string, bool) {
	if !IsMarker(s) {
		return "", false
	}
	return s[len(MarkerPrefix):], true
}

// AliasTarget extracts the reference key from either an alias sentinel or a
// literal "*name" alias string (the form credential fields use by convention).
func AliasTarget(s string) (string, bool) {
	if key, ok := MarkerTarget(s); ok {
		return key, true
	}
	if strings.HasPrefix(s, "*") && len(s) > 1 {
		return s[1:], true
	}
	return "", false
}
