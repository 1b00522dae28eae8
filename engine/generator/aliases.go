package generator

import "regexp"

// The final text pass: internal reference markers become literal YAML alias
// and merge-key syntax. The serializer may have quoted the markers (they are
// arbitrary strings to it), so quoted and unquoted occurrences are both
// handled. After this pass no marker substring may remain in the document.

var (
	mergeMarkerRe = regexp.MustCompile(`['"]?__MERGE__['"]?\s*:\s*['"]?([A-Za-z0-9][A-Za-z0-9_.\-]*)['"]?`)
	refMarkerRe   = regexp.MustCompile(`['"]?__REF__([A-Za-z0-9][A-Za-z0-9_.\-]*)['"]?`)
)

// RewriteAliases converts markers to alias syntax. rename maps a reference
// key to the anchor name declared for it (identity when the document never
// imported a divergent anchor name); passing nil keeps keys as-is.
func RewriteAliases(text string, rename func(string) string) string {
	if rename == nil {
		rename = func(key string) string { return key }
	}
	text = mergeMarkerRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := mergeMarkerRe.FindStringSubmatch(m)
		return "<<: *" + rename(sub[1])
	})
	text = refMarkerRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := refMarkerRe.FindStringSubmatch(m)
		return "*" + rename(sub[1])
	})
	return text
}
