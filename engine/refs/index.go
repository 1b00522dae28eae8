package refs

import "sort"

// Index records, for one imported document, where every anchor was defined
// and where every alias was used. It is built once per import, is immutable
// afterwards, and is passed explicitly into each generation pass; re-importing
// a document replaces the whole index rather than merging into it.
type Index struct {
	anchorPaths        map[string]string
	aliasUsage         map[string][]string
	mergeUsage         map[string]string
	pathSuffixToAnchor map[string]string
	sortedNames        []string
}

// Empty returns an index with no recorded anchors. Generating a document that
// was never imported uses this; every reference decision then falls through
// to the structural strategies of the formatters.
func Empty() *Index {
	return NewBuilder().Build()
}

// Builder accumulates anchor definitions and alias usages during an import
// walk and freezes them into an Index.
type Builder struct {
	anchorPaths map[string]string
	aliasUsage  map[string][]string
	mergeUsage  map[string]string
}

func NewBuilder() *Builder {
	return &Builder{
		anchorPaths: make(map[string]string),
		aliasUsage:  make(map[string][]string),
		mergeUsage:  make(map[string]string),
	}
}

// AddAnchor records the structural path at which the named anchor is defined.
// The first definition wins; YAML re-definitions of the same anchor name are
// rare and the earliest occurrence is the one aliases before the
// re-definition resolve to.
func (b *Builder) AddAnchor(name, path string) {
	if name == "" {
		return
	}
	if _, ok := b.anchorPaths[name]; !ok {
		b.anchorPaths[name] = path
	}
}

// AddAliasUse records one usage site of the named anchor.
func (b *Builder) AddAliasUse(name, path string) {
	if name == "" {
		return
	}
	b.aliasUsage[name] = append(b.aliasUsage[name], path)
}

// AddMergeUse records that the mapping at path spliced the named anchor in
// via a YAML merge key (<<: *name).
func (b *Builder) AddMergeUse(name, path string) {
	if name == "" {
		return
	}
	if _, ok := b.mergeUsage[NormalizePath(path)]; !ok {
		b.mergeUsage[NormalizePath(path)] = name
	}
}

// Build freezes the recorded entries. Alias usages whose anchor was never
// defined are dropped: a dangling alias must never become a reference in the
// regenerated document, so those sites fall back to inline emission.
func (b *Builder) Build() *Index {
	idx := &Index{
		anchorPaths:        make(map[string]string, len(b.anchorPaths)),
		aliasUsage:         make(map[string][]string, len(b.aliasUsage)),
		mergeUsage:         make(map[string]string, len(b.mergeUsage)),
		pathSuffixToAnchor: make(map[string]string),
	}
	for name, path := range b.anchorPaths {
		idx.anchorPaths[name] = path
	}
	for path, name := range b.mergeUsage {
		if _, ok := b.anchorPaths[name]; !ok {
			continue
		}
		idx.mergeUsage[path] = name
	}
	for name, uses := range b.aliasUsage {
		if _, ok := b.anchorPaths[name]; !ok {
			continue
		}
		cp := make([]string, len(uses))
		copy(cp, uses)
		idx.aliasUsage[name] = cp
	}
	names := make([]string, 0, len(idx.anchorPaths))
	for name := range idx.anchorPaths {
		names = append(names, name)
	}
	sort.Strings(names)
	idx.sortedNames = names
	// Suffix index over usage sites: the last one or two path segments of a
	// usage are a cheap fingerprint for "a value in this field position was
	// an alias to this anchor".
	for _, name := range names {
		for _, use := range idx.aliasUsage[name] {
			norm := NormalizePath(use)
			for _, n := range []int{1, 2} {
				suffix := lastSegments(norm, n)
				if suffix == "" {
					continue
				}
				if _, taken := idx.pathSuffixToAnchor[suffix]; !taken {
					idx.pathSuffixToAnchor[suffix] = name
				}
			}
		}
	}
	return idx
}

// AnchorPath returns the defining path of a known anchor name.
func (i *Index) AnchorPath(name string) (string, bool) {
	path, ok := i.anchorPaths[name]
	return path, ok
}

// HasAnchor reports whether the name was an anchor in the imported document.
func (i *Index) HasAnchor(name string) bool {
	_, ok := i.anchorPaths[name]
	return ok
}

// AnchorNames returns all known anchor names in deterministic order.
func (i *Index) AnchorNames() []string {
	return i.sortedNames
}

// UsagePaths returns the recorded alias-usage sites of the named anchor.
func (i *Index) UsagePaths(name string) []string {
	return i.aliasUsage[name]
}

// MergeBaseFor returns the anchor name that the mapping at path originally
// spliced in via a merge key.
func (i *Index) MergeBaseFor(path string) (string, bool) {
	name, ok := i.mergeUsage[NormalizePath(path)]
	return name, ok
}

// Len reports the number of recorded anchors.
func (i *Index) Len() int {
	return len(i.anchorPaths)
}
