package generator

import (
	"regexp"
	"strings"

	"github.com/dao-ai/builder/engine/config"
	"github.com/dao-ai/builder/engine/refs"
)

// The serializer emits an anchor-free document; this pass re-introduces
// &anchor declarations onto section entries. Two linear scans: one to collect
// which keys the document actually references (markers have not been
// rewritten yet at this point), one over the lines inserting anchors.

var (
	refMarkerScanRe   = regexp.MustCompile(`__REF__([A-Za-z0-9][A-Za-z0-9_.\-]*)`)
	mergeMarkerScanRe = regexp.MustCompile(`['"]?__MERGE__['"]?\s*:\s*['"]?([A-Za-z0-9][A-Za-z0-9_.\-]*)['"]?`)
	keyLineRe         = regexp.MustCompile(`^(\s*)([A-Za-z0-9_.\-]+):(.*)$`)
)

// Sections whose direct children are always anchored: they exist to be
// referenced, and a stable anchor on each entry keeps aliases possible after
// any future edit.
func sectionAlwaysAnchored(name string) bool {
	switch name {
	case config.SectionVariables,
		config.SectionServicePrincipals,
		config.SectionSchemas,
		config.SectionRetrievers,
		config.SectionTools,
		config.SectionGuardrails,
		config.SectionMiddleware,
		config.SectionPrompts,
		config.SectionAgents,
		config.ResourceLLMs,
		config.ResourceVectorStores,
		config.ResourceDatabases:
		return true
	default:
		return false
	}
}

// Resource-definition-only subsections hold descriptive catalog listings.
// Anchoring every entry would be visual noise, so entries are anchored only
// when the original import anchored them or something in the generated
// document references them.
func sectionConditionallyAnchored(name string) bool {
	switch name {
	case config.ResourceGenieRooms,
		config.ResourceTables,
		config.ResourceVolumes,
		config.ResourceFunctions,
		config.ResourceWarehouses,
		config.ResourceConnections,
		config.ResourceApps:
		return true
	default:
		return false
	}
}

func (g *Generator) synthesizeAnchors(text string) string {
	referenced := collectReferencedKeys(text)
	originalByPath := make(map[string]string, g.idx.Len())
	for _, name := range g.idx.AnchorNames() {
		path, _ := g.idx.AnchorPath(name)
		originalByPath[refs.NormalizePath(path)] = name
	}

	lines := strings.Split(text, "\n")
	section := ""
	subsection := ""
	for i, line := range lines {
		m := keyLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		indent, key, rest := len(m[1]), m[2], m[3]
		switch {
		case indent == 0:
			section, subsection = key, ""
			if key == config.SectionMemory {
				// The memory section is a singleton referenced as one unit,
				// so the anchor goes on the section key itself.
				lines[i] = g.insertAnchor(line, key, rest)
			}
		case indent == 2 && section == config.SectionResources:
			subsection = key
		case indent == 2:
			lines[i] = g.anchorChild(line, section, key, rest, "", referenced, originalByPath)
		case indent == 4 && section == config.SectionResources && subsection != "":
			lines[i] = g.anchorChild(line, subsection, key, rest, config.SectionResources, referenced, originalByPath)
		}
	}
	return strings.Join(lines, "\n")
}

// anchorChild decides whether one direct-child entry line gets an anchor.
func (g *Generator) anchorChild(
	line, section, key, rest, parent string,
	referenced map[string]bool,
	originalByPath map[string]string,
) string {
	if section == config.SectionApp || section == config.SectionMemory {
		// app is the terminal consumer and never a reference target; memory
		// children live under the section-level anchor.
		return line
	}
	entryPath := refs.JoinPath(section, key)
	if parent != "" {
		entryPath = refs.JoinPath(parent, section, key)
	}
	_, originallyAnchored := originalByPath[refs.NormalizePath(entryPath)]
	switch {
	case sectionAlwaysAnchored(section):
		// Scalar-valued entries (a variable with an inline value) are only
		// anchored when something aliases them; anchoring every scalar would
		// clutter the document, but a referenced one must carry its anchor
		// so the alias has a target.
		if strings.TrimSpace(rest) != "" && !referenced[key] && !originallyAnchored {
			return line
		}
		return g.insertAnchor(line, key, rest)
	case sectionConditionallyAnchored(section):
		if referenced[key] || originallyAnchored {
			return g.insertAnchor(line, key, rest)
		}
		return line
	default:
		return line
	}
}

// insertAnchor places "&name" directly after the entry's colon, preserving
// any inline scalar value. Lines that already carry an anchor are left alone.
func (g *Generator) insertAnchor(line, key, rest string) string {
	if strings.Contains(rest, "&") {
		return line
	}
	name := g.anchorNameFor(key)
	head := strings.TrimSuffix(line, rest)
	if strings.TrimSpace(rest) == "" {
		return head + " &" + name
	}
	return head + " &" + name + " " + strings.TrimSpace(rest)
}

// collectReferencedKeys scans the still-marked document for every reference
// target, by alias marker or merge marker.
func collectReferencedKeys(text string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range refMarkerScanRe.FindAllStringSubmatch(text, -1) {
		out[m[1]] = true
	}
	for _, m := range mergeMarkerScanRe.FindAllStringSubmatch(text, -1) {
		out[m[1]] = true
	}
	return out
}
