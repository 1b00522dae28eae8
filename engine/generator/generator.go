package generator

import (
	"context"
	"fmt"
	"strconv"

	yaml "github.com/goccy/go-yaml"

	"github.com/dao-ai/builder/engine/config"
	"github.com/dao-ai/builder/engine/core"
	"github.com/dao-ai/builder/engine/refs"
	"github.com/dao-ai/builder/pkg/logger"
)

// Generator turns one denormalized configuration into the canonical YAML
// document, re-deriving the anchor/alias relationships the editor flattened
// away. A Generator holds an immutable snapshot (config + import-time index)
// and is pure with respect to it: generating twice yields identical output.
type Generator struct {
	cfg *config.Config
	idx *refs.Index
	log logger.Logger
	// keyAnchors maps a section key to the anchor name the imported document
	// used for it, when those differ. Reusing the original name keeps
	// round-trips stable.
	keyAnchors map[string]string
}

// New builds a Generator over the given configuration and reference index.
// A nil index behaves like an import-free session.
func New(cfg *config.Config, idx *refs.Index) *Generator {
	if idx == nil {
		idx = refs.Empty()
	}
	g := &Generator{cfg: cfg, idx: idx, log: logger.NewNop(), keyAnchors: make(map[string]string)}
	for _, name := range idx.AnchorNames() {
		path, _ := idx.AnchorPath(name)
		key := refs.LastSegment(path)
		if key == "" || key == name {
			continue
		}
		if _, taken := g.keyAnchors[key]; !taken {
			g.keyAnchors[key] = name
		}
	}
	return g
}

// anchorNameFor returns the anchor name to use for a section key.
func (g *Generator) anchorNameFor(key string) string {
	if name, ok := g.keyAnchors[key]; ok {
		return name
	}
	return key
}

// GenerateYAML walks the configuration section by section in fixed dependency
// order, serializes the resulting plain object, then runs the anchor
// synthesizer and the alias rewriter over the text. The order is a design
// invariant: every section is emitted before the sections that may reference
// it, so every alias in the output is preceded by its anchor.
func (g *Generator) GenerateYAML(ctx context.Context) (string, error) {
	g.log = logger.FromContext(ctx)
	doc := yaml.MapSlice{}

	appendSection(&doc, config.SectionVariables, g.buildVariables())
	appendSection(&doc, config.SectionServicePrincipals,
		g.buildKeyedSection(config.SectionServicePrincipals, g.cfg.ServicePrincipals, g.formatServicePrincipal))
	appendSection(&doc, config.SectionSchemas,
		g.buildKeyedSection(config.SectionSchemas, g.cfg.Schemas, g.formatSchema))
	appendSection(&doc, config.SectionResources, g.buildResources())
	appendSection(&doc, config.SectionRetrievers,
		g.buildKeyedSection(config.SectionRetrievers, g.cfg.Retrievers, g.formatRetriever))
	appendSection(&doc, config.SectionTools,
		g.buildKeyedSection(config.SectionTools, g.cfg.Tools, g.formatTool))
	appendSection(&doc, config.SectionGuardrails,
		g.buildKeyedSection(config.SectionGuardrails, g.cfg.Guardrails, g.formatGuardrail))
	if len(g.cfg.Memory) > 0 {
		if memory, ok := g.formatMemory(g.cfg.Memory, config.SectionMemory).(yaml.MapSlice); ok && len(memory) > 0 {
			doc = append(doc, yaml.MapItem{Key: config.SectionMemory, Value: memory})
		}
	}
	appendSection(&doc, config.SectionPrompts,
		g.buildKeyedSection(config.SectionPrompts, g.cfg.Prompts, g.formatPrompt))
	appendSection(&doc, config.SectionMiddleware,
		g.buildKeyedSection(config.SectionMiddleware, g.cfg.Middleware, g.formatMiddleware))
	appendSection(&doc, config.SectionAgents,
		g.buildKeyedSection(config.SectionAgents, g.cfg.Agents, g.formatAgent))
	if g.appReady() {
		if app, ok := g.formatApp(g.cfg.App, config.SectionApp).(yaml.MapSlice); ok && len(app) > 0 {
			doc = append(doc, yaml.MapItem{Key: config.SectionApp, Value: app})
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to serialize configuration: %w", err)
	}
	text := g.synthesizeAnchors(string(data))
	text = RewriteAliases(text, g.anchorNameFor)
	return text, nil
}

// appReady reports whether the app section is complete enough to export:
// anything short of a name plus a registered-model name is an in-progress
// configuration and is left out entirely.
func (g *Generator) appReady() bool {
	name, _ := g.cfg.App["name"].(string)
	if name == "" {
		return false
	}
	rm, _ := g.cfg.App["registered_model"].(map[string]any)
	rmName, _ := rm["name"].(string)
	return rmName != ""
}

func appendSection(doc *yaml.MapSlice, name string, section yaml.MapSlice) {
	if len(section) == 0 {
		return
	}
	*doc = append(*doc, yaml.MapItem{Key: name, Value: section})
}

func (g *Generator) buildVariables() yaml.MapSlice {
	out := yaml.MapSlice{}
	for _, key := range sortedKeys(g.cfg.Variables) {
		out = append(out, yaml.MapItem{Key: key, Value: g.formatVariable(g.cfg.Variables[key])})
	}
	return out
}

func (g *Generator) buildResources() yaml.MapSlice {
	out := yaml.MapSlice{}
	formatters := map[string]func(map[string]any, string) any{
		config.ResourceLLMs:         g.formatLLM,
		config.ResourceVectorStores: g.formatVectorStore,
		config.ResourceGenieRooms:   g.formatGenieRoom,
		config.ResourceTables:       g.formatCatalogObject,
		config.ResourceVolumes:      g.formatCatalogObject,
		config.ResourceFunctions:    g.formatCatalogObject,
		config.ResourceWarehouses:   g.formatWarehouse,
		config.ResourceConnections:  g.formatConnection,
		config.ResourceDatabases:    g.formatDatabase,
		config.ResourceApps:         g.formatWorkspaceApp,
	}
	for _, name := range config.ResourceSectionNames() {
		section, _ := g.cfg.SectionMap(name)
		built := g.buildKeyedSection(name, section, formatters[name])
		if len(built) > 0 {
			out = append(out, yaml.MapItem{Key: name, Value: built})
		}
	}
	return out
}

// buildKeyedSection formats every entity of one keyed section in
// deterministic key order, re-introducing merge-key splices recorded at
// import time.
func (g *Generator) buildKeyedSection(
	name string,
	section config.Section,
	format func(map[string]any, string) any,
) yaml.MapSlice {
	out := yaml.MapSlice{}
	base := name
	if config.IsResourceSection(name) {
		base = refs.JoinPath(config.SectionResources, name)
	}
	for _, key := range sortedKeys(section) {
		path := refs.JoinPath(base, key)
		out = append(out, yaml.MapItem{
			Key:   key,
			Value: g.formatEntityWithMerge(section, key, path, format),
		})
	}
	return out
}

// formatEntityWithMerge re-derives a merge-key splice: when the imported
// document built this entity as <<: *base plus overrides, emit the merge
// marker followed by only the fields that differ from the base entity.
func (g *Generator) formatEntityWithMerge(
	section config.Section,
	key string,
	path string,
	format func(map[string]any, string) any,
) any {
	value := section[key]
	baseKey, ok := g.idx.MergeBaseFor(path)
	if !ok || baseKey == key {
		return format(value, path)
	}
	base, exists := section[baseKey]
	if !exists {
		g.log.Warn("merge base no longer exists; emitting entity inline", "path", path, "base", baseKey)
		return format(value, path)
	}
	override := make(map[string]any, len(value))
	for fieldKey, fieldValue := range value {
		if baseValue, has := base[fieldKey]; has && core.StableEqual(fieldValue, baseValue) {
			continue
		}
		override[fieldKey] = fieldValue
	}
	formatted, isSlice := format(override, path).(yaml.MapSlice)
	if !isSlice {
		return format(value, path)
	}
	merged := yaml.MapSlice{{Key: refs.MergeKey, Value: baseKey}}
	return append(merged, formatted...)
}

func itemIndex(i int) string {
	return strconv.Itoa(i)
}
