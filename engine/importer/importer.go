package importer

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dao-ai/builder/engine/config"
	"github.com/dao-ai/builder/engine/refs"
)

// Import parses a previously exported (or hand-written) document into the
// denormalized configuration the editor works on, and records every anchor
// definition and alias usage into a fresh reference index. The index is what
// later lets the generator re-derive which embedded copies were originally
// shared references.
func Import(data []byte) (*config.Config, *refs.Index, error) {
	clean := stripCommentLines(string(data))
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(clean), &root); err != nil {
		return nil, nil, &ParseError{Err: err}
	}
	builder := refs.NewBuilder()
	doc := documentRoot(&root)
	if doc != nil {
		walkNode(doc, "", builder)
	}
	raw := make(map[string]any)
	if doc != nil {
		if err := doc.Decode(&raw); err != nil {
			return nil, nil, &ParseError{Err: err}
		}
	}
	cfg, err := configFromRaw(raw)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to map document into configuration")
	}
	return cfg, builder.Build(), nil
}

// ParseError marks a malformed document; the caller surfaces it as a
// structured validation failure rather than a crash.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "yaml parse error: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func stripCommentLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func documentRoot(root *yaml.Node) *yaml.Node {
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		return root.Content[0]
	}
	if root.Kind == 0 {
		return nil
	}
	return root
}

// walkNode records anchors and alias usages with the structural path at which
// they occur.
func walkNode(node *yaml.Node, path string, builder *refs.Builder) {
	if node.Anchor != "" {
		builder.AddAnchor(node.Anchor, path)
	}
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valueNode := node.Content[i], node.Content[i+1]
			if keyNode.Value == "<<" && valueNode.Kind == yaml.AliasNode {
				builder.AddMergeUse(valueNode.Value, path)
				continue
			}
			childPath := refs.JoinPath(path, keyNode.Value)
			if valueNode.Kind == yaml.AliasNode {
				builder.AddAliasUse(valueNode.Value, childPath)
				continue
			}
			walkNode(valueNode, childPath, builder)
		}
	case yaml.SequenceNode:
		for i, item := range node.Content {
			itemPath := refs.JoinPath(path, strconv.Itoa(i))
			if item.Kind == yaml.AliasNode {
				builder.AddAliasUse(item.Value, itemPath)
				continue
			}
			walkNode(item, itemPath, builder)
		}
	}
}

// configFromRaw shapes the decoded document into the editor's aggregate.
// Aliases and merge keys were already resolved by the decoder, which is
// exactly the denormalized form the forms edit.
func configFromRaw(raw map[string]any) (*config.Config, error) {
	cfg := config.New()
	for _, name := range []string{
		config.SectionVariables,
		config.SectionServicePrincipals,
		config.SectionSchemas,
		config.SectionRetrievers,
		config.SectionTools,
		config.SectionGuardrails,
		config.SectionMiddleware,
		config.SectionPrompts,
		config.SectionAgents,
	} {
		sectionRaw, ok := raw[name].(map[string]any)
		if !ok {
			continue
		}
		if err := fillSection(cfg, name, sectionRaw); err != nil {
			return nil, err
		}
	}
	if resources, ok := raw[config.SectionResources].(map[string]any); ok {
		for _, name := range config.ResourceSectionNames() {
			sectionRaw, ok := resources[name].(map[string]any)
			if !ok {
				continue
			}
			if err := fillSection(cfg, name, sectionRaw); err != nil {
				return nil, err
			}
		}
	}
	if memory, ok := raw[config.SectionMemory].(map[string]any); ok {
		cfg.Memory = memory
	}
	if app, ok := raw[config.SectionApp].(map[string]any); ok {
		cfg.App = app
	}
	return cfg, nil
}

func fillSection(cfg *config.Config, name string, sectionRaw map[string]any) error {
	section, err := cfg.EnsureSection(name)
	if err != nil {
		return err
	}
	for key, value := range sectionRaw {
		entity, ok := value.(map[string]any)
		if !ok {
			// Scalar entries (plain variable values) are wrapped so every
			// section stays a uniform key-to-entity mapping; the generator
			// unwraps them on export.
			entity = map[string]any{"value": value}
		}
		section[key] = entity
	}
	return nil
}
