package generator

import (
	yaml "github.com/goccy/go-yaml"

	"github.com/dao-ai/builder/engine/refs"
)

func (g *Generator) formatAgent(value map[string]any, path string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "description", value["description"])
	addIf(&out, "model", g.refOrInline(
		refs.JoinPath(path, "model"), value["model"], g.cfg.Resources.LLMs, g.formatLLM))
	if tools, ok := value["tools"].([]any); ok {
		addIf(&out, "tools", g.formatRefList(
			refs.JoinPath(path, "tools"), tools, g.cfg.Tools, "tool"))
	}
	if guardrails, ok := value["guardrails"].([]any); ok {
		addIf(&out, "guardrails", g.formatRefList(
			refs.JoinPath(path, "guardrails"), guardrails, g.cfg.Guardrails, "guardrail"))
	}
	if middleware, ok := value["middleware"].([]any); ok {
		addIf(&out, "middleware", g.formatRefList(
			refs.JoinPath(path, "middleware"), middleware, g.cfg.Middleware, "middleware"))
	}
	addIf(&out, "prompt", g.refOrInline(
		refs.JoinPath(path, "prompt"), value["prompt"], g.cfg.Prompts, g.formatPrompt))
	addIf(&out, "handoff_prompt", value["handoff_prompt"])
	addIf(&out, "response_format", g.formatResponseFormat(
		refs.JoinPath(path, "response_format"), value["response_format"]))
	return out
}

// formatResponseFormat keeps the three authoring modes distinct: a bare
// schema-name string, or a structured object whose use_tool flag is true,
// false, or absent (auto-detect). The flag must only be emitted when the
// author actually set it.
func (g *Generator) formatResponseFormat(path string, value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return v
	case map[string]any:
		out := yaml.MapSlice{}
		addIf(&out, "schema", g.refOrInline(
			refs.JoinPath(path, "schema"), v["schema"], g.cfg.Schemas, g.formatSchema))
		if useTool, ok := v["use_tool"].(bool); ok {
			out = append(out, yaml.MapItem{Key: "use_tool", Value: useTool})
		}
		return out
	default:
		return v
	}
}

// formatMemory emits the memory section. The storage backend type is not an
// explicit field: a checkpointer or store with a database reference is
// persistent, one without is in-memory. Any leftover "type" discriminator
// from older documents is dropped so the inference stays the single source of
// truth.
func (g *Generator) formatMemory(value map[string]any, path string) any {
	out := yaml.MapSlice{}
	if cp, ok := value["checkpointer"].(map[string]any); ok {
		addIf(&out, "checkpointer", g.formatMemoryBackend(cp, refs.JoinPath(path, "checkpointer")))
	}
	if st, ok := value["store"].(map[string]any); ok {
		addIf(&out, "store", g.formatMemoryBackend(st, refs.JoinPath(path, "store")))
	}
	return out
}

func (g *Generator) formatMemoryBackend(value map[string]any, path string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "database", g.refOrInline(
		refs.JoinPath(path, "database"), value["database"], g.cfg.Resources.Databases, g.formatDatabase))
	addIf(&out, "embedding_model", g.refOrInline(
		refs.JoinPath(path, "embedding_model"), value["embedding_model"], g.cfg.Resources.LLMs, g.formatLLM))
	addIf(&out, "dims", value["dims"])
	return out
}

func (g *Generator) formatOrchestration(value map[string]any, path string) any {
	out := yaml.MapSlice{}
	if sup, ok := value["supervisor"].(map[string]any); ok {
		supPath := refs.JoinPath(path, "supervisor")
		supOut := yaml.MapSlice{}
		addIf(&supOut, "name", sup["name"])
		addIf(&supOut, "model", g.refOrInline(
			refs.JoinPath(supPath, "model"), sup["model"], g.cfg.Resources.LLMs, g.formatLLM))
		addIf(&supOut, "prompt", sup["prompt"])
		addIf(&out, "supervisor", supOut)
	}
	if swarm, ok := value["swarm"].(map[string]any); ok {
		addIf(&out, "swarm", g.formatSwarm(swarm, refs.JoinPath(path, "swarm")))
	}
	return out
}

// formatSwarm preserves the tri-state handoff semantics: a nil target list
// means the agent may hand off to any agent, an empty list means it is
// terminal, and a non-empty list enumerates the allowed targets. Collapsing
// nil and empty would silently change routing behavior, so the three shapes
// are emitted distinctly.
func (g *Generator) formatSwarm(swarm map[string]any, path string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", swarm["name"])
	addIf(&out, "default_agent", swarm["default_agent"])
	handoffs, ok := swarm["handoffs"].(map[string]any)
	if !ok {
		return out
	}
	hoOut := yaml.MapSlice{}
	for _, agent := range sortedKeys(handoffs) {
		if _, exists := g.cfg.Agents[agent]; !exists {
			g.log.Warn("dropping handoff entry for deleted agent", "agent", agent, "path", path)
			continue
		}
		switch targets := handoffs[agent].(type) {
		case nil:
			hoOut = append(hoOut, yaml.MapItem{Key: agent, Value: nil})
		case []any:
			kept := make([]any, 0, len(targets))
			for _, target := range targets {
				name, _ := target.(string)
				if name == "" {
					continue
				}
				if _, exists := g.cfg.Agents[name]; !exists {
					g.log.Warn("dropping handoff target for deleted agent", "agent", agent, "target", name)
					continue
				}
				kept = append(kept, name)
			}
			hoOut = append(hoOut, yaml.MapItem{Key: agent, Value: kept})
		default:
			hoOut = append(hoOut, yaml.MapItem{Key: agent, Value: targets})
		}
	}
	out = append(out, yaml.MapItem{Key: "handoffs", Value: hoOut})
	return out
}

// formatApp emits the app section: the terminal consumer of everything else,
// never itself a reference target.
func (g *Generator) formatApp(value map[string]any, path string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "description", value["description"])
	addIf(&out, "log_level", value["log_level"])
	if rm, ok := value["registered_model"].(map[string]any); ok {
		rmPath := refs.JoinPath(path, "registered_model")
		rmOut := yaml.MapSlice{}
		addIf(&rmOut, "name", rm["name"])
		addIf(&rmOut, "schema", g.refOrInline(
			refs.JoinPath(rmPath, "schema"), rm["schema"], g.cfg.Schemas, g.formatSchema))
		addIf(&rmOut, "alias", rm["alias"])
		addIf(&out, "registered_model", rmOut)
	}
	addIf(&out, "endpoint_name", value["endpoint_name"])
	addIf(&out, "tags", value["tags"])
	if agents, ok := value["agents"].([]any); ok {
		addIf(&out, "agents", g.formatRefList(
			refs.JoinPath(path, "agents"), agents, g.cfg.Agents, "agent"))
	}
	if orch, ok := value["orchestration"].(map[string]any); ok {
		addIf(&out, "orchestration", g.formatOrchestration(orch, refs.JoinPath(path, "orchestration")))
	}
	addIf(&out, "permissions", value["permissions"])
	return out
}
