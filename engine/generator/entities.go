package generator

import (
	yaml "github.com/goccy/go-yaml"

	"github.com/dao-ai/builder/engine/config"
	"github.com/dao-ai/builder/engine/refs"
)

// Each formatter converts one denormalized entity into its canonical nested
// form, deciding per reference-bearing field whether to emit an inline value
// or an alias marker. Output is insertion-ordered (yaml.MapSlice) and trimmed
// to the fields meaningful for the entity kind; absent fields are omitted.

func addIf(out *yaml.MapSlice, key string, v any) {
	if v == nil {
		return
	}
	*out = append(*out, yaml.MapItem{Key: key, Value: v})
}

// refOrInline emits a marker when the field value resolves to a candidate,
// otherwise the inline form produced by the provided formatter.
func (g *Generator) refOrInline(
	path string,
	value any,
	candidates config.Section,
	inline func(map[string]any, string) any,
) any {
	if value == nil {
		return nil
	}
	if key, ok := g.resolveReference(path, value, candidates); ok {
		return refs.Marker(key)
	}
	if m, ok := value.(map[string]any); ok && inline != nil {
		return inline(m, path)
	}
	return value
}

func (g *Generator) formatSchema(value map[string]any, _ string) any {
	out := yaml.MapSlice{}
	addIf(&out, "catalog_name", value["catalog_name"])
	addIf(&out, "schema_name", value["schema_name"])
	addIf(&out, "permissions", value["permissions"])
	return out
}

func (g *Generator) formatLLM(value map[string]any, path string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "provider", value["provider"])
	addIf(&out, "temperature", value["temperature"])
	addIf(&out, "max_tokens", value["max_tokens"])
	addIf(&out, "top_p", value["top_p"])
	if fallbacks, ok := value["fallbacks"].([]any); ok {
		addIf(&out, "fallbacks", g.formatRefList(
			refs.JoinPath(path, "fallbacks"), fallbacks, g.cfg.Resources.LLMs, "llm fallback"))
	}
	return out
}

func (g *Generator) formatDatabase(value map[string]any, _ string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "instance_name", value["instance_name"])
	if v, ok := value["host"]; ok {
		addIf(&out, "host", g.formatCredential(v))
	}
	addIf(&out, "port", value["port"])
	addIf(&out, "database", value["database"])
	if v, ok := value["user"]; ok {
		addIf(&out, "user", g.formatCredential(v))
	}
	if v, ok := value["password"]; ok {
		addIf(&out, "password", g.formatCredential(v))
	}
	if v, ok := value["client_id"]; ok {
		addIf(&out, "client_id", g.formatCredential(v))
	}
	if v, ok := value["client_secret"]; ok {
		addIf(&out, "client_secret", g.formatCredential(v))
	}
	return out
}

func (g *Generator) formatVectorStore(value map[string]any, path string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "endpoint", value["endpoint"])
	addIf(&out, "index", value["index"])
	addIf(&out, "embedding_model", value["embedding_model"])
	addIf(&out, "source_table", value["source_table"])
	addIf(&out, "schema", g.refOrInline(
		refs.JoinPath(path, "schema"), value["schema"], g.cfg.Schemas, g.formatSchema))
	addIf(&out, "columns", value["columns"])
	addIf(&out, "primary_key", value["primary_key"])
	addIf(&out, "doc_uri", value["doc_uri"])
	return out
}

func (g *Generator) formatGenieRoom(value map[string]any, _ string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "space_id", value["space_id"])
	addIf(&out, "description", value["description"])
	return out
}

func (g *Generator) formatCatalogObject(value map[string]any, _ string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	return out
}

func (g *Generator) formatWarehouse(value map[string]any, _ string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "warehouse_id", value["warehouse_id"])
	return out
}

func (g *Generator) formatConnection(value map[string]any, _ string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "url", value["url"])
	return out
}

func (g *Generator) formatWorkspaceApp(value map[string]any, _ string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "url", value["url"])
	addIf(&out, "description", value["description"])
	for _, field := range []string{"client_id", "client_secret", "pat", "workspace_host"} {
		if v, ok := value[field]; ok {
			addIf(&out, field, g.formatCredential(v))
		}
	}
	return out
}

func (g *Generator) formatServicePrincipal(value map[string]any, _ string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	if v, ok := value["client_id"]; ok {
		addIf(&out, "client_id", g.formatCredential(v))
	}
	if v, ok := value["client_secret"]; ok {
		addIf(&out, "client_secret", g.formatCredential(v))
	}
	return out
}

func (g *Generator) formatTool(value map[string]any, path string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "description", value["description"])
	if fn, ok := value["function"].(map[string]any); ok {
		addIf(&out, "function", g.formatToolFunction(fn, refs.JoinPath(path, "function")))
	}
	return out
}

func (g *Generator) formatToolFunction(fn map[string]any, path string) any {
	out := yaml.MapSlice{}
	addIf(&out, "type", fn["type"])
	addIf(&out, "name", fn["name"])
	addIf(&out, "schema", g.refOrInline(
		refs.JoinPath(path, "schema"), fn["schema"], g.cfg.Schemas, g.formatSchema))
	addIf(&out, "genie_room", g.refOrInline(
		refs.JoinPath(path, "genie_room"), fn["genie_room"], g.cfg.Resources.GenieRooms, g.formatGenieRoom))
	addIf(&out, "vector_store", g.refOrInline(
		refs.JoinPath(path, "vector_store"), fn["vector_store"], g.cfg.Resources.VectorStores, g.formatVectorStore))
	addIf(&out, "warehouse", g.refOrInline(
		refs.JoinPath(path, "warehouse"), fn["warehouse"], g.cfg.Resources.Warehouses, g.formatWarehouse))
	addIf(&out, "connection", g.refOrInline(
		refs.JoinPath(path, "connection"), fn["connection"], g.cfg.Resources.Connections, g.formatConnection))
	addIf(&out, "columns", fn["columns"])
	addIf(&out, "parameters", fn["parameters"])
	return out
}

func (g *Generator) formatRetriever(value map[string]any, path string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "description", value["description"])
	addIf(&out, "vector_store", g.refOrInline(
		refs.JoinPath(path, "vector_store"), value["vector_store"], g.cfg.Resources.VectorStores, g.formatVectorStore))
	addIf(&out, "columns", value["columns"])
	if sp, ok := value["search_parameters"].(map[string]any); ok {
		out2 := yaml.MapSlice{}
		addIf(&out2, "num_results", sp["num_results"])
		addIf(&out2, "query_type", sp["query_type"])
		addIf(&out2, "filters", sp["filters"])
		if len(out2) > 0 {
			addIf(&out, "search_parameters", out2)
		}
	}
	return out
}

func (g *Generator) formatGuardrail(value map[string]any, path string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "description", value["description"])
	addIf(&out, "model", g.refOrInline(
		refs.JoinPath(path, "model"), value["model"], g.cfg.Resources.LLMs, g.formatLLM))
	addIf(&out, "prompt", value["prompt"])
	addIf(&out, "num_retries", value["num_retries"])
	return out
}

func (g *Generator) formatMiddleware(value map[string]any, path string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "description", value["description"])
	addIf(&out, "model", g.refOrInline(
		refs.JoinPath(path, "model"), value["model"], g.cfg.Resources.LLMs, g.formatLLM))
	addIf(&out, "function", g.refOrInline(
		refs.JoinPath(path, "function"), value["function"], g.cfg.Tools, g.formatTool))
	return out
}

func (g *Generator) formatPrompt(value map[string]any, path string) any {
	out := yaml.MapSlice{}
	addIf(&out, "name", value["name"])
	addIf(&out, "description", value["description"])
	addIf(&out, "prompt", value["prompt"])
	addIf(&out, "alias", value["alias"])
	addIf(&out, "version", value["version"])
	addIf(&out, "schema", g.refOrInline(
		refs.JoinPath(path, "schema"), value["schema"], g.cfg.Schemas, g.formatSchema))
	addIf(&out, "template_parameters", value["template_parameters"])
	return out
}

// formatRefList emits an array of reference markers. Entries that cannot be
// resolved to any currently-defined entity are dropped with a diagnostic
// rather than failing the generation: the user may have deleted the target
// after it was attached here.
func (g *Generator) formatRefList(path string, items []any, candidates config.Section, kind string) any {
	if items == nil {
		return nil
	}
	out := make([]any, 0, len(items))
	for i, item := range items {
		itemPath := refs.JoinPath(path, itemIndex(i))
		if key, ok := g.resolveReference(itemPath, item, candidates); ok {
			out = append(out, refs.Marker(key))
			continue
		}
		if s, ok := item.(string); ok {
			if _, exists := candidates[s]; exists {
				out = append(out, refs.Marker(s))
				continue
			}
		}
		g.log.Warn("dropping unresolvable reference", "kind", kind, "path", itemPath)
	}
	if len(out) == 0 && len(items) > 0 {
		return []any{}
	}
	return out
}
