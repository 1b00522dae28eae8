package generator

import (
	"strings"

	yaml "github.com/goccy/go-yaml"

	"github.com/dao-ai/builder/engine/refs"
)

// Credential and variable values follow a string convention at import/edit
// time: a leading "*" references a configured variable, "env:NAME" converts to
// an environment indirection object, "secret:scope/key" to a secret-store
// indirection object. Anything else is emitted verbatim. Already-structured
// values pass through unchanged.
func (g *Generator) formatCredential(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	switch {
	case strings.HasPrefix(s, "*") && len(s) > 1:
		name := s[1:]
		if _, exists := g.cfg.Variables[name]; exists {
			return refs.Marker(name)
		}
		// The referenced variable no longer exists; keep the literal string
		// so the output never carries a dangling alias.
		return s
	case strings.HasPrefix(s, "env:") && len(s) > len("env:"):
		return yaml.MapSlice{{Key: "env", Value: s[len("env:"):]}}
	case strings.HasPrefix(s, "secret:"):
		rest := s[len("secret:"):]
		scope, key, found := strings.Cut(rest, "/")
		if !found || scope == "" || key == "" {
			return s
		}
		return yaml.MapSlice{
			{Key: "scope", Value: scope},
			{Key: "secret", Value: key},
		}
	default:
		return s
	}
}

// formatVariable emits one entry of the variables section. Scalar variables
// are stored wrapped as {"value": <scalar>} so that the section stays a
// uniform key-to-entity mapping; unwrap them on the way out.
func (g *Generator) formatVariable(value map[string]any) any {
	if len(value) == 1 {
		if v, ok := value["value"]; ok {
			return g.formatCredential(v)
		}
	}
	if env, ok := value["env"].(string); ok && len(value) == 1 {
		return yaml.MapSlice{{Key: "env", Value: env}}
	}
	if scope, ok := value["scope"].(string); ok {
		if secret, ok := value["secret"].(string); ok {
			return yaml.MapSlice{
				{Key: "scope", Value: scope},
				{Key: "secret", Value: secret},
			}
		}
	}
	if opts, ok := value["options"].([]any); ok {
		formatted := make([]any, 0, len(opts))
		for _, opt := range opts {
			formatted = append(formatted, g.formatCredential(opt))
		}
		return yaml.MapSlice{{Key: "options", Value: formatted}}
	}
	return value
}
