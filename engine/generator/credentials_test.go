package generator

import (
	"testing"

	yaml "github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"

	"github.com/dao-ai/builder/engine/config"
	"github.com/dao-ai/builder/engine/refs"
)

func newTestGenerator(cfg *config.Config) *Generator {
	if cfg == nil {
		cfg = config.New()
	}
	return New(cfg, nil)
}

func TestFormatCredential(t *testing.T) {
	t.Run("Should turn a star reference into a marker when the variable exists", func(t *testing.T) {
		cfg := config.New()
		cfg.Variables["api_key"] = map[string]any{"env": "API_KEY"}
		g := newTestGenerator(cfg)
		assert.Equal(t, refs.Marker("api_key"), g.formatCredential("*api_key"))
	})
	t.Run("Should keep a star reference verbatim when the variable is gone", func(t *testing.T) {
		g := newTestGenerator(nil)
		assert.Equal(t, "*missing", g.formatCredential("*missing"))
	})
	t.Run("Should convert env prefix into an env object", func(t *testing.T) {
		g := newTestGenerator(nil)
		assert.Equal(t,
			yaml.MapSlice{{Key: "env", Value: "DB_PASSWORD"}},
			g.formatCredential("env:DB_PASSWORD"))
	})
	t.Run("Should convert secret prefix into a scope and secret object", func(t *testing.T) {
		g := newTestGenerator(nil)
		assert.Equal(t,
			yaml.MapSlice{{Key: "scope", Value: "prod"}, {Key: "secret", Value: "db-pass"}},
			g.formatCredential("secret:prod/db-pass"))
	})
	t.Run("Should keep a malformed secret reference verbatim", func(t *testing.T) {
		g := newTestGenerator(nil)
		assert.Equal(t, "secret:only-scope", g.formatCredential("secret:only-scope"))
	})
	t.Run("Should emit plain strings verbatim", func(t *testing.T) {
		g := newTestGenerator(nil)
		assert.Equal(t, "literal-password", g.formatCredential("literal-password"))
	})
	t.Run("Should pass structured values through unchanged", func(t *testing.T) {
		g := newTestGenerator(nil)
		v := map[string]any{"scope": "s", "secret": "k"}
		assert.Equal(t, v, g.formatCredential(v))
	})
}

func TestFormatVariable(t *testing.T) {
	t.Run("Should unwrap a scalar value entity", func(t *testing.T) {
		g := newTestGenerator(nil)
		assert.Equal(t, "us-east-1", g.formatVariable(map[string]any{"value": "us-east-1"}))
	})
	t.Run("Should apply credential conventions to the unwrapped scalar", func(t *testing.T) {
		g := newTestGenerator(nil)
		assert.Equal(t,
			yaml.MapSlice{{Key: "env", Value: "REGION"}},
			g.formatVariable(map[string]any{"value": "env:REGION"}))
	})
	t.Run("Should keep an env-shaped variable structured", func(t *testing.T) {
		g := newTestGenerator(nil)
		assert.Equal(t,
			yaml.MapSlice{{Key: "env", Value: "OPENAI_API_KEY"}},
			g.formatVariable(map[string]any{"env": "OPENAI_API_KEY"}))
	})
	t.Run("Should keep a secret-shaped variable structured", func(t *testing.T) {
		g := newTestGenerator(nil)
		assert.Equal(t,
			yaml.MapSlice{{Key: "scope", Value: "prod"}, {Key: "secret", Value: "token"}},
			g.formatVariable(map[string]any{"scope": "prod", "secret": "token"}))
	})
	t.Run("Should format each option of an options variable", func(t *testing.T) {
		g := newTestGenerator(nil)
		got := g.formatVariable(map[string]any{"options": []any{"a", "env:B"}})
		assert.Equal(t, yaml.MapSlice{{
			Key:   "options",
			Value: []any{"a", yaml.MapSlice{{Key: "env", Value: "B"}}},
		}}, got)
	})
}
