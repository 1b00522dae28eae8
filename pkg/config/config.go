package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix scopes the environment variables read by Load.
const EnvPrefix = "DAOB_"

// Config is the application configuration: defaults overlaid with
// DAOB_-prefixed environment variables.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Schema SchemaConfig `koanf:"schema"`
	Assist AssistConfig `koanf:"assist"`
	Log    LogConfig    `koanf:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host             string   `koanf:"host"`
	Port             int      `koanf:"port"               validate:"gte=1,lte=65535"`
	CORSAllowOrigins []string `koanf:"cors_allow_origins"`
}

// SchemaConfig configures where the validation schema is fetched from.
type SchemaConfig struct {
	URL string `koanf:"url" validate:"omitempty,url"`
}

// AssistConfig configures the prompt-assist chat-completions endpoint.
type AssistConfig struct {
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
	Token    string `koanf:"token"`
	Model    string `koanf:"model"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON   bool   `koanf:"json"`
	Source bool   `koanf:"source"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Assist: AssistConfig{
			Model: "databricks-claude-sonnet-4",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults and the environment.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return transformEnvKey(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct-tag constraints.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// transformEnvKey maps SERVER_CORS_ALLOW_ORIGINS to
// server.cors_allow_origins: the first underscore separates the section, the
// rest of the name is kept as the field key.
func transformEnvKey(s string) string {
	s = strings.ToLower(s)
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' })
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + strings.Join(parts[1:], "_")
}
