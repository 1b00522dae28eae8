package config

import (
	"fmt"

	"github.com/dao-ai/builder/engine/core"
)

// Section is one keyed collection of denormalized entities. The key is the
// user-chosen reference key, unique across the whole configuration; it doubles
// as the preferred anchor name on export.
type Section map[string]map[string]any

// Resources groups the cloud-resource subsections of the document.
type Resources struct {
	LLMs         Section `yaml:"llms,omitempty"          json:"llms,omitempty"`
	VectorStores Section `yaml:"vector_stores,omitempty" json:"vector_stores,omitempty"`
	GenieRooms   Section `yaml:"genie_rooms,omitempty"   json:"genie_rooms,omitempty"`
	Tables       Section `yaml:"tables,omitempty"        json:"tables,omitempty"`
	Volumes      Section `yaml:"volumes,omitempty"       json:"volumes,omitempty"`
	Functions    Section `yaml:"functions,omitempty"     json:"functions,omitempty"`
	Warehouses   Section `yaml:"warehouses,omitempty"    json:"warehouses,omitempty"`
	Connections  Section `yaml:"connections,omitempty"   json:"connections,omitempty"`
	Databases    Section `yaml:"databases,omitempty"     json:"databases,omitempty"`
	Apps         Section `yaml:"apps,omitempty"          json:"apps,omitempty"`
}

// Config is the root aggregate the editor mutates. Entities are held in the
// denormalized, form-friendly shape: every cross-entity reference has been
// resolved into an embedded copy of its target. The generator is responsible
// for re-deriving which of those copies were aliases.
type Config struct {
	Variables         Section        `yaml:"variables,omitempty"          json:"variables,omitempty"`
	ServicePrincipals Section        `yaml:"service_principals,omitempty" json:"service_principals,omitempty"`
	Schemas           Section        `yaml:"schemas,omitempty"            json:"schemas,omitempty"`
	Resources         Resources      `yaml:"resources,omitempty"          json:"resources,omitempty"`
	Retrievers        Section        `yaml:"retrievers,omitempty"         json:"retrievers,omitempty"`
	Tools             Section        `yaml:"tools,omitempty"              json:"tools,omitempty"`
	Guardrails        Section        `yaml:"guardrails,omitempty"         json:"guardrails,omitempty"`
	Middleware        Section        `yaml:"middleware,omitempty"         json:"middleware,omitempty"`
	Memory            map[string]any `yaml:"memory,omitempty"             json:"memory,omitempty"`
	Prompts           Section        `yaml:"prompts,omitempty"            json:"prompts,omitempty"`
	Agents            Section        `yaml:"agents,omitempty"             json:"agents,omitempty"`
	App               map[string]any `yaml:"app,omitempty"                json:"app,omitempty"`
}

// Top-level section names, in document/generation order. Resource subsections
// are addressed by their own names (llms, vector_stores, ...).
const (
	SectionVariables         = "variables"
	SectionServicePrincipals = "service_principals"
	SectionSchemas           = "schemas"
	SectionResources         = "resources"
	SectionRetrievers        = "retrievers"
	SectionTools             = "tools"
	SectionGuardrails        = "guardrails"
	SectionMiddleware        = "middleware"
	SectionMemory            = "memory"
	SectionPrompts           = "prompts"
	SectionAgents            = "agents"
	SectionApp               = "app"
)

const (
	ResourceLLMs         = "llms"
	ResourceVectorStores = "vector_stores"
	ResourceGenieRooms   = "genie_rooms"
	ResourceTables       = "tables"
	ResourceVolumes      = "volumes"
	ResourceFunctions    = "functions"
	ResourceWarehouses   = "warehouses"
	ResourceConnections  = "connections"
	ResourceDatabases    = "databases"
	ResourceApps         = "apps"
)

// ResourceSectionNames lists resource subsections in document order.
func ResourceSectionNames() []string {
	return []string{
		ResourceLLMs,
		ResourceVectorStores,
		ResourceGenieRooms,
		ResourceTables,
		ResourceVolumes,
		ResourceFunctions,
		ResourceWarehouses,
		ResourceConnections,
		ResourceDatabases,
		ResourceApps,
	}
}

// KeyedSectionNames lists every keyed-entity section, resource subsections
// included. Memory and app are singletons and not part of this list.
func KeyedSectionNames() []string {
	names := []string{
		SectionVariables,
		SectionServicePrincipals,
		SectionSchemas,
	}
	names = append(names, ResourceSectionNames()...)
	return append(names,
		SectionRetrievers,
		SectionTools,
		SectionGuardrails,
		SectionMiddleware,
		SectionPrompts,
		SectionAgents,
	)
}

// IsResourceSection reports whether name addresses a resources subsection.
func IsResourceSection(name string) bool {
	for _, n := range ResourceSectionNames() {
		if n == name {
			return true
		}
	}
	return false
}

// New returns an empty configuration with all keyed sections allocated.
func New() *Config {
	cfg := &Config{}
	for _, name := range KeyedSectionNames() {
		if s, ok := cfg.SectionMap(name); ok && s == nil {
			cfg.setSection(name, Section{})
		}
	}
	return cfg
}

// SectionMap returns the keyed section addressed by name. The second result
// is false when name is not a keyed section (memory, app, unknown names).
func (c *Config) SectionMap(name string) (Section, bool) {
	switch name {
	case SectionVariables:
		return c.Variables, true
	case SectionServicePrincipals:
		return c.ServicePrincipals, true
	case SectionSchemas:
		return c.Schemas, true
	case SectionRetrievers:
		return c.Retrievers, true
	case SectionTools:
		return c.Tools, true
	case SectionGuardrails:
		return c.Guardrails, true
	case SectionMiddleware:
		return c.Middleware, true
	case SectionPrompts:
		return c.Prompts, true
	case SectionAgents:
		return c.Agents, true
	case ResourceLLMs:
		return c.Resources.LLMs, true
	case ResourceVectorStores:
		return c.Resources.VectorStores, true
	case ResourceGenieRooms:
		return c.Resources.GenieRooms, true
	case ResourceTables:
		return c.Resources.Tables, true
	case ResourceVolumes:
		return c.Resources.Volumes, true
	case ResourceFunctions:
		return c.Resources.Functions, true
	case ResourceWarehouses:
		return c.Resources.Warehouses, true
	case ResourceConnections:
		return c.Resources.Connections, true
	case ResourceDatabases:
		return c.Resources.Databases, true
	case ResourceApps:
		return c.Resources.Apps, true
	default:
		return nil, false
	}
}

func (c *Config) setSection(name string, s Section) {
	switch name {
	case SectionVariables:
		c.Variables = s
	case SectionServicePrincipals:
		c.ServicePrincipals = s
	case SectionSchemas:
		c.Schemas = s
	case SectionRetrievers:
		c.Retrievers = s
	case SectionTools:
		c.Tools = s
	case SectionGuardrails:
		c.Guardrails = s
	case SectionMiddleware:
		c.Middleware = s
	case SectionPrompts:
		c.Prompts = s
	case SectionAgents:
		c.Agents = s
	case ResourceLLMs:
		c.Resources.LLMs = s
	case ResourceVectorStores:
		c.Resources.VectorStores = s
	case ResourceGenieRooms:
		c.Resources.GenieRooms = s
	case ResourceTables:
		c.Resources.Tables = s
	case ResourceVolumes:
		c.Resources.Volumes = s
	case ResourceFunctions:
		c.Resources.Functions = s
	case ResourceWarehouses:
		c.Resources.Warehouses = s
	case ResourceConnections:
		c.Resources.Connections = s
	case ResourceDatabases:
		c.Resources.Databases = s
	case ResourceApps:
		c.Resources.Apps = s
	}
}

// EnsureSection returns the keyed section addressed by name, allocating it
// when nil. An error is returned for unknown or singleton section names.
func (c *Config) EnsureSection(name string) (Section, error) {
	s, ok := c.SectionMap(name)
	if !ok {
		return nil, fmt.Errorf("unknown section %q", name)
	}
	if s == nil {
		s = Section{}
		c.setSection(name, s)
	}
	return s, nil
}

// FindKey reports the section currently holding the given reference key.
// Reference keys are unique across the whole configuration; this supports
// enforcing that invariant at entity-edit time.
func (c *Config) FindKey(key string) (string, bool) {
	for _, name := range KeyedSectionNames() {
		s, _ := c.SectionMap(name)
		if _, ok := s[key]; ok {
			return name, true
		}
	}
	return "", false
}

// DeepCopy returns an isolated copy of the whole configuration.
func (c *Config) DeepCopy() (*Config, error) {
	out := &Config{}
	for _, name := range KeyedSectionNames() {
		src, _ := c.SectionMap(name)
		if src == nil {
			continue
		}
		cp, err := core.CopySection(src)
		if err != nil {
			return nil, fmt.Errorf("failed to copy section %q: %w", name, err)
		}
		out.setSection(name, cp)
	}
	var err error
	if out.Memory, err = core.CopyEntity(c.Memory); err != nil {
		return nil, fmt.Errorf("failed to copy memory section: %w", err)
	}
	if out.App, err = core.CopyEntity(c.App); err != nil {
		return nil, fmt.Errorf("failed to copy app section: %w", err)
	}
	return out, nil
}
