package server

import (
	"github.com/dao-ai/builder/engine/config"
)

// DeployRequirement summarizes one class of infrastructure the configuration
// will provision.
type DeployRequirement struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// DeployCheck is the readiness report for deploying the current
// configuration.
type DeployCheck struct {
	Valid        bool                `json:"valid"`
	Errors       []string            `json:"errors"`
	Warnings     []string            `json:"warnings"`
	Requirements []DeployRequirement `json:"requirements"`
	AppName      string              `json:"app_name,omitempty"`
	EndpointName string              `json:"endpoint_name,omitempty"`
	AgentCount   int                 `json:"agent_count"`
}

// checkDeployment inspects the configuration for everything a deployment
// needs. Errors block a deploy; warnings do not.
func checkDeployment(cfg *config.Config) DeployCheck {
	check := DeployCheck{
		Errors:       []string{},
		Warnings:     []string{},
		Requirements: []DeployRequirement{},
		AgentCount:   len(cfg.Agents),
	}

	appName, _ := cfg.App["name"].(string)
	check.AppName = appName
	if appName == "" {
		check.Errors = append(check.Errors, "app.name is required")
	}

	registeredModel, _ := cfg.App["registered_model"].(map[string]any)
	if registeredModel == nil {
		check.Errors = append(check.Errors, "app.registered_model is required for deployment")
	} else {
		if name, _ := registeredModel["name"].(string); name == "" {
			check.Errors = append(check.Errors, "app.registered_model.name is required")
		}
		if registeredModel["schema"] == nil {
			check.Errors = append(check.Errors, "app.registered_model.schema is required")
		}
	}

	endpointName, _ := cfg.App["endpoint_name"].(string)
	if endpointName == "" {
		check.Warnings = append(check.Warnings, "app.endpoint_name not set - will default to app name")
		endpointName = appName
	}
	check.EndpointName = endpointName

	if len(cfg.Agents) == 0 {
		check.Errors = append(check.Errors, "at least one agent is required")
	}

	orchestration, _ := cfg.App["orchestration"].(map[string]any)
	if orchestration["supervisor"] == nil && orchestration["swarm"] == nil {
		check.Errors = append(check.Errors, "orchestration pattern (supervisor or swarm) is required")
	}

	if len(cfg.Resources.LLMs) == 0 {
		check.Warnings = append(check.Warnings, "no LLMs configured in resources")
	}

	for _, req := range []struct {
		section     config.Section
		kind        string
		description string
	}{
		{cfg.Resources.VectorStores, "vector_search", "Vector Search endpoints and indexes"},
		{cfg.Resources.GenieRooms, "genie", "Genie Rooms"},
		{cfg.Resources.Databases, "database", "Lakebase/PostgreSQL databases"},
		{cfg.Resources.Functions, "functions", "Unity Catalog functions"},
	} {
		if len(req.section) > 0 {
			check.Requirements = append(check.Requirements, DeployRequirement{
				Type:        req.kind,
				Description: req.description,
				Count:       len(req.section),
			})
		}
	}

	check.Valid = len(check.Errors) == 0
	return check
}
