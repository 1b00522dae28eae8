package promptgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingInput marks a request that does not carry enough material to
// generate from; callers surface it as a client error.
var ErrMissingInput = errors.New("missing generation input")

// PromptInput parameterizes system-prompt generation for one agent.
type PromptInput struct {
	Context            string   `json:"context"`
	AgentName          string   `json:"agent_name"`
	AgentDescription   string   `json:"agent_description"`
	Tools              []string `json:"tools"`
	ExistingPrompt     string   `json:"existing_prompt"`
	TemplateParameters []string `json:"template_parameters"`
}

// GeneratePrompt drafts or improves an agent's system prompt.
func (c *Client) GeneratePrompt(ctx context.Context, in PromptInput) (string, error) {
	if in.Context == "" && in.ExistingPrompt == "" {
		return "", fmt.Errorf("%w: either context or existing_prompt is required", ErrMissingInput)
	}
	paramsInstruction := "\n7. Use template variables like {user_id}, {store_num}, {context} for dynamic information"
	if len(in.TemplateParameters) > 0 {
		paramsInstruction = "\n7. IMPORTANT: Include these template variables in a User Information section at the start of the prompt: " +
			braceList(in.TemplateParameters)
	}
	system := `You are an expert prompt engineer specializing in creating highly effective system prompts for AI agents. Your task is to generate optimized prompts for GenAI agent applications that follow best practices.

When creating prompts, follow these guidelines:
1. Be specific and clear about the agent's role and responsibilities
2. Include relevant context about the domain and use case
3. Define the agent's capabilities and limitations
4. Provide clear instructions for tool usage when tools are available
5. Include guidelines for response format and tone
6. Add safety and guardrail instructions where appropriate` + paramsInstruction + `
8. Structure the prompt with clear sections (role, capabilities, guidelines, etc.)
9. Make the prompt concise but comprehensive
10. Focus on actionable instructions rather than vague guidance

Output ONLY the prompt text, without any additional explanation or markdown formatting.`

	var parts []string
	if in.ExistingPrompt != "" {
		parts = append(parts, "Please improve and optimize this existing prompt:\n\n"+in.ExistingPrompt)
	} else {
		parts = append(parts, "Please create an optimized system prompt for the following agent:")
	}
	if in.AgentName != "" {
		parts = append(parts, "\nAgent Name: "+in.AgentName)
	}
	if in.AgentDescription != "" {
		parts = append(parts, "\nAgent Description: "+in.AgentDescription)
	}
	if in.Context != "" {
		parts = append(parts, "\nContext/Requirements: "+in.Context)
	}
	if len(in.Tools) > 0 {
		parts = append(parts, "\nAvailable Tools: "+strings.Join(in.Tools, ", "))
		parts = append(parts, "\nInclude clear instructions for when and how to use these tools.")
	}
	if len(in.TemplateParameters) > 0 {
		parts = append(parts, "\nTemplate Parameters to include: "+braceList(in.TemplateParameters))
		parts = append(parts, "Include a '### User Information' section at the beginning that displays these parameters.")
	}
	return c.complete(ctx, system, strings.Join(parts, "\n"), 2000)
}

// GuardrailInput parameterizes guardrail-evaluation-prompt generation.
type GuardrailInput struct {
	Context            string   `json:"context"`
	GuardrailName      string   `json:"guardrail_name"`
	EvaluationCriteria []string `json:"evaluation_criteria"`
	ExistingPrompt     string   `json:"existing_prompt"`
}

// GenerateGuardrailPrompt drafts or improves a judge prompt for a guardrail.
func (c *Client) GenerateGuardrailPrompt(ctx context.Context, in GuardrailInput) (string, error) {
	if in.Context == "" && in.ExistingPrompt == "" && len(in.EvaluationCriteria) == 0 {
		return "", fmt.Errorf("%w: either context, evaluation_criteria, or existing_prompt is required", ErrMissingInput)
	}
	criteriaInstruction := ""
	if len(in.EvaluationCriteria) > 0 {
		lines := make([]string, 0, len(in.EvaluationCriteria))
		for _, c := range in.EvaluationCriteria {
			lines = append(lines, "- "+titleWords(c))
		}
		criteriaInstruction = "\n\nThe guardrail should specifically evaluate these criteria:\n" + strings.Join(lines, "\n")
	}
	system := `You are an expert prompt engineer specializing in creating guardrail evaluation prompts for AI agents. Your task is to generate optimized guardrail prompts that effectively evaluate AI responses.

When creating guardrail prompts, follow these guidelines:
1. Clearly define the role as an expert judge evaluating AI responses
2. Include specific, measurable evaluation criteria
3. Provide clear pass/fail conditions for each criterion
4. Include instructions for the judge to output structured feedback
5. Use {inputs} placeholder for the user's original query/conversation
6. Use {outputs} placeholder for the AI's response being evaluated
7. Make the evaluation criteria objective and actionable
8. Include instructions to provide constructive feedback when the response fails
9. Structure the output to include both a pass/fail decision and detailed reasoning

Output ONLY the prompt text, without any additional explanation or markdown formatting.` + criteriaInstruction

	var parts []string
	if in.ExistingPrompt != "" {
		parts = append(parts, "Please improve and optimize this existing guardrail evaluation prompt:\n\n"+in.ExistingPrompt)
	} else {
		parts = append(parts, "Please create an optimized guardrail evaluation prompt.")
	}
	if in.GuardrailName != "" {
		parts = append(parts, "\nGuardrail Name: "+in.GuardrailName)
	}
	if in.Context != "" {
		parts = append(parts, "\nContext/Requirements: "+in.Context)
	}
	if len(in.EvaluationCriteria) > 0 {
		titled := make([]string, 0, len(in.EvaluationCriteria))
		for _, c := range in.EvaluationCriteria {
			titled = append(titled, titleWords(c))
		}
		parts = append(parts, "\nEvaluation Criteria to include: "+strings.Join(titled, ", "))
		parts = append(parts, "\nMake sure each of these criteria has clear pass/fail conditions.")
	}
	parts = append(parts, "\nThe prompt should use {inputs} for the conversation context and {outputs} for the AI response being evaluated.")
	return c.complete(ctx, system, strings.Join(parts, "\n"), 2000)
}

// HandoffInput parameterizes handoff-prompt generation. A handoff prompt
// tells an orchestrator when to route a request to this agent.
type HandoffInput struct {
	AgentName        string   `json:"agent_name"`
	AgentDescription string   `json:"agent_description"`
	SystemPrompt     string   `json:"system_prompt"`
	ExistingHandoff  string   `json:"existing_handoff"`
	OtherAgents      []string `json:"other_agents"`
}

const maxHandoffSourceLen = 2000

// GenerateHandoffPrompt drafts or improves an agent's routing description.
func (c *Client) GenerateHandoffPrompt(ctx context.Context, in HandoffInput) (string, error) {
	if in.SystemPrompt == "" && in.ExistingHandoff == "" && in.AgentDescription == "" {
		return "", fmt.Errorf("%w: either system_prompt, agent_description, or existing_handoff is required", ErrMissingInput)
	}
	system := `You are an expert at designing multi-agent AI systems. Your task is to generate concise handoff prompts that describe when a specific agent should be called.

A handoff prompt is used by a supervisor or orchestrator agent to decide which specialized agent should handle a user's request. The handoff prompt should:

1. Be concise and action-oriented (1-3 sentences max)
2. Clearly describe the TYPE of requests or tasks this agent handles
3. Include specific keywords or topics that should trigger routing to this agent
4. Differentiate this agent's responsibilities from other agents in the system
5. Focus on WHEN to call this agent, not HOW the agent works internally

Avoid vague descriptions like "handles general questions" or "helps with various tasks."

Output ONLY the handoff prompt text, without any additional explanation or formatting.`

	var parts []string
	if in.ExistingHandoff != "" {
		parts = append(parts, "Please improve this existing handoff prompt:\n\n"+in.ExistingHandoff)
	} else {
		parts = append(parts, "Please create a handoff prompt for this agent.")
	}
	if in.AgentName != "" {
		parts = append(parts, "\nAgent Name: "+in.AgentName)
	}
	if in.AgentDescription != "" {
		parts = append(parts, "\nAgent Description: "+in.AgentDescription)
	}
	if in.SystemPrompt != "" {
		prompt := in.SystemPrompt
		if len(prompt) > maxHandoffSourceLen {
			prompt = prompt[:maxHandoffSourceLen] + "..."
		}
		parts = append(parts, "\nAgent's System Prompt:\n"+prompt)
	}
	if len(in.OtherAgents) > 0 {
		parts = append(parts, "\nOther agents in the system: "+strings.Join(in.OtherAgents, ", "))
		parts = append(parts, "\nMake sure the handoff prompt differentiates this agent from the others.")
	}
	return c.complete(ctx, system, strings.Join(parts, "\n"), 500)
}

// AgentSummary is one roster entry for supervisor-prompt generation.
type AgentSummary struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	HandoffPrompt string `json:"handoff_prompt"`
}

// SupervisorInput parameterizes supervisor-prompt generation.
type SupervisorInput struct {
	Context        string         `json:"context"`
	Agents         []AgentSummary `json:"agents"`
	ExistingPrompt string         `json:"existing_prompt"`
}

// GenerateSupervisorPrompt drafts or improves the orchestrator's routing prompt.
func (c *Client) GenerateSupervisorPrompt(ctx context.Context, in SupervisorInput) (string, error) {
	if len(in.Agents) == 0 && in.ExistingPrompt == "" && in.Context == "" {
		return "", fmt.Errorf("%w: at least one of agents, context, or existing_prompt is required", ErrMissingInput)
	}
	system := `You are an expert at designing multi-agent AI orchestration systems. Your task is to generate an effective supervisor prompt that guides an orchestrator agent in routing user requests to specialized agents.

A supervisor prompt should:

1. Clearly define the supervisor's role as a router/orchestrator
2. List each available agent with a clear description of when to route to them
3. Include decision-making criteria for ambiguous requests
4. Define a default agent or fallback behavior
5. Include instructions for handling multi-step requests that may need multiple agents
6. Be clear about maintaining conversation context across agent handoffs
7. Include safety guidelines (don't make up information, admit when unsure)

The prompt should be structured with clear sections:
- Role Definition
- Available Agents (with routing criteria for each)
- Decision Guidelines
- Response Format Guidelines
- Safety Guidelines

Output ONLY the prompt text, without any additional explanation or markdown code fences.`

	var parts []string
	if in.ExistingPrompt != "" {
		parts = append(parts, "Please improve and optimize this existing supervisor prompt:\n\n"+in.ExistingPrompt)
	} else {
		parts = append(parts, "Please create an optimized supervisor prompt for orchestrating the following agents:")
	}
	if len(in.Agents) > 0 {
		parts = append(parts, "\n\n## Agents to Orchestrate:")
		for _, agent := range in.Agents {
			name := agent.Name
			if name == "" {
				name = "Unknown"
			}
			parts = append(parts, "\n### "+name)
			if agent.Description != "" {
				parts = append(parts, "Description: "+agent.Description)
			}
			if agent.HandoffPrompt != "" {
				parts = append(parts, "When to route here: "+agent.HandoffPrompt)
			}
		}
	}
	if in.Context != "" {
		parts = append(parts, "\n\n## Additional Requirements:\n"+in.Context)
	}
	return c.complete(ctx, system, strings.Join(parts, "\n"), 3000)
}

// braceList renders names as template placeholders: {a}, {b}.
func braceList(names []string) string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, "{"+n+"}")
	}
	return strings.Join(out, ", ")
}

// titleWords turns snake_case criteria into display form: "pii_leak" ->
// "Pii Leak".
func titleWords(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
