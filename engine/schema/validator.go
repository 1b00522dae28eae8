package schema

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/kaptinlin/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/dao-ai/builder/pkg/logger"
)

// Status classifies one validation pass.
type Status string

const (
	// StatusValid: the document satisfies the schema.
	StatusValid Status = "valid"
	// StatusIncomplete: the document parses but does not yet describe a
	// deployable configuration; this is the normal state mid-editing and
	// carries no issues.
	StatusIncomplete Status = "incomplete"
	// StatusInvalid: the document violates the schema (or does not parse).
	StatusInvalid Status = "invalid"
	// StatusSkipped: the schema could not be loaded, so no judgment was
	// made. The editor stays usable.
	StatusSkipped Status = "skipped"
)

// Issue is one schema violation.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Keyword string `json:"keyword"`
}

// Result is the outcome of validating one document.
type Result struct {
	Status Status  `json:"status"`
	Issues []Issue `json:"issues,omitempty"`
	Detail string  `json:"detail,omitempty"`
}

// Validator validates exported documents against the published JSON Schema.
// The schema is fetched over HTTP once per process and memoized; a fetch or
// compile failure is likewise memoized and reported as a skipped validation
// rather than retried on every call.
type Validator struct {
	url    string
	client *resty.Client

	once    sync.Once
	schema  *jsonschema.Schema
	loadErr error
}

// New builds a Validator that loads its schema from url. A nil client gets a
// default resty client.
func New(url string, client *resty.Client) *Validator {
	if client == nil {
		client = resty.New()
	}
	return &Validator{url: url, client: client}
}

// Validate parses the document and evaluates it against the schema.
func (v *Validator) Validate(ctx context.Context, yamlText string) Result {
	doc, err := parseDocument(yamlText)
	if err != nil {
		return Result{
			Status: StatusInvalid,
			Issues: []Issue{{Path: "/", Message: err.Error(), Keyword: "yaml_parse"}},
		}
	}
	if len(doc) == 0 {
		return Result{Status: StatusValid}
	}
	if isMinimal(doc) {
		return Result{Status: StatusIncomplete}
	}
	schema, err := v.load(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("schema not loaded; skipping validation", "error", err)
		return Result{Status: StatusSkipped, Detail: fmt.Sprintf("schema not loaded: %v", err)}
	}
	result := schema.Validate(doc)
	if result.Valid {
		return Result{Status: StatusValid}
	}
	issues := collectIssues(result.ToList())
	if len(issues) == 0 {
		issues = []Issue{{Path: "/", Message: "document does not satisfy the schema", Keyword: "schema"}}
	}
	return Result{Status: StatusInvalid, Issues: issues}
}

// load fetches and compiles the schema exactly once.
func (v *Validator) load(ctx context.Context) (*jsonschema.Schema, error) {
	v.once.Do(func() {
		if v.url == "" {
			v.loadErr = fmt.Errorf("no schema URL configured")
			return
		}
		resp, err := v.client.R().SetContext(ctx).Get(v.url)
		if err != nil {
			v.loadErr = fmt.Errorf("failed to fetch schema: %w", err)
			return
		}
		if resp.IsError() {
			v.loadErr = fmt.Errorf("failed to fetch schema: status %d", resp.StatusCode())
			return
		}
		compiled, err := jsonschema.NewCompiler().Compile(resp.Body())
		if err != nil {
			v.loadErr = fmt.Errorf("failed to compile schema: %w", err)
			return
		}
		v.schema = compiled
	})
	return v.schema, v.loadErr
}

func parseDocument(yamlText string) (map[string]any, error) {
	clean := stripCommentLines(yamlText)
	if strings.TrimSpace(clean) == "" {
		return map[string]any{}, nil
	}
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(clean), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// isMinimal: nothing deployable has been authored yet, so the schema's
// required-field rules would only produce noise.
func isMinimal(doc map[string]any) bool {
	for _, section := range []string{"agents", "tools", "app"} {
		if v, ok := doc[section]; ok {
			if m, isMap := v.(map[string]any); !isMap || len(m) > 0 {
				return false
			}
		}
	}
	return true
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

func collectIssues(list *jsonschema.List) []Issue {
	if list == nil {
		return nil
	}
	var out []Issue
	var walk func(node *jsonschema.List)
	walk = func(node *jsonschema.List) {
		if node == nil {
			return
		}
		if !node.Valid {
			for keyword, message := range node.Errors {
				out = append(out, Issue{
					Path:    instancePath(node.InstanceLocation),
					Message: message,
					Keyword: keyword,
				})
			}
		}
		for i := range node.Details {
			walk(&node.Details[i])
		}
	}
	walk(list)
	return out
}

func instancePath(loc string) string {
	if loc == "" {
		return "/"
	}
	return loc
}
