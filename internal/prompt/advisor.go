package prompt

import (
	"fmt"
	"strings"

	"github.com/yourorg/shoot/pkg/types"
)

func Capabilities(spec *types.APISpec, eps []types.Endpoint) Prompt {
	desc := spec.Description
	if desc == "" {
		desc = "Not provided"
	}
	var b strings.Builder
	b.WriteString("You are an expert API analyst and creative technologist. Analyze this API deeply and discover its hidden potential.\n\n")
	fmt.Fprintf(&b, "API Name: %s\nDescription: %s\nVersion: %s\n\nEndpoints:\n%s\n", spec.Name, desc, spec.Version, NumberedEndpoints(eps))
	b.WriteString(`
Think beyond the obvious: what problems does this API solve, which endpoint combinations unlock new value, what is missing.

Return as JSON:
{
  "capabilities": [{"name": "...", "description": "...", "endpoints": ["GET /x"], "value": "..."}],
  "useCases": [{"title": "...", "description": "...", "targetUsers": "...", "endpoints": ["..."], "complexity": "simple|medium|complex"}],
  "remixes": [{"name": "...", "description": "...", "endpoints": ["..."], "innovation": "..."}],
  "missingFeatures": [{"feature": "...", "reason": "...", "suggestedEndpoint": "...", "priority": "high|medium|low"}],
  "workflows": [{"name": "...", "steps": ["..."], "outcome": "..."}],
  "integrations": [{"service": "...", "purpose": "...", "value": "..."}],
  "improvements": [{"area": "...", "suggestion": "...", "impact": "..."}]
}`)
	return Prompt{
		System: "You are a creative API expert who thinks beyond obvious uses. You see patterns, opportunities, and innovative combinations." + jsonOnly,
		User:   b.String(),
	}
}

func Workflow(goal, specName string, eps []types.Endpoint) Prompt {
	user := fmt.Sprintf("Create a detailed workflow to accomplish this goal using the API.\n\nGoal: %q\nAPI: %s\n\nAvailable Endpoints:\n%s\n", goal, specName, BulletEndpoints(eps)) + `
Return as JSON:
{
  "workflowName": "...",
  "description": "...",
  "steps": [{"stepNumber": 1, "action": "...", "endpoint": "GET /x", "method": "GET", "input": "...", "output": "...", "errorHandling": "...", "nextStep": "..."}],
  "successCriteria": "...",
  "estimatedTime": "...",
  "complexity": "simple|medium|complex",
  "code": {"typescript": "...", "python": "..."}
}`
	return Prompt{
		System: "You are a workflow automation expert. Create practical, production-ready workflows." + jsonOnly,
		User:   user,
	}
}

func Extensions(focus, specName string, eps []types.Endpoint) Prompt {
	if focus == "" {
		focus = "all areas"
	}
	lines := make([]string, len(eps))
	for i, e := range eps {
		lines[i] = fmt.Sprintf("- %s %s", e.Method, e.Path)
	}
	user := fmt.Sprintf("You are an API design expert. Suggest new endpoints and features that would make this API more powerful.\n\nAPI: %s\nCurrent Endpoints:\n%s\n\nFocus: %s\n", specName, strings.Join(lines, "\n"), focus) + `
Consider missing CRUD operations, batch operations, search and filtering, analytics, webhooks, real-time features and developer experience.

Return as JSON array:
[{"endpoint": "POST /x", "purpose": "...", "requestBody": {}, "response": {}, "useCase": "...", "priority": "high|medium|low", "complexity": "simple|medium|complex"}]`
	return Prompt{
		System: "You are an expert API architect with years of experience designing scalable, user-friendly APIs. Be specific and practical.",
		User:   user,
	}
}

func Remix(theme, specName string, eps []types.Endpoint) Prompt {
	if theme == "" {
		theme = "innovative use"
	}
	user := fmt.Sprintf("Create an innovative \"remix\" of this API. Combine endpoints in unexpected ways to create something new and valuable.\n\nAPI: %s\nTheme: %s\n\nEndpoints:\n%s\n", specName, theme, BulletEndpoints(eps)) + `
Think creatively: combine endpoints in unexpected ways, solve problems the API was not designed for, target new audiences.

Return as JSON:
{
  "remixName": "...",
  "tagline": "...",
  "description": "...",
  "innovation": "...",
  "endpointsUsed": ["GET /x"],
  "workflow": "...",
  "userExperience": "...",
  "implementation": {"frontend": "...", "backend": "...", "dataFlow": "..."},
  "potentialImpact": "...",
  "codeExample": "..."
}`
	return Prompt{
		System: "You are a creative technologist who sees possibilities others miss. Think like a startup founder finding innovative uses for existing tools.",
		User:   user,
	}
}
