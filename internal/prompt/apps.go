package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yourorg/shoot/pkg/types"
)

func GenerateApp(framework, specName string, eps []types.Endpoint) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a complete %s application for the API: %s\n\n", framework, specName)
	b.WriteString("Endpoints:\n")
	b.WriteString(BulletEndpoints(eps))
	b.WriteString(`

Requirements:
- Use TypeScript
- Include proper error handling
- Add loading states
- Use modern best practices
- Include types/interfaces
- Add documentation comments

Generate the main files needed for this application. Put every file in its own fenced code block whose first line is a comment with the file path, for example:
` + "```tsx\n// src/App.tsx\n...\n```")
	return Prompt{
		System: "You are an expert code generator that creates production-ready applications from API specifications.",
		User:   b.String(),
	}
}

func CustomerApp(description, specName string, eps []types.Endpoint) Prompt {
	var b strings.Builder
	b.WriteString("You are a world-class UI/UX designer and React developer. Create a BEAUTIFUL, PRODUCTION-READY, CUSTOMER-FACING application.\n\n")
	fmt.Fprintf(&b, "User Request: %q\n\nAPI: %s\nAvailable Endpoints:\n%s\n", description, specName, NumberedEndpoints(eps))
	b.WriteString(`
Your mission:
1. Understand what the user wants to build for their customers
2. Design a modern UI customers will love
3. Select the right endpoints to power it
4. Create a complete, working, deployable application

Design: responsive layout, loading skeletons, friendly error and empty states, accessible markup, consistent spacing and typography.
Technical: React + TypeScript, Tailwind CSS with a complete config, API integration with error handling, pagination or debounced search where needed.

Return as JSON:
{
  "understanding": "What you're building and why it's valuable",
  "design": {"colorPalette": {"primary": "#hex"}, "typography": "...", "layout": "...", "inspiration": "..."},
  "selectedEndpoints": [{"endpoint": "GET /pets", "purpose": "Load initial data", "uiElement": "Card grid"}],
  "files": {"src/App.tsx": "complete code", "src/api.ts": "...", "src/types.ts": "...", "package.json": "...", "README.md": "..."},
  "features": ["Feature 1"],
  "deploymentReady": true
}`)
	return Prompt{
		System: "You are a master UI/UX designer and React developer who creates stunning, production-ready applications." + jsonOnly,
		User:   b.String(),
	}
}

func RefineUI(app *types.GeneratedApp, design json.RawMessage, request string) Prompt {
	lower := strings.ToLower(request)
	var focus []string
	if strings.Contains(lower, "color") {
		focus = append(focus, "- Update color palette and apply consistently")
	}
	if strings.Contains(lower, "layout") || strings.Contains(lower, "size") {
		focus = append(focus, "- Adjust layout, spacing, and sizing")
	}
	if strings.Contains(lower, "add") || strings.Contains(lower, "new") {
		focus = append(focus, "- Add new feature/component")
	}
	if strings.Contains(lower, "search") || strings.Contains(lower, "filter") {
		focus = append(focus, "- Implement search/filter functionality")
	}

	var b strings.Builder
	b.WriteString("You are refining a customer-facing application based on user feedback.\n\n")
	fmt.Fprintf(&b, "App: %s\nCurrent Design: %s\n\nUser Request: %q\n\n", app.Name, indentJSON(design), request)
	b.WriteString("Current Files:\n")
	b.WriteString(codeListing(app.Code, "\n\n---\n\n"))
	b.WriteString("\n\nRefine the application to address the request while keeping all existing functionality and a consistent, production-ready design.\n")
	if len(focus) > 0 {
		b.WriteString("\nFocus your changes on:\n")
		b.WriteString(strings.Join(focus, "\n"))
		b.WriteString("\n")
	}
	b.WriteString(`
Return as JSON:
{
  "files": {"src/App.tsx": "refined code (only files that changed)"},
  "designChanges": {"colorPalette": {}, "layout": "..."},
  "changes": ["Specific change 1"],
  "explanation": "What was improved",
  "visualDiff": "Description of visual changes"
}`)
	return Prompt{
		System: "You are a master UI designer who makes precise, beautiful improvements based on feedback." + jsonOnly,
		User:   b.String(),
	}
}

func BeautifulComponent(description string, eps []types.Endpoint) Prompt {
	lines := make([]string, len(eps))
	for i, e := range eps {
		lines[i] = fmt.Sprintf("- %s %s: %s", e.Method, e.Path, describe(e, ""))
	}
	user := fmt.Sprintf("Create a BEAUTIFUL, production-ready React component.\n\nComponent Request: %q\n\nAPI Endpoints to use:\n%s\n", description, strings.Join(lines, "\n")) + `
Create a component that uses modern design, handles loading and error states, is fully responsive, uses Tailwind CSS and is accessible.

Return as JSON:
{
  "componentName": "ProductCard",
  "files": {"ProductCard.tsx": "complete component code", "ProductCard.types.ts": "types", "api.ts": "api functions"},
  "usage": "How to use this component",
  "props": "Props documentation",
  "preview": "Description of what it looks like"
}`
	return Prompt{
		System: "You are a master React component designer. Create beautiful, reusable components." + jsonOnly,
		User:   user,
	}
}

func AddFeature(app *types.GeneratedApp, eps []types.Endpoint, design json.RawMessage, description string) Prompt {
	var b strings.Builder
	b.WriteString("Add a new feature to this customer-facing application.\n\n")
	fmt.Fprintf(&b, "Current App: %s\nNew Feature: %q\n\nAvailable API Endpoints:\n%s\n\n", app.Name, description, BulletEndpoints(eps))
	fmt.Fprintf(&b, "Current Files:\n%s\n\nCurrent Design:\n%s\n", strings.Join(sortedNames(app.Code), ", "), indentJSON(design))
	b.WriteString(`
Add the feature by selecting endpoints, creating new components where needed and updating existing ones while keeping the design consistent.

Return as JSON:
{
  "newFiles": {"src/components/NewComponent.tsx": "code"},
  "updatedFiles": {"src/App.tsx": "updated code"},
  "selectedEndpoints": ["GET /endpoint"],
  "features": ["New capability 1"],
  "explanation": "How the feature works",
  "userInstructions": "How customers will use this feature"
}`)
	return Prompt{
		System: "You are an expert at adding features to existing apps while maintaining quality and design consistency." + jsonOnly,
		User:   b.String(),
	}
}

func IntentAnalysis(intent, specName string, eps []types.Endpoint) Prompt {
	user := fmt.Sprintf("You are an expert API architect. Analyze this user intent and API to build a working application.\n\nUser Intent: %q\n\nAvailable API: %s\nAll Endpoints:\n%s\n", intent, specName, NumberedEndpoints(eps)) + `
Your task:
1. Understand what the user wants to build
2. Select ONLY the endpoints needed for this functionality
3. Determine the order to call them and the data flow between calls
4. Plan error handling and edge cases

Return JSON:
{
  "understanding": "Clear explanation of what user wants",
  "selectedEndpoints": [{"endpoint": "POST /pet", "purpose": "...", "order": 1, "inputFrom": "user", "outputTo": "display"}],
  "workflow": {
    "name": "Short name for this workflow",
    "description": "What it accomplishes",
    "steps": [{"step": 1, "action": "...", "endpoint": "...", "method": "POST", "inputFrom": "user", "output": "..."}]
  },
  "implementation": {"components": ["Component1"], "state": "...", "uiElements": ["Form"]}
}`
	return Prompt{
		System: "You are an expert at understanding user intent and selecting the right API endpoints to accomplish goals." + jsonOnly,
		User:   user,
	}
}

func IntentCode(intent, specName string, selected []types.SelectedEndpoint, workflow json.RawMessage) Prompt {
	user := fmt.Sprintf("Generate a complete, production-ready React + TypeScript application based on this analysis:\n\nUser Intent: %q\nAPI: %s\n\nSelected Endpoints:\n%s\n\nWorkflow:\n%s\n",
		intent, specName, selectedLines(selected), indentJSON(workflow)) + `
Requirements:
1. Use ONLY the selected endpoints in the correct order
2. Implement every workflow step with error handling and loading states
3. Show clear success and failure messages
4. Use TypeScript with proper types

Return as JSON:
{
  "files": {"src/App.tsx": "complete code", "src/api.ts": "complete code", "src/types.ts": "complete code", "README.md": "complete docs"}
}`
	return Prompt{
		System: "You are an expert React developer who creates complete, working applications. Return only valid JSON with code.",
		User:   user,
	}
}

func RefineApp(app *types.GeneratedApp, selected []types.SelectedEndpoint, refinement string) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Refine this application based on the user's request.\n\nCurrent App: %s\nUser Request: %q\n\n", app.Name, refinement)
	fmt.Fprintf(&b, "Selected Endpoints (keep using these):\n%s\n\nCurrent Code:\n%s\n", selectedLines(selected), codeListing(app.Code, "\n\n"))
	b.WriteString(`
Refine the code to address the request, keep the same endpoints and workflow, and improve without breaking existing functionality.

Return as JSON with updated files:
{
  "files": {"filename": "updated code"},
  "changes": ["Change 1"],
  "explanation": "What was improved"
}`)
	return Prompt{
		System: "You are an expert at refining code. Make targeted improvements." + jsonOnly,
		User:   b.String(),
	}
}

func ModifyComponent(fileName, currentCode, request string) Prompt {
	user := fmt.Sprintf("Modify this code based on the user's request:\n\nCurrent Code (%s):\n```\n%s\n```\n\nUser Request: %s\n\nReturn ONLY the modified code without explanations.", fileName, currentCode, request)
	return Prompt{
		System: "You are an expert developer. Modify code precisely based on requests. Return only the modified code.",
		User:   user,
	}
}

func GenerateComponent(framework, description, specName string, eps []types.Endpoint) Prompt {
	lines := make([]string, len(eps))
	for i, e := range eps {
		lines[i] = fmt.Sprintf("  - %s %s: %s", e.Method, e.Path, e.Summary)
	}
	user := fmt.Sprintf("Generate a %s component based on this description:\n\nComponent Request: %s\n\nAPI Context:\n- API Name: %s\n- Available Endpoints:\n%s\n",
		framework, description, specName, strings.Join(lines, "\n")) + fmt.Sprintf(`
Requirements:
1. Use TypeScript
2. Include proper error handling
3. Add loading states
4. Follow %s best practices
5. Include comments

Generate complete, working code.`, framework)
	return Prompt{
		System: "You are an expert developer who creates production-ready components.",
		User:   user,
	}
}

// AnalyzeApp samples the first five files, capped at 3000 characters.
func AnalyzeApp(app *types.GeneratedApp) Prompt {
	names := sortedNames(app.Code)
	sample := names
	if len(sample) > 5 {
		sample = sample[:5]
	}
	parts := make([]string, len(sample))
	for i, n := range sample {
		parts[i] = n + ":\n" + app.Code[n]
	}
	code := strings.Join(parts, "\n\n---\n\n")
	if r := []rune(code); len(r) > 3000 {
		code = string(r[:3000])
	}
	user := fmt.Sprintf("Analyze this %s application and suggest 5 specific improvements:\n\nApp: %s\nFiles: %s\n\nSample Code:\n%s\n",
		app.Framework, app.Name, strings.Join(names, ", "), code) + `
Provide actionable suggestions for code quality, performance, error handling, UI/UX and new features.

Return as JSON array of objects with: title, description, priority (high/medium/low)`
	return Prompt{
		System: "You are a code review expert who provides constructive, actionable feedback.",
		User:   user,
	}
}

func SuggestFlows(specName string, eps []types.Endpoint) Prompt {
	user := fmt.Sprintf("Analyze this API spec and suggest 3-5 application flows or components that would be useful to build:\n\nAPI: %s\nEndpoints (%d):\n%s\n", specName, len(eps), BulletEndpoints(eps)) + `
For each suggestion, provide:
1. name: A clear, descriptive name
2. description: What it does (1-2 sentences)
3. framework: "react" or "node"
4. reason: Why this would be valuable
5. components: List of components/features it would include

Return as JSON array of suggestions.`
	return Prompt{
		System: "You are an expert software architect who suggests practical, well-designed applications based on API capabilities.",
		User:   user,
	}
}
