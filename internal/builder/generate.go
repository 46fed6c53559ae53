package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourorg/shoot/internal/llm"
	"github.com/yourorg/shoot/internal/prompt"
	"github.com/yourorg/shoot/pkg/types"
)

type GenerateResult struct {
	Success   bool   `json:"success"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Framework string `json:"framework,omitempty"`
	FileCount int    `json:"fileCount"`
	Error     string `json:"error,omitempty"`
}

// GenerateApp creates and stores an app for a spec. The model is used only
// when useAI is set and a credential is configured; any model failure falls
// back to the starter templates.
func (b *Builder) GenerateApp(ctx context.Context, specID, framework string, useAI bool) (*GenerateResult, error) {
	if framework == "" {
		framework = "react"
	}
	spec, eps, err := b.specWithEndpoints(specID)
	if err != nil {
		return nil, err
	}

	var code types.CodeMap
	if useAI && b.configured() {
		reply, err := b.ask(ctx, "generate_app", prompt.GenerateApp(framework, spec.Name, eps), 0.7, 4000)
		if err != nil {
			b.logger().Warn("ai generation failed, using templates", "spec", specID, "error", err)
		} else {
			code = llm.ParseCodeBlocks(reply)
		}
	}
	if code == nil {
		code, err = RenderTemplates(framework, spec.Name, b.baseURL(spec), len(eps))
		if err != nil {
			return &GenerateResult{Success: false, Error: err.Error()}, nil
		}
	}

	app, err := b.Store.CreateApp(&types.GeneratedApp{
		SpecID:      specID,
		Name:        fmt.Sprintf("%s %s App", spec.Name, framework),
		Description: fmt.Sprintf("Generated %s application", framework),
		Framework:   framework,
		Code:        code,
		Metadata:    mustJSON(map[string]any{"useAI": useAI, "fileCount": len(code)}),
	})
	if err != nil {
		return nil, err
	}
	b.logger().Info("app generated", "app", app.ID, "framework", framework, "files", len(code))
	return &GenerateResult{Success: true, ID: app.ID, Name: app.Name, Framework: framework, FileCount: len(code)}, nil
}

type ComponentCode struct {
	Success       bool   `json:"success"`
	Code          string `json:"code,omitempty"`
	ComponentName string `json:"componentName,omitempty"`
	Error         string `json:"error,omitempty"`
}

func (b *Builder) GenerateComponent(ctx context.Context, specID, description, framework string) (*ComponentCode, error) {
	if !b.configured() {
		return &ComponentCode{Success: false, Error: "OpenAI API key not configured"}, nil
	}
	spec, eps, err := b.specWithEndpoints(specID)
	if err != nil {
		return nil, err
	}
	reply, err := b.ask(ctx, "generate_component", prompt.GenerateComponent(framework, description, spec.Name, eps), 0.7, 3000)
	if err != nil {
		b.logger().Warn("component generation failed", "spec", specID, "error", err)
		return &ComponentCode{Success: false, Error: err.Error()}, nil
	}
	return &ComponentCode{
		Success:       true,
		Code:          reply,
		ComponentName: strings.Join(firstWords(description, 3), ""),
	}, nil
}

type ModifyResult struct {
	Success      bool   `json:"success"`
	ModifiedCode string `json:"modifiedCode,omitempty"`
	Explanation  string `json:"explanation,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ModifyComponent rewrites a single file of an app from a free-text request.
func (b *Builder) ModifyComponent(ctx context.Context, appID, fileName, currentCode, request string) (*ModifyResult, error) {
	if !b.configured() {
		return &ModifyResult{Success: false, Error: "OpenAI API key not configured"}, nil
	}
	app, err := b.Store.GetApp(appID)
	if err != nil {
		return nil, err
	}
	if currentCode == "" {
		currentCode = app.Code[fileName]
	}
	reply, err := b.ask(ctx, "modify_component", prompt.ModifyComponent(fileName, currentCode, request), 0.3, 4000)
	if err != nil {
		b.logger().Warn("component modification failed", "app", appID, "error", err)
		return &ModifyResult{Success: false, Error: err.Error()}, nil
	}
	modified := llm.StripFence(reply)
	if err := b.Store.UpdateAppCode(appID, app.Code.Merge(map[string]string{fileName: modified})); err != nil {
		return nil, err
	}
	return &ModifyResult{Success: true, ModifiedCode: modified, Explanation: "Code modified successfully"}, nil
}

type Suggestions struct {
	Suggestions []any `json:"suggestions"`
}

// AnalyzeApp asks for review suggestions. It never fails on model errors.
func (b *Builder) AnalyzeApp(ctx context.Context, appID string) (*Suggestions, error) {
	if !b.configured() {
		return &Suggestions{Suggestions: []any{"Add error handling", "Improve loading states", "Add unit tests"}}, nil
	}
	app, err := b.Store.GetApp(appID)
	if err != nil {
		return nil, err
	}
	reply, err := b.ask(ctx, "analyze_app", prompt.AnalyzeApp(app), 0.7, 1500)
	if err != nil {
		b.logger().Warn("app analysis failed", "app", appID, "error", err)
		return &Suggestions{Suggestions: []any{map[string]any{
			"title":       "Review Code",
			"description": "Consider adding more error handling and tests",
			"priority":    "medium",
		}}}, nil
	}
	if res := llm.ExtractArray(reply); res.OK() {
		return &Suggestions{Suggestions: res.Array()}, nil
	}
	return &Suggestions{Suggestions: []any{map[string]any{
		"title":       "General Improvements",
		"description": llm.Preview(reply, 200),
		"priority":    "medium",
	}}}, nil
}

// SuggestFlows proposes applications worth building on a spec.
func (b *Builder) SuggestFlows(ctx context.Context, specID string) (*Suggestions, error) {
	if !b.configured() {
		return &Suggestions{Suggestions: []any{
			flow("CRUD Dashboard", "A full dashboard with create, read, update, delete operations", "react", "Basic pattern for data management"),
			flow("API Client Library", "A reusable client library for this API", "node", "Useful for integration"),
		}}, nil
	}
	spec, eps, err := b.specWithEndpoints(specID)
	if err != nil {
		return nil, err
	}
	reply, err := b.ask(ctx, "suggest_flows", prompt.SuggestFlows(spec.Name, eps), 0.8, 2000)
	if err != nil {
		b.logger().Warn("flow suggestion failed", "spec", specID, "error", err)
		return &Suggestions{Suggestions: []any{
			flow("Custom Application", "Build a custom app for this API", "react", "Tailored to your needs"),
		}}, nil
	}
	if res := llm.ExtractArray(reply); res.OK() {
		return &Suggestions{Suggestions: res.Array()}, nil
	}
	return &Suggestions{Suggestions: []any{
		flow("AI-Suggested Application", llm.Preview(reply, 200), "react", "Based on AI analysis"),
	}}, nil
}

func flow(name, description, framework, reason string) map[string]any {
	return map[string]any{
		"name":        name,
		"description": description,
		"framework":   framework,
		"reason":      reason,
	}
}
