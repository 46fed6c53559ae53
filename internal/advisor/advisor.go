// Package advisor produces AI insights about a spec: capabilities, goal
// workflows, API extensions and remixes.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/shoot/internal/llm"
	"github.com/yourorg/shoot/internal/prompt"
	"github.com/yourorg/shoot/internal/store"
	"github.com/yourorg/shoot/pkg/types"
)

const keyRequired = "OpenAI API key required"

type Advisor struct {
	Store  store.Store
	LLM    llm.Completer
	Logger *slog.Logger
}

func New(st store.Store, c llm.Completer, logger *slog.Logger) *Advisor {
	return &Advisor{Store: st, LLM: c, Logger: logger}
}

// BasicSuggestions is the static analysis offered without a model.
func BasicSuggestions() map[string]any {
	return map[string]any{
		"capabilities": []string{"API interaction", "Data management"},
		"useCases": []map[string]any{{
			"title":       "Basic CRUD Operations",
			"description": "Create, read, update, and delete operations",
			"complexity":  "simple",
		}},
		"workflows": []map[string]any{{
			"name":        "Simple Data Flow",
			"description": "Fetch and display data",
			"steps":       []string{"Get data", "Process", "Display"},
		}},
	}
}

type CapabilitiesResult struct {
	Success          bool           `json:"success"`
	Insights         map[string]any `json:"-"`
	Message          string         `json:"message,omitempty"`
	Error            string         `json:"error,omitempty"`
	BasicSuggestions map[string]any `json:"basicSuggestions,omitempty"`
}

// MarshalJSON flattens the insight members next to success.
func (r CapabilitiesResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Insights)+4)
	for k, v := range r.Insights {
		out[k] = v
	}
	out["success"] = r.Success
	if r.Message != "" {
		out["message"] = r.Message
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	if r.BasicSuggestions != nil {
		out["basicSuggestions"] = r.BasicSuggestions
	}
	return json.Marshal(out)
}

// AnalyzeCapabilities asks for a broad analysis of a spec and stores it as
// the spec's current insight.
func (a *Advisor) AnalyzeCapabilities(ctx context.Context, specID string) (*CapabilitiesResult, error) {
	spec, eps, err := a.specWithEndpoints(specID)
	if err != nil {
		return nil, err
	}
	if !a.configured() {
		return &CapabilitiesResult{Success: false, Message: "OpenAI API key required for AI suggestions", BasicSuggestions: BasicSuggestions()}, nil
	}
	reply, err := a.ask(ctx, "analyze_capabilities", prompt.Capabilities(spec, eps), 0.9, 4000)
	if err != nil {
		a.logger().Warn("capabilities analysis failed", "spec", specID, "error", err)
		return &CapabilitiesResult{Success: false, Error: err.Error(), BasicSuggestions: BasicSuggestions()}, nil
	}
	res := llm.InsightSchema.Check(llm.ExtractObject(reply))
	if !res.OK() {
		a.logger().Warn("unparseable llm reply", "operation", "analyze_capabilities", "reply", llm.Preview(res.Raw, 200))
		return &CapabilitiesResult{Success: false, Error: "Failed to parse AI response", BasicSuggestions: BasicSuggestions()}, nil
	}
	insights := res.Object()
	if _, err := a.Store.SaveInsight(specID, mustJSON(insights)); err != nil {
		return nil, err
	}
	return &CapabilitiesResult{Success: true, Insights: insights}, nil
}

type workflowReply struct {
	WorkflowName    string          `json:"workflowName"`
	Description     string          `json:"description"`
	Steps           json.RawMessage `json:"steps"`
	SuccessCriteria string          `json:"successCriteria,omitempty"`
	EstimatedTime   string          `json:"estimatedTime,omitempty"`
	Complexity      string          `json:"complexity,omitempty"`
	Code            json.RawMessage `json:"code,omitempty"`
}

type WorkflowResult struct {
	Success    bool           `json:"success"`
	WorkflowID string         `json:"workflowId,omitempty"`
	Workflow   map[string]any `json:"workflow,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// GenerateWorkflow plans the endpoint calls that reach a goal and saves
// the plan.
func (a *Advisor) GenerateWorkflow(ctx context.Context, specID, goal string) (*WorkflowResult, error) {
	spec, eps, err := a.specWithEndpoints(specID)
	if err != nil {
		return nil, err
	}
	if !a.configured() {
		return &WorkflowResult{Success: false, Error: keyRequired}, nil
	}
	reply, err := a.ask(ctx, "generate_workflow", prompt.Workflow(goal, spec.Name, eps), 0.7, 3000)
	if err != nil {
		a.logger().Warn("workflow generation failed", "spec", specID, "error", err)
		return &WorkflowResult{Success: false, Error: err.Error()}, nil
	}
	res := llm.WorkflowSchema.Check(llm.ExtractObject(reply))
	var wf workflowReply
	if !res.OK() || res.Decode(&wf) != nil {
		return &WorkflowResult{Success: false, Error: "Failed to parse workflow"}, nil
	}

	name := wf.WorkflowName
	if name == "" {
		name = goal
	}
	complexity := wf.Complexity
	if complexity == "" {
		complexity = "medium"
	}
	saved, err := a.Store.SaveWorkflow(&types.Workflow{
		SpecID:      specID,
		Name:        name,
		Description: wf.Description,
		Steps:       wf.Steps,
		Complexity:  complexity,
		Code:        wf.Code,
	})
	if err != nil {
		return nil, err
	}
	return &WorkflowResult{Success: true, WorkflowID: saved.ID, Workflow: res.Object()}, nil
}

type ExtensionsResult struct {
	Success     bool   `json:"success"`
	Suggestions []any  `json:"suggestions,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SuggestExtensions proposes endpoints the API is missing. focus narrows
// the suggestions; empty means all areas.
func (a *Advisor) SuggestExtensions(ctx context.Context, specID, focus string) (*ExtensionsResult, error) {
	spec, eps, err := a.specWithEndpoints(specID)
	if err != nil {
		return nil, err
	}
	if !a.configured() {
		return &ExtensionsResult{Success: false, Error: keyRequired}, nil
	}
	reply, err := a.ask(ctx, "suggest_extensions", prompt.Extensions(focus, spec.Name, eps), 0.8, 3000)
	if err != nil {
		a.logger().Warn("extension suggestion failed", "spec", specID, "error", err)
		return &ExtensionsResult{Success: false, Error: err.Error()}, nil
	}
	res := llm.ArraySchema.Check(llm.ExtractArray(reply))
	if !res.OK() {
		return &ExtensionsResult{Success: false, Error: "Failed to parse suggestions"}, nil
	}
	return &ExtensionsResult{Success: true, Suggestions: res.Array()}, nil
}

type remixReply struct {
	RemixName      string          `json:"remixName"`
	Description    string          `json:"description"`
	Innovation     string          `json:"innovation"`
	EndpointsUsed  json.RawMessage `json:"endpointsUsed"`
	Implementation json.RawMessage `json:"implementation"`
}

type RemixResult struct {
	Success bool           `json:"success"`
	RemixID string         `json:"remixId,omitempty"`
	Remix   map[string]any `json:"remix,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// GenerateRemix asks for an unexpected combination of the spec's endpoints
// and saves it.
func (a *Advisor) GenerateRemix(ctx context.Context, specID, theme string) (*RemixResult, error) {
	spec, eps, err := a.specWithEndpoints(specID)
	if err != nil {
		return nil, err
	}
	if !a.configured() {
		return &RemixResult{Success: false, Error: keyRequired}, nil
	}
	reply, err := a.ask(ctx, "generate_remix", prompt.Remix(theme, spec.Name, eps), 1.0, 2500)
	if err != nil {
		a.logger().Warn("remix generation failed", "spec", specID, "error", err)
		return &RemixResult{Success: false, Error: err.Error()}, nil
	}
	res := llm.RemixSchema.Check(llm.ExtractObject(reply))
	var rx remixReply
	if !res.OK() || res.Decode(&rx) != nil {
		return &RemixResult{Success: false, Error: "Failed to parse remix"}, nil
	}
	name := rx.RemixName
	if name == "" {
		name = "Untitled remix"
	}
	saved, err := a.Store.SaveRemix(&types.Remix{
		SpecID:         specID,
		Name:           name,
		Description:    rx.Description,
		Innovation:     rx.Innovation,
		EndpointsUsed:  rx.EndpointsUsed,
		Implementation: rx.Implementation,
	})
	if err != nil {
		return nil, err
	}
	return &RemixResult{Success: true, RemixID: saved.ID, Remix: res.Object()}, nil
}

// Insights returns the stored analysis of a spec, or nil when there is none.
func (a *Advisor) Insights(specID string) (*types.Insight, error) {
	in, err := a.Store.GetInsight(specID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return in, err
}

func (a *Advisor) Workflows(specID string) ([]types.Workflow, error) {
	return a.Store.ListWorkflows(specID)
}

func (a *Advisor) Remixes(specID string) ([]types.Remix, error) {
	return a.Store.ListRemixes(specID)
}

func (a *Advisor) configured() bool {
	return a.LLM != nil && a.LLM.Configured()
}

func (a *Advisor) ask(ctx context.Context, op string, p prompt.Prompt, temperature float64, maxTokens int) (string, error) {
	a.logger().Debug("llm prompt", "operation", op, "prompt", llm.Preview(p.User, 400))
	return a.LLM.Complete(ctx, llm.Request{
		Operation: op,
		Messages: []llm.Message{
			{Role: types.RoleSystem, Content: p.System},
			{Role: types.RoleUser, Content: p.User},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
}

func (a *Advisor) specWithEndpoints(specID string) (*types.APISpec, []types.Endpoint, error) {
	spec, err := a.Store.GetSpec(specID)
	if err != nil {
		return nil, nil, err
	}
	eps, err := a.Store.ListEndpoints(specID)
	if err != nil {
		return nil, nil, fmt.Errorf("list endpoints: %w", err)
	}
	return spec, eps, nil
}

func (a *Advisor) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
