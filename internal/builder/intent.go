package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/yourorg/shoot/internal/llm"
	"github.com/yourorg/shoot/internal/prompt"
	"github.com/yourorg/shoot/internal/store"
	"github.com/yourorg/shoot/pkg/types"
)

// PlannedWorkflow is the step plan behind an intent build.
type PlannedWorkflow struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Steps       []json.RawMessage `json:"steps"`
}

type intentPlan struct {
	Understanding     string                   `json:"understanding"`
	SelectedEndpoints []types.SelectedEndpoint `json:"selectedEndpoints"`
	Workflow          PlannedWorkflow          `json:"workflow"`
	Implementation    json.RawMessage          `json:"implementation"`
}

type filesReply struct {
	Files map[string]string `json:"files"`
}

// BasicApp is the plan offered when the model is unavailable.
type BasicApp struct {
	Understanding     string                   `json:"understanding"`
	SelectedEndpoints []types.SelectedEndpoint `json:"selectedEndpoints"`
	Message           string                   `json:"message"`
}

type IntentResult struct {
	Success           bool                     `json:"success"`
	AppID             string                   `json:"appId,omitempty"`
	AppName           string                   `json:"appName,omitempty"`
	WorkflowID        string                   `json:"workflowId,omitempty"`
	Understanding     string                   `json:"understanding,omitempty"`
	SelectedEndpoints []types.SelectedEndpoint `json:"selectedEndpoints,omitempty"`
	Workflow          *PlannedWorkflow         `json:"workflow,omitempty"`
	FileCount         int                      `json:"fileCount,omitempty"`
	Message           string                   `json:"message,omitempty"`
	Error             string                   `json:"error,omitempty"`
	Fallback          *BasicApp                `json:"fallback,omitempty"`
}

func basicApp(eps []types.Endpoint, intent string) *BasicApp {
	n := len(eps)
	if n > 3 {
		n = 3
	}
	sel := make([]types.SelectedEndpoint, n)
	for i, e := range eps[:n] {
		purpose := e.Summary
		if purpose == "" {
			purpose = "API operation"
		}
		sel[i] = types.SelectedEndpoint{Endpoint: e.Label(), Purpose: purpose}
	}
	return &BasicApp{
		Understanding:     "Build functionality for: " + intent,
		SelectedEndpoints: sel,
		Message:           "AI not available. Generated basic template.",
	}
}

// BuildFromIntent plans which endpoints serve the user's goal, generates the
// app for that plan and stores both the app and its workflow.
func (b *Builder) BuildFromIntent(ctx context.Context, specID, intent, conversationID string) (*IntentResult, error) {
	spec, eps, err := b.specWithEndpoints(specID)
	if err != nil {
		return nil, err
	}
	if !b.configured() {
		return &IntentResult{
			Success:  false,
			Error:    "OpenAI API key required for intelligent app building",
			Fallback: basicApp(eps, intent),
		}, nil
	}
	fail := func(err error) (*IntentResult, error) {
		b.logger().Warn("intelligent app building failed", "spec", specID, "error", err)
		return &IntentResult{Success: false, Error: err.Error(), Fallback: basicApp(eps, intent)}, nil
	}

	var plan intentPlan
	if err := b.askObject(ctx, "intent_analysis", prompt.IntentAnalysis(intent, spec.Name, eps), 0.7, 2000,
		llm.IntentSchema, &plan, "Failed to parse AI analysis"); err != nil {
		return fail(err)
	}
	var gen filesReply
	if err := b.askObject(ctx, "intent_code", prompt.IntentCode(intent, spec.Name, plan.SelectedEndpoints, mustJSON(plan.Workflow)), 0.3, 4000,
		llm.FilesSchema, &gen, "Failed to parse generated code"); err != nil {
		return fail(err)
	}

	used := make([]string, len(plan.SelectedEndpoints))
	for i, e := range plan.SelectedEndpoints {
		used[i] = e.Endpoint
	}
	app, err := b.Store.CreateApp(&types.GeneratedApp{
		SpecID:      specID,
		Name:        fmt.Sprintf("%s - %s", plan.Workflow.Name, spec.Name),
		Description: fmt.Sprintf("%s\n\nEndpoints used: %s", plan.Understanding, strings.Join(used, ", ")),
		Framework:   "react",
		Code:        gen.Files,
		Metadata: mustJSON(map[string]any{
			"intent":            intent,
			"selectedEndpoints": plan.SelectedEndpoints,
			"workflow":          plan.Workflow,
			"useAI":             true,
			"intelligent":       true,
		}),
	})
	if err != nil {
		return nil, err
	}

	complexity := "medium"
	if len(plan.Workflow.Steps) > 3 {
		complexity = "complex"
	}
	wf, err := b.Store.SaveWorkflow(&types.Workflow{
		SpecID:      specID,
		Name:        plan.Workflow.Name,
		Description: plan.Workflow.Description,
		Steps:       mustJSON(plan.Workflow.Steps),
		Complexity:  complexity,
		Code:        mustJSON(gen.Files),
	})
	if err != nil {
		return nil, err
	}
	b.focusApp(conversationID, specID, app.ID, "build_from_intent")

	picked := make([]string, len(plan.SelectedEndpoints))
	for i, e := range plan.SelectedEndpoints {
		picked[i] = fmt.Sprintf("%s (%s)", e.Endpoint, e.Purpose)
	}
	return &IntentResult{
		Success:           true,
		AppID:             app.ID,
		AppName:           app.Name,
		WorkflowID:        wf.ID,
		Understanding:     plan.Understanding,
		SelectedEndpoints: plan.SelectedEndpoints,
		Workflow:          &plan.Workflow,
		FileCount:         len(gen.Files),
		Message: fmt.Sprintf("✅ Successfully built \"%s\"!\n\n**What I understood:** %s\n\n**Endpoints selected:**\n%s\n\n**Workflow created with %d steps**\n\nYou can now:\n1. View the code\n2. Test the workflow\n3. Download and run it\n4. Ask me to refine it",
			app.Name, plan.Understanding, bulletList(picked, "-"), len(plan.Workflow.Steps)),
	}, nil
}

type StepResult struct {
	Step     int    `json:"step"`
	Action   string `json:"action"`
	Endpoint string `json:"endpoint"`
	Status   string `json:"status"`
	Output   any    `json:"output"`
	Error    string `json:"error,omitempty"`
	Time     int64  `json:"time"`
}

type TestSummary struct {
	Total     int   `json:"total"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	TotalTime int64 `json:"totalTime"`
}

type WorkflowTestResult struct {
	Success bool         `json:"success"`
	Results []StepResult `json:"results,omitempty"`
	Summary *TestSummary `json:"summary,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// TestWorkflow dry-runs a saved workflow. Each step's input is the
// caller's "step{n}" entry when the step takes user input, otherwise the
// previous step's output. No endpoint is called.
func (b *Builder) TestWorkflow(ctx context.Context, workflowID string, testData json.RawMessage) (*WorkflowTestResult, error) {
	wf, err := b.Store.GetWorkflow(workflowID)
	if errors.Is(err, store.ErrNotFound) {
		return &WorkflowTestResult{Success: false, Error: "Workflow not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	inputs := map[string]any{}
	if len(testData) > 0 {
		if err := json.Unmarshal(testData, &inputs); err != nil {
			return &WorkflowTestResult{Success: false, Error: fmt.Sprintf("invalid test data: %v", err)}, nil
		}
	}
	var steps []map[string]any
	if err := json.Unmarshal(wf.Steps, &steps); err != nil {
		return &WorkflowTestResult{Success: false, Error: fmt.Sprintf("invalid workflow steps: %v", err)}, nil
	}

	results := make([]StepResult, 0, len(steps))
	summary := &TestSummary{}
	var previous any
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		n := cast.ToInt(step["stepNumber"])
		if n == 0 {
			n = cast.ToInt(step["step"])
		}
		if n == 0 {
			n = i + 1
		}
		endpoint := cast.ToString(step["endpoint"])

		input := previous
		if cast.ToString(step["inputFrom"]) == "user" {
			input = inputs[fmt.Sprintf("step%d", n)]
		}
		output := map[string]any{
			"simulated": true,
			"message":   fmt.Sprintf("Step %d would call %s", n, endpoint),
			"input":     input,
		}
		res := StepResult{
			Step:     n,
			Action:   cast.ToString(step["action"]),
			Endpoint: endpoint,
			Status:   "success",
			Output:   output,
			Time:     time.Since(start).Milliseconds(),
		}
		previous = output
		results = append(results, res)
		summary.Succeeded++
		summary.TotalTime += res.Time
	}
	summary.Total = len(results)
	summary.Failed = summary.Total - summary.Succeeded
	return &WorkflowTestResult{Success: true, Results: results, Summary: summary}, nil
}

type refineReply struct {
	Files       map[string]string `json:"files"`
	Changes     []string          `json:"changes"`
	Explanation string            `json:"explanation"`
}

type RefineResult struct {
	Success     bool     `json:"success"`
	Changes     []string `json:"changes,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Message     string   `json:"message,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// RefineApp makes targeted code changes while keeping the endpoints the
// app was built on.
func (b *Builder) RefineApp(ctx context.Context, appID, refinement string) (*RefineResult, error) {
	if !b.configured() {
		return &RefineResult{Success: false, Error: keyRequired}, nil
	}
	app, err := b.Store.GetApp(appID)
	if err != nil {
		return nil, err
	}
	var selected []types.SelectedEndpoint
	if raw := metaField(app.Metadata, "selectedEndpoints"); len(raw) > 0 {
		_ = json.Unmarshal(raw, &selected)
	}

	var refined refineReply
	if err := b.askObject(ctx, "refine_app", prompt.RefineApp(app, selected, refinement), 0.3, 4000,
		llm.ChangesSchema, &refined, "Failed to parse refinement"); err != nil {
		b.logger().Warn("refinement failed", "app", appID, "error", err)
		return &RefineResult{Success: false, Error: err.Error()}, nil
	}
	if err := b.Store.UpdateAppCode(appID, app.Code.Merge(refined.Files)); err != nil {
		return nil, err
	}
	return &RefineResult{
		Success:     true,
		Changes:     refined.Changes,
		Explanation: refined.Explanation,
		Message: fmt.Sprintf("✅ Refined successfully!\n\n**Changes made:**\n%s\n\n**Explanation:** %s",
			bulletList(refined.Changes, "-"), refined.Explanation),
	}, nil
}
