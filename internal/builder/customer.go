package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yourorg/shoot/internal/llm"
	"github.com/yourorg/shoot/internal/prompt"
	"github.com/yourorg/shoot/pkg/types"
)

type Design struct {
	ColorPalette any    `json:"colorPalette,omitempty"`
	Typography   string `json:"typography,omitempty"`
	Layout       string `json:"layout,omitempty"`
	Inspiration  string `json:"inspiration,omitempty"`
}

type customerReply struct {
	Understanding     string                   `json:"understanding"`
	Design            Design                   `json:"design"`
	SelectedEndpoints []types.SelectedEndpoint `json:"selectedEndpoints"`
	Files             map[string]string        `json:"files"`
	Features          []string                 `json:"features"`
	DeploymentReady   bool                     `json:"deploymentReady"`
}

type CustomerAppResult struct {
	Success           bool                     `json:"success"`
	AppID             string                   `json:"appId,omitempty"`
	AppName           string                   `json:"appName,omitempty"`
	Understanding     string                   `json:"understanding,omitempty"`
	Design            *Design                  `json:"design,omitempty"`
	SelectedEndpoints []types.SelectedEndpoint `json:"selectedEndpoints,omitempty"`
	Features          []string                 `json:"features,omitempty"`
	FileCount         int                      `json:"fileCount,omitempty"`
	Message           string                   `json:"message,omitempty"`
	Error             string                   `json:"error,omitempty"`
}

// BuildCustomerApp designs and stores a customer-facing app from a
// free-text description.
func (b *Builder) BuildCustomerApp(ctx context.Context, specID, description, conversationID string) (*CustomerAppResult, error) {
	if !b.configured() {
		return &CustomerAppResult{Success: false, Error: "OpenAI API key required for beautiful component generation"}, nil
	}
	spec, eps, err := b.specWithEndpoints(specID)
	if err != nil {
		return nil, err
	}

	var gen customerReply
	if err := b.askObject(ctx, "build_customer_app", prompt.CustomerApp(description, spec.Name, eps), 0.8, 4000,
		llm.FilesSchema, &gen, "Failed to parse AI response"); err != nil {
		b.logger().Warn("customer app generation failed", "spec", specID, "error", err)
		return &CustomerAppResult{Success: false, Error: err.Error()}, nil
	}

	app, err := b.Store.CreateApp(&types.GeneratedApp{
		SpecID:      specID,
		Name:        strings.Join(firstWords(description, 5), " ") + " - Customer App",
		Description: gen.Understanding,
		Framework:   "react",
		Code:        gen.Files,
		Metadata: mustJSON(map[string]any{
			"userDescription":   description,
			"design":            gen.Design,
			"selectedEndpoints": gen.SelectedEndpoints,
			"features":          gen.Features,
			"deploymentReady":   gen.DeploymentReady,
			"customerFacing":    true,
			"beautiful":         true,
		}),
	})
	if err != nil {
		return nil, err
	}
	b.focusApp(conversationID, specID, app.ID, "building_customer_app")

	uses := make([]string, len(gen.SelectedEndpoints))
	for i, e := range gen.SelectedEndpoints {
		uses[i] = fmt.Sprintf("%s → %s", e.Endpoint, e.UIElement)
	}
	msg := fmt.Sprintf("🎨 Created beautiful customer-facing app!\n\n**%s**\n\n%s\n\n**Design:**\n- Colors: %s\n- %s\n- %s\n\n**Features:**\n%s\n\n**Using %d endpoints:**\n%s\n\n✅ **Ready to deploy!**\n\nYou can:\n1. View the code\n2. Test it locally\n3. Deploy to Vercel/Netlify\n4. Ask me to refine it",
		app.Name, gen.Understanding, mustJSON(gen.Design.ColorPalette), gen.Design.Typography, gen.Design.Layout,
		bulletList(gen.Features, "✓"), len(gen.SelectedEndpoints), bulletList(uses, "-"))

	return &CustomerAppResult{
		Success:           true,
		AppID:             app.ID,
		AppName:           app.Name,
		Understanding:     gen.Understanding,
		Design:            &gen.Design,
		SelectedEndpoints: gen.SelectedEndpoints,
		Features:          gen.Features,
		FileCount:         len(gen.Files),
		Message:           msg,
	}, nil
}

type refineUIReply struct {
	Files         map[string]string `json:"files"`
	DesignChanges json.RawMessage   `json:"designChanges"`
	Changes       []string          `json:"changes"`
	Explanation   string            `json:"explanation"`
	VisualDiff    string            `json:"visualDiff"`
}

type RefineUIResult struct {
	Success       bool            `json:"success"`
	Changes       []string        `json:"changes,omitempty"`
	Explanation   string          `json:"explanation,omitempty"`
	VisualDiff    string          `json:"visualDiff,omitempty"`
	DesignChanges json.RawMessage `json:"designChanges,omitempty"`
	Message       string          `json:"message,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// RefineUI applies design feedback to an app. Returned files overwrite
// existing ones; files the model leaves out are kept.
func (b *Builder) RefineUI(ctx context.Context, appID, request string) (*RefineUIResult, error) {
	if !b.configured() {
		return &RefineUIResult{Success: false, Error: keyRequired}, nil
	}
	app, err := b.Store.GetApp(appID)
	if err != nil {
		return nil, err
	}

	var refined refineUIReply
	if err := b.askObject(ctx, "refine_ui", prompt.RefineUI(app, metaField(app.Metadata, "design"), request), 0.7, 4000,
		llm.ChangesSchema, &refined, "Failed to parse refinement"); err != nil {
		b.logger().Warn("ui refinement failed", "app", appID, "error", err)
		return &RefineUIResult{Success: false, Error: err.Error()}, nil
	}
	if err := b.Store.UpdateAppCode(appID, app.Code.Merge(refined.Files)); err != nil {
		return nil, err
	}

	return &RefineUIResult{
		Success:       true,
		Changes:       refined.Changes,
		Explanation:   refined.Explanation,
		VisualDiff:    refined.VisualDiff,
		DesignChanges: refined.DesignChanges,
		Message: fmt.Sprintf("🎨 UI refined successfully!\n\n**Changes:**\n%s\n\n**Visual Impact:**\n%s\n\n**Explanation:**\n%s\n\nYour app is even more beautiful now! 🚀",
			bulletList(refined.Changes, "✓"), refined.VisualDiff, refined.Explanation),
	}, nil
}

type featureReply struct {
	NewFiles          map[string]string `json:"newFiles"`
	UpdatedFiles      map[string]string `json:"updatedFiles"`
	SelectedEndpoints []string          `json:"selectedEndpoints"`
	Features          []string          `json:"features"`
	Explanation       string            `json:"explanation"`
	UserInstructions  string            `json:"userInstructions"`
}

type FeatureResult struct {
	Success          bool     `json:"success"`
	Features         []string `json:"features,omitempty"`
	Explanation      string   `json:"explanation,omitempty"`
	UserInstructions string   `json:"userInstructions,omitempty"`
	FilesAdded       int      `json:"filesAdded"`
	FilesUpdated     int      `json:"filesUpdated"`
	Message          string   `json:"message,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// AddFeature extends an app. New files are applied before updated ones.
func (b *Builder) AddFeature(ctx context.Context, appID, description string) (*FeatureResult, error) {
	if !b.configured() {
		return &FeatureResult{Success: false, Error: keyRequired}, nil
	}
	app, err := b.Store.GetApp(appID)
	if err != nil {
		return nil, err
	}
	eps, err := b.Store.ListEndpoints(app.SpecID)
	if err != nil {
		return nil, err
	}

	var feat featureReply
	p := prompt.AddFeature(app, eps, metaField(app.Metadata, "design"), description)
	if err := b.askObject(ctx, "add_feature", p, 0.7, 4000, llm.FeatureSchema, &feat, "Failed to parse feature addition"); err != nil {
		b.logger().Warn("feature addition failed", "app", appID, "error", err)
		return &FeatureResult{Success: false, Error: err.Error()}, nil
	}
	if err := b.Store.UpdateAppCode(appID, app.Code.Merge(feat.NewFiles, feat.UpdatedFiles)); err != nil {
		return nil, err
	}

	return &FeatureResult{
		Success:          true,
		Features:         feat.Features,
		Explanation:      feat.Explanation,
		UserInstructions: feat.UserInstructions,
		FilesAdded:       len(feat.NewFiles),
		FilesUpdated:     len(feat.UpdatedFiles),
		Message: fmt.Sprintf("✨ Feature added successfully!\n\n**New capabilities:**\n%s\n\n**How it works:**\n%s\n\n**For your customers:**\n%s\n\n**Files changed:** %d added, %d updated",
			bulletList(feat.Features, "✓"), feat.Explanation, feat.UserInstructions, len(feat.NewFiles), len(feat.UpdatedFiles)),
	}, nil
}

type Component struct {
	ComponentName string            `json:"componentName"`
	Files         map[string]string `json:"files"`
	Usage         string            `json:"usage,omitempty"`
	Props         any               `json:"props,omitempty"`
	Preview       string            `json:"preview,omitempty"`
}

type ComponentResult struct {
	Success   bool       `json:"success"`
	Component *Component `json:"component,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// CreateBeautifulComponent designs a standalone component over the named
// endpoints ("GET /pets"). An empty list means every endpoint. Nothing is
// stored.
func (b *Builder) CreateBeautifulComponent(ctx context.Context, specID, description string, endpoints []string) (*ComponentResult, error) {
	if !b.configured() {
		return &ComponentResult{Success: false, Error: keyRequired}, nil
	}
	_, eps, err := b.specWithEndpoints(specID)
	if err != nil {
		return nil, err
	}
	if len(endpoints) > 0 {
		want := make(map[string]struct{}, len(endpoints))
		for _, e := range endpoints {
			want[e] = struct{}{}
		}
		picked := eps[:0:0]
		for _, e := range eps {
			if _, ok := want[e.Label()]; ok {
				picked = append(picked, e)
			}
		}
		eps = picked
	}

	var comp Component
	if err := b.askObject(ctx, "create_component", prompt.BeautifulComponent(description, eps), 0.7, 3000,
		llm.FilesSchema, &comp, "Failed to parse component"); err != nil {
		b.logger().Warn("component creation failed", "spec", specID, "error", err)
		return &ComponentResult{Success: false, Error: err.Error()}, nil
	}

	return &ComponentResult{
		Success:   true,
		Component: &comp,
		Message: fmt.Sprintf("🎨 Created beautiful component: **%s**\n\n%s\n\n**Usage:**\n```tsx\n%s\n```\n\n**Files generated:**\n%s",
			comp.ComponentName, comp.Preview, comp.Usage, strings.Join(sortedKeys(comp.Files), ", ")),
	}, nil
}
