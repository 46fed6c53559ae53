package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourorg/shoot/internal/apispec"
	"github.com/yourorg/shoot/internal/llm"
	"github.com/yourorg/shoot/internal/prompt"
	"github.com/yourorg/shoot/pkg/types"
)

const petstoreURL = "https://petstore.swagger.io/v2/swagger.json"

// Actions tell the client which follow-up call to make.
const (
	ActionSpecUploaded        = "spec_uploaded"
	ActionBuildingCustomerApp = "building_customer_app"
	ActionGenerateApp         = "generate_app"
)

func (a *Assistant) handleUpload(ctx context.Context, message string, conv *types.Conversation) (*types.ChatResponse, error) {
	in := apispec.Input{}
	if url := urlRe.FindString(message); url != "" {
		in.URL = url
	} else if looksLikeSpec(message) {
		in.Content = strings.TrimSpace(message)
	} else {
		return &types.ChatResponse{
			Message:     "I can help you upload an API spec! You can:\n\n1. **Paste a URL** to your OpenAPI/Swagger spec\n2. **Paste the spec content** directly (JSON or YAML)\n\nJust send me any of these and I'll process it for you!",
			Suggestions: []string{petstoreURL, "Let me paste the content", "Show me an example"},
		}, nil
	}

	res, err := a.Importer.Import(ctx, in)
	if err != nil {
		a.logger().Warn("spec import failed", "url", in.URL, "error", err)
		return &types.ChatResponse{
			Message:     fmt.Sprintf("❌ An unexpected error occurred while trying to fetch the spec: %v", err),
			Suggestions: []string{"Try a different URL", "Let me paste the content"},
		}, nil
	}
	if !res.Success {
		return &types.ChatResponse{
			Message:     fmt.Sprintf("❌ Oops! I had trouble parsing that spec.\n\n**Error:** %s\n\nPlease check the URL or try pasting the spec content directly.", res.Error),
			Suggestions: []string{"Let me paste the content", "Help me with uploads"},
		}, nil
	}

	conv.CurrentSpecID = res.ID
	conv.LastAction = ActionSpecUploaded
	if err := a.Store.SaveConversation(conv); err != nil {
		return nil, err
	}
	return &types.ChatResponse{
		Message:     fmt.Sprintf("✅ Success! I've loaded the API spec **\"%s\"** with %d endpoints.\n\nIt's now the active context. What would you like to do next?", res.Name, res.EndpointCount),
		Suggestions: []string{"Analyze this API", "Generate a React app", "Show me the endpoints"},
		Action:      ActionSpecUploaded,
		Data:        map[string]any{"newSpecId": res.ID},
	}, nil
}

// looksLikeSpec reports whether a pasted message is itself a spec document.
func looksLikeSpec(message string) bool {
	s := strings.TrimSpace(message)
	if strings.HasPrefix(s, "{") {
		return strings.Contains(s, `"openapi"`) || strings.Contains(s, `"swagger"`)
	}
	return strings.HasPrefix(s, "openapi:") || strings.HasPrefix(s, "swagger:")
}

func buildCustomerApp(message string, spec *types.APISpec) *types.ChatResponse {
	if spec == nil {
		return &types.ChatResponse{
			Message:     "I'd love to build a beautiful customer-facing app! But first, I need an API spec to work with.\n\nLet's upload one now.",
			Suggestions: []string{"Upload a spec", "Show me an example"},
		}
	}
	return &types.ChatResponse{
		Message: fmt.Sprintf("🎨 Perfect! I'll build a beautiful, customer-ready app for **\"%s\"**.\n\nI'll:\n✨ Design a modern, professional UI\n🎯 Select the right endpoints\n⚡ Make it fully functional\n📱 Ensure it's responsive\n🚀 Make it deployment-ready\n\n**Building now...** This will take a moment as I craft something beautiful!", spec.Name),
		Action:  ActionBuildingCustomerApp,
		Data:    map[string]any{"specId": spec.ID, "description": message},
	}
}

func addFeature() *types.ChatResponse {
	return &types.ChatResponse{
		Message:     "I can add that feature! Which app would you like me to update?\n\nYou can say:\n- \"Add it to my latest app\"\n- \"Add it to [app name]\"\n- Or select an app from the Generated Apps tab",
		Suggestions: []string{"Add to latest app", "Show my apps"},
	}
}

func refineUI() *types.ChatResponse {
	return &types.ChatResponse{
		Message:     "I can refine the UI! Which app should I update?\n\nYou can:\n- Select an app from the Generated Apps tab\n- Say \"refine my latest app\"\n- Tell me the app name",
		Suggestions: []string{"Refine latest app", "Show my apps"},
	}
}

func specLines(specs []types.SpecSummary) string {
	lines := make([]string, len(specs))
	for i, s := range specs {
		lines[i] = fmt.Sprintf("%d. **%s** (%d endpoints)", i+1, s.Name, s.EndpointCount)
	}
	return strings.Join(lines, "\n")
}

func specSuggestions(specs []types.SpecSummary, verb string) []string {
	n := min(len(specs), 3)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = verb + " " + specs[i].Name
	}
	return out
}

func (a *Assistant) handleGenerate(message string, spec *types.APISpec) (*types.ChatResponse, error) {
	if spec == nil {
		specs, err := a.Store.ListSpecs()
		if err != nil {
			return nil, err
		}
		if len(specs) == 0 {
			return &types.ChatResponse{
				Message:     "I'd love to generate an app for you! But first, I need an API spec to work with.\n\nLet's upload one now. You can:\n1. Paste a URL to your spec\n2. Send me the spec content\n3. Upload a file",
				Suggestions: []string{"Upload " + petstoreURL, "Show me an example"},
			}, nil
		}
		top := specs[:min(len(specs), 5)]
		return &types.ChatResponse{
			Message:     fmt.Sprintf("Great! I can generate an app for you. You have %d spec(s) available:\n\n%s\n\nWhich one would you like to use?", len(specs), specLines(top)),
			Suggestions: specSuggestions(specs, "Use"),
			Data:        map[string]any{"specs": top},
		}, nil
	}

	framework := "react"
	if backendRe.MatchString(strings.ToLower(message)) {
		framework = "node"
	}
	eps, err := a.Store.ListEndpoints(spec.ID)
	if err != nil {
		return nil, err
	}
	return &types.ChatResponse{
		Message:     fmt.Sprintf("Perfect! I'll generate a **%s** app for \"%s\".\n\nThe app will include:\n\n✓ API client with all %d endpoints\n✓ TypeScript types and interfaces\n✓ Error handling and loading states\n✓ Clean, production-ready code\n\nWould you like me to use AI to enhance the code generation?", strings.ToUpper(framework), spec.Name, len(eps)),
		Suggestions: []string{"Yes, use AI enhancement", "No, use standard templates", "Tell me more about AI features"},
		Action:      ActionGenerateApp,
		Data:        map[string]any{"specId": spec.ID, "framework": framework, "endpointCount": len(eps)},
	}, nil
}

func (a *Assistant) handleAnalyze(spec *types.APISpec) (*types.ChatResponse, error) {
	if spec == nil {
		specs, err := a.Store.ListSpecs()
		if err != nil {
			return nil, err
		}
		if len(specs) == 0 {
			return &types.ChatResponse{
				Message:     "I don't have any specs to analyze yet. Let's upload one first!\n\nYou can paste a URL or the spec content.",
				Suggestions: []string{"Upload a spec", petstoreURL},
			}, nil
		}
		return &types.ChatResponse{
			Message:     fmt.Sprintf("I can analyze your API specs! Here are your specs:\n\n%s\n\nWhich one would you like me to analyze?", specLines(specs)),
			Suggestions: specSuggestions(specs, "Analyze"),
			Data:        map[string]any{"specs": specs},
		}, nil
	}

	eps, err := a.Store.ListEndpoints(spec.ID)
	if err != nil {
		return nil, err
	}
	version := spec.Version
	if version == "" {
		version = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's my analysis of **\"%s\"**:\n\n", spec.Name)
	b.WriteString("📊 **Overview**\n")
	fmt.Fprintf(&b, "- Endpoints: %d\n- Spec Type: %s\n- Version: %s\n\n", len(eps), strings.ToUpper(spec.SpecType), version)

	b.WriteString("🔧 **HTTP Methods**\n")
	seen := map[string]bool{}
	for _, e := range eps {
		if !seen[e.Method] {
			seen[e.Method] = true
			fmt.Fprintf(&b, "- %s\n", e.Method)
		}
	}
	b.WriteString("\n🛤️ **Sample Endpoints**\n")
	for _, e := range eps[:min(len(eps), 5)] {
		fmt.Fprintf(&b, "- `%s`\n", e.Path)
	}
	if len(eps) > 5 {
		fmt.Fprintf(&b, "- ... and %d more\n", len(eps)-5)
	}
	b.WriteString("\n**What would you like to do next?**")

	return &types.ChatResponse{
		Message:     b.String(),
		Suggestions: []string{"Generate an app", "Show me all endpoints", "Analyze another spec"},
		Data:        map[string]any{"specId": spec.ID, "endpointCount": len(eps)},
	}, nil
}

func (a *Assistant) handleList(message string, spec *types.APISpec) (*types.ChatResponse, error) {
	if spec != nil && endpointReqRe.MatchString(strings.ToLower(message)) {
		eps, err := a.Store.ListEndpoints(spec.ID)
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Here are all **%d** endpoints for **\"%s\"**:\n\n", len(eps), spec.Name)
		for i, e := range eps[:min(len(eps), 15)] {
			fmt.Fprintf(&b, "%d. **%s** `%s`", i+1, e.Method, e.Path)
			if e.Summary != "" {
				fmt.Fprintf(&b, " - %s", e.Summary)
			}
			b.WriteString("\n")
		}
		if len(eps) > 15 {
			fmt.Fprintf(&b, "\n... and %d more\n", len(eps)-15)
		}
		return &types.ChatResponse{
			Message:     b.String(),
			Suggestions: []string{"Generate an app", "Analyze this API", "Show more details"},
			Data:        map[string]any{"endpoints": eps[:min(len(eps), 20)]},
		}, nil
	}

	specs, err := a.Store.ListSpecs()
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return &types.ChatResponse{
			Message:     "You don't have any API specs yet. Let's get started by uploading one!\n\nYou can:\n- Paste a URL\n- Send me the spec content\n- Upload a file",
			Suggestions: []string{"Upload a spec URL", "Paste spec content", "Show me an example"},
		}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Here are your **%d** API spec(s):\n\n", len(specs))
	for i, s := range specs {
		version := s.Version
		if version == "" {
			version = "v1"
		}
		fmt.Fprintf(&b, "%d. **%s** (%s) - %d endpoints\n", i+1, s.Name, version, s.EndpointCount)
	}
	return &types.ChatResponse{
		Message:     b.String(),
		Suggestions: []string{"Analyze a spec", "Generate an app", "Upload another spec"},
		Data:        map[string]any{"specs": specs},
	}, nil
}

const helpText = `# Welcome to Shoot! 🚀

I'm your AI assistant for building apps from API specifications. Here's what I can do:

## 📤 Upload & Parse
- Upload API specs (OpenAPI, Swagger)
- Parse from URLs or pasted content
- Extract and analyze endpoints

## 🔍 Analyze
- Detect authentication patterns
- Identify pagination strategies
- Suggest best practices
- Understand your API structure

## 🛠️ Generate Apps
- React apps with TypeScript
- Node.js/Express backends
- Clean, production-ready code
- AI-enhanced generation (optional)

## 💬 Natural Conversation
- Just chat with me naturally
- I'll understand what you want to do
- Step-by-step guidance

**Try saying things like:**
- "Upload https://petstore.swagger.io/v2/swagger.json"
- "Generate a React app"
- "Show me my specs"
- "Analyze this API"

What would you like to do?`

func help() *types.ChatResponse {
	return &types.ChatResponse{
		Message:     helpText,
		Suggestions: []string{"Upload an API spec", "Show me an example", "Generate a demo app"},
	}
}

func (a *Assistant) handleGeneral(ctx context.Context, message string, hasSpec bool) *types.ChatResponse {
	if a.LLM == nil || !a.LLM.Configured() {
		return &types.ChatResponse{
			Message:     "I'm here to help you build apps from API specs!\n\nI can help with:\n- 📤 Uploading API specs\n- 🛠️ Generating apps\n- 🔍 Analyzing APIs\n- 📋 Listing your specs\n\nWhat would you like to do?",
			Suggestions: []string{"Upload a spec", "Generate an app", "Analyze an API", "Help"},
		}
	}
	reply, err := a.LLM.Complete(ctx, llm.Request{
		Operation: "chat",
		Messages: []llm.Message{
			{Role: types.RoleSystem, Content: prompt.General(hasSpec)},
			{Role: types.RoleUser, Content: message},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		a.logger().Warn("general chat failed", "error", err)
		return &types.ChatResponse{
			Message:     "I'm here to help! What would you like to do?\n\n- Upload an API spec\n- Generate an app\n- Analyze an API\n- List your specs",
			Suggestions: []string{"Upload a spec", "Generate an app", "Help"},
		}
	}
	return &types.ChatResponse{
		Message:     reply,
		Suggestions: []string{"Upload a spec", "Generate an app", "Analyze my API"},
	}
}
