package prompt

import (
	"strings"
	"testing"

	"github.com/yourorg/shoot/pkg/types"
)

var petEndpoints = []types.Endpoint{
	{Method: "GET", Path: "/pets", Summary: "List pets"},
	{Method: "POST", Path: "/pets", Description: "Create a pet"},
	{Method: "DELETE", Path: "/pets/{id}"},
}

func TestNumberedEndpointsFallsBack(t *testing.T) {
	out := NumberedEndpoints(petEndpoints)
	want := "1. GET /pets - List pets\n2. POST /pets - Create a pet\n3. DELETE /pets/{id} - No description"
	if out != want {
		t.Fatalf("unexpected listing:\n%s", out)
	}
}

func TestGeneralReflectsSpecState(t *testing.T) {
	if !strings.Contains(General(true), "currently working with a spec") {
		t.Fatalf("expected loaded-spec note")
	}
	if !strings.Contains(General(false), "No spec is currently loaded") {
		t.Fatalf("expected no-spec note")
	}
	if !strings.Contains(General(false), "Shoot") {
		t.Fatalf("expected product name")
	}
}

func TestCustomerAppIncludesRequestAndEndpoints(t *testing.T) {
	p := CustomerApp("a pet adoption site", "Petstore", petEndpoints)
	if !strings.Contains(p.User, `"a pet adoption site"`) {
		t.Fatalf("expected quoted request")
	}
	if !strings.Contains(p.User, "2. POST /pets - Create a pet") {
		t.Fatalf("expected numbered endpoints")
	}
	if !strings.Contains(p.System, "Return only valid JSON.") {
		t.Fatalf("expected JSON-only system prompt")
	}
}

func TestRefineUIFocusHints(t *testing.T) {
	app := &types.GeneratedApp{Name: "Pets", Code: types.CodeMap{"src/App.tsx": "<App/>", "README.md": "# Pets"}}
	p := RefineUI(app, nil, "change the color and add a search box")
	for _, want := range []string{"color palette", "Add new feature", "search/filter", "// src/App.tsx\n<App/>"} {
		if !strings.Contains(p.User, want) {
			t.Fatalf("expected %q in prompt", want)
		}
	}
	if strings.Contains(p.User, "spacing, and sizing") {
		t.Fatalf("did not expect layout hint")
	}
	if strings.Index(p.User, "// README.md") > strings.Index(p.User, "// src/App.tsx") {
		t.Fatalf("expected files in name order")
	}
}

func TestModifyComponentEmbedsCode(t *testing.T) {
	p := ModifyComponent("App.tsx", "const x = 1", "rename x to y")
	if !strings.Contains(p.User, "Current Code (App.tsx):\n```\nconst x = 1\n```") {
		t.Fatalf("unexpected prompt: %s", p.User)
	}
	if !strings.Contains(p.User, "Return ONLY the modified code") {
		t.Fatalf("expected code-only instruction")
	}
}

func TestAnalyzeAppTruncatesSample(t *testing.T) {
	code := types.CodeMap{}
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		code[n+".ts"] = strings.Repeat(n, 1000)
	}
	p := AnalyzeApp(&types.GeneratedApp{Name: "Big", Framework: "react", Code: code})
	if strings.Contains(p.User, "f.ts:\n") {
		t.Fatalf("expected only the first five files to be sampled")
	}
	if !strings.Contains(p.User, "Files: a.ts, b.ts, c.ts, d.ts, e.ts, f.ts") {
		t.Fatalf("expected full file list")
	}
	if strings.Count(p.User, "e") > 1000 {
		t.Fatalf("expected sample to be capped")
	}
}

func TestAdvisorDefaults(t *testing.T) {
	if !strings.Contains(Extensions("", "Petstore", petEndpoints).User, "Focus: all areas") {
		t.Fatalf("expected default focus")
	}
	if !strings.Contains(Remix("", "Petstore", petEndpoints).User, "Theme: innovative use") {
		t.Fatalf("expected default theme")
	}
	p := Capabilities(&types.APISpec{Name: "Petstore", Version: "1.0"}, petEndpoints)
	if !strings.Contains(p.User, "Description: Not provided") {
		t.Fatalf("expected description fallback")
	}
}

func TestIntentCodeListsSelection(t *testing.T) {
	sel := []types.SelectedEndpoint{{Endpoint: "POST /pets", Purpose: "create"}}
	p := IntentCode("adopt a pet", "Petstore", sel, []byte(`{"name":"Adopt"}`))
	if !strings.Contains(p.User, "- POST /pets: create") {
		t.Fatalf("expected selected endpoint line")
	}
	if !strings.Contains(p.User, `"name": "Adopt"`) {
		t.Fatalf("expected indented workflow")
	}
}
