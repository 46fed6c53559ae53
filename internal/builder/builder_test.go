package builder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/shoot/internal/llm"
	"github.com/yourorg/shoot/internal/store"
	"github.com/yourorg/shoot/pkg/types"
)

type scripted struct {
	replies []string
	err     error
	calls   []llm.Request
}

func (s *scripted) Configured() bool { return true }

func (s *scripted) Complete(_ context.Context, r llm.Request) (string, error) {
	s.calls = append(s.calls, r)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	out := s.replies[0]
	s.replies = s.replies[1:]
	return out, nil
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "shoot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seed(t *testing.T, st store.Store) (*types.APISpec, *types.GeneratedApp) {
	t.Helper()
	spec, err := st.CreateSpec(&types.APISpec{
		Name:     "Petstore",
		SpecType: types.SpecTypeOpenAPI,
		Content:  json.RawMessage(`{"openapi":"3.0.0","servers":[{"url":"https://pets.example.com/v1"}]}`),
	}, []types.Endpoint{
		{Path: "/pets", Method: "GET", Summary: "List pets"},
		{Path: "/pets", Method: "POST", Summary: "Create pet"},
	})
	require.NoError(t, err)
	app, err := st.CreateApp(&types.GeneratedApp{
		SpecID:    spec.ID,
		Name:      "Pet Shop",
		Framework: "react",
		Code:      types.CodeMap{"src/App.tsx": "old app", "README.md": "# Pets"},
		Metadata:  json.RawMessage(`{"design":{"layout":"grid"},"selectedEndpoints":[{"endpoint":"GET /pets","purpose":"list"}]}`),
	})
	require.NoError(t, err)
	return spec, app
}

func TestNoCredentialFallbacksMakeNoCalls(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	st := newStore(t)
	spec, app := seed(t, st)
	b := New(st, &llm.Client{BaseURL: srv.URL}, nil, nil)
	ctx := context.Background()

	gen, err := b.GenerateApp(ctx, spec.ID, "react", true)
	require.NoError(t, err)
	assert.True(t, gen.Success)
	assert.Equal(t, 4, gen.FileCount)

	customer, err := b.BuildCustomerApp(ctx, spec.ID, "a shop", "")
	require.NoError(t, err)
	assert.Equal(t, "OpenAI API key required for beautiful component generation", customer.Error)

	ui, err := b.RefineUI(ctx, app.ID, "blue")
	require.NoError(t, err)
	assert.Equal(t, "OpenAI API key required", ui.Error)

	feat, err := b.AddFeature(ctx, app.ID, "search")
	require.NoError(t, err)
	assert.False(t, feat.Success)

	comp, err := b.CreateBeautifulComponent(ctx, spec.ID, "card", nil)
	require.NoError(t, err)
	assert.False(t, comp.Success)

	intent, err := b.BuildFromIntent(ctx, spec.ID, "adopt a pet", "")
	require.NoError(t, err)
	assert.Equal(t, "OpenAI API key required for intelligent app building", intent.Error)
	require.NotNil(t, intent.Fallback)
	assert.Equal(t, "GET /pets", intent.Fallback.SelectedEndpoints[0].Endpoint)
	assert.Len(t, intent.Fallback.SelectedEndpoints, 2)

	refined, err := b.RefineApp(ctx, app.ID, "tidy")
	require.NoError(t, err)
	assert.False(t, refined.Success)

	mod, err := b.ModifyComponent(ctx, app.ID, "src/App.tsx", "", "rename")
	require.NoError(t, err)
	assert.Equal(t, "OpenAI API key not configured", mod.Error)

	code, err := b.GenerateComponent(ctx, spec.ID, "pet list", "react")
	require.NoError(t, err)
	assert.Equal(t, "OpenAI API key not configured", code.Error)

	review, err := b.AnalyzeApp(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, []any{"Add error handling", "Improve loading states", "Add unit tests"}, review.Suggestions)

	flows, err := b.SuggestFlows(ctx, spec.ID)
	require.NoError(t, err)
	require.Len(t, flows.Suggestions, 2)
	assert.Equal(t, "CRUD Dashboard", flows.Suggestions[0].(map[string]any)["name"])

	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestGenerateAppTemplates(t *testing.T) {
	st := newStore(t)
	spec, _ := seed(t, st)
	b := New(st, nil, nil, nil)
	ctx := context.Background()

	res, err := b.GenerateApp(ctx, spec.ID, "react", false)
	require.NoError(t, err)
	assert.Equal(t, "Petstore react App", res.Name)
	app, err := st.GetApp(res.ID)
	require.NoError(t, err)
	assert.Contains(t, app.Code["src/App.tsx"], "<h1>Petstore</h1>")
	assert.Contains(t, app.Code["src/App.tsx"], "Generated React app with 2 endpoints")
	assert.Contains(t, app.Code["src/api/client.ts"], "new ApiClient('https://api.example.com')")
	assert.Contains(t, app.Code["package.json"], `"name": "petstore"`)
	assert.Equal(t, "Generated react application", app.Description)

	res, err = b.GenerateApp(ctx, spec.ID, "express", false)
	require.NoError(t, err)
	app, err = st.GetApp(res.ID)
	require.NoError(t, err)
	assert.Len(t, app.Code, 3)
	assert.Contains(t, app.Code["src/index.ts"], "Petstore API")

	res, err = b.GenerateApp(ctx, spec.ID, "vue", false)
	require.NoError(t, err)
	app, err = st.GetApp(res.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CodeMap{"README.md": "# Petstore\n\nGenerated app for vue"}, app.Code)

	_, err = b.GenerateApp(ctx, "missing", "react", false)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRenderTemplatesSlug(t *testing.T) {
	code, err := RenderTemplates("react", "Pet  Store API", "https://pets.example.com", 0)
	require.NoError(t, err)
	assert.Contains(t, code["package.json"], `"name": "pet-store-api"`)
	assert.Contains(t, code["src/api/client.ts"], "https://pets.example.com")
}

func TestGenerateAppAI(t *testing.T) {
	st := newStore(t)
	spec, _ := seed(t, st)

	fake := &scripted{replies: []string{"```tsx\n// src/App.tsx\nexport default 1\n```"}}
	res, err := New(st, fake, nil, nil).GenerateApp(context.Background(), spec.ID, "react", true)
	require.NoError(t, err)
	app, err := st.GetApp(res.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CodeMap{"src/App.tsx": "export default 1"}, app.Code)
	assert.Equal(t, "generate_app", fake.calls[0].Operation)

	failing := &scripted{err: errors.New("boom")}
	res, err = New(st, failing, nil, nil).GenerateApp(context.Background(), spec.ID, "react", true)
	require.NoError(t, err)
	assert.Equal(t, 4, res.FileCount)
}

func TestBuildCustomerApp(t *testing.T) {
	st := newStore(t)
	spec, _ := seed(t, st)
	conv := &types.Conversation{ConversationID: "c1"}
	require.NoError(t, st.SaveConversation(conv))

	fake := &scripted{replies: []string{`Here you go: {"understanding":"A pet shop","design":{"layout":"grid"},
		"selectedEndpoints":[{"endpoint":"GET /pets","uiElement":"Card grid"}],
		"files":{"src/App.tsx":"shop"},"features":["Browse"],"deploymentReady":true}`}}
	res, err := New(st, fake, nil, nil).BuildCustomerApp(context.Background(), spec.ID, "a beautiful pet shop for my customers", "c1")
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "a beautiful pet shop for - Customer App", res.AppName)
	assert.Contains(t, res.Message, "GET /pets → Card grid")
	assert.Equal(t, 0.8, fake.calls[0].Temperature)

	app, err := st.GetApp(res.AppID)
	require.NoError(t, err)
	assert.Equal(t, "A pet shop", app.Description)
	assert.JSONEq(t, `{"layout":"grid"}`, string(metaField(app.Metadata, "design")))

	got, err := st.GetConversation("c1")
	require.NoError(t, err)
	assert.Equal(t, res.AppID, got.CurrentAppID)
}

func TestBuildCustomerAppUnparseable(t *testing.T) {
	st := newStore(t)
	spec, _ := seed(t, st)
	fake := &scripted{replies: []string{`{"understanding":"no files"}`}}
	res, err := New(st, fake, nil, nil).BuildCustomerApp(context.Background(), spec.ID, "shop", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to parse AI response", res.Error)
}

func TestRefineUIEmptyChangeSetKeepsCode(t *testing.T) {
	st := newStore(t)
	_, app := seed(t, st)
	fake := &scripted{replies: []string{`{"files":{},"changes":[],"explanation":"nothing"}`}}
	res, err := New(st, fake, nil, nil).RefineUI(context.Background(), app.ID, "make it pop")
	require.NoError(t, err)
	require.True(t, res.Success)

	got, err := st.GetApp(app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.Code, got.Code)
	assert.Contains(t, fake.calls[0].Messages[1].Content, `"layout": "grid"`)
}

func TestRefineRepliesWithoutFilesKeepCode(t *testing.T) {
	st := newStore(t)
	_, app := seed(t, st)
	fake := &scripted{replies: []string{
		`{"changes":[],"explanation":"already fine"}`,
		`{"changes":[],"explanation":"nothing to do"}`,
	}}
	b := New(st, fake, nil, nil)

	ui, err := b.RefineUI(context.Background(), app.ID, "make it pop")
	require.NoError(t, err)
	assert.True(t, ui.Success)
	refined, err := b.RefineApp(context.Background(), app.ID, "tidy")
	require.NoError(t, err)
	assert.True(t, refined.Success)

	got, err := st.GetApp(app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.Code, got.Code)
}

func TestAddFeatureMergeOrder(t *testing.T) {
	st := newStore(t)
	_, app := seed(t, st)
	fake := &scripted{replies: []string{`{"newFiles":{"src/Search.tsx":"new","src/App.tsx":"from new"},
		"updatedFiles":{"src/App.tsx":"from update"},"features":["Search"]}`}}
	res, err := New(st, fake, nil, nil).AddFeature(context.Background(), app.ID, "add search")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 2, res.FilesAdded)
	assert.Equal(t, 1, res.FilesUpdated)

	got, err := st.GetApp(app.ID)
	require.NoError(t, err)
	assert.Equal(t, "from update", got.Code["src/App.tsx"])
	assert.Equal(t, "new", got.Code["src/Search.tsx"])
	assert.Equal(t, "# Pets", got.Code["README.md"])
}

func TestCreateBeautifulComponentFiltersEndpoints(t *testing.T) {
	st := newStore(t)
	spec, _ := seed(t, st)
	fake := &scripted{replies: []string{`{"componentName":"PetCard","files":{"PetCard.tsx":"x"},"usage":"<PetCard/>"}`}}
	res, err := New(st, fake, nil, nil).CreateBeautifulComponent(context.Background(), spec.ID, "pet card", []string{"POST /pets"})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "PetCard", res.Component.ComponentName)
	assert.Contains(t, fake.calls[0].Messages[1].Content, "POST /pets")
	assert.NotContains(t, fake.calls[0].Messages[1].Content, "GET /pets")
}

func TestBuildFromIntent(t *testing.T) {
	st := newStore(t)
	spec, _ := seed(t, st)
	fake := &scripted{replies: []string{
		`{"understanding":"Adopt pets","selectedEndpoints":[{"endpoint":"GET /pets","purpose":"browse"},{"endpoint":"POST /pets","purpose":"adopt"}],
		  "workflow":{"name":"Adoption","description":"adopt","steps":[{"step":1},{"step":2},{"step":3},{"step":4}]}}`,
		`{"files":{"src/App.tsx":"adopt","README.md":"# Adopt"}}`,
	}}
	res, err := New(st, fake, nil, nil).BuildFromIntent(context.Background(), spec.ID, "let people adopt pets", "")
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Adoption - Petstore", res.AppName)
	assert.Equal(t, 2, res.FileCount)
	require.Len(t, fake.calls, 2)
	assert.Equal(t, 0.7, fake.calls[0].Temperature)
	assert.Equal(t, 0.3, fake.calls[1].Temperature)

	app, err := st.GetApp(res.AppID)
	require.NoError(t, err)
	assert.Equal(t, "Adopt pets\n\nEndpoints used: GET /pets, POST /pets", app.Description)

	wf, err := st.GetWorkflow(res.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, "complex", wf.Complexity)
	assert.JSONEq(t, `{"src/App.tsx":"adopt","README.md":"# Adopt"}`, string(wf.Code))
}

func TestBuildFromIntentUnparseableFallsBack(t *testing.T) {
	st := newStore(t)
	spec, _ := seed(t, st)
	fake := &scripted{replies: []string{"I cannot help"}}
	res, err := New(st, fake, nil, nil).BuildFromIntent(context.Background(), spec.ID, "x", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to parse AI analysis", res.Error)
	require.NotNil(t, res.Fallback)
	assert.Len(t, fake.calls, 1)
}

func TestTestWorkflow(t *testing.T) {
	st := newStore(t)
	spec, _ := seed(t, st)
	wf, err := st.SaveWorkflow(&types.Workflow{
		SpecID: spec.ID,
		Name:   "Adopt",
		Steps: json.RawMessage(`[
			{"stepNumber":1,"action":"find","endpoint":"GET /pets","inputFrom":"user"},
			{"step":2,"action":"adopt","endpoint":"POST /pets","inputFrom":"step1"}
		]`),
		Complexity: "medium",
	})
	require.NoError(t, err)

	b := New(st, nil, nil, nil)
	res, err := b.TestWorkflow(context.Background(), wf.ID, json.RawMessage(`{"step1":{"q":"cat"}}`))
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Results, 2)
	first := res.Results[0].Output.(map[string]any)
	assert.Equal(t, map[string]any{"q": "cat"}, first["input"])
	assert.Equal(t, "Step 1 would call GET /pets", first["message"])
	second := res.Results[1].Output.(map[string]any)
	assert.Equal(t, first, second["input"])
	assert.Equal(t, 2, res.Results[1].Step)
	assert.Equal(t, 2, res.Summary.Succeeded)
	assert.Zero(t, res.Summary.Failed)

	missing, err := b.TestWorkflow(context.Background(), "nope", nil)
	require.NoError(t, err)
	assert.Equal(t, "Workflow not found", missing.Error)
}

func TestModifyComponentReplacesOneFile(t *testing.T) {
	st := newStore(t)
	_, app := seed(t, st)
	fake := &scripted{replies: []string{"```tsx\nnew app\n```"}}
	res, err := New(st, fake, nil, nil).ModifyComponent(context.Background(), app.ID, "src/App.tsx", "", "rewrite")
	require.NoError(t, err)
	assert.Equal(t, "new app", res.ModifiedCode)
	assert.Contains(t, fake.calls[0].Messages[1].Content, "old app")

	got, err := st.GetApp(app.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CodeMap{"src/App.tsx": "new app", "README.md": "# Pets"}, got.Code)
}

func TestSuggestFlowsFallbacks(t *testing.T) {
	st := newStore(t)
	spec, _ := seed(t, st)

	res, err := New(st, &scripted{replies: []string{"just build a dashboard"}}, nil, nil).SuggestFlows(context.Background(), spec.ID)
	require.NoError(t, err)
	assert.Equal(t, "AI-Suggested Application", res.Suggestions[0].(map[string]any)["name"])

	res, err = New(st, &scripted{err: errors.New("down")}, nil, nil).SuggestFlows(context.Background(), spec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Custom Application", res.Suggestions[0].(map[string]any)["name"])

	res, err = New(st, &scripted{replies: []string{`[{"name":"Adoption"}]`}}, nil, nil).SuggestFlows(context.Background(), spec.ID)
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"name": "Adoption"}}, res.Suggestions)
}

func TestExportApp(t *testing.T) {
	st := newStore(t)
	_, app := seed(t, st)
	b := New(st, nil, nil, nil)

	dir, err := b.ExportApp(app.ID, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "pet-shop", filepath.Base(dir))
	data, err := os.ReadFile(filepath.Join(dir, "src", "App.tsx"))
	require.NoError(t, err)
	assert.Equal(t, "old app", string(data))

	out := t.TempDir()
	require.NoError(t, st.UpdateAppCode(app.ID, types.CodeMap{"a.txt": "first", "../escape.txt": "x"}))
	_, err = b.ExportApp(app.ID, out)
	assert.Error(t, err)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written when any file name is unsafe")
}

func TestExportAppNameStaysInsideDir(t *testing.T) {
	st := newStore(t)
	spec, _ := seed(t, st)
	b := New(st, nil, nil, nil)

	parent := t.TempDir()
	out := filepath.Join(parent, "out")
	escaping, err := st.CreateApp(&types.GeneratedApp{
		SpecID: spec.ID, Name: "../../escape react App", Framework: "react",
		Code: types.CodeMap{"src/App.tsx": "x"},
	})
	require.NoError(t, err)
	dir, err := b.ExportApp(escaping.ID, out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "escape-react-app"), dir)
	_, err = os.Stat(filepath.Join(parent, "escape-react-app"))
	assert.True(t, os.IsNotExist(err))

	dots, err := st.CreateApp(&types.GeneratedApp{
		SpecID: spec.ID, Name: "../..", Framework: "react",
		Code: types.CodeMap{"src/App.tsx": "x"},
	})
	require.NoError(t, err)
	_, err = b.ExportApp(dots.ID, out)
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "pet-store-api", Slug("Pet  Store API"))
	assert.Equal(t, "tmp-pwn-react-app", Slug("../../../tmp/pwn react App"))
	assert.Equal(t, "", Slug("/../"))
}
