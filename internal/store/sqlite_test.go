package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/shoot/pkg/types"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "shoot.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedSpec(t *testing.T, s *SQLStore) *types.APISpec {
	t.Helper()
	spec, err := s.CreateSpec(&types.APISpec{
		Name:     "Petstore",
		Version:  "1.0.0",
		SpecType: types.SpecTypeOpenAPI,
		Content:  json.RawMessage(`{"openapi":"3.0.0"}`),
	}, []types.Endpoint{
		{Path: "/pets", Method: "GET", Summary: "List pets", Parameters: json.RawMessage(`[]`), Responses: json.RawMessage(`{}`)},
		{Path: "/pets", Method: "POST", Summary: "Create pet", RequestBody: json.RawMessage(`{"content":{}}`)},
	})
	if err != nil {
		t.Fatal(err)
	}
	return spec
}

func TestSpecRoundTrip(t *testing.T) {
	s := newTestStore(t)
	spec := seedSpec(t, s)
	if spec.ID == "" {
		t.Fatalf("empty spec id")
	}

	got, err := s.GetSpec(spec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Petstore" || string(got.Content) != `{"openapi":"3.0.0"}` {
		t.Fatalf("unexpected spec %+v", got)
	}

	eps, err := s.ListEndpoints(spec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(eps) != 2 || eps[0].Method != "GET" || eps[1].Method != "POST" {
		t.Fatalf("unexpected endpoints %+v", eps)
	}
	if eps[1].Parameters != nil || string(eps[1].RequestBody) != `{"content":{}}` {
		t.Fatalf("unexpected endpoint json %+v", eps[1])
	}

	list, err := s.ListSpecs()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].EndpointCount != 2 {
		t.Fatalf("unexpected summaries %+v", list)
	}

	if err := s.UpdateSpecSettings(spec.ID, "https://override.example.com"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.GetSpec(spec.ID); got.OverrideBaseURL != "https://override.example.com" {
		t.Fatalf("override not saved")
	}
	if err := s.UpdateSpecSettings("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSpec("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("spec: %v", err)
	}
	if _, err := s.GetApp("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("app: %v", err)
	}
	if _, err := s.GetConversation("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("conversation: %v", err)
	}
	if _, err := s.APIKeyValue("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("key: %v", err)
	}
	if _, err := s.GetInsight("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("insight: %v", err)
	}
}

func TestChildRequiresSpec(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateApp(&types.GeneratedApp{SpecID: "ghost", Name: "x", Framework: "react"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("app: %v", err)
	}
	if _, err := s.CreateAPIKey(&types.APIKey{SpecID: "ghost", KeyName: "k", KeyValue: "v"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("key: %v", err)
	}
	if _, err := s.SaveWorkflow(&types.Workflow{SpecID: "ghost", Name: "w"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("workflow: %v", err)
	}
}

func TestAppCodeUpdate(t *testing.T) {
	s := newTestStore(t)
	spec := seedSpec(t, s)

	app, err := s.CreateApp(&types.GeneratedApp{
		SpecID:    spec.ID,
		Name:      "Petstore react App",
		Framework: "react",
		Code:      types.CodeMap{"src/App.tsx": "old", "README.md": "# hi"},
		Metadata:  json.RawMessage(`{"useAI":false,"fileCount":2}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	merged := app.Code.Merge(map[string]string{"src/App.tsx": "new"})
	if err := s.UpdateAppCode(app.ID, merged); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetApp(app.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Code["src/App.tsx"] != "new" || got.Code["README.md"] != "# hi" {
		t.Fatalf("unexpected code %+v", got.Code)
	}
	if apps, _ := s.ListApps(spec.ID); len(apps) != 1 {
		t.Fatalf("expected 1 app")
	}
	if err := s.DeleteApp(app.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteApp(app.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestAPIKeysAreMasked(t *testing.T) {
	s := newTestStore(t)
	spec := seedSpec(t, s)

	created, err := s.CreateAPIKey(&types.APIKey{SpecID: spec.ID, KeyName: "prod", KeyValue: "sk-1234567890"})
	if err != nil {
		t.Fatal(err)
	}
	if created.KeyValue != "sk-1...7890" {
		t.Fatalf("create returned unmasked value %q", created.KeyValue)
	}
	keys, err := s.ListAPIKeys(spec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0].KeyValue != "sk-1...7890" {
		t.Fatalf("unexpected keys %+v", keys)
	}
	raw, err := s.APIKeyValue(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if raw.KeyValue != "sk-1234567890" {
		t.Fatalf("raw accessor returned %q", raw.KeyValue)
	}
}

func TestMaskKey(t *testing.T) {
	cases := map[string]string{
		"":           "***",
		"abcdefgh":   "***",
		"abcdefghi":  "abcd...fghi",
		"abcdefghij": "abcd...ghij",
		"ключ-секрет": "ключ...крет",
		"ääääbbbb":   "***",
	}
	for in, want := range cases {
		if got := MaskKey(in); got != want {
			t.Fatalf("MaskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCascadeDelete(t *testing.T) {
	s := newTestStore(t)
	spec := seedSpec(t, s)
	other := seedSpec(t, s)

	if _, err := s.CreateApp(&types.GeneratedApp{SpecID: spec.ID, Name: "a", Framework: "react"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateAPIKey(&types.APIKey{SpecID: spec.ID, KeyName: "k", KeyValue: "secret-value"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveInsight(spec.ID, json.RawMessage(`{"capabilities":[]}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveWorkflow(&types.Workflow{SpecID: spec.ID, Name: "w", Steps: json.RawMessage(`[{"step":1}]`)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveRemix(&types.Remix{SpecID: spec.ID, Name: "r"}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteSpec(spec.ID); err != nil {
		t.Fatal(err)
	}
	if eps, _ := s.ListEndpoints(spec.ID); len(eps) != 0 {
		t.Fatalf("expected endpoints deleted")
	}
	if apps, _ := s.ListApps(spec.ID); len(apps) != 0 {
		t.Fatalf("expected apps deleted")
	}
	if keys, _ := s.ListAPIKeys(spec.ID); len(keys) != 0 {
		t.Fatalf("expected keys deleted")
	}
	if _, err := s.GetInsight(spec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected insight deleted")
	}
	if wfs, _ := s.ListWorkflows(spec.ID); len(wfs) != 0 {
		t.Fatalf("expected workflows deleted")
	}
	if rs, _ := s.ListRemixes(spec.ID); len(rs) != 0 {
		t.Fatalf("expected remixes deleted")
	}
	if eps, _ := s.ListEndpoints(other.ID); len(eps) != 2 {
		t.Fatalf("other spec endpoints touched")
	}
	if err := s.DeleteSpec(spec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsightIsSingleton(t *testing.T) {
	s := newTestStore(t)
	spec := seedSpec(t, s)
	if _, err := s.SaveInsight(spec.ID, json.RawMessage(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveInsight(spec.ID, json.RawMessage(`{"v":2}`)); err != nil {
		t.Fatal(err)
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM insights WHERE spec_id=?`, spec.ID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected one insight row, got %d", n)
	}
	got, err := s.GetInsight(spec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Insights) != `{"v":2}` {
		t.Fatalf("unexpected insight %s", got.Insights)
	}
}

func TestConversationLifecycle(t *testing.T) {
	s := newTestStore(t)

	conv := &types.Conversation{ConversationID: "c1"}
	if err := s.SaveConversation(conv); err != nil {
		t.Fatal(err)
	}
	conv.CurrentSpecID = "spec-1"
	conv.LastAction = "spec_uploaded"
	if err := s.SaveConversation(conv); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetConversation("c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentSpecID != "spec-1" || got.LastAction != "spec_uploaded" {
		t.Fatalf("upsert lost fields: %+v", got)
	}

	for i := 0; i < 5; i++ {
		if _, err := s.SaveMessage(&types.Message{ConversationID: "c1", Role: types.RoleUser, Content: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	all, err := s.ListMessages("c1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 || all[0].Content != "m0" {
		t.Fatalf("unexpected messages %+v", all)
	}
	last, err := s.ListMessages("c1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 2 || last[0].Content != "m3" || last[1].Content != "m4" {
		t.Fatalf("unexpected limited messages %+v", last)
	}

	if err := s.ClearConversation("c1"); err != nil {
		t.Fatal(err)
	}
	if msgs, _ := s.ListMessages("c1", 0); len(msgs) != 0 {
		t.Fatalf("expected messages cleared")
	}
	if _, err := s.GetConversation("c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected conversation removed")
	}
}

func TestMessagesWithSameTimestampKeepInsertOrder(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveConversation(&types.Conversation{ConversationID: "c1"}); err != nil {
		t.Fatal(err)
	}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	// ids sort opposite to insertion so only seq can restore the order
	ids := []string{"z", "m", "a"}
	for i, id := range ids {
		msg := &types.Message{ID: id, ConversationID: "c1", Role: types.RoleUser, Content: fmt.Sprintf("m%d", i), CreatedAt: at}
		if _, err := s.SaveMessage(msg); err != nil {
			t.Fatal(err)
		}
	}
	all, err := s.ListMessages("c1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(all))
	}
	for i, m := range all {
		if m.ID != ids[i] {
			t.Fatalf("message %d: got %s, want %s", i, m.ID, ids[i])
		}
	}
	last, err := s.ListMessages("c1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 1 || last[0].ID != "a" {
		t.Fatalf("unexpected limited messages %+v", last)
	}
}

func TestConcurrentReadWrite(t *testing.T) {
	s := newTestStore(t)
	spec := seedSpec(t, s)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateApp(&types.GeneratedApp{SpecID: spec.ID, Name: fmt.Sprintf("app-%d", i), Framework: "react"})
			errs <- err
		}(i)
		go func() {
			defer wg.Done()
			_, err := s.ListApps(spec.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if apps, _ := s.ListApps(spec.ID); len(apps) != 10 {
		t.Fatalf("expected 10 apps, got %d", len(apps))
	}
}
