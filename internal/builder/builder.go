// Package builder turns stored specs into generated applications, with
// LLM assistance when a credential is configured and starter templates
// otherwise. Generated apps are persisted through the store.
package builder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/yourorg/shoot/internal/apispec"
	"github.com/yourorg/shoot/internal/llm"
	"github.com/yourorg/shoot/internal/prompt"
	"github.com/yourorg/shoot/internal/store"
	"github.com/yourorg/shoot/pkg/types"
)

const keyRequired = "OpenAI API key required"

type Builder struct {
	Store     store.Store
	LLM       llm.Completer
	Describer *apispec.Describer
	Logger    *slog.Logger
}

func New(st store.Store, c llm.Completer, d *apispec.Describer, logger *slog.Logger) *Builder {
	return &Builder{Store: st, LLM: c, Describer: d, Logger: logger}
}

func (b *Builder) configured() bool {
	return b.LLM != nil && b.LLM.Configured()
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *Builder) ask(ctx context.Context, op string, p prompt.Prompt, temperature float64, maxTokens int) (string, error) {
	b.logger().Debug("llm prompt", "operation", op, "prompt", llm.Preview(p.User, 400))
	return b.LLM.Complete(ctx, llm.Request{
		Operation: op,
		Messages: []llm.Message{
			{Role: types.RoleSystem, Content: p.System},
			{Role: types.RoleUser, Content: p.User},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
}

// askObject calls the model and extracts a JSON object of the given shape
// into dst. Failure text follows what is shown to users.
func (b *Builder) askObject(ctx context.Context, op string, p prompt.Prompt, temperature float64, maxTokens int, schema *llm.Schema, dst any, failure string) error {
	reply, err := b.ask(ctx, op, p, temperature, maxTokens)
	if err != nil {
		return err
	}
	res := schema.Check(llm.ExtractObject(reply))
	if !res.OK() {
		b.logger().Warn("unparseable llm reply", "operation", op, "reply", llm.Preview(res.Raw, 200))
		return errors.New(failure)
	}
	if err := res.Decode(dst); err != nil {
		b.logger().Warn("llm reply has unexpected shape", "operation", op, "error", err)
		return errors.New(failure)
	}
	return nil
}

func (b *Builder) specWithEndpoints(specID string) (*types.APISpec, []types.Endpoint, error) {
	spec, err := b.Store.GetSpec(specID)
	if err != nil {
		return nil, nil, err
	}
	eps, err := b.Store.ListEndpoints(specID)
	if err != nil {
		return nil, nil, err
	}
	return spec, eps, nil
}

// baseURL resolves the API root the starter client should target.
func (b *Builder) baseURL(spec *types.APISpec) string {
	if b.Describer == nil {
		return ""
	}
	target, err := b.Describer.Describe(spec)
	if err != nil {
		b.logger().Debug("describe spec failed", "spec", spec.ID, "error", err)
		return ""
	}
	return target.BaseURL
}

// focusApp records the app as the conversation's current one.
func (b *Builder) focusApp(conversationID, specID, appID, action string) {
	if conversationID == "" {
		return
	}
	conv, err := b.Store.GetConversation(conversationID)
	if err != nil {
		b.logger().Debug("conversation not updated", "conversation", conversationID, "error", err)
		return
	}
	conv.CurrentSpecID = specID
	conv.CurrentAppID = appID
	conv.LastAction = action
	if err := b.Store.SaveConversation(conv); err != nil {
		b.logger().Warn("save conversation failed", "conversation", conversationID, "error", err)
	}
}

// metaField returns one top-level member of an app's metadata.
func metaField(meta json.RawMessage, key string) json.RawMessage {
	var m map[string]json.RawMessage
	if len(meta) == 0 || json.Unmarshal(meta, &m) != nil {
		return nil
	}
	return m[key]
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

func firstWords(s string, n int) []string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return words
}

func bulletList(items []string, mark string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = mark + " " + it
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
