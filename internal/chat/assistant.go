// Package chat routes conversational messages to intent handlers and keeps
// per-conversation context.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/yourorg/shoot/internal/apispec"
	"github.com/yourorg/shoot/internal/llm"
	"github.com/yourorg/shoot/internal/store"
	"github.com/yourorg/shoot/pkg/types"
)

// SpecImporter loads and stores a spec from a URL or raw content.
type SpecImporter interface {
	Import(ctx context.Context, in apispec.Input) (*apispec.ImportResult, error)
}

type Assistant struct {
	Store    store.Store
	Importer SpecImporter
	LLM      llm.Completer
	Logger   *slog.Logger
}

func New(st store.Store, im SpecImporter, c llm.Completer, logger *slog.Logger) *Assistant {
	return &Assistant{Store: st, Importer: im, LLM: c, Logger: logger}
}

type SendRequest struct {
	Message        string `json:"message" validate:"required"`
	ConversationID string `json:"conversationId,omitempty"`
	SpecID         string `json:"specId,omitempty"`
}

// Reply is a handler envelope tagged with its conversation.
type Reply struct {
	ConversationID string `json:"conversationId"`
	types.ChatResponse
}

// Send records a user turn, answers it and records the answer. Turns on
// the same conversation are not serialized.
func (a *Assistant) Send(ctx context.Context, req SendRequest) (*Reply, error) {
	convID := req.ConversationID
	if convID == "" {
		convID = uuid.NewString()
	}
	conv, err := a.Store.GetConversation(convID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		conv = &types.Conversation{ConversationID: convID, CurrentSpecID: req.SpecID}
		if err := a.Store.SaveConversation(conv); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if _, err := a.Store.SaveMessage(&types.Message{ConversationID: convID, Role: types.RoleUser, Content: req.Message}); err != nil {
		return nil, err
	}

	specID := conv.CurrentSpecID
	if specID == "" {
		specID = req.SpecID
	}
	spec, err := a.activeSpec(specID)
	if err != nil {
		return nil, err
	}

	resp, err := a.Process(ctx, req.Message, conv, spec)
	if err != nil {
		return nil, err
	}

	if _, err := a.Store.SaveMessage(&types.Message{ConversationID: convID, Role: types.RoleAssistant, Content: resp.Message}); err != nil {
		return nil, err
	}
	return &Reply{ConversationID: convID, ChatResponse: *resp}, nil
}

// activeSpec resolves the conversation's spec. A spec deleted since it was
// selected counts as none.
func (a *Assistant) activeSpec(id string) (*types.APISpec, error) {
	if id == "" {
		return nil, nil
	}
	spec, err := a.Store.GetSpec(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return spec, nil
}

// Process answers one message given the active spec, which may be nil.
func (a *Assistant) Process(ctx context.Context, message string, conv *types.Conversation, spec *types.APISpec) (*types.ChatResponse, error) {
	intent := Route(strings.ToLower(message), spec != nil)
	a.logger().Debug("chat message routed", "conversation", conv.ConversationID, "intent", intent.String())

	switch intent {
	case IntentUpload:
		return a.handleUpload(ctx, message, conv)
	case IntentBuildCustomerApp:
		return buildCustomerApp(message, spec), nil
	case IntentAddFeature:
		return addFeature(), nil
	case IntentRefineUI:
		return refineUI(), nil
	case IntentGenerate:
		return a.handleGenerate(message, spec)
	case IntentAnalyze:
		return a.handleAnalyze(spec)
	case IntentList:
		return a.handleList(message, spec)
	case IntentHelp:
		return help(), nil
	default:
		return a.handleGeneral(ctx, message, spec != nil), nil
	}
}

// Conversation returns the stored context of a conversation.
func (a *Assistant) Conversation(id string) (*types.Conversation, error) {
	return a.Store.GetConversation(id)
}

// UpdateConversation replaces the context fields of an existing conversation.
func (a *Assistant) UpdateConversation(conv *types.Conversation) error {
	existing, err := a.Store.GetConversation(conv.ConversationID)
	if err != nil {
		return err
	}
	existing.CurrentSpecID = conv.CurrentSpecID
	existing.CurrentAppID = conv.CurrentAppID
	existing.LastAction = conv.LastAction
	return a.Store.SaveConversation(existing)
}

// Messages returns a conversation's transcript in order. A positive limit
// keeps the latest messages only.
func (a *Assistant) Messages(id string, limit int) ([]types.Message, error) {
	return a.Store.ListMessages(id, limit)
}

// Clear deletes a conversation and its messages.
func (a *Assistant) Clear(id string) error {
	if err := a.Store.ClearConversation(id); err != nil {
		return fmt.Errorf("clear conversation %s: %w", id, err)
	}
	return nil
}

func (a *Assistant) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
