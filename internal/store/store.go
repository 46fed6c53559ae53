package store

import (
	"encoding/json"
	"errors"

	"github.com/yourorg/shoot/pkg/types"
)

// ErrNotFound is returned by direct lookups of a missing record.
var ErrNotFound = errors.New("not found")

type Store interface {
	CreateSpec(spec *types.APISpec, endpoints []types.Endpoint) (*types.APISpec, error)
	GetSpec(id string) (*types.APISpec, error)
	ListSpecs() ([]types.SpecSummary, error)
	ListEndpoints(specID string) ([]types.Endpoint, error)
	UpdateSpecSettings(id, overrideBaseURL string) error
	DeleteSpec(id string) error

	CreateApp(app *types.GeneratedApp) (*types.GeneratedApp, error)
	GetApp(id string) (*types.GeneratedApp, error)
	ListApps(specID string) ([]types.GeneratedApp, error)
	UpdateAppCode(id string, code types.CodeMap) error
	DeleteApp(id string) error

	// ListAPIKeys returns masked key values.
	CreateAPIKey(key *types.APIKey) (*types.APIKey, error)
	ListAPIKeys(specID string) ([]types.APIKey, error)
	DeleteAPIKey(id string) error

	GetConversation(id string) (*types.Conversation, error)
	SaveConversation(conv *types.Conversation) error
	SaveMessage(msg *types.Message) (*types.Message, error)
	ListMessages(conversationID string, limit int) ([]types.Message, error)
	ClearConversation(conversationID string) error

	SaveInsight(specID string, insights json.RawMessage) (*types.Insight, error)
	GetInsight(specID string) (*types.Insight, error)
	SaveWorkflow(w *types.Workflow) (*types.Workflow, error)
	GetWorkflow(id string) (*types.Workflow, error)
	ListWorkflows(specID string) ([]types.Workflow, error)
	SaveRemix(r *types.Remix) (*types.Remix, error)
	ListRemixes(specID string) ([]types.Remix, error)

	Close() error
}

// KeyVault exposes unmasked credentials. Only the request proxy may hold one.
type KeyVault interface {
	APIKeyValue(id string) (*types.APIKey, error)
}

// MaskKey hides all but the first and last four characters of a credential.
func MaskKey(key string) string {
	r := []rune(key)
	if len(r) <= 8 {
		return "***"
	}
	return string(r[:4]) + "..." + string(r[len(r)-4:])
}
