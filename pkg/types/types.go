package types

import (
	"encoding/json"
	"time"
)

// Spec types recognised on ingestion.
const (
	SpecTypeOpenAPI = "openapi"
	SpecTypeSwagger = "swagger"
	SpecTypePostman = "postman"
	SpecTypeOther   = "other"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// APISpec is one uploaded API specification.
type APISpec struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Version         string          `json:"version,omitempty"`
	SpecType        string          `json:"specType"`
	Content         json.RawMessage `json:"content,omitempty"`
	OverrideBaseURL string          `json:"overrideBaseUrl,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// SpecSummary is a spec list row.
type SpecSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Version       string    `json:"version,omitempty"`
	SpecType      string    `json:"specType"`
	EndpointCount int       `json:"endpointCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Endpoint is one (path, method) pair extracted from a spec.
// Parameters, RequestBody and Responses hold the operation's JSON verbatim.
type Endpoint struct {
	ID          string          `json:"id"`
	SpecID      string          `json:"specId"`
	Path        string          `json:"path"`
	Method      string          `json:"method"`
	Summary     string          `json:"summary,omitempty"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	RequestBody json.RawMessage `json:"requestBody,omitempty"`
	Responses   json.RawMessage `json:"responses,omitempty"`
}

// Label renders the endpoint as "METHOD /path".
func (e Endpoint) Label() string {
	return e.Method + " " + e.Path
}

// CodeMap maps a relative file path to its full source text.
type CodeMap map[string]string

// Merge returns a copy of c with every file of each layer written over it, in order.
// Merging an empty layer is a no-op.
func (c CodeMap) Merge(layers ...map[string]string) CodeMap {
	out := make(CodeMap, len(c))
	for k, v := range c {
		out[k] = v
	}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// GeneratedApp is a named, framework-tagged file set produced from a spec.
type GeneratedApp struct {
	ID          string          `json:"id"`
	SpecID      string          `json:"specId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Framework   string          `json:"framework"`
	Code        CodeMap         `json:"code"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// APIKey is a stored credential for calling a spec'd API.
type APIKey struct {
	ID          string    `json:"id"`
	SpecID      string    `json:"specId"`
	KeyName     string    `json:"keyName"`
	KeyValue    string    `json:"keyValue"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Conversation carries chat context across turns.
type Conversation struct {
	ConversationID string    `json:"conversationId"`
	CurrentSpecID  string    `json:"currentSpecId,omitempty"`
	CurrentAppID   string    `json:"currentAppId,omitempty"`
	LastAction     string    `json:"lastAction,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Message is one chat transcript entry.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Insight is the latest AI analysis of a spec.
type Insight struct {
	ID        string          `json:"id"`
	SpecID    string          `json:"specId"`
	Insights  json.RawMessage `json:"insights"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Workflow is a saved multi-step plan over a spec's endpoints.
type Workflow struct {
	ID          string          `json:"id"`
	SpecID      string          `json:"specId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Steps       json.RawMessage `json:"steps"`
	Complexity  string          `json:"complexity"`
	Code        json.RawMessage `json:"code,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Remix is a saved creative combination of a spec's endpoints.
type Remix struct {
	ID             string          `json:"id"`
	SpecID         string          `json:"specId"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Innovation     string          `json:"innovation"`
	EndpointsUsed  json.RawMessage `json:"endpointsUsed"`
	Implementation json.RawMessage `json:"implementation"`
	CreatedAt      time.Time       `json:"createdAt"`
}
