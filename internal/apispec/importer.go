package apispec

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yourorg/shoot/pkg/types"
)

// SpecWriter is the part of the store an import needs.
type SpecWriter interface {
	CreateSpec(spec *types.APISpec, endpoints []types.Endpoint) (*types.APISpec, error)
}

// ImportResult is the outcome of an upload, reported to chat and HTTP callers.
type ImportResult struct {
	Success       bool           `json:"success"`
	ID            string         `json:"id,omitempty"`
	Name          string         `json:"name,omitempty"`
	EndpointCount int            `json:"endpointCount"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Error         string         `json:"error,omitempty"`
}

type Importer struct {
	Store   SpecWriter
	Fetcher *Fetcher
	Logger  *slog.Logger
}

// Import loads, parses and stores a spec. Parse and fetch failures are
// reported in the result. Missing input and storage failures are errors.
func (im *Importer) Import(ctx context.Context, in Input) (*ImportResult, error) {
	fetcher := im.Fetcher
	if fetcher == nil {
		fetcher = &Fetcher{}
	}
	parsed, err := fetcher.Load(ctx, in)
	if errors.Is(err, ErrNoInput) {
		return nil, err
	}
	if err != nil {
		im.logger().Warn("spec import failed", "url", in.URL, "error", err)
		return &ImportResult{Success: false, Error: err.Error()}, nil
	}
	saved, err := im.Store.CreateSpec(&parsed.Spec, parsed.Endpoints)
	if err != nil {
		return nil, err
	}
	im.logger().Info("spec imported", "id", saved.ID, "name", saved.Name, "endpoints", len(parsed.Endpoints))
	return &ImportResult{
		Success:       true,
		ID:            saved.ID,
		Name:          saved.Name,
		EndpointCount: len(parsed.Endpoints),
		Metadata:      parsed.Metadata(),
	}, nil
}

func (im *Importer) logger() *slog.Logger {
	if im.Logger != nil {
		return im.Logger
	}
	return slog.Default()
}
