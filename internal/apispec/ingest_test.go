package apispec

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/shoot/pkg/types"
)

const petstoreJSON = `{
  "openapi": "3.0.0",
  "info": {"title": "Petstore", "version": "2.1.0", "description": "Pets"},
  "paths": {
    "/pets": {
      "post": {"summary": "Create pet", "requestBody": {"content": {"application/json": {}}}, "responses": {"201": {"description": "ok"}}},
      "get": {"summary": "List pets", "parameters": [{"name": "limit", "in": "query"}]}
    },
    "/owners": {"get": {"summary": "List owners"}}
  }
}`

const petstoreYAML = `swagger: "2.0"
info:
  version: 1.0.5
host: petstore.swagger.io
paths:
  /pet/{petId}:
    get:
      summary: Find pet
      responses:
        200:
          description: ok
        404:
          description: missing
`

func TestParseJSON(t *testing.T) {
	p, err := Parse([]byte(petstoreJSON), "ignored")
	require.NoError(t, err)

	assert.Equal(t, "Petstore", p.Spec.Name)
	assert.Equal(t, "2.1.0", p.Spec.Version)
	assert.Equal(t, "Pets", p.Spec.Description)
	assert.Equal(t, types.SpecTypeOpenAPI, p.Spec.SpecType)

	require.Len(t, p.Endpoints, 3)
	// paths sorted, methods in get/post order
	assert.Equal(t, "GET /owners", p.Endpoints[0].Label())
	assert.Equal(t, "GET /pets", p.Endpoints[1].Label())
	assert.Equal(t, "POST /pets", p.Endpoints[2].Label())

	assert.JSONEq(t, `[]`, string(p.Endpoints[0].Parameters))
	assert.JSONEq(t, `{}`, string(p.Endpoints[0].Responses))
	assert.Nil(t, p.Endpoints[0].RequestBody)
	assert.JSONEq(t, `[{"name":"limit","in":"query"}]`, string(p.Endpoints[1].Parameters))
	assert.JSONEq(t, `{"content":{"application/json":{}}}`, string(p.Endpoints[2].RequestBody))

	var stored map[string]any
	require.NoError(t, json.Unmarshal(p.Spec.Content, &stored))
	assert.Equal(t, "3.0.0", stored["openapi"])
}

func TestParseYAMLFallback(t *testing.T) {
	p, err := Parse([]byte(petstoreYAML), "Pet Service")
	require.NoError(t, err)

	assert.Equal(t, "Pet Service", p.Spec.Name)
	assert.Equal(t, "1.0.5", p.Spec.Version)
	assert.Equal(t, types.SpecTypeSwagger, p.Spec.SpecType)
	require.Len(t, p.Endpoints, 1)
	assert.Equal(t, "GET", p.Endpoints[0].Method)
	assert.JSONEq(t, `{"200":{"description":"ok"},"404":{"description":"missing"}}`, string(p.Endpoints[0].Responses))
	assert.True(t, json.Valid(p.Spec.Content))
}

func TestParseDefaults(t *testing.T) {
	p, err := Parse([]byte(`{"paths":{}}`), "")
	require.NoError(t, err)
	assert.Equal(t, "Untitled API", p.Spec.Name)
	assert.Equal(t, "1.0.0", p.Spec.Version)
	assert.Equal(t, types.SpecTypeOther, p.Spec.SpecType)
	assert.Empty(t, p.Endpoints)
}

func TestParseRejectsNonObject(t *testing.T) {
	_, err := Parse([]byte(`["a","b"]`), "")
	require.Error(t, err)
	_, err = Parse([]byte("just a sentence"), "")
	require.Error(t, err)
	_, err = Parse([]byte("   "), "")
	require.Error(t, err)
}

func TestLoadRequiresInput(t *testing.T) {
	f := &Fetcher{}
	_, err := f.Load(context.Background(), Input{})
	assert.True(t, errors.Is(err, ErrNoInput))
}

func TestLoadFetchesURL(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path == "/missing.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(petstoreJSON))
	}))
	defer srv.Close()

	f := &Fetcher{HTTPClient: srv.Client()}
	p, err := f.Load(context.Background(), Input{URL: srv.URL + "/spec.json"})
	require.NoError(t, err)
	assert.Len(t, p.Endpoints, 3)

	_, err = f.Load(context.Background(), Input{URL: srv.URL + "/missing.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	// inline content is used without a request
	_, err = f.Load(context.Background(), Input{URL: srv.URL + "/spec.json", Content: petstoreYAML})
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

type memWriter struct {
	specs     []*types.APISpec
	endpoints [][]types.Endpoint
}

func (m *memWriter) CreateSpec(spec *types.APISpec, eps []types.Endpoint) (*types.APISpec, error) {
	out := *spec
	out.ID = "spec-1"
	m.specs = append(m.specs, &out)
	m.endpoints = append(m.endpoints, eps)
	return &out, nil
}

func TestImporter(t *testing.T) {
	w := &memWriter{}
	im := &Importer{Store: w}

	res, err := im.Import(context.Background(), Input{Content: petstoreJSON})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "spec-1", res.ID)
	assert.Equal(t, "Petstore", res.Name)
	assert.Equal(t, 3, res.EndpointCount)
	assert.Equal(t, "2.1.0", res.Metadata["version"])

	res, err = im.Import(context.Background(), Input{Content: "[1,2]"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Len(t, w.specs, 1)

	_, err = im.Import(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrNoInput)
}
