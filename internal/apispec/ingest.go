// Package apispec turns OpenAPI and Swagger documents into stored specs and
// describes how to call the APIs they define.
package apispec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/shoot/pkg/types"
)

// ErrNoInput is returned when neither a URL nor inline content is given.
var ErrNoInput = errors.New("either content or specUrl is required")

const maxSpecBytes = 20 << 20

// methodOrder is the order operations are read from a path item.
var methodOrder = []string{"get", "post", "put", "delete", "patch", "options", "head"}

// Input names the document to ingest. Content wins over URL when both are set.
type Input struct {
	URL     string `json:"specUrl,omitempty"`
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Parsed is a spec ready to be stored.
type Parsed struct {
	Spec      types.APISpec
	Endpoints []types.Endpoint
}

// Metadata summarises what was read from the info block.
func (p *Parsed) Metadata() map[string]any {
	return map[string]any{
		"title":       p.Spec.Name,
		"version":     p.Spec.Version,
		"description": p.Spec.Description,
		"specType":    p.Spec.SpecType,
	}
}

type Fetcher struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Fetch downloads a spec document.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml, text/yaml, */*")
	if f.Logger != nil {
		f.Logger.Debug("fetching spec", "url", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSpecBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return body, nil
}

// Load resolves the input to a parsed spec, fetching the URL when no
// content is given.
func (f *Fetcher) Load(ctx context.Context, in Input) (*Parsed, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		if strings.TrimSpace(in.URL) == "" {
			return nil, ErrNoInput
		}
		body, err := f.Fetch(ctx, strings.TrimSpace(in.URL))
		if err != nil {
			return nil, err
		}
		content = string(body)
	}
	return Parse([]byte(content), in.Name)
}

// Parse decodes a JSON or YAML document and extracts its endpoints.
func Parse(data []byte, name string) (*Parsed, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}

	info, _ := doc["info"].(map[string]any)
	title := cast.ToString(info["title"])
	if title == "" {
		title = name
	}
	if title == "" {
		title = "Untitled API"
	}
	version := cast.ToString(info["version"])
	if version == "" {
		version = "1.0.0"
	}
	specType := types.SpecTypeOther
	if _, ok := doc["openapi"]; ok {
		specType = types.SpecTypeOpenAPI
	} else if _, ok := doc["swagger"]; ok {
		specType = types.SpecTypeSwagger
	}

	content, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode spec: %w", err)
	}
	endpoints, err := extractEndpoints(doc)
	if err != nil {
		return nil, err
	}
	return &Parsed{
		Spec: types.APISpec{
			Name:        title,
			Description: cast.ToString(info["description"]),
			Version:     version,
			SpecType:    specType,
			Content:     content,
		},
		Endpoints: endpoints,
	}, nil
}

func decodeDocument(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("spec content is empty")
	}
	var raw any
	if jsonErr := json.Unmarshal(trimmed, &raw); jsonErr != nil {
		if yamlErr := yaml.Unmarshal(trimmed, &raw); yamlErr != nil {
			return nil, fmt.Errorf("spec is neither JSON nor YAML: %w", yamlErr)
		}
	}
	doc, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, errors.New("spec must be a JSON or YAML object")
	}
	return doc, nil
}

// normalize rewrites YAML mappings with non-string keys, such as numeric
// response codes, into JSON-encodable maps.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[cast.ToString(k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}

func extractEndpoints(doc map[string]any) ([]types.Endpoint, error) {
	paths, _ := doc["paths"].(map[string]any)
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	out := make([]types.Endpoint, 0)
	for _, path := range keys {
		item, ok := paths[path].(map[string]any)
		if !ok {
			continue
		}
		for _, method := range methodOrder {
			op, ok := item[method].(map[string]any)
			if !ok {
				continue
			}
			ep := types.Endpoint{
				Path:        path,
				Method:      strings.ToUpper(method),
				Summary:     cast.ToString(op["summary"]),
				Description: cast.ToString(op["description"]),
			}
			params := op["parameters"]
			if params == nil {
				params = []any{}
			}
			responses := op["responses"]
			if responses == nil {
				responses = map[string]any{}
			}
			var err error
			if ep.Parameters, err = json.Marshal(params); err != nil {
				return nil, fmt.Errorf("%s %s parameters: %w", ep.Method, path, err)
			}
			if ep.Responses, err = json.Marshal(responses); err != nil {
				return nil, fmt.Errorf("%s %s responses: %w", ep.Method, path, err)
			}
			if body, ok := op["requestBody"]; ok && body != nil {
				if ep.RequestBody, err = json.Marshal(body); err != nil {
					return nil, fmt.Errorf("%s %s requestBody: %w", ep.Method, path, err)
				}
			}
			out = append(out, ep)
		}
	}
	return out, nil
}
