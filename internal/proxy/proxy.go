// Package proxy replays a caller-described request against the API a spec
// documents, injecting a stored credential.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/yourorg/shoot/internal/apispec"
	"github.com/yourorg/shoot/internal/metrics"
	"github.com/yourorg/shoot/internal/redact"
	"github.com/yourorg/shoot/pkg/types"
)

var (
	// ErrInvalidBody is returned before any request is sent.
	ErrInvalidBody = errors.New("request body is not valid JSON")
	ErrNoBaseURL   = errors.New("base url is required")
	// ErrKeyMismatch rejects a stored key that belongs to another spec.
	ErrKeyMismatch = errors.New("api key does not belong to this spec")
	// ErrUpstream wraps transport failures talking to the target API.
	ErrUpstream = errors.New("upstream request failed")
)

const maxResponseBytes = 10 << 20

var placeholderRe = regexp.MustCompile(`\{([^{}/]+)\}`)

// KeyResolver returns a stored key with its plaintext value.
type KeyResolver interface {
	APIKeyValue(id string) (*types.APIKey, error)
}

type SpecSource interface {
	GetSpec(id string) (*types.APISpec, error)
}

type Proxy struct {
	Keys       KeyResolver
	Specs      SpecSource
	Describer  *apispec.Describer
	HTTPClient *http.Client
	Timeout    time.Duration
	Redactor   *redact.Redactor
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Do sends the request and relays the response. Non-2xx responses are
// relayed, not returned as errors.
func (p *Proxy) Do(ctx context.Context, in types.ProxyRequest) (*types.ProxyResponse, error) {
	if strings.TrimSpace(in.Body) != "" && !json.Valid([]byte(in.Body)) {
		return nil, ErrInvalidBody
	}

	baseURL := in.BaseURL
	var scheme *types.SecurityScheme
	if in.Auth != nil {
		scheme = in.Auth.Scheme
	}
	if in.SpecID != "" && (baseURL == "" || (in.Auth != nil && scheme == nil)) {
		target, err := p.describe(in.SpecID)
		if err != nil {
			return nil, err
		}
		if baseURL == "" {
			baseURL = target.BaseURL
		}
		if scheme == nil {
			scheme = target.Active
		}
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrNoBaseURL
	}

	method := strings.ToUpper(strings.TrimSpace(in.Method))
	target := BuildURL(baseURL, in.EndpointPath, in.PathParams, in.QueryParams)

	var body io.Reader
	if in.Body != "" {
		body = strings.NewReader(in.Body)
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, */*")
	if in.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if in.Auth != nil && in.Auth.APIKeyID != "" {
		if p.Keys == nil {
			return nil, errors.New("no key resolver configured")
		}
		key, err := p.Keys.APIKeyValue(in.Auth.APIKeyID)
		if err != nil {
			return nil, fmt.Errorf("resolve api key: %w", err)
		}
		if in.SpecID != "" && key.SpecID != "" && key.SpecID != in.SpecID {
			return nil, ErrKeyMismatch
		}
		InjectCredential(req, scheme, key.KeyValue)
	}

	p.logRequest(req, in.Body)

	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		p.Metrics.ObserveProxy(method, "error", time.Since(start))
		p.logger().Warn("proxy request failed", "method", method, "url", p.redactURL(req.URL.String()), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	if err != nil {
		p.Metrics.ObserveProxy(method, "error", elapsed)
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	p.Metrics.ObserveProxy(method, "ok", elapsed)

	out := &types.ProxyResponse{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Headers:    flattenHeaders(resp.Header),
		Data:       decodeData(resp.Header.Get("Content-Type"), raw),
		Time:       elapsed.Milliseconds(),
		URL:        target,
	}
	p.logger().Debug("proxy response", "status", out.Status, "time_ms", out.Time)
	return out, nil
}

func (p *Proxy) describe(specID string) (*apispec.Target, error) {
	if p.Specs == nil || p.Describer == nil {
		return nil, errors.New("spec lookup is not configured")
	}
	spec, err := p.Specs.GetSpec(specID)
	if err != nil {
		return nil, err
	}
	target, err := p.Describer.Describe(spec)
	if err != nil {
		return nil, fmt.Errorf("describe spec: %w", err)
	}
	return target, nil
}

// BuildURL substitutes {name} placeholders with path-escaped values,
// leaving unknown or empty ones verbatim, and appends non-empty query params.
func BuildURL(baseURL, path string, pathParams, queryParams map[string]any) string {
	resolved := placeholderRe.ReplaceAllStringFunc(path, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := pathParams[name]
		if !ok {
			return m
		}
		s := cast.ToString(v)
		if s == "" {
			return m
		}
		return url.PathEscape(s)
	})

	q := url.Values{}
	for k, v := range queryParams {
		s := cast.ToString(v)
		if s == "" {
			continue
		}
		q.Set(k, s)
	}
	out := strings.TrimSuffix(strings.TrimSpace(baseURL), "/") + resolved
	if len(q) > 0 {
		out += "?" + q.Encode()
	}
	return out
}

// InjectCredential applies key according to scheme. Unsupported schemes
// leave the request untouched.
func InjectCredential(req *http.Request, scheme *types.SecurityScheme, key string) {
	if scheme == nil || key == "" {
		return
	}
	switch {
	case scheme.Type == "apiKey" && scheme.Name != "":
		switch strings.ToLower(scheme.In) {
		case "header":
			req.Header.Set(scheme.Name, key)
		case "query":
			q := req.URL.Query()
			q.Set(scheme.Name, key)
			req.URL.RawQuery = q.Encode()
		}
	case scheme.Type == "http" && strings.EqualFold(scheme.Scheme, "bearer"):
		req.Header.Set("Authorization", "Bearer "+key)
	}
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		out[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	return out
}

func decodeData(contentType string, raw []byte) any {
	if strings.Contains(strings.ToLower(contentType), "json") {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	return string(raw)
}

func (p *Proxy) logRequest(req *http.Request, body string) {
	l := p.logger()
	if !l.Enabled(req.Context(), slog.LevelDebug) {
		return
	}
	if p.Redactor == nil {
		l.Debug("proxy request", "method", req.Method, "host", req.URL.Host)
		return
	}
	l.Debug("proxy request",
		"method", req.Method,
		"url", p.Redactor.URL(req.URL.String()),
		"headers", p.Redactor.Headers(req.Header),
		"body", p.Redactor.Body(body))
}

func (p *Proxy) redactURL(u string) string {
	if p.Redactor == nil {
		return u
	}
	return p.Redactor.URL(u)
}

func (p *Proxy) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
