// Package redact masks credentials before requests are logged.
package redact

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/yourorg/shoot/internal/config"
)

type Redactor struct {
	headers     map[string]struct{}
	query       map[string]struct{}
	fields      map[string]struct{}
	replacement string
}

func New(cfg config.RedactConfig) *Redactor {
	replacement := cfg.Replacement
	if replacement == "" {
		replacement = "***REDACTED***"
	}
	return &Redactor{
		headers:     toLowerSet(cfg.Headers),
		query:       toLowerSet(cfg.QueryParams),
		fields:      toLowerSet(cfg.BodyFields),
		replacement: replacement,
	}
}

// Headers flattens h into a loggable map with sensitive values replaced.
func (r *Redactor) Headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		if _, ok := r.headers[strings.ToLower(k)]; ok {
			out[k] = r.replacement
			continue
		}
		out[k] = strings.Join(vs, ", ")
	}
	return out
}

// URL replaces the values of sensitive query parameters.
func (r *Redactor) URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	changed := false
	for k, vs := range q {
		if _, ok := r.query[strings.ToLower(k)]; !ok {
			continue
		}
		for i := range vs {
			vs[i] = r.replacement
		}
		changed = true
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Body masks sensitive fields of a JSON body at any depth. Non-JSON bodies
// are returned unchanged.
func (r *Redactor) Body(body string) string {
	if strings.TrimSpace(body) == "" || len(r.fields) == 0 {
		return body
	}
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return body
	}
	out, err := json.Marshal(r.value(v))
	if err != nil {
		return body
	}
	return string(out)
}

func (r *Redactor) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, v2 := range val {
			if _, ok := r.fields[strings.ToLower(k)]; ok {
				val[k] = r.replacement
				continue
			}
			val[k] = r.value(v2)
		}
		return val
	case []any:
		for i := range val {
			val[i] = r.value(val[i])
		}
		return val
	default:
		return val
	}
}

func toLowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, v := range items {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
