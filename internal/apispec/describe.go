package apispec

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yourorg/shoot/pkg/types"
)

// Target is what a client needs to call the API a spec describes.
type Target struct {
	BaseURL string
	// Schemes holds every declared security scheme by name.
	Schemes map[string]types.SecurityScheme
	// Active is the first scheme of the first global security requirement.
	Active *types.SecurityScheme
}

// Describer loads stored specs with kin-openapi and caches the result per spec id.
type Describer struct {
	cache *lru.Cache[string, *Target]
}

func NewDescriber(size int) (*Describer, error) {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[string, *Target](size)
	if err != nil {
		return nil, err
	}
	return &Describer{cache: c}, nil
}

// Describe returns the call target of spec. An override base URL always wins.
func (d *Describer) Describe(spec *types.APISpec) (*Target, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec is nil")
	}
	t, ok := d.cache.Get(spec.ID)
	if !ok {
		var err error
		t, err = describe(spec)
		if err != nil {
			return nil, err
		}
		d.cache.Add(spec.ID, t)
	}
	out := *t
	if spec.OverrideBaseURL != "" {
		out.BaseURL = spec.OverrideBaseURL
	}
	return &out, nil
}

// Forget drops a cached description after the spec changed or was deleted.
func (d *Describer) Forget(specID string) {
	d.cache.Remove(specID)
}

func describe(spec *types.APISpec) (*Target, error) {
	doc, err := loadV3(spec)
	if err != nil {
		return nil, err
	}
	t := &Target{Schemes: map[string]types.SecurityScheme{}}
	if len(doc.Servers) > 0 && doc.Servers[0] != nil {
		t.BaseURL = strings.TrimRight(doc.Servers[0].URL, "/")
	}
	if doc.Components != nil {
		for name, ref := range doc.Components.SecuritySchemes {
			if ref == nil || ref.Value == nil {
				continue
			}
			t.Schemes[name] = types.SecurityScheme{
				KeyName: name,
				Type:    ref.Value.Type,
				In:      ref.Value.In,
				Name:    ref.Value.Name,
				Scheme:  strings.ToLower(ref.Value.Scheme),
			}
		}
	}
	if len(doc.Security) > 0 {
		names := make([]string, 0, len(doc.Security[0]))
		for name := range doc.Security[0] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if s, ok := t.Schemes[name]; ok {
				t.Active = &s
				break
			}
		}
	}
	return t, nil
}

func loadV3(spec *types.APISpec) (*openapi3.T, error) {
	switch spec.SpecType {
	case types.SpecTypeSwagger:
		var doc2 openapi2.T
		if err := json.Unmarshal(spec.Content, &doc2); err != nil {
			return nil, fmt.Errorf("decode swagger spec %s: %w", spec.ID, err)
		}
		doc3, err := openapi2conv.ToV3(&doc2)
		if err != nil {
			return nil, fmt.Errorf("convert swagger spec %s: %w", spec.ID, err)
		}
		return doc3, nil
	default:
		loader := openapi3.NewLoader()
		loader.Context = context.Background()
		doc, err := loader.LoadFromData(spec.Content)
		if err != nil {
			return nil, fmt.Errorf("load spec %s: %w", spec.ID, err)
		}
		return doc, nil
	}
}
