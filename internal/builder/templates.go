package builder

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"text/template"

	"github.com/yourorg/shoot/pkg/types"
)

//go:embed templates
var templateFS embed.FS

const defaultBaseURL = "https://api.example.com"

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

type templateData struct {
	Name          string
	BaseURL       string
	EndpointCount int
}

type packageJSON struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

var dependencies = map[string]map[string]string{
	"react": {"react": "^18.2.0", "react-dom": "^18.2.0", "axios": "^1.6.2"},
	"node":  {"express": "^4.18.2", "cors": "^2.8.5"},
}

// Slug lower-cases a name and joins its alphanumeric runs with dashes.
func Slug(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// templateSet maps a framework to its template directory.
func templateSet(framework string) string {
	switch framework {
	case "react":
		return "react"
	case "node", "express":
		return "node"
	}
	return ""
}

// RenderTemplates builds the starter file set for a framework. Unknown
// frameworks get a README only.
func RenderTemplates(framework, specName, baseURL string, endpointCount int) (types.CodeMap, error) {
	set := templateSet(framework)
	if set == "" {
		return types.CodeMap{"README.md": fmt.Sprintf("# %s\n\nGenerated app for %s", specName, framework)}, nil
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	data := templateData{Name: specName, BaseURL: baseURL, EndpointCount: endpointCount}

	code := types.CodeMap{}
	root := path.Join("templates", set)
	err := fs.WalkDir(templateFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".tmpl") {
			return err
		}
		raw, err := templateFS.ReadFile(p)
		if err != nil {
			return err
		}
		tpl, err := template.New(p).Delims("[[", "]]").Parse(string(raw))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", p, err)
		}
		var buf bytes.Buffer
		if err := tpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("render template %s: %w", p, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, root+"/"), ".tmpl")
		code[name] = buf.String()
		return nil
	})
	if err != nil {
		return nil, err
	}

	pkg, err := json.MarshalIndent(packageJSON{
		Name:         Slug(specName),
		Version:      "1.0.0",
		Dependencies: dependencies[set],
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	code["package.json"] = string(pkg)
	return code, nil
}
