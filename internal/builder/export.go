package builder

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExportApp writes an app's files under dir/<slug of app name> and returns
// that directory. Every file name is checked before the first write.
func (b *Builder) ExportApp(appID, dir string) (string, error) {
	app, err := b.Store.GetApp(appID)
	if err != nil {
		return "", err
	}
	slug := Slug(app.Name)
	if slug == "" || !filepath.IsLocal(slug) {
		return "", fmt.Errorf("export %s: unsafe app name %q", appID, app.Name)
	}
	names := sortedKeys(app.Code)
	for _, name := range names {
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return "", fmt.Errorf("export %s: unsafe file name %q", appID, name)
		}
	}

	root := filepath.Join(dir, slug)
	for _, name := range names {
		dst := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(dst, []byte(app.Code[name]), 0o644); err != nil {
			return "", err
		}
	}
	b.logger().Info("app exported", "app", appID, "dir", root, "files", len(app.Code))
	return root, nil
}
