package render

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
)

// HTMLEngine is the default collaborator: one html/template per *.html file
// in the theme's templates directory, named by base name.
type HTMLEngine struct {
	templates *template.Template
	names     map[string]bool
}

// LoadHTMLEngine parses every *.html under dir.
func LoadHTMLEngine(dir string) (*HTMLEngine, error) {
	pattern := filepath.Join(dir, "*.html")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("no templates found under %s", dir)
	}
	root := template.New("")
	names := map[string]bool{}
	for _, m := range matches {
		data, readErr := os.ReadFile(m)
		if readErr != nil {
			return nil, fmt.Errorf("read template %s: %w", m, readErr)
		}
		name := strings.TrimSuffix(filepath.Base(m), ".html")
		if _, parseErr := root.New(name).Parse(string(data)); parseErr != nil {
			return nil, fmt.Errorf("parse template %s: %w", m, parseErr)
		}
		names[name] = true
	}
	return &HTMLEngine{templates: root, names: names}, nil
}

func (e *HTMLEngine) Has(name string) bool { return e.names[name] }

func (e *HTMLEngine) Render(name string, ctx Context) (string, error) {
	var sb strings.Builder
	if err := e.templates.ExecuteTemplate(&sb, name, map[string]any(ctx)); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return sb.String(), nil
}
