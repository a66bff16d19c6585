// Package render defines the template collaborator contract the pipeline
// consumes: named template rendering with fallback-chain selection. The
// engine itself is replaceable; a html/template-backed default ships for
// the CLI.
package render

import (
	"fmt"
)

// Mandatory template names; their absence is fatal at startup.
const (
	TemplateIndex = "index"
	TemplateEntry = "entry"
)

// Context is the data handed to one template execution.
type Context map[string]any

// Engine is the template collaborator.
type Engine interface {
	// Render executes the named template.
	Render(name string, ctx Context) (string, error)
	// Has reports whether a template with the given name exists.
	Has(name string) bool
}

// Validate checks the mandatory template set. Called once at startup;
// failure aborts the process.
func Validate(e Engine) error {
	for _, name := range []string{TemplateIndex, TemplateEntry} {
		if !e.Has(name) {
			return fmt.Errorf("mandatory template %q is missing", name)
		}
	}
	return nil
}

// SelectTemplate walks a fallback chain (e.g. category -> tag -> index) and
// returns the first template the engine exposes, else the fallback name.
func SelectTemplate(e Engine, candidates []string, fallback string) string {
	for _, name := range candidates {
		if name != "" && e.Has(name) {
			return name
		}
	}
	return fallback
}
