// Package entry defines the canonical in-memory record of one content file
// and the builder that produces it from parser and resolver output.
package entry

import (
	"time"

	"git.home.luguber.info/inful/sitegen/internal/images"
	"git.home.luguber.info/inful/sitegen/internal/markup"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// Type classifies the source markup of an entry.
type Type string

const (
	TypeMarkdown Type = "markdown"
	TypeText     Type = "text"
	TypeHTML     Type = "html"
)

// Entry is the canonical record of one content file. Entries are never
// mutated after construction; a reload replaces the whole set.
type Entry struct {
	Slug  string // unique key within a loaded set
	URL   string // leading and trailing slash
	Title string

	// CreatedAt <= UpdatedAt is not enforced: front matter may violate it
	// and the values are preserved as written.
	CreatedAt time.Time
	UpdatedAt time.Time

	Tags       sets.Set[string]
	Categories sets.Set[string]
	Series     string

	Type Type

	// HTML is the rendered body handed to the template engine. RawDocument
	// is a complete pre-rendered document that bypasses templating
	// entirely; the two are mutually exclusive.
	HTML        string
	RawDocument string

	Description string
	WordCount   int
	ReadingTime int
	Section     string

	// Template is the explicit template directive, empty when the engine's
	// fallback chain should decide.
	Template string

	Toc      []*TocNode
	Headings []markup.Heading
	Images   []*images.Reference

	// Extras carries pass-through front-matter fields outside the reserved
	// set. Reserved names can never land here.
	Extras map[string]any

	SourcePath string // content-relative path, diagnostics only
}

// IsRaw reports whether the entry bypasses the template engine.
func (e *Entry) IsRaw() bool { return e.RawDocument != "" }

// reservedFields are the front-matter keys bound to typed Entry fields.
// User content can never overwrite them through the extras map.
var reservedFields = sets.New(
	"title", "date", "updated", "tags", "categories", "series",
	"draft", "permalink", "template", "raw", "description",
)

// IsReservedField reports whether a front-matter key maps to a typed field.
func IsReservedField(key string) bool { return reservedFields.Has(key) }

// extractExtras filters front matter against the reserved-name set.
func extractExtras(fm map[string]any) map[string]any {
	extras := map[string]any{}
	for k, v := range fm {
		if reservedFields.Has(k) {
			continue
		}
		extras[k] = v
	}
	return extras
}
