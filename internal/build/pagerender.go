package build

import (
	"fmt"
	"html/template"
	"sort"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/entry"
	"git.home.luguber.info/inful/sitegen/internal/render"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// Page ids for cached renders. Entries use their slug; listing pages get a
// synthetic id so the cache never collides with content slugs.
func PageIDEntry(slug string) string { return "page:" + slug }
func PageIDIndex(page int) string    { return fmt.Sprintf("index:%d", page) }

func PageIDTaxonomy(kind, name string, page int) string {
	return fmt.Sprintf("%s:%s:%d", kind, name, page)
}

// PageRenderer renders every page kind through the template collaborator.
// Both the batch orchestrator and the live re-warm path drive it.
type PageRenderer struct {
	Cfg    *config.Config
	Site   *content.Site
	Engine render.Engine
}

// SortedEntries returns the non-raw entries newest first, slug as tiebreak
// so repeated builds paginate identically.
func (p *PageRenderer) SortedEntries() []*entry.Entry {
	out := make([]*entry.Entry, 0, len(p.Site.Entries))
	for _, e := range p.Site.Entries {
		if !e.IsRaw() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

func (p *PageRenderer) baseContext() render.Context {
	return render.Context{
		"site": map[string]any{
			"title":       p.Cfg.Title,
			"description": p.Cfg.Description,
			"baseURL":     p.Cfg.BaseURL,
		},
		"nav": p.Site.Nav,
	}
}

// EntryPage renders one templated entry through the fallback chain
// explicit directive -> section -> entry.
func (p *PageRenderer) EntryPage(e *entry.Entry) (string, error) {
	name := render.SelectTemplate(p.Engine, []string{e.Template, e.Section}, render.TemplateEntry)
	ctx := p.baseContext()
	ctx["entry"] = entryContext(e)
	ctx["content"] = template.HTML(e.HTML)
	return p.Engine.Render(name, ctx)
}

// ListPage renders one page of a listing. kind selects the template chain:
// taxonomy listings fall back category -> tag -> index.
func (p *PageRenderer) ListPage(kind, name string, pageEntries []*entry.Entry, page, totalPages int, basePath string) (string, error) {
	var chain []string
	switch kind {
	case "tag":
		chain = []string{"tag"}
	case "category":
		chain = []string{"category", "tag"}
	case "series":
		chain = []string{"series", "tag"}
	}
	tmpl := render.SelectTemplate(p.Engine, chain, render.TemplateIndex)

	items := make([]map[string]any, 0, len(pageEntries))
	for _, e := range pageEntries {
		items = append(items, entryContext(e))
	}
	ctx := p.baseContext()
	ctx["kind"] = kind
	ctx["name"] = name
	ctx["entries"] = items
	ctx["page"] = page
	ctx["totalPages"] = totalPages
	ctx["basePath"] = basePath
	if page > 1 {
		ctx["prevURL"] = pageURL(basePath, page-1)
	}
	if page < totalPages {
		ctx["nextURL"] = pageURL(basePath, page+1)
	}
	return p.Engine.Render(tmpl, ctx)
}

func entryContext(e *entry.Entry) map[string]any {
	ctx := map[string]any{
		"slug":        e.Slug,
		"url":         e.URL,
		"title":       e.Title,
		"createdAt":   e.CreatedAt,
		"updatedAt":   e.UpdatedAt,
		"tags":        sets.SortedStrings(e.Tags),
		"series":      e.Series,
		"description": e.Description,
		"wordCount":   e.WordCount,
		"readingTime": e.ReadingTime,
		"section":     e.Section,
		"toc":         e.Toc,
		"headings":    e.Headings,
		"content":     template.HTML(e.HTML),
	}
	if e.Categories != nil {
		ctx["categories"] = sets.SortedStrings(e.Categories)
	}
	for k, v := range e.Extras {
		// Reserved names were filtered at build time; this second guard
		// keeps a malformed extras map from shadowing typed fields.
		if _, taken := ctx[k]; taken || entry.IsReservedField(k) {
			continue
		}
		ctx[k] = v
	}
	return ctx
}

// pageURL places page 1 at the listing root and later pages under page/<n>/.
func pageURL(basePath string, page int) string {
	if page <= 1 {
		return basePath
	}
	return fmt.Sprintf("%spage/%d/", basePath, page)
}

// paginate splits sorted entries into fixed-size pages (at least one page,
// even when empty).
func paginate(all []*entry.Entry, size int) [][]*entry.Entry {
	if size <= 0 {
		size = 10
	}
	if len(all) == 0 {
		return [][]*entry.Entry{{}}
	}
	var pages [][]*entry.Entry
	for start := 0; start < len(all); start += size {
		end := start + size
		if end > len(all) {
			end = len(all)
		}
		pages = append(pages, all[start:end])
	}
	return pages
}
