package entry

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/markup"
	"git.home.luguber.info/inful/sitegen/internal/meta"
	"git.home.luguber.info/inful/sitegen/internal/paths"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// Input is one file handed to the builder. Bytes may be pre-read by the
// loader; a nil slice is not valid here (the loader owns all file IO).
type Input struct {
	RelPath string // content-relative, slash-separated
	Bytes   []byte
	Stat    meta.FileStat
}

// Builder turns parsed files into entries.
type Builder struct {
	cfg      *config.Config
	renderer *markup.Renderer
}

func NewBuilder(cfg *config.Config, renderer *markup.Renderer) *Builder {
	return &Builder{cfg: cfg, renderer: renderer}
}

// Build constructs the canonical Entry for one file. Drafts return a nil
// entry and no error. The second return value lists broken image references
// encountered during rendering; each is a diagnostic, not a failure.
func (b *Builder) Build(in Input) (*Entry, []string, error) {
	fm, body, err := frontmatter.Parse(in.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("front matter of %s: %w", in.RelPath, err)
	}
	if isDraft(fm) {
		return nil, nil, nil
	}

	typ := typeForExt(in.RelPath)
	url := entryURL(in.RelPath, fm)

	e := &Entry{
		Slug:       paths.SlugFromURL(url),
		URL:        url,
		Type:       typ,
		Tags:       stringSet(fm["tags"]),
		Series:     stringValue(fm["series"]),
		Extras:     extractExtras(fm),
		SourcePath: in.RelPath,
	}
	if cats, ok := fm["categories"]; ok {
		e.Categories = stringSet(cats)
	}
	if d, ok := fm["description"].(string); ok {
		e.Description = d
	}
	if t, ok := fm["template"].(string); ok {
		e.Template = t
	}
	if b.cfg.Structured {
		if i := strings.IndexByte(in.RelPath, '/'); i > 0 {
			e.Section = in.RelPath[:i]
		}
	}

	var broken []string
	switch typ {
	case TypeMarkdown:
		rendered, rec, renderErr := b.renderer.Render(body, in.RelPath)
		if renderErr != nil {
			return nil, nil, renderErr
		}
		e.HTML = rendered
		e.Headings = rec.Headings
		e.Images = rec.Images
		e.Toc = BuildToc(rec.Headings, b.cfg.Toc.MinLevel, b.cfg.Toc.MaxLevel)
		broken = rec.BrokenImages
	case TypeHTML:
		if isRawDocument(fm, body) {
			e.RawDocument = string(body)
		} else {
			e.HTML = string(body)
		}
	case TypeText:
		e.HTML = "<pre>" + html.EscapeString(string(body)) + "</pre>"
	}

	m := meta.Resolve(body, in.RelPath, fm, typ == TypeMarkdown, in.Stat, b.cfg.WordsPerMinute)
	e.Title = m.Title
	e.CreatedAt = m.CreatedAt
	e.UpdatedAt = m.UpdatedAt
	e.WordCount = m.WordCount
	e.ReadingTime = m.ReadingTime

	return e, broken, nil
}

// entryURL resolves the entry's web path: an explicit permalink wins, else
// the path derives it (extension stripped, a trailing /index collapses into
// its directory).
func entryURL(relPath string, fm map[string]any) string {
	if p, ok := fm["permalink"].(string); ok && p != "" {
		return paths.NormalizeWebPath(p)
	}
	p := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	if p == "index" {
		p = ""
	} else {
		p = strings.TrimSuffix(p, "/index")
	}
	return paths.NormalizeWebPath(p)
}

// ContentExtensions are the file types the loader admits.
var ContentExtensions = sets.New(".md", ".markdown", ".txt", ".html", ".htm")

func typeForExt(relPath string) Type {
	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".md", ".markdown":
		return TypeMarkdown
	case ".html", ".htm":
		return TypeHTML
	default:
		return TypeText
	}
}

func isDraft(fm map[string]any) bool {
	v, ok := fm["draft"].(bool)
	return ok && v
}

// isRawDocument classifies templated-vs-raw intent for HTML sources: an
// explicit `raw: true` opts out of templating, an explicit `template:`
// directive opts in, and otherwise a complete-document signature makes the
// file raw.
func isRawDocument(fm map[string]any, body []byte) bool {
	if v, ok := fm["raw"].(bool); ok {
		return v
	}
	if t, ok := fm["template"].(string); ok && t != "" {
		return false
	}
	return sniffCompleteDocument(body)
}

func sniffCompleteDocument(body []byte) bool {
	head := strings.ToLower(string(body[:min(len(body), 2048)]))
	if strings.Contains(head, "<!doctype") {
		return true
	}
	return strings.Contains(head, "<html") &&
		(strings.Contains(head, "<head") || strings.Contains(head, "<body"))
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// stringSet accepts both YAML list and single-string taxonomy values.
func stringSet(v any) sets.Set[string] {
	out := sets.New[string]()
	switch vals := v.(type) {
	case []any:
		for _, item := range vals {
			if s, ok := item.(string); ok && s != "" {
				out.Add(s)
			}
		}
	case []string:
		for _, s := range vals {
			if s != "" {
				out.Add(s)
			}
		}
	case string:
		if vals != "" {
			out.Add(vals)
		}
	}
	return out
}
