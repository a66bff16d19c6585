package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/entry"
	"git.home.luguber.info/inful/sitegen/internal/images"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/paths"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

func stageClean(_ context.Context, bs *State) error {
	if err := os.RemoveAll(bs.OutDir); err != nil {
		return fmt.Errorf("clean output dir: %w", err)
	}
	return os.MkdirAll(bs.OutDir, 0o755)
}

func stageImages(_ context.Context, bs *State) error {
	encodes := images.RunBatch(bs.Site.Images, bs.OutDir)
	bs.Rec.ImagesEncoded(encodes)
	if encodes > 0 {
		slog.Info("image variants encoded", logfields.Count(encodes))
	}
	return nil
}

// stagePages emits one file per entry: templated entries render through the
// collaborator, raw HTML documents pass through byte for byte. A single
// failing pre-render is skipped with a diagnostic unless strict pre-render
// escalates it.
func stagePages(_ context.Context, bs *State) error {
	rendered := 0
	for _, slug := range sortedSlugs(bs.Site) {
		e := bs.Site.Entries[slug]
		if e.IsRaw() {
			if err := bs.writePage(e.URL, []byte(e.RawDocument)); err != nil {
				return err
			}
			continue
		}
		html, err := bs.pages.EntryPage(e)
		if err != nil {
			if bs.Cfg.StrictPreRender {
				return fmt.Errorf("render entry %s: %w", e.Slug, err)
			}
			slog.Warn("entry render failed, skipping page", logfields.Slug(e.Slug), logfields.Error(err))
			continue
		}
		if err := bs.writePage(e.URL, []byte(html)); err != nil {
			return err
		}
		rendered++
	}
	bs.Rec.PagesRendered(rendered)
	return nil
}

// stageListings paginates the full entry set at the site root.
func stageListings(_ context.Context, bs *State) error {
	all := bs.pages.SortedEntries()
	pages := paginate(all, bs.Cfg.PageSize)
	for i, pageEntries := range pages {
		num := i + 1
		html, err := bs.pages.ListPage("index", "", pageEntries, num, len(pages), "/")
		if err != nil {
			return fmt.Errorf("render index page %d: %w", num, err)
		}
		if err := bs.writePage(pageURL("/", num), []byte(html)); err != nil {
			return err
		}
	}
	return nil
}

// taxonomy describes one classification axis emitted as listing pages.
type taxonomy struct {
	kind     string
	basePath string
	members  func(*entry.Entry) []string
}

func taxonomies() []taxonomy {
	return []taxonomy{
		{"tag", "/tags/", func(e *entry.Entry) []string { return sets.SortedStrings(e.Tags) }},
		{"category", "/categories/", func(e *entry.Entry) []string {
			if e.Categories == nil {
				return nil
			}
			return sets.SortedStrings(e.Categories)
		}},
		{"series", "/series/", func(e *entry.Entry) []string {
			if e.Series == "" {
				return nil
			}
			return []string{e.Series}
		}},
	}
}

func groupTaxonomy(all []*entry.Entry, tax taxonomy) map[string][]*entry.Entry {
	grouped := map[string][]*entry.Entry{}
	for _, e := range all {
		for _, name := range tax.members(e) {
			grouped[name] = append(grouped[name], e)
		}
	}
	return grouped
}

// TaxonomyGroup resolves one slugified term of a classification axis over
// the sorted entries, returning the display name and the members. Shared
// with the live handler, which addresses terms by their URL form.
func TaxonomyGroup(all []*entry.Entry, kind, term string) (string, []*entry.Entry, bool) {
	for _, tax := range taxonomies() {
		if tax.kind != kind {
			continue
		}
		grouped := groupTaxonomy(all, tax)
		for _, name := range sortedKeys(grouped) {
			if slugifyTerm(name) == term {
				return name, grouped[name], true
			}
		}
	}
	return "", nil, false
}

// stageTaxonomies emits paginated listing pages plus a scoped feed per
// taxonomy term.
func stageTaxonomies(_ context.Context, bs *State) error {
	all := bs.pages.SortedEntries()
	for _, tax := range taxonomies() {
		grouped := groupTaxonomy(all, tax)
		for _, name := range sortedKeys(grouped) {
			members := grouped[name]
			base := tax.basePath + slugifyTerm(name) + "/"
			pages := paginate(members, bs.Cfg.PageSize)
			for i, pageEntries := range pages {
				num := i + 1
				html, err := bs.pages.ListPage(tax.kind, name, pageEntries, num, len(pages), base)
				if err != nil {
					return fmt.Errorf("render %s %q page %d: %w", tax.kind, name, num, err)
				}
				if err := bs.writePage(pageURL(base, num), []byte(html)); err != nil {
					return err
				}
			}
			feed, err := bs.renderFeed(name+" - "+bs.Cfg.Title, base, members)
			if err != nil {
				return fmt.Errorf("feed for %s %q: %w", tax.kind, name, err)
			}
			if err := bs.writeFile(filepath.Join(webToFile(base), "feed.xml"), feed); err != nil {
				return err
			}
		}
	}
	return nil
}

// stageStatic copies the non-content static tree verbatim.
func stageStatic(_ context.Context, bs *State) error {
	src := bs.Cfg.StaticDir
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return nil // optional
	}
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}
		return bs.copyFile(path, rel)
	})
}

// writePage maps a web path onto <path>/index.html under the output root
// and records the location so redirect fallbacks cannot claim it.
func (bs *State) writePage(webPath string, body []byte) error {
	rel := filepath.Join(webToFile(webPath), "index.html")
	bs.writtenPages[rel] = true
	return bs.writeFile(rel, body)
}

func (bs *State) writeFile(rel string, body []byte) error {
	full := filepath.Join(bs.OutDir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(full, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

func (bs *State) copyFile(src, rel string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()
	full := filepath.Join(bs.OutDir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	out, err := os.Create(full)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	_, err = io.Copy(out, in)
	return err
}

// webToFile converts a web path to an output-relative directory path.
func webToFile(webPath string) string {
	return filepath.FromSlash(strings.Trim(webPath, "/"))
}

func sortedSlugs(site *content.Site) []string {
	out := make([]string, 0, len(site.Entries))
	for slug := range site.Entries {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string][]*entry.Entry) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func slugifyTerm(name string) string { return paths.Slugify(name) }
