package build

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/entry"
	"git.home.luguber.info/inful/sitegen/internal/render"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// stubEngine is a minimal render.Engine that records template selection.
type stubEngine struct {
	templates map[string]bool
	lastCtx   render.Context
}

func newStubEngine(names ...string) *stubEngine {
	t := map[string]bool{}
	for _, n := range names {
		t[n] = true
	}
	return &stubEngine{templates: t}
}

func (s *stubEngine) Has(name string) bool { return s.templates[name] }

func (s *stubEngine) Render(name string, ctx render.Context) (string, error) {
	if !s.templates[name] {
		return "", fmt.Errorf("unknown template %q", name)
	}
	s.lastCtx = ctx
	return "[" + name + "]", nil
}

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func siteWith(entries ...*entry.Entry) *content.Site {
	s := &content.Site{Entries: map[string]*entry.Entry{}, URLs: map[string]string{}}
	for _, e := range entries {
		s.Entries[e.Slug] = e
		s.URLs[e.URL] = e.Slug
	}
	return s
}

func TestSortedEntries_NewestFirstSlugTiebreak(t *testing.T) {
	site := siteWith(
		&entry.Entry{Slug: "b", URL: "/b/", CreatedAt: day(1)},
		&entry.Entry{Slug: "a", URL: "/a/", CreatedAt: day(1)},
		&entry.Entry{Slug: "new", URL: "/new/", CreatedAt: day(5)},
		&entry.Entry{Slug: "raw", URL: "/raw/", CreatedAt: day(9), RawDocument: "<html>"},
	)
	pr := &PageRenderer{Cfg: config.Defaults(), Site: site, Engine: newStubEngine()}

	got := pr.SortedEntries()
	require.Len(t, got, 3, "raw documents never join listings")
	require.Equal(t, "new", got[0].Slug)
	require.Equal(t, "a", got[1].Slug)
	require.Equal(t, "b", got[2].Slug)
}

func TestEntryPage_TemplateChain(t *testing.T) {
	e := &entry.Entry{Slug: "x", URL: "/x/", HTML: "<p>b</p>"}
	site := siteWith(e)
	cfg := config.Defaults()

	// Only the mandatory fallback exists.
	eng := newStubEngine("entry", "index")
	pr := &PageRenderer{Cfg: cfg, Site: site, Engine: eng}
	out, err := pr.EntryPage(e)
	require.NoError(t, err)
	require.Equal(t, "[entry]", out)

	// A section template outranks the fallback.
	e.Section = "guides"
	eng = newStubEngine("entry", "index", "guides")
	pr.Engine = eng
	out, err = pr.EntryPage(e)
	require.NoError(t, err)
	require.Equal(t, "[guides]", out)

	// An explicit directive outranks everything.
	e.Template = "landing"
	eng = newStubEngine("entry", "index", "guides", "landing")
	pr.Engine = eng
	out, err = pr.EntryPage(e)
	require.NoError(t, err)
	require.Equal(t, "[landing]", out)
}

func TestListPage_TaxonomyChainAndPagination(t *testing.T) {
	site := siteWith()
	cfg := config.Defaults()
	eng := newStubEngine("index", "entry", "tag")
	pr := &PageRenderer{Cfg: cfg, Site: site, Engine: eng}

	// category falls back to tag when no category template exists.
	out, err := pr.ListPage("category", "go", nil, 2, 3, "/categories/go/")
	require.NoError(t, err)
	require.Equal(t, "[tag]", out)

	require.Equal(t, "/categories/go/page/1/", eng.lastCtx["prevURL"])
	require.Equal(t, "/categories/go/page/3/", eng.lastCtx["nextURL"])

	// First page has no prev, last page no next.
	_, err = pr.ListPage("index", "", nil, 1, 1, "/")
	require.NoError(t, err)
	require.NotContains(t, eng.lastCtx, "prevURL")
	require.NotContains(t, eng.lastCtx, "nextURL")
}

func TestEntryContext_ExtrasCannotShadowTypedFields(t *testing.T) {
	e := &entry.Entry{
		Slug:  "x",
		URL:   "/x/",
		Title: "Real Title",
		Extras: map[string]any{
			"title":  "Fake Title", // reserved, must never land
			"url":    "/fake/",     // collides with a context key
			"author": "alice",
		},
	}
	ctx := entryContext(e)
	require.Equal(t, "Real Title", ctx["title"])
	require.Equal(t, "/x/", ctx["url"])
	require.Equal(t, "alice", ctx["author"])
}

func TestPageURL(t *testing.T) {
	require.Equal(t, "/", pageURL("/", 1))
	require.Equal(t, "/page/2/", pageURL("/", 2))
	require.Equal(t, "/tags/go/", pageURL("/tags/go/", 1))
	require.Equal(t, "/tags/go/page/3/", pageURL("/tags/go/", 3))
}

func TestPaginate(t *testing.T) {
	mk := func(n int) []*entry.Entry {
		out := make([]*entry.Entry, n)
		for i := range out {
			out[i] = &entry.Entry{Slug: fmt.Sprintf("e%d", i)}
		}
		return out
	}

	pages := paginate(mk(25), 10)
	require.Len(t, pages, 3)
	require.Len(t, pages[0], 10)
	require.Len(t, pages[2], 5)

	pages = paginate(mk(10), 10)
	require.Len(t, pages, 1)

	pages = paginate(nil, 10)
	require.Len(t, pages, 1, "an empty set still emits one (empty) page")
	require.Empty(t, pages[0])
}

func TestTaxonomyGroup(t *testing.T) {
	a := &entry.Entry{Slug: "a", CreatedAt: day(1), HTML: "a", Tags: sets.New("Go Tips")}
	b := &entry.Entry{Slug: "b", CreatedAt: day(2), HTML: "b", Series: "Rewrite"}
	all := []*entry.Entry{b, a}

	name, members, ok := TaxonomyGroup(all, "tag", "go-tips")
	require.True(t, ok, "terms are addressed by their slugified form")
	require.Equal(t, "Go Tips", name)
	require.Len(t, members, 1)
	require.Equal(t, "a", members[0].Slug)

	name, members, ok = TaxonomyGroup(all, "series", "rewrite")
	require.True(t, ok)
	require.Equal(t, "Rewrite", name)
	require.Len(t, members, 1)

	_, _, ok = TaxonomyGroup(all, "tag", "missing")
	require.False(t, ok)

	_, _, ok = TaxonomyGroup(all, "category", "go-tips")
	require.False(t, ok, "terms never leak across axes")
}
