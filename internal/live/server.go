package live

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/paths"
)

var errNotFound = errors.New("page not found")

// Handler serves cached renders. Misses render on demand and populate the
// cache, so a cold page is slow exactly once per reload.
func (c *Coordinator) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site := c.Site()
		if site == nil {
			http.Error(w, "loading", http.StatusServiceUnavailable)
			return
		}

		switch r.URL.Path {
		case "/feed.xml":
			c.serveDynamic(w, r, build.DocFeed, "application/rss+xml")
			return
		case "/sitemap.xml":
			c.serveDynamic(w, r, build.DocSitemap, "application/xml")
			return
		case "/search-index.json":
			c.serveDynamic(w, r, build.DocSearchIndex, "application/json")
			return
		}

		if m := taxonomyFeedPath.FindStringSubmatch(r.URL.Path); m != nil {
			c.serveTaxonomyFeed(w, r, site, m[1], m[2])
			return
		}

		if body, ok := c.lookupPage(site, r.URL.Path); ok {
			c.serveBuf(w, r, body, "text/html; charset=utf-8")
			return
		}

		// Image variants and other on-disk artifacts.
		file := filepath.Join(c.cfg.OutputDir, filepath.FromSlash(strings.TrimPrefix(r.URL.Path, "/")))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			http.ServeFile(w, r, file)
			return
		}
		http.NotFound(w, r)
	})
}

var (
	indexPagePath    = regexp.MustCompile(`^/page/(\d+)/?$`)
	taxonomyPagePath = regexp.MustCompile(`^/(tags|categories|series)/([^/]+)/(?:page/(\d+)/?)?$`)
	taxonomyFeedPath = regexp.MustCompile(`^/(tags|categories|series)/([^/]+)/feed\.xml$`)
)

// taxonomyKinds maps the URL segment onto the template/listing kind.
var taxonomyKinds = map[string]string{
	"tags":       "tag",
	"categories": "category",
	"series":     "series",
}

// lookupPage resolves a request path to a cached or freshly rendered page.
func (c *Coordinator) lookupPage(site *content.Site, path string) ([]byte, bool) {
	pr := &build.PageRenderer{Cfg: c.cfg, Site: site, Engine: c.engine}

	var pageID string
	var renderPage func() ([]byte, error)

	if m := indexPagePath.FindStringSubmatch(path); m != nil || path == "/" {
		num := 1
		if m != nil {
			num, _ = strconv.Atoi(m[1])
		}
		pageID = build.PageIDIndex(num)
		renderPage = func() ([]byte, error) {
			all := pr.SortedEntries()
			pages := paginateCount(len(all), c.cfg.PageSize)
			if num < 1 || num > pages {
				return nil, errNotFound
			}
			lo, hi := pageBounds(len(all), c.cfg.PageSize, num)
			html, err := pr.ListPage("index", "", all[lo:hi], num, pages, "/")
			return []byte(html), err
		}
	} else if m := taxonomyPagePath.FindStringSubmatch(path); m != nil {
		kind, term := taxonomyKinds[m[1]], m[2]
		num := 1
		if m[3] != "" {
			num, _ = strconv.Atoi(m[3])
		}
		pageID = build.PageIDTaxonomy(kind, term, num)
		renderPage = func() ([]byte, error) {
			name, members, ok := build.TaxonomyGroup(pr.SortedEntries(), kind, term)
			if !ok {
				return nil, errNotFound
			}
			pages := paginateCount(len(members), c.cfg.PageSize)
			if num < 1 || num > pages {
				return nil, errNotFound
			}
			lo, hi := pageBounds(len(members), c.cfg.PageSize, num)
			html, err := pr.ListPage(kind, name, members[lo:hi], num, pages, "/"+m[1]+"/"+term+"/")
			return []byte(html), err
		}
	} else {
		slug, ok := site.URLs[paths.NormalizeWebPath(path)]
		if !ok {
			return nil, false
		}
		e := site.Entries[slug]
		pageID = build.PageIDEntry(slug)
		renderPage = func() ([]byte, error) {
			if e.IsRaw() {
				return []byte(e.RawDocument), nil
			}
			html, err := pr.EntryPage(e)
			return []byte(html), err
		}
	}

	if body, ok := c.cache.GetRendered(pageID); ok {
		return body, true
	}
	body, err := renderPage()
	if err != nil {
		return nil, false
	}
	c.storeWarm(pageID, body)
	return body, true
}

// serveTaxonomyFeed renders a term-scoped feed on demand and caches it as a
// dynamic document, so a reload invalidates it together with everything else.
func (c *Coordinator) serveTaxonomyFeed(w http.ResponseWriter, r *http.Request, site *content.Site, kindPath, term string) {
	kind := taxonomyKinds[kindPath]
	docName := "feed:" + kind + ":" + term
	if body, ok := c.cache.GetDynamic(docName); ok {
		c.serveBuf(w, r, body, "application/rss+xml")
		return
	}

	pr := &build.PageRenderer{Cfg: c.cfg, Site: site, Engine: c.engine}
	name, members, ok := build.TaxonomyGroup(pr.SortedEntries(), kind, term)
	if !ok {
		http.NotFound(w, r)
		return
	}
	body, err := build.RenderFeed(c.cfg, name+" - "+c.cfg.Title, "/"+kindPath+"/"+term+"/", members)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	c.cache.SetDynamic(docName, body)
	c.serveBuf(w, r, body, "application/rss+xml")
}

func (c *Coordinator) serveDynamic(w http.ResponseWriter, r *http.Request, name, contentType string) {
	body, ok := c.cache.GetDynamic(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	c.serveBuf(w, r, body, contentType)
}

// serveBuf writes a buffer with etag handling and a pre-compressed body
// when the client accepts one.
func (c *Coordinator) serveBuf(w http.ResponseWriter, r *http.Request, body []byte, contentType string) {
	etag := paths.ShortHash(string(body))
	if r.Header.Get("If-None-Match") == `"`+etag+`"` {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", `"`+etag+`"`)

	accepted := r.Header.Get("Accept-Encoding")
	for _, codec := range []string{build.CodecBrotli, build.CodecGzip} {
		if !strings.Contains(accepted, codec) {
			continue
		}
		if buf, ok := c.cache.GetCompressed(codec, etag); ok {
			w.Header().Set("Content-Encoding", codec)
			_, _ = w.Write(buf)
			return
		}
	}
	_, _ = w.Write(body)
}
