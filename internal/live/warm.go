package live

import (
	"log/slog"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/paths"
)

// warm pre-renders every page and dynamic document into the cache, then
// pre-compresses each buffer, so the first request after a reload is a
// cache hit. Individual failures are skipped; warming is best-effort.
func (c *Coordinator) warm(site *content.Site) {
	if !c.cfg.Serve.PreRender {
		return
	}
	pr := &build.PageRenderer{Cfg: c.cfg, Site: site, Engine: c.engine}
	rendered := 0

	for _, e := range site.Entries {
		if e.IsRaw() {
			c.storeWarm(build.PageIDEntry(e.Slug), []byte(e.RawDocument))
			continue
		}
		html, err := pr.EntryPage(e)
		if err != nil {
			slog.Warn("pre-render failed", logfields.Slug(e.Slug), logfields.Error(err))
			continue
		}
		c.storeWarm(build.PageIDEntry(e.Slug), []byte(html))
		rendered++
	}

	all := pr.SortedEntries()
	pages := paginateCount(len(all), c.cfg.PageSize)
	for num := 1; num <= pages; num++ {
		lo, hi := pageBounds(len(all), c.cfg.PageSize, num)
		html, err := pr.ListPage("index", "", all[lo:hi], num, pages, "/")
		if err != nil {
			slog.Warn("index pre-render failed", logfields.Count(num), logfields.Error(err))
			continue
		}
		c.storeWarm(build.PageIDIndex(num), []byte(html))
		rendered++
	}

	if doc, err := build.RenderSitemap(c.cfg.BaseURL, all); err == nil {
		c.cache.SetDynamic(build.DocSitemap, doc)
	}
	if doc, err := build.RenderSearchIndex(all); err == nil {
		c.cache.SetDynamic(build.DocSearchIndex, doc)
	}
	if doc, err := build.RenderFeed(c.cfg, c.cfg.Title, "/", all); err == nil {
		c.cache.SetDynamic(build.DocFeed, doc)
	}

	c.rec.PagesRendered(rendered)
	slog.Info("cache warmed", logfields.Count(rendered))
}

// storeWarm caches a rendered buffer and its compressed siblings.
func (c *Coordinator) storeWarm(pageID string, body []byte) {
	c.cache.SetRendered(pageID, body)
	if !c.cfg.Serve.PreCompress {
		return
	}
	etag := paths.ShortHash(string(body))
	for _, codec := range []string{build.CodecGzip, build.CodecBrotli} {
		buf, err := build.Compress(codec, body)
		if err != nil {
			slog.Warn("pre-compress failed", logfields.Codec(codec), logfields.Error(err))
			continue
		}
		c.cache.SetCompressed(codec, etag, buf)
	}
}

func paginateCount(n, size int) int {
	if size <= 0 {
		size = 10
	}
	if n == 0 {
		return 1
	}
	return (n + size - 1) / size
}

func pageBounds(n, size, page int) (int, int) {
	if size <= 0 {
		size = 10
	}
	lo := (page - 1) * size
	if lo > n {
		lo = n
	}
	hi := lo + size
	if hi > n {
		hi = n
	}
	return lo, hi
}
