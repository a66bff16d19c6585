package build

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/feeds"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/entry"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// Dynamic document names shared with the live cache.
const (
	DocFeed        = "feed"
	DocSitemap     = "sitemap"
	DocSearchIndex = "search-index"
)

// searchBodyLimit truncates indexed body text.
const searchBodyLimit = 5000

// stageDocuments emits the global feed, sitemap, search index and the
// robots/llms/404 artifacts.
func stageDocuments(_ context.Context, bs *State) error {
	all := bs.pages.SortedEntries()

	feed, err := bs.renderFeed(bs.Cfg.Title, "/", all)
	if err != nil {
		return fmt.Errorf("global feed: %w", err)
	}
	if err := bs.writeFile("feed.xml", feed); err != nil {
		return err
	}

	sitemap, err := RenderSitemap(bs.Cfg.BaseURL, all)
	if err != nil {
		return fmt.Errorf("sitemap: %w", err)
	}
	if err := bs.writeFile("sitemap.xml", sitemap); err != nil {
		return err
	}

	index, err := RenderSearchIndex(all)
	if err != nil {
		return fmt.Errorf("search index: %w", err)
	}
	if err := bs.writeFile("search-index.json", index); err != nil {
		return err
	}

	if err := bs.writeFile("robots.txt", renderRobots(bs.Cfg.BaseURL)); err != nil {
		return err
	}
	if err := bs.writeFile("llms.txt", renderLLMs(bs.Cfg.Title, bs.Cfg.Description, all)); err != nil {
		return err
	}
	return bs.write404()
}

func (bs *State) write404() error {
	if !bs.Engine.Has("404") {
		slog.Debug("no 404 template, skipping artifact")
		return nil
	}
	html, err := bs.Engine.Render("404", bs.pages.baseContext())
	if err != nil {
		slog.Warn("404 render failed, skipping artifact", logfields.Error(err))
		return nil
	}
	return bs.writeFile("404.html", []byte(html))
}

// RenderFeed builds an RSS document for a set of entries, newest first.
// Shared with the live path's dynamic-document warm.
func RenderFeed(cfg *config.Config, title, basePath string, members []*entry.Entry) ([]byte, error) {
	f := &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: cfg.BaseURL + basePath},
		Description: cfg.Description,
		Updated:     feedUpdated(members),
	}
	for _, e := range members {
		f.Items = append(f.Items, &feeds.Item{
			Id:          cfg.BaseURL + e.URL,
			Title:       e.Title,
			Link:        &feeds.Link{Href: cfg.BaseURL + e.URL},
			Description: e.Description,
			Created:     e.CreatedAt,
			Updated:     e.UpdatedAt,
		})
	}
	rss, err := f.ToRss()
	if err != nil {
		return nil, err
	}
	return []byte(rss), nil
}

func (bs *State) renderFeed(title, basePath string, members []*entry.Entry) ([]byte, error) {
	return RenderFeed(bs.Cfg, title, basePath, members)
}

func feedUpdated(members []*entry.Entry) time.Time {
	var latest time.Time
	for _, e := range members {
		if e.UpdatedAt.After(latest) {
			latest = e.UpdatedAt
		}
	}
	return latest
}

// sitemapURLSet is the XML shape of a sitemap document.
type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// RenderSitemap emits the XML sitemap over all templated entries.
func RenderSitemap(baseURL string, all []*entry.Entry) ([]byte, error) {
	set := sitemapURLSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, e := range all {
		u := sitemapURL{Loc: baseURL + e.URL}
		if !e.UpdatedAt.IsZero() {
			u.LastMod = e.UpdatedAt.Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// searchDoc is one flat search-index record.
type searchDoc struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	URL         string   `json:"url"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
	Tags        []string `json:"tags"`
	Description string   `json:"description,omitempty"`
	Body        string   `json:"body"`
}

var htmlTags = regexp.MustCompile(`<[^>]*>`)

// RenderSearchIndex emits the flat JSON search index with bodies stripped
// of markup and truncated.
func RenderSearchIndex(all []*entry.Entry) ([]byte, error) {
	docs := make([]searchDoc, 0, len(all))
	for _, e := range all {
		body := strings.TrimSpace(htmlTags.ReplaceAllString(e.HTML, " "))
		body = strings.Join(strings.Fields(body), " ")
		if len(body) > searchBodyLimit {
			// Back off to a rune boundary so the cut never splits UTF-8.
			cut := searchBodyLimit
			for cut > 0 && !utf8.RuneStart(body[cut]) {
				cut--
			}
			body = body[:cut]
		}
		docs = append(docs, searchDoc{
			ID:          e.Slug,
			Title:       e.Title,
			Slug:        e.Slug,
			URL:         e.URL,
			CreatedAt:   e.CreatedAt.Format("2006-01-02"),
			UpdatedAt:   e.UpdatedAt.Format("2006-01-02"),
			Tags:        sets.SortedStrings(e.Tags),
			Description: e.Description,
			Body:        body,
		})
	}
	return json.MarshalIndent(docs, "", "  ")
}

func renderRobots(baseURL string) []byte {
	var sb strings.Builder
	sb.WriteString("User-agent: *\nAllow: /\n")
	if baseURL != "" {
		sb.WriteString("Sitemap: " + baseURL + "/sitemap.xml\n")
	}
	return []byte(sb.String())
}

// renderLLMs emits the llms.txt artifact: a plain-text index for language
// model crawlers.
func renderLLMs(title, description string, all []*entry.Entry) []byte {
	var sb strings.Builder
	sb.WriteString("# " + title + "\n")
	if description != "" {
		sb.WriteString("\n> " + description + "\n")
	}
	sb.WriteString("\n")
	for _, e := range all {
		sb.WriteString("- [" + e.Title + "](" + e.URL + ")")
		if e.Description != "" {
			sb.WriteString(": " + e.Description)
		}
		sb.WriteString("\n")
	}
	return []byte(sb.String())
}
