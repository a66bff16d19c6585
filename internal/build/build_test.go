package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/entry"
	"git.home.luguber.info/inful/sitegen/internal/redirects"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

func buildSite(t *testing.T) (*config.Config, *content.Site) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Title = "Test Site"
	cfg.BaseURL = "https://example.com"
	cfg.OutputDir = t.TempDir()
	cfg.ThemeDir = filepath.Join(t.TempDir(), "theme") // no assets, fine
	cfg.StaticDir = filepath.Join(t.TempDir(), "static")

	site := siteWith(
		&entry.Entry{Slug: "hello", URL: "/hello/", Title: "Hello", CreatedAt: day(1), HTML: "<p>hi</p>"},
		&entry.Entry{Slug: "tagged", URL: "/tagged/", Title: "Tagged", CreatedAt: day(2), HTML: "<p>t</p>", Tags: sets.New("go")},
		&entry.Entry{Slug: "legacy", URL: "/legacy/", Title: "Legacy", RawDocument: "<!doctype html><html><body>old</body></html>"},
	)
	return cfg, site
}

func readOutput(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	body, err := os.ReadFile(filepath.Join(cfg.OutputDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(body)
}

func TestRun_EmitsCompleteTree(t *testing.T) {
	cfg, site := buildSite(t)
	eng := newStubEngine("index", "entry", "tag")

	rules := []redirects.Rule{{From: "/old/", To: "/hello/", StatusCode: 301}}
	require.NoError(t, Run(context.Background(), cfg, site, eng, rules, nil))

	// Pages: templated entries render, raw documents pass through.
	require.Equal(t, "[entry]", readOutput(t, cfg, "hello/index.html"))
	require.Contains(t, readOutput(t, cfg, "legacy/index.html"), "old")

	// Root listing.
	require.Equal(t, "[index]", readOutput(t, cfg, "index.html"))

	// Taxonomy listing plus its scoped feed.
	require.Equal(t, "[tag]", readOutput(t, cfg, "tags/go/index.html"))
	require.Contains(t, readOutput(t, cfg, "tags/go/feed.xml"), "<rss")

	// Dynamic documents.
	require.Contains(t, readOutput(t, cfg, "feed.xml"), "<rss")
	require.Contains(t, readOutput(t, cfg, "sitemap.xml"), "<urlset")
	require.Contains(t, readOutput(t, cfg, "search-index.json"), `"hello"`)
	require.Contains(t, readOutput(t, cfg, "robots.txt"), "User-agent")
	require.Contains(t, readOutput(t, cfg, "llms.txt"), "# Test Site")

	// Redirects: native file plus HTML fallbacks.
	require.Equal(t, "/old/ /hello/ 301\n", readOutput(t, cfg, "_redirects"))
	require.Contains(t, readOutput(t, cfg, "old/index.html"), "url=/hello/")
}

func TestRun_RedirectFallbackNeverOverwritesRealPage(t *testing.T) {
	cfg, site := buildSite(t)
	eng := newStubEngine("index", "entry", "tag")

	rules := []redirects.Rule{{From: "/hello/", To: "/tagged/", StatusCode: 301}}
	require.NoError(t, Run(context.Background(), cfg, site, eng, rules, nil))

	require.Equal(t, "[entry]", readOutput(t, cfg, "hello/index.html"),
		"the real page wins over the redirect fallback")
}

func TestRun_FailingRenderIsSkippedUnlessStrict(t *testing.T) {
	cfg, site := buildSite(t)

	// No entry template at all: every templated page fails to render.
	eng := newStubEngine("index", "tag")
	require.NoError(t, Run(context.Background(), cfg, site, eng, nil, nil))
	_, err := os.Stat(filepath.Join(cfg.OutputDir, "hello", "index.html"))
	require.True(t, os.IsNotExist(err), "failed pages are skipped")
	require.FileExists(t, filepath.Join(cfg.OutputDir, "legacy", "index.html"),
		"raw documents bypass the failing template")

	cfg.StrictPreRender = true
	cfg.OutputDir = t.TempDir()
	err = Run(context.Background(), cfg, site, eng, nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "stage pages")
}

func TestRun_CanceledContextAborts(t *testing.T) {
	cfg, site := buildSite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, cfg, site, newStubEngine("index", "entry"), nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "canceled")
}

func TestRun_CompressesLargeTextOutputs(t *testing.T) {
	cfg, site := buildSite(t)
	big := &entry.Entry{
		Slug: "big", URL: "/big/", Title: "Big", CreatedAt: day(3),
		RawDocument: "<html><body>" + strings.Repeat("filler text ", 200) + "</body></html>",
	}
	site.Entries["big"] = big
	site.URLs["/big/"] = "big"

	require.NoError(t, Run(context.Background(), cfg, site, newStubEngine("index", "entry", "tag"), nil, nil))

	require.FileExists(t, filepath.Join(cfg.OutputDir, "big", "index.html.gz"))
	require.FileExists(t, filepath.Join(cfg.OutputDir, "big", "index.html.br"))

	// Small outputs stay uncompressed.
	_, err := os.Stat(filepath.Join(cfg.OutputDir, "hello", "index.html.gz"))
	require.True(t, os.IsNotExist(err))
}

func TestStageAssets_FingerprintAndRewrite(t *testing.T) {
	cfg, site := buildSite(t)
	assetsDir := filepath.Join(cfg.ThemeDir, "assets")
	require.NoError(t, os.MkdirAll(assetsDir, 0o755))
	css := []byte("body { color: red }")
	require.NoError(t, os.WriteFile(filepath.Join(assetsDir, "app.css"), css, 0o644))

	require.NoError(t, Run(context.Background(), cfg, site, newStubEngine("index", "entry", "tag"), nil, nil))

	want := fingerprintName("app.css", css)
	require.FileExists(t, filepath.Join(cfg.OutputDir, "assets", want))
	_, err := os.Stat(filepath.Join(cfg.OutputDir, "assets", "app.css"))
	require.True(t, os.IsNotExist(err), "only the fingerprinted name is emitted")
}
