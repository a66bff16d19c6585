package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
)

func writeContent(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
}

func testLoader(t *testing.T, files map[string]string) *Loader {
	t.Helper()
	root := t.TempDir()
	writeContent(t, root, files)
	cfg := config.Defaults()
	cfg.ContentDir = root
	l, err := NewLoader(cfg)
	require.NoError(t, err)
	return l
}

func TestLoad_BasicWalk(t *testing.T) {
	l := testLoader(t, map[string]string{
		"index.md":       "# Home\n",
		"posts/hello.md": "# Hello\n",
		"notes.txt":      "plain\n",
	})

	site, err := l.Load(ModeBatch)
	require.NoError(t, err)
	require.Len(t, site.Entries, 3)

	home, ok := site.Get("index")
	require.True(t, ok)
	require.Equal(t, "/", home.URL)
	require.Equal(t, "index", site.URLs["/"])
	require.Equal(t, "posts-hello", site.URLs["/posts/hello/"])
}

func TestLoad_SkipsDraftsDotfilesAndForeignExtensions(t *testing.T) {
	l := testLoader(t, map[string]string{
		"visible.md":        "# Visible\n",
		"drafts/hidden.md":  "# Hidden\n",
		".hidden.md":        "# Dot\n",
		".obsidian/tool.md": "# Tooling\n",
		"image.png":         "not content",
		"wip.md":            "---\ndraft: true\n---\n# WIP\n",
	})

	site, err := l.Load(ModeBatch)
	require.NoError(t, err)
	require.Len(t, site.Entries, 1)
	_, ok := site.Get("visible")
	require.True(t, ok)
}

func TestLoad_DuplicateSlugFatalInBatch(t *testing.T) {
	l := testLoader(t, map[string]string{
		"a.md": "---\npermalink: /same/\n---\nfirst\n",
		"b.md": "---\npermalink: /same/\n---\nsecond\n",
	})

	_, err := l.Load(ModeBatch)
	require.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestLoad_DuplicateSlugKeepsFirstInLive(t *testing.T) {
	l := testLoader(t, map[string]string{
		"a.md": "---\npermalink: /same/\n---\nfirst\n",
		"b.md": "---\npermalink: /same/\n---\nsecond\n",
	})

	site, err := l.Load(ModeLive)
	require.NoError(t, err)
	require.Len(t, site.Entries, 1)

	// The walk visits a.md first; its body must be the one kept.
	e, ok := site.Get("same")
	require.True(t, ok)
	require.Contains(t, e.HTML, "first")
}

func TestLoad_MalformedFileIsSkippedNotFatal(t *testing.T) {
	l := testLoader(t, map[string]string{
		"good.md":   "# Good\n",
		"broken.md": "---\ntitle: [unclosed\n---\nbody\n",
	})

	site, err := l.Load(ModeBatch)
	require.NoError(t, err)
	require.Len(t, site.Entries, 1)
}

func TestLoad_Navigation(t *testing.T) {
	l := testLoader(t, map[string]string{
		"about.md":          "# About\n",
		"guides/setup.md":   "# Setup\n",
		"guides/usage.md":   "# Usage\n",
		"empty/ignored.png": "binary",
	})

	site, err := l.Load(ModeBatch)
	require.NoError(t, err)
	require.Len(t, site.Nav, 2)

	// Sorted directory order: about.md before guides/.
	require.False(t, site.Nav[0].Folder)
	require.Equal(t, "About", site.Nav[0].Title)
	require.Equal(t, "/about/", site.Nav[0].URL)

	guides := site.Nav[1]
	require.True(t, guides.Folder)
	require.Equal(t, "guides", guides.Title)
	require.Len(t, guides.Children, 2)
	require.Equal(t, "Setup", guides.Children[0].Title)

	// The folder holding only a non-content file is omitted entirely.
	for _, n := range site.Nav {
		require.NotEqual(t, "empty", n.Title)
	}
}

func TestLoad_CollectsImageReferences(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, map[string]string{
		"post.md": "![pic](shot.png)\n\n![leak](../../nope.png)\n",
	})
	// A real decodable image is not required for reference collection; the
	// unknown intrinsic width keeps the full standard ladder.
	require.NoError(t, os.WriteFile(filepath.Join(root, "shot.png"), []byte("junk"), 0o644))

	cfg := config.Defaults()
	cfg.ContentDir = root
	l, err := NewLoader(cfg)
	require.NoError(t, err)

	site, err := l.Load(ModeBatch)
	require.NoError(t, err)
	require.Len(t, site.Images, 1)
	require.Equal(t, []int{400, 800, 1200}, site.Images[0].SizesToGenerate)
	require.Equal(t, []string{"../../nope.png"}, site.BrokenImages)
}

func TestLoad_MissingRootFails(t *testing.T) {
	cfg := config.Defaults()
	cfg.ContentDir = filepath.Join(t.TempDir(), "absent")
	l, err := NewLoader(cfg)
	require.NoError(t, err)

	_, err = l.Load(ModeBatch)
	require.Error(t, err)
}
