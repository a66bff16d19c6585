package content

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/entry"
	"git.home.luguber.info/inful/sitegen/internal/images"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/markup"
	"git.home.luguber.info/inful/sitegen/internal/paths"
)

// draftsDir is the directory name whose subtree never enters the entry set.
const draftsDir = "drafts"

// Loader walks the content root and builds Site snapshots. One Loader is
// constructed at startup and reused across live reloads so the intrinsic
// width cache persists.
type Loader struct {
	cfg     *config.Config
	root    string // absolute content root
	widths  *images.SizeCache
	builder *entry.Builder
}

func NewLoader(cfg *config.Config) (*Loader, error) {
	root, err := filepath.Abs(cfg.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("resolve content root: %w", err)
	}
	widths := images.NewSizeCache()
	return &Loader{
		cfg:     cfg,
		root:    root,
		widths:  widths,
		builder: entry.NewBuilder(cfg, markup.New(root, widths)),
	}, nil
}

// Root returns the absolute content root.
func (l *Loader) Root() string { return l.root }

// Widths exposes the shared intrinsic-width cache.
func (l *Loader) Widths() *images.SizeCache { return l.widths }

// Load performs a full depth-first scan. Per-file parse failures are logged
// and skipped; they never abort the walk. A duplicate slug is fatal in batch
// mode and a skip-with-warning in live mode.
func (l *Loader) Load(mode Mode) (*Site, error) {
	site := &Site{
		Entries: map[string]*entry.Entry{},
		URLs:    map[string]string{},
	}
	navFiles := map[string]NavNode{} // rel path -> file leaf, for navigation

	walkErr := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == l.root {
				return fmt.Errorf("content root unreadable: %w", err)
			}
			slog.Warn("skipping unreadable path", logfields.Path(path), logfields.Error(err))
			return nil
		}
		if d.IsDir() {
			if skipDir(d.Name(), path, l.root) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, relErr := filepath.Rel(l.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !entry.ContentExtensions.Has(strings.ToLower(filepath.Ext(rel))) {
			return nil
		}

		e, broken, buildErr := l.loadFile(path, rel)
		if buildErr != nil {
			slog.Warn("entry build failed, skipping file", logfields.File(rel), logfields.Error(buildErr))
			return nil
		}
		site.BrokenImages = append(site.BrokenImages, broken...)
		if e == nil { // draft
			return nil
		}

		if existing, dup := site.Entries[e.Slug]; dup {
			if mode == ModeBatch {
				return fmt.Errorf("%w: %q from %s and %s", ErrDuplicateSlug, e.Slug, existing.SourcePath, e.SourcePath)
			}
			slog.Warn("duplicate slug, keeping first-seen entry",
				logfields.Slug(e.Slug), logfields.File(e.SourcePath))
			return nil
		}
		site.Entries[e.Slug] = e
		site.URLs[e.URL] = e.Slug
		site.Images = append(site.Images, e.Images...)
		navFiles[rel] = NavNode{Title: e.Title, URL: e.URL}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	nav, err := l.buildNavigation(navFiles)
	if err != nil {
		slog.Warn("navigation build failed", logfields.Error(err))
	}
	site.Nav = nav

	slog.Info("content loaded",
		logfields.Count(len(site.Entries)), logfields.Path(l.root))
	return site, nil
}

// loadFile reads the file once, warms the intrinsic-width cache from a
// cheap image pre-scan, then hands the bytes to the entry builder so the
// image transform can settle its final width ladder in a single pass.
func (l *Loader) loadFile(path, rel string) (*entry.Entry, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat: %w", err)
	}

	if t := strings.ToLower(filepath.Ext(rel)); t == ".md" || t == ".markdown" {
		pageDir := filepath.Dir(path)
		for _, src := range markup.ScanImages(data) {
			if paths.IsExternalURL(src) {
				continue
			}
			resolved, resErr := paths.ResolveContentPath(l.root, pageDir, src)
			if resErr != nil {
				continue // the render pass records the diagnostic
			}
			if images.IsRaster(resolved) {
				l.widths.Width(resolved)
			}
		}
	}

	return l.builder.Build(entry.Input{
		RelPath: rel,
		Bytes:   data,
		Stat:    fileStat(info),
	})
}

func skipDir(name, path, root string) bool {
	if path == root {
		return false
	}
	return strings.HasPrefix(name, ".") || name == draftsDir
}
