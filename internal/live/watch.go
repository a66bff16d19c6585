package live

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitegen/internal/entry"
	"git.home.luguber.info/inful/sitegen/internal/images"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// watch runs the fsnotify loop over the content root until ctx is done.
// Content events schedule a reload; raster image events take the
// independent regeneration path.
func (c *Coordinator) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := addDirsRecursive(watcher, c.loader.Root()); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			c.handleEvent(watcher, event)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(watchErr))
		}
	}
}

func (c *Coordinator) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	// New directories must join the watch set or edits below them vanish.
	if event.Op.Has(fsnotify.Create) {
		if isDir(event.Name) {
			_ = addDirsRecursive(watcher, event.Name)
		}
	}

	ext := strings.ToLower(filepath.Ext(event.Name))
	switch {
	case images.IsRaster(event.Name):
		c.scheduleImages()
	case entry.ContentExtensions.Has(ext) || isDir(event.Name) || event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		c.scheduleReload()
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// addDirsRecursive registers a directory and everything below it, skipping
// dot directories and drafts (their content never loads anyway).
func addDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "drafts") {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(addErr))
		}
		return nil
	})
}
