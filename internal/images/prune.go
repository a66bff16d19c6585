package images

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// variantName captures the embedded hash in `<basename>-<width>-<hash>.<ext>`.
var variantName = regexp.MustCompile(`^.+-\d+-([0-9a-f]+)\.[A-Za-z0-9]+$`)

// ValidHashes collects the hash identities still referenced by any live entry.
func ValidHashes(refs []*Reference) sets.Set[string] {
	valid := sets.New[string]()
	for _, r := range refs {
		valid.Add(r.Hash)
	}
	return valid
}

// PruneOrphans deletes variant files under the variant cache directory of
// outputRoot whose embedded hash is absent from valid, then removes
// directories the sweep emptied. Removal is silent; only the summary is
// logged. The sweep never leaves the cache directory, so pages and copied
// static files are out of reach even when their names resemble variants.
func PruneOrphans(outputRoot string, valid sets.Set[string]) (int, error) {
	cacheDir := filepath.Join(outputRoot, CacheDir)
	removed := 0
	var dirs []string

	err := filepath.WalkDir(cacheDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if path != cacheDir {
				dirs = append(dirs, path)
			}
			return nil
		}
		m := variantName.FindStringSubmatch(d.Name())
		if m == nil || valid.Has(m[1]) {
			return nil
		}
		if rmErr := os.Remove(path); rmErr != nil {
			slog.Warn("orphan removal failed", logfields.Path(path), logfields.Error(rmErr))
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, err
	}

	// Deepest first so emptied parents collapse too.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		entries, readErr := os.ReadDir(dir)
		if readErr == nil && len(entries) == 0 {
			_ = os.Remove(dir)
		}
	}

	if removed > 0 {
		slog.Info("pruned orphaned image variants", logfields.Count(removed), logfields.Path(cacheDir))
	}
	return removed, nil
}
