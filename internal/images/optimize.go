package images

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/paths"
)

const (
	jpegQuality = 85
	webpQuality = 80
)

// Optimize materializes the width x format variant grid for one source
// image into outputDir. A nil or empty size list derives one from the
// decoded intrinsic width. It returns the number of encodes performed.
func Optimize(path, outputDir string, sizes []int) (int, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(sizes) == 0 {
		sizes = SizesFor(src.Bounds().Dx())
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", outputDir, err)
	}

	base := filepath.Base(path)
	name := base[:len(base)-len(filepath.Ext(base))]
	hash := paths.ShortHash(path)

	encodes := 0
	for _, width := range sizes {
		scaled := src
		if width < src.Bounds().Dx() {
			scaled = imaging.Resize(src, width, 0, imaging.Lanczos)
		}
		for _, format := range Formats {
			out := filepath.Join(outputDir, fmt.Sprintf("%s-%d-%s.%s", name, width, hash, format))
			if err := encodeVariant(out, scaled, format); err != nil {
				return encodes, err
			}
			encodes++
		}
	}
	return encodes, nil
}

func encodeVariant(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create variant %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch format {
	case "webp":
		err = webp.Encode(f, img, &webp.Options{Quality: webpQuality})
	case "jpg":
		err = imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	default:
		err = fmt.Errorf("unknown variant format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// NeedsOptimization compares the source modify-time against every expected
// variant. Any missing or stale variant triggers regeneration; modify-time
// is the sole freshness signal, the embedded hash only names files.
func NeedsOptimization(ref *Reference, outputRoot string) bool {
	srcInfo, err := os.Stat(ref.ResolvedPath)
	if err != nil {
		return false // vanished sources are filtered out earlier
	}
	dir := filepath.Join(outputRoot, ref.OutputPath)
	for _, width := range ref.SizesToGenerate {
		for _, format := range Formats {
			info, err := os.Stat(filepath.Join(dir, ref.VariantName(width, format)))
			if err != nil || info.ModTime().Before(srcInfo.ModTime()) {
				return true
			}
		}
	}
	return false
}

// batchSize bounds peak concurrent encodes: a fraction of available
// parallelism, never below 2.
func batchSize() int {
	n := runtime.NumCPU() / 4
	if n < 2 {
		n = 2
	}
	return n
}

// RunBatch optimizes every reference that still needs work, deduplicated by
// resolved path and processed in fixed-size concurrent batches. Per-image
// failures are logged and never abort sibling images. Returns total encodes.
func RunBatch(refs []*Reference, outputRoot string) int {
	pending := filterPending(refs, outputRoot)
	if len(pending) == 0 {
		return 0
	}

	size := batchSize()
	total := 0
	var mu sync.Mutex
	for start := 0; start < len(pending); start += size {
		end := start + size
		if end > len(pending) {
			end = len(pending)
		}
		var wg sync.WaitGroup
		for _, ref := range pending[start:end] {
			wg.Add(1)
			go func(r *Reference) {
				defer wg.Done()
				n, err := Optimize(r.ResolvedPath, filepath.Join(outputRoot, r.OutputPath), r.SizesToGenerate)
				if err != nil {
					slog.Warn("image optimization failed", logfields.Path(r.ResolvedPath), logfields.Error(err))
				}
				mu.Lock()
				total += n
				mu.Unlock()
			}(ref)
		}
		wg.Wait()
	}
	return total
}

// filterPending dedupes by resolved path, drops vanished sources, and keeps
// only references with missing or stale variants. An up-to-date set yields
// nothing, so a re-run performs zero encodes.
func filterPending(refs []*Reference, outputRoot string) []*Reference {
	seen := map[string]bool{}
	out := make([]*Reference, 0, len(refs))
	for _, ref := range refs {
		if seen[ref.ResolvedPath] {
			continue
		}
		seen[ref.ResolvedPath] = true
		if _, err := os.Stat(ref.ResolvedPath); err != nil {
			continue
		}
		if NeedsOptimization(ref, outputRoot) {
			out = append(out, ref)
		}
	}
	return out
}
