// Package images derives content-addressed responsive variants for the
// raster images referenced by content files. It has no knowledge of the
// content model: callers hand it resolved paths and it hands back variant
// names and files.
package images

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"git.home.luguber.info/inful/sitegen/internal/paths"
)

// CacheDir is the directory under the output root holding every generated
// variant. The orphan sweep is confined to it; nothing else may write there.
const CacheDir = "_images"

// StandardWidths is the responsive ladder applied when an image's intrinsic
// width allows it.
var StandardWidths = []int{400, 800, 1200}

// Formats lists the encoded variant formats: one lossy-modern, one baseline.
var Formats = []string{"webp", "jpg"}

// rasterExts are the source extensions the pipeline will re-encode.
var rasterExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// IsRaster reports whether the pipeline can derive variants for path.
func IsRaster(path string) bool {
	return rasterExts[strings.ToLower(filepath.Ext(path))]
}

// Reference describes one image referenced by content, with everything the
// emit and prune phases need precomputed.
type Reference struct {
	Src             string // reference as written in the source file
	ResolvedPath    string // absolute path inside the content root
	OutputPath      string // directory under the output root receiving variants
	Basename        string // file name without extension
	Hash            string // short hash of the resolved path string, naming only
	URLBase         string // web path prefix for emitted variant URLs
	SizesToGenerate []int  // ascending widths
}

// VariantName returns the content-addressed file name for one width/format.
func (r *Reference) VariantName(width int, format string) string {
	return fmt.Sprintf("%s-%d-%s.%s", r.Basename, width, r.Hash, format)
}

// VariantURL returns the web path for one width/format.
func (r *Reference) VariantURL(width int, format string) string {
	return r.URLBase + r.VariantName(width, format)
}

// FallbackWidth is the median of the ascending size list (lower median for
// even counts); it sizes the plain <img> inside the emitted <picture>.
func (r *Reference) FallbackWidth() int {
	if len(r.SizesToGenerate) == 0 {
		return 0
	}
	return r.SizesToGenerate[(len(r.SizesToGenerate)-1)/2]
}

// NewReference builds a Reference for a resolved image path. relDir is the
// image's directory relative to the content root; urlPrefix anchors the
// emitted variant URLs (e.g. "/").
func NewReference(src, resolvedPath, relDir, urlPrefix string, intrinsic int) *Reference {
	base := strings.TrimSuffix(filepath.Base(resolvedPath), filepath.Ext(resolvedPath))
	if relDir == "." {
		relDir = ""
	}
	urlBase := urlPrefix + CacheDir + "/"
	if relDir != "" {
		urlBase += filepath.ToSlash(relDir) + "/"
	}
	return &Reference{
		Src:             src,
		ResolvedPath:    resolvedPath,
		OutputPath:      filepath.Join(CacheDir, filepath.FromSlash(relDir)),
		Basename:        base,
		Hash:            paths.ShortHash(resolvedPath),
		URLBase:         urlBase,
		SizesToGenerate: SizesFor(intrinsic),
	}
}

// SizesFor computes the width ladder for an intrinsic width: the standard
// ladder filtered below the intrinsic width, with the intrinsic width
// appended when absent, ascending. An unknown intrinsic width (<= 0) keeps
// the full standard ladder.
func SizesFor(intrinsic int) []int {
	if intrinsic <= 0 {
		out := make([]int, len(StandardWidths))
		copy(out, StandardWidths)
		return out
	}
	out := make([]int, 0, len(StandardWidths)+1)
	seen := false
	for _, w := range StandardWidths {
		if w < intrinsic {
			out = append(out, w)
		} else if w == intrinsic {
			out = append(out, w)
			seen = true
		}
	}
	if !seen {
		out = append(out, intrinsic)
	}
	sort.Ints(out)
	return out
}

// SizeCache memoizes intrinsic pixel widths per resolved path. The content
// loader warms it during its pre-scan so the markup transform resolves its
// final ladder in one pass.
type SizeCache struct {
	mu     sync.Mutex
	widths map[string]int
}

func NewSizeCache() *SizeCache {
	return &SizeCache{widths: map[string]int{}}
}

// Width returns the intrinsic width for path, probing and memoizing on the
// first request. Unreadable or undecodable files report 0.
func (c *SizeCache) Width(path string) int {
	c.mu.Lock()
	if w, ok := c.widths[path]; ok {
		c.mu.Unlock()
		return w
	}
	c.mu.Unlock()

	w := probeWidth(path)

	c.mu.Lock()
	c.widths[path] = w
	c.mu.Unlock()
	return w
}

func probeWidth(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer func() { _ = f.Close() }()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0
	}
	return cfg.Width
}
