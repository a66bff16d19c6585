package images

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/paths"
)

func TestIsRaster(t *testing.T) {
	require.True(t, IsRaster("photo.JPG"))
	require.True(t, IsRaster("a/b/pic.png"))
	require.True(t, IsRaster("anim.gif"))
	require.True(t, IsRaster("modern.webp"))
	require.False(t, IsRaster("diagram.svg"))
	require.False(t, IsRaster("doc.md"))
}

func TestSizesFor(t *testing.T) {
	cases := []struct {
		intrinsic int
		want      []int
	}{
		{0, []int{400, 800, 1200}},    // unknown width keeps the full ladder
		{-1, []int{400, 800, 1200}},
		{2000, []int{400, 800, 1200, 2000}},
		{1200, []int{400, 800, 1200}}, // intrinsic on a rung is not duplicated
		{1000, []int{400, 800, 1000}},
		{500, []int{400, 500}},
		{300, []int{300}},             // below the ladder only the intrinsic remains
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, SizesFor(tc.intrinsic), "intrinsic %d", tc.intrinsic)
	}
}

func TestReferenceNaming(t *testing.T) {
	resolved := filepath.Join("/content", "img", "photo.png")
	ref := NewReference("/img/photo.png", resolved, "img", "/", 1000)

	hash := paths.ShortHash(resolved)
	require.Equal(t, hash, ref.Hash)
	require.Equal(t, "photo-400-"+hash+".webp", ref.VariantName(400, "webp"))
	require.Equal(t, "/_images/img/photo-800-"+hash+".jpg", ref.VariantURL(800, "jpg"))
	require.Equal(t, filepath.Join(CacheDir, "img"), ref.OutputPath)
	require.Equal(t, []int{400, 800, 1000}, ref.SizesToGenerate)
}

func TestReferenceNaming_ContentRootImage(t *testing.T) {
	resolved := filepath.Join("/content", "photo.png")
	ref := NewReference("photo.png", resolved, ".", "/", 300)

	// A root-level image gets a clean prefix, never "/./".
	require.Equal(t, "/_images/", ref.URLBase)
	require.Equal(t, "/_images/photo-300-"+ref.Hash+".webp", ref.VariantURL(300, "webp"))
	require.Equal(t, CacheDir, ref.OutputPath)
}

func TestFallbackWidthIsLowerMedian(t *testing.T) {
	ref := &Reference{SizesToGenerate: []int{400, 800, 1200}}
	require.Equal(t, 800, ref.FallbackWidth())

	ref.SizesToGenerate = []int{400, 800}
	require.Equal(t, 400, ref.FallbackWidth())

	ref.SizesToGenerate = []int{300}
	require.Equal(t, 300, ref.FallbackWidth())

	ref.SizesToGenerate = nil
	require.Zero(t, ref.FallbackWidth())
}

func writeTestPNG(t *testing.T, path string, width int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, 8))))
}

func TestSizeCacheProbesAndMemoizes(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	writeTestPNG(t, img, 640)

	c := NewSizeCache()
	require.Equal(t, 640, c.Width(img))

	// Memoized: the original answer survives the file being replaced.
	writeTestPNG(t, img, 32)
	require.Equal(t, 640, c.Width(img))

	require.Zero(t, c.Width(filepath.Join(dir, "missing.png")))
}
