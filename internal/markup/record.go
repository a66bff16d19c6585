package markup

import (
	"strconv"

	"github.com/yuin/goldmark/parser"

	"git.home.luguber.info/inful/sitegen/internal/images"
)

// Heading is one rendered heading with its assigned anchor slug.
type Heading struct {
	Level   int
	Content string
	Slug    string
}

// RenderRecord is the per-render side record the transforms populate while
// the body renders: the entry builder reads it after conversion.
type RenderRecord struct {
	Headings []Heading
	Images   []*images.Reference
	// BrokenImages holds raw references whose resolution escaped the
	// content root. Each is a warning, never a render failure.
	BrokenImages []string
}

// renderContext travels through the goldmark parser context and carries
// everything the transforms need to resolve and record.
type renderContext struct {
	record     *RenderRecord
	root       string // absolute content root
	pageDir    string // absolute directory of the file being rendered
	widths     *images.SizeCache
	slugCounts map[string]int
}

var renderContextKey = parser.NewContextKey()

func renderContextFrom(pc parser.Context) *renderContext {
	v := pc.Get(renderContextKey)
	if v == nil {
		return nil
	}
	rc, _ := v.(*renderContext)
	return rc
}

// anchorSlug assigns a unique anchor for heading text within one render.
func (rc *renderContext) anchorSlug(text string) string {
	base := slugOrFallback(text)
	n := rc.slugCounts[base]
	rc.slugCounts[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
