// Package markup renders markdown bodies through the fixed transform chain:
// heading anchors, admonition containers and responsive image rewriting.
// Each render fills a RenderRecord side record the entry builder reads
// afterwards.
package markup

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/sitegen/internal/images"
)

// Renderer converts markdown bodies to HTML. Safe for reuse across files;
// all per-render state lives in the parser context.
type Renderer struct {
	md     goldmark.Markdown
	root   string
	widths *images.SizeCache
}

// New builds a Renderer over the given absolute content root. widths may be
// pre-warmed by the loader's image pre-scan; probing fills it lazily
// otherwise.
func New(root string, widths *images.SizeCache) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithHeadingAttribute(),
			parser.WithASTTransformers(
				util.Prioritized(headingTransformer{}, 100),
				util.Prioritized(imageTransformer{}, 200),
			),
			parser.WithBlockParsers(
				util.Prioritized(admonitionParser{}, 798),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(admonitionRenderer{}, 500),
				util.Prioritized(pictureRenderer{}, 500),
			),
		),
	)
	return &Renderer{md: md, root: root, widths: widths}
}

// Render converts one markdown body. relPath is the file's path relative to
// the content root; it anchors relative image resolution.
func (r *Renderer) Render(source []byte, relPath string) (string, *RenderRecord, error) {
	rec := &RenderRecord{}
	pc := parser.NewContext()
	pc.Set(renderContextKey, &renderContext{
		record:     rec,
		root:       r.root,
		pageDir:    filepath.Dir(filepath.Join(r.root, filepath.FromSlash(relPath))),
		widths:     r.widths,
		slugCounts: map[string]int{},
	})

	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf, parser.WithContext(pc)); err != nil {
		return "", nil, fmt.Errorf("render %s: %w", relPath, err)
	}
	return buf.String(), rec, nil
}

// ScanImages extracts raw image destinations from a markdown body without
// rendering it. The loader uses it to warm the intrinsic-width cache before
// the full parse.
func ScanImages(source []byte) []string {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(source))

	var out []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if img, ok := n.(*gmast.Image); ok && entering {
			out = append(out, string(img.Destination))
		}
		return gmast.WalkContinue, nil
	})
	return out
}
