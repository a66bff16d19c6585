package markup

import (
	"fmt"
	"log/slog"
	"path/filepath"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/sitegen/internal/images"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/paths"
)

// PictureNode replaces a local raster image reference with a responsive
// picture element backed by content-addressed variants.
type PictureNode struct {
	gmast.BaseInline
	Ref   *images.Reference
	Alt   string
	Title string
}

// KindPicture is the node kind of PictureNode.
var KindPicture = gmast.NewNodeKind("Picture")

func (n *PictureNode) Kind() gmast.NodeKind { return KindPicture }

func (n *PictureNode) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"Src": n.Ref.Src}, nil)
}

// imageTransformer rewrites local image references. External URLs keep the
// default rendering; local raster references become PictureNodes and are
// registered for later optimization; references escaping the content root
// are dropped with a warning.
type imageTransformer struct{}

func (imageTransformer) Transform(doc *gmast.Document, reader text.Reader, pc parser.Context) {
	rc := renderContextFrom(pc)
	if rc == nil {
		return
	}
	source := reader.Source()

	var rewrites []*gmast.Image
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if img, ok := n.(*gmast.Image); ok && entering {
			rewrites = append(rewrites, img)
		}
		return gmast.WalkContinue, nil
	})

	for _, img := range rewrites {
		dest := string(img.Destination)
		if paths.IsExternalURL(dest) {
			continue
		}
		resolved, err := paths.ResolveContentPath(rc.root, rc.pageDir, dest)
		if err != nil {
			rc.record.BrokenImages = append(rc.record.BrokenImages, dest)
			slog.Warn("image reference escapes content root, dropped",
				logfields.Path(dest), logfields.File(rc.pageDir))
			img.Parent().RemoveChild(img.Parent(), img)
			continue
		}
		if !images.IsRaster(resolved) {
			// Vector and unknown formats pass through untouched; only
			// normalize the URL to a root-absolute path.
			rel, relErr := filepath.Rel(rc.root, resolved)
			if relErr == nil {
				img.Destination = []byte("/" + filepath.ToSlash(rel))
			}
			continue
		}

		rel, relErr := filepath.Rel(rc.root, resolved)
		if relErr != nil {
			continue
		}
		ref := images.NewReference(dest, resolved, filepath.Dir(filepath.ToSlash(rel)), "/", rc.widths.Width(resolved))
		rc.record.Images = append(rc.record.Images, ref)

		pic := &PictureNode{Ref: ref, Alt: nodeText(img, source), Title: string(img.Title)}
		img.Parent().ReplaceChild(img.Parent(), img, pic)
	}
}

// pictureRenderer writes the <picture> markup: one source-set per variant
// format plus a median-size fallback image.
type pictureRenderer struct{}

func (r pictureRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindPicture, r.render)
}

var formatMIME = map[string]string{"webp": "image/webp", "jpg": "image/jpeg"}

func (pictureRenderer) render(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*PictureNode)
	ref := n.Ref

	_, _ = w.WriteString("<picture>")
	for _, format := range images.Formats {
		_, _ = w.WriteString(`<source type="` + formatMIME[format] + `" srcset="`)
		for i, width := range ref.SizesToGenerate {
			if i > 0 {
				_, _ = w.WriteString(", ")
			}
			_, _ = fmt.Fprintf(w, "%s %dw", ref.VariantURL(width, format), width)
		}
		_, _ = w.WriteString(`">`)
	}

	fallback := ref.FallbackWidth()
	_, _ = w.WriteString(`<img src="` + ref.VariantURL(fallback, "jpg") + `" alt="`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Alt)))
	_, _ = w.WriteString(`"`)
	if n.Title != "" {
		_, _ = w.WriteString(` title="`)
		_, _ = w.Write(util.EscapeHTML([]byte(n.Title)))
		_, _ = w.WriteString(`"`)
	}
	_, _ = fmt.Fprintf(w, ` width="%d" loading="lazy">`, fallback)
	_, _ = w.WriteString("</picture>")
	return gmast.WalkSkipChildren, nil
}
