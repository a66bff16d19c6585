package markup

import (
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/sitegen/internal/paths"
)

// headingTransformer assigns an anchor slug to every heading, records it in
// the render record, and forces the id onto the emitted tag. An explicit
// `{#id}` attribute wins over the derived slug.
type headingTransformer struct{}

func (headingTransformer) Transform(doc *gmast.Document, reader text.Reader, pc parser.Context) {
	rc := renderContextFrom(pc)
	if rc == nil {
		return
	}
	source := reader.Source()
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		content := nodeText(h, source)
		slug := explicitID(h)
		if slug == "" {
			slug = rc.anchorSlug(content)
		}
		h.SetAttributeString("id", []byte(slug))
		rc.record.Headings = append(rc.record.Headings, Heading{
			Level:   h.Level,
			Content: content,
			Slug:    slug,
		})
		return gmast.WalkSkipChildren, nil
	})
}

func explicitID(n gmast.Node) string {
	if v, ok := n.AttributeString("id"); ok {
		switch id := v.(type) {
		case []byte:
			return string(id)
		case string:
			return id
		}
	}
	return ""
}

// slugOrFallback guards against headings that slugify to nothing
// (punctuation-only text).
func slugOrFallback(text string) string {
	if s := paths.Slugify(text); s != "" {
		return s
	}
	return "section-" + paths.ShortHash(text)
}

// nodeText flattens the literal text of a node's inline subtree.
func nodeText(n gmast.Node, source []byte) string {
	var out []byte
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			out = append(out, t.Segment.Value(source)...)
		case *gmast.String:
			out = append(out, t.Value...)
		}
		return gmast.WalkContinue, nil
	})
	return string(out)
}
