package markup

import (
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// admonitionKinds is the closed set of recognized container kinds.
var admonitionKinds = sets.New("note", "tip", "info", "warning", "danger", "caution")

// AdmonitionNode is a styled callout container opened by `:::kind [title]`
// and closed by a bare `:::`. Unclosed containers auto-close at end of
// input. Nested containers are tracked with a per-node open-frame counter,
// the pushdown state that routes each closing marker to the innermost
// open block.
type AdmonitionNode struct {
	gmast.BaseBlock
	AdmonitionKind string
	Title          string

	// open child markers seen while this node is still open
	nested int
}

// KindAdmonition is the node kind of AdmonitionNode.
var KindAdmonition = gmast.NewNodeKind("Admonition")

func (n *AdmonitionNode) Kind() gmast.NodeKind { return KindAdmonition }

func (n *AdmonitionNode) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{
		"Kind":  n.AdmonitionKind,
		"Title": n.Title,
	}, nil)
}

const admonitionMarker = ":::"

// admonitionParser is a goldmark block parser for admonition containers.
type admonitionParser struct{}

func (admonitionParser) Trigger() []byte { return []byte{':'} }

// parseOpening recognizes `:::kind` or `:::kind title...` at line start and
// returns the kind and optional title.
func parseOpening(line []byte) (kind, title string, ok bool) {
	trimmed := strings.TrimSpace(string(line))
	if !strings.HasPrefix(trimmed, admonitionMarker) || trimmed == admonitionMarker {
		return "", "", false
	}
	rest := trimmed[len(admonitionMarker):]
	kind = rest
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		kind = rest[:i]
		title = strings.TrimSpace(rest[i:])
	}
	kind = strings.ToLower(kind)
	if !admonitionKinds.Has(kind) {
		return "", "", false
	}
	return kind, title, true
}

func isClosing(line []byte) bool {
	return strings.TrimSpace(string(line)) == admonitionMarker
}

func (admonitionParser) Open(parent gmast.Node, reader text.Reader, pc parser.Context) (gmast.Node, parser.State) {
	line, _ := reader.PeekLine()
	kind, title, ok := parseOpening(line)
	if !ok {
		return nil, parser.NoChildren
	}
	reader.Advance(len(line))
	if title == "" {
		title = strings.ToUpper(kind[:1]) + kind[1:]
	}
	return &AdmonitionNode{AdmonitionKind: kind, Title: title}, parser.HasChildren
}

func (admonitionParser) Continue(node gmast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*AdmonitionNode)
	line, _ := reader.PeekLine()

	// A nested opening marker belongs to a child container: remember the
	// frame so its closing marker is not mistaken for ours.
	if _, _, ok := parseOpening(line); ok {
		n.nested++
		return parser.Continue | parser.HasChildren
	}
	if isClosing(line) {
		if n.nested > 0 {
			// The marker closes a descendant; let it travel inward.
			n.nested--
			return parser.Continue | parser.HasChildren
		}
		reader.Advance(len(line))
		return parser.Close
	}
	return parser.Continue | parser.HasChildren
}

func (admonitionParser) Close(node gmast.Node, reader text.Reader, pc parser.Context) {}

func (admonitionParser) CanInterruptParagraph() bool { return true }

func (admonitionParser) CanAcceptIndentedLine() bool { return false }

// admonitionRenderer emits the title + content wrapper markup.
type admonitionRenderer struct{}

func (r admonitionRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindAdmonition, r.render)
}

func (admonitionRenderer) render(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	n := node.(*AdmonitionNode)
	if entering {
		_, _ = w.WriteString(`<div class="admonition admonition-` + n.AdmonitionKind + `">`)
		_, _ = w.WriteString(`<p class="admonition-title">`)
		_, _ = w.Write(util.EscapeHTML([]byte(n.Title)))
		_, _ = w.WriteString(`</p><div class="admonition-content">`)
	} else {
		_, _ = w.WriteString(`</div></div>`)
	}
	return gmast.WalkContinue, nil
}
