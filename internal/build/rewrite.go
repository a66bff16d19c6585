package build

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// stageRewrite replaces original asset URLs in every emitted HTML document
// with their fingerprinted names. It runs only when fingerprinting is
// enabled and the map is non-empty, and it must precede compression so the
// compressed siblings capture the rewritten bytes.
func stageRewrite(_ context.Context, bs *State) error {
	if !bs.Cfg.Fingerprint || len(bs.Fingerprints) == 0 {
		return nil
	}
	return filepath.WalkDir(bs.OutDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return err
		}
		body, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		rewritten, changed, rwErr := RewriteAssetURLs(body, bs.Fingerprints)
		if rwErr != nil {
			slog.Warn("asset rewrite failed, leaving page untouched", logfields.Path(path), logfields.Error(rwErr))
			return nil
		}
		if !changed {
			return nil
		}
		return os.WriteFile(path, rewritten, 0o644)
	})
}

// urlAttrs are the attributes that may carry asset references.
var urlAttrs = map[string]bool{"href": true, "src": true}

// RewriteAssetURLs parses an HTML document and swaps attribute values that
// exactly match a fingerprinted asset path.
func RewriteAssetURLs(body []byte, fingerprints map[string]string) ([]byte, bool, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	changed := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for i, attr := range n.Attr {
				if !urlAttrs[attr.Key] {
					continue
				}
				if to, ok := fingerprints[attr.Val]; ok {
					n.Attr[i].Val = to
					changed = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if !changed {
		return body, false, nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}
