package build

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/redirects"
)

// stageRedirects emits both redirect strategies: the host-native
// declarative file always, plus same-content HTML fallbacks for every
// non-external rule so redirects work on dumb static hosts too.
func stageRedirects(_ context.Context, bs *State) error {
	if len(bs.Rules) == 0 {
		return nil
	}

	var native strings.Builder
	for _, r := range bs.Rules {
		fmt.Fprintf(&native, "%s %s %d\n", r.From, r.To, r.StatusCode)
	}
	if err := bs.writeFile("_redirects", []byte(native.String())); err != nil {
		return err
	}

	for _, r := range bs.Rules {
		if r.IsExternal() {
			continue
		}
		body := redirectFallbackHTML(r)
		for _, rel := range fallbackLocations(r.From) {
			if bs.writtenPages[rel] {
				// Never overwrite a real page silently.
				slog.Info("redirect fallback skipped, real page exists",
					logfields.URL(r.From), logfields.Path(rel))
				continue
			}
			if err := bs.writeFile(rel, body); err != nil {
				return err
			}
		}
	}
	return nil
}

// fallbackLocations returns the HTML fallback paths for a redirect source:
// sources without a trailing slash get both <path>.html and
// <path>/index.html, slash-terminated sources only the latter.
func fallbackLocations(from string) []string {
	trimmed := strings.Trim(from, "/")
	if trimmed == "" {
		return nil // never shadow the site root
	}
	indexLoc := filepath.Join(filepath.FromSlash(trimmed), "index.html")
	if strings.HasSuffix(from, "/") {
		return []string{indexLoc}
	}
	return []string{filepath.FromSlash(trimmed) + ".html", indexLoc}
}

// redirectFallbackHTML is the meta-refresh + script + visible-link document.
func redirectFallbackHTML(r redirects.Rule) []byte {
	to := html.EscapeString(r.To)
	return []byte(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="0; url=` + to + `">
<link rel="canonical" href="` + to + `">
<script>window.location.replace("` + to + `");</script>
<title>Redirecting</title>
</head>
<body>
<p>This page has moved. <a href="` + to + `">Continue to the new location</a>.</p>
</body>
</html>
`)
}
