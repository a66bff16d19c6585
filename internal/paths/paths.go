// Package paths holds the pure path and identity helpers shared by the
// content pipeline: slug derivation, web-path normalization, short content
// hashes and content-root containment checks.
package paths

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// HashLen is the number of hex characters kept from a sha256 digest when a
// short identity is embedded in a file name.
const HashLen = 10

// ErrEscapesRoot indicates a reference that resolves outside the content root.
var ErrEscapesRoot = errors.New("path resolves outside the content root")

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts arbitrary text into a URL-safe slug: combining marks are
// stripped, letters lowercased, and every run of non-alphanumerics collapses
// into a single dash.
func Slugify(s string) string {
	if flat, _, err := transform.String(stripMarks, s); err == nil {
		s = flat
	}
	var b strings.Builder
	b.Grow(len(s))
	lastDash := true // suppress a leading dash
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// NormalizeWebPath guarantees a leading and trailing slash and collapses
// duplicate separators. The root URL normalizes to "/".
func NormalizeWebPath(p string) string {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	if p == "/" || p == "." {
		return "/"
	}
	return p + "/"
}

// SlugFromURL derives the unique entry key from a normalized URL: interior
// slashes become dashes, the root URL maps to "index".
func SlugFromURL(url string) string {
	trimmed := strings.Trim(url, "/")
	if trimmed == "" {
		return "index"
	}
	return strings.ReplaceAll(trimmed, "/", "-")
}

// ShortHash returns the leading HashLen hex characters of sha256(s).
// It names cache-safe variant files; it is never a freshness signal.
func ShortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:HashLen]
}

// ResolveContentPath resolves a raw reference against the content root.
// Three forms are accepted: root-absolute ("/img/a.png"), explicit-relative
// ("./a.png", "../a.png") and implicit-relative ("a.png"), the latter two
// anchored at pageDir. The result must stay strictly inside root; an
// escaping resolution returns ErrEscapesRoot and must not be followed.
func ResolveContentPath(root, pageDir, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEscapesRoot
	}
	var resolved string
	if strings.HasPrefix(raw, "/") {
		resolved = filepath.Join(root, filepath.FromSlash(raw))
	} else {
		resolved = filepath.Join(pageDir, filepath.FromSlash(raw))
	}
	resolved = filepath.Clean(resolved)
	cleanRoot := filepath.Clean(root)
	if resolved != cleanRoot && !strings.HasPrefix(resolved, cleanRoot+string(filepath.Separator)) {
		return "", ErrEscapesRoot
	}
	return resolved, nil
}

// IsExternalURL reports whether a reference points outside the site
// (scheme-qualified or protocol-relative).
func IsExternalURL(raw string) bool {
	return strings.Contains(raw, "://") || strings.HasPrefix(raw, "//") ||
		strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "mailto:")
}
