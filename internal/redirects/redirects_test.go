package redirects

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_ScalarMapping(t *testing.T) {
	rules, err := Parse([]byte(`"/old/": "/new/"`), Options{})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, Rule{From: "/old/", To: "/new/", StatusCode: 301}, rules[0])
}

func TestParse_ObjectMapping(t *testing.T) {
	raw := `
"/moved/":
  to: "/target/"
  statusCode: 302
`
	rules, err := Parse([]byte(raw), Options{})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, Rule{From: "/moved/", To: "/target/", StatusCode: 302}, rules[0])
}

func TestParse_SortedByFrom(t *testing.T) {
	raw := `
"/zebra/": "/z/"
"/alpha/": "/a/"
"/mid/": "/m/"
`
	rules, err := Parse([]byte(raw), Options{})
	require.NoError(t, err)
	require.Len(t, rules, 3)
	require.Equal(t, "/alpha/", rules[0].From)
	require.Equal(t, "/mid/", rules[1].From)
	require.Equal(t, "/zebra/", rules[2].From)
}

func TestParse_InvalidStatusCode(t *testing.T) {
	raw := `
"/old/":
  to: "/new/"
  statusCode: 418
`
	_, err := Parse([]byte(raw), Options{})
	require.Error(t, err)
}

func TestParse_FromMustBeRootAbsolute(t *testing.T) {
	_, err := Parse([]byte(`"old/": "/new/"`), Options{})
	require.Error(t, err)
}

func TestParse_EmptyTarget(t *testing.T) {
	_, err := Parse([]byte(`"/old/": ""`), Options{})
	require.Error(t, err)
}

func TestParse_ExternalTargetGating(t *testing.T) {
	raw := []byte(`"/old/": "https://example.com/new/"`)

	_, err := Parse(raw, Options{})
	require.Error(t, err, "external targets need an explicit opt-in")

	// With no allow-list configured, the opt-in alone admits any origin.
	_, err = Parse(raw, Options{AllowExternal: true})
	require.NoError(t, err)

	rules, err := Parse(raw, Options{AllowExternal: true, AllowedDomains: []string{"example.com"}})
	require.NoError(t, err)
	require.Len(t, rules, 1)

	// Subdomains of an allowed domain pass.
	raw = []byte(`"/old/": "https://www.example.com/new/"`)
	_, err = Parse(raw, Options{AllowExternal: true, AllowedDomains: []string{"example.com"}})
	require.NoError(t, err)

	// Unlisted domains fail even with the opt-in.
	raw = []byte(`"/old/": "https://evil.test/new/"`)
	_, err = Parse(raw, Options{AllowExternal: true, AllowedDomains: []string{"example.com"}})
	require.Error(t, err)
}

func TestRuleIsExternal(t *testing.T) {
	require.True(t, Rule{To: "https://example.com/"}.IsExternal())
	require.True(t, Rule{To: "//example.com/"}.IsExternal())
	require.False(t, Rule{To: "/new/"}.IsExternal())
}

func TestParseFile_MissingFileIsEmpty(t *testing.T) {
	rules, err := ParseFile(filepath.Join(t.TempDir(), "absent.yaml"), Options{})
	require.NoError(t, err)
	require.Empty(t, rules)
}

func TestParseFile_ReadsRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redirects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`"/old/": "/new/"`), 0o644))

	rules, err := ParseFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, "/old/", rules[0].From)
}
