package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadHTMLEngine(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"index.html": `<h1>{{ .title }}</h1>`,
		"entry.html": `<article>{{ .body }}</article>`,
	})

	e, err := LoadHTMLEngine(dir)
	require.NoError(t, err)
	require.True(t, e.Has("index"))
	require.True(t, e.Has("entry"))
	require.False(t, e.Has("tag"))

	out, err := e.Render("index", Context{"title": "Hello"})
	require.NoError(t, err)
	require.Equal(t, "<h1>Hello</h1>", out)
}

func TestLoadHTMLEngine_EmptyDirFails(t *testing.T) {
	_, err := LoadHTMLEngine(t.TempDir())
	require.Error(t, err)
}

func TestLoadHTMLEngine_ParseErrorFails(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"index.html": `{{ broken`,
	})
	_, err := LoadHTMLEngine(dir)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"index.html": `i`,
		"entry.html": `e`,
	})
	e, err := LoadHTMLEngine(dir)
	require.NoError(t, err)
	require.NoError(t, Validate(e))

	dir = writeTemplates(t, map[string]string{"index.html": `i`})
	e, err = LoadHTMLEngine(dir)
	require.NoError(t, err)
	require.ErrorContains(t, Validate(e), "entry")
}

func TestSelectTemplate(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"index.html": `i`,
		"entry.html": `e`,
		"tag.html":   `t`,
	})
	e, err := LoadHTMLEngine(dir)
	require.NoError(t, err)

	require.Equal(t, "tag", SelectTemplate(e, []string{"category", "tag"}, TemplateIndex))
	require.Equal(t, "index", SelectTemplate(e, []string{"category", "series"}, TemplateIndex))
	require.Equal(t, "entry", SelectTemplate(e, []string{"", ""}, TemplateEntry))
	require.Equal(t, "entry", SelectTemplate(e, nil, TemplateEntry))
}
