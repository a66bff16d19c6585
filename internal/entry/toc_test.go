package entry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/markup"
)

func h(level int, content string) markup.Heading {
	return markup.Heading{Level: level, Content: content, Slug: content}
}

func TestBuildToc_SiblingAfterChildClimbsBack(t *testing.T) {
	toc := BuildToc([]markup.Heading{h(2, "a"), h(3, "a1"), h(2, "b")}, 2, 4)

	require.Len(t, toc, 2)
	require.Equal(t, "a", toc[0].Content)
	require.Len(t, toc[0].Children, 1)
	require.Equal(t, "a1", toc[0].Children[0].Content)
	require.Equal(t, "b", toc[1].Content)
	require.Empty(t, toc[1].Children)
}

func TestBuildToc_DeepNesting(t *testing.T) {
	toc := BuildToc([]markup.Heading{h(2, "a"), h(3, "a1"), h(4, "a1i"), h(3, "a2")}, 2, 4)

	require.Len(t, toc, 1)
	a := toc[0]
	require.Len(t, a.Children, 2)
	require.Equal(t, "a1", a.Children[0].Content)
	require.Len(t, a.Children[0].Children, 1)
	require.Equal(t, "a1i", a.Children[0].Children[0].Content)
	require.Equal(t, "a2", a.Children[1].Content)
}

func TestBuildToc_WindowFiltersLevels(t *testing.T) {
	toc := BuildToc([]markup.Heading{h(1, "title"), h(2, "a"), h(5, "deep"), h(2, "b")}, 2, 4)

	require.Len(t, toc, 2)
	require.Equal(t, "a", toc[0].Content)
	require.Equal(t, "b", toc[1].Content)
}

func TestBuildToc_SkipsSluglessHeadings(t *testing.T) {
	headings := []markup.Heading{{Level: 2, Content: "no anchor"}, h(2, "anchored")}
	toc := BuildToc(headings, 2, 4)

	require.Len(t, toc, 1)
	require.Equal(t, "anchored", toc[0].Content)
}

func TestBuildToc_Empty(t *testing.T) {
	require.Empty(t, BuildToc(nil, 2, 4))
}
