package entry

import "git.home.luguber.info/inful/sitegen/internal/markup"

// TocNode is one node of the table-of-contents tree.
type TocNode struct {
	markup.Heading
	Children []*TocNode
}

// BuildToc folds a flat heading list into a tree. A stack of open nodes pops
// every ancestor whose level is >= the incoming heading's level, so a
// same-level heading becomes a sibling and a shallower one climbs back up.
// Headings outside the [minLevel, maxLevel] window or without a slug are
// skipped.
func BuildToc(headings []markup.Heading, minLevel, maxLevel int) []*TocNode {
	var roots []*TocNode
	var stack []*TocNode

	for _, h := range headings {
		if h.Level < minLevel || h.Level > maxLevel || h.Slug == "" {
			continue
		}
		node := &TocNode{Heading: h}
		for len(stack) > 0 && stack[len(stack)-1].Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, node)
	}
	return roots
}
