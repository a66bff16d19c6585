package meta

import (
	"regexp"
	"strings"
)

var (
	mdImage    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLink     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdCode     = regexp.MustCompile("(?s)```.*?```|`[^`\n]*`")
	mdHTMLTag  = regexp.MustCompile(`<[^>]+>`)
	mdMarkup   = regexp.MustCompile(`[#*_~>|=\-]{1,}`)
	whitespace = regexp.MustCompile(`\s+`)
)

// CountWords counts the prose words of a body. For markdown, images, links,
// code spans, tags and markup punctuation are stripped first so syntax never
// inflates reading time.
func CountWords(body []byte, markdown bool) int {
	s := string(body)
	if markdown {
		s = mdCode.ReplaceAllString(s, " ")
		s = mdImage.ReplaceAllString(s, " ")
		s = mdLink.ReplaceAllString(s, "$1")
		s = mdHTMLTag.ReplaceAllString(s, " ")
		s = mdMarkup.ReplaceAllString(s, " ")
	}
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	if s == "" {
		return 0
	}
	return len(strings.Split(s, " "))
}
