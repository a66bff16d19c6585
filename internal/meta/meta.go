// Package meta derives presentation metadata for one content file through
// ordered fallbacks. Resolution is pure: everything comes from the body,
// the file name, the parsed front matter and a file stat snapshot.
package meta

import (
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/paths"
)

// DefaultWordsPerMinute is the reading-speed divisor when the config gives none.
const DefaultWordsPerMinute = 200

// FileStat is the filesystem evidence the resolver may consult.
type FileStat struct {
	ModTime    time.Time
	ChangeTime time.Time
	// BirthTime is only meaningful when HasBirthTime is true; platforms
	// without a birth time fall through to ModTime.
	BirthTime    time.Time
	HasBirthTime bool
}

// Meta is the resolved presentation metadata.
type Meta struct {
	Title       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	WordCount   int
	ReadingTime int
}

// Resolve applies the fallback chains. Precedence per field, first match wins:
//
//	title:     front matter > first markdown H1 > file name minus extension > untitled-<hash>
//	createdAt: front matter > YYYY-MM-DD file name prefix > plausible birth time > mod time
//	updatedAt: front matter > mod time
func Resolve(body []byte, filename string, fm map[string]any, markdown bool, stat FileStat, wordsPerMinute int) Meta {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}

	m := Meta{
		Title:     resolveTitle(body, filename, fm, markdown),
		CreatedAt: resolveCreatedAt(filename, fm, stat),
		UpdatedAt: resolveUpdatedAt(fm, stat),
	}

	m.WordCount = CountWords(body, markdown)
	if m.WordCount > 0 {
		m.ReadingTime = int(math.Ceil(float64(m.WordCount) / float64(wordsPerMinute)))
	}
	return m
}

var firstH1 = regexp.MustCompile(`(?m)^#[ \t]+(.+?)[ \t]*#*[ \t]*$`)

func resolveTitle(body []byte, filename string, fm map[string]any, markdown bool) string {
	if t, ok := stringField(fm, "title"); ok && t != "" {
		return t
	}
	if markdown {
		if m := firstH1.FindSubmatch(body); m != nil {
			return strings.TrimSpace(string(m[1]))
		}
	}
	// File name minus extension, dates and dashes kept verbatim.
	base := filepath.Base(filename)
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
		return name
	}
	return "untitled-" + paths.ShortHash(filename)
}

var filenameDate = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

func resolveCreatedAt(filename string, fm map[string]any, stat FileStat) time.Time {
	if t, ok := dateField(fm, "date"); ok {
		return t
	}
	if m := filenameDate.FindStringSubmatch(filepath.Base(filename)); m != nil {
		if t, err := time.Parse("2006-01-02", m[1]); err == nil {
			return t
		}
	}
	if bt, ok := plausibleBirthTime(stat); ok {
		return bt
	}
	return stat.ModTime
}

func resolveUpdatedAt(fm map[string]any, stat FileStat) time.Time {
	if t, ok := dateField(fm, "updated"); ok {
		return t
	}
	return stat.ModTime
}

// plausibleBirthTime filters out unreliable birth times: a zero or negative
// value, one equal to the change time, or one after the modify time all
// signal a copied file or a filesystem without real creation records.
func plausibleBirthTime(stat FileStat) (time.Time, bool) {
	if !stat.HasBirthTime {
		return time.Time{}, false
	}
	bt := stat.BirthTime
	if bt.Unix() <= 0 {
		return time.Time{}, false
	}
	if !stat.ChangeTime.IsZero() && bt.Equal(stat.ChangeTime) {
		return time.Time{}, false
	}
	if bt.After(stat.ModTime) {
		return time.Time{}, false
	}
	return bt, true
}

func stringField(fm map[string]any, key string) (string, bool) {
	v, ok := fm[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// dateField accepts both YAML timestamp values and ISO calendar date strings.
func dateField(fm map[string]any, key string) (time.Time, bool) {
	v, ok := fm[key]
	if !ok {
		return time.Time{}, false
	}
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, d); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
