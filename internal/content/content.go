// Package content walks the content root and produces the immutable Site
// snapshot both operating modes consume: the entry set, the navigation tree
// and the referenced-image index.
package content

import (
	"errors"

	"git.home.luguber.info/inful/sitegen/internal/entry"
	"git.home.luguber.info/inful/sitegen/internal/images"
)

// Mode selects the duplicate-URL fault tolerance: a batch build must fail
// fast, a live server must not crash mid-edit.
type Mode int

const (
	ModeBatch Mode = iota
	ModeLive
)

// ErrDuplicateSlug is fatal in batch mode.
var ErrDuplicateSlug = errors.New("duplicate slug")

// Site is one fully loaded content snapshot. It is immutable after Load;
// the live path swaps whole snapshots and never mutates one in place.
type Site struct {
	// Entries by slug.
	Entries map[string]*entry.Entry
	// URLs maps normalized URL to slug.
	URLs map[string]string
	// Nav is the navigation tree over the physical directory hierarchy.
	Nav []*NavNode
	// Images are all references registered during rendering, in load order
	// (deduplication happens at optimization time).
	Images []*images.Reference
	// BrokenImages accumulates per-reference diagnostics from the walk.
	BrokenImages []string
}

// Get returns an entry by slug.
func (s *Site) Get(slug string) (*entry.Entry, bool) {
	e, ok := s.Entries[slug]
	return e, ok
}

// NavNode is a tagged union: a folder carries Children, a file carries URL.
type NavNode struct {
	Folder   bool
	Title    string
	URL      string
	Children []*NavNode
}
