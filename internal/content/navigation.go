package content

import (
	"os"
	"path/filepath"
	"sort"
)

// buildNavigation re-walks the physical tree and attaches each file's
// resolved title and URL. Folders with zero content descendants are
// omitted; the tree mirrors directories, independent of taxonomies and
// pagination.
func (l *Loader) buildNavigation(files map[string]NavNode) ([]*NavNode, error) {
	node, err := l.navDir(l.root, files)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	return node.Children, nil
}

func (l *Loader) navDir(dir string, files map[string]NavNode) (*NavNode, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	node := &NavNode{Folder: true, Title: filepath.Base(dir)}
	for _, de := range entries {
		full := filepath.Join(dir, de.Name())
		if de.IsDir() {
			if skipDir(de.Name(), full, l.root) {
				continue
			}
			child, childErr := l.navDir(full, files)
			if childErr != nil || child == nil {
				continue // folders without content descendants are omitted
			}
			node.Children = append(node.Children, child)
			continue
		}
		rel, relErr := filepath.Rel(l.root, full)
		if relErr != nil {
			continue
		}
		// Drafts, dotfiles and failed files never made it into the file
		// index, so membership is the only check needed here.
		if file, ok := files[filepath.ToSlash(rel)]; ok {
			leaf := file
			node.Children = append(node.Children, &leaf)
		}
	}
	if len(node.Children) == 0 {
		return nil, nil
	}
	return node, nil
}
