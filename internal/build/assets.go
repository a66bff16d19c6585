package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// assetExts are the theme asset types that get fingerprinted. Everything
// else under the theme's asset dir copies verbatim.
var assetExts = map[string]bool{".css": true, ".js": true}

const assetHashLen = 10

// stageAssets fingerprints and copies theme style/script assets. Hashing
// runs as a dedicated first pass so an asset referencing another by name is
// rewritten against final names, whatever the walk order.
func stageAssets(_ context.Context, bs *State) error {
	src := filepath.Join(bs.Cfg.ThemeDir, "assets")
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return nil // themes without assets are fine
	}

	type asset struct {
		rel  string // slash-separated path under assets/
		body []byte
	}
	var all []asset

	// First pass: read and fingerprint.
	walkErr := filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}
		body, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read asset %s: %w", rel, readErr)
		}
		rel = filepath.ToSlash(rel)
		all = append(all, asset{rel: rel, body: body})
		if bs.Cfg.Fingerprint && assetExts[strings.ToLower(filepath.Ext(rel))] {
			bs.Fingerprints["/assets/"+rel] = "/assets/" + fingerprintName(rel, body)
		}
		return nil
	})
	if walkErr != nil {
		return walkErr
	}
	sort.Slice(all, func(i, j int) bool { return all[i].rel < all[j].rel })

	// Second pass: rewrite cross-references against final names and copy.
	for _, a := range all {
		outRel := "/assets/" + a.rel
		if fp, ok := bs.Fingerprints[outRel]; ok {
			outRel = fp
		}
		body := a.body
		if assetExts[strings.ToLower(filepath.Ext(a.rel))] {
			body = rewriteAssetRefs(body, bs.Fingerprints)
		}
		if err := bs.writeFile(filepath.FromSlash(strings.TrimPrefix(outRel, "/")), body); err != nil {
			return err
		}
	}
	return nil
}

// fingerprintName embeds a content hash in the file name:
// app.css -> app-3f92c1d40a.css.
func fingerprintName(rel string, body []byte) string {
	sum := sha256.Sum256(body)
	hash := hex.EncodeToString(sum[:])[:assetHashLen]
	ext := filepath.Ext(rel)
	return rel[:len(rel)-len(ext)] + "-" + hash + ext
}

// rewriteAssetRefs replaces original asset web paths inside css/js bodies.
func rewriteAssetRefs(body []byte, fingerprints map[string]string) []byte {
	if len(fingerprints) == 0 {
		return body
	}
	s := string(body)
	for from, to := range fingerprints {
		s = strings.ReplaceAll(s, from, to)
	}
	return []byte(s)
}
