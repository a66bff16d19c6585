package build

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintName(t *testing.T) {
	body := []byte("body { color: red }")
	sum := sha256.Sum256(body)
	want := "app-" + hex.EncodeToString(sum[:])[:assetHashLen] + ".css"

	require.Equal(t, want, fingerprintName("app.css", body))
	require.Equal(t, fingerprintName("app.css", body), fingerprintName("app.css", body))
	require.NotEqual(t, want, fingerprintName("app.css", []byte("other")))
}

func TestFingerprintName_NestedPath(t *testing.T) {
	got := fingerprintName("vendor/lib.js", []byte("x"))
	require.Regexp(t, `^vendor/lib-[0-9a-f]{10}\.js$`, got)
}

func TestRewriteAssetRefs(t *testing.T) {
	body := []byte(`@import url("/assets/base.css"); .x { background: url(/assets/bg.png) }`)
	fingerprints := map[string]string{"/assets/base.css": "/assets/base-aaaa.css"}

	out := rewriteAssetRefs(body, fingerprints)
	require.Contains(t, string(out), "/assets/base-aaaa.css")
	require.Contains(t, string(out), "/assets/bg.png")

	require.Equal(t, body, rewriteAssetRefs(body, nil))
}
