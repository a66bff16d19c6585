//go:build !linux && !darwin

package content

import (
	"os"

	"git.home.luguber.info/inful/sitegen/internal/meta"
)

// fileStat on platforms without a usable stat extension: birth time is
// treated as absent and createdAt resolution falls through to mod time.
func fileStat(info os.FileInfo) meta.FileStat {
	return meta.FileStat{ModTime: info.ModTime()}
}
