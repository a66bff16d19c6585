//go:build linux

package content

import (
	"os"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/meta"
)

// fileStat converts an os.FileInfo into the resolver's stat snapshot.
// Linux exposes no portable birth time here, so createdAt resolution falls
// through to the modify time.
func fileStat(info os.FileInfo) meta.FileStat {
	fs := meta.FileStat{ModTime: info.ModTime()}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		fs.ChangeTime = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return fs
}
