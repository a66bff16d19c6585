//go:build darwin

package content

import (
	"os"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/meta"
)

// fileStat converts an os.FileInfo into the resolver's stat snapshot,
// including the birth time macOS records. The resolver still rejects birth
// times that look copied (equal to change time or after modify time).
func fileStat(info os.FileInfo) meta.FileStat {
	fs := meta.FileStat{ModTime: info.ModTime()}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		fs.ChangeTime = time.Unix(st.Ctimespec.Sec, st.Ctimespec.Nsec)
		fs.BirthTime = time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
		fs.HasBirthTime = true
	}
	return fs
}
