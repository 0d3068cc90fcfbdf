//go:build linux

package library

import (
	"os"
	"syscall"
	"time"
)

// earliestTimestamp picks the oldest instant the platform records for
// the file. Linux exposes mtime and ctime; birth time is not available
// on most file systems.
func earliestTimestamp(info os.FileInfo) time.Time {
	t := info.ModTime()
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		ctime := time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
		if ctime.Before(t) {
			t = ctime
		}
	}
	return t
}
