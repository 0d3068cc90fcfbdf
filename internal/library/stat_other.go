//go:build !linux

package library

import (
	"os"
	"time"
)

// earliestTimestamp falls back to mtime where the platform stat data
// is not portable enough to inspect.
func earliestTimestamp(info os.FileInfo) time.Time {
	return info.ModTime()
}
