// Package timestamp derives the capture instant of media files.
package timestamp

import (
	"log/slog"
	"time"

	"github.com/starford/wunjo/internal/library"
	"github.com/starford/wunjo/internal/models"
)

// CaptureTimer reads an embedded capture instant from an image file.
// exifmeta.Reader is the production implementation.
type CaptureTimer interface {
	CaptureTime(path string) (time.Time, error)
}

// Resolver fills record stamps lazily. A manual override wins, an
// already cached value is trusted without recomputation, then EXIF
// (images only), then the earliest file-system timestamp. A source
// that fails falls through silently to the next one.
type Resolver struct {
	exif   CaptureTimer
	logger *slog.Logger
}

// New builds a resolver around the given EXIF reader.
func New(exif CaptureTimer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{exif: exif, logger: logger}
}

// Resolve caches an instant into the record's stamp when it is still
// unresolved. It reports whether the stamp changed.
func (r *Resolver) Resolve(root *library.Root, file models.MediaFile, common *models.RecordCommon) bool {
	stamp := &common.Stamp
	if stamp.State() != models.StampUnresolved {
		return false
	}

	if file.Kind == models.KindImage {
		if abs, err := root.Abs(file.Path); err == nil {
			if t, err := r.exif.CaptureTime(abs); err == nil {
				stamp.SetCached(t)
				return true
			}
		}
	}

	t, err := root.EarliestTime(file.Path)
	if err != nil {
		r.logger.Warn("timestamp resolution failed", "path", file.Path, "error", err)
		return false
	}
	stamp.SetCached(t)
	return true
}
