// Package exifmeta reads capture metadata out of image files.
package exifmeta

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Reader extracts EXIF fields from images on disk. The zero value is
// ready to use.
type Reader struct{}

// CaptureTime returns the capture instant recorded in the image,
// preferring DateTimeOriginal over DateTime.
func (Reader) CaptureTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("exifmeta: open: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("exifmeta: decode: %w", err)
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("exifmeta: datetime: %w", err)
	}
	return t, nil
}

// Coordinates returns the GPS position embedded in the image.
func (Reader) Coordinates(path string) (lat, long float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("exifmeta: open: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return 0, 0, fmt.Errorf("exifmeta: decode: %w", err)
	}
	lat, long, err = x.LatLong()
	if err != nil {
		return 0, 0, fmt.Errorf("exifmeta: gps: %w", err)
	}
	return lat, long, nil
}
