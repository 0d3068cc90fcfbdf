// Package models defines the domain types for Wunjo.
package models

import (
	"path/filepath"
	"strings"
)

// MediaKind distinguishes the two media families the annotator handles.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".bmp": {}, ".gif": {},
}

var videoExts = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {},
}

// KindForPath reports the media kind implied by the path's extension,
// case-insensitively. ok is false for unsupported extensions.
func KindForPath(path string) (kind MediaKind, ok bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageExts[ext]; ok {
		return KindImage, true
	}
	if _, ok := videoExts[ext]; ok {
		return KindVideo, true
	}
	return "", false
}

// MediaFile is one discovered file inside the library root.
type MediaFile struct {
	Path string    `json:"path"` // relative to the library root, slash-separated
	Kind MediaKind `json:"kind"`
}
