package library

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/starford/wunjo/internal/apperr"
	"github.com/starford/wunjo/internal/models"
)

// ScanResult is the outcome of one discovery pass over the root.
type ScanResult struct {
	// Files lists every supported media file found, lexically ordered.
	Files []models.MediaFile
	// Pending lists subfolders that were encountered but have no
	// inclusion decision yet. They contribute no files this pass.
	Pending []string
}

// Scan walks the root and every included subfolder. decisions maps
// slash-separated subfolder paths to their inclusion choice; folders
// absent from the map are reported in Pending and not descended into.
// set_aside directories and hidden entries are never visited.
func (r *Root) Scan(decisions map[string]bool) (*ScanResult, error) {
	res := &ScanResult{}
	err := filepath.WalkDir(r.path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == r.path {
			return nil
		}
		rel, err := filepath.Rel(r.path, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		if d.IsDir() {
			if name == SetAsideDir || strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			include, decided := decisions[rel]
			if !decided {
				res.Pending = append(res.Pending, rel)
				return fs.SkipDir
			}
			if !include {
				return fs.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		kind, ok := models.KindForPath(name)
		if !ok {
			return nil
		}
		res.Files = append(res.Files, models.MediaFile{Path: rel, Kind: kind})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("library: scan: %w: %w", apperr.ErrDiscovery, err)
	}
	return res, nil
}
