// Package library gives rooted access to a media folder: discovery,
// sidecar I/O and the file moves the annotator performs.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/wunjo/internal/apperr"
)

const (
	// SidecarName is the annotation store file kept in the root.
	SidecarName = "annotations.json"

	// SetAsideDir receives set-aside media, created next to the source file.
	SetAsideDir = "set_aside"
)

// Root is a validated library directory. All paths handed to its
// methods are relative to it and slash-separated.
type Root struct {
	path string // absolute
}

// New opens a library root. The directory must already exist.
func New(root string) (*Root, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("library: resolve root: %w: %w", apperr.ErrDiscovery, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("library: stat root: %w: %w", apperr.ErrDiscovery, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library: root is not a directory: %w: %s", apperr.ErrDiscovery, abs)
	}
	return &Root{path: abs}, nil
}

// Path returns the absolute root directory.
func (r *Root) Path() string { return r.path }

// safePath resolves a relative path against the root and rejects any
// result that escapes it (directory traversal).
func (r *Root) safePath(rel string) (string, error) {
	if rel == "" {
		return r.path, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("library: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(r.path, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("library: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, r.path+string(os.PathSeparator)) && abs != r.path {
		return "", fmt.Errorf("library: path escapes root: %s", rel)
	}
	return abs, nil
}

// Abs resolves rel against the root, refusing traversal outside it.
func (r *Root) Abs(rel string) (string, error) {
	return r.safePath(rel)
}

// ReadSidecar returns the sidecar bytes, or (nil, nil) when the file
// does not exist yet.
func (r *Root) ReadSidecar() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(r.path, SidecarName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("library: read sidecar: %w", err)
	}
	return data, nil
}

// WriteSidecar atomically replaces the sidecar: tmp file → fsync → rename.
func (r *Root) WriteSidecar(content []byte) error {
	dest := filepath.Join(r.path, SidecarName)

	tmp, err := os.CreateTemp(r.path, ".wunjo-tmp-*")
	if err != nil {
		return fmt.Errorf("library: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("library: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("library: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("library: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("library: rename: %w", err)
	}
	success = true
	return nil
}

// SetAside moves a media file into a set_aside directory beside it and
// returns the new relative path. Name collisions get a numeric suffix.
func (r *Root) SetAside(rel string) (string, error) {
	abs, err := r.safePath(rel)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("library: set aside %s: %w", rel, err)
	}

	destDir := filepath.Join(filepath.Dir(abs), SetAsideDir)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("library: mkdir set_aside: %w", err)
	}

	base := filepath.Base(abs)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	dest := filepath.Join(destDir, base)
	for i := 1; ; i++ {
		if _, err := os.Stat(dest); errors.Is(err, fs.ErrNotExist) {
			break
		}
		dest = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}

	if err := os.Rename(abs, dest); err != nil {
		return "", fmt.Errorf("library: set aside %s: %w", rel, err)
	}
	relDest, err := filepath.Rel(r.path, dest)
	if err != nil {
		return "", fmt.Errorf("library: set aside %s: %w", rel, err)
	}
	return filepath.ToSlash(relDest), nil
}

// EarliestTime returns the earliest instant the file system reports
// for the file. On Linux this considers both mtime and ctime.
func (r *Root) EarliestTime(rel string) (time.Time, error) {
	abs, err := r.safePath(rel)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return time.Time{}, fmt.Errorf("library: stat %s: %w", rel, err)
	}
	return earliestTimestamp(info), nil
}
