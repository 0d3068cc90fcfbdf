// Package store persists annotation records in the library's JSON
// sidecar file.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/starford/wunjo/internal/apperr"
	"github.com/starford/wunjo/internal/checksum"
	"github.com/starford/wunjo/internal/library"
	"github.com/starford/wunjo/internal/models"
)

// Store holds every record of one library plus its viewer settings.
// Records are keyed by slash-separated path relative to the root.
// Records whose file is gone from disk are retained and written back
// unchanged, as are top-level keys that do not name a media file.
type Store struct {
	root     *library.Root
	records  map[string]models.Record
	keep     map[string]json.RawMessage
	settings models.Settings
	lastSum  string // digest of the sidecar as last read or written
	logger   *slog.Logger
}

// Open loads the sidecar under root, or starts empty when none exists.
// A sidecar that is not valid JSON fails with ErrCorruptStore.
func Open(root *library.Root, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		root:     root,
		records:  make(map[string]models.Record),
		keep:     make(map[string]json.RawMessage),
		settings: models.DefaultSettings(),
		logger:   logger,
	}
	data, err := root.ReadSidecar()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if data == nil {
		return s, nil
	}
	if err := s.load(data); err != nil {
		return nil, err
	}
	s.lastSum = checksum.Sum(data)
	return s, nil
}

func (s *Store) load(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return fmt.Errorf("store: parse %s: %w: %w", library.SidecarName, apperr.ErrCorruptStore, err)
	}
	for key, raw := range top {
		if key == settingsKey {
			var ws wireSettings
			if err := json.Unmarshal(raw, &ws); err != nil {
				continue
			}
			st := models.DefaultSettings()
			if ws.ImageTime != nil {
				st.ImageTime = *ws.ImageTime
			}
			if ws.FontSize != nil {
				st.FontSize = *ws.FontSize
			}
			s.settings = st.Normalize()
			continue
		}
		kind, ok := models.KindForPath(key)
		if !ok {
			// Not a media path. Preserve the entry byte for byte.
			s.keep[key] = raw
			continue
		}
		rec, err := decodeRecord(kind, raw)
		if err != nil {
			return fmt.Errorf("store: record %q: %w: %w", key, apperr.ErrCorruptStore, err)
		}
		s.records[key] = rec
	}
	return nil
}

// Record returns the stored record for path.
func (s *Store) Record(path string) (models.Record, bool) {
	rec, ok := s.records[path]
	return rec, ok
}

// Put inserts or replaces the record for path.
func (s *Store) Put(path string, rec models.Record) {
	s.records[path] = rec
}

// Paths returns every stored record path, sorted.
func (s *Store) Paths() []string {
	out := make([]string, 0, len(s.records))
	for p := range s.records {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Settings returns the viewer settings.
func (s *Store) Settings() models.Settings { return s.settings }

// SetSettings replaces the viewer settings.
func (s *Store) SetSettings(v models.Settings) { s.settings = v.Normalize() }

// Save rewrites the sidecar atomically. When the file changed on disk
// since it was last read, the external edit is logged and overwritten;
// the last writer wins.
func (s *Store) Save() error {
	top := make(map[string]any, len(s.records)+len(s.keep)+1)
	for k, raw := range s.keep {
		top[k] = raw
	}
	for path, rec := range s.records {
		top[path] = encodeRecord(rec)
	}
	top[settingsKey] = s.settings

	data, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	data = append(data, '\n')

	if prev, err := s.root.ReadSidecar(); err == nil && prev != nil && s.lastSum != "" {
		if sum := checksum.Sum(prev); sum != s.lastSum {
			s.logger.Warn("sidecar was modified outside the session, overwriting",
				"file", library.SidecarName)
		}
	}

	if err := s.root.WriteSidecar(data); err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	s.lastSum = checksum.Sum(data)
	return nil
}
