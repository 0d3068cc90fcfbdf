// Package annotator implements the working session over one media
// library: discovery, stamp resolution, ordering, navigation and every
// record mutation, persisted through the sidecar store.
package annotator

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/starford/wunjo/internal/apperr"
	"github.com/starford/wunjo/internal/library"
	"github.com/starford/wunjo/internal/models"
	"github.com/starford/wunjo/internal/store"
	"github.com/starford/wunjo/internal/timestamp"
)

// Entry is one row of the ordered working list.
type Entry struct {
	File   models.MediaFile
	Record models.Record
}

// snapshot copies the entry so callers can read it after the session
// lock is released. Background lookups mutate the live record.
func (e Entry) snapshot() Entry {
	return Entry{File: e.File, Record: e.Record.Clone()}
}

// Session binds one open library root to its sidecar store, the
// subfolder decisions made so far and the ordered working list.
type Session struct {
	ID       string
	OpenedAt time.Time

	root      *library.Root
	store     *store.Store
	decisions map[string]bool
	pending   []string
	entries   []Entry
	positions map[string]int
	durations map[string]float64 // probed video durations in seconds
}

func newSession(root *library.Root, st *store.Store) *Session {
	return &Session{
		ID:        uuid.NewString(),
		OpenedAt:  time.Now(),
		root:      root,
		store:     st,
		decisions: make(map[string]bool),
		positions: make(map[string]int),
		durations: make(map[string]float64),
	}
}

// reconcile runs discovery and rebuilds the working list. Records
// already held in memory are reused so resolved stamps are not derived
// a second time; new files get their stored record or a fresh default.
func (s *Session) reconcile(resolver *timestamp.Resolver) error {
	res, err := s.root.Scan(s.decisions)
	if err != nil {
		return err
	}
	s.pending = res.Pending

	entries := make([]Entry, 0, len(res.Files))
	for _, f := range res.Files {
		var rec models.Record
		if idx, ok := s.positions[f.Path]; ok {
			rec = s.entries[idx].Record
		} else if stored, ok := s.store.Record(f.Path); ok {
			rec = stored
		} else {
			rec = models.NewRecord(f.Kind)
		}
		resolver.Resolve(s.root, f, rec.Common())
		entries = append(entries, Entry{File: f, Record: rec})
	}
	s.replaceEntries(entries)
	return nil
}

// reorder re-sorts the working list in place. Called after mutations
// that may move an entry, such as a manual datetime override.
func (s *Session) reorder() {
	s.replaceEntries(s.entries)
}

func (s *Session) replaceEntries(entries []Entry) {
	orderEntries(entries)
	s.entries = entries
	s.positions = make(map[string]int, len(entries))
	for i, e := range entries {
		s.positions[e.File.Path] = i
	}
}

// orderEntries sorts by effective instant ascending with unresolved
// entries last. Ties fall back to path order so the sequence is stable
// across rescans.
func orderEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, iok := entries[i].Record.Common().Stamp.Effective()
		tj, jok := entries[j].Record.Common().Stamp.Effective()
		if iok != jok {
			return iok
		}
		if iok && !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return entries[i].File.Path < entries[j].File.Path
	})
}

func (s *Session) entryByPath(path string) (Entry, error) {
	idx, ok := s.positions[path]
	if !ok {
		return Entry{}, fmt.Errorf("annotator: %q: %w", path, apperr.ErrUnknownFile)
	}
	return s.entries[idx], nil
}

// advance walks from index from in steps of step (+1 or -1), wrapping
// at either end and passing over skipped entries. When every other
// entry is skipped it returns from unchanged.
func (s *Session) advance(from, step int) int {
	n := len(s.entries)
	if n == 0 {
		return -1
	}
	idx := from
	for range s.entries {
		idx = ((idx+step)%n + n) % n
		if !s.entries[idx].Record.Skipped() {
			return idx
		}
	}
	return from
}
