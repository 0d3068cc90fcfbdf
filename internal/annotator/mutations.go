package annotator

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/starford/wunjo/internal/apperr"
	"github.com/starford/wunjo/internal/index"
	"github.com/starford/wunjo/internal/models"
	"github.com/starford/wunjo/internal/store"
)

// mutate looks up path, applies fn to its record under the lock,
// persists the sidecar, restores ordering, refreshes the index row and
// emits a record.updated event named op.
func (s *Service) mutate(path, op string, fn func(e Entry) error) error {
	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return apperr.ErrNoSession
	}
	e, err := s.sess.entryByPath(path)
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("mutation on unknown file", "op", op, "path", path)
		return err
	}
	if err := fn(e); err != nil {
		s.mu.Unlock()
		return err
	}
	s.sess.store.Put(path, e.Record)
	err = s.sess.store.Save()
	if err == nil {
		s.sess.reorder()
		if ierr := s.db.UpsertMedia(index.RowFor(e.File, e.Record)); ierr != nil {
			s.logger.Warn("index update failed", "path", path, "error", ierr)
		}
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publishRecord(op, path)
	return nil
}

func (s *Service) publishRecord(op, path string) {
	if s.broker != nil {
		s.broker.PublishRecordEvent(op, path)
	}
}

func imageOf(e Entry) (*models.ImageRecord, error) {
	img, ok := e.Record.(*models.ImageRecord)
	if !ok {
		return nil, fmt.Errorf("annotator: %q is not an image: %w", e.File.Path, apperr.ErrKindMismatch)
	}
	return img, nil
}

func videoOf(e Entry) (*models.VideoRecord, error) {
	vid, ok := e.Record.(*models.VideoRecord)
	if !ok {
		return nil, fmt.Errorf("annotator: %q is not a video: %w", e.File.Path, apperr.ErrKindMismatch)
	}
	return vid, nil
}

// ToggleSkip flips whole-file skip on an image.
func (s *Service) ToggleSkip(_ context.Context, path string) error {
	return s.mutate(path, "toggle_skip", func(e Entry) error {
		img, err := imageOf(e)
		if err != nil {
			return err
		}
		img.Skip = !img.Skip
		return nil
	})
}

// Rotate advances an image a quarter turn clockwise.
func (s *Service) Rotate(_ context.Context, path string) error {
	return s.mutate(path, "rotate", func(e Entry) error {
		img, err := imageOf(e)
		if err != nil {
			return err
		}
		img.Rotation = models.NextRotation(img.Rotation)
		return nil
	})
}

// CycleVolume steps video volume down one step, wrapping from muted
// back to full.
func (s *Service) CycleVolume(_ context.Context, path string) error {
	return s.mutate(path, "cycle_volume", func(e Entry) error {
		vid, err := videoOf(e)
		if err != nil {
			return err
		}
		vid.Volume = models.NextVolume(vid.Volume)
		return nil
	})
}

// SetVolume sets an explicit volume step.
func (s *Service) SetVolume(_ context.Context, path string, volume int) error {
	return s.mutate(path, "set_volume", func(e Entry) error {
		vid, err := videoOf(e)
		if err != nil {
			return err
		}
		if !models.ValidVolume(volume) {
			return fmt.Errorf("annotator: volume %d: %w", volume, apperr.ErrInvalid)
		}
		vid.Volume = volume
		return nil
	})
}

// SetText replaces the free-form text of any record.
func (s *Service) SetText(_ context.Context, path, text string) error {
	return s.mutate(path, "set_text", func(e Entry) error {
		e.Record.Common().Text = text
		return nil
	})
}

// SetManualDatetime overrides the effective instant with a value in
// the sidecar layout. An empty value clears the override so the
// cached derivation shows again.
func (s *Service) SetManualDatetime(_ context.Context, path, value string) error {
	var manual time.Time
	if value != "" {
		t, err := time.Parse(store.DatetimeLayout, value)
		if err != nil {
			return fmt.Errorf("annotator: datetime %q: %w", value, apperr.ErrInvalid)
		}
		manual = t
	}
	return s.mutate(path, "set_datetime", func(e Entry) error {
		stamp := &e.Record.Common().Stamp
		if manual.IsZero() {
			stamp.ClearManual()
		} else {
			stamp.SetManual(manual)
		}
		return nil
	})
}

// SetLocation sets the manually entered location text. Empty text
// clears it so any automated place name shows again.
func (s *Service) SetLocation(_ context.Context, path, manualText string) error {
	return s.mutate(path, "set_location", func(e Entry) error {
		c := e.Record.Common()
		if c.Location == nil && manualText == "" {
			return nil
		}
		if c.Location == nil {
			c.Location = &models.Location{}
		}
		c.Location.ManualText = manualText
		return nil
	})
}

// checkTimestamp validates ts against the probed duration. Unknown
// durations let any non-negative value through.
func (s *Service) checkTimestamp(ctx context.Context, path string, ts float64) error {
	if ts < 0 {
		return fmt.Errorf("annotator: timestamp %v: %w", ts, apperr.ErrInvalid)
	}
	_, d, err := s.Detail(ctx, path)
	if err != nil {
		return err
	}
	if d > 0 && ts >= d {
		return fmt.Errorf("annotator: timestamp %v is past the end at %vs: %w", ts, d, apperr.ErrInvalid)
	}
	return nil
}

// AddVideoAnnotation records a text marker at ts seconds. An
// annotation at an identical timestamp is replaced.
func (s *Service) AddVideoAnnotation(ctx context.Context, path string, ts float64, text string) error {
	if err := s.checkTimestamp(ctx, path, ts); err != nil {
		return err
	}
	return s.mutate(path, "add_annotation", func(e Entry) error {
		vid, err := videoOf(e)
		if err != nil {
			return err
		}
		vid.Annotations = insertAnnotation(vid.Annotations, models.VideoAnnotation{Timestamp: ts, Text: text})
		return nil
	})
}

// EditVideoAnnotation rewrites the text of the annotation nearest at
// or before the playhead.
func (s *Service) EditVideoAnnotation(_ context.Context, path string, playhead float64, text string) error {
	return s.mutate(path, "edit_annotation", func(e Entry) error {
		vid, err := videoOf(e)
		if err != nil {
			return err
		}
		i := annotationAt(vid.Annotations, playhead)
		if i < 0 {
			return fmt.Errorf("annotator: no annotation at or before %vs: %w", playhead, apperr.ErrNotFound)
		}
		vid.Annotations[i].Text = text
		return nil
	})
}

// RemoveVideoAnnotation deletes the annotation nearest at or before
// the playhead.
func (s *Service) RemoveVideoAnnotation(_ context.Context, path string, playhead float64) error {
	return s.mutate(path, "remove_annotation", func(e Entry) error {
		vid, err := videoOf(e)
		if err != nil {
			return err
		}
		i := annotationAt(vid.Annotations, playhead)
		if i < 0 {
			return fmt.Errorf("annotator: no annotation at or before %vs: %w", playhead, apperr.ErrNotFound)
		}
		vid.Annotations = slices.Delete(vid.Annotations, i, i+1)
		return nil
	})
}

// AddSkipSegment opens a skip range at ts seconds. Adding a segment
// that already exists is a no-op.
func (s *Service) AddSkipSegment(ctx context.Context, path string, ts float64) error {
	if err := s.checkTimestamp(ctx, path, ts); err != nil {
		return err
	}
	return s.mutate(path, "add_skip", func(e Entry) error {
		vid, err := videoOf(e)
		if err != nil {
			return err
		}
		for _, seg := range vid.Skips {
			if seg.Start == ts {
				return nil
			}
		}
		vid.Skips = append(vid.Skips, models.SkipSegment{Start: ts})
		sort.Slice(vid.Skips, func(i, j int) bool { return vid.Skips[i].Start < vid.Skips[j].Start })
		return nil
	})
}

// RemoveSkipSegment deletes the segment that starts exactly at ts.
func (s *Service) RemoveSkipSegment(_ context.Context, path string, ts float64) error {
	return s.mutate(path, "remove_skip", func(e Entry) error {
		vid, err := videoOf(e)
		if err != nil {
			return err
		}
		for i, seg := range vid.Skips {
			if seg.Start == ts {
				vid.Skips = slices.Delete(vid.Skips, i, i+1)
				return nil
			}
		}
		return fmt.Errorf("annotator: no skip segment at %vs: %w", ts, apperr.ErrNotFound)
	})
}

// SetAside moves the file into the set_aside folder beside it and
// drops it from the working list. Its record stays in the sidecar in
// case the file comes back.
func (s *Service) SetAside(_ context.Context, path string) error {
	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return apperr.ErrNoSession
	}
	if _, err := s.sess.entryByPath(path); err != nil {
		s.mu.Unlock()
		s.logger.Warn("mutation on unknown file", "op", "set_aside", "path", path)
		return err
	}
	moved, err := s.sess.root.SetAside(path)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.logger.Info("file set aside", "path", path, "moved_to", moved)
	err = s.rescanLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publishRecord("set_aside", path)
	return nil
}

// RefreshLocation reads GPS coordinates from the image and stores
// them, then resolves a place name in the background. The lookup never
// blocks the caller; whichever lookup finishes last wins.
func (s *Service) RefreshLocation(_ context.Context, path string) error {
	s.mu.RLock()
	if s.sess == nil {
		s.mu.RUnlock()
		return apperr.ErrNoSession
	}
	sess := s.sess
	e, err := sess.entryByPath(path)
	if err != nil {
		s.mu.RUnlock()
		return err
	}
	s.mu.RUnlock()

	if e.File.Kind != models.KindImage {
		return fmt.Errorf("annotator: %q is not an image: %w", path, apperr.ErrKindMismatch)
	}
	abs, err := sess.root.Abs(path)
	if err != nil {
		return err
	}
	lat, long, err := s.gps.Coordinates(abs)
	if err != nil {
		return fmt.Errorf("annotator: no coordinates in %q: %w", path, apperr.ErrNotFound)
	}

	err = s.mutate(path, "refresh_location", func(e Entry) error {
		c := e.Record.Common()
		if c.Location == nil {
			c.Location = &models.Location{}
		}
		c.Location.Coords = &models.LatLong{Latitude: lat, Longitude: long}
		return nil
	})
	if err != nil {
		return err
	}
	if s.geo != nil {
		go s.resolvePlace(sess, path, lat, long)
	}
	return nil
}

// resolvePlace reverse geocodes in the background and stores the
// resulting name. Failures are logged and dropped.
func (s *Service) resolvePlace(sess *Session, path string, lat, long float64) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	name, err := s.geo.ReverseLookup(ctx, lat, long)
	if err != nil {
		s.logger.Debug("reverse geocode failed", "path", path, "error", err)
		return
	}

	s.mu.Lock()
	if s.sess != sess {
		s.mu.Unlock()
		return
	}
	e, err := sess.entryByPath(path)
	if err != nil {
		s.mu.Unlock()
		return
	}
	c := e.Record.Common()
	if c.Location == nil {
		c.Location = &models.Location{}
	}
	c.Location.AutomatedText = name
	sess.store.Put(path, e.Record)
	saveErr := sess.store.Save()
	if saveErr == nil {
		if ierr := s.db.UpsertMedia(index.RowFor(e.File, e.Record)); ierr != nil {
			s.logger.Warn("index update failed", "path", path, "error", ierr)
		}
	}
	s.mu.Unlock()
	if saveErr != nil {
		s.logger.Warn("save after geocode failed", "path", path, "error", saveErr)
		return
	}
	s.publishRecord("refresh_location", path)
}

// annotationAt returns the index of the annotation nearest at or
// before the playhead, or -1. The list is kept sorted by timestamp.
func annotationAt(list []models.VideoAnnotation, playhead float64) int {
	best := -1
	for i, a := range list {
		if a.Timestamp <= playhead {
			best = i
		}
	}
	return best
}

// insertAnnotation keeps the list sorted by timestamp, replacing any
// annotation at an identical timestamp.
func insertAnnotation(list []models.VideoAnnotation, a models.VideoAnnotation) []models.VideoAnnotation {
	for i, cur := range list {
		if cur.Timestamp == a.Timestamp {
			list[i] = a
			return list
		}
	}
	list = append(list, a)
	sort.Slice(list, func(i, j int) bool { return list[i].Timestamp < list[j].Timestamp })
	return list
}
