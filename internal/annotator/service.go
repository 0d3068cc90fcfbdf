package annotator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/wunjo/internal/apperr"
	"github.com/starford/wunjo/internal/index"
	"github.com/starford/wunjo/internal/library"
	"github.com/starford/wunjo/internal/mediainfo"
	"github.com/starford/wunjo/internal/models"
	"github.com/starford/wunjo/internal/sse"
	"github.com/starford/wunjo/internal/store"
	"github.com/starford/wunjo/internal/timestamp"
)

// GPSReader extracts coordinates embedded in an image file.
type GPSReader interface {
	Coordinates(path string) (lat, long float64, err error)
}

// Geocoder resolves coordinates to a human-readable place name.
type Geocoder interface {
	ReverseLookup(ctx context.Context, lat, long float64) (string, error)
}

// Service owns the single active session and coordinates mutations
// with persistence, the search index and the event stream.
type Service struct {
	mu   sync.RWMutex
	sess *Session

	resolver *timestamp.Resolver
	db       index.MediaIndex
	broker   *sse.Broker
	gps      GPSReader
	geo      Geocoder // nil when geocoding is disabled
	prober   *mediainfo.Prober
	logger   *slog.Logger

	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// NewService wires the session service. geo may be nil to disable
// reverse geocoding; everything else is required.
func NewService(resolver *timestamp.Resolver, db index.MediaIndex, broker *sse.Broker, gps GPSReader, geo Geocoder, prober *mediainfo.Prober, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver: resolver,
		db:       db,
		broker:   broker,
		gps:      gps,
		geo:      geo,
		prober:   prober,
		logger:   logger,
	}
}

// SessionInfo describes the open session.
type SessionInfo struct {
	ID       string          `json:"id"`
	Root     string          `json:"root"`
	OpenedAt time.Time       `json:"opened_at"`
	Files    int             `json:"files"`
	Images   int             `json:"images"`
	Videos   int             `json:"videos"`
	Retained int             `json:"retained_records"`
	Pending  []string        `json:"pending_subfolders"`
	Settings models.Settings `json:"settings"`
}

// OpenSession opens the library at rootPath, replacing any session
// that is already open.
func (s *Service) OpenSession(ctx context.Context, rootPath string) (*SessionInfo, error) {
	root, err := library.New(rootPath)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(root, s.logger)
	if err != nil {
		return nil, err
	}
	sess := newSession(root, st)
	if err := sess.reconcile(s.resolver); err != nil {
		return nil, err
	}

	s.mu.Lock()
	oldCancel, oldDone := s.watchCancel, s.watchDone
	s.sess = sess
	s.syncIndexLocked()
	s.watchCancel, s.watchDone = s.startWatcher(sess)
	info := s.infoLocked()
	s.mu.Unlock()

	if oldCancel != nil {
		oldCancel()
		<-oldDone
	}
	s.logger.Info("session opened", "root", root.Path(), "files", info.Files)
	s.publish(sse.Event{Type: "session.opened", Data: map[string]string{"id": sess.ID, "root": root.Path()}})
	return info, nil
}

// CloseSession closes the open session and clears the search index.
func (s *Service) CloseSession(_ context.Context) error {
	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return apperr.ErrNoSession
	}
	id := s.sess.ID
	cancel, done := s.watchCancel, s.watchDone
	s.sess = nil
	s.watchCancel, s.watchDone = nil, nil
	if err := s.db.ReplaceAll(nil); err != nil {
		s.logger.Warn("index clear failed", "error", err)
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.logger.Info("session closed", "id", id)
	s.publish(sse.Event{Type: "session.closed", Data: map[string]string{"id": id}})
	return nil
}

// Close releases the service on shutdown. A missing session is fine.
func (s *Service) Close() {
	if err := s.CloseSession(context.Background()); err != nil {
		return
	}
}

// Info returns a snapshot of the open session.
func (s *Service) Info(_ context.Context) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return nil, apperr.ErrNoSession
	}
	return s.infoLocked(), nil
}

func (s *Service) infoLocked() *SessionInfo {
	info := &SessionInfo{
		ID:       s.sess.ID,
		Root:     s.sess.root.Path(),
		OpenedAt: s.sess.OpenedAt,
		Files:    len(s.sess.entries),
		Pending:  append([]string{}, s.sess.pending...),
		Settings: s.sess.store.Settings(),
	}
	for _, e := range s.sess.entries {
		switch e.File.Kind {
		case models.KindImage:
			info.Images++
		case models.KindVideo:
			info.Videos++
		}
	}
	for _, p := range s.sess.store.Paths() {
		if _, ok := s.sess.positions[p]; !ok {
			info.Retained++
		}
	}
	return info
}

// Entries returns a snapshot of the ordered working list.
func (s *Service) Entries(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return nil, apperr.ErrNoSession
	}
	out := make([]Entry, 0, len(s.sess.entries))
	for _, e := range s.sess.entries {
		out = append(out, e.snapshot())
	}
	return out, nil
}

// Detail returns one entry plus, for videos, the probed duration in
// seconds. Duration is 0 when probing fails or does not apply.
func (s *Service) Detail(ctx context.Context, path string) (Entry, float64, error) {
	s.mu.RLock()
	if s.sess == nil {
		s.mu.RUnlock()
		return Entry{}, 0, apperr.ErrNoSession
	}
	sess := s.sess
	e, err := sess.entryByPath(path)
	if err != nil {
		s.mu.RUnlock()
		return Entry{}, 0, err
	}
	e = e.snapshot()
	d, cached := sess.durations[path]
	s.mu.RUnlock()

	if e.File.Kind != models.KindVideo {
		return e, 0, nil
	}
	if !cached {
		d = s.probeDuration(ctx, sess, path)
	}
	return e, d, nil
}

// AbsPath resolves a working-list path to its absolute location on
// disk. Paths outside the working list are refused.
func (s *Service) AbsPath(_ context.Context, path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return "", apperr.ErrNoSession
	}
	if _, ok := s.sess.positions[path]; !ok {
		return "", fmt.Errorf("annotator: %q: %w", path, apperr.ErrUnknownFile)
	}
	return s.sess.root.Abs(path)
}

// probeDuration runs ffprobe outside the lock and caches the result on
// the session. Failed probes cache as 0 so they are not retried.
func (s *Service) probeDuration(ctx context.Context, sess *Session, path string) float64 {
	abs, err := sess.root.Abs(path)
	if err != nil {
		return 0
	}
	d, err := s.prober.Duration(ctx, abs)
	if err != nil {
		s.logger.Debug("duration probe failed", "path", path, "error", err)
		d = 0
	}
	s.mu.Lock()
	if s.sess == sess {
		sess.durations[path] = d
	}
	s.mu.Unlock()
	return d
}

// Navigate returns the neighbouring entry in direction "next" or
// "prev", passing over skipped entries and wrapping at either end.
func (s *Service) Navigate(_ context.Context, from, dir string) (Entry, error) {
	var step int
	switch dir {
	case "next":
		step = 1
	case "prev":
		step = -1
	default:
		return Entry{}, fmt.Errorf("annotator: direction %q: %w", dir, apperr.ErrInvalid)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return Entry{}, apperr.ErrNoSession
	}
	idx, ok := s.sess.positions[from]
	if !ok {
		return Entry{}, fmt.Errorf("annotator: %q: %w", from, apperr.ErrUnknownFile)
	}
	return s.sess.entries[s.sess.advance(idx, step)].snapshot(), nil
}

// Rescan re-runs discovery and reconciles the working list.
func (s *Service) Rescan(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return apperr.ErrNoSession
	}
	return s.rescanLocked()
}

// rescanFor reconciles on behalf of the watcher. A stale session, one
// replaced or closed after the event fired, is ignored.
func (s *Service) rescanFor(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess != sess {
		return nil
	}
	return s.rescanLocked()
}

func (s *Service) rescanLocked() error {
	if err := s.sess.reconcile(s.resolver); err != nil {
		return err
	}
	s.syncIndexLocked()
	s.publish(sse.Event{Type: "library.reconciled", Data: map[string]int{"files": len(s.sess.entries)}})
	return nil
}

// DecideSubfolder records an include or exclude decision for a pending
// subfolder and reconciles. Undecided folders are the only valid rel
// values.
func (s *Service) DecideSubfolder(_ context.Context, rel string, include bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return apperr.ErrNoSession
	}
	if !slices.Contains(s.sess.pending, rel) {
		return fmt.Errorf("annotator: subfolder %q is not pending: %w", rel, apperr.ErrNotFound)
	}
	s.sess.decisions[rel] = include
	return s.rescanLocked()
}

// Search queries the index over captions, notes and place names.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return nil, apperr.ErrNoSession
	}
	return s.db.Search(query, limit)
}

// Settings returns the viewer settings stored in the sidecar.
func (s *Service) Settings(_ context.Context) (models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return models.Settings{}, apperr.ErrNoSession
	}
	return s.sess.store.Settings(), nil
}

// UpdateSettings stores new viewer settings and persists immediately.
func (s *Service) UpdateSettings(_ context.Context, v models.Settings) error {
	v = v.Normalize()
	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return apperr.ErrNoSession
	}
	s.sess.store.SetSettings(v)
	err := s.sess.store.Save()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publish(sse.Event{Type: "settings.updated", Data: v})
	return nil
}

// syncIndexLocked rebuilds the search index from the working list.
// Index failures degrade search but never block the session.
func (s *Service) syncIndexLocked() {
	rows := make([]index.MediaRow, 0, len(s.sess.entries))
	for _, e := range s.sess.entries {
		rows = append(rows, index.RowFor(e.File, e.Record))
	}
	if err := s.db.ReplaceAll(rows); err != nil {
		s.logger.Warn("index sync failed", "error", err)
	}
}

func (s *Service) publish(ev sse.Event) {
	if s.broker != nil {
		s.broker.Publish(ev)
	}
}
