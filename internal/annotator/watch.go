package annotator

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/wunjo/internal/library"
	"github.com/starford/wunjo/internal/models"
)

// rescanDelay batches bursts of filesystem events, such as a folder
// of files being copied in, into a single reconcile.
const rescanDelay = 200 * time.Millisecond

// startWatcher launches the filesystem watcher for sess and returns
// its cancel func plus a channel closed when the goroutine exits. It
// does not return until the directory watches are registered, so
// changes made right after a session opens are not lost.
func (s *Service) startWatcher(sess *Session) (context.CancelFunc, chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	ready := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.watch(ctx, sess, ready); err != nil {
			s.logger.Warn("watcher exited", "error", err)
		}
	}()
	<-ready
	return cancel, done
}

func (s *Service) watch(ctx context.Context, sess *Session, ready chan<- struct{}) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		close(ready)
		return err
	}
	defer w.Close()
	err = addDirsRecursive(w, sess.root.Path())
	close(ready)
	if err != nil {
		return err
	}
	s.logger.Info("watcher started", "root", sess.root.Path())

	var rescanTimer *time.Timer
	var rescanCh <-chan time.Time
	schedule := func() {
		if rescanTimer == nil {
			rescanTimer = time.NewTimer(rescanDelay)
			rescanCh = rescanTimer.C
			return
		}
		rescanTimer.Reset(rescanDelay)
	}

	for {
		select {
		case <-ctx.Done():
			if rescanTimer != nil {
				rescanTimer.Stop()
			}
			s.logger.Info("watcher stopped", "root", sess.root.Path())
			return nil

		case <-rescanCh:
			if err := s.rescanFor(sess); err != nil {
				s.logger.Warn("rescan after change failed", "error", err)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if watchableDir(filepath.Base(ev.Name)) {
						if err := addDirsRecursive(w, ev.Name); err != nil {
							s.logger.Warn("watch new directory failed", "path", ev.Name, "error", err)
						}
						schedule()
					}
					continue
				}
			}
			if relevantEvent(ev.Name) {
				schedule()
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", werr)
		}
	}
}

// relevantEvent reports whether a change to the named file should
// trigger a rescan. The sidecar and hidden files churn during normal
// operation and must not.
func relevantEvent(absPath string) bool {
	base := filepath.Base(absPath)
	if strings.HasPrefix(base, ".") || base == library.SidecarName {
		return false
	}
	_, ok := models.KindForPath(base)
	return ok
}

func watchableDir(name string) bool {
	return name != library.SetAsideDir && !strings.HasPrefix(name, ".")
}

// addDirsRecursive registers root and every nested directory except
// set_aside and hidden ones.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && !watchableDir(d.Name()) {
			return fs.SkipDir
		}
		return w.Add(path)
	})
}
