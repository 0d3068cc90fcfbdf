package timestamp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/wunjo/internal/library"
	"github.com/starford/wunjo/internal/models"
)

type fakeExif struct {
	t   time.Time
	err error
}

func (f fakeExif) CaptureTime(string) (time.Time, error) { return f.t, f.err }

func testRoot(t *testing.T, names ...string) *library.Root {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	root, err := library.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestResolveManualWins(t *testing.T) {
	root := testRoot(t, "a.jpg")
	exifTime := time.Date(2018, 3, 1, 9, 0, 0, 0, time.UTC)
	r := New(fakeExif{t: exifTime}, nil)

	var common models.RecordCommon
	manual := time.Date(2022, 12, 24, 18, 0, 0, 0, time.UTC)
	common.Stamp.SetManual(manual)

	changed := r.Resolve(root, models.MediaFile{Path: "a.jpg", Kind: models.KindImage}, &common)
	if changed {
		t.Fatal("manual stamp should not be recomputed")
	}
	if got, _ := common.Stamp.Effective(); !got.Equal(manual) {
		t.Errorf("effective = %v, want manual %v", got, manual)
	}
}

func TestResolveCachedTrusted(t *testing.T) {
	root := testRoot(t, "a.jpg")
	r := New(fakeExif{t: time.Now()}, nil)

	var common models.RecordCommon
	cached := time.Date(2015, 7, 4, 12, 0, 0, 0, time.UTC)
	common.Stamp.SetCached(cached)

	if r.Resolve(root, models.MediaFile{Path: "a.jpg", Kind: models.KindImage}, &common) {
		t.Fatal("cached stamp should not be recomputed")
	}
	if got := common.Stamp.Cached(); !got.Equal(cached) {
		t.Errorf("cached = %v, want %v", got, cached)
	}
}

func TestResolveImageUsesExif(t *testing.T) {
	root := testRoot(t, "a.jpg")
	exifTime := time.Date(2018, 3, 1, 9, 0, 0, 0, time.UTC)
	r := New(fakeExif{t: exifTime}, nil)

	var common models.RecordCommon
	if !r.Resolve(root, models.MediaFile{Path: "a.jpg", Kind: models.KindImage}, &common) {
		t.Fatal("expected stamp change")
	}
	if common.Stamp.State() != models.StampCached {
		t.Fatalf("state = %v, want cached", common.Stamp.State())
	}
	if got := common.Stamp.Cached(); !got.Equal(exifTime) {
		t.Errorf("cached = %v, want exif %v", got, exifTime)
	}
}

func TestResolveImageFallsBackToFileTime(t *testing.T) {
	root := testRoot(t, "a.jpg")
	past := time.Date(2020, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := os.Chtimes(filepath.Join(root.Path(), "a.jpg"), past, past); err != nil {
		t.Fatal(err)
	}
	r := New(fakeExif{err: errors.New("no exif")}, nil)

	var common models.RecordCommon
	if !r.Resolve(root, models.MediaFile{Path: "a.jpg", Kind: models.KindImage}, &common) {
		t.Fatal("expected stamp change")
	}
	got := common.Stamp.Cached()
	if got.After(past) {
		t.Errorf("cached = %v, want at or before mtime %v", got, past)
	}
}

func TestResolveVideoSkipsExif(t *testing.T) {
	root := testRoot(t, "clip.mp4")
	sentinel := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	r := New(fakeExif{t: sentinel}, nil)

	var common models.RecordCommon
	if !r.Resolve(root, models.MediaFile{Path: "clip.mp4", Kind: models.KindVideo}, &common) {
		t.Fatal("expected stamp change")
	}
	if got := common.Stamp.Cached(); got.Equal(sentinel) {
		t.Error("video stamp came from the EXIF reader")
	}
}

func TestResolveMissingFileStaysUnresolved(t *testing.T) {
	root := testRoot(t)
	r := New(fakeExif{err: errors.New("no exif")}, nil)

	var common models.RecordCommon
	if r.Resolve(root, models.MediaFile{Path: "ghost.mp4", Kind: models.KindVideo}, &common) {
		t.Fatal("missing file should not resolve")
	}
	if common.Stamp.State() != models.StampUnresolved {
		t.Errorf("state = %v, want unresolved", common.Stamp.State())
	}
}
