package index

import (
	"os"
	"testing"
	"time"

	"github.com/starford/wunjo/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "wunjo-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM media`).Scan(&count); err != nil {
		t.Fatalf("media table missing: %v", err)
	}
}

func TestUpsertAndSearch(t *testing.T) {
	db := testDB(t)
	err := db.UpsertMedia(MediaRow{
		Path:    "trip/beach.jpg",
		Kind:    "image",
		Caption: "sunset over the water",
		Place:   "Nazare",
	})
	if err != nil {
		t.Fatalf("UpsertMedia: %v", err)
	}

	hits, err := db.Search("sunset", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Path != "trip/beach.jpg" {
		t.Fatalf("hits = %+v, want 1 hit for trip/beach.jpg", hits)
	}
	if hits[0].Kind != "image" {
		t.Errorf("kind = %q", hits[0].Kind)
	}
}

func TestSearchMatchesNotesAndPlace(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertMedia(MediaRow{Path: "v.mp4", Kind: "video", Notes: "first steps in the garden"})
	_ = db.UpsertMedia(MediaRow{Path: "p.jpg", Kind: "image", Place: "Porto"})

	if hits, _ := db.Search("garden", 10); len(hits) != 1 || hits[0].Path != "v.mp4" {
		t.Errorf("garden hits = %+v", hits)
	}
	if hits, _ := db.Search("Porto", 10); len(hits) != 1 || hits[0].Path != "p.jpg" {
		t.Errorf("Porto hits = %+v", hits)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertMedia(MediaRow{Path: "a.jpg", Kind: "image", Caption: "before"})
	_ = db.UpsertMedia(MediaRow{Path: "a.jpg", Kind: "image", Caption: "after"})

	if hits, _ := db.Search("before", 10); len(hits) != 0 {
		t.Errorf("stale caption still matches: %+v", hits)
	}
	if hits, _ := db.Search("after", 10); len(hits) != 1 {
		t.Errorf("new caption missing: %+v", hits)
	}
}

func TestDeleteMedia(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertMedia(MediaRow{Path: "a.jpg", Caption: "ephemeral"})
	if err := db.DeleteMedia("a.jpg"); err != nil {
		t.Fatalf("DeleteMedia: %v", err)
	}
	if hits, _ := db.Search("ephemeral", 10); len(hits) != 0 {
		t.Errorf("deleted row still matches: %+v", hits)
	}
}

func TestReplaceAll(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertMedia(MediaRow{Path: "old.jpg", Caption: "stale entry"})

	err := db.ReplaceAll([]MediaRow{
		{Path: "new1.jpg", Kind: "image", Caption: "fresh one"},
		{Path: "new2.mp4", Kind: "video", Notes: "fresh two"},
	})
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if hits, _ := db.Search("stale", 10); len(hits) != 0 {
		t.Errorf("old row survived: %+v", hits)
	}
	if hits, _ := db.Search("fresh", 10); len(hits) != 2 {
		t.Errorf("hits = %+v, want both fresh rows", hits)
	}
}

func TestRowFor(t *testing.T) {
	vid := &models.VideoRecord{
		Volume: models.FullVolume,
		Annotations: []models.VideoAnnotation{
			{Timestamp: 1, Text: "hello"},
			{Timestamp: 2, Text: "world"},
		},
	}
	vid.Location = &models.Location{AutomatedText: "Braga"}
	taken := time.Date(2021, 4, 1, 9, 0, 0, 0, time.UTC)
	vid.Stamp.SetCached(taken)

	row := RowFor(models.MediaFile{Path: "v.mp4", Kind: models.KindVideo}, vid)
	if row.Notes != "hello world" {
		t.Errorf("notes = %q", row.Notes)
	}
	if row.Place != "Braga" {
		t.Errorf("place = %q", row.Place)
	}
	if !row.TakenAt.Equal(taken) {
		t.Errorf("taken_at = %v", row.TakenAt)
	}

	img := models.NewRecord(models.KindImage)
	row = RowFor(models.MediaFile{Path: "i.jpg", Kind: models.KindImage}, img)
	if row.Notes != "" || !row.TakenAt.IsZero() {
		t.Errorf("fresh image row = %+v", row)
	}
}
