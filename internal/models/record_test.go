package models

import (
	"testing"
	"time"
)

func TestKindForPath(t *testing.T) {
	cases := []struct {
		path string
		kind MediaKind
		ok   bool
	}{
		{"holiday/beach.jpg", KindImage, true},
		{"beach.JPEG", KindImage, true},
		{"scan.png", KindImage, true},
		{"old.BMP", KindImage, true},
		{"anim.gif", KindImage, true},
		{"clip.mp4", KindVideo, true},
		{"clip.MOV", KindVideo, true},
		{"clip.avi", KindVideo, true},
		{"clip.mkv", KindVideo, true},
		{"annotations.json", "", false},
		{"notes.txt", "", false},
		{"noext", "", false},
	}
	for _, c := range cases {
		kind, ok := KindForPath(c.path)
		if ok != c.ok || kind != c.kind {
			t.Errorf("KindForPath(%q) = %q, %v, want %q, %v", c.path, kind, ok, c.kind, c.ok)
		}
	}
}

func TestNextRotation(t *testing.T) {
	got := 0
	for _, want := range []int{90, 180, 270, 0} {
		got = NextRotation(got)
		if got != want {
			t.Fatalf("NextRotation = %d, want %d", got, want)
		}
	}
}

func TestNextVolume(t *testing.T) {
	v := FullVolume
	for _, want := range []int{80, 60, 40, 20, 0, 100} {
		v = NextVolume(v)
		if v != want {
			t.Fatalf("NextVolume = %d, want %d", v, want)
		}
	}
	if got := NextVolume(55); got != FullVolume {
		t.Errorf("NextVolume(55) = %d, want %d", got, FullVolume)
	}
}

func TestValidVolume(t *testing.T) {
	if !ValidVolume(60) {
		t.Error("60 should be a valid step")
	}
	if ValidVolume(50) {
		t.Error("50 should not be a valid step")
	}
}

func TestLocationDisplay(t *testing.T) {
	var nilLoc *Location
	if got := nilLoc.Display(); got != "" {
		t.Errorf("nil location display = %q", got)
	}
	loc := &Location{AutomatedText: "Lisbon, Portugal"}
	if got := loc.Display(); got != "Lisbon, Portugal" {
		t.Errorf("display = %q", got)
	}
	loc.ManualText = "Grandma's street"
	if got := loc.Display(); got != "Grandma's street" {
		t.Errorf("manual text should win, got %q", got)
	}
}

func TestNewRecordDefaults(t *testing.T) {
	img := NewRecord(KindImage)
	if img.Kind() != KindImage || img.Skipped() {
		t.Errorf("fresh image record: kind %q, skipped %v", img.Kind(), img.Skipped())
	}
	if r := img.(*ImageRecord); r.Rotation != 0 {
		t.Errorf("fresh rotation = %d", r.Rotation)
	}
	vid := NewRecord(KindVideo).(*VideoRecord)
	if vid.Volume != FullVolume {
		t.Errorf("fresh volume = %d, want %d", vid.Volume, FullVolume)
	}
	if vid.Skipped() {
		t.Error("videos are never skipped as a whole")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := &VideoRecord{
		RecordCommon: RecordCommon{
			Text:     "match",
			Location: &Location{Coords: &LatLong{Latitude: 1, Longitude: 2}, ManualText: "home"},
		},
		Volume:      80,
		Annotations: []VideoAnnotation{{Timestamp: 3, Text: "kickoff"}},
		Skips:       []SkipSegment{{Start: 9}},
	}
	cp := orig.Clone().(*VideoRecord)

	cp.Common().Text = "changed"
	cp.Common().Location.ManualText = "away"
	cp.Common().Location.Coords.Latitude = 99
	cp.Annotations[0].Text = "changed"
	cp.Skips[0].Start = 0

	if orig.Text != "match" || orig.Location.ManualText != "home" {
		t.Errorf("clone mutation leaked into original common fields: %+v", orig.RecordCommon)
	}
	if orig.Location.Coords.Latitude != 1 {
		t.Errorf("clone mutation leaked into coords: %+v", orig.Location.Coords)
	}
	if orig.Annotations[0].Text != "kickoff" || orig.Skips[0].Start != 9 {
		t.Error("clone mutation leaked into annotation slices")
	}

	img := &ImageRecord{RecordCommon: RecordCommon{Text: "pic"}, Rotation: 90}
	icp := img.Clone().(*ImageRecord)
	icp.Rotation = 180
	if img.Rotation != 90 {
		t.Errorf("image rotation = %d after clone mutation, want 90", img.Rotation)
	}
}

func TestResolveSkips(t *testing.T) {
	rec := &VideoRecord{
		Annotations: []VideoAnnotation{{Timestamp: 10, Text: "goal"}, {Timestamp: 40, Text: "crowd"}},
		Skips:       []SkipSegment{{Start: 5}, {Start: 25}, {Start: 50}},
	}
	got := rec.ResolveSkips(60)
	want := []SkipRange{{5, 10}, {25, 40}, {50, 60}}
	if len(got) != len(want) {
		t.Fatalf("got %d ranges, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("range %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestResolveSkipsBoundedByNextSkip(t *testing.T) {
	rec := &VideoRecord{
		Skips: []SkipSegment{{Start: 5}, {Start: 8}},
	}
	got := rec.ResolveSkips(20)
	want := []SkipRange{{5, 8}, {8, 20}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("range %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestResolveSkipsUnknownDuration(t *testing.T) {
	rec := &VideoRecord{Skips: []SkipSegment{{Start: 5}}}
	got := rec.ResolveSkips(0)
	if len(got) != 1 || got[0].Start != 5 || got[0].End != 5 {
		t.Errorf("got %+v, want collapsed range at 5", got)
	}
}

func TestResolveSkipsEmpty(t *testing.T) {
	rec := &VideoRecord{}
	if got := rec.ResolveSkips(60); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestStampStates(t *testing.T) {
	var s Stamp
	if s.State() != StampUnresolved {
		t.Fatalf("zero stamp state = %v", s.State())
	}
	if _, ok := s.Effective(); ok {
		t.Fatal("unresolved stamp should have no effective instant")
	}

	auto := time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC)
	s.SetCached(auto)
	if s.State() != StampCached {
		t.Fatalf("state = %v, want cached", s.State())
	}
	if got, _ := s.Effective(); !got.Equal(auto) {
		t.Errorf("effective = %v, want %v", got, auto)
	}

	manual := time.Date(2021, 1, 2, 8, 30, 0, 0, time.UTC)
	s.SetManual(manual)
	if s.State() != StampManual {
		t.Fatalf("state = %v, want manual", s.State())
	}
	if got, _ := s.Effective(); !got.Equal(manual) {
		t.Errorf("effective = %v, want manual %v", got, manual)
	}

	// Clearing the override falls back to the cached instant.
	s.ClearManual()
	if s.State() != StampCached {
		t.Fatalf("state after clear = %v, want cached", s.State())
	}
	if got, _ := s.Effective(); !got.Equal(auto) {
		t.Errorf("effective after clear = %v, want %v", got, auto)
	}
}

func TestSettingsNormalize(t *testing.T) {
	got := Settings{}.Normalize()
	if got != DefaultSettings() {
		t.Errorf("normalized zero settings = %+v", got)
	}
	kept := Settings{ImageTime: 8, FontSize: 20}.Normalize()
	if kept.ImageTime != 8 || kept.FontSize != 20 {
		t.Errorf("valid settings changed: %+v", kept)
	}
}
