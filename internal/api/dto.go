package api

import (
	"github.com/starford/wunjo/internal/annotator"
	"github.com/starford/wunjo/internal/index"
	"github.com/starford/wunjo/internal/models"
	"github.com/starford/wunjo/internal/store"
)

// OpenSessionRequest is the request body for opening a session.
type OpenSessionRequest struct {
	Root string `json:"root" example:"/home/me/Pictures/2024" validate:"required"`
}

// SubfolderRequest records an include or exclude decision for a
// pending subfolder.
type SubfolderRequest struct {
	Path    string `json:"path" example:"trip/day1" validate:"required"`
	Include *bool  `json:"include" validate:"required"`
}

// TextRequest carries free-form annotation text. Empty text clears it.
type TextRequest struct {
	Text string `json:"text" example:"sunset at the pier"`
}

// DatetimeRequest overrides the capture instant. An empty value clears
// the override.
type DatetimeRequest struct {
	Datetime string `json:"datetime" example:"2021-06-05 10:30:00"`
}

// VolumeRequest sets an explicit volume step; with no body the volume
// cycles instead.
type VolumeRequest struct {
	Volume *int `json:"volume" example:"60"`
}

// AnnotationAddRequest places a text marker on a video timeline.
type AnnotationAddRequest struct {
	Timestamp *float64 `json:"timestamp" example:"12.5" validate:"required"`
	Text      string   `json:"text" example:"the goal"`
}

// AnnotationEditRequest rewrites the marker nearest before the playhead.
type AnnotationEditRequest struct {
	Playhead *float64 `json:"playhead" example:"14.0" validate:"required"`
	Text     string   `json:"text" example:"the equalizer"`
}

// SkipAddRequest opens a skip range on a video timeline.
type SkipAddRequest struct {
	Timestamp *float64 `json:"timestamp" example:"30.0" validate:"required"`
}

// SessionInfo is the session snapshot (aliased from the domain layer).
type SessionInfo = annotator.SessionInfo

// SearchResult is a single search hit (aliased from the index layer).
type SearchResult = index.SearchResult

// LocationDTO is the location block of a media entry.
type LocationDTO struct {
	Latitude  *float64 `json:"latitude,omitempty" example:"38.7223"`
	Longitude *float64 `json:"longitude,omitempty" example:"-9.1393"`
	Automated string   `json:"automated_text,omitempty" example:"Lisbon, Portugal"`
	Manual    string   `json:"manual_text,omitempty" example:"home"`
	Display   string   `json:"display" example:"Lisbon, Portugal"`
}

// MediaEntry is one row of the working list as the viewer sees it.
type MediaEntry struct {
	Path           string                   `json:"path" example:"trip/beach.jpg" validate:"required"`
	Kind           string                   `json:"kind" example:"image" validate:"required"`
	Text           string                   `json:"text,omitempty" example:"low tide"`
	Skipped        bool                     `json:"skipped"`
	Rotation       int                      `json:"rotation,omitempty" example:"90"`
	Volume         *int                     `json:"volume,omitempty" example:"80"`
	Annotations    []models.VideoAnnotation `json:"annotations,omitempty"`
	SkipSegments   []models.SkipSegment     `json:"skip_segments,omitempty"`
	Location       *LocationDTO             `json:"location,omitempty"`
	Datetime       string                   `json:"datetime,omitempty" example:"2021-06-05 10:30:00"`
	DatetimeSource string                   `json:"datetime_source" example:"cached" validate:"required"`
}

// MediaDetail extends MediaEntry with what only a single-file request
// needs: the probed duration and the resolved skip ranges.
type MediaDetail struct {
	MediaEntry
	Duration      float64            `json:"duration,omitempty" example:"93.4"`
	ResolvedSkips []models.SkipRange `json:"resolved_skips,omitempty"`
	FileURL       string             `json:"file_url" example:"/files/trip/beach.jpg" validate:"required"`
}

// MediaListResponse wraps the working list.
type MediaListResponse struct {
	Media []MediaEntry `json:"media" validate:"required"`
	Total int          `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

func toEntry(e annotator.Entry) MediaEntry {
	c := e.Record.Common()
	out := MediaEntry{
		Path:           e.File.Path,
		Kind:           string(e.File.Kind),
		Text:           c.Text,
		Skipped:        e.Record.Skipped(),
		DatetimeSource: c.Stamp.State().String(),
	}
	if t, ok := c.Stamp.Effective(); ok {
		out.Datetime = t.Format(store.DatetimeLayout)
	}
	if c.Location != nil {
		loc := &LocationDTO{
			Automated: c.Location.AutomatedText,
			Manual:    c.Location.ManualText,
			Display:   c.Location.Display(),
		}
		if c.Location.Coords != nil {
			loc.Latitude = &c.Location.Coords.Latitude
			loc.Longitude = &c.Location.Coords.Longitude
		}
		out.Location = loc
	}
	switch rec := e.Record.(type) {
	case *models.ImageRecord:
		out.Rotation = rec.Rotation
	case *models.VideoRecord:
		v := rec.Volume
		out.Volume = &v
		out.Annotations = rec.Annotations
		out.SkipSegments = rec.Skips
	}
	return out
}

func toDetail(e annotator.Entry, duration float64) MediaDetail {
	out := MediaDetail{
		MediaEntry: toEntry(e),
		Duration:   duration,
		FileURL:    "/files/" + e.File.Path,
	}
	if rec, ok := e.Record.(*models.VideoRecord); ok {
		out.ResolvedSkips = rec.ResolveSkips(duration)
	}
	return out
}
