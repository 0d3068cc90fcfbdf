package models

import (
	"slices"
	"sort"
)

// FullVolume is the default playback volume for videos.
const FullVolume = 100

// VolumeSteps is the cycle order of the volume control.
var VolumeSteps = []int{100, 80, 60, 40, 20, 0}

// NextRotation returns the next quarter-turn clockwise: 0 -> 90 -> 180 -> 270 -> 0.
func NextRotation(deg int) int {
	return (deg + 90) % 360
}

// NextVolume returns the step after v in the volume cycle. Values
// outside the cycle reset to full volume.
func NextVolume(v int) int {
	for i, s := range VolumeSteps {
		if s == v {
			return VolumeSteps[(i+1)%len(VolumeSteps)]
		}
	}
	return FullVolume
}

// ValidVolume reports whether v is one of the discrete volume steps.
func ValidVolume(v int) bool {
	for _, s := range VolumeSteps {
		if s == v {
			return true
		}
	}
	return false
}

// LatLong is a WGS84 coordinate pair.
type LatLong struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location attaches a place to a record. The automated text comes from
// reverse geocoding; the manual text is user-entered and wins on display.
type Location struct {
	Coords        *LatLong `json:"coords,omitempty"`
	AutomatedText string   `json:"automated_text,omitempty"`
	ManualText    string   `json:"manual_text,omitempty"`
}

// Display returns the text the viewer should show for the location.
func (l *Location) Display() string {
	if l == nil {
		return ""
	}
	if l.ManualText != "" {
		return l.ManualText
	}
	return l.AutomatedText
}

// VideoAnnotation is a timestamped text marker on a video timeline.
type VideoAnnotation struct {
	Timestamp float64 `json:"timestamp"` // seconds from video start
	Text      string  `json:"text"`
}

// SkipSegment marks where an auto-skipped span of a video begins. The
// end is never stored; ResolveSkips derives it from the timeline.
type SkipSegment struct {
	Start float64 `json:"start_timestamp"`
}

// SkipRange is a resolved span the player should jump over.
type SkipRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// RecordCommon holds the annotation fields shared by both media kinds.
type RecordCommon struct {
	Text     string
	Location *Location
	Stamp    Stamp
}

// clone deep-copies the shared fields so the copy can be read without
// holding the lock that guards the original.
func (c RecordCommon) clone() RecordCommon {
	out := c
	if c.Location != nil {
		loc := *c.Location
		if loc.Coords != nil {
			xy := *loc.Coords
			loc.Coords = &xy
		}
		out.Location = &loc
	}
	return out
}

// Record is the annotation state attached to one media file. The two
// implementations are *ImageRecord and *VideoRecord.
type Record interface {
	Kind() MediaKind
	Common() *RecordCommon
	// Skipped reports whether navigation passes over the file. Only
	// images can be skipped as a whole.
	Skipped() bool
	// Clone returns an independent copy of the record.
	Clone() Record
}

// ImageRecord carries the image-only annotation fields.
type ImageRecord struct {
	RecordCommon
	Skip     bool
	Rotation int // clockwise degrees: 0, 90, 180 or 270
}

func (r *ImageRecord) Kind() MediaKind       { return KindImage }
func (r *ImageRecord) Common() *RecordCommon { return &r.RecordCommon }
func (r *ImageRecord) Skipped() bool         { return r.Skip }

func (r *ImageRecord) Clone() Record {
	c := *r
	c.RecordCommon = r.RecordCommon.clone()
	return &c
}

// VideoRecord carries the video-only annotation fields.
type VideoRecord struct {
	RecordCommon
	Volume      int               // playback volume percent, FullVolume by default
	Annotations []VideoAnnotation // kept sorted by Timestamp
	Skips       []SkipSegment     // kept sorted by Start
}

func (r *VideoRecord) Kind() MediaKind       { return KindVideo }
func (r *VideoRecord) Common() *RecordCommon { return &r.RecordCommon }
func (r *VideoRecord) Skipped() bool         { return false }

func (r *VideoRecord) Clone() Record {
	c := *r
	c.RecordCommon = r.RecordCommon.clone()
	c.Annotations = slices.Clone(r.Annotations)
	c.Skips = slices.Clone(r.Skips)
	return &c
}

var (
	_ Record = (*ImageRecord)(nil)
	_ Record = (*VideoRecord)(nil)
)

// NewRecord returns a freshly defaulted record of the given kind.
func NewRecord(kind MediaKind) Record {
	if kind == KindVideo {
		return &VideoRecord{Volume: FullVolume}
	}
	return &ImageRecord{}
}

// ResolveSkips computes the effective skip ranges for a video of the
// given duration in seconds. A segment ends at the next annotation or
// skip timestamp after its start, or at the end of the video.
func (r *VideoRecord) ResolveSkips(duration float64) []SkipRange {
	if len(r.Skips) == 0 {
		return nil
	}
	bounds := make([]float64, 0, len(r.Annotations)+len(r.Skips))
	for _, a := range r.Annotations {
		bounds = append(bounds, a.Timestamp)
	}
	for _, s := range r.Skips {
		bounds = append(bounds, s.Start)
	}
	sort.Float64s(bounds)

	ranges := make([]SkipRange, 0, len(r.Skips))
	for _, s := range r.Skips {
		end := duration
		for _, b := range bounds {
			if b > s.Start {
				end = b
				break
			}
		}
		if end < s.Start {
			// Duration unknown or shorter than the recorded start.
			end = s.Start
		}
		ranges = append(ranges, SkipRange{Start: s.Start, End: end})
	}
	return ranges
}
