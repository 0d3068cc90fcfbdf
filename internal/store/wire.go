package store

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/starford/wunjo/internal/models"
)

// DatetimeLayout is how instants are written into the sidecar.
const DatetimeLayout = "2006-01-02 15:04:05"

// settingsKey is the reserved top-level sidecar key holding viewer settings.
const settingsKey = "_settings"

type wireLocation struct {
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	AutomatedText string   `json:"automated_text,omitempty"`
	ManualText    string   `json:"manual_text,omitempty"`
}

type wireAnnotation struct {
	Timestamp float64 `json:"timestamp"`
	Text      string  `json:"text"`
}

type wireSkip struct {
	Start float64 `json:"start_timestamp"`
}

// wireRecord is the sidecar shape of one record. The skip key is
// polymorphic: a bool for images, a segment list for videos. Fields at
// their defaults are left out entirely, which keeps a fresh record an
// empty object.
type wireRecord struct {
	Text           string           `json:"text,omitempty"`
	Skip           json.RawMessage  `json:"skip,omitempty"`
	Rotation       int              `json:"rotation,omitempty"`
	Volume         *int             `json:"volume,omitempty"`
	Annotations    []wireAnnotation `json:"annotations,omitempty"`
	Location       *wireLocation    `json:"location,omitempty"`
	ManualDatetime string           `json:"manual_datetime,omitempty"`
	CachedDatetime string           `json:"cached_datetime,omitempty"`
}

type wireSettings struct {
	ImageTime *int `json:"image_time"`
	FontSize  *int `json:"font_size"`
}

// encodeRecord maps a record onto its sidecar shape.
func encodeRecord(rec models.Record) wireRecord {
	var w wireRecord
	c := rec.Common()
	w.Text = c.Text

	if loc := c.Location; loc != nil {
		wl := &wireLocation{AutomatedText: loc.AutomatedText, ManualText: loc.ManualText}
		if loc.Coords != nil {
			lat, long := loc.Coords.Latitude, loc.Coords.Longitude
			wl.Latitude, wl.Longitude = &lat, &long
		}
		if wl.Latitude != nil || wl.AutomatedText != "" || wl.ManualText != "" {
			w.Location = wl
		}
	}
	if m := c.Stamp.Manual(); !m.IsZero() {
		w.ManualDatetime = m.Format(DatetimeLayout)
	}
	if ct := c.Stamp.Cached(); !ct.IsZero() {
		w.CachedDatetime = ct.Format(DatetimeLayout)
	}

	switch r := rec.(type) {
	case *models.ImageRecord:
		if r.Skip {
			w.Skip = json.RawMessage("true")
		}
		w.Rotation = r.Rotation
	case *models.VideoRecord:
		if r.Volume != models.FullVolume {
			v := r.Volume
			w.Volume = &v
		}
		for _, a := range r.Annotations {
			w.Annotations = append(w.Annotations, wireAnnotation(a))
		}
		if len(r.Skips) > 0 {
			segs := make([]wireSkip, len(r.Skips))
			for i, s := range r.Skips {
				segs[i] = wireSkip{Start: s.Start}
			}
			// Marshalling a plain slice of floats cannot fail.
			raw, _ := json.Marshal(segs)
			w.Skip = raw
		}
	}
	return w
}

// decodeRecord maps one sidecar value onto a record of the given kind.
// Only a value that is not a JSON object at all is an error; malformed
// individual fields silently fall back to their defaults.
func decodeRecord(kind models.MediaKind, raw json.RawMessage) (models.Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	rec := models.NewRecord(kind)
	c := rec.Common()

	var text string
	if tryUnmarshal(fields["text"], &text) {
		c.Text = text
	}
	var wl wireLocation
	if tryUnmarshal(fields["location"], &wl) {
		loc := &models.Location{AutomatedText: wl.AutomatedText, ManualText: wl.ManualText}
		if wl.Latitude != nil && wl.Longitude != nil {
			loc.Coords = &models.LatLong{Latitude: *wl.Latitude, Longitude: *wl.Longitude}
		}
		c.Location = loc
	}
	var manual, cached time.Time
	var stamp string
	if tryUnmarshal(fields["manual_datetime"], &stamp) {
		manual = parseStamp(stamp)
	}
	if tryUnmarshal(fields["cached_datetime"], &stamp) {
		cached = parseStamp(stamp)
	}
	c.Stamp = models.RestoreStamp(manual, cached)

	switch r := rec.(type) {
	case *models.ImageRecord:
		var skip bool
		if tryUnmarshal(fields["skip"], &skip) {
			r.Skip = skip
		}
		var rot int
		if tryUnmarshal(fields["rotation"], &rot) && (rot == 90 || rot == 180 || rot == 270) {
			r.Rotation = rot
		}
	case *models.VideoRecord:
		var vol int
		if tryUnmarshal(fields["volume"], &vol) && vol >= 0 && vol <= models.FullVolume {
			r.Volume = vol
		}
		var anns []wireAnnotation
		if tryUnmarshal(fields["annotations"], &anns) {
			for _, a := range anns {
				r.Annotations = append(r.Annotations, models.VideoAnnotation(a))
			}
			sort.Slice(r.Annotations, func(i, j int) bool {
				return r.Annotations[i].Timestamp < r.Annotations[j].Timestamp
			})
		}
		var segs []wireSkip
		if tryUnmarshal(fields["skip"], &segs) {
			for _, s := range segs {
				r.Skips = append(r.Skips, models.SkipSegment{Start: s.Start})
			}
			sort.Slice(r.Skips, func(i, j int) bool {
				return r.Skips[i].Start < r.Skips[j].Start
			})
		}
	}
	return rec, nil
}

func tryUnmarshal(raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func parseStamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(DatetimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
