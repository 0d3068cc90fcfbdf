package index

import (
	"strings"

	"github.com/starford/wunjo/internal/models"
)

// RowFor flattens a record into its indexed representation.
func RowFor(file models.MediaFile, rec models.Record) MediaRow {
	common := rec.Common()
	row := MediaRow{
		Path:    file.Path,
		Kind:    string(file.Kind),
		Caption: common.Text,
		Place:   common.Location.Display(),
	}
	if t, ok := common.Stamp.Effective(); ok {
		row.TakenAt = t
	}
	if vid, ok := rec.(*models.VideoRecord); ok {
		parts := make([]string, 0, len(vid.Annotations))
		for _, a := range vid.Annotations {
			parts = append(parts, a.Text)
		}
		row.Notes = strings.Join(parts, " ")
	}
	return row
}
