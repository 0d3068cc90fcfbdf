package models

// Defaults for the viewer settings stored alongside the records.
const (
	DefaultImageTime = 5  // seconds each image stays on screen
	DefaultFontSize  = 14 // caption font size in points
)

// Settings are the per-library viewer preferences kept in the sidecar
// under the "_settings" key.
type Settings struct {
	ImageTime int `json:"image_time"`
	FontSize  int `json:"font_size"`
}

// DefaultSettings returns the settings used when the sidecar carries none.
func DefaultSettings() Settings {
	return Settings{ImageTime: DefaultImageTime, FontSize: DefaultFontSize}
}

// Normalize replaces out-of-range values with their defaults.
func (s Settings) Normalize() Settings {
	if s.ImageTime <= 0 {
		s.ImageTime = DefaultImageTime
	}
	if s.FontSize <= 0 {
		s.FontSize = DefaultFontSize
	}
	return s
}
