package models

// Settings is the singleton settings record. It is an open map because the
// settings endpoint merges whatever fields the front-end sends.
type Settings map[string]any

// DefaultSettings is the record seeded on first run.
func DefaultSettings() Settings {
	return Settings{"defaultHours": float64(10)}
}

// Merge overlays other onto s field by field and returns s.
func (s Settings) Merge(other Settings) Settings {
	for k, v := range other {
		s[k] = v
	}
	return s
}
