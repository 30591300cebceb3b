package models

// Employee is one schedulable person. Color is a display hint assigned
// round-robin from the palette at creation time.
type Employee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Palette is the fixed set of employee colors. Assignment is by current
// employee count modulo len(Palette).
var Palette = []string{"#ff6b6b", "#4ecdc4", "#45b7d1", "#96ceb4", "#ffeaa7", "#fd79a8", "#a29bfe"}
