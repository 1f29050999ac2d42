package model

// Mascot is one entry of a mascot_list metadata line.
type Mascot struct {
	Name       string `json:"name"`
	Icon       string `json:"icon,omitempty"`
	Color      string `json:"color,omitempty"`
	Background string `json:"background,omitempty"`
}

// Persona is the display metadata that accompanies a context file.
// Matching never reads it.
type Persona struct {
	MascotName      string   `json:"mascot_name,omitempty"`
	MascotIcon      string   `json:"mascot_icon,omitempty"`
	ThemeColor      string   `json:"theme_color,omitempty"`
	ThemeBackground string   `json:"theme_background,omitempty"`
	Mascots         []Mascot `json:"mascots,omitempty"`
}

// IsZero reports whether no metadata was supplied.
func (p Persona) IsZero() bool {
	return p.MascotName == "" && p.MascotIcon == "" && p.ThemeColor == "" &&
		p.ThemeBackground == "" && len(p.Mascots) == 0
}
