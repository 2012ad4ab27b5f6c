package domain

// Group is an ordered list of object names sharing one catalog index.
type Group struct {
	// Names are the object names listed under the group header.
	Names []string `json:"names" yaml:"names"`

	// Hint is the number written at the start of the header line, if any.
	// It is informational: grid values address groups by position.
	Hint *int `json:"hint,omitempty" yaml:"hint,omitempty"`

	// HeaderName is an inline $name found on the header line. It is kept
	// for diagnostics and is never part of Names.
	HeaderName string `json:"header_name,omitempty" yaml:"header_name,omitempty"`
}

// Catalog holds the object groups in encounter order.
type Catalog struct {
	Groups []Group `json:"groups" yaml:"groups"`
}

// Len returns the number of groups. Valid grid values are 0..Len().
func (c *Catalog) Len() int {
	return len(c.Groups)
}

// Group returns the group addressed by a 1-based catalog index.
// Index 0 and out-of-range indices report false.
func (c *Catalog) Group(index int) (Group, bool) {
	if index <= EmptyIndex || index > len(c.Groups) {
		return Group{}, false
	}
	return c.Groups[index-1], true
}

// Names returns every object name referenced by the catalog, in order.
func (c *Catalog) Names() []string {
	var names []string
	for _, g := range c.Groups {
		names = append(names, g.Names...)
	}
	return names
}

// Document is the full content of a synth file.
type Document struct {
	Grid    Grid    `json:"grid" yaml:"grid"`
	Catalog Catalog `json:"catalog" yaml:"catalog"`

	// SceneFile names the external document holding the catalog objects.
	// It is stored exactly as read; callers trim it before use.
	SceneFile string `json:"scene_file" yaml:"scene_file"`
}
