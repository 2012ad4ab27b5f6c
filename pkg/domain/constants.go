package domain

// DefaultUnit is the spacing, in world units, between adjacent lattice cells.
const DefaultUnit = 10.0

// Markers recognised by the synth format.
const (
	// ExtentsMarker starts a line announcing the grid dimensions.
	ExtentsMarker = "x, y, and z extents"
	// ObjectsMarker introduces the scene file name and the object groups.
	ObjectsMarker = "<Objects>"
	// EmptyIndex is the reserved catalog index meaning "no object".
	EmptyIndex = 0
)
