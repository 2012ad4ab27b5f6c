package domain

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// PlacementCommand asks the host to instantiate Object at Position.
// Only translation is applied.
type PlacementCommand struct {
	Object   Object `json:"object"`
	Position r3.Vec `json:"position"`

	// Cell is the lattice coordinate (x, y, z) the command came from.
	Cell [3]int `json:"cell"`
	// GroupIndex is the catalog index stored in that cell.
	GroupIndex int `json:"group"`
}

// WorldPosition scales a lattice coordinate by unit.
func WorldPosition(x, y, z int, unit float64) r3.Vec {
	return r3.Scale(unit, r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)})
}

func (c PlacementCommand) String() string {
	return fmt.Sprintf("%s @ (%g, %g, %g)", c.Object.Name, c.Position.X, c.Position.Y, c.Position.Z)
}
