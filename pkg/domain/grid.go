package domain

import (
	"fmt"
	"math"
)

// Grid is a 3D lattice of catalog indices stored as a flat slice.
//
// Planes are z-major; within a plane rows run along x and y varies fastest.
type Grid struct {
	DX    int      `json:"dx" yaml:"dx"`
	DY    int      `json:"dy" yaml:"dy"`
	DZ    int      `json:"dz" yaml:"dz"`
	Cells []uint64 `json:"cells" yaml:"cells"`
}

// NewGrid allocates an empty grid with the given extents.
func NewGrid(dx, dy, dz int) *Grid {
	return &Grid{
		DX:    dx,
		DY:    dy,
		DZ:    dz,
		Cells: make([]uint64, dx*dy*dz),
	}
}

// CellCount returns dx*dy*dz. ok is false for negative extents or when the
// product does not fit in an int.
func CellCount(dx, dy, dz int) (n int, ok bool) {
	if dx < 0 || dy < 0 || dz < 0 {
		return 0, false
	}
	n = 1
	for _, d := range [3]int{dx, dy, dz} {
		if d == 0 {
			return 0, true
		}
		if n > math.MaxInt/d {
			return 0, false
		}
		n *= d
	}
	return n, true
}

// Size returns the number of cells the extents describe.
func (g *Grid) Size() int {
	return g.DX * g.DY * g.DZ
}

// Offset maps a logical coordinate to its position in Cells.
func (g *Grid) Offset(x, y, z int) int {
	return z*g.DY*g.DX + x*g.DY + y
}

// Contains reports whether (x,y,z) lies inside the extents.
func (g *Grid) Contains(x, y, z int) bool {
	return x >= 0 && x < g.DX && y >= 0 && y < g.DY && z >= 0 && z < g.DZ
}

// At returns the catalog index stored at (x,y,z).
func (g *Grid) At(x, y, z int) uint64 {
	return g.Cells[g.Offset(x, y, z)]
}

// Set stores a catalog index at (x,y,z).
func (g *Grid) Set(x, y, z int, v uint64) {
	g.Cells[g.Offset(x, y, z)] = v
}

// Max returns the largest index referenced by the grid.
func (g *Grid) Max() uint64 {
	var m uint64
	for _, v := range g.Cells {
		if v > m {
			m = v
		}
	}
	return m
}

// Check verifies that the cell slice matches the declared extents.
func (g *Grid) Check() error {
	if g.DX < 0 || g.DY < 0 || g.DZ < 0 {
		return fmt.Errorf("negative extents %dx%dx%d", g.DX, g.DY, g.DZ)
	}
	size, ok := CellCount(g.DX, g.DY, g.DZ)
	if !ok {
		return fmt.Errorf("extents %dx%dx%d overflow", g.DX, g.DY, g.DZ)
	}
	if len(g.Cells) != size {
		return fmt.Errorf("grid %dx%dx%d expects %d cells, has %d", g.DX, g.DY, g.DZ, size, len(g.Cells))
	}
	return nil
}

func (g *Grid) String() string {
	return fmt.Sprintf("%d x %d x %d", g.DX, g.DY, g.DZ)
}
