package runtime

import (
	"fmt"
	"iter"
	"math"

	"github.com/aretw0/lattice/pkg/domain"
)

// Plan walks a grid and yields placement commands for a resolved catalog.
// It holds no state besides its inputs, so every iteration starts over.
type Plan struct {
	grid     *domain.Grid
	resolved *domain.ResolvedCatalog
	unit     float64
}

// NewPlan checks that the grid is consistent and that every cell addresses
// an existing catalog index.
func NewPlan(grid *domain.Grid, resolved *domain.ResolvedCatalog, unit float64) (*Plan, error) {
	if math.IsNaN(unit) || math.IsInf(unit, 0) {
		return nil, fmt.Errorf("invalid unit %v", unit)
	}
	if err := grid.Check(); err != nil {
		return nil, err
	}
	limit := uint64(resolved.Len())
	for z := 0; z < grid.DZ; z++ {
		for x := 0; x < grid.DX; x++ {
			for y := 0; y < grid.DY; y++ {
				if v := grid.At(x, y, z); v > limit {
					return nil, fmt.Errorf("%w: cell (%d,%d,%d) holds %d, catalog has %d groups",
						domain.ErrIndexOutOfRange, x, y, z, v, limit)
				}
			}
		}
	}
	return &Plan{grid: grid, resolved: resolved, unit: unit}, nil
}

// All yields every command: z ascending, then x, then y.
func (p *Plan) All() iter.Seq[domain.PlacementCommand] {
	return func(yield func(domain.PlacementCommand) bool) {
		for z := 0; z < p.grid.DZ; z++ {
			for cmd := range p.Plane(z) {
				if !yield(cmd) {
					return
				}
			}
		}
	}
}

// Plane yields the commands of a single z plane in traversal order.
func (p *Plan) Plane(z int) iter.Seq[domain.PlacementCommand] {
	return func(yield func(domain.PlacementCommand) bool) {
		for x := 0; x < p.grid.DX; x++ {
			for y := 0; y < p.grid.DY; y++ {
				idx := int(p.grid.At(x, y, z))
				if idx == domain.EmptyIndex {
					continue
				}
				pos := domain.WorldPosition(x, y, z, p.unit)
				for _, o := range p.resolved.At(idx) {
					cmd := domain.PlacementCommand{
						Object:     o,
						Position:   pos,
						Cell:       [3]int{x, y, z},
						GroupIndex: idx,
					}
					if !yield(cmd) {
						return
					}
				}
			}
		}
	}
}

// Planes returns the number of z planes.
func (p *Plan) Planes() int {
	return p.grid.DZ
}

// Count returns how many commands All yields.
func (p *Plan) Count() int {
	n := 0
	for _, v := range p.grid.Cells {
		n += len(p.resolved.At(int(v)))
	}
	return n
}

// Collect materializes All.
func (p *Plan) Collect() []domain.PlacementCommand {
	cmds := make([]domain.PlacementCommand, 0, p.Count())
	for cmd := range p.All() {
		cmds = append(cmds, cmd)
	}
	return cmds
}
