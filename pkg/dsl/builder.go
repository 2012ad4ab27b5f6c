package dsl

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/aretw0/lattice/internal/compiler"
	"github.com/aretw0/lattice/pkg/domain"
)

// Builder manages the document construction.
// Out-of-range coordinates are recorded and reported by Build.
type Builder struct {
	grid    *domain.Grid
	catalog domain.Catalog
	scene   string
	errs    []error
}

// New creates a builder for an empty dx × dy × dz lattice.
func New(dx, dy, dz int) *Builder {
	b := &Builder{}
	if dx < 0 || dy < 0 || dz < 0 {
		b.errs = append(b.errs, fmt.Errorf("negative extents %d %d %d", dx, dy, dz))
		dx, dy, dz = max(dx, 0), max(dy, 0), max(dz, 0)
	}
	if _, ok := domain.CellCount(dx, dy, dz); !ok {
		b.errs = append(b.errs, fmt.Errorf("extents %d %d %d are too large", dx, dy, dz))
		dx, dy, dz = 0, 0, 0
	}
	b.grid = domain.NewGrid(dx, dy, dz)
	return b
}

// Scene sets the scene file the document names.
func (b *Builder) Scene(name string) *Builder {
	if err := compiler.CheckSceneFile(name); err != nil {
		b.errs = append(b.errs, err)
	}
	b.scene = name
	return b
}

// Group appends an object group and returns its catalog index.
// Names containing whitespace are recorded as errors.
func (b *Builder) Group(names ...string) uint64 {
	for _, name := range names {
		if err := compiler.CheckName(name); err != nil {
			b.errs = append(b.errs, fmt.Errorf("group %d: %w", b.catalog.Len()+1, err))
		}
	}
	b.catalog.Groups = append(b.catalog.Groups, domain.Group{Names: append([]string(nil), names...)})
	return uint64(b.catalog.Len())
}

// Set stores index at (x, y, z).
func (b *Builder) Set(x, y, z int, index uint64) *Builder {
	if !b.grid.Contains(x, y, z) {
		b.errs = append(b.errs, fmt.Errorf("cell (%d, %d, %d) outside %s", x, y, z, b.grid))
		return b
	}
	b.grid.Set(x, y, z, index)
	return b
}

// Plane returns a builder for plane z.
func (b *Builder) Plane(z int) *PlaneBuilder {
	if z < 0 || z >= b.grid.DZ {
		b.errs = append(b.errs, fmt.Errorf("plane %d outside %s", z, b.grid))
	}
	return &PlaneBuilder{z: z, builder: b}
}

// Build checks the document and returns it. Every cell must address an
// existing group.
func (b *Builder) Build() (*domain.Document, error) {
	errs := append([]error(nil), b.errs...)
	if top := b.grid.Max(); top > uint64(b.catalog.Len()) {
		errs = append(errs, fmt.Errorf("%w: index %d with %d groups", domain.ErrIndexOutOfRange, top, b.catalog.Len()))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("failed to build document: %w", err)
	}

	grid := *b.grid
	grid.Cells = append([]uint64(nil), b.grid.Cells...)
	catalog := domain.Catalog{Groups: append([]domain.Group(nil), b.catalog.Groups...)}
	return &domain.Document{Grid: grid, Catalog: catalog, SceneFile: b.scene}, nil
}

// Synth builds the document and serializes it in the synth text format.
func (b *Builder) Synth() ([]byte, error) {
	doc, err := b.Build()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := compiler.NewWriter().Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PlaneBuilder provides a fluent API for filling one z plane.
type PlaneBuilder struct {
	z       int
	builder *Builder
}

// Set stores index at (x, y) of the plane.
func (p *PlaneBuilder) Set(x, y int, index uint64) *PlaneBuilder {
	p.builder.Set(x, y, p.z, index)
	return p
}

// Fill stores index in every cell of the plane.
func (p *PlaneBuilder) Fill(index uint64) *PlaneBuilder {
	g := p.builder.grid
	for x := 0; x < g.DX; x++ {
		for y := 0; y < g.DY; y++ {
			p.Set(x, y, index)
		}
	}
	return p
}

// Border stores index in the outer ring of the plane.
func (p *PlaneBuilder) Border(index uint64) *PlaneBuilder {
	g := p.builder.grid
	for x := 0; x < g.DX; x++ {
		for y := 0; y < g.DY; y++ {
			if x == 0 || y == 0 || x == g.DX-1 || y == g.DY-1 {
				p.Set(x, y, index)
			}
		}
	}
	return p
}

// Row stores indices along y for row x, starting at y = 0.
func (p *PlaneBuilder) Row(x int, indices ...uint64) *PlaneBuilder {
	for y, v := range indices {
		p.Set(x, y, v)
	}
	return p
}

// Done returns the document builder.
func (p *PlaneBuilder) Done() *Builder {
	return p.builder
}
