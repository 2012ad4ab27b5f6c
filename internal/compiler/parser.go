package compiler

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

var (
	groupHeaderRe = regexp.MustCompile(`^(\d+)?\s*(?:\$(\S*))?`)
	nameLineRe    = regexp.MustCompile(`^\s*\$(\S*)`)
	terminatorRe  = regexp.MustCompile(`^#\s*`)
)

// maxPreallocCells caps the initial cell buffer of a grid.
const maxPreallocCells = 1 << 16

// Parser is responsible for converting a synth text stream into a Document.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads a complete synth document.
// Any structural violation aborts with a *domain.FormatError and no partial result.
func (p *Parser) Parse(r io.Reader) (*domain.Document, error) {
	lr := newLineReader(r)

	if err := skipUntil(lr, func(s string) bool { return strings.HasPrefix(s, domain.ExtentsMarker) },
		domain.ErrMissingExtentsMarker, "a line starting with "+strconv.Quote(domain.ExtentsMarker)); err != nil {
		return nil, err
	}

	grid, err := readGrid(lr)
	if err != nil {
		return nil, err
	}

	if err := skipUntil(lr, func(s string) bool { return strings.Contains(s, domain.ObjectsMarker) },
		domain.ErrMissingObjectsMarker, "a line containing "+domain.ObjectsMarker); err != nil {
		return nil, err
	}

	doc := &domain.Document{Grid: *grid}

	scene, ok, err := lr.next()
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file name: %w", err)
	}
	if !ok {
		return doc, nil
	}
	doc.SceneFile = scene

	catalog, err := readGroups(lr)
	if err != nil {
		return nil, err
	}
	doc.Catalog = *catalog
	return doc, nil
}

func skipUntil(lr *lineReader, match func(string) bool, kind error, expected string) error {
	for {
		s, ok, err := lr.next()
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if !ok {
			return &domain.FormatError{Kind: kind, Expected: expected}
		}
		if match(s) {
			return nil
		}
	}
}

func readGrid(lr *lineReader) (*domain.Grid, error) {
	const extentsExpected = "three integers dx dy dz"
	s, ok, err := lr.next()
	if err != nil {
		return nil, fmt.Errorf("failed to read extents: %w", err)
	}
	if !ok {
		return nil, &domain.FormatError{Kind: domain.ErrMalformedExtents, Expected: extentsExpected}
	}
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return nil, &domain.FormatError{Kind: domain.ErrMalformedExtents, Line: lr.line, Expected: extentsExpected, Found: s}
	}
	var dims [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, &domain.FormatError{Kind: domain.ErrMalformedExtents, Line: lr.line, Expected: extentsExpected, Found: s}
		}
		dims[i] = n
	}

	size, ok := domain.CellCount(dims[0], dims[1], dims[2])
	if !ok {
		return nil, &domain.FormatError{Kind: domain.ErrMalformedExtents, Line: lr.line, Expected: "extents whose product fits in an int", Found: s}
	}

	// Rows arrive in storage order, so cells are appended as they are read
	// and memory follows the input rather than the declared extents.
	grid := &domain.Grid{DX: dims[0], DY: dims[1], DZ: dims[2], Cells: make([]uint64, 0, min(size, maxPreallocCells))}
	for z := 0; z < grid.DZ; z++ {
		if _, ok, err := lr.next(); err != nil {
			return nil, fmt.Errorf("failed to read plane %d: %w", z, err)
		} else if !ok {
			return nil, &domain.FormatError{Kind: domain.ErrTruncatedGrid, Expected: fmt.Sprintf("separator line for plane %d", z)}
		}
		for x := 0; x < grid.DX; x++ {
			if err := readRow(lr, grid, x, z); err != nil {
				return nil, err
			}
		}
	}
	return grid, nil
}

func readRow(lr *lineReader, grid *domain.Grid, x, z int) error {
	expected := fmt.Sprintf("%d unsigned integers for row x=%d of plane z=%d", grid.DY, x, z)
	s, ok, err := lr.next()
	if err != nil {
		return fmt.Errorf("failed to read grid row: %w", err)
	}
	if !ok {
		return &domain.FormatError{Kind: domain.ErrTruncatedGrid, Expected: expected}
	}
	fields := strings.Fields(s)
	if len(fields) != grid.DY {
		return &domain.FormatError{Kind: domain.ErrMalformedGridRow, Line: lr.line, Expected: expected, Found: s}
	}
	row := make([]uint64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return &domain.FormatError{Kind: domain.ErrMalformedGridRow, Line: lr.line, Expected: expected, Found: s}
		}
		row = append(row, v)
	}
	grid.Cells = append(grid.Cells, row...)
	return nil
}

func readGroups(lr *lineReader) (*domain.Catalog, error) {
	catalog := &domain.Catalog{}
	for {
		s, ok, err := lr.next()
		if err != nil {
			return nil, fmt.Errorf("failed to read object groups: %w", err)
		}
		if !ok {
			return catalog, nil
		}
		if strings.TrimSpace(s) == "" {
			continue
		}
		group, err := readGroup(lr, s)
		if err != nil {
			return nil, err
		}
		catalog.Groups = append(catalog.Groups, *group)
	}
}

// readGroup parses one group whose header line has already been read.
func readGroup(lr *lineReader, header string) (*domain.Group, error) {
	const expected = "a $name line or a # terminator"
	group := &domain.Group{Names: []string{}}

	m := groupHeaderRe.FindStringSubmatch(header)
	if m[1] != "" {
		// \d+ can still overflow int
		if n, err := strconv.Atoi(m[1]); err == nil {
			group.Hint = &n
		}
	}
	group.HeaderName = m[2]

	for {
		s, ok, err := lr.next()
		if err != nil {
			return nil, fmt.Errorf("failed to read object group: %w", err)
		}
		if !ok {
			return nil, &domain.FormatError{Kind: domain.ErrMalformedGroupLine, Expected: expected}
		}
		if terminatorRe.MatchString(s) {
			return group, nil
		}
		nm := nameLineRe.FindStringSubmatch(s)
		if nm == nil {
			return nil, &domain.FormatError{Kind: domain.ErrMalformedGroupLine, Line: lr.line, Expected: expected, Found: s}
		}
		group.Names = append(group.Names, nm[1])
	}
}
