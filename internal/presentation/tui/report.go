package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/internal/validator"
	"github.com/aretw0/lattice/pkg/domain"
)

// MaxPlaneMapCells bounds the plane maps included in a report.
const MaxPlaneMapCells = 4096

// Summary is everything the inspect report shows.
type Summary struct {
	Path       string
	Document   *domain.Document
	Resolution *domain.Resolution
	Validation *validator.Result
	Unit       float64
}

// Markdown renders s as a markdown report.
func Markdown(s Summary) string {
	doc := s.Document
	g := &doc.Grid
	var sb strings.Builder

	title := s.Path
	if title == "" {
		title = "synth document"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	fmt.Fprintf(&sb, "| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Extents | %d × %d × %d |\n", g.DX, g.DY, g.DZ)
	fmt.Fprintf(&sb, "| Cells | %d (%d filled) |\n", g.Size(), filled(g))
	fmt.Fprintf(&sb, "| Groups | %d |\n", doc.Catalog.Len())
	fmt.Fprintf(&sb, "| Scene file | `%s` |\n", strings.TrimSpace(doc.SceneFile))
	if s.Unit > 0 {
		fmt.Fprintf(&sb, "| Unit | %g |\n", s.Unit)
	}
	sb.WriteString("\n")

	counts := make(map[uint64]int)
	for _, v := range g.Cells {
		counts[v]++
	}

	sb.WriteString("## Groups\n\n")
	if doc.Catalog.Len() == 0 {
		sb.WriteString("_No groups._\n\n")
	} else {
		sb.WriteString("| # | Hint | Cells | Objects | Resolved |\n|---|---|---|---|---|\n")
		for i, grp := range doc.Catalog.Groups {
			index := i + 1
			hint := "-"
			if grp.Hint != nil {
				hint = fmt.Sprint(*grp.Hint)
			}
			resolved := "-"
			if s.Resolution != nil && s.Resolution.Catalog != nil {
				resolved = fmt.Sprintf("%d/%d", len(s.Resolution.Catalog.At(index)), len(grp.Names))
			}
			fmt.Fprintf(&sb, "| %d | %s | %d | %s | %s |\n",
				index, hint, counts[uint64(index)], names(grp.Names), resolved)
		}
		sb.WriteString("\n")
	}

	if s.Resolution != nil {
		sb.WriteString("## Resolution\n\n")
		state := s.Resolution.State
		switch {
		case !state.AnyFound && doc.Catalog.Len() > 0:
			fmt.Fprintf(&sb, "**None of the objects were found.** Open `%s` and run again.\n\n", strings.TrimSpace(doc.SceneFile))
		case state.AnyMissing:
			sb.WriteString("**Some objects are missing.** Their cells will stay empty.\n\n")
		default:
			sb.WriteString("All objects found.\n\n")
		}
		if s.Resolution.Reloaded {
			sb.WriteString("The scene document was reloaded once.\n\n")
		}
		if s.Resolution.ReloadErr != nil {
			fmt.Fprintf(&sb, "Reload failed: `%v`\n\n", s.Resolution.ReloadErr)
		}
		if c := s.Resolution.Catalog; c != nil && len(c.Missing) > 0 {
			for _, m := range c.Missing {
				fmt.Fprintf(&sb, "- missing `%s`\n", m)
			}
			sb.WriteString("\n")
		}
	}

	if s.Validation != nil && len(s.Validation.Issues) > 0 {
		sb.WriteString("## Issues\n\n")
		for _, issue := range s.Validation.Issues {
			fmt.Fprintf(&sb, "- **%s** `%s` %s\n", issue.Severity, issue.Code, issue.Message)
		}
		sb.WriteString("\n")
	}

	if g.Size() > 0 && g.Size() <= MaxPlaneMapCells && g.Check() == nil {
		sb.WriteString("## Planes\n\n")
		for z := 0; z < g.DZ; z++ {
			fmt.Fprintf(&sb, "z = %d\n\n```\n%s```\n\n", z, PlaneMap(g, z))
		}
	}
	return sb.String()
}

// PlaneMap draws plane z with one row per x and one column per y.
// Empty cells are dots; indices 1-9 are digits, larger ones letters, then '+'.
func PlaneMap(g *domain.Grid, z int) string {
	var sb strings.Builder
	for x := 0; x < g.DX; x++ {
		for y := 0; y < g.DY; y++ {
			sb.WriteByte(cellGlyph(g.At(x, y, z)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cellGlyph(v uint64) byte {
	switch {
	case v == 0:
		return '.'
	case v < 10:
		return byte('0' + v)
	case v < 36:
		return byte('a' + v - 10)
	}
	return '+'
}

func filled(g *domain.Grid) int {
	n := 0
	for _, v := range g.Cells {
		if v != domain.EmptyIndex {
			n++
		}
	}
	return n
}

func names(ns []string) string {
	if len(ns) == 0 {
		return "_none_"
	}
	quoted := make([]string, len(ns))
	for i, n := range ns {
		quoted[i] = "`" + n + "`"
	}
	return strings.Join(quoted, ", ")
}
