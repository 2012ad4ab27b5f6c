package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Overlay carries resolution results to style on the chart.
type Overlay struct {
	Missing []string
	// Cells counts how many grid cells use each catalog index.
	Cells map[int]int
}

// NewOverlay builds an overlay from a document and its resolution (which may be nil).
func NewOverlay(doc *domain.Document, res *domain.Resolution) *Overlay {
	o := &Overlay{Cells: make(map[int]int)}
	for _, v := range doc.Grid.Cells {
		o.Cells[int(v)]++
	}
	if res != nil && res.Catalog != nil {
		o.Missing = res.Catalog.Missing
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the catalog:
// - Scene file: ((Circle))
// - Group: [[Subroutine]], labelled with its index and cell count
// - Object: [Rectangle]
// Missing objects are styled when an overlay is provided.
func GenerateMermaid(doc *domain.Document, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	scene := strings.TrimSpace(doc.SceneFile)
	if scene == "" {
		scene = "scene"
	}
	sb.WriteString(fmt.Sprintf("    scene((\"%s\"))\n", escapeLabel(scene)))

	seen := make(map[string]bool)
	for i, g := range doc.Catalog.Groups {
		index := i + 1
		groupID := fmt.Sprintf("g%d", index)

		label := fmt.Sprintf("#%d", index)
		if overlay != nil {
			label = fmt.Sprintf("#%d <br/> %d cells", index, overlay.Cells[index])
		}
		sb.WriteString(fmt.Sprintf("    %s[[\"%s\"]]\n", groupID, label))
		sb.WriteString(fmt.Sprintf("    scene --> %s\n", groupID))

		for _, name := range g.Names {
			objID := "o_" + sanitizeMermaidID(name)
			if !seen[objID] {
				seen[objID] = true
				sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", objID, escapeLabel(name)))
			}
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", groupID, objID))
		}
	}

	if overlay != nil && len(overlay.Missing) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef missing fill:#ffebee,stroke:#c62828,stroke-width:2px,stroke-dasharray:4,color:#000;\n")
		styled := make(map[string]bool)
		for _, name := range overlay.Missing {
			objID := "o_" + sanitizeMermaidID(name)
			if !styled[objID] {
				styled[objID] = true
				sb.WriteString(fmt.Sprintf("    class %s missing;\n", objID))
			}
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
