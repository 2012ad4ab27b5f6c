// Package validator checks a parsed synth document for problems the reader
// accepts but a placement run would trip over or silently ignore.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Severity ranks an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes.
const (
	CodeGridShape    = "grid-shape"
	CodeOutOfRange   = "index-out-of-range"
	CodeHintMismatch = "hint-mismatch"
	CodeEmptyGroup   = "empty-group"
	CodeUnusedGroup  = "unused-group"
	CodeHeaderName   = "header-name"
	CodeNoSceneFile  = "no-scene-file"
	CodeMissingName  = "missing-object"
)

// Issue is one finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Group    int      `json:"group,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s [%s] %s", i.Severity, i.Code, i.Message)
}

// Result collects the issues of one document.
type Result struct {
	Issues []Issue `json:"issues"`
}

// Errors returns only error-level issues.
func (r *Result) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns only warning-level issues.
func (r *Result) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r *Result) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Err folds error-level issues into one error, or nil.
func (r *Result) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.Message
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(lines, "\n- "))
}

func (r *Result) add(s Severity, code string, group int, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: s, Code: code, Group: group, Message: fmt.Sprintf(format, args...)})
}

// Validate inspects doc.
func Validate(doc *domain.Document) *Result {
	r := &Result{}

	if strings.TrimSpace(doc.SceneFile) == "" && doc.Catalog.Len() > 0 {
		r.add(SeverityWarning, CodeNoSceneFile, 0, "no scene file named; missing objects cannot be reloaded")
	}

	if err := doc.Grid.Check(); err != nil {
		r.add(SeverityError, CodeGridShape, 0, "%v", err)
		return r
	}

	limit := uint64(doc.Catalog.Len())
	used := make(map[uint64]int)
	bad := make(map[uint64][3]int)
	g := &doc.Grid
	for z := 0; z < g.DZ; z++ {
		for x := 0; x < g.DX; x++ {
			for y := 0; y < g.DY; y++ {
				v := g.At(x, y, z)
				used[v]++
				if v > limit {
					if _, seen := bad[v]; !seen {
						bad[v] = [3]int{x, y, z}
					}
				}
			}
		}
	}

	badValues := make([]uint64, 0, len(bad))
	for v := range bad {
		badValues = append(badValues, v)
	}
	sort.Slice(badValues, func(i, j int) bool { return badValues[i] < badValues[j] })
	for _, v := range badValues {
		c := bad[v]
		r.add(SeverityError, CodeOutOfRange, int(v),
			"index %d used by %d cells (first at %d,%d,%d) but the catalog has %d groups",
			v, used[v], c[0], c[1], c[2], limit)
	}

	for i, grp := range doc.Catalog.Groups {
		index := i + 1
		if grp.Hint != nil && *grp.Hint != index {
			r.add(SeverityWarning, CodeHintMismatch, index,
				"group %d is labelled %d; cells address groups by position", index, *grp.Hint)
		}
		if grp.HeaderName != "" {
			r.add(SeverityWarning, CodeHeaderName, index,
				"group %d names %q on its header line; only $ lines below the header are placed", index, grp.HeaderName)
		}
		if len(grp.Names) == 0 {
			r.add(SeverityWarning, CodeEmptyGroup, index, "group %d lists no objects; its cells stay empty", index)
		}
		if used[uint64(index)] == 0 {
			r.add(SeverityWarning, CodeUnusedGroup, index, "group %d is not used by any cell", index)
		}
	}
	return r
}

// CheckResolution adds a warning per missing name.
func (r *Result) CheckResolution(res *domain.Resolution) {
	if res == nil || res.Catalog == nil {
		return
	}
	for _, name := range res.Catalog.Missing {
		r.add(SeverityWarning, CodeMissingName, 0, "object %q not found in scene", name)
	}
}

