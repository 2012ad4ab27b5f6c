package compiler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/aretw0/lattice/pkg/domain"
)

// Preamble is the first line written by the synthesis tool.
const Preamble = "Model generated using model synthesis. Do not insert or delete lines from this file."

// ErrUnwritable is returned for documents the synth format cannot carry.
var ErrUnwritable = errors.New("document cannot be written as synth")

// CheckName rejects object names that would not read back whole.
// A name is the token after "$" and ends at the first space.
func CheckName(name string) error {
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: name %q contains whitespace", ErrUnwritable, name)
	}
	return nil
}

// CheckSceneFile rejects scene file names spanning more than one line.
func CheckSceneFile(name string) error {
	if strings.Contains(name, "\n") {
		return fmt.Errorf("%w: scene file %q contains a newline", ErrUnwritable, name)
	}
	return nil
}

// check reports every field of doc that the format would alter.
func check(doc *domain.Document) error {
	var errs []error
	if err := CheckSceneFile(doc.SceneFile); err != nil {
		errs = append(errs, err)
	}
	for i, group := range doc.Catalog.Groups {
		if group.Hint != nil && *group.Hint < 0 {
			errs = append(errs, fmt.Errorf("%w: group %d has negative hint %d", ErrUnwritable, i+1, *group.Hint))
		}
		if err := CheckName(group.HeaderName); err != nil {
			errs = append(errs, fmt.Errorf("group %d header: %w", i+1, err))
		}
		for _, name := range group.Names {
			if err := CheckName(name); err != nil {
				errs = append(errs, fmt.Errorf("group %d: %w", i+1, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Writer serializes a Document back into the synth text format.
type Writer struct {
	preamble string
}

// NewWriter creates a writer that emits the standard preamble.
func NewWriter() *Writer {
	return &Writer{preamble: Preamble}
}

// Write emits doc so that Parser.Parse reads back the same grid, groups and scene file.
// A group without a hint gets its catalog position on the header line.
// Inline header names are written back on the header line.
// Names with whitespace, negative hints and multi-line scene files fail
// with ErrUnwritable before anything is written.
func (w *Writer) Write(out io.Writer, doc *domain.Document) error {
	if err := doc.Grid.Check(); err != nil {
		return fmt.Errorf("cannot write grid: %w", err)
	}
	if err := check(doc); err != nil {
		return err
	}
	bw := bufio.NewWriter(out)
	g := &doc.Grid

	fmt.Fprintln(bw, w.preamble)
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, domain.ExtentsMarker)
	fmt.Fprintf(bw, "%d %d %d\n", g.DX, g.DY, g.DZ)
	for z := 0; z < g.DZ; z++ {
		fmt.Fprintln(bw)
		for x := 0; x < g.DX; x++ {
			for y := 0; y < g.DY; y++ {
				v := g.At(x, y, z)
				if v < 10 {
					bw.WriteByte(' ')
				}
				fmt.Fprintf(bw, "%d ", v)
			}
			fmt.Fprintln(bw)
		}
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, domain.ObjectsMarker)
	fmt.Fprintln(bw, doc.SceneFile)

	for i, group := range doc.Catalog.Groups {
		hint := i + 1
		if group.Hint != nil {
			hint = *group.Hint
		}
		fmt.Fprintln(bw)
		if group.HeaderName != "" {
			fmt.Fprintf(bw, "%d $%s\n", hint, group.HeaderName)
		} else {
			fmt.Fprintf(bw, "%d\n", hint)
		}
		for _, name := range group.Names {
			fmt.Fprintf(bw, "$%s\n", name)
		}
		fmt.Fprintln(bw, "#")
	}
	return bw.Flush()
}
