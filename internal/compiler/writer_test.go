package compiler_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/lattice/internal/compiler"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_RoundTrip(t *testing.T) {
	parser := compiler.NewParser()
	original, err := parser.Parse(strings.NewReader(houseSynth))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, compiler.NewWriter().Write(&buf, original))

	again, err := parser.Parse(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(original.Grid, again.Grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(original.SceneFile, again.SceneFile); diff != "" {
		t.Errorf("scene file mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, original.Catalog.Len(), again.Catalog.Len())
	for i := range original.Catalog.Groups {
		assert.Equal(t, original.Catalog.Groups[i].Names, again.Catalog.Groups[i].Names)
		assert.Equal(t, original.Catalog.Groups[i].Hint, again.Catalog.Groups[i].Hint)
		assert.Equal(t, original.Catalog.Groups[i].HeaderName, again.Catalog.Groups[i].HeaderName)
	}
}

func TestWriter_RoundTripBuiltDocument(t *testing.T) {
	grid := domain.NewGrid(3, 2, 2)
	for i := range grid.Cells {
		grid.Cells[i] = uint64(i % 4)
	}
	grid.Set(2, 1, 1, 12)
	doc := &domain.Document{
		Grid: *grid,
		Catalog: domain.Catalog{Groups: []domain.Group{
			{Names: []string{"A", "B"}},
			{Names: []string{"C"}},
			{Names: []string{}},
		}},
		SceneFile: "scenes/blocks.blend",
	}

	var buf bytes.Buffer
	require.NoError(t, compiler.NewWriter().Write(&buf, doc))

	got, err := compiler.NewParser().Parse(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(doc.Grid, got.Grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, doc.SceneFile, got.SceneFile)
	require.Equal(t, 3, got.Catalog.Len())
	for i, g := range got.Catalog.Groups {
		assert.Equal(t, doc.Catalog.Groups[i].Names, g.Names)
		// Missing hints are written as the catalog position.
		require.NotNil(t, g.Hint)
		assert.Equal(t, i+1, *g.Hint)
	}
}

func TestWriter_Layout(t *testing.T) {
	grid := domain.NewGrid(1, 2, 1)
	grid.Set(0, 1, 0, 11)
	doc := &domain.Document{Grid: *grid, SceneFile: "s"}

	var buf bytes.Buffer
	require.NoError(t, compiler.NewWriter().Write(&buf, doc))

	want := compiler.Preamble + "\n\nx, y, and z extents\n1 2 1\n\n 0 11 \n\n<Objects>\ns\n"
	assert.Equal(t, want, buf.String())
}

func TestWriter_HeaderName(t *testing.T) {
	hint := 4
	doc := &domain.Document{
		Grid:    *domain.NewGrid(0, 0, 0),
		Catalog: domain.Catalog{Groups: []domain.Group{{Names: []string{"Wall"}, Hint: &hint, HeaderName: "Label"}}},
	}

	var buf bytes.Buffer
	require.NoError(t, compiler.NewWriter().Write(&buf, doc))
	assert.Contains(t, buf.String(), "\n4 $Label\n$Wall\n#\n")
}

func TestWriter_RejectsInconsistentGrid(t *testing.T) {
	doc := &domain.Document{Grid: domain.Grid{DX: 2, DY: 2, DZ: 2, Cells: []uint64{1}}}
	err := compiler.NewWriter().Write(&bytes.Buffer{}, doc)
	assert.Error(t, err)
}

func TestWriter_RejectsWhatCannotReadBack(t *testing.T) {
	negative := -1
	tests := []struct {
		name string
		doc  *domain.Document
		want string
	}{
		{
			name: "name with space",
			doc:  &domain.Document{Catalog: domain.Catalog{Groups: []domain.Group{{Names: []string{"Old Wall", ""}}}}},
			want: `"Old Wall"`,
		},
		{
			name: "name with tab",
			doc:  &domain.Document{Catalog: domain.Catalog{Groups: []domain.Group{{Names: []string{"Wall\tTrim"}}}}},
			want: "whitespace",
		},
		{
			name: "header name with space",
			doc:  &domain.Document{Catalog: domain.Catalog{Groups: []domain.Group{{HeaderName: "a b"}}}},
			want: "header",
		},
		{
			name: "negative hint",
			doc:  &domain.Document{Catalog: domain.Catalog{Groups: []domain.Group{{Hint: &negative}}}},
			want: "negative hint",
		},
		{
			name: "multi-line scene file",
			doc:  &domain.Document{SceneFile: "house\n.blend"},
			want: "newline",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := compiler.NewWriter().Write(&buf, tt.doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, compiler.ErrUnwritable)
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, buf.Len(), "nothing written")
		})
	}
}

func TestWriter_EmptyNameReadsBack(t *testing.T) {
	doc := &domain.Document{
		SceneFile: "house.blend",
		Catalog:   domain.Catalog{Groups: []domain.Group{{Names: []string{"Wall", ""}}}},
	}
	var buf bytes.Buffer
	require.NoError(t, compiler.NewWriter().Write(&buf, doc))

	again, err := compiler.NewParser().Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Wall", ""}, again.Catalog.Groups[0].Names)
}
