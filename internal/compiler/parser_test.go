package compiler_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/lattice/internal/compiler"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const houseSynth = `Model generated using model synthesis.  Do not insert or delete lines from this file.

x, y, and z extents
2 3 2

 1  0  2 
 0  0  1 

 0  3  0 
 0  0  0 

<Objects>
house.blend

1 $ignored
$Wall
$Wall.Trim
#

2
$Roof
#

5
$Door
#
`

func TestParser_Parse(t *testing.T) {
	doc, err := compiler.NewParser().Parse(strings.NewReader(houseSynth))
	require.NoError(t, err)

	g := doc.Grid
	assert.Equal(t, 2, g.DX)
	assert.Equal(t, 3, g.DY)
	assert.Equal(t, 2, g.DZ)
	require.Len(t, g.Cells, 12)

	// Plane 0
	assert.Equal(t, uint64(1), g.At(0, 0, 0))
	assert.Equal(t, uint64(2), g.At(0, 2, 0))
	assert.Equal(t, uint64(1), g.At(1, 2, 0))
	// Plane 1
	assert.Equal(t, uint64(3), g.At(0, 1, 1))
	assert.Equal(t, []uint64{1, 0, 2, 0, 0, 1, 0, 3, 0, 0, 0, 0}, g.Cells)

	assert.Equal(t, "house.blend", doc.SceneFile)
	require.Equal(t, 3, doc.Catalog.Len())
	assert.Equal(t, []string{"Wall", "Wall.Trim"}, doc.Catalog.Groups[0].Names)
	assert.Equal(t, []string{"Roof"}, doc.Catalog.Groups[1].Names)
	assert.Equal(t, []string{"Door"}, doc.Catalog.Groups[2].Names)
}

func TestParser_HeaderCaptures(t *testing.T) {
	doc, err := compiler.NewParser().Parse(strings.NewReader(houseSynth))
	require.NoError(t, err)

	first := doc.Catalog.Groups[0]
	require.NotNil(t, first.Hint)
	assert.Equal(t, 1, *first.Hint)
	// The inline header name is kept but never becomes a group member.
	assert.Equal(t, "ignored", first.HeaderName)
	assert.NotContains(t, first.Names, "ignored")

	// Hint 5 on the third group does not change its position.
	third, ok := doc.Catalog.Group(3)
	require.True(t, ok)
	require.NotNil(t, third.Hint)
	assert.Equal(t, 5, *third.Hint)
	_, ok = doc.Catalog.Group(5)
	assert.False(t, ok)
}

func TestParser_HintDoesNotAddress(t *testing.T) {
	input := `x, y, and z extents
1 1 1

2
<Objects>
scene
1
$A
#
5
$B
#
`
	doc, err := compiler.NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	g, ok := doc.Catalog.Group(int(doc.Grid.At(0, 0, 0)))
	require.True(t, ok)
	assert.Equal(t, []string{"B"}, g.Names)
}

func TestParser_SceneFileVerbatim(t *testing.T) {
	input := "x, y, and z extents\n0 0 0\n<Objects>\nscene.blend  \r\n"
	doc, err := compiler.NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "scene.blend  \r", doc.SceneFile)
	assert.Equal(t, 0, doc.Catalog.Len())
}

func TestParser_EndAfterObjectsMarker(t *testing.T) {
	input := "x, y, and z extents\n1 1 1\n\n0\n<Objects>"
	doc, err := compiler.NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, doc.SceneFile)
	assert.Equal(t, 0, doc.Catalog.Len())
}

func TestParser_CRLF(t *testing.T) {
	input := strings.ReplaceAll(houseSynth, "\n", "\r\n")
	doc, err := compiler.NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"Wall", "Wall.Trim"}, doc.Catalog.Groups[0].Names)
	assert.Equal(t, uint64(3), doc.Grid.At(0, 1, 1))
}

func TestParser_EmptyGroup(t *testing.T) {
	input := "x, y, and z extents\n1 1 1\n\n1\n<Objects>\nscene\n\n1\n#\n"
	doc, err := compiler.NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, doc.Catalog.Len())
	assert.Empty(t, doc.Catalog.Groups[0].Names)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  error
		line  int
	}{
		{
			name:  "no extents marker",
			input: "hello\nworld\n",
			kind:  domain.ErrMissingExtentsMarker,
		},
		{
			name:  "marker must start the line",
			input: "the x, y, and z extents\n1 1 1\n",
			kind:  domain.ErrMissingExtentsMarker,
		},
		{
			name:  "two extents",
			input: "x, y, and z extents\n3 3\n",
			kind:  domain.ErrMalformedExtents,
			line:  2,
		},
		{
			name:  "non numeric extents",
			input: "x, y, and z extents\n3 a 3\n",
			kind:  domain.ErrMalformedExtents,
			line:  2,
		},
		{
			name:  "negative extents",
			input: "x, y, and z extents\n3 -1 3\n",
			kind:  domain.ErrMalformedExtents,
			line:  2,
		},
		{
			name:  "extents overflow",
			input: "x, y, and z extents\n3037000500 3037000500 2\n\n1\n",
			kind:  domain.ErrMalformedExtents,
			line:  2,
		},
		{
			name:  "huge extents with short input",
			input: "x, y, and z extents\n100000 100000 100000\n\n1 2\n",
			kind:  domain.ErrMalformedGridRow,
			line:  4,
		},
		{
			name:  "huge extents truncated",
			input: "x, y, and z extents\n1 1 100000000\n\n1\n",
			kind:  domain.ErrTruncatedGrid,
		},
		{
			name:  "missing extents line",
			input: "x, y, and z extents\n",
			kind:  domain.ErrMalformedExtents,
		},
		{
			name:  "short row",
			input: "x, y, and z extents\n1 3 1\n\n1 2\n",
			kind:  domain.ErrMalformedGridRow,
			line:  4,
		},
		{
			name:  "negative cell",
			input: "x, y, and z extents\n1 2 1\n\n1 -2\n",
			kind:  domain.ErrMalformedGridRow,
			line:  4,
		},
		{
			name:  "truncated rows",
			input: "x, y, and z extents\n2 1 1\n\n1\n",
			kind:  domain.ErrTruncatedGrid,
		},
		{
			name:  "truncated separator",
			input: "x, y, and z extents\n1 1 2\n\n1\n",
			kind:  domain.ErrTruncatedGrid,
		},
		{
			name:  "no objects marker",
			input: "x, y, and z extents\n1 1 1\n\n1\n\nnothing here\n",
			kind:  domain.ErrMissingObjectsMarker,
		},
		{
			name:  "bad group line",
			input: "x, y, and z extents\n1 1 1\n\n1\n<Objects>\nscene\n1\n$A\nB\n#\n",
			kind:  domain.ErrMalformedGroupLine,
			line:  9,
		},
		{
			name:  "unterminated group",
			input: "x, y, and z extents\n1 1 1\n\n1\n<Objects>\nscene\n1\n$A\n",
			kind:  domain.ErrMalformedGroupLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := compiler.NewParser().Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, doc, "no partial document on failure")
			assert.ErrorIs(t, err, tt.kind)

			var fe *domain.FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.line, fe.Line)
			assert.True(t, domain.IsFormatError(err))
		})
	}
}

func TestFormatError_Message(t *testing.T) {
	_, err := compiler.NewParser().Parse(strings.NewReader("x, y, and z extents\n3 3\n"))
	require.Error(t, err)
	assert.Equal(t, `malformed extents at line 2: expected three integers dx dy dz, found "3 3"`, err.Error())
}
