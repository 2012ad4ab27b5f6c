package scenefile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/scenefile"
	"github.com/aretw0/lattice/pkg/domain"
	contract "github.com/aretw0/lattice/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const houseYAML = `name: house
objects:
  - Wall
  - name: Roof
    ref: mesh/roof
    attributes:
      material: slate
      floors: 2
`

func TestParse_YAML(t *testing.T) {
	m, err := scenefile.Parse([]byte(houseYAML), ".yaml")
	require.NoError(t, err)

	assert.Equal(t, "house", m.Name)
	require.Len(t, m.Entries, 2)
	assert.Equal(t, domain.Object{Name: "Wall", Ref: "Wall"}, m.Entries[0])
	assert.Equal(t, "mesh/roof", m.Entries[1].Ref)
	assert.Equal(t, map[string]string{"material": "slate", "floors": "2"}, m.Entries[1].Attributes)
}

func TestParse_JSON(t *testing.T) {
	m, err := scenefile.Parse([]byte(`{"objects":["A",{"name":"B","ref":"b"}]}`), ".json")
	require.NoError(t, err)
	assert.Equal(t, []domain.Object{{Name: "A", Ref: "A"}, {Name: "B", Ref: "b"}}, m.Entries)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing name":  "objects:\n  - ref: x\n",
		"unknown field": "objects:\n  - name: A\n    colour: red\n",
		"bad yaml":      "objects: [\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := scenefile.Parse([]byte(input), ".yaml")
			assert.Error(t, err)
		})
	}
}

func TestManifest_EncodeRoundTrip(t *testing.T) {
	m, err := scenefile.Parse([]byte(houseYAML), ".yml")
	require.NoError(t, err)

	data, err := m.Encode()
	require.NoError(t, err)

	again, err := scenefile.Parse(data, ".yaml")
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

func TestLoader_Contract(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "house.yaml"), []byte(houseYAML), 0644))

	want := []domain.Object{{Name: "Wall", Ref: "Wall"}, {Name: "Roof", Ref: "mesh/roof"}}
	contract.DocumentLoaderContractTest(t, scenefile.NewLoader(dir), "house.yaml", "garage.yaml", want)
}

func TestOpen_DefaultsNameToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "barn.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"objects":["Hay"]}`), 0644))

	m, err := scenefile.Open(path)
	require.NoError(t, err)
	assert.Equal(t, "barn", m.Name)
}

func TestLoader_StaysInsideRoot(t *testing.T) {
	parent := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(parent, "house.yaml"), []byte(houseYAML), 0644))
	root := filepath.Join(parent, "scenes")

	loader := scenefile.NewLoader(root)
	for _, name := range []string{"../house.yaml", filepath.Join(parent, "house.yaml")} {
		_, err := loader.Load(context.Background(), name)
		assert.Error(t, err, name)
	}
}
