package loam

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/lattice/internal/testutils"
	"github.com/aretw0/lattice/pkg/domain"
	contract "github.com/aretw0/lattice/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var houseFiles = map[string]string{
	"wall.md": `---
name: Wall
ref: mesh/wall
attributes:
  material: brick
---
Exterior wall segment.`,
	"roof.json": `{"name": "Roof", "ref": "mesh/roof"}`,
	"door.md": `---
ref: mesh/door
---
Name implied from filename.`,
}

func TestProvider_Contract(t *testing.T) {
	dir := testutils.TempFiles(t, houseFiles)
	provider, err := Open(dir)
	require.NoError(t, err)

	contract.ProviderContractTest(t, provider, []domain.Object{
		{Name: "Wall", Ref: "mesh/wall"},
		{Name: "Roof", Ref: "mesh/roof"},
		{Name: "door", Ref: "mesh/door"},
	})
}

func TestProvider_Attributes(t *testing.T) {
	dir := testutils.TempFiles(t, houseFiles)
	provider, err := Open(dir)
	require.NoError(t, err)

	objects, err := provider.Objects(context.Background())
	require.NoError(t, err)

	var wall domain.Object
	for _, o := range objects {
		if o.Name == "Wall" {
			wall = o
		}
	}
	assert.Equal(t, "brick", wall.Attributes["material"])
}

func TestLoader_Contract(t *testing.T) {
	root := t.TempDir()
	scene := filepath.Join(root, "house")
	require.NoError(t, os.Mkdir(scene, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(scene, "roof.json"), []byte(`{"name": "Roof", "ref": "mesh/roof"}`), 0644))

	contract.DocumentLoaderContractTest(t, NewLoader(root), "house", "garage",
		[]domain.Object{{Name: "Roof", Ref: "mesh/roof"}})
}

func TestTrimExtension(t *testing.T) {
	assert.Equal(t, "props/chair", trimExtension("props/chair.md"))
	assert.Equal(t, "chair", trimExtension("chair"))
}

func TestLoader_StaysInsideRoot(t *testing.T) {
	parent := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(parent, "house"), 0755))
	root := filepath.Join(parent, "scenes")
	require.NoError(t, os.Mkdir(root, 0755))

	_, err := NewLoader(root).Load(context.Background(), "../house")
	assert.Error(t, err)
}
