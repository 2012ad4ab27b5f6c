package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	contract "github.com/aretw0/lattice/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Contract(t *testing.T) {
	objects := []domain.Object{
		{Name: "Wall", Ref: "mesh:wall"},
		{Name: "Roof", Ref: "mesh:roof"},
	}
	contract.ProviderContractTest(t, memory.NewProvider(objects...), objects)
}

func TestLoader_Contract(t *testing.T) {
	objects := []domain.Object{{Name: "Door", Ref: "mesh:door"}}
	loader := memory.NewLoader(map[string][]domain.Object{"house.blend": objects})
	contract.DocumentLoaderContractTest(t, loader, "house.blend", "missing.blend", objects)
}

func TestLoader_RecordsCalls(t *testing.T) {
	loader := memory.NewLoader(nil)
	loader.Add("a")

	_, err := loader.Load(context.Background(), "a")
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), "b")
	require.Error(t, err)

	assert.Equal(t, []string{"a", "b"}, loader.Calls())
	assert.Equal(t, []string{"a"}, loader.Documents())
}

func TestProviderFromNames(t *testing.T) {
	objects, err := memory.NewProviderFromNames("A", "B").Objects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Object{{Name: "A", Ref: "A"}, {Name: "B", Ref: "B"}}, objects)
}

func TestRecorder(t *testing.T) {
	rec := memory.NewRecorder()
	ctx := context.Background()

	a := domain.PlacementCommand{Object: domain.Object{Name: "A"}, Position: domain.WorldPosition(1, 0, 0, 10)}
	b := domain.PlacementCommand{Object: domain.Object{Name: "B"}, Position: domain.WorldPosition(0, 1, 0, 10)}
	require.NoError(t, rec.Instantiate(ctx, a))
	require.NoError(t, rec.Instantiate(ctx, b))

	assert.Equal(t, []domain.PlacementCommand{a, b}, rec.Commands())
	instances := rec.Instances()
	require.Len(t, instances, 2)
	assert.NotEmpty(t, instances[0].ID)
	assert.NotEqual(t, instances[0].ID, instances[1].ID)

	rec.Reset()
	assert.Empty(t, rec.Commands())
}

func TestRecorder_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := memory.NewRecorder().Instantiate(ctx, domain.PlacementCommand{})
	assert.ErrorIs(t, err, context.Canceled)
}
