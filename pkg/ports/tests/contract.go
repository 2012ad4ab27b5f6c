package tests

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// ProviderContractTest verifies that an adapter complies with ports.ObjectProvider.
// want lists the objects the adapter was seeded with; order is not checked.
func ProviderContractTest(t *testing.T, provider ports.ObjectProvider, want []domain.Object) {
	t.Helper()
	ctx := context.Background()

	t.Run("Objects_Complete", func(t *testing.T) {
		got, err := provider.Objects(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing objects: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d objects, got %d", len(want), len(got))
		}

		lookup := make(map[string]domain.Object, len(got))
		for _, o := range got {
			lookup[o.Name] = o
		}
		for _, w := range want {
			o, ok := lookup[w.Name]
			if !ok {
				t.Errorf("object %s missing from provider", w.Name)
				continue
			}
			if o.Ref != w.Ref {
				t.Errorf("ref mismatch for %s. got %q, want %q", w.Name, o.Ref, w.Ref)
			}
		}
	})

	t.Run("Objects_Repeatable", func(t *testing.T) {
		first, err := provider.Objects(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := provider.Objects(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(first) != len(second) {
			t.Errorf("provider is not stable: %d then %d objects", len(first), len(second))
		}
	})
}

// DocumentLoaderContractTest verifies that an adapter complies with ports.DocumentLoader.
// name must load successfully and yield want; missing must fail.
func DocumentLoaderContractTest(t *testing.T, loader ports.DocumentLoader, name, missing string, want []domain.Object) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		provider, err := loader.Load(ctx, name)
		if err != nil {
			t.Fatalf("unexpected error loading %s: %v", name, err)
		}
		ProviderContractTest(t, provider, want)
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		if _, err := loader.Load(ctx, missing); err == nil {
			t.Errorf("expected error loading %s, got nil", missing)
		}
	})
}
