package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// ObjectProvider yields the named objects available in a host scene.
// The engine takes a snapshot of the returned slice and never mutates it.
type ObjectProvider interface {
	Objects(ctx context.Context) ([]domain.Object, error)
}

// ProviderFunc adapts a function to ObjectProvider.
type ProviderFunc func(ctx context.Context) ([]domain.Object, error)

// Objects calls f(ctx).
func (f ProviderFunc) Objects(ctx context.Context) ([]domain.Object, error) {
	return f(ctx)
}
