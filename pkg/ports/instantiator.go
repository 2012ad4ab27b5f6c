package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// Instantiator performs a placement in the host scene (duplicate, link, move).
// It is invoked once per command, in emission order.
type Instantiator interface {
	Instantiate(ctx context.Context, cmd domain.PlacementCommand) error
}

// InstantiatorFunc adapts a function to Instantiator.
type InstantiatorFunc func(ctx context.Context, cmd domain.PlacementCommand) error

// Instantiate calls f(ctx, cmd).
func (f InstantiatorFunc) Instantiate(ctx context.Context, cmd domain.PlacementCommand) error {
	return f(ctx, cmd)
}

// Flusher is implemented by instantiators that buffer output.
type Flusher interface {
	Flush(ctx context.Context) error
}
