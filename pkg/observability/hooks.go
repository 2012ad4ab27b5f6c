package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/lattice/pkg/domain"
)

// LoggingHooks logs every lifecycle event except individual placements,
// which are logged at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnParsed: func(ctx context.Context, e *domain.ParseEvent) {
			logger.Info("parsed", "extents", e.Extents, "groups", e.Groups)
		},
		OnResolved: func(ctx context.Context, e *domain.ResolveEvent) {
			logger.Info("resolved",
				"scene", e.SceneFile,
				"reload", e.Reload,
				"any_found", e.State.AnyFound,
				"any_missing", e.State.AnyMissing,
			)
		},
		OnPlane: func(ctx context.Context, e *domain.PlaneEvent) {
			logger.Info("plane", "z", e.Z, "placed", e.Placed)
		},
		OnPlaced: func(ctx context.Context, e *domain.PlacementEvent) {
			logger.Debug("placed", "object", e.Command.Object.Name, "cell", e.Command.Cell)
		},
	}
}

// Combine chains hooks in order. Nil callbacks are skipped.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		out.OnParsed = chain(out.OnParsed, h.OnParsed)
		out.OnResolved = chain(out.OnResolved, h.OnResolved)
		out.OnPlane = chain(out.OnPlane, h.OnPlane)
		out.OnPlaced = chain(out.OnPlaced, h.OnPlaced)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
