package ports

import "context"

// DocumentLoader opens the scene document named in a synth file.
// The engine calls it at most once per run, only when names are missing.
type DocumentLoader interface {
	Load(ctx context.Context, name string) (ObjectProvider, error)
}

// LoaderFunc adapts a function to DocumentLoader.
type LoaderFunc func(ctx context.Context, name string) (ObjectProvider, error)

// Load calls f(ctx, name).
func (f LoaderFunc) Load(ctx context.Context, name string) (ObjectProvider, error) {
	return f(ctx, name)
}
