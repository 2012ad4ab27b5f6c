package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Loader implements ports.DocumentLoader for scene databases under a root directory.
// It opens databases read-only and never creates or migrates one.
type Loader struct {
	root string
}

// NewLoader creates a loader resolving names relative to root.
func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

// Load reads the objects of the named database and closes it.
// Names must be local to the root.
func (l *Loader) Load(ctx context.Context, name string) (ports.ObjectProvider, error) {
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("scene database %q is outside %s", name, l.root)
	}
	return ReadObjects(ctx, filepath.Join(l.root, name))
}

// ReadObjects snapshots the objects of an existing scene database at path.
func ReadObjects(ctx context.Context, path string) (ports.ObjectProvider, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("scene database not found: %w", err)
	}

	store, err := OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	objects, err := store.Objects(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot(objects), nil
}

type snapshot []domain.Object

func (s snapshot) Objects(ctx context.Context) ([]domain.Object, error) {
	return append([]domain.Object(nil), s...), nil
}
