// Package loam exposes a directory of object documents (Markdown with
// frontmatter, JSON or YAML) as a scene, through the Loam document library.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/loam"
)

// Provider adapts a Loam repository to ports.ObjectProvider.
// Each document is one object; its name defaults to the document ID.
type Provider struct {
	Repo *loam.TypedRepository[ObjectMetadata]
}

// New creates a provider over an existing typed repository.
func New(repo *loam.TypedRepository[ObjectMetadata]) *Provider {
	return &Provider{Repo: repo}
}

// Open initializes a read-only Loam repository at dir.
func Open(dir string) (*Provider, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ObjectMetadata](repo)), nil
}

// Objects lists every document as an object.
func (p *Provider) Objects(ctx context.Context) ([]domain.Object, error) {
	docs, err := p.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	objects := make([]domain.Object, 0, len(docs))
	for _, doc := range docs {
		name := doc.Data.Name
		if name == "" {
			name = trimExtension(doc.ID)
		}
		ref := doc.Data.Ref
		if ref == "" {
			ref = doc.ID
		}
		objects = append(objects, domain.Object{
			Name:       name,
			Ref:        ref,
			Attributes: doc.Data.Attributes,
		})
	}
	return objects, nil
}

// Loader implements ports.DocumentLoader for scene directories under root.
type Loader struct {
	root string
}

// NewLoader creates a loader resolving scene directories relative to root.
func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

// Load opens the scene directory name.
func (l *Loader) Load(ctx context.Context, name string) (ports.ObjectProvider, error) {
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("scene directory %q is outside %s", name, l.root)
	}
	dir := filepath.Join(l.root, name)
	if !isDir(dir) {
		return nil, fmt.Errorf("scene directory not found: %s", dir)
	}
	return Open(dir)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
