package memory

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// Provider implements ports.ObjectProvider over a fixed list of objects.
type Provider struct {
	objects []domain.Object
}

// NewProvider creates a provider exposing objects in the given order.
func NewProvider(objects ...domain.Object) *Provider {
	cp := make([]domain.Object, len(objects))
	copy(cp, objects)
	return &Provider{objects: cp}
}

// NewProviderFromNames creates a provider whose objects use their name as Ref.
func NewProviderFromNames(names ...string) *Provider {
	objects := make([]domain.Object, 0, len(names))
	for _, n := range names {
		objects = append(objects, domain.Object{Name: n, Ref: n})
	}
	return &Provider{objects: objects}
}

// Objects returns a copy of the object list.
func (p *Provider) Objects(ctx context.Context) ([]domain.Object, error) {
	cp := make([]domain.Object, len(p.objects))
	copy(cp, p.objects)
	return cp, nil
}
