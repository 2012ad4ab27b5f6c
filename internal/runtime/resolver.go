package runtime

import (
	"github.com/aretw0/lattice/pkg/domain"
)

// Snapshot is an immutable name table built from a provider's objects.
// Names match exactly and case-sensitively. When a name repeats, the later
// object wins.
type Snapshot struct {
	objects    map[string]domain.Object
	duplicates []string
}

// NewSnapshot copies objects into a lookup table.
func NewSnapshot(objects []domain.Object) *Snapshot {
	s := &Snapshot{objects: make(map[string]domain.Object, len(objects))}
	for _, o := range objects {
		if _, seen := s.objects[o.Name]; seen {
			s.duplicates = append(s.duplicates, o.Name)
		}
		s.objects[o.Name] = o
	}
	return s
}

// Lookup returns the object registered under name.
func (s *Snapshot) Lookup(name string) (domain.Object, bool) {
	o, ok := s.objects[name]
	return o, ok
}

// Len returns the number of distinct names.
func (s *Snapshot) Len() int {
	return len(s.objects)
}

// Duplicates lists names that appeared more than once, in encounter order.
func (s *Snapshot) Duplicates() []string {
	return s.duplicates
}

// Resolve maps every catalog name to an object from snap.
//
// Index 0 of the result is the empty sentinel. A group whose names are all
// missing resolves to an empty list. The returned flags are global to the
// catalog. Resolve never fails; gaps are reported through the state.
func Resolve(catalog *domain.Catalog, snap *Snapshot) (*domain.ResolvedCatalog, domain.ResolutionState) {
	var state domain.ResolutionState
	resolved := &domain.ResolvedCatalog{
		Groups: make([][]domain.Object, 1, catalog.Len()+1),
	}
	resolved.Groups[0] = []domain.Object{}

	for _, group := range catalog.Groups {
		objects := make([]domain.Object, 0, len(group.Names))
		for _, name := range group.Names {
			if o, ok := snap.Lookup(name); ok {
				objects = append(objects, o)
				state.AnyFound = true
				continue
			}
			state.AnyMissing = true
			resolved.Missing = append(resolved.Missing, name)
		}
		resolved.Groups = append(resolved.Groups, objects)
	}
	return resolved, state
}
