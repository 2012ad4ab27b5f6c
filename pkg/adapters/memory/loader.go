package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Loader implements ports.DocumentLoader using an in-memory map of scene documents.
type Loader struct {
	mu    sync.Mutex
	docs  map[string][]domain.Object
	calls []string
}

// NewLoader creates a loader serving the given documents.
func NewLoader(docs map[string][]domain.Object) *Loader {
	l := &Loader{docs: make(map[string][]domain.Object)}
	for name, objects := range docs {
		l.docs[name] = objects
	}
	return l
}

// Add registers (or replaces) a document.
func (l *Loader) Add(name string, objects ...domain.Object) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[name] = objects
}

// Load returns a provider for the named document.
func (l *Loader) Load(ctx context.Context, name string) (ports.ObjectProvider, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)

	objects, ok := l.docs[name]
	if !ok {
		return nil, fmt.Errorf("scene document not found: %s", name)
	}
	return NewProvider(objects...), nil
}

// Calls returns the document names requested so far.
func (l *Loader) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Documents lists the registered document names.
func (l *Loader) Documents() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.docs))
	for k := range l.docs {
		names = append(names, k)
	}
	sort.Strings(names) // Deterministic order
	return names
}
