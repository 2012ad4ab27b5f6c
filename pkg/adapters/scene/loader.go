// Package scene resolves a scene file name to the adapter that can read it.
//
// A name with a known extension is opened directly. Any other name (for
// example the host's own "house.blend") is probed for a directory and for
// sidecar documents sharing its base name: house/, house.yaml, house.yml,
// house.json, house.db, house.sqlite, house.sqlite3. A Redis registry, when
// configured, is tried last with the base name.
//
// Names come from synth documents and must stay inside the loader's root:
// absolute names and names climbing out with ".." are rejected.
package scene

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/lattice/pkg/adapters/loam"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/adapters/scenefile"
	"github.com/aretw0/lattice/pkg/adapters/sqlite"
	"github.com/aretw0/lattice/pkg/ports"
)

var (
	// ErrSceneNotFound is returned when no adapter can serve a name.
	ErrSceneNotFound = errors.New("scene document not found")
	// ErrOutsideRoot is returned for names that leave the scene directory.
	ErrOutsideRoot = errors.New("scene name leaves the scene directory")
)

// Kind names the adapter a document is served by.
type Kind string

const (
	KindManifest  Kind = "manifest"
	KindDatabase  Kind = "sqlite"
	KindDirectory Kind = "loam"
	KindRegistry  Kind = "redis"
)

// Option configures a Loader.
type Option func(*Loader)

// WithRegistry adds a Redis registry as the last lookup.
func WithRegistry(r *redis.Registry) Option {
	return func(l *Loader) {
		l.registry = r
	}
}

// Loader implements ports.DocumentLoader over every scene adapter.
type Loader struct {
	root     string
	registry *redis.Registry
}

// NewLoader creates a loader resolving relative names against root.
func NewLoader(root string, opts ...Option) *Loader {
	l := &Loader{root: root}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Location is where a name was found.
type Location struct {
	Kind Kind
	Path string
}

// Locate finds the document for name without opening it.
func (l *Loader) Locate(name string) (Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Location{}, fmt.Errorf("%w: empty name", ErrSceneNotFound)
	}
	if !filepath.IsLocal(name) {
		return Location{}, fmt.Errorf("%w: %s", ErrOutsideRoot, name)
	}
	path := filepath.Join(l.root, name)

	if kind, ok := kindOf(filepath.Ext(path)); ok {
		if isFile(path) {
			return Location{Kind: kind, Path: path}, nil
		}
		return Location{}, fmt.Errorf("%w: %s", ErrSceneNotFound, path)
	}

	if isDir(path) {
		return Location{Kind: KindDirectory, Path: path}, nil
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	if base != path && isDir(base) {
		return Location{Kind: KindDirectory, Path: base}, nil
	}
	for _, ext := range sidecarExtensions() {
		candidate := base + ext
		if isFile(candidate) {
			kind, _ := kindOf(ext)
			return Location{Kind: kind, Path: candidate}, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %s", ErrSceneNotFound, path)
}

// Load opens the document for name.
func (l *Loader) Load(ctx context.Context, name string) (ports.ObjectProvider, error) {
	loc, err := l.Locate(name)
	if err != nil {
		if l.registry != nil && errors.Is(err, ErrSceneNotFound) {
			base := filepath.Base(strings.TrimSpace(name))
			key := strings.TrimSuffix(base, filepath.Ext(base))
			if p, rerr := l.registry.Load(ctx, key); rerr == nil {
				return p, nil
			}
		}
		return nil, err
	}

	switch loc.Kind {
	case KindManifest:
		return scenefile.Open(loc.Path)
	case KindDatabase:
		return sqlite.ReadObjects(ctx, loc.Path)
	case KindDirectory:
		return loam.Open(loc.Path)
	}
	return nil, fmt.Errorf("%w: unsupported kind %s", ErrSceneNotFound, loc.Kind)
}

func kindOf(ext string) (Kind, bool) {
	ext = strings.ToLower(ext)
	switch {
	case slices.Contains(scenefile.Extensions, ext):
		return KindManifest, true
	case slices.Contains(sqlite.Extensions, ext):
		return KindDatabase, true
	}
	return "", false
}

func sidecarExtensions() []string {
	return slices.Concat(scenefile.Extensions, sqlite.Extensions)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
