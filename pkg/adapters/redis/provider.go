// Package redis shares scenes and placement runs through Redis.
//
// Object tables live in a hash per scene (field = object name, value = JSON
// object). Placement runs are pushed as JSON onto a list per scene.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces all keys written by this package.
const DefaultPrefix = "lattice:"

// Option configures a Registry.
type Option func(*Registry)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(r *Registry) {
		r.prefix = prefix
	}
}

// Registry is a shared table of scenes stored in Redis.
type Registry struct {
	client backend.UniversalClient
	prefix string
}

// New connects to addr.
func New(addr string, opts ...Option) *Registry {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client backend.UniversalClient, opts ...Option) *Registry {
	r := &Registry{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close closes the underlying client.
func (r *Registry) Close() error {
	return r.client.Close()
}

func (r *Registry) sceneKey(scene string) string {
	return r.prefix + "scene:" + scene
}

func (r *Registry) queueKey(scene string) string {
	return r.prefix + "placements:" + scene
}

// Put stores objects under scene, replacing same-named entries.
func (r *Registry) Put(ctx context.Context, scene string, objects ...domain.Object) error {
	if len(objects) == 0 {
		return nil
	}
	values := make([]any, 0, len(objects)*2)
	for _, o := range objects {
		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("failed to encode object %s: %w", o.Name, err)
		}
		values = append(values, o.Name, data)
	}
	if err := r.client.HSet(ctx, r.sceneKey(scene), values...).Err(); err != nil {
		return fmt.Errorf("failed to store scene %s: %w", scene, err)
	}
	return nil
}

// Scenes lists the scene names present in the registry.
func (r *Registry) Scenes(ctx context.Context) ([]string, error) {
	var scenes []string
	base := r.sceneKey("")
	iter := r.client.Scan(ctx, 0, base+"*", 100).Iterator()
	for iter.Next(ctx) {
		scenes = append(scenes, strings.TrimPrefix(iter.Val(), base))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}
	slices.Sort(scenes)
	return scenes, nil
}

// Scene returns a provider reading the named scene.
func (r *Registry) Scene(scene string) *Provider {
	return &Provider{registry: r, scene: scene}
}

// Load implements ports.DocumentLoader. A scene with no objects is not found.
func (r *Registry) Load(ctx context.Context, name string) (ports.ObjectProvider, error) {
	n, err := r.client.Exists(ctx, r.sceneKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to look up scene %s: %w", name, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("scene %q not found in registry", name)
	}
	return r.Scene(name), nil
}

// Provider implements ports.ObjectProvider over one scene hash.
type Provider struct {
	registry *Registry
	scene    string
}

// Objects returns the scene's objects ordered by name.
func (p *Provider) Objects(ctx context.Context) ([]domain.Object, error) {
	fields, err := p.registry.client.HGetAll(ctx, p.registry.sceneKey(p.scene)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read scene %s: %w", p.scene, err)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	objects := make([]domain.Object, 0, len(names))
	for _, name := range names {
		var o domain.Object
		if err := json.Unmarshal([]byte(fields[name]), &o); err != nil {
			return nil, fmt.Errorf("object %s in scene %s is corrupt: %w", name, p.scene, err)
		}
		o.Name = name
		objects = append(objects, o)
	}
	return objects, nil
}
