// Package cli implements the lattice commands on top of the engine and adapters.
// cmd/lattice only maps flags onto these functions.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/adapters/process"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/adapters/scene"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/observability"
)

// App carries the resolved configuration and shared resources of one CLI run.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer

	registry *redis.Registry
}

// NewApp validates cfg and builds the logger it describes.
func NewApp(cfg *config.Config, stdout, stderr io.Writer) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &App{
		Config: cfg,
		Logger: logging.NewWriter(stderr, level, cfg.LogFormat),
		Stdout: stdout,
		Stderr: stderr,
	}, nil
}

// Close releases the Redis connection, if one was opened.
func (a *App) Close() error {
	if a.registry == nil {
		return nil
	}
	err := a.registry.Close()
	a.registry = nil
	return err
}

// Registry returns the configured Redis scene registry, or nil when no
// address is set.
func (a *App) Registry() *redis.Registry {
	if a.Config.Redis.Addr == "" {
		return nil
	}
	if a.registry == nil {
		a.registry = redis.New(a.Config.Redis.Addr, redis.WithPrefix(a.Config.Redis.Prefix))
	}
	return a.registry
}

// Hosts returns a runner for the host programs listed in the hosts file.
// Hosts start in the scene directory.
func (a *App) Hosts() (*process.Runner, error) {
	hosts, err := process.LoadHosts(a.Config.Hosts)
	if err != nil {
		return nil, err
	}
	return process.NewRunner(process.WithHosts(hosts), process.WithBaseDir(a.Config.SceneDir)), nil
}

// Loader returns the scene document loader rooted at the scene directory.
func (a *App) Loader() *scene.Loader {
	var opts []scene.Option
	if r := a.Registry(); r != nil {
		opts = append(opts, scene.WithRegistry(r))
	}
	return scene.NewLoader(a.Config.SceneDir, opts...)
}

// Engine builds an engine from the configuration. When a scene is
// configured its objects form the initial table; extra hooks run after the
// logging hooks.
func (a *App) Engine(ctx context.Context, extra ...domain.LifecycleHooks) (*lattice.Engine, error) {
	loader := a.Loader()
	opts := []lattice.Option{
		lattice.WithLogger(a.Logger),
		lattice.WithUnit(a.Config.Unit),
		lattice.WithSceneDir(a.Config.SceneDir),
		lattice.WithDocumentLoader(loader),
		lattice.WithLifecycleHooks(observability.Combine(append([]domain.LifecycleHooks{observability.LoggingHooks(a.Logger)}, extra...)...)),
	}
	if !a.Config.Fallback {
		opts = append(opts, lattice.WithoutFallback())
	}

	if a.Config.Scene != "" {
		// The configured scene is trusted and may live outside the scene directory.
		initial, name := loader, a.Config.Scene
		if filepath.IsAbs(name) || !filepath.IsLocal(name) {
			abs, err := filepath.Abs(name)
			if err != nil {
				return nil, fmt.Errorf("failed to open scene %q: %w", a.Config.Scene, err)
			}
			initial, name = scene.NewLoader(filepath.Dir(abs)), filepath.Base(abs)
		}
		provider, err := initial.Load(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to open scene %q: %w", a.Config.Scene, err)
		}
		opts = append(opts, lattice.WithProvider(provider))
		a.Logger.Debug("opened scene", "scene", a.Config.Scene)
	}

	return lattice.New(opts...)
}
