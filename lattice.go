package lattice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/aretw0/lattice/internal/compiler"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/internal/validator"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/adapters/scene"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Plan is a checked placement plan; see Engine.Plan.
type Plan = runtime.Plan

// ValidationResult lists the issues found in a document.
type ValidationResult = validator.Result

// Engine is the high-level entry point for the lattice library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime  *runtime.Engine
	provider ports.ObjectProvider
	loader   ports.DocumentLoader
	sceneDir string
	fallback bool
	unit     float64
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithProvider sets the object table names resolve against first.
func WithProvider(p ports.ObjectProvider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithObjects resolves against a fixed list of objects.
func WithObjects(objects ...domain.Object) Option {
	return func(e *Engine) {
		e.provider = memory.NewProvider(objects...)
	}
}

// WithDocumentLoader injects the loader used for the single scene reload,
// bypassing the default scene directory loader.
func WithDocumentLoader(l ports.DocumentLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithSceneDir sets the directory scene documents are looked up in (default ".").
func WithSceneDir(dir string) Option {
	return func(e *Engine) {
		e.sceneDir = dir
	}
}

// WithoutFallback disables the scene reload entirely.
func WithoutFallback() Option {
	return func(e *Engine) {
		e.fallback = false
	}
}

// WithUnit sets the world distance between neighbouring cells (default 10).
func WithUnit(unit float64) Option {
	return func(e *Engine) {
		e.unit = unit
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// New initializes a lattice Engine.
// Without WithProvider the initial scene is empty and every name is found
// through the reload. Without WithDocumentLoader, scene documents are read
// from the scene directory by the scene adapter.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		sceneDir: ".",
		fallback: true,
		unit:     domain.DefaultUnit,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.unit <= 0 || math.IsNaN(eng.unit) || math.IsInf(eng.unit, 0) {
		return nil, fmt.Errorf("unit must be a positive number, got %v", eng.unit)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.loader == nil && eng.fallback {
		eng.loader = scene.NewLoader(eng.sceneDir)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithUnit(eng.unit),
	}
	if eng.fallback {
		runtimeOpts = append(runtimeOpts, runtime.WithDocumentLoader(eng.loader))
	}
	eng.runtime = runtime.NewEngine(eng.provider, runtimeOpts...)

	return eng, nil
}

// Unit returns the configured cell spacing.
func (e *Engine) Unit() float64 {
	return e.unit
}

// Loader returns the scene document loader, or nil when fallback is off.
func (e *Engine) Loader() ports.DocumentLoader {
	if !e.fallback {
		return nil
	}
	return e.loader
}

// Parse reads a synth document.
func (e *Engine) Parse(ctx context.Context, r io.Reader) (*domain.Document, error) {
	return e.runtime.Parse(ctx, r)
}

// ParseFile reads the synth document at path.
func (e *Engine) ParseFile(ctx context.Context, path string) (*domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open synth file: %w", err)
	}
	defer f.Close()

	doc, err := e.Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Resolve resolves the document catalog, reloading the named scene once if
// some names are missing.
func (e *Engine) Resolve(ctx context.Context, doc *domain.Document) (*domain.Resolution, error) {
	return e.runtime.Resolve(ctx, doc)
}

// Plan resolves doc and returns the checked placement plan.
func (e *Engine) Plan(ctx context.Context, doc *domain.Document) (*Plan, *domain.Resolution, error) {
	res, err := e.Resolve(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	plan, err := e.runtime.NewPlan(doc, res)
	if err != nil {
		return nil, res, err
	}
	return plan, res, nil
}

// Collect resolves doc and returns every placement in the report.
func (e *Engine) Collect(ctx context.Context, doc *domain.Document) (*domain.Report, error) {
	return e.runtime.Collect(ctx, doc)
}

// Execute resolves doc and hands every placement to inst in traversal order.
func (e *Engine) Execute(ctx context.Context, doc *domain.Document, inst ports.Instantiator) (*domain.Report, error) {
	return e.runtime.Execute(ctx, doc, inst)
}

// Run parses r and executes it.
func (e *Engine) Run(ctx context.Context, r io.Reader, inst ports.Instantiator) (*domain.Report, error) {
	return e.runtime.Run(ctx, r, inst)
}

// RunFile parses the synth document at path and executes it.
func (e *Engine) RunFile(ctx context.Context, path string, inst ports.Instantiator) (*domain.Report, error) {
	doc, err := e.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, doc, inst)
}

// Write serializes doc back to the synth format.
func (e *Engine) Write(w io.Writer, doc *domain.Document) error {
	return compiler.NewWriter().Write(w, doc)
}

// Validate reports structural issues in doc without touching the scene.
func (e *Engine) Validate(doc *domain.Document) *ValidationResult {
	return validator.Validate(doc)
}

// IsNotFound reports whether err means none of the catalog objects resolved.
func IsNotFound(err error) bool {
	return runtime.IsNotFound(err)
}
