package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/aretw0/lattice/internal/compiler"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Engine runs the synth pipeline: parse, resolve (with one reload), plan, instantiate.
type Engine struct {
	parser   *compiler.Parser
	provider ports.ObjectProvider
	loader   ports.DocumentLoader
	unit     float64
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithUnit sets the world spacing between cells.
func WithUnit(unit float64) EngineOption {
	return func(e *Engine) {
		e.unit = unit
	}
}

// WithDocumentLoader enables the single scene reload when names are missing.
func WithDocumentLoader(loader ports.DocumentLoader) EngineOption {
	return func(e *Engine) {
		e.loader = loader
	}
}

// NewEngine creates an engine resolving names against provider.
// A nil provider behaves like an empty scene.
func NewEngine(provider ports.ObjectProvider, opts ...EngineOption) *Engine {
	e := &Engine{
		parser:   compiler.NewParser(),
		provider: provider,
		unit:     domain.DefaultUnit,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Unit returns the configured cell spacing.
func (e *Engine) Unit() float64 {
	return e.unit
}

// Parse reads a synth document.
func (e *Engine) Parse(ctx context.Context, r io.Reader) (*domain.Document, error) {
	doc, err := e.parser.Parse(r)
	if err != nil {
		return nil, err
	}
	g := doc.Grid
	e.logger.Info("read grid", "dx", g.DX, "dy", g.DY, "dz", g.DZ, "groups", doc.Catalog.Len())
	if e.hooks.OnParsed != nil {
		e.hooks.OnParsed(ctx, &domain.ParseEvent{
			EventBase: newEvent(domain.EventParsed),
			Extents:   [3]int{g.DX, g.DY, g.DZ},
			Groups:    doc.Catalog.Len(),
		})
	}
	return doc, nil
}

// ResolveAgainst runs a single resolution pass against provider.
func (e *Engine) ResolveAgainst(ctx context.Context, catalog *domain.Catalog, provider ports.ObjectProvider) (*domain.ResolvedCatalog, domain.ResolutionState, error) {
	var objects []domain.Object
	if provider != nil {
		var err error
		objects, err = provider.Objects(ctx)
		if err != nil {
			return nil, domain.ResolutionState{}, fmt.Errorf("failed to list scene objects: %w", err)
		}
	}
	snap := NewSnapshot(objects)
	if dupes := snap.Duplicates(); len(dupes) > 0 {
		e.logger.Debug("duplicate object names in scene, last one wins", "names", dupes)
	}
	resolved, state := Resolve(catalog, snap)
	return resolved, state, nil
}

// Resolve resolves the document catalog against the engine provider. When
// names are missing and a loader is configured, the scene document named by
// the synth file is loaded once and resolution runs again against it. A
// failed reload keeps the first result and is recorded in ReloadErr.
func (e *Engine) Resolve(ctx context.Context, doc *domain.Document) (*domain.Resolution, error) {
	scene := SceneName(doc.SceneFile)

	resolved, state, err := e.ResolveAgainst(ctx, &doc.Catalog, e.provider)
	if err != nil {
		return nil, err
	}
	e.emitResolved(ctx, scene, resolved, state, false)
	res := &domain.Resolution{Catalog: resolved, State: state}

	if !state.AnyMissing || e.loader == nil || scene == "" {
		return res, nil
	}

	e.logger.Info("objects missing, loading scene document", "scene", scene, "missing", len(resolved.Missing))
	provider, err := e.loader.Load(ctx, scene)
	if err != nil {
		e.logger.Warn("scene document could not be loaded", "scene", scene, "error", err)
		res.ReloadErr = err
		return res, nil
	}
	resolved, state, err = e.ResolveAgainst(ctx, &doc.Catalog, provider)
	if err != nil {
		e.logger.Warn("reloaded scene could not be listed", "scene", scene, "error", err)
		res.ReloadErr = err
		return res, nil
	}
	e.emitResolved(ctx, scene, resolved, state, true)
	return &domain.Resolution{Catalog: resolved, State: state, Reloaded: true}, nil
}

// NewPlan builds the placement plan for a resolved document.
func (e *Engine) NewPlan(doc *domain.Document, res *domain.Resolution) (*Plan, error) {
	return NewPlan(&doc.Grid, res.Catalog, e.unit)
}

// Run parses r, resolves it and hands every placement to inst.
func (e *Engine) Run(ctx context.Context, r io.Reader, inst ports.Instantiator) (*domain.Report, error) {
	doc, err := e.Parse(ctx, r)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, doc, inst)
}

// Execute resolves doc and instantiates its placements in traversal order.
// When nothing resolves, no placement happens and ErrNoObjectsFound is returned
// together with the report.
func (e *Engine) Execute(ctx context.Context, doc *domain.Document, inst ports.Instantiator) (*domain.Report, error) {
	report, plan, err := e.prepare(ctx, doc)
	if err != nil {
		return report, err
	}

	for z := 0; z < plan.Planes(); z++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		placed := 0
		for cmd := range plan.Plane(z) {
			if err := inst.Instantiate(ctx, cmd); err != nil {
				return report, fmt.Errorf("failed to place %s at cell %v: %w", cmd.Object.Name, cmd.Cell, err)
			}
			placed++
			if e.hooks.OnPlaced != nil {
				e.hooks.OnPlaced(ctx, &domain.PlacementEvent{EventBase: newEvent(domain.EventPlaced), Command: cmd})
			}
		}
		report.Placed += placed
		e.logger.Debug("done with plane", "z", z, "placed", placed)
		if e.hooks.OnPlane != nil {
			e.hooks.OnPlane(ctx, &domain.PlaneEvent{EventBase: newEvent(domain.EventPlane), Z: z, Placed: placed})
		}
	}

	if f, ok := inst.(ports.Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			return report, fmt.Errorf("failed to flush placements: %w", err)
		}
	}
	e.logger.Info("built object array", "placed", report.Placed)
	return report, nil
}

// Collect resolves doc and returns its placements in the report instead of
// instantiating them.
func (e *Engine) Collect(ctx context.Context, doc *domain.Document) (*domain.Report, error) {
	report, plan, err := e.prepare(ctx, doc)
	if err != nil {
		return report, err
	}
	report.Commands = plan.Collect()
	report.Placed = len(report.Commands)
	return report, nil
}

func (e *Engine) prepare(ctx context.Context, doc *domain.Document) (*domain.Report, *Plan, error) {
	res, err := e.Resolve(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	report := &domain.Report{
		Extents:   [3]int{doc.Grid.DX, doc.Grid.DY, doc.Grid.DZ},
		Groups:    doc.Catalog.Len(),
		SceneFile: SceneName(doc.SceneFile),
		State:     res.State,
		Missing:   res.Catalog.Missing,
		Reloaded:  res.Reloaded,
	}

	if !res.State.AnyFound && doc.Catalog.Len() > 0 {
		e.logger.Error("catalog objects not found in the current scene", "scene", report.SceneFile)
		return report, nil, fmt.Errorf("%w: open %q and run again", domain.ErrNoObjectsFound, report.SceneFile)
	}
	if res.State.AnyMissing {
		e.logger.Warn("some objects are missing", "scene", report.SceneFile, "missing", res.Catalog.Missing)
	}

	plan, err := e.NewPlan(doc, res)
	if err != nil {
		return report, nil, err
	}
	return report, plan, nil
}

func (e *Engine) emitResolved(ctx context.Context, scene string, resolved *domain.ResolvedCatalog, state domain.ResolutionState, reload bool) {
	e.logger.Debug("resolved catalog", "found", state.AnyFound, "missing", state.AnyMissing, "reload", reload)
	if e.hooks.OnResolved == nil {
		return
	}
	typ := domain.EventResolved
	if reload {
		typ = domain.EventReload
	}
	e.hooks.OnResolved(ctx, &domain.ResolveEvent{
		EventBase: newEvent(typ),
		SceneFile: scene,
		State:     state,
		Missing:   resolved.Missing,
		Reload:    reload,
	})
}

// SceneName trims the trailing whitespace the reader leaves on the scene file line.
func SceneName(raw string) string {
	return strings.TrimRightFunc(raw, unicode.IsSpace)
}

// IsNotFound reports whether err means nothing was resolved.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNoObjectsFound)
}

func newEvent(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t}
}
