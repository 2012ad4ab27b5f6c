package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/adapters/file"
	"github.com/aretw0/lattice/pkg/adapters/sqlite"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Sink is an instantiator the plan command owns for one run.
// Pass Instantiator itself to the engine so buffered sinks get flushed.
type Sink struct {
	ports.Instantiator

	// Target describes where placements went, for the run summary.
	Target string
	// RunID is set by sinks that tag their records with a run.
	RunID string

	abort  func() error
	close  func() error
	output func() string
}

// Output returns what a host program printed, if the sink started one.
func (s *Sink) Output() string {
	if s.output == nil {
		return ""
	}
	return s.output()
}

// Finish aborts the sink when runErr is set and releases it.
func (s *Sink) Finish(runErr error) error {
	var errs []error
	if runErr != nil && s.abort != nil {
		errs = append(errs, s.abort())
	}
	if s.close != nil {
		errs = append(errs, s.close())
	}
	return errors.Join(errs...)
}

// SinkOptions selects the placement destination.
type SinkOptions struct {
	// Spec is "", "sqlite:PATH", "redis", "redis:SCENE" or "exec:HOST".
	Spec string
	// Out is a file path for line output; empty means Stdout.
	Out string
	// Format is the line format for Stdout and file output.
	Format file.Format
}

// OpenSink opens the destination described by opts for doc. Hosts started
// by an exec sink are bound to ctx.
func (a *App) OpenSink(ctx context.Context, opts SinkOptions, doc *domain.Document) (*Sink, error) {
	kind, arg, _ := strings.Cut(opts.Spec, ":")
	switch kind {
	case "", "file":
		if opts.Out == "" {
			return &Sink{Instantiator: file.NewSink(a.Stdout, opts.Format), Target: "stdout"}, nil
		}
		fs, err := file.Create(opts.Out, opts.Format)
		if err != nil {
			return nil, err
		}
		return &Sink{Instantiator: fs, Target: fs.Path, abort: fs.Abort}, nil

	case "sqlite":
		if arg == "" {
			return nil, fmt.Errorf("sqlite sink needs a path: sqlite:PATH")
		}
		store, err := sqlite.Open(arg)
		if err != nil {
			return nil, err
		}
		sink := store.NewSink()
		return &Sink{
			Instantiator: sink,
			Target:       fmt.Sprintf("%s (run %s)", arg, sink.RunID()),
			RunID:        sink.RunID(),
			abort:        sink.Abort,
			close:        store.Close,
		}, nil

	case "redis":
		registry := a.Registry()
		if registry == nil {
			return nil, fmt.Errorf("redis sink needs redis.addr to be configured")
		}
		name := arg
		if name == "" {
			name = queueName(doc)
		}
		if name == "" {
			return nil, fmt.Errorf("redis sink needs a scene name: redis:SCENE")
		}
		q := registry.Queue(name)
		return &Sink{Instantiator: q, Target: fmt.Sprintf("redis queue %q (run %s)", name, q.RunID()), RunID: q.RunID()}, nil

	case "exec":
		runner, err := a.Hosts()
		if err != nil {
			return nil, err
		}
		env := map[string]string{
			"scene":   runtime.SceneName(doc.SceneFile),
			"extents": fmt.Sprintf("%d %d %d", doc.Grid.DX, doc.Grid.DY, doc.Grid.DZ),
			"unit":    strconv.FormatFloat(a.Config.Unit, 'g', -1, 64),
		}
		host, err := runner.Start(ctx, arg, env)
		if err != nil {
			return nil, fmt.Errorf("%w (known hosts: %s)", err, strings.Join(runner.Hosts(), ", "))
		}
		return &Sink{Instantiator: host, Target: "host " + arg, abort: host.Abort, output: host.Output}, nil
	}
	return nil, fmt.Errorf("unknown sink %q (want sqlite:PATH, redis[:SCENE] or exec:HOST)", opts.Spec)
}

// queueName derives a registry name from the scene file a document names.
func queueName(doc *domain.Document) string {
	name := filepath.Base(runtime.SceneName(doc.SceneFile))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
