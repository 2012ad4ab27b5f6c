package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/internal/validator"
	"github.com/aretw0/lattice/pkg/adapters/file"
	"github.com/aretw0/lattice/pkg/domain"
)

// PlanOptions configures the plan command.
type PlanOptions struct {
	Path string
	SinkOptions
	// Quiet suppresses the run summary.
	Quiet bool
}

// Plan runs the full pipeline on a synth file and sends every placement to
// the selected sink.
func (a *App) Plan(ctx context.Context, opts PlanOptions) (*domain.Report, error) {
	if opts.Format == "" {
		format, err := file.ParseFormat(a.Config.Output)
		if err != nil {
			return nil, err
		}
		opts.Format = format
	}

	eng, err := a.Engine(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := eng.ParseFile(ctx, opts.Path)
	if err != nil {
		return nil, err
	}
	sink, err := a.OpenSink(ctx, opts.SinkOptions, doc)
	if err != nil {
		return nil, err
	}

	report, runErr := eng.Execute(ctx, doc, sink.Instantiator)
	if err := sink.Finish(runErr); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if out := sink.Output(); out != "" {
		fmt.Fprint(a.Stdout, out)
	}
	if !opts.Quiet {
		a.summarize(report, sink.Target, runErr)
	}
	return report, runErr
}

func (a *App) summarize(report *domain.Report, target string, runErr error) {
	if report == nil {
		return
	}
	scene := runtime.SceneName(report.SceneFile)
	switch {
	case runtime.IsNotFound(runErr):
		fmt.Fprintf(a.Stderr, "%s none of the objects were found. Open %q and run again.\n", tui.Status(false, "missing"), scene)
		return
	case report.State.AnyMissing:
		fmt.Fprintf(a.Stderr, "%s %s not found in %q; their cells stay empty.\n",
			tui.Status(false, "missing"), strings.Join(report.Missing, ", "), scene)
	}
	if runErr == nil {
		fmt.Fprintf(a.Stderr, "%s %d placements to %s\n", tui.Status(true, "placed"), report.Placed, target)
	}
}

// ValidateOptions configures the validate command.
type ValidateOptions struct {
	Path string
	// Resolve also checks the catalog names against the scene.
	Resolve bool
	JSON    bool
}

// Validate parses a synth file and reports its issues. The returned error is
// set when any error-level issue was found.
func (a *App) Validate(ctx context.Context, opts ValidateOptions) (*validator.Result, error) {
	eng, err := a.Engine(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := eng.ParseFile(ctx, opts.Path)
	if err != nil {
		return nil, err
	}

	result := eng.Validate(doc)
	if opts.Resolve {
		res, err := eng.Resolve(ctx, doc)
		if err != nil {
			return result, err
		}
		if res.ReloadErr != nil {
			a.Logger.Warn("scene reload failed", "scene", runtime.SceneName(doc.SceneFile), "err", res.ReloadErr)
		}
		result.CheckResolution(res)
	}

	if opts.JSON {
		enc := json.NewEncoder(a.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return result, err
		}
		return result, result.Err()
	}

	for _, issue := range result.Issues {
		fmt.Fprintln(a.Stdout, issue.String())
	}
	if err := result.Err(); err != nil {
		return result, err
	}
	fmt.Fprintf(a.Stdout, "%s %s (%d warnings)\n", tui.Status(true, "valid"), opts.Path, len(result.Warnings()))
	return result, nil
}

// InspectOptions configures the inspect command.
type InspectOptions struct {
	Path string
	// Mermaid prints the catalog as a Mermaid flowchart instead of the report.
	Mermaid bool
	// Raw prints the markdown without terminal styling.
	Raw   bool
	Width int
}

// Inspect resolves a synth file without placing anything and prints a summary.
func (a *App) Inspect(ctx context.Context, opts InspectOptions) error {
	eng, err := a.Engine(ctx)
	if err != nil {
		return err
	}
	doc, err := eng.ParseFile(ctx, opts.Path)
	if err != nil {
		return err
	}
	res, err := eng.Resolve(ctx, doc)
	if err != nil {
		return err
	}

	if opts.Mermaid {
		_, err := fmt.Fprint(a.Stdout, graph.GenerateMermaid(doc, graph.NewOverlay(doc, res)))
		return err
	}

	result := eng.Validate(doc)
	result.CheckResolution(res)
	md := tui.Markdown(tui.Summary{
		Path:       opts.Path,
		Document:   doc,
		Resolution: res,
		Validation: result,
		Unit:       eng.Unit(),
	})

	raw := opts.Raw
	if f, ok := a.Stdout.(*os.File); !raw && (!ok || !tui.IsTerminal(f)) {
		raw = true
	}
	if raw {
		_, err := fmt.Fprint(a.Stdout, md)
		return err
	}

	width := opts.Width
	if width <= 0 {
		width = tui.Width(a.Stdout.(*os.File))
	}
	render, err := tui.NewRenderer(width)
	if err != nil {
		return err
	}
	out, err := render(md)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.Stdout, out)
	return err
}

// FormatOptions configures the fmt command.
type FormatOptions struct {
	Path string
	// Write replaces the file instead of printing to Stdout.
	Write bool
}

// Format re-serializes a synth file in canonical form.
func (a *App) Format(ctx context.Context, opts FormatOptions) error {
	eng, err := a.Engine(ctx)
	if err != nil {
		return err
	}
	doc, err := eng.ParseFile(ctx, opts.Path)
	if err != nil {
		return err
	}
	if !opts.Write {
		return eng.Write(a.Stdout, doc)
	}

	var sb strings.Builder
	if err := eng.Write(&sb, doc); err != nil {
		return err
	}
	info, err := os.Stat(opts.Path)
	if err != nil {
		return err
	}
	return os.WriteFile(opts.Path, []byte(sb.String()), info.Mode().Perm())
}
