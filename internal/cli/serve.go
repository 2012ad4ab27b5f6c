package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	httpadapter "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/adapters/mcp"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ShutdownTimeout bounds the graceful shutdown of the servers.
const ShutdownTimeout = 5 * time.Second

// NewServer builds the HTTP planning server with events and, when enabled,
// metrics wired into the engine.
func (a *App) NewServer(ctx context.Context) (*httpadapter.Server, error) {
	streams := httpadapter.NewStreamManager()
	hooks := []domain.LifecycleHooks{streams.Hooks()}
	opts := []httpadapter.Option{httpadapter.WithLogger(a.Logger)}

	if a.Config.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		hooks = append(hooks, observability.NewMetrics(reg).Hooks())
		opts = append(opts, httpadapter.WithMetrics(reg))
	}

	eng, err := a.Engine(ctx, hooks...)
	if err != nil {
		return nil, err
	}
	srv := httpadapter.NewServer(eng, opts...)
	srv.Streams = streams
	return srv, nil
}

// Serve runs the HTTP planning server on addr until ctx is done.
func (a *App) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.Config.HTTP.Addr
	}
	srv, err := a.NewServer(ctx)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		a.Logger.Info("starting lattice server", "addr", addr, "scene_dir", a.Config.SceneDir, "metrics", a.Config.Metrics)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		a.Logger.Info("start shutdown")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			if err := httpServer.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		a.Logger.Info("lattice server stopped gracefully")
		return nil
	}
}

// MCPOptions configures the MCP server.
type MCPOptions struct {
	// Transport is stdio or sse.
	Transport string
	Addr      string
	BaseURL   string
}

// ServeMCP runs the MCP tool server on the selected transport.
func (a *App) ServeMCP(ctx context.Context, opts MCPOptions) error {
	eng, err := a.Engine(ctx)
	if err != nil {
		return err
	}
	srv := mcp.NewServer(eng, a.Logger)

	switch opts.Transport {
	case "", "stdio":
		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		a.Logger.Info("starting lattice MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		addr := opts.Addr
		if addr == "" {
			addr = a.Config.HTTP.Addr
		}
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost" + addr
		}
		a.Logger.Info("starting lattice MCP server (SSE)", "addr", addr)
		if err := srv.ServeSSE(ctx, addr, baseURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		a.Logger.Info("MCP server stopped gracefully")
		return nil
	}
	return fmt.Errorf("unknown transport %q (want stdio or sse)", opts.Transport)
}
