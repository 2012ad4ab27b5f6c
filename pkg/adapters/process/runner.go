// Package process hands placements to an external host program.
//
// Only registered hosts can be started. Placements are written to the
// host's stdin as JSON Lines; run details are passed as LATTICE_*
// environment variables, never as command-line flags.
package process

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// EnvPrefix prefixes every variable passed to a host.
const EnvPrefix = "LATTICE_"

// ErrUnknownHost is returned when a host is not on the allow-list.
var ErrUnknownHost = errors.New("host not registered")

// Runner starts registered host programs.
type Runner struct {
	registry Hosts
	baseDir  string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithHosts populates the allow-list from a loaded hosts file.
func WithHosts(hosts Hosts) RunnerOption {
	return func(r *Runner) {
		for name, h := range hosts {
			h.Name = name
			r.registry[name] = h
		}
	}
}

// WithBaseDir sets the working directory for started hosts.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new host runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(Hosts),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted host command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = Host{Name: name, Command: command, Args: args}
}

// Hosts returns the registered host names, sorted.
func (r *Runner) Hosts() []string {
	return r.registry.Names()
}

// Start launches host name. env keys are upper-cased and prefixed with
// EnvPrefix; values are passed as is.
func (r *Runner) Start(ctx context.Context, name string, env map[string]string) (*Sink, error) {
	host, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHost, name)
	}

	cmd := exec.CommandContext(ctx, host.Command, host.Args...)
	cmd.Dir = filepath.Join(r.baseDir, host.Dir)

	vars := make([]string, 0, len(host.Env)+len(env))
	for k, v := range host.Env {
		vars = append(vars, k+"="+v)
	}
	for k, v := range env {
		vars = append(vars, EnvPrefix+strings.ToUpper(k)+"="+v)
	}
	cmd.Env = append(cmd.Environ(), vars...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open host stdin: %w", err)
	}
	s := &Sink{name: name, cmd: cmd, stdin: stdin}
	cmd.Stdout = &s.stdout
	cmd.Stderr = &s.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start host %s: %w", name, err)
	}
	s.w = bufio.NewWriter(stdin)
	s.enc = json.NewEncoder(s.w)
	return s, nil
}

// Sink streams placements to a running host. It implements
// ports.Instantiator and ports.Flusher.
type Sink struct {
	name   string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	w      *bufio.Writer
	enc    *json.Encoder
	stdout bytes.Buffer
	stderr bytes.Buffer
	count  int
	done   bool
}

// Instantiate writes cmd as one JSON line.
func (s *Sink) Instantiate(ctx context.Context, cmd domain.PlacementCommand) error {
	if s.done {
		return fmt.Errorf("host %s already finished", s.name)
	}
	if err := s.enc.Encode(cmd); err != nil {
		return fmt.Errorf("failed to send placement to host %s: %w", s.name, err)
	}
	s.count++
	return nil
}

// Flush closes the host's stdin and waits for it to exit.
func (s *Sink) Flush(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.done = true
	werr := s.w.Flush()
	_ = s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("host %s failed: %w. Stderr: %s", s.name, err, strings.TrimSpace(s.stderr.String()))
	}
	if werr != nil {
		return fmt.Errorf("failed to send placements to host %s: %w", s.name, werr)
	}
	return nil
}

// Abort stops the host without waiting for it to finish its work.
func (s *Sink) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	_ = s.stdin.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return nil
}

// Count returns the number of placements sent.
func (s *Sink) Count() int {
	return s.count
}

// Output returns what the host wrote to stdout. It is complete after Flush.
func (s *Sink) Output() string {
	return s.stdout.String()
}
