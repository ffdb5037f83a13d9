package container

import (
	"context"
	"fmt"
	"os"
)

// DefaultBinary is the container engine CLI invoked when none is configured.
const DefaultBinary = "docker"

// Engine drives a Docker-compatible CLI.
// Every call spawns one engine process and blocks until it exits.
type Engine struct {
	binary string // "docker" or a compatible CLI such as "podman"
	runner Runner
}

// NewEngine creates an Engine invoking binary through runner.
// A nil runner executes real processes.
func NewEngine(binary string, runner Runner) *Engine {
	if binary == "" {
		binary = DefaultBinary
	}
	if runner == nil {
		runner = OSRunner()
	}
	return &Engine{binary: binary, runner: runner}
}

// Binary returns the engine CLI name.
func (e *Engine) Binary() string {
	return e.binary
}

// Run executes the engine with args and returns its exit status.
func (e *Engine) Run(ctx context.Context, args []string, stdio Stdio) (ExitStatus, error) {
	return e.runner.Run(ctx, Process{Name: e.binary, Args: args, Stdio: stdio})
}

// RunForeground runs the engine attached to the terminal, relaying signals
// to it until it exits. signals may be nil.
func (e *Engine) RunForeground(ctx context.Context, args []string, signals <-chan os.Signal) (ExitStatus, error) {
	return e.runner.Run(ctx, Process{Name: e.binary, Args: args, Stdio: StdioInherit, Signals: signals})
}

// Exec runs an arbitrary host command through the same runner.
// Used by image strategies that shell out to user-supplied tooling.
func (e *Engine) Exec(ctx context.Context, name string, args []string, dir string) (ExitStatus, error) {
	return e.runner.Run(ctx, Process{Name: name, Args: args, Stdio: StdioInherit, Dir: dir})
}

// Pull fetches an image from its registry, streaming progress to the terminal.
func (e *Engine) Pull(ctx context.Context, image string) error {
	status, err := e.Run(ctx, []string{"pull", image}, StdioInherit)
	if err != nil {
		return fmt.Errorf("failed to pull image %q: %w", image, err)
	}
	if err := status.Err(e.binary + " pull"); err != nil {
		return fmt.Errorf("failed to pull image %q: %w", image, err)
	}
	return nil
}

// ImageExists reports whether image is present in the local image store.
// It probes with `history`, which fails for images that were never pulled.
func (e *Engine) ImageExists(ctx context.Context, image string) (bool, error) {
	status, err := e.Run(ctx, []string{"history", image}, StdioNull)
	if err != nil {
		return false, fmt.Errorf("failed to check existence of image %q: %w", image, err)
	}
	return status.Success(), nil
}

// BuildOptions configures an image build.
type BuildOptions struct {
	Tag        string // image name to tag the result with (-t)
	Dockerfile string // absolute path to the Dockerfile (-f)
	Context    string // absolute path to the build context
	Target     string // optional multi-stage target (--target)
}

// buildArgs returns the engine arguments for a build invocation.
func buildArgs(opts BuildOptions) []string {
	args := []string{"build", "-t", opts.Tag, "-f", opts.Dockerfile}
	if opts.Target != "" {
		args = append(args, "--target", opts.Target)
	}
	return append(args, opts.Context)
}

// Build builds an image, streaming build output to the terminal.
func (e *Engine) Build(ctx context.Context, opts BuildOptions) error {
	status, err := e.Run(ctx, buildArgs(opts), StdioInherit)
	if err != nil {
		return fmt.Errorf("failed to build image %q: %w", opts.Tag, err)
	}
	if err := status.Err(e.binary + " build"); err != nil {
		return fmt.Errorf("failed to build image %q: %w", opts.Tag, err)
	}
	return nil
}

// Kill terminates a running container by name.
func (e *Engine) Kill(ctx context.Context, name string) error {
	status, err := e.Run(ctx, []string{"kill", name}, StdioNull)
	if err != nil {
		return fmt.Errorf("failed to kill container %s: %w", name, err)
	}
	if err := status.Err(e.binary + " kill"); err != nil {
		return fmt.Errorf("failed to kill container %s: %w", name, err)
	}
	return nil
}
