package container

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/RevCBH/floki/internal/logging"
)

// CommandBuilder accumulates the pieces of a `run` invocation.
// Volumes, environment and switches are kept as pre-split argv tokens so the
// engine never re-parses them.
type CommandBuilder struct {
	name        string
	image       string
	volumes     []string // "host:container"
	environment []string // "VAR=VALUE"
	switches    []string
	interactive bool
	signals     <-chan os.Signal

	// stdoutIsTerminal decides whether -i accompanies -t
	stdoutIsTerminal func() bool
}

// NewCommandBuilder starts an invocation of image under a freshly generated name.
func NewCommandBuilder(image string) *CommandBuilder {
	return &CommandBuilder{
		name:  uuid.NewString(),
		image: image,
		stdoutIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
	}
}

// Name returns the container name used when started detached.
func (b *CommandBuilder) Name() string {
	return b.name
}

// Image returns the image the invocation runs.
func (b *CommandBuilder) Image() string {
	return b.image
}

// AddVolume bind-mounts host at container.
func (b *CommandBuilder) AddVolume(host, container string) *CommandBuilder {
	b.volumes = append(b.volumes, host+":"+container)
	return b
}

// AddEnvironment sets an environment variable inside the container.
func (b *CommandBuilder) AddEnvironment(name, value string) *CommandBuilder {
	b.environment = append(b.environment, name+"="+value)
	return b
}

// AddSwitch appends raw engine switches in order.
func (b *CommandBuilder) AddSwitch(switches ...string) *CommandBuilder {
	b.switches = append(b.switches, switches...)
	return b
}

// SetWorkingDirectory sets the in-container working directory.
func (b *CommandBuilder) SetWorkingDirectory(dir string) *CommandBuilder {
	return b.AddSwitch("-w", dir)
}

// SetInteractive requests a tty for the container.
func (b *CommandBuilder) SetInteractive(interactive bool) *CommandBuilder {
	b.interactive = interactive
	return b
}

// ForwardSignals relays signals to the engine process during Run.
func (b *CommandBuilder) ForwardSignals(signals <-chan os.Signal) *CommandBuilder {
	b.signals = signals
	return b
}

func (b *CommandBuilder) volumeSwitches() []string {
	args := make([]string, 0, 2*len(b.volumes))
	for _, v := range b.volumes {
		args = append(args, "-v", v)
	}
	return args
}

func (b *CommandBuilder) environmentSwitches() []string {
	args := make([]string, 0, 2*len(b.environment))
	for _, e := range b.environment {
		args = append(args, "-e", e)
	}
	return args
}

// RunArgs returns the full foreground argument list, excluding the binary.
func (b *CommandBuilder) RunArgs(command []string) []string {
	args := []string{"run", "--rm"}
	if b.interactive {
		args = append(args, "-t")
		// Without a terminal on stdout, -i would block piped output on stdin
		if b.stdoutIsTerminal() {
			args = append(args, "-i")
		}
	}
	args = append(args, b.volumeSwitches()...)
	args = append(args, b.environmentSwitches()...)
	args = append(args, b.switches...)
	args = append(args, b.image)
	return append(args, command...)
}

// DaemonArgs returns the argument list for a detached, named invocation.
func (b *CommandBuilder) DaemonArgs(command []string) []string {
	args := []string{"run", "--rm", "--name", b.name}
	args = append(args, b.volumeSwitches()...)
	args = append(args, b.environmentSwitches()...)
	args = append(args, b.switches...)
	args = append(args, "-d", b.image)
	return append(args, command...)
}

// Run executes the invocation in the foreground with inherited stdio.
// A non-zero exit is returned as status for the caller to classify.
func (b *CommandBuilder) Run(ctx context.Context, engine *Engine, command []string) (ExitStatus, error) {
	args := b.RunArgs(command)
	logging.Debugf("Spawning %s with args: %s", engine.Binary(), strings.Join(args, " "))
	status, err := engine.RunForeground(ctx, args, b.signals)
	if err != nil {
		return ExitStatus{}, fmt.Errorf("running container: %w", err)
	}
	return status, nil
}

// StartDetached launches the invocation as a daemon and waits only for the
// engine to accept it. The container keeps running after this returns.
func (b *CommandBuilder) StartDetached(ctx context.Context, engine *Engine, command []string) error {
	args := b.DaemonArgs(command)
	logging.Debugf("Starting daemon container %s with args: %s", b.name, strings.Join(args, " "))
	status, err := engine.Run(ctx, args, StdioNull)
	if err != nil {
		return fmt.Errorf("starting container %s: %w", b.name, err)
	}
	if err := status.Err(engine.Binary() + " run"); err != nil {
		return fmt.Errorf("starting container %s: %w", b.name, err)
	}
	return nil
}
