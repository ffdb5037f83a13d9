// Package launcher drives a resolved launch plan through the container engine.
package launcher

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/RevCBH/floki/internal/container"
	"github.com/RevCBH/floki/internal/dind"
	"github.com/RevCBH/floki/internal/launch"
	"github.com/RevCBH/floki/internal/logging"
	"github.com/RevCBH/floki/internal/volumes"
)

// Environment variables injected into every main container.
const (
	EnvHostUID      = "FLOKI_HOST_UID"
	EnvHostGID      = "FLOKI_HOST_GID"
	EnvHostMountDir = "FLOKI_HOST_MOUNTDIR"
)

// Launcher runs the main container described by a launch.Spec, starting
// and stopping a sidecar around it when one is configured.
type Launcher struct {
	engine  *container.Engine
	signals <-chan os.Signal
}

// New creates a Launcher using engine.
func New(engine *container.Engine) *Launcher {
	return &Launcher{engine: engine}
}

// ForwardSignals relays signals to the main container's engine process
// while it runs. Signals arriving earlier are delivered once it starts.
func (l *Launcher) ForwardSignals(signals <-chan os.Signal) *Launcher {
	l.signals = signals
	return l
}

// Run obtains the image, prepares volumes, starts the sidecar if any and
// runs innerCommand in the main container in the foreground.
//
// A main container that exits unsuccessfully is reported as a
// *container.ExitError so the caller can propagate its code. The sidecar is
// released on every return path once launched.
func (l *Launcher) Run(ctx context.Context, spec *launch.Spec, innerCommand string) error {
	imageName, err := spec.Image.Obtain(ctx, spec.Paths.Root)
	if err != nil {
		return err
	}

	if err := volumes.Ensure(spec.Volumes); err != nil {
		return err
	}

	var sidecar *dind.Handle
	if spec.Sidecar != nil {
		manager := dind.NewManager(l.engine, spec.Sidecar.Image, spec.Paths.Root, spec.Mount, spec.Volumes)
		if err := manager.Preflight(ctx); err != nil {
			return err
		}
		sidecar, err = manager.Launch(ctx)
		if err != nil {
			return fmt.Errorf("starting docker-in-docker sidecar: %w", err)
		}
		defer sidecar.Release(ctx)
	}

	cmd := l.MainCommand(spec, imageName, sidecar).ForwardSignals(l.signals)
	command := SubshellCommand(spec.Shell.Outer, spec.Init, innerCommand)
	logging.Debugf("Running container with command '%s'", command[len(command)-1])

	status, err := cmd.Run(ctx, l.engine, command)
	if err != nil {
		return err
	}
	return status.Err(l.engine.Binary() + " run")
}

// MainCommand assembles the main container invocation. sidecar may be nil.
func (l *Launcher) MainCommand(spec *launch.Spec, imageName string, sidecar *dind.Handle) *container.CommandBuilder {
	cmd := container.NewCommandBuilder(imageName).
		SetInteractive(spec.Interactive).
		AddVolume(spec.Paths.Root, spec.Mount)
	for _, m := range spec.Volumes {
		cmd.AddVolume(m.HostPath, m.ContainerPath)
	}

	cmd.AddEnvironment(EnvHostUID, strconv.Itoa(spec.User.UID)).
		AddEnvironment(EnvHostGID, strconv.Itoa(spec.User.GID)).
		AddEnvironment(EnvHostMountDir, spec.Paths.Root)

	if spec.User.Forward {
		cmd.AddSwitch("--user", fmt.Sprintf("%d:%d", spec.User.UID, spec.User.GID))
	}

	if spec.SSHAgentSocket != "" {
		logging.Debugf("Got SSH_AUTH_SOCK=%s", spec.SSHAgentSocket)
		cmd.AddEnvironment("SSH_AUTH_SOCK", spec.SSHAgentSocket).
			AddVolume(spec.SSHAgentSocket, spec.SSHAgentSocket)
	}

	if sidecar != nil {
		cmd.AddSwitch(sidecar.LinkSwitches()...).
			AddEnvironment("DOCKER_HOST", dind.DockerHost)
	}

	cmd.AddSwitch(spec.DockerSwitches...).
		SetWorkingDirectory(spec.Paths.WorkingDirectory)

	if spec.Entrypoint != nil {
		cmd.AddSwitch("--entrypoint", *spec.Entrypoint)
	}
	return cmd
}

// InteractiveCommand is the inner command for an interactive session.
func InteractiveCommand(innerShell string) string {
	return innerShell
}

// RunCommand wraps args for execution by the inner shell. Each argument is
// quoted so the shell sees exactly the words given on the command line.
func RunCommand(innerShell string, args []string) string {
	return innerShell + " -c " + quoteShellArg(shellQuote(args))
}

// SubshellCommand returns the argv run in the container: the outer shell
// executing the init commands and then inner, stopping at the first failure.
func SubshellCommand(outerShell string, init []string, inner string) []string {
	steps := make([]string, 0, len(init)+1)
	steps = append(steps, init...)
	steps = append(steps, inner)
	return []string{outerShell, "-c", strings.Join(steps, " && ")}
}

func shellQuote(parts []string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = quoteShellArg(p)
	}
	return strings.Join(quoted, " ")
}

func quoteShellArg(s string) string {
	if s == "" {
		return "''"
	}
	if isSafeShellWord(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func isSafeShellWord(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("@%_+=:,./-", r):
		default:
			return false
		}
	}
	return true
}
