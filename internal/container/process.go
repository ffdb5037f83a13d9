package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/RevCBH/floki/internal/logging"
)

// ErrLaunchFailed is returned when a subprocess cannot be started.
var ErrLaunchFailed = errors.New("failed to launch process")

// ErrWaitFailed is returned when a started subprocess cannot be waited on.
var ErrWaitFailed = errors.New("failed to complete process")

// Stdio selects how a subprocess is attached to the launcher's standard streams.
type Stdio int

const (
	// StdioInherit hands stdin, stdout and stderr to the child.
	StdioInherit Stdio = iota

	// StdioNull connects all three streams to the null device.
	StdioNull
)

// Process describes a single subprocess invocation.
type Process struct {
	// Name is the binary to execute, looked up on PATH
	Name string

	// Args are passed to the binary as separate argv entries
	Args []string

	// Stdio controls stream attachment
	Stdio Stdio

	// Dir is the working directory; empty means the launcher's own
	Dir string

	// Signals, when set, are relayed to the process while it runs
	Signals <-chan os.Signal
}

// ExitStatus is the outcome of a process that ran to completion.
type ExitStatus struct {
	// Code is the return code; meaningless when Signaled is set
	Code int

	// Signaled reports that the process was terminated by a signal
	Signaled bool
}

// Success reports whether the process exited with return code zero.
func (s ExitStatus) Success() bool {
	return !s.Signaled && s.Code == 0
}

func (s ExitStatus) String() string {
	if s.Signaled {
		return "terminated by a signal"
	}
	return fmt.Sprintf("exited with return code %d", s.Code)
}

// Err converts an unsuccessful status into an *ExitError naming process.
// Returns nil for a successful status.
func (s ExitStatus) Err(process string) error {
	if s.Success() {
		return nil
	}
	return &ExitError{Process: process, Status: s}
}

// ExitError describes a subprocess that ran but did not succeed.
type ExitError struct {
	Process string
	Status  ExitStatus
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s %s", e.Process, e.Status)
}

// ExitCode returns the code the launcher should exit with to mirror the child.
func (e *ExitError) ExitCode() int {
	if e.Status.Signaled {
		return 1
	}
	return e.Status.Code
}

// Runner spawns a subprocess and blocks until it exits.
// A non-zero exit is reported through ExitStatus, never as an error;
// errors are reserved for failures to start or wait on the process.
type Runner interface {
	Run(ctx context.Context, p Process) (ExitStatus, error)
}

// osRunner executes real processes via exec.CommandContext.
type osRunner struct{}

// OSRunner returns a Runner backed by os/exec.
func OSRunner() Runner {
	return osRunner{}
}

func (osRunner) Run(ctx context.Context, p Process) (ExitStatus, error) {
	cmd := exec.CommandContext(ctx, p.Name, p.Args...)
	cmd.Dir = p.Dir

	switch p.Stdio {
	case StdioNull:
		// Leaving the streams nil attaches them to os.DevNull
		cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil
	default:
		cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return ExitStatus{}, fmt.Errorf("%w: %s: %w", ErrLaunchFailed, p.Name, err)
	}

	if p.Signals != nil {
		exited := make(chan struct{})
		defer close(exited)
		go relaySignals(cmd.Process, p.Signals, exited)
	}

	err := cmd.Wait()
	if err == nil {
		return ExitStatus{}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// ExitCode is -1 when the process was killed by a signal
		code := exitErr.ExitCode()
		return ExitStatus{Code: code, Signaled: code == -1}, nil
	}
	return ExitStatus{}, fmt.Errorf("%w: %s: %w", ErrWaitFailed, p.Name, err)
}

// relaySignals sends every signal from signals to proc until exited closes.
func relaySignals(proc *os.Process, signals <-chan os.Signal, exited <-chan struct{}) {
	for {
		select {
		case sig := <-signals:
			logging.Debugf("Forwarding %v to pid %d", sig, proc.Pid)
			if err := proc.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
				logging.Warnf("Failed to forward %v to pid %d: %v", sig, proc.Pid, err)
			}
		case <-exited:
			return
		}
	}
}
