package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/RevCBH/floki/internal/cli"
	"github.com/RevCBH/floki/internal/container"
)

// Build-time variables (set via ldflags)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := cli.New()
	app.SetVersion(version, commit, date)

	if err := app.Execute(); err != nil {
		styled := term.IsTerminal(int(os.Stderr.Fd()))
		fmt.Fprintln(os.Stderr, cli.FormatError(err, styled))
		os.Exit(exitCode(err))
	}
}

// exitCode propagates the main container's exit code, 1 otherwise.
func exitCode(err error) int {
	var exitErr *container.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
