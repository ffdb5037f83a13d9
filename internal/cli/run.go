package cli

import (
	"github.com/spf13/cobra"

	"github.com/RevCBH/floki/internal/config"
	"github.com/RevCBH/floki/internal/launcher"
)

// NewRunCmd creates the run command
func NewRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command...>",
		Short: "Run a command within the container",
		Long: `Run executes a single command in the container with the inner shell and
exits with the command's exit code. Init commands run first.

Use -- to pass flags through to the command:

  floki run -- ls -la`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.launch(cmd.Context(), false, func(shell config.Shell) string {
				return launcher.RunCommand(shell.Inner, args)
			})
		},
	}

	// Everything after the command belongs to it
	cmd.Flags().SetInterspersed(false)

	return cmd
}
