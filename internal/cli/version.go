package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// String renders the build metadata, substituting placeholders for values
// not stamped in at link time.
func (v VersionInfo) String() string {
	version, commit, date := v.Version, v.Commit, v.Date
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("floki version %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
}

// NewVersionCmd creates the version command. Its output matches --version.
func NewVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), app.versionInfo)
			return err
		},
	}
}
