package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/RevCBH/floki/internal/volumes"
)

// Column indexes of the volumes table
const (
	colName = iota
	colShared
	colMount
	colHostPath
)

// NewVolumesCmd creates the volumes command
func NewVolumesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "volumes",
		Short: "List the volumes declared in the configuration file",
		Long: `Volumes lists each declared volume with the host directory backing it.

Shared volumes are reused by every configuration declaring the same name.
Other volumes are kept separately for each configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.loadSession()
			if err != nil {
				return err
			}

			mounts := volumes.Resolve(s.env.Workspace, s.env.ConfigFile, s.config.Volumes)
			return RenderVolumes(cmd.OutOrStdout(), s.env.ConfigFile, mounts)
		},
	}
}

// RenderVolumes writes mounts to w as a table.
func RenderVolumes(w io.Writer, configFile string, mounts []volumes.Mount) error {
	if len(mounts) == 0 {
		_, err := fmt.Fprintf(w, "No volumes declared in %s\n", configFile)
		return err
	}

	styles := DefaultStyles()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		Headers("NAME", "SHARED", "MOUNT", "HOST PATH").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			return styles.Cell
		})

	for _, m := range mounts {
		shared := styles.Local.Render("no")
		if m.Shared {
			shared = styles.Shared.Render("yes")
		}
		row := make([]string, colHostPath+1)
		row[colName] = m.Name
		row[colShared] = shared
		row[colMount] = m.ContainerPath
		row[colHostPath] = m.HostPath
		t.Row(row...)
	}

	_, err := fmt.Fprintln(w, t.String())
	return err
}
