package cli

import (
	"github.com/spf13/cobra"

	"github.com/RevCBH/floki/internal/image"
	"github.com/RevCBH/floki/internal/logging"
)

// NewPullCmd creates the pull command
func NewPullCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull the image in the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.detectRuntime(app.engineBinary); err != nil {
				return err
			}

			s, err := app.loadSession()
			if err != nil {
				return err
			}

			logging.Debugf("Trying to pull image %+v", s.config.Image)
			_, err = image.NewSource(s.config.Image, s.engine).Pull(cmd.Context())
			return err
		},
	}
}
