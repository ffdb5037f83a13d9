package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/RevCBH/floki/internal/config"
	"github.com/RevCBH/floki/internal/container"
	"github.com/RevCBH/floki/internal/environment"
	"github.com/RevCBH/floki/internal/launch"
	"github.com/RevCBH/floki/internal/launcher"
	"github.com/RevCBH/floki/internal/logging"
)

// VersionInfo holds build-time version metadata
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// App represents the CLI application with all wired dependencies
type App struct {
	// Root command
	rootCmd *cobra.Command

	// Global flags
	configFile string
	verbosity  int
	local      bool

	// Engine wiring, replaced in tests
	engineBinary  string
	runner        container.Runner
	detectRuntime func(binary string) (string, error)
	startSignals  func(*SignalHandler)

	versionInfo VersionInfo
}

// New creates a new CLI application
func New() *App {
	app := &App{
		engineBinary:  container.DefaultBinary,
		detectRuntime: container.DetectRuntime,
		startSignals:  (*SignalHandler).Start,
	}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetArgs overrides os.Args for the root command.
func (a *App) SetArgs(args []string) {
	a.rootCmd.SetArgs(args)
}

// SetOutput directs command output and errors to w.
func (a *App) SetOutput(w io.Writer) {
	a.rootCmd.SetOut(w)
	a.rootCmd.SetErr(w)
}

// SetVersion records build metadata for the version command and --version
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}
	a.rootCmd.Version = a.versionInfo.String()
}

// setupRootCmd configures the root Cobra command
func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "floki",
		Short: "The interactive container launcher",
		Long: `floki launches a development container described by floki.yaml.

With no subcommand, floki starts an interactive shell in the container with
the project mounted. floki.yaml is found by searching the current directory
and its parents unless --config is given.`,
		Args:          cobra.NoArgs,
		Version:       a.versionInfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.SetVerbosity(a.verbosity)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.launch(cmd.Context(), true, func(shell config.Shell) string {
				return launcher.InteractiveCommand(shell.Inner)
			})
		},
	}

	a.rootCmd.SetVersionTemplate("{{.Version}}")

	flags := a.rootCmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "",
		"Use the given configuration file instead of searching for floki.yaml")
	flags.CountVarP(&a.verbosity, "verbose", "v",
		"Increase logging verbosity (-v info, -vv debug, -vvv trace)")
	flags.BoolVarP(&a.local, "local", "l", false,
		"Run in the local directory")
	_ = flags.MarkDeprecated("local", "floki always runs in the local directory")

	a.rootCmd.AddCommand(
		NewRunCmd(a),
		NewPullCmd(a),
		NewVolumesCmd(a),
		NewVersionCmd(a),
	)
}

// session is the per-invocation state shared by subcommands.
type session struct {
	env    environment.Snapshot
	config *config.Config
	engine *container.Engine
}

// loadSession gathers the environment and loads the configuration.
func (a *App) loadSession() (*session, error) {
	env, err := environment.Gather(a.configFile)
	if err != nil {
		return nil, err
	}
	logging.Debugf("Selected configuration file: %s", env.ConfigFile)

	cfg, err := config.LoadConfig(env.ConfigFile)
	if err != nil {
		return nil, err
	}

	return &session{
		env:    env,
		config: cfg,
		engine: container.NewEngine(a.engineBinary, a.runner),
	}, nil
}

// launch resolves the launch plan and runs the main container with the
// inner command chosen by innerCommand.
func (a *App) launch(ctx context.Context, interactive bool, innerCommand func(config.Shell) string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := a.detectRuntime(a.engineBinary); err != nil {
		return err
	}

	s, err := a.loadSession()
	if err != nil {
		return err
	}

	spec, err := launch.Resolve(s.config, s.env, launch.Options{
		Interactive: interactive,
		Engine:      s.engine,
	})
	if err != nil {
		return err
	}

	forward := make(chan os.Signal, forwardBuffer)
	handler := NewSignalHandler()
	handler.OnSignal(relayTo(forward))
	a.startSignals(handler)
	defer handler.Stop()

	return launcher.New(s.engine).
		ForwardSignals(forward).
		Run(ctx, spec, innerCommand(spec.Shell))
}
