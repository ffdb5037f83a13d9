// Package launch resolves configuration and host facts into a launch plan.
package launch

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/shlex"

	"github.com/RevCBH/floki/internal/config"
	"github.com/RevCBH/floki/internal/container"
	"github.com/RevCBH/floki/internal/environment"
	"github.com/RevCBH/floki/internal/image"
	"github.com/RevCBH/floki/internal/logging"
	"github.com/RevCBH/floki/internal/volumes"
)

// ErrNoSSHAuthSock is returned when agent forwarding is requested but the
// host has no agent socket.
var ErrNoSSHAuthSock = errors.New("unable to forward ssh socket - cannot find SSH_AUTH_SOCK in environment")

// MalformedSwitchError identifies a docker_switches entry that could not be
// split into shell words.
type MalformedSwitchError struct {
	Item string
	Err  error
}

func (e *MalformedSwitchError) Error() string {
	return fmt.Sprintf("malformed docker switch %q: %v", e.Item, e.Err)
}

func (e *MalformedSwitchError) Unwrap() error {
	return e.Err
}

// Sidecar describes the docker-in-docker helper to start alongside the
// main container.
type Sidecar struct {
	Image string
}

// User carries the host identity and whether to run the container as it.
type User struct {
	Forward bool
	UID     int
	GID     int
}

// Paths are the absolute host and container paths a launch needs.
type Paths struct {
	// WorkingDirectory is the in-container directory matching the host cwd
	WorkingDirectory string

	// Root is the host project root mounted at Spec.Mount
	Root string

	// Config is the canonical configuration file path
	Config string

	// Workspace holds volume backing directories
	Workspace string
}

// Spec is a fully resolved launch plan. Every path is absolute and no field
// needs further host lookups. Treat it as read-only once resolved.
type Spec struct {
	// Image acquires the image just before launch
	Image *image.Source

	// ImageName is the resolved image reference
	ImageName string

	Init  []string
	Shell config.Shell

	// Mount is the in-container project mount point
	Mount string

	// Entrypoint, when non-nil, overrides the image entrypoint
	Entrypoint *string

	Volumes []volumes.Mount
	User    User

	// SSHAgentSocket is the host agent socket to forward; empty disables forwarding
	SSHAgentSocket string

	// DockerSwitches are the configured switches, already split into argv tokens
	DockerSwitches []string

	// Sidecar is nil unless dind is enabled
	Sidecar *Sidecar

	Paths       Paths
	Interactive bool
}

// Options are caller decisions that are not part of the configuration.
type Options struct {
	// Interactive requests a tty for an interactive shell
	Interactive bool

	// Engine is used by image strategies that shell out during acquisition
	Engine *container.Engine
}

// Resolve combines cfg and env into a Spec. Errors are returned before any
// process is spawned, except where resolving the image name itself
// requires reading a file.
func Resolve(cfg *config.Config, env environment.Snapshot, opts Options) (*Spec, error) {
	var sidecar *Sidecar
	if img := cfg.Dind.SidecarImage(); img != "" {
		sidecar = &Sidecar{Image: img}
	}

	var entrypoint *string
	if value, ok := cfg.Entrypoint.Override(); ok {
		entrypoint = &value
	}

	var sshSocket string
	if cfg.ForwardSSHAgent {
		if !env.HasSSHAgent() {
			return nil, ErrNoSSHAuthSock
		}
		sshSocket = env.SSHAgentSocket
	}

	switches, err := DecomposeSwitches(cfg.DockerSwitches)
	if err != nil {
		return nil, err
	}

	source := image.NewSource(cfg.Image, opts.Engine)
	imageName, err := source.Name()
	if err != nil {
		return nil, fmt.Errorf("resolving image name: %w", err)
	}

	spec := &Spec{
		Image:          source,
		ImageName:      imageName,
		Init:           append([]string(nil), cfg.Init...),
		Shell:          cfg.Shell,
		Mount:          cfg.Mount,
		Entrypoint:     entrypoint,
		Volumes:        volumes.Resolve(env.Workspace, env.ConfigFile, cfg.Volumes),
		User:           User{Forward: cfg.ForwardUser, UID: env.UID, GID: env.GID},
		SSHAgentSocket: sshSocket,
		DockerSwitches: switches,
		Sidecar:        sidecar,
		Paths: Paths{
			WorkingDirectory: WorkingDirectory(env.CurrentDirectory, env.ProjectRoot, cfg.Mount),
			Root:             env.ProjectRoot,
			Config:           env.ConfigFile,
			Workspace:        env.Workspace,
		},
		Interactive: opts.Interactive,
	}

	logging.Debugf("Built spec from config and environment: %+v", *spec)
	return spec, nil
}

// DecomposeSwitches splits each entry with shell word rules and flattens
// the result, so `-e FOO='bar baz'` yields "-e" and "FOO=bar baz".
func DecomposeSwitches(entries []string) ([]string, error) {
	var flattened []string
	for _, entry := range entries {
		words, err := shlex.Split(entry)
		if err != nil {
			return nil, &MalformedSwitchError{Item: entry, Err: err}
		}
		flattened = append(flattened, words...)
	}
	return flattened, nil
}

// WorkingDirectory re-roots cwd from the host project root under the
// container mount. root must be an ancestor of cwd; anything else is a bug
// in root discovery and panics.
func WorkingDirectory(cwd, root, mount string) string {
	rel, err := filepath.Rel(root, cwd)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		panic(fmt.Sprintf("failed to deduce working directory: project root %q is not an ancestor of %q", root, cwd))
	}
	return path.Join(mount, filepath.ToSlash(rel))
}
