// Package environment captures the host facts a launch depends on.
package environment

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/RevCBH/floki/internal/config"
	"github.com/RevCBH/floki/internal/logging"
)

// ErrConfigNotFound is returned when no configuration file exists in the
// current directory or any of its ancestors.
var ErrConfigNotFound = fmt.Errorf("no %s found in tree", config.DefaultConfigFile)

// WorkspaceDirName is the directory under the user's home holding floki state.
const WorkspaceDirName = ".floki"

// Host lookups, swapped in tests.
var (
	getwd     = os.Getwd
	lookupEnv = os.LookupEnv
	getuid    = os.Getuid
	getgid    = os.Getgid
)

// Snapshot is the immutable set of host facts gathered once per invocation.
type Snapshot struct {
	// UID and GID of the invoking user
	UID int
	GID int

	// CurrentDirectory is where floki was launched
	CurrentDirectory string

	// ProjectRoot is the directory anchoring the project mount. It is the
	// directory containing the discovered configuration file, or the
	// current directory when the file was given explicitly.
	ProjectRoot string

	// ConfigFile is the canonical absolute path of the configuration file
	ConfigFile string

	// SSHAgentSocket is the agent socket path, empty when no agent is running
	SSHAgentSocket string

	// Workspace is the host directory for floki state such as volume backing dirs
	Workspace string
}

// HasSSHAgent reports whether an agent socket was found.
func (s Snapshot) HasSSHAgent() bool {
	return s.SSHAgentSocket != ""
}

// Gather collects the snapshot. configFile is the --config flag value;
// empty means search the current directory and its ancestors for floki.yaml.
func Gather(configFile string) (Snapshot, error) {
	cwd, err := getwd()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get working directory: %w", err)
	}

	root, path, err := resolveRootAndConfig(cwd, configFile)
	if err != nil {
		return Snapshot{}, err
	}

	canonical, err := normalizePath(path)
	if err != nil {
		return Snapshot{}, err
	}

	uid, gid := getuid(), getgid()
	logging.Debugf("Current user has uid %d and group %d", uid, gid)

	snap := Snapshot{
		UID:              uid,
		GID:              gid,
		CurrentDirectory: cwd,
		ProjectRoot:      root,
		ConfigFile:       canonical,
		SSHAgentSocket:   sshAgentSocket(),
		Workspace:        workspacePath(uid),
	}
	logging.Debugf("Got environment %+v", snap)
	return snap, nil
}

func resolveRootAndConfig(cwd, configFile string) (string, string, error) {
	if configFile != "" {
		if !filepath.IsAbs(configFile) {
			configFile = filepath.Join(cwd, configFile)
		}
		return cwd, configFile, nil
	}

	path, err := FindConfigFile(cwd)
	if err != nil {
		return "", "", err
	}
	return filepath.Dir(path), path, nil
}

// FindConfigFile searches dir and its ancestors for floki.yaml and returns
// the first regular file found.
func FindConfigFile(dir string) (string, error) {
	dir = filepath.Clean(dir)
	for {
		candidate := filepath.Join(dir, config.DefaultConfigFile)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}
		dir = parent
	}
}

// normalizePath makes path absolute with symlinks resolved, so the same
// file always yields the same identity. The file must exist.
func normalizePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err == nil {
		abs, err = filepath.EvalSymlinks(abs)
	}
	if err != nil {
		return "", fmt.Errorf("could not normalize the file path '%s': %w", path, err)
	}
	return abs, nil
}

func sshAgentSocket() string {
	sock, _ := lookupEnv("SSH_AUTH_SOCK")
	return sock
}

// workspacePath returns $HOME/.floki, or /tmp/<uid>/.floki without a home.
func workspacePath(uid int) string {
	home, ok := lookupEnv("HOME")
	if !ok || home == "" {
		home = filepath.Join(os.TempDir(), strconv.Itoa(uid))
	}
	return filepath.Join(home, WorkspaceDirName)
}
