// Package volumes maps declared volumes onto host cache directories.
package volumes

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/RevCBH/floki/internal/config"
	"github.com/RevCBH/floki/internal/logging"
)

// DirName is the workspace subdirectory holding volume backing directories.
const DirName = "volumes"

// Mount is a resolved volume: a host cache directory bound to a container path.
type Mount struct {
	Name          string
	Shared        bool
	HostPath      string
	ContainerPath string
}

// CachePath returns the host directory backing the named volume.
//
// Shared volumes live at <workspace>/volumes/<name> for every project on
// the host. Local volumes are prefixed with the sha256 of the absolute
// configuration file path, so each configuration file gets its own copy
// while repeated runs reuse it.
func CachePath(workspace, configFile, name string, shared bool) string {
	folder := name
	if !shared {
		folder = hashPath(configFile) + "-" + name
	}
	return filepath.Join(workspace, DirName, folder)
}

func hashPath(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}

// Resolve maps every declared volume to its Mount, ordered by name.
func Resolve(workspace, configFile string, declared map[string]config.Volume) []Mount {
	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, name)
	}
	sort.Strings(names)

	mounts := make([]Mount, 0, len(names))
	for _, name := range names {
		vol := declared[name]
		mounts = append(mounts, Mount{
			Name:          name,
			Shared:        vol.Shared,
			HostPath:      CachePath(workspace, configFile, name, vol.Shared),
			ContainerPath: vol.Mount,
		})
	}
	return mounts
}

// Ensure creates every backing directory that does not yet exist.
// Existing directories and their contents are left untouched.
func Ensure(mounts []Mount) error {
	for _, m := range mounts {
		logging.Tracef("Ensuring volume directory %s for %s", m.HostPath, m.Name)
		if err := os.MkdirAll(m.HostPath, 0755); err != nil {
			return fmt.Errorf("creating volume directory for %s: %w", m.Name, err)
		}
	}
	return nil
}
