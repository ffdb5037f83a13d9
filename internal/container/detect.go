package container

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrNoRuntime is returned when no container runtime is found.
var ErrNoRuntime = errors.New("no container runtime found")

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// DetectRuntime verifies that the engine CLI is available on PATH.
// An empty binary checks for docker.
func DetectRuntime(binary string) (string, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	path, err := lookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w (need %s on PATH): %w", ErrNoRuntime, binary, err)
	}
	return path, nil
}
