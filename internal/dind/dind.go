// Package dind manages the docker-in-docker sidecar container.
package dind

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/RevCBH/floki/internal/container"
	"github.com/RevCBH/floki/internal/logging"
	"github.com/RevCBH/floki/internal/volumes"
)

const (
	// Hostname is the link alias the main container reaches the sidecar by
	Hostname = "floki-docker"

	// Port is the plaintext daemon port dockerd listens on
	Port = 2375

	// Label marks sidecar containers so orphans can be found with
	// `docker ps --filter label=floki.sidecar`
	Label = "floki.sidecar"
)

// DockerHost is the DOCKER_HOST value for containers linked to the sidecar.
var DockerHost = fmt.Sprintf("tcp://%s:%d", Hostname, Port)

// ErrAlreadyLaunched is returned when Launch is called more than once.
var ErrAlreadyLaunched = errors.New("sidecar already launched")

// State is the lifecycle stage of a sidecar.
type State int

const (
	StateUnstarted State = iota
	StateLaunching
	StateRunning
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateLaunching:
		return "launching"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Manager launches one sidecar and tracks its state.
type Manager struct {
	engine  *container.Engine
	builder *container.CommandBuilder

	mu    sync.Mutex
	state State
}

// NewManager prepares a sidecar running image with the project root and
// every volume mounted at the same paths as the main container. Nothing is
// started until Launch.
func NewManager(engine *container.Engine, image, root, mount string, mounts []volumes.Mount) *Manager {
	builder := container.NewCommandBuilder(image).
		AddSwitch("--privileged").
		AddSwitch("--label", Label).
		AddEnvironment("DOCKER_TLS_CERTDIR", "").
		AddVolume(root, mount)
	for _, m := range mounts {
		builder.AddVolume(m.HostPath, m.ContainerPath)
	}
	return &Manager{engine: engine, builder: builder}
}

// Name returns the generated container name.
func (m *Manager) Name() string {
	return m.builder.Name()
}

// Image returns the sidecar image.
func (m *Manager) Image() string {
	return m.builder.Image()
}

// State returns the current lifecycle stage.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// Preflight pulls the sidecar image unless it is already present locally.
func (m *Manager) Preflight(ctx context.Context) error {
	image := m.Image()
	exists, err := m.engine.ImageExists(ctx, image)
	if err != nil {
		return err
	}
	if exists {
		logging.Debugf("Sidecar image %s present locally", image)
		return nil
	}
	logging.Infof("Pulling sidecar image %s", image)
	return m.engine.Pull(ctx, image)
}

// Launch starts the sidecar detached and returns once the engine has
// accepted it. The daemon inside may not be ready yet; clients should retry.
// The returned Handle must be released on every exit path.
func (m *Manager) Launch(ctx context.Context) (*Handle, error) {
	m.mu.Lock()
	if m.state != StateUnstarted {
		m.mu.Unlock()
		return nil, ErrAlreadyLaunched
	}
	m.state = StateLaunching
	m.mu.Unlock()

	logging.Infof("Starting %s container with name %s", m.Image(), m.Name())
	command := []string{"dockerd", fmt.Sprintf("--host=tcp://0.0.0.0:%d", Port)}
	if err := m.builder.StartDetached(ctx, m.engine, command); err != nil {
		m.setState(StateFailed)
		return nil, err
	}

	m.setState(StateRunning)
	logging.Infof("%s launched", m.Image())
	return &Handle{manager: m}, nil
}

// Handle owns a running sidecar. It is the only thing that may stop it.
type Handle struct {
	manager *Manager
	once    sync.Once
}

// Name returns the container name the main container links against.
func (h *Handle) Name() string {
	return h.manager.Name()
}

// LinkSwitches returns the switches connecting another container to the
// sidecar under Hostname.
func (h *Handle) LinkSwitches() []string {
	return []string{"--link", h.Name() + ":" + Hostname}
}

// Release kills the sidecar and waits for the engine to confirm. Only the
// first call has any effect. A failed kill is logged, not returned, so it
// cannot mask the error that caused the unwind.
func (h *Handle) Release(ctx context.Context) {
	h.once.Do(func() {
		// Release usually runs while unwinding from a cancelled context
		ctx = context.WithoutCancel(ctx)

		name := h.Name()
		logging.Infof("Stopping daemon container %s", name)
		if err := h.manager.engine.Kill(ctx, name); err != nil {
			logging.Warnf("Failed to stop sidecar container %s: %v", name, err)
		}
		h.manager.setState(StateStopped)
	})
}
