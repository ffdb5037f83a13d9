package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/RevCBH/floki/internal/image"
	"github.com/RevCBH/floki/internal/logging"
	"github.com/RevCBH/floki/internal/yamlnode"
)

// Config is the parsed floki.yaml.
// It is immutable after creation via LoadConfig().
type Config struct {
	// Image is the container image and how to obtain it
	Image image.Config `yaml:"image"`

	// Init commands run in the container before the inner command
	Init []string `yaml:"init"`

	// Shell is the shell used inside the container
	Shell Shell `yaml:"shell"`

	// Mount is where the project root is mounted in the container
	Mount string `yaml:"mount"`

	// DockerSwitches are extra engine switches, one or more per entry
	DockerSwitches []string `yaml:"docker_switches"`

	// ForwardSSHAgent mounts the host ssh-agent socket into the container
	ForwardSSHAgent bool `yaml:"forward_ssh_agent"`

	// Dind starts a docker-in-docker sidecar
	Dind Dind `yaml:"dind"`

	// ForwardUser runs the container as the host uid:gid
	ForwardUser bool `yaml:"forward_user"`

	// Volumes are cache directories backed on the host
	Volumes map[string]Volume `yaml:"volumes"`

	// Entrypoint controls the image entrypoint
	Entrypoint Entrypoint `yaml:"entrypoint"`
}

// Volume is a named cache directory mounted into the container.
type Volume struct {
	// Shared volumes are reused by every configuration declaring the same name.
	// Unshared volumes are localised to one configuration file.
	Shared bool `yaml:"shared"`

	// Mount is the absolute in-container path
	Mount string `yaml:"mount"`
}

// Shell is either a single shell or an outer/inner pair. The outer shell
// runs init commands; the inner shell is what the user interacts with.
type Shell struct {
	Inner string `yaml:"inner"`
	Outer string `yaml:"outer"`
}

// SingleShell returns a Shell using s for both roles.
func SingleShell(s string) Shell {
	return Shell{Inner: s, Outer: s}
}

// UnmarshalYAML accepts a string or an {inner, outer} mapping.
func (s *Shell) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*s = SingleShell(single)
		return nil
	case yaml.MappingNode:
		var pair struct {
			Inner *string `yaml:"inner"`
			Outer *string `yaml:"outer"`
		}
		if err := yamlnode.DecodeStrict(node, &pair, "inner", "outer"); err != nil {
			return fmt.Errorf("shell: %w", err)
		}
		if pair.Inner == nil || pair.Outer == nil {
			return fmt.Errorf("line %d: shell mapping requires both inner and outer", node.Line)
		}
		*s = Shell{Inner: *pair.Inner, Outer: *pair.Outer}
		return nil
	default:
		return fmt.Errorf("line %d: shell must be a string or a mapping with inner and outer", node.Line)
	}
}

// Dind configures the docker-in-docker sidecar: a boolean toggle, or a
// mapping naming a custom image (which implies enabled).
type Dind struct {
	Enabled bool
	Image   string
}

// UnmarshalYAML accepts a bool or an {image} mapping.
func (d *Dind) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var toggle bool
		if err := node.Decode(&toggle); err != nil {
			return fmt.Errorf("dind: %w", err)
		}
		*d = Dind{Enabled: toggle}
		return nil
	case yaml.MappingNode:
		var spec struct {
			Image string `yaml:"image"`
		}
		if err := yamlnode.DecodeStrict(node, &spec, "image"); err != nil {
			return fmt.Errorf("dind: %w", err)
		}
		if spec.Image == "" {
			return fmt.Errorf("line %d: dind mapping requires a non-empty image", node.Line)
		}
		*d = Dind{Enabled: true, Image: spec.Image}
		return nil
	default:
		return fmt.Errorf("line %d: dind must be a bool or a mapping with image", node.Line)
	}
}

// Entrypoint controls whether the image's entrypoint is overridden.
type Entrypoint struct {
	Suppress bool `yaml:"suppress"`
}

// UnmarshalYAML accepts only the {suppress} mapping.
func (e *Entrypoint) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Suppress bool `yaml:"suppress"`
	}
	if err := yamlnode.DecodeStrict(node, &raw, "suppress"); err != nil {
		return fmt.Errorf("entrypoint: %w", err)
	}
	e.Suppress = raw.Suppress
	return nil
}

// Override returns the --entrypoint value to pass, if any.
func (e Entrypoint) Override() (string, bool) {
	if e.Suppress {
		return "", true
	}
	return "", false
}

// Parse decodes rendered configuration text on top of the defaults.
// Unknown top-level keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("configuration is empty")
		}
		return nil, err
	}
	return cfg, nil
}

// LoadConfig renders, parses and validates the configuration file at path.
//
// Parameters:
//   - path: absolute path to the configuration file
//
// Returns the validated Config or an error if any stage fails.
func LoadConfig(path string) (*Config, error) {
	logging.Debugf("Reading configuration file: %s", path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("there was a problem opening the configuration file '%s': %w", path, err)
	}

	rendered, err := Render(string(content), path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse([]byte(rendered))
	if err != nil {
		return nil, fmt.Errorf("there was a problem parsing the configuration file '%s': %w", path, err)
	}

	// A relative external yaml file is relative to the config file
	if cfg.Image.Kind == image.KindYAML && cfg.Image.YAML != nil && !filepath.IsAbs(cfg.Image.YAML.File) {
		cfg.Image.YAML.File = filepath.Join(filepath.Dir(path), cfg.Image.YAML.File)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	logging.Tracef("Parsed '%s' into configuration: %+v", path, *cfg)
	return cfg, nil
}
