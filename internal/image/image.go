// Package image describes where a launch image comes from and how to get it.
package image

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RevCBH/floki/internal/yamlnode"
)

// Kind discriminates the Config union.
type Kind int

const (
	// KindName is a plain image reference pulled on demand by the engine
	KindName Kind = iota
	// KindBuild builds the image from a Dockerfile in the project
	KindBuild
	// KindYAML reads the image reference from a key in another YAML file
	KindYAML
	// KindExec runs an external command that produces the image
	KindExec
)

func (k Kind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindBuild:
		return "build"
	case KindYAML:
		return "yaml"
	case KindExec:
		return "exec"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// BuildTagSuffix is appended to build.name to form the built image's tag.
const BuildTagSuffix = ":floki"

// Default build spec values.
const (
	DefaultDockerfile = "Dockerfile"
	DefaultContext    = "."
)

// ErrUnknownShape is returned when an image entry matches none of the
// accepted forms.
var ErrUnknownShape = errors.New("image must be a string or a mapping with exactly one of build, yaml, exec")

// BuildSpec builds an image from a Dockerfile.
type BuildSpec struct {
	Name       string `yaml:"name"`
	Dockerfile string `yaml:"dockerfile"`
	Context    string `yaml:"context"`
	Target     string `yaml:"target,omitempty"`
}

// YAMLSpec reads the image name from a dotted key path in a YAML file.
type YAMLSpec struct {
	File string `yaml:"file"`
	Key  string `yaml:"key"`
}

// ExecSpec runs Command with Args to produce Image.
type ExecSpec struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Image   string   `yaml:"image"`
}

// Config is the `image` configuration entry: exactly one variant is set,
// selected by Kind.
type Config struct {
	Kind  Kind
	Ref   string
	Build *BuildSpec
	YAML  *YAMLSpec
	Exec  *ExecSpec
}

// FromName returns a Config referencing an image by name.
func FromName(ref string) Config {
	return Config{Kind: KindName, Ref: ref}
}

// UnmarshalYAML decodes the union, trying a scalar name first, then a
// mapping keyed by build, yaml or exec in that order.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var ref string
		if err := node.Decode(&ref); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*c = FromName(ref)
		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: %w", node.Line, ErrUnknownShape)
		}
		key, value := node.Content[0].Value, node.Content[1]
		switch key {
		case "build":
			spec := BuildSpec{Dockerfile: DefaultDockerfile, Context: DefaultContext}
			if err := yamlnode.DecodeStrict(value, &spec, "name", "dockerfile", "context", "target"); err != nil {
				return fmt.Errorf("image.build: %w", err)
			}
			*c = Config{Kind: KindBuild, Build: &spec}
		case "yaml":
			var spec YAMLSpec
			if err := yamlnode.DecodeStrict(value, &spec, "file", "key"); err != nil {
				return fmt.Errorf("image.yaml: %w", err)
			}
			*c = Config{Kind: KindYAML, YAML: &spec}
		case "exec":
			var spec ExecSpec
			if err := yamlnode.DecodeStrict(value, &spec, "command", "args", "image"); err != nil {
				return fmt.Errorf("image.exec: %w", err)
			}
			*c = Config{Kind: KindExec, Exec: &spec}
		default:
			return fmt.Errorf("line %d: unknown key %q: %w", node.Line, key, ErrUnknownShape)
		}
		return nil
	default:
		return fmt.Errorf("line %d: %w", node.Line, ErrUnknownShape)
	}
}

// Validate checks that the selected variant carries its required fields.
func (c Config) Validate() error {
	var missing []string
	switch c.Kind {
	case KindName:
		if c.Ref == "" {
			missing = append(missing, "image")
		}
	case KindBuild:
		if c.Build == nil || c.Build.Name == "" {
			missing = append(missing, "image.build.name")
		}
	case KindYAML:
		if c.YAML == nil || c.YAML.File == "" {
			missing = append(missing, "image.yaml.file")
		}
		if c.YAML == nil || c.YAML.Key == "" {
			missing = append(missing, "image.yaml.key")
		}
	case KindExec:
		if c.Exec == nil || c.Exec.Command == "" {
			missing = append(missing, "image.exec.command")
		}
		if c.Exec == nil || c.Exec.Image == "" {
			missing = append(missing, "image.exec.image")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
	}
	return nil
}
