package image

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RevCBH/floki/internal/container"
	"github.com/RevCBH/floki/internal/logging"
)

// ErrYAMLKeyNotFound is returned when an image.yaml key does not resolve to
// a string.
var ErrYAMLKeyNotFound = errors.New("failed to find yaml key")

// Source binds an image Config to the engine that can acquire it.
type Source struct {
	cfg    Config
	engine *container.Engine
}

// NewSource creates a Source for cfg.
func NewSource(cfg Config, engine *container.Engine) *Source {
	return &Source{cfg: cfg, engine: engine}
}

// Name resolves the image reference without acquiring the image.
// The yaml variant reads its file on every call.
func (s *Source) Name() (string, error) {
	switch s.cfg.Kind {
	case KindBuild:
		return s.cfg.Build.Name + BuildTagSuffix, nil
	case KindYAML:
		return lookupYAMLKey(s.cfg.YAML.File, s.cfg.YAML.Key)
	case KindExec:
		return s.cfg.Exec.Image, nil
	default:
		return s.cfg.Ref, nil
	}
}

// Obtain performs whatever acquisition the variant needs, then returns the
// same name Name would. Relative build paths are taken from root.
func (s *Source) Obtain(ctx context.Context, root string) (string, error) {
	name, err := s.Name()
	if err != nil {
		return "", err
	}

	switch s.cfg.Kind {
	case KindBuild:
		opts := container.BuildOptions{
			Tag:        name,
			Dockerfile: resolveAgainst(root, s.cfg.Build.Dockerfile),
			Context:    resolveAgainst(root, s.cfg.Build.Context),
			Target:     s.cfg.Build.Target,
		}
		logging.Infof("Building image %s from %s", name, opts.Dockerfile)
		if err := s.engine.Build(ctx, opts); err != nil {
			return "", err
		}
	case KindExec:
		logging.Infof("Running %s to produce image %s", s.cfg.Exec.Command, name)
		status, err := s.engine.Exec(ctx, s.cfg.Exec.Command, s.cfg.Exec.Args, "")
		if err != nil {
			return "", fmt.Errorf("failed to build image %q: %w", name, err)
		}
		if err := status.Err(s.cfg.Exec.Command); err != nil {
			return "", fmt.Errorf("failed to build image %q: %w", name, err)
		}
	}
	return name, nil
}

// Pull resolves the name and fetches it from the registry.
func (s *Source) Pull(ctx context.Context) (string, error) {
	name, err := s.Name()
	if err != nil {
		return "", err
	}
	logging.Debugf("Pulling image: %s", name)
	return name, s.engine.Pull(ctx, name)
}

func resolveAgainst(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// lookupYAMLKey reads file and walks the dotted key path. Numeric segments
// index sequences; on mappings they are tried as string keys.
func lookupYAMLKey(file, key string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading image yaml file %q: %w", file, err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parsing image yaml file %q: %w", file, err)
	}

	notFound := fmt.Errorf("%w '%s' in file '%s'", ErrYAMLKeyNotFound, key, file)
	val := doc
	for _, segment := range strings.Split(key, ".") {
		next, ok := index(val, segment)
		if !ok {
			return "", notFound
		}
		val = next
	}

	s, ok := val.(string)
	if !ok {
		return "", notFound
	}
	return s, nil
}

func index(val any, segment string) (any, bool) {
	switch v := val.(type) {
	case []any:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || i >= len(v) {
			return nil, false
		}
		return v[i], true
	case map[string]any:
		next, ok := v[segment]
		return next, ok
	case map[any]any:
		if i, err := strconv.Atoi(segment); err == nil {
			if next, ok := v[i]; ok {
				return next, true
			}
		}
		next, ok := v[segment]
		return next, ok
	default:
		return nil, false
	}
}
