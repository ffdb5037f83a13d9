package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RevCBH/floki/internal/image"
)

// writeFile creates a file with the given content for testing
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	err := os.WriteFile(path, []byte(content), 0644)
	if err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floki.yaml")
	writeFile(t, path, "image: alpine:3\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Image != image.FromName("alpine:3") {
		t.Errorf("expected image alpine:3, got %+v", cfg.Image)
	}
	if cfg.Mount != DefaultMount {
		t.Errorf("expected Mount to be %q, got %q", DefaultMount, cfg.Mount)
	}
	if cfg.Shell != SingleShell(DefaultShell) {
		t.Errorf("expected Shell to be %q, got %+v", DefaultShell, cfg.Shell)
	}
	if cfg.Dind.Enabled {
		t.Error("expected dind to be disabled by default")
	}
	if cfg.ForwardUser || cfg.ForwardSSHAgent {
		t.Error("expected forwarding to be disabled by default")
	}
	if len(cfg.Volumes) != 0 {
		t.Errorf("expected no volumes, got %v", cfg.Volumes)
	}
	if _, ok := cfg.Entrypoint.Override(); ok {
		t.Error("expected no entrypoint override by default")
	}
}

func TestLoadConfig_FullFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floki.yaml")
	writeFile(t, path, `
image:
  build:
    name: devenv
    dockerfile: Dockerfile.dev
init:
  - echo hello
  - make deps
shell:
  inner: bash
  outer: sh
mount: /work
docker_switches:
  - -e FOO='bar baz'
  - --cap-add SYS_PTRACE
forward_ssh_agent: true
dind:
  image: docker:24-dind
forward_user: true
volumes:
  cargo:
    shared: true
    mount: /root/.cargo
  build:
    mount: /build
entrypoint:
  suppress: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, image.KindBuild, cfg.Image.Kind)
	assert.Equal(t, "devenv", cfg.Image.Build.Name)
	assert.Equal(t, "Dockerfile.dev", cfg.Image.Build.Dockerfile)
	assert.Equal(t, ".", cfg.Image.Build.Context)
	assert.Equal(t, []string{"echo hello", "make deps"}, cfg.Init)
	assert.Equal(t, Shell{Inner: "bash", Outer: "sh"}, cfg.Shell)
	assert.Equal(t, "/work", cfg.Mount)
	assert.Equal(t, []string{"-e FOO='bar baz'", "--cap-add SYS_PTRACE"}, cfg.DockerSwitches)
	assert.True(t, cfg.ForwardSSHAgent)
	assert.True(t, cfg.ForwardUser)
	assert.Equal(t, Dind{Enabled: true, Image: "docker:24-dind"}, cfg.Dind)
	assert.Equal(t, map[string]Volume{
		"cargo": {Shared: true, Mount: "/root/.cargo"},
		"build": {Shared: false, Mount: "/build"},
	}, cfg.Volumes)

	value, ok := cfg.Entrypoint.Override()
	assert.True(t, ok)
	assert.Equal(t, "", value)
}

func TestLoadConfig_RelativeYAMLImageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floki.yaml")
	writeFile(t, path, "image:\n  yaml:\n    file: ci/.gitlab-ci.yml\n    key: variables.image\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ci/.gitlab-ci.yml"), cfg.Image.YAML.File)
}

func TestLoadConfig_AbsoluteYAMLImageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floki.yaml")
	writeFile(t, path, "image:\n  yaml:\n    file: /etc/images.yaml\n    key: a\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/images.yaml", cfg.Image.YAML.File)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "floki.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "problem opening the configuration file")
}

func TestLoadConfig_UnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floki.yaml")
	writeFile(t, path, "image: alpine\ndocker_in_docker: true\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "problem parsing the configuration file")
	assert.Contains(t, err.Error(), "docker_in_docker")
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floki.yaml")
	writeFile(t, path, "image: alpine\nmount: relative/path\n")

	_, err := LoadConfig(path)
	require.Error(t, err)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "mount", vErr.Field)
}

func TestLoadConfig_RendersTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floki.yaml")
	t.Setenv("FLOKI_TEST_IMAGE", "rendered:1")
	writeFile(t, path, "image: {{ .Env.FLOKI_TEST_IMAGE }}\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, image.FromName("rendered:1"), cfg.Image)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse([]byte(""))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "empty"))
}

func TestShell_Unmarshal(t *testing.T) {
	cfg, err := Parse([]byte("image: a\nshell: bash\n"))
	require.NoError(t, err)
	assert.Equal(t, Shell{Inner: "bash", Outer: "bash"}, cfg.Shell)

	cfg, err = Parse([]byte("image: a\nshell:\n  outer: sh\n  inner: bash\n"))
	require.NoError(t, err)
	assert.Equal(t, Shell{Inner: "bash", Outer: "sh"}, cfg.Shell)
}

func TestShell_UnmarshalRejects(t *testing.T) {
	tests := []string{
		"image: a\nshell:\n  inner: bash\n",
		"image: a\nshell:\n  inner: bash\n  outer: sh\n  extra: zsh\n",
		"image: a\nshell: [bash]\n",
	}
	for _, doc := range tests {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestDind_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want Dind
	}{
		{name: "enabled", doc: "dind: true", want: Dind{Enabled: true}},
		{name: "disabled", doc: "dind: false", want: Dind{}},
		{name: "image", doc: "dind:\n  image: dind:custom", want: Dind{Enabled: true, Image: "dind:custom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte("image: a\n" + tt.doc + "\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Dind)
		})
	}

	_, err := Parse([]byte("image: a\ndind: sometimes\n"))
	assert.Error(t, err)
}

func TestDind_MappingRequiresImage(t *testing.T) {
	for _, doc := range []string{
		"dind: {}",
		"dind:\n  image: ''",
		"dind:\n  image:",
	} {
		_, err := Parse([]byte("image: a\n" + doc + "\n"))
		require.Error(t, err, doc)
		assert.Contains(t, err.Error(), "dind mapping requires a non-empty image", doc)
	}

	_, err := Parse([]byte("image: a\ndind:\n  tag: latest\n"))
	assert.Error(t, err)
}

func TestEntrypoint_Unmarshal(t *testing.T) {
	cfg, err := Parse([]byte("image: a\nentrypoint:\n  suppress: false\n"))
	require.NoError(t, err)
	_, ok := cfg.Entrypoint.Override()
	assert.False(t, ok)

	_, err = Parse([]byte("image: a\nentrypoint: none\n"))
	assert.Error(t, err)
}
