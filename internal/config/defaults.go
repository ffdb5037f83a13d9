package config

const (
	DefaultConfigFile = "floki.yaml"
	DefaultMount      = "/src"
	DefaultShell      = "/bin/sh"

	// DefaultDindImage is the sidecar image used when dind is enabled
	// without naming one.
	DefaultDindImage = "docker:stable-dind"
)

// DefaultConfig returns a Config with all default values applied.
func DefaultConfig() *Config {
	return &Config{
		Init:           []string{},
		Shell:          SingleShell(DefaultShell),
		Mount:          DefaultMount,
		DockerSwitches: []string{},
		Volumes:        map[string]Volume{},
	}
}

// SidecarImage returns the sidecar image to run, or "" when dind is disabled.
func (d Dind) SidecarImage() string {
	if !d.Enabled {
		return ""
	}
	if d.Image == "" {
		return DefaultDindImage
	}
	return d.Image
}
