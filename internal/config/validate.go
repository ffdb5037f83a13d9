package config

import (
	"errors"
	"fmt"
	"path"
	"sort"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// validateConfig checks all config values for validity.
// Returns nil if valid, or joined errors for all validation failures.
func validateConfig(cfg *Config) error {
	var errs []error

	if err := cfg.Image.Validate(); err != nil {
		errs = append(errs, &ValidationError{
			Field:   "image",
			Value:   cfg.Image.Kind,
			Message: err.Error(),
		})
	}

	// Container paths are always POSIX, whatever the host
	if !path.IsAbs(cfg.Mount) {
		errs = append(errs, &ValidationError{
			Field:   "mount",
			Value:   cfg.Mount,
			Message: "must be an absolute path",
		})
	}

	if cfg.Shell.Inner == "" || cfg.Shell.Outer == "" {
		errs = append(errs, &ValidationError{
			Field:   "shell",
			Value:   cfg.Shell,
			Message: "must not be empty",
		})
	}

	names := make([]string, 0, len(cfg.Volumes))
	for name := range cfg.Volumes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		vol := cfg.Volumes[name]
		if name == "" || name == "." || name == ".." || containsSeparator(name) {
			errs = append(errs, &ValidationError{
				Field:   "volumes",
				Value:   name,
				Message: "volume name must be a single path component",
			})
		}
		if !path.IsAbs(vol.Mount) {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("volumes.%s.mount", name),
				Value:   vol.Mount,
				Message: "must be an absolute path",
			})
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func containsSeparator(name string) bool {
	for _, r := range name {
		if r == '/' || r == '\\' {
			return true
		}
	}
	return false
}
