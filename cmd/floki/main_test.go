package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RevCBH/floki/internal/container"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "plain error", err: errors.New("boom"), want: 1},
		{name: "container exit", err: &container.ExitError{Process: "docker run", Status: container.ExitStatus{Code: 42}}, want: 42},
		{name: "wrapped container exit", err: fmt.Errorf("launch: %w", &container.ExitError{Process: "docker run", Status: container.ExitStatus{Code: 7}}), want: 7},
		{name: "signaled", err: &container.ExitError{Process: "docker run", Status: container.ExitStatus{Signaled: true}}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
