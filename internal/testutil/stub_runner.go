package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/RevCBH/floki/internal/container"
)

// StubRunner is a container.Runner that records every process it is asked
// to run and answers from queued or default responses keyed by the joined
// command line ("docker run --rm ...").
type StubRunner struct {
	mu       sync.Mutex
	stubs    map[string][]stubResponse
	defaults map[string]stubResponse
	prefixes []prefixResponse
	calls    []container.Process
}

type stubResponse struct {
	status container.ExitStatus
	err    error
}

type prefixResponse struct {
	prefix string
	resp   stubResponse
}

func NewStubRunner() *StubRunner {
	return &StubRunner{
		stubs:    make(map[string][]stubResponse),
		defaults: make(map[string]stubResponse),
	}
}

// Stub queues a one-shot response for an exact command line.
func (s *StubRunner) Stub(cmdline string, status container.ExitStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs[cmdline] = append(s.stubs[cmdline], stubResponse{status: status, err: err})
}

// StubDefault sets the repeating response for an exact command line.
func (s *StubRunner) StubDefault(cmdline string, status container.ExitStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[cmdline] = stubResponse{status: status, err: err}
}

// StubPrefix answers any command line starting with prefix. Useful for
// invocations containing generated names.
func (s *StubRunner) StubPrefix(prefix string, status container.ExitStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefixes = append(s.prefixes, prefixResponse{prefix: prefix, resp: stubResponse{status: status, err: err}})
}

func (s *StubRunner) Run(ctx context.Context, p container.Process) (container.ExitStatus, error) {
	key := CommandLine(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, p)

	if queue := s.stubs[key]; len(queue) > 0 {
		s.stubs[key] = queue[1:]
		return queue[0].status, queue[0].err
	}
	if resp, ok := s.defaults[key]; ok {
		return resp.status, resp.err
	}
	for _, pr := range s.prefixes {
		if strings.HasPrefix(key, pr.prefix) {
			return pr.resp.status, pr.resp.err
		}
	}
	return container.ExitStatus{}, fmt.Errorf("unexpected process: %s", key)
}

// Calls returns every process run so far, in order.
func (s *StubRunner) Calls() []container.Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]container.Process, len(s.calls))
	copy(out, s.calls)
	return out
}

// CommandLines returns the joined command line of every call, in order.
func (s *StubRunner) CommandLines() []string {
	calls := s.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = CommandLine(c)
	}
	return out
}

// CallsFor counts calls whose command line equals the joined parts.
func (s *StubRunner) CallsFor(parts ...string) int {
	key := strings.Join(parts, " ")
	count := 0
	for _, line := range s.CommandLines() {
		if line == key {
			count++
		}
	}
	return count
}

// CallsWithPrefix counts calls whose command line starts with prefix.
func (s *StubRunner) CallsWithPrefix(prefix string) int {
	count := 0
	for _, line := range s.CommandLines() {
		if strings.HasPrefix(line, prefix) {
			count++
		}
	}
	return count
}

// CommandLine joins a process name and its arguments with spaces.
func CommandLine(p container.Process) string {
	return strings.Join(append([]string{p.Name}, p.Args...), " ")
}
