package render

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/docsmith/renderci/internal/config"
)

// StubCall records one StubRenderer invocation.
type StubCall struct {
	Input      string
	Format     config.Format
	OutputPath string
	Args       []string
}

// StubRenderer is the test implementation of Renderer: it records every
// invocation and returns canned errors, optionally touching output files so
// path assertions hold. Safe for concurrent use.
type StubRenderer struct {
	mu    sync.Mutex
	calls []StubCall

	// FailOn, when set, is consulted per invocation; a non-nil return fails
	// that render.
	FailOn func(input string, format config.Format) error

	// Delay simulates tool latency.
	Delay time.Duration

	// CreateFiles makes the stub write an empty file at the output path on
	// success.
	CreateFiles bool
}

func (s *StubRenderer) Render(ctx context.Context, input string, format config.Format, outputPath string, opts Options) error {
	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.Delay):
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, StubCall{
		Input:      input,
		Format:     format,
		OutputPath: outputPath,
		Args:       BuildArgs(input, format, outputPath, opts),
	})
	s.mu.Unlock()

	if s.FailOn != nil {
		if err := s.FailOn(input, format); err != nil {
			return err
		}
	}
	if s.CreateFiles {
		return os.WriteFile(outputPath, nil, 0o644)
	}
	return nil
}

// Calls returns a snapshot of recorded invocations in admission order.
func (s *StubRenderer) Calls() []StubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StubCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsFor returns the formats attempted for one input, in order.
func (s *StubRenderer) CallsFor(input string) []config.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []config.Format
	for _, c := range s.calls {
		if c.Input == input {
			out = append(out, c.Format)
		}
	}
	return out
}
