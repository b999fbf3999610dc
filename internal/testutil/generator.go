// Package testutil provides scripted fakes for deliberation tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
)

// Call records one generation request observed by a MockGenerator.
type Call struct {
	SystemContext string
	Prompt        string
	AllowedTools  []string
}

// MockGenerator is a scripted core.Generator. Responses are consumed in
// order; when the script is exhausted the last entry repeats. An empty
// script yields empty content.
type MockGenerator struct {
	mu        sync.Mutex
	name      string
	responses []string
	errs      map[int]error
	latency   time.Duration
	toolUses  []string
	calls     []Call
}

// NewMockGenerator creates a generator that replies with the given
// responses in sequence.
func NewMockGenerator(responses ...string) *MockGenerator {
	return &MockGenerator{
		name:      "mock",
		responses: responses,
		errs:      map[int]error{},
	}
}

// WithName sets the generator name reported to callers.
func (m *MockGenerator) WithName(name string) *MockGenerator {
	m.name = name
	return m
}

// WithErrorAt makes the call at the given zero-based index fail instead of
// producing content.
func (m *MockGenerator) WithErrorAt(index int, err error) *MockGenerator {
	m.errs[index] = err
	return m
}

// WithLatency delays every call, respecting context cancellation.
func (m *MockGenerator) WithLatency(d time.Duration) *MockGenerator {
	m.latency = d
	return m
}

// WithToolUse emits the named tools before the content of every call.
func (m *MockGenerator) WithToolUse(tools ...string) *MockGenerator {
	m.toolUses = tools
	return m
}

// Name implements core.Generator.
func (m *MockGenerator) Name() string { return m.name }

// Generate implements core.Generator.
func (m *MockGenerator) Generate(ctx context.Context, req core.GenerateRequest, emit core.GenerateEventHandler) error {
	m.mu.Lock()
	index := len(m.calls)
	m.calls = append(m.calls, Call{
		SystemContext: req.SystemContext,
		Prompt:        req.Prompt,
		AllowedTools:  append([]string(nil), req.AllowedTools...),
	})
	err := m.errs[index]
	resp := ""
	if len(m.responses) > 0 {
		if index < len(m.responses) {
			resp = m.responses[index]
		} else {
			resp = m.responses[len(m.responses)-1]
		}
	}
	latency := m.latency
	tools := m.toolUses
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err != nil {
		return err
	}

	for _, tool := range tools {
		emit(core.ToolUseEvent(tool, nil))
	}
	emit(core.ContentEvent(resp))
	return nil
}

// Calls returns a copy of every request seen so far, in order.
func (m *MockGenerator) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns the number of requests seen so far.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// ScriptedAgents builds one MockGenerator per agent name, each scripted by
// the per-name response table. Missing names get an empty script.
func ScriptedAgents(scripts map[string][]string) map[string]*MockGenerator {
	out := make(map[string]*MockGenerator, len(scripts))
	for name, responses := range scripts {
		out[name] = NewMockGenerator(responses...).WithName(name)
	}
	return out
}

// FailingGenerator always returns the given error.
type FailingGenerator struct {
	Err error
}

// Name implements core.Generator.
func (f *FailingGenerator) Name() string { return "failing" }

// Generate implements core.Generator.
func (f *FailingGenerator) Generate(ctx context.Context, req core.GenerateRequest, emit core.GenerateEventHandler) error {
	if f.Err != nil {
		return f.Err
	}
	return fmt.Errorf("generation failed")
}
