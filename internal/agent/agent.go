// Package agent binds one persona to a text-generation capability with an
// isolated tool-permission scope.
package agent

import (
	"context"
	"strings"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// Agent is one persona-bound unit of text generation participating in
// deliberation. It never mutates shared session state; its only side
// effect is logging tool-usage notifications.
type Agent struct {
	persona   core.Persona
	generator core.Generator
	toolScope []string
	logger    *logging.Logger
}

// New creates an agent from a persona, its generation capability, and its
// tool-permission scope.
func New(persona core.Persona, generator core.Generator, toolScope []string, logger *logging.Logger) *Agent {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Agent{
		persona:   persona,
		generator: generator,
		toolScope: append([]string(nil), toolScope...),
		logger:    logger.WithAgent(persona.Name),
	}
}

// Name returns the agent's unique name within the session.
func (a *Agent) Name() string {
	return a.persona.Name
}

// Persona returns the agent's persona.
func (a *Agent) Persona() core.Persona {
	return a.persona
}

// Generate issues one request and accumulates all content fragments into a
// single string. Tool-invocation events are logged and otherwise ignored:
// the capability may use tools internally, but the returned text is
// text-only. A generator error is returned as-is and is phase-fatal to the
// caller.
func (a *Agent) Generate(ctx context.Context, prompt string) (string, error) {
	var sb strings.Builder

	req := core.GenerateRequest{
		SystemContext: a.systemContext(),
		Prompt:        prompt,
		AllowedTools:  a.toolScope,
	}

	err := a.generator.Generate(ctx, req, func(ev core.GenerateEvent) {
		switch ev.Type {
		case core.GenerateEventContent:
			sb.WriteString(ev.Text)
		case core.GenerateEventToolUse:
			a.logger.Debug("tool invoked", "tool", ev.Tool)
		}
	})
	if err != nil {
		return "", core.ErrGeneration(a.persona.Name, err)
	}

	return sb.String(), nil
}

// systemContext renders the persona into the capability's system context.
func (a *Agent) systemContext() string {
	var sb strings.Builder
	sb.WriteString("You are ")
	sb.WriteString(a.persona.Name)
	if a.persona.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(a.persona.Description)
	}
	if len(a.persona.Expertise) > 0 {
		sb.WriteString("\nExpertise: ")
		sb.WriteString(strings.Join(a.persona.Expertise, ", "))
	}
	if len(a.persona.FocusAreas) > 0 {
		sb.WriteString("\nFocus areas: ")
		sb.WriteString(strings.Join(a.persona.FocusAreas, ", "))
	}
	if a.persona.Tone != "" {
		sb.WriteString("\nTone: ")
		sb.WriteString(a.persona.Tone)
	}
	return sb.String()
}
