package core

import (
	"context"
	"time"
)

// =============================================================================
// Generator port
// =============================================================================

// GenerateEventType distinguishes the events a Generator emits.
type GenerateEventType string

const (
	// GenerateEventContent carries a fragment of generated text.
	GenerateEventContent GenerateEventType = "content"

	// GenerateEventToolUse signals the capability invoked a tool. Observed
	// for logging only; never reflected in the accumulated text.
	GenerateEventToolUse GenerateEventType = "tool_use"
)

// GenerateEvent is one element of a generation event stream.
type GenerateEvent struct {
	Type GenerateEventType
	Text string         // for content events
	Tool string         // for tool_use events
	Args map[string]any // optional tool arguments
}

// ContentEvent builds a content fragment event.
func ContentEvent(text string) GenerateEvent {
	return GenerateEvent{Type: GenerateEventContent, Text: text}
}

// ToolUseEvent builds a tool-invocation notification event.
func ToolUseEvent(tool string, args map[string]any) GenerateEvent {
	return GenerateEvent{Type: GenerateEventToolUse, Tool: tool, Args: args}
}

// GenerateRequest configures one generation call.
type GenerateRequest struct {
	SystemContext string
	Prompt        string
	AllowedTools  []string // tool-permission scope; empty means no tools
}

// GenerateEventHandler receives events as the capability emits them.
type GenerateEventHandler func(GenerateEvent)

// Generator is the opaque text-completion capability backing an agent.
// Generate blocks until the stream is exhausted, invoking emit for each
// event in order. A returned error is phase-fatal to the caller.
type Generator interface {
	// Name returns the capability identifier (e.g. "claude", "mock").
	Name() string

	// Generate runs one request, streaming events through emit.
	Generate(ctx context.Context, req GenerateRequest, emit GenerateEventHandler) error
}

// =============================================================================
// Progress sink port
// =============================================================================

// ProgressEventType identifies significant session events.
type ProgressEventType string

const (
	ProgressSessionStarted   ProgressEventType = "session_started"
	ProgressSessionCompleted ProgressEventType = "session_completed"
	ProgressSessionFailed    ProgressEventType = "session_failed"
	ProgressPhaseStarted     ProgressEventType = "phase_started"
	ProgressPhaseCompleted   ProgressEventType = "phase_completed"
	ProgressAgentCompleted   ProgressEventType = "agent_completed"
	ProgressRoundCompleted   ProgressEventType = "round_completed"
	ProgressVoteCast         ProgressEventType = "vote_cast"
	ProgressWinner           ProgressEventType = "winner_determined"
)

// ProgressEvent carries a plain-text progress message. Delivery is
// fire-and-forget: the orchestrator never awaits acknowledgment.
type ProgressEvent struct {
	Type      ProgressEventType
	Phase     Phase
	Agent     string
	Round     int
	Message   string
	Timestamp time.Time
}

// NewProgressEvent creates a progress event with the current timestamp.
func NewProgressEvent(t ProgressEventType, message string) ProgressEvent {
	return ProgressEvent{Type: t, Message: message, Timestamp: time.Now()}
}

// WithPhase attaches the phase.
func (e ProgressEvent) WithPhase(p Phase) ProgressEvent {
	e.Phase = p
	return e
}

// WithAgent attaches the agent name.
func (e ProgressEvent) WithAgent(agent string) ProgressEvent {
	e.Agent = agent
	return e
}

// WithRound attaches the review round number.
func (e ProgressEvent) WithRound(round int) ProgressEvent {
	e.Round = round
	return e
}

// ProgressSink consumes progress events. A nil or missing sink must never
// block the session; use NopSink instead of nil checks where convenient.
type ProgressSink interface {
	Notify(ProgressEvent)
}

// NopSink discards all progress events.
type NopSink struct{}

// Notify implements ProgressSink.
func (NopSink) Notify(ProgressEvent) {}

// SinkFunc adapts a function to the ProgressSink interface.
type SinkFunc func(ProgressEvent)

// Notify implements ProgressSink.
func (f SinkFunc) Notify(e ProgressEvent) { f(e) }

// =============================================================================
// Artifact writer port
// =============================================================================

// ArtifactWriter persists a text document. Invoked exactly twice per
// successful session: transcript, then winning-artifact document.
type ArtifactWriter interface {
	WriteArtifact(path string, content string) error
}
