package service

import (
	"context"
	"time"

	"github.com/conclave-ai/conclave/internal/agent"
	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
	"github.com/conclave-ai/conclave/internal/logging"
)

// Cooldown pauses between consecutive agent calls within a phase. It must
// honor context cancellation and return the context's error when cancelled.
type Cooldown func(ctx context.Context, d time.Duration) error

// SleepCooldown is the production cooldown. Tests inject a zero-delay
// replacement instead of waiting on real time.
func SleepCooldown(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AgentOutput is one agent's accumulated text for a phase.
type AgentOutput struct {
	AgentName string
	Text      string
}

// AgentTask produces one agent's prompt-and-generate call for a phase.
type AgentTask func(ctx context.Context, a *agent.Agent) (string, error)

// PhaseRunner executes a phase across the team strictly sequentially, in
// agent instantiation order, with a cooldown between consecutive calls.
// Concurrent agent execution is deliberately unsupported: the backing
// capabilities are rate-limited and ordering is part of the protocol.
type PhaseRunner struct {
	cooldown Cooldown
	delay    time.Duration
	sink     core.ProgressSink
	logger   *logging.Logger
}

// NewPhaseRunner creates a runner. A nil cooldown gets SleepCooldown and a
// nil sink gets core.NopSink.
func NewPhaseRunner(cooldown Cooldown, delay time.Duration, sink core.ProgressSink, logger *logging.Logger) *PhaseRunner {
	if cooldown == nil {
		cooldown = SleepCooldown
	}
	if sink == nil {
		sink = core.NopSink{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PhaseRunner{cooldown: cooldown, delay: delay, sink: sink, logger: logger}
}

// Run executes the task for every agent in order. The first error aborts
// the phase; outputs collected so far are discarded by the caller. A
// cancelled context is reported as a cancellation error carrying the phase.
func (r *PhaseRunner) Run(ctx context.Context, phase core.Phase, agents []*agent.Agent, task AgentTask) ([]AgentOutput, error) {
	logger := r.logger.WithPhase(phase.String())
	outputs := make([]AgentOutput, 0, len(agents))

	for i, a := range agents {
		if err := ctx.Err(); err != nil {
			return nil, core.ErrCancelled(phase, err)
		}
		if i > 0 {
			if err := r.cooldown(ctx, r.delay); err != nil {
				return nil, core.ErrCancelled(phase, err)
			}
		}

		start := time.Now()
		text, err := task(ctx, a)
		if err != nil {
			if ctx.Err() != nil {
				return nil, core.ErrCancelled(phase, ctx.Err())
			}
			logger.Error("agent call failed", "agent", a.Name(), "error", err)
			return nil, err
		}
		logger.Debug("agent call completed", "agent", a.Name(), "elapsed", time.Since(start), "chars", len(text))

		outputs = append(outputs, AgentOutput{AgentName: a.Name(), Text: text})
		r.sink.Notify(events.AgentCompleted(phase, a.Name(), len(text)))
	}

	return outputs, nil
}
