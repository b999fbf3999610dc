// Package service runs the deliberation protocol: a team of persona-bound
// agents drafts plans, reviews peer work, validates, synthesizes, votes,
// and resolves a winner.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/conclave-ai/conclave/internal/agent"
	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
	"github.com/conclave-ai/conclave/internal/extract"
	"github.com/conclave-ai/conclave/internal/logging"
	"github.com/conclave-ai/conclave/internal/persona"
	"github.com/conclave-ai/conclave/internal/prompt"
)

// SessionConfig configures one deliberation session. Out-of-range counts
// are clamped, never rejected.
type SessionConfig struct {
	SessionID    string
	Problem      string
	AgentCount   int
	ReviewRounds int
	Cooldown     time.Duration
	ToolScope    []string
}

// Orchestrator owns the deliberation state machine. All session state is
// local to Run; an Orchestrator may serve sessions sequentially.
type Orchestrator struct {
	catalog    *persona.Catalog
	generator  core.Generator
	renderer   *prompt.Renderer
	writer     core.ArtifactWriter
	sink       core.ProgressSink
	cooldownFn Cooldown
	logger     *logging.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithProgressSink sets the progress sink.
func WithProgressSink(sink core.ProgressSink) OrchestratorOption {
	return func(o *Orchestrator) { o.sink = sink }
}

// WithCooldown replaces the inter-agent cooldown. Tests pass a zero-delay
// function so phases run without wall-clock waits.
func WithCooldown(c Cooldown) OrchestratorOption {
	return func(o *Orchestrator) { o.cooldownFn = c }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l *logging.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator wires a session runner from its collaborators. The
// renderer is loaded from the embedded templates.
func NewOrchestrator(catalog *persona.Catalog, generator core.Generator, writer core.ArtifactWriter, opts ...OrchestratorOption) (*Orchestrator, error) {
	renderer, err := prompt.NewRenderer()
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		catalog:   catalog,
		generator: generator,
		renderer:  renderer,
		writer:    writer,
		sink:      core.NopSink{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// ballot is the structured value expected from a voting response.
type ballot struct {
	VotedFor string `json:"votedFor"`
	Reason   string `json:"reason"`
}

// Run executes a full deliberation session. It returns the resolved result
// on success. The only escaping error categories are configuration (before
// the session starts), generation, cancellation, and persistence; catalog
// and extraction failures are absorbed by their fallbacks. No artifacts
// are written when the session aborts.
func (o *Orchestrator) Run(ctx context.Context, cfg SessionConfig) (*core.SessionResult, error) {
	if strings.TrimSpace(cfg.Problem) == "" {
		return nil, core.ErrConfig(core.CodeEmptyProblem, "problem statement is empty")
	}
	if o.generator == nil {
		return nil, core.ErrConfig(core.CodeNoGenerator, "no generation capability configured")
	}

	agentCount := core.ClampAgentCount(cfg.AgentCount)
	rounds := core.ClampReviewRounds(cfg.ReviewRounds)
	if cfg.SessionID == "" {
		cfg.SessionID = NewSessionID()
	}

	logger := o.logger.WithSession(cfg.SessionID)
	runner := NewPhaseRunner(o.cooldownFn, cfg.Cooldown, o.sink, logger)
	started := time.Now()

	logger.Info("session starting", "agents", agentCount, "rounds", rounds)
	o.sink.Notify(events.SessionStarted(agentCount, rounds))

	transcript := NewTranscript(cfg.SessionID, cfg.Problem, started)

	result, err := o.deliberate(ctx, cfg, agentCount, rounds, runner, transcript, logger)
	if err != nil {
		logger.Error("session failed", "error", err)
		o.sink.Notify(events.SessionFailed(err))
		return nil, err
	}

	transcript.SetResult(result)
	o.sink.Notify(events.WinnerDetermined(result))

	if err := o.persist(cfg, transcript, result); err != nil {
		logger.Error("artifact write failed", "error", err)
		o.sink.Notify(events.SessionFailed(err))
		return nil, err
	}

	logger.Info("session completed", "outcome", result.Summary(), "elapsed", time.Since(started))
	o.sink.Notify(events.SessionCompleted(result, time.Since(started)))
	return result, nil
}

// deliberate runs the phases from team assembly through resolution.
func (o *Orchestrator) deliberate(ctx context.Context, cfg SessionConfig, agentCount, rounds int, runner *PhaseRunner, transcript *Transcript, logger *logging.Logger) (*core.SessionResult, error) {
	// Team assembly. Selection never fails; the catalog falls back to
	// generated and then synthetic personas.
	o.sink.Notify(events.PhaseStarted(core.PhaseTeamAssembly))
	phaseStart := time.Now()
	personas := o.catalog.SelectPersonas(ctx, cfg.Problem, agentCount)
	team := make([]*agent.Agent, len(personas))
	for i, p := range personas {
		team[i] = agent.New(p, o.generator, cfg.ToolScope, logger)
	}
	transcript.SetTeam(personas)
	logger.Info("team assembled", "personas", personaNames(personas))
	o.sink.Notify(events.PhaseCompleted(core.PhaseTeamAssembly, time.Since(phaseStart)))

	// Proposal.
	outputs, err := o.runPhase(ctx, runner, core.PhaseProposal, team, func(ctx context.Context, a *agent.Agent) (string, error) {
		p, err := o.renderer.RenderProposal(prompt.ProposalParams{Persona: a.Persona(), Problem: cfg.Problem})
		if err != nil {
			return "", err
		}
		return a.Generate(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	plans := core.NewPlanSet(outputsToPlans(outputs))
	transcript.AddPhase("Proposals", outputs)

	// Review rounds. Every agent sees the same pre-round plan set; the set
	// is replaced wholesale once the round finishes.
	for round := 1; round <= rounds; round++ {
		snapshot := plans.All()
		outputs, err = o.runPhase(ctx, runner, core.PhaseReview, team, func(ctx context.Context, a *agent.Agent) (string, error) {
			p, err := o.renderer.RenderReview(prompt.ReviewParams{
				Persona: a.Persona(),
				Problem: cfg.Problem,
				Plans:   snapshot,
				Round:   round,
				Rounds:  rounds,
			})
			if err != nil {
				return "", err
			}
			return a.Generate(ctx, p)
		})
		if err != nil {
			return nil, err
		}
		plans = core.NewPlanSet(outputsToPlans(outputs))
		transcript.AddPhase(fmt.Sprintf("Review Round %d", round), outputs)
		o.sink.Notify(events.RoundCompleted(round, rounds))
	}

	// Validation. Each agent checks only its own latest plan; the revised
	// content replaces the plan set.
	outputs, err = o.runPhase(ctx, runner, core.PhaseValidation, team, func(ctx context.Context, a *agent.Agent) (string, error) {
		own, _ := plans.Get(a.Name())
		p, err := o.renderer.RenderValidation(prompt.ValidationParams{Persona: a.Persona(), Problem: cfg.Problem, Plan: own})
		if err != nil {
			return "", err
		}
		return a.Generate(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	plans = core.NewPlanSet(outputsToPlans(outputs))
	transcript.AddPhase("Validation", outputs)

	// Synthesis. A dedicated agent produces one unified plan under the
	// reserved candidate name.
	synthesized, err := o.synthesize(ctx, cfg, plans, runner, transcript)
	if err != nil {
		return nil, err
	}

	// Voting. Ballots that cannot be parsed are recorded against the
	// Unknown sentinel and still count in the tally.
	votes, err := o.vote(ctx, cfg, team, plans, synthesized, runner, transcript)
	if err != nil {
		return nil, err
	}

	// Resolution. A tie is a legitimate terminal state; no tie-break.
	o.sink.Notify(events.PhaseStarted(core.PhaseResolution))
	phaseStart = time.Now()
	winners, maxVotes := core.Tally(votes).Winners()
	result := &core.SessionResult{
		Winners:         winners,
		MaxVotes:        maxVotes,
		Plans:           plans.AsMap(),
		SynthesizedPlan: synthesized,
		Votes:           votes,
	}
	o.sink.Notify(events.PhaseCompleted(core.PhaseResolution, time.Since(phaseStart)))
	return result, nil
}

// runPhase wraps PhaseRunner.Run with phase start/complete events.
func (o *Orchestrator) runPhase(ctx context.Context, runner *PhaseRunner, phase core.Phase, team []*agent.Agent, task AgentTask) ([]AgentOutput, error) {
	o.sink.Notify(events.PhaseStarted(phase))
	start := time.Now()
	outputs, err := runner.Run(ctx, phase, team, task)
	if err != nil {
		return nil, err
	}
	o.sink.Notify(events.PhaseCompleted(phase, time.Since(start)))
	return outputs, nil
}

// synthesize generates the unified plan with a dedicated synthesizer agent.
func (o *Orchestrator) synthesize(ctx context.Context, cfg SessionConfig, plans *core.PlanSet, runner *PhaseRunner, transcript *Transcript) (core.Plan, error) {
	synthPersona := core.Persona{
		Name:        core.SynthesizedPlanName,
		Description: "Merges the strongest elements of every plan into one coherent proposal.",
	}
	synthesizer := agent.New(synthPersona, o.generator, cfg.ToolScope, o.logger)

	snapshot := plans.All()
	outputs, err := o.runPhase(ctx, runner, core.PhaseSynthesis, []*agent.Agent{synthesizer}, func(ctx context.Context, a *agent.Agent) (string, error) {
		p, err := o.renderer.RenderSynthesis(prompt.SynthesisParams{Problem: cfg.Problem, Plans: snapshot})
		if err != nil {
			return "", err
		}
		return a.Generate(ctx, p)
	})
	if err != nil {
		return core.Plan{}, err
	}

	synthesized := core.Plan{AgentName: core.SynthesizedPlanName, Content: outputs[0].Text}
	transcript.AddPhase("Synthesis", outputs)
	return synthesized, nil
}

// vote collects one ballot per deliberating agent.
func (o *Orchestrator) vote(ctx context.Context, cfg SessionConfig, team []*agent.Agent, plans *core.PlanSet, synthesized core.Plan, runner *PhaseRunner, transcript *Transcript) ([]core.Vote, error) {
	candidates := append(plans.All(), synthesized)

	outputs, err := o.runPhase(ctx, runner, core.PhaseVoting, team, func(ctx context.Context, a *agent.Agent) (string, error) {
		p, err := o.renderer.RenderVote(prompt.VoteParams{Persona: a.Persona(), Problem: cfg.Problem, Candidates: candidates})
		if err != nil {
			return "", err
		}
		return a.Generate(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	votes := make([]core.Vote, 0, len(outputs))
	for _, out := range outputs {
		vote := parseBallot(out.AgentName, out.Text)
		votes = append(votes, vote)
		o.sink.Notify(events.VoteCast(vote))
	}
	transcript.SetVotes(votes)
	return votes, nil
}

// parseBallot extracts a structured ballot from the raw response. An
// unparseable or empty ballot is recorded against the Unknown sentinel,
// keeping the head of the raw text as the reason for the transcript.
func parseBallot(voter, raw string) core.Vote {
	if b, ok := extract.Extract[ballot](raw); ok && b.VotedFor != "" {
		return core.Vote{VoterName: voter, VotedFor: b.VotedFor, Reason: b.Reason}
	}
	return core.Vote{VoterName: voter, VotedFor: core.VoteUnknown, Reason: headOf(raw, 120)}
}

func headOf(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// persist writes the transcript and the winning-artifact document. Exactly
// two files, written only after the session resolved. Paths are bare
// filenames; the writer resolves them against its output directory.
func (o *Orchestrator) persist(cfg SessionConfig, transcript *Transcript, result *core.SessionResult) error {
	if o.writer == nil {
		return nil
	}
	transcriptPath := cfg.SessionID + "-transcript.md"
	if err := o.writer.WriteArtifact(transcriptPath, transcript.Render()); err != nil {
		return core.ErrPersistence(transcriptPath, err)
	}
	winnerPath := cfg.SessionID + "-winner.md"
	if err := o.writer.WriteArtifact(winnerPath, RenderWinnerDoc(result, cfg.Problem)); err != nil {
		return core.ErrPersistence(winnerPath, err)
	}
	return nil
}

func outputsToPlans(outputs []AgentOutput) []core.Plan {
	plans := make([]core.Plan, len(outputs))
	for i, out := range outputs {
		plans[i] = core.Plan{AgentName: out.AgentName, Content: out.Text}
	}
	return plans
}

func personaNames(personas []core.Persona) []string {
	out := make([]string, len(personas))
	for i, p := range personas {
		out[i] = p.Name
	}
	return out
}
