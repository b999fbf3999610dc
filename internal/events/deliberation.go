package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
)

// Constructors for the session's significant progress events. Messages are
// plain text; transport and rendering belong to the subscriber.

// SessionStarted is emitted once, before team assembly.
func SessionStarted(agents, rounds int) core.ProgressEvent {
	return core.NewProgressEvent(core.ProgressSessionStarted,
		fmt.Sprintf("Deliberation started: %d agent(s), %d review round(s)", agents, rounds))
}

// SessionCompleted is emitted after artifacts are written.
func SessionCompleted(result *core.SessionResult, elapsed time.Duration) core.ProgressEvent {
	return core.NewProgressEvent(core.ProgressSessionCompleted,
		fmt.Sprintf("Deliberation completed in %s: %s", elapsed.Round(time.Second), result.Summary()))
}

// SessionFailed is emitted when the session aborts.
func SessionFailed(err error) core.ProgressEvent {
	return core.NewProgressEvent(core.ProgressSessionFailed,
		fmt.Sprintf("Deliberation failed: %v", err))
}

// PhaseStarted is emitted when a phase begins.
func PhaseStarted(phase core.Phase) core.ProgressEvent {
	return core.NewProgressEvent(core.ProgressPhaseStarted,
		fmt.Sprintf("Phase %s: %s", phase, phase.Description())).WithPhase(phase)
}

// PhaseCompleted is emitted when a phase finishes.
func PhaseCompleted(phase core.Phase, elapsed time.Duration) core.ProgressEvent {
	return core.NewProgressEvent(core.ProgressPhaseCompleted,
		fmt.Sprintf("Phase %s completed in %s", phase, elapsed.Round(time.Millisecond))).WithPhase(phase)
}

// AgentCompleted is emitted after each agent's generation within a phase.
func AgentCompleted(phase core.Phase, agent string, outputLen int) core.ProgressEvent {
	return core.NewProgressEvent(core.ProgressAgentCompleted,
		fmt.Sprintf("%s finished %s (%d chars)", agent, phase, outputLen)).
		WithPhase(phase).WithAgent(agent)
}

// RoundCompleted is emitted after each review round.
func RoundCompleted(round, total int) core.ProgressEvent {
	return core.NewProgressEvent(core.ProgressRoundCompleted,
		fmt.Sprintf("Review round %d/%d completed", round, total)).
		WithPhase(core.PhaseReview).WithRound(round)
}

// VoteCast is emitted for each ballot as it arrives.
func VoteCast(vote core.Vote) core.ProgressEvent {
	return core.NewProgressEvent(core.ProgressVoteCast,
		fmt.Sprintf("%s voted for %s", vote.VoterName, vote.VotedFor)).
		WithPhase(core.PhaseVoting).WithAgent(vote.VoterName)
}

// WinnerDetermined is emitted once resolution finishes.
func WinnerDetermined(result *core.SessionResult) core.ProgressEvent {
	var msg string
	if result.IsTie() {
		msg = "Tie between: " + strings.Join(result.Winners, ", ")
	} else {
		msg = "Winner: " + result.Winners[0]
	}
	return core.NewProgressEvent(core.ProgressWinner, msg).WithPhase(core.PhaseResolution)
}
