package core

import "fmt"

// Phase represents a stage in the deliberation protocol.
type Phase string

const (
	// PhaseTeamAssembly selects personas and instantiates one agent per persona.
	PhaseTeamAssembly Phase = "team_assembly"

	// PhaseProposal asks each agent for an initial plan.
	PhaseProposal Phase = "proposal"

	// PhaseReview shows each agent the full current plan set and asks for a
	// revised plan. Repeated up to MaxReviewRounds times.
	PhaseReview Phase = "review"

	// PhaseValidation has each agent check its own latest plan against the
	// original problem statement.
	PhaseValidation Phase = "validation"

	// PhaseSynthesis generates a single unified plan from all current plans
	// using a dedicated synthesizer agent.
	PhaseSynthesis Phase = "synthesis"

	// PhaseVoting asks each deliberating agent to pick one candidate plan.
	PhaseVoting Phase = "voting"

	// PhaseResolution tallies votes and determines the winner set.
	PhaseResolution Phase = "resolution"
)

// AllPhases returns the phases in protocol order.
func AllPhases() []Phase {
	return []Phase{
		PhaseTeamAssembly,
		PhaseProposal,
		PhaseReview,
		PhaseValidation,
		PhaseSynthesis,
		PhaseVoting,
		PhaseResolution,
	}
}

// PhaseOrder returns the numeric order of a phase (0-indexed), or -1.
func PhaseOrder(p Phase) int {
	for i, q := range AllPhases() {
		if p == q {
			return i
		}
	}
	return -1
}

// ValidPhase checks if a phase string is valid.
func ValidPhase(p Phase) bool {
	return PhaseOrder(p) >= 0
}

// ParsePhase converts a string to a Phase with validation.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !ValidPhase(p) {
		return "", fmt.Errorf("invalid phase: %s", s)
	}
	return p, nil
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// Description returns a human-readable description of the phase.
func (p Phase) Description() string {
	switch p {
	case PhaseTeamAssembly:
		return "Assemble the expert team"
	case PhaseProposal:
		return "Draft initial plans"
	case PhaseReview:
		return "Review and revise plans against peer work"
	case PhaseValidation:
		return "Validate own plan against the problem statement"
	case PhaseSynthesis:
		return "Synthesize a unified plan from all proposals"
	case PhaseVoting:
		return "Vote for the best candidate plan"
	case PhaseResolution:
		return "Tally votes and resolve the winner"
	default:
		return "Unknown phase"
	}
}
