package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
)

// Transcript accumulates the session record phase by phase and renders it
// as a markdown document once the session resolves.
type Transcript struct {
	sessionID string
	problem   string
	started   time.Time
	personas  []core.Persona
	sections  []transcriptSection
	votes     []core.Vote
	result    *core.SessionResult
}

type transcriptSection struct {
	title   string
	entries []AgentOutput
}

// NewTranscript starts a transcript for a session.
func NewTranscript(sessionID, problem string, started time.Time) *Transcript {
	return &Transcript{sessionID: sessionID, problem: problem, started: started}
}

// SetTeam records the selected personas.
func (t *Transcript) SetTeam(personas []core.Persona) {
	t.personas = append([]core.Persona(nil), personas...)
}

// AddPhase records the outputs of one phase pass under a section title.
func (t *Transcript) AddPhase(title string, outputs []AgentOutput) {
	t.sections = append(t.sections, transcriptSection{
		title:   title,
		entries: append([]AgentOutput(nil), outputs...),
	})
}

// SetVotes records the ballots in cast order.
func (t *Transcript) SetVotes(votes []core.Vote) {
	t.votes = append([]core.Vote(nil), votes...)
}

// SetResult records the terminal outcome.
func (t *Transcript) SetResult(result *core.SessionResult) {
	t.result = result
}

// outcomeLine renders the winner or tie statement. The exact wording is
// part of the artifact contract and is asserted by downstream consumers.
func outcomeLine(result *core.SessionResult) string {
	if result == nil || len(result.Winners) == 0 {
		return "No votes were cast."
	}
	if result.IsTie() {
		return "Tie between: " + strings.Join(result.Winners, ", ")
	}
	return "Winner: " + result.Winners[0]
}

// Render produces the full transcript document.
func (t *Transcript) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Deliberation Transcript\n\n")
	fmt.Fprintf(&sb, "- Session: %s\n", t.sessionID)
	fmt.Fprintf(&sb, "- Started: %s\n", t.started.Format(time.RFC3339))
	fmt.Fprintf(&sb, "- Agents: %d\n\n", len(t.personas))

	fmt.Fprintf(&sb, "## Problem\n\n%s\n\n", t.problem)

	if len(t.personas) > 0 {
		sb.WriteString("## Team\n\n")
		for _, p := range t.personas {
			if p.Description != "" {
				fmt.Fprintf(&sb, "- **%s**: %s\n", p.Name, p.Description)
			} else {
				fmt.Fprintf(&sb, "- **%s**\n", p.Name)
			}
		}
		sb.WriteString("\n")
	}

	for _, section := range t.sections {
		fmt.Fprintf(&sb, "## %s\n\n", section.title)
		for _, entry := range section.entries {
			fmt.Fprintf(&sb, "### %s\n\n%s\n\n", entry.AgentName, entry.Text)
		}
	}

	if len(t.votes) > 0 {
		sb.WriteString("## Votes\n\n")
		for _, v := range t.votes {
			if v.Reason != "" {
				fmt.Fprintf(&sb, "- %s voted for %s: %s\n", v.VoterName, v.VotedFor, v.Reason)
			} else {
				fmt.Fprintf(&sb, "- %s voted for %s\n", v.VoterName, v.VotedFor)
			}
		}
		sb.WriteString("\n## Tally\n\n")
		sb.WriteString("| Candidate | Votes |\n|-----------|-------|\n")
		tally := core.Tally(t.votes)
		for _, name := range sortedCandidates(tally) {
			fmt.Fprintf(&sb, "| %s | %d |\n", name, tally[name])
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "## Outcome\n\n%s\n", outcomeLine(t.result))
	if t.result != nil && t.result.MaxVotes > 0 {
		fmt.Fprintf(&sb, "\n%d vote(s) for the leading candidate(s).\n", t.result.MaxVotes)
	}

	return sb.String()
}

func sortedCandidates(t core.VoteTally) []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RenderWinnerDoc produces the winning-artifact document: the outcome plus
// the full content of every winning plan.
func RenderWinnerDoc(result *core.SessionResult, problem string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Deliberation Result\n\n%s\n\n", outcomeLine(result))
	fmt.Fprintf(&sb, "## Problem\n\n%s\n\n", problem)

	for _, plan := range result.WinningPlans() {
		fmt.Fprintf(&sb, "## Plan: %s\n\n%s\n\n", plan.AgentName, plan.Content)
	}

	return sb.String()
}
