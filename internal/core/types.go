package core

import (
	"fmt"
	"sort"
)

// Limits for session parameters. Values outside these ranges are clamped,
// never rejected.
const (
	MinAgents = 1
	MaxAgents = 6

	MinReviewRounds = 0
	MaxReviewRounds = 5
)

// SynthesizedPlanName is the reserved candidate name for the plan produced
// by the synthesis agent. The persona catalog never hands this name to a
// deliberating agent.
const SynthesizedPlanName = "SynthesizedPlan"

// VoteUnknown is the sentinel recorded when a ballot cannot be parsed.
// It participates in the tally like any other candidate.
const VoteUnknown = "Unknown"

// ClampAgentCount forces n into [MinAgents, MaxAgents].
func ClampAgentCount(n int) int {
	if n < MinAgents {
		return MinAgents
	}
	if n > MaxAgents {
		return MaxAgents
	}
	return n
}

// ClampReviewRounds forces n into [MinReviewRounds, MaxReviewRounds].
func ClampReviewRounds(n int) int {
	if n < MinReviewRounds {
		return MinReviewRounds
	}
	if n > MaxReviewRounds {
		return MaxReviewRounds
	}
	return n
}

// Persona is a named expert profile used to bias an agent's output.
// Immutable once selected for a session.
type Persona struct {
	ID          string   `yaml:"id,omitempty" json:"id,omitempty"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Expertise   []string `yaml:"expertise,omitempty" json:"expertise,omitempty"`
	FocusAreas  []string `yaml:"focus_areas,omitempty" json:"focus_areas,omitempty"`
	Tone        string   `yaml:"tone,omitempty" json:"tone,omitempty"`
}

// Plan is one agent's latest plan content.
type Plan struct {
	AgentName string `json:"agent_name"`
	Content   string `json:"content"`
}

// PlanSet is the current plan set: the latest plan per agent, in agent
// instantiation order. It is replaced wholesale at each plan-producing
// phase boundary, never merged incrementally.
type PlanSet struct {
	plans []Plan
	index map[string]int
}

// NewPlanSet builds a plan set from plans in agent order.
func NewPlanSet(plans []Plan) *PlanSet {
	ps := &PlanSet{
		plans: append([]Plan(nil), plans...),
		index: make(map[string]int, len(plans)),
	}
	for i, p := range ps.plans {
		ps.index[p.AgentName] = i
	}
	return ps
}

// Get returns the plan for an agent name.
func (ps *PlanSet) Get(name string) (Plan, bool) {
	i, ok := ps.index[name]
	if !ok {
		return Plan{}, false
	}
	return ps.plans[i], true
}

// Names returns agent names in instantiation order.
func (ps *PlanSet) Names() []string {
	names := make([]string, len(ps.plans))
	for i, p := range ps.plans {
		names[i] = p.AgentName
	}
	return names
}

// All returns the plans in agent order.
func (ps *PlanSet) All() []Plan {
	return append([]Plan(nil), ps.plans...)
}

// Len returns the number of plans.
func (ps *PlanSet) Len() int {
	return len(ps.plans)
}

// AsMap returns the agent-name → plan mapping.
func (ps *PlanSet) AsMap() map[string]Plan {
	m := make(map[string]Plan, len(ps.plans))
	for _, p := range ps.plans {
		m[p.AgentName] = p
	}
	return m
}

// Vote is one agent's ballot during the voting phase.
type Vote struct {
	VoterName string `json:"voter_name"`
	VotedFor  string `json:"voted_for"`
	Reason    string `json:"reason"`
}

// VoteTally maps candidate name to vote count. Derived from the vote
// sequence; only candidates with at least one vote appear.
type VoteTally map[string]int

// Tally counts votes by candidate name (case-sensitive exact match).
func Tally(votes []Vote) VoteTally {
	t := make(VoteTally)
	for _, v := range votes {
		t[v.VotedFor]++
	}
	return t
}

// Winners returns the candidate(s) with the maximum vote count and that
// count. Ties of size >= 2 are an expected outcome; no tie-break is applied.
// Names are sorted for deterministic output only.
func (t VoteTally) Winners() ([]string, int) {
	max := 0
	for _, n := range t {
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return nil, 0
	}
	var winners []string
	for name, n := range t {
		if n == max {
			winners = append(winners, name)
		}
	}
	sort.Strings(winners)
	return winners, max
}

// SessionResult is the terminal outcome of a deliberation session.
// Computed once at the end of voting; immutable thereafter.
type SessionResult struct {
	Winners         []string        `json:"winners"`
	MaxVotes        int             `json:"max_votes"`
	Plans           map[string]Plan `json:"plans"`
	SynthesizedPlan Plan            `json:"synthesized_plan"`
	Votes           []Vote          `json:"votes"`
}

// IsTie reports whether the session ended in the tie terminal state.
func (r *SessionResult) IsTie() bool {
	return len(r.Winners) >= 2
}

// WinningPlans returns the plan content for every winner, in winner order.
// The synthesized plan is resolved via its reserved name.
func (r *SessionResult) WinningPlans() []Plan {
	plans := make([]Plan, 0, len(r.Winners))
	for _, name := range r.Winners {
		if name == SynthesizedPlanName {
			plans = append(plans, r.SynthesizedPlan)
			continue
		}
		if p, ok := r.Plans[name]; ok {
			plans = append(plans, p)
		}
	}
	return plans
}

// Summary returns a one-line human-readable outcome.
func (r *SessionResult) Summary() string {
	if r.IsTie() {
		return fmt.Sprintf("tie between %d candidates with %d vote(s) each", len(r.Winners), r.MaxVotes)
	}
	if len(r.Winners) == 1 {
		return fmt.Sprintf("%s wins with %d vote(s)", r.Winners[0], r.MaxVotes)
	}
	return "no votes cast"
}
