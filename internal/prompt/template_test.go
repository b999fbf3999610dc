package prompt

import (
	"reflect"
	"strings"
	"testing"

	"github.com/conclave-ai/conclave/internal/core"
)

func TestTemplate_Render(t *testing.T) {
	tmpl := NewTemplate("t", "Hello {{name}}, solve {{problem}}.")

	got := tmpl.Render(map[string]string{"name": "AgentA", "problem": "caching"})
	want := "Hello AgentA, solve caching."
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestTemplate_UnresolvedPlaceholdersDeleted(t *testing.T) {
	tmpl := NewTemplate("t", "A={{a}} B={{b}} end")

	got := tmpl.Render(map[string]string{"a": "1"})
	want := "A=1 B= end"
	if got != want {
		t.Errorf("Render() = %q, want %q (unresolved placeholder must vanish)", got, want)
	}
}

func TestTemplate_RenderIsPure(t *testing.T) {
	tmpl := NewTemplate("t", "{{x}} {{x}}")
	vars := map[string]string{"x": "v"}
	if tmpl.Render(vars) != tmpl.Render(vars) {
		t.Error("Render must be deterministic")
	}
}

func TestTemplate_Placeholders(t *testing.T) {
	tmpl := NewTemplate("t", "{{b}} {{a}} {{b}}")
	got := tmpl.Placeholders()
	if !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Placeholders() = %v", got)
	}
}

func TestNewRenderer_LoadsAllTemplates(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"persona-generate", "proposal", "review", "validation", "synthesis", "vote"} {
		if _, err := r.Render(name, nil); err != nil {
			t.Errorf("template %s missing: %v", name, err)
		}
	}
}

func TestRenderProposal(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}

	out, err := r.RenderProposal(ProposalParams{
		Persona: core.Persona{Name: "Architect", Description: "systems design"},
		Problem: "design a job queue",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Architect", "systems design", "design a job queue"} {
		if !strings.Contains(out, want) {
			t.Errorf("proposal prompt missing %q", want)
		}
	}
	if strings.Contains(out, "{{") {
		t.Errorf("rendered prompt contains unresolved placeholder: %s", out)
	}
}

func TestRenderReview_IncludesAllPlans(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}

	out, err := r.RenderReview(ReviewParams{
		Persona: core.Persona{Name: "A"},
		Problem: "p",
		Plans: []core.Plan{
			{AgentName: "A", Content: "plan a"},
			{AgentName: "B", Content: "plan b"},
		},
		Round:  1,
		Rounds: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"plan a", "plan b", "round 1 of 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("review prompt missing %q", want)
		}
	}
}

func TestRenderVote_NamesSynthesizedPlan(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}

	out, err := r.RenderVote(VoteParams{
		Persona:    core.Persona{Name: "A"},
		Problem:    "p",
		Candidates: []core.Plan{{AgentName: "A", Content: "x"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, core.SynthesizedPlanName) {
		t.Error("vote prompt must name the synthesized-plan candidate")
	}
	if !strings.Contains(out, "votedFor") {
		t.Error("vote prompt must show the expected JSON shape")
	}
}

func TestFormatPlans(t *testing.T) {
	out := FormatPlans([]core.Plan{
		{AgentName: "A", Content: "one"},
		{AgentName: "B", Content: "two"},
	})
	if !strings.Contains(out, "### A") || !strings.Contains(out, "### B") {
		t.Errorf("FormatPlans() = %q", out)
	}
	if strings.Index(out, "### A") > strings.Index(out, "### B") {
		t.Error("plans must keep agent order")
	}
}
