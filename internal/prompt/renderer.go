package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/conclave-ai/conclave/internal/core"
)

//go:embed templates/*.md
var templatesFS embed.FS

// Renderer renders deliberation prompts from the embedded templates.
type Renderer struct {
	templates map[string]Template
}

// NewRenderer loads the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]Template)}

	err := fs.WalkDir(templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		content, err := templatesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".md")
		r.templates[name] = NewTemplate(name, string(content))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	return r, nil
}

// Render renders a template by name.
func (r *Renderer) Render(name string, vars map[string]string) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}
	return tmpl.Render(vars), nil
}

// ListTemplates returns available template names.
func (r *Renderer) ListTemplates() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}

// PersonaGenerateParams parameterizes the persona-generation fallback prompt.
type PersonaGenerateParams struct {
	Count   int
	Problem string
}

// RenderPersonaGenerate renders the persona-generation prompt.
func (r *Renderer) RenderPersonaGenerate(p PersonaGenerateParams) (string, error) {
	return r.Render("persona-generate", map[string]string{
		"count":   strconv.Itoa(p.Count),
		"problem": p.Problem,
	})
}

// ProposalParams parameterizes the initial-plan prompt.
type ProposalParams struct {
	Persona core.Persona
	Problem string
}

// RenderProposal renders the proposal-phase prompt.
func (r *Renderer) RenderProposal(p ProposalParams) (string, error) {
	return r.Render("proposal", map[string]string{
		"persona_name":        p.Persona.Name,
		"persona_description": p.Persona.Description,
		"problem":             p.Problem,
	})
}

// ReviewParams parameterizes the peer-review prompt.
type ReviewParams struct {
	Persona core.Persona
	Problem string
	Plans   []core.Plan
	Round   int
	Rounds  int
}

// RenderReview renders the review-round prompt. The full current plan set
// is included so every agent sees all peers' latest content.
func (r *Renderer) RenderReview(p ReviewParams) (string, error) {
	return r.Render("review", map[string]string{
		"persona_name": p.Persona.Name,
		"problem":      p.Problem,
		"plans":        FormatPlans(p.Plans),
		"round":        strconv.Itoa(p.Round),
		"rounds":       strconv.Itoa(p.Rounds),
	})
}

// ValidationParams parameterizes the self-validation prompt.
type ValidationParams struct {
	Persona core.Persona
	Problem string
	Plan    core.Plan
}

// RenderValidation renders the validation-phase prompt. Only the agent's
// own plan is included.
func (r *Renderer) RenderValidation(p ValidationParams) (string, error) {
	return r.Render("validation", map[string]string{
		"persona_name": p.Persona.Name,
		"problem":      p.Problem,
		"plan":         p.Plan.Content,
	})
}

// SynthesisParams parameterizes the synthesis prompt.
type SynthesisParams struct {
	Problem string
	Plans   []core.Plan
}

// RenderSynthesis renders the synthesis prompt.
func (r *Renderer) RenderSynthesis(p SynthesisParams) (string, error) {
	return r.Render("synthesis", map[string]string{
		"problem": p.Problem,
		"plans":   FormatPlans(p.Plans),
	})
}

// VoteParams parameterizes the voting prompt.
type VoteParams struct {
	Persona    core.Persona
	Problem    string
	Candidates []core.Plan // current plans plus the synthesized plan
}

// RenderVote renders the voting prompt.
func (r *Renderer) RenderVote(p VoteParams) (string, error) {
	return r.Render("vote", map[string]string{
		"persona_name":     p.Persona.Name,
		"problem":          p.Problem,
		"plans":            FormatPlans(p.Candidates),
		"synthesized_name": core.SynthesizedPlanName,
	})
}

// FormatPlans renders a plan list as named markdown sections.
func FormatPlans(plans []core.Plan) string {
	var sb strings.Builder
	for i, p := range plans {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "### %s\n\n%s\n", p.AgentName, p.Content)
	}
	return sb.String()
}
