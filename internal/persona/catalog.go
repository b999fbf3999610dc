// Package persona selects expert profiles for a deliberation team.
//
// Selection never fails: a missing or malformed catalog falls back to
// generating personas with the session's generation capability, and a
// failed generation falls back to synthetic generic personas. The caller
// always receives exactly the requested number of uniquely named personas.
package persona

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/extract"
	"github.com/conclave-ai/conclave/internal/logging"
	"github.com/conclave-ai/conclave/internal/prompt"
)

// reservedNames may never be handed to a deliberating agent. A catalog
// entry carrying one is renamed during de-duplication.
var reservedNames = map[string]bool{
	core.SynthesizedPlanName: true,
	core.VoteUnknown:         true,
}

// Catalog selects personas for a session.
type Catalog struct {
	personas  []core.Persona
	rng       *rand.Rand
	generator core.Generator
	renderer  *prompt.Renderer
	logger    *logging.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithRand sets the randomness source used for selection. Tests pass a
// seeded source for deterministic picks.
func WithRand(rng *rand.Rand) Option {
	return func(c *Catalog) { c.rng = rng }
}

// WithGenerator enables the persona-generation fallback when the catalog
// holds no personas.
func WithGenerator(g core.Generator) Option {
	return func(c *Catalog) { c.generator = g }
}

// WithLogger sets the catalog's logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// New creates a catalog over the given personas.
func New(personas []core.Persona, opts ...Option) *Catalog {
	c := &Catalog{
		personas: append([]core.Persona(nil), personas...),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.renderer == nil {
		if r, err := prompt.NewRenderer(); err == nil {
			c.renderer = r
		}
	}
	return c
}

// catalogFile is the on-disk persona catalog shape.
type catalogFile struct {
	Personas []core.Persona `yaml:"personas"`
}

// LoadFile reads a YAML persona catalog. A missing or malformed file is an
// error; callers treat it as an empty catalog and rely on the fallbacks.
func LoadFile(path string) ([]core.Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.ErrCatalogUnavailable(fmt.Sprintf("reading %s", path)).WithCause(err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, core.ErrCatalogUnavailable(fmt.Sprintf("parsing %s", path)).WithCause(err)
	}
	var personas []core.Persona
	for _, p := range file.Personas {
		if p.Name == "" {
			continue
		}
		personas = append(personas, p)
	}
	return personas, nil
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.personas)
}

// SelectPersonas returns exactly count uniquely named personas relevant to
// the problem. It never fails; the fallback chain is catalog selection,
// generation, then synthetic personas.
func (c *Catalog) SelectPersonas(ctx context.Context, problem string, count int) []core.Persona {
	count = core.ClampAgentCount(count)

	selected := c.fromCatalog(count)
	if len(selected) < count && c.generator != nil {
		generated := c.generate(ctx, problem, count-len(selected), names(selected))
		selected = append(selected, generated...)
	}
	for len(selected) < count {
		selected = append(selected, syntheticPersona(len(selected)+1, count))
	}

	return dedupeNames(selected)
}

// fromCatalog shuffles the catalog and takes up to count entries.
func (c *Catalog) fromCatalog(count int) []core.Persona {
	if len(c.personas) == 0 {
		return nil
	}
	pool := append([]core.Persona(nil), c.personas...)
	if c.rng != nil {
		c.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	} else {
		rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	if count < len(pool) {
		pool = pool[:count]
	}
	return pool
}

// generate asks the generation capability for count additional personas.
// Any failure returns nil; the synthetic fallback covers the shortfall.
func (c *Catalog) generate(ctx context.Context, problem string, count int, taken []string) []core.Persona {
	if c.renderer == nil {
		return nil
	}
	req, err := c.renderer.RenderPersonaGenerate(prompt.PersonaGenerateParams{
		Count:   count,
		Problem: problem,
	})
	if err != nil {
		return nil
	}

	var text string
	genErr := c.generator.Generate(ctx, core.GenerateRequest{Prompt: req}, func(ev core.GenerateEvent) {
		if ev.Type == core.GenerateEventContent {
			text += ev.Text
		}
	})
	if genErr != nil {
		c.logger.Warn("persona generation failed, using synthetic personas", "error", genErr)
		return nil
	}

	generated, ok := extract.Extract[[]core.Persona](text)
	if !ok {
		c.logger.Warn("persona extraction failed, using synthetic personas")
		return nil
	}

	takenSet := make(map[string]bool, len(taken))
	for _, n := range taken {
		takenSet[n] = true
	}
	var out []core.Persona
	for _, p := range generated {
		if p.Name == "" || takenSet[p.Name] {
			continue
		}
		takenSet[p.Name] = true
		out = append(out, p)
		if len(out) == count {
			break
		}
	}
	return out
}

// syntheticPersona builds the generic fallback persona for slot i of n.
func syntheticPersona(i, n int) core.Persona {
	return core.Persona{
		Name:        fmt.Sprintf("Agent_%d", i),
		Description: fmt.Sprintf("General-purpose deliberation agent %d of %d, contributing an independent perspective on the problem.", i, n),
	}
}

// dedupeNames guarantees unique, non-reserved names. The first occurrence
// keeps its name; later duplicates get a numeric suffix. Reserved names are
// always remapped.
func dedupeNames(personas []core.Persona) []core.Persona {
	seen := make(map[string]bool, len(personas))
	out := make([]core.Persona, len(personas))
	for i, p := range personas {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("Agent_%d", i+1)
		}
		if reservedNames[name] || seen[name] {
			for suffix := 2; ; suffix++ {
				candidate := fmt.Sprintf("%s_%d", name, suffix)
				if !reservedNames[candidate] && !seen[candidate] {
					name = candidate
					break
				}
			}
		}
		seen[name] = true
		p.Name = name
		out[i] = p
	}
	return out
}

func names(personas []core.Persona) []string {
	out := make([]string, len(personas))
	for i, p := range personas {
		out[i] = p.Name
	}
	return out
}
