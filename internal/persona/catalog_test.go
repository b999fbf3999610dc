package persona

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/testutil"
)

func catalogEntries(n int) []core.Persona {
	out := make([]core.Persona, n)
	for i := range out {
		out[i] = core.Persona{
			Name:        fmt.Sprintf("Expert%d", i+1),
			Description: fmt.Sprintf("expert number %d", i+1),
		}
	}
	return out
}

func TestSelectPersonas_FromCatalog(t *testing.T) {
	c := New(catalogEntries(6), WithRand(rand.New(rand.NewSource(1))))

	got := c.SelectPersonas(context.Background(), "design a cache", 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	seen := map[string]bool{}
	for _, p := range got {
		if seen[p.Name] {
			t.Errorf("duplicate name %q", p.Name)
		}
		seen[p.Name] = true
	}
}

func TestSelectPersonas_DeterministicWithSeed(t *testing.T) {
	a := New(catalogEntries(6), WithRand(rand.New(rand.NewSource(42)))).
		SelectPersonas(context.Background(), "p", 4)
	b := New(catalogEntries(6), WithRand(rand.New(rand.NewSource(42)))).
		SelectPersonas(context.Background(), "p", 4)
	for i := range a {
		if a[i].Name != b[i].Name {
			t.Fatalf("selection not deterministic: %v vs %v", a, b)
		}
	}
}

func TestSelectPersonas_ClampsCount(t *testing.T) {
	c := New(catalogEntries(10), WithRand(rand.New(rand.NewSource(1))))

	if got := c.SelectPersonas(context.Background(), "p", 99); len(got) != core.MaxAgents {
		t.Errorf("count 99: len = %d, want %d", len(got), core.MaxAgents)
	}
	if got := c.SelectPersonas(context.Background(), "p", -1); len(got) != core.MinAgents {
		t.Errorf("count -1: len = %d, want %d", len(got), core.MinAgents)
	}
}

func TestSelectPersonas_GenerationFallback(t *testing.T) {
	gen := testutil.NewMockGenerator(`[
		{"name": "Latency Specialist", "description": "obsesses over p99"},
		{"name": "Cost Analyst", "description": "watches the bill"}
	]`)
	c := New(nil, WithGenerator(gen))

	got := c.SelectPersonas(context.Background(), "design a cache", 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Name != "Latency Specialist" || got[1].Name != "Cost Analyst" {
		t.Errorf("got %v", got)
	}
	if gen.CallCount() != 1 {
		t.Errorf("generator calls = %d, want 1", gen.CallCount())
	}
}

func TestSelectPersonas_SyntheticFallback(t *testing.T) {
	c := New(nil, WithGenerator(&testutil.FailingGenerator{Err: errors.New("down")}))

	got := c.SelectPersonas(context.Background(), "p", 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, p := range got {
		want := fmt.Sprintf("Agent_%d", i+1)
		if p.Name != want {
			t.Errorf("got[%d].Name = %q, want %q", i, p.Name, want)
		}
		if p.Description == "" {
			t.Errorf("got[%d] has empty description", i)
		}
	}
}

func TestSelectPersonas_SyntheticWhenExtractionFails(t *testing.T) {
	gen := testutil.NewMockGenerator("I could not produce personas, sorry.")
	c := New(nil, WithGenerator(gen))

	got := c.SelectPersonas(context.Background(), "p", 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Name != "Agent_1" || got[1].Name != "Agent_2" {
		t.Errorf("got %v", got)
	}
}

func TestSelectPersonas_TopsUpSmallCatalog(t *testing.T) {
	c := New(catalogEntries(1), WithRand(rand.New(rand.NewSource(1))))

	got := c.SelectPersonas(context.Background(), "p", 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Name != "Expert1" {
		t.Errorf("got[0] = %q", got[0].Name)
	}
}

func TestDedupeNames(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"unique kept", []string{"A", "B"}, []string{"A", "B"}},
		{"duplicate suffixed", []string{"A", "A", "A"}, []string{"A", "A_2", "A_3"}},
		{"reserved remapped", []string{core.SynthesizedPlanName, core.VoteUnknown}, []string{"SynthesizedPlan_2", "Unknown_2"}},
		{"empty named", []string{"", "B"}, []string{"Agent_1", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			personas := make([]core.Persona, len(tt.input))
			for i, n := range tt.input {
				personas[i] = core.Persona{Name: n}
			}
			got := dedupeNames(personas)
			for i := range tt.want {
				if got[i].Name != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i].Name, tt.want[i])
				}
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.yaml")
	content := `personas:
  - name: Pragmatist
    description: favors the simple thing that works
    expertise: [operations, tooling]
  - name: Theorist
    description: proves it correct first
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	personas, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(personas) != 2 {
		t.Fatalf("len = %d, want 2", len(personas))
	}
	if personas[0].Name != "Pragmatist" || len(personas[0].Expertise) != 2 {
		t.Errorf("got %+v", personas[0])
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !core.IsCategory(err, core.ErrCatCatalog) {
		t.Errorf("category = %v, want catalog", core.GetCategory(err))
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.yaml")
	if err := os.WriteFile(path, []byte("personas: [not: {valid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error")
	}
}
