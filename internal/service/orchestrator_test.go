package service

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/persona"
	"github.com/conclave-ai/conclave/internal/service/report"
	"github.com/conclave-ai/conclave/internal/testutil"
)

// chdirTemp changes into a fresh temp dir and restores the previous
// working directory when the test finishes (t.Chdir needs Go 1.24).
func chdirTemp(t *testing.T) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restore wd: %v", err)
		}
	})
}

// memWriter records artifact writes in memory.
type memWriter struct {
	mu    sync.Mutex
	files map[string]string
	err   error
}

func newMemWriter() *memWriter {
	return &memWriter{files: map[string]string{}}
}

func (w *memWriter) WriteArtifact(path, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.files[path] = content
	return nil
}

func (w *memWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.files)
}

func (w *memWriter) find(suffix string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, content := range w.files {
		if strings.HasSuffix(path, suffix) {
			return content, true
		}
	}
	return "", false
}

func twoAgentCatalog() *persona.Catalog {
	return persona.New([]core.Persona{
		{Name: "Alpha", Description: "first expert"},
		{Name: "Beta", Description: "second expert"},
	}, persona.WithRand(rand.New(rand.NewSource(7))))
}

func instantCooldown(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

// scriptFor returns a generator scripted for a 2-agent session with the
// given review rounds. Call order is fully deterministic: proposal (2),
// each review round (2), validation (2), synthesis (1), voting (2).
func scriptFor(rounds int, vote1, vote2 string) *testutil.MockGenerator {
	var responses []string
	responses = append(responses, "plan one", "plan two")
	for r := 0; r < rounds; r++ {
		responses = append(responses, "revised one", "revised two")
	}
	responses = append(responses, "validated one", "validated two")
	responses = append(responses, "the unified plan")
	responses = append(responses, vote1, vote2)
	return testutil.NewMockGenerator(responses...)
}

func newTestOrchestrator(t *testing.T, gen core.Generator, writer core.ArtifactWriter, sink core.ProgressSink) *Orchestrator {
	t.Helper()
	opts := []OrchestratorOption{WithCooldown(instantCooldown)}
	if sink != nil {
		opts = append(opts, WithProgressSink(sink))
	}
	o, err := NewOrchestrator(twoAgentCatalog(), gen, writer, opts...)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return o
}

func TestRun_TwoAgentsOneRound_Winner(t *testing.T) {
	gen := scriptFor(1,
		`{"votedFor": "Alpha", "reason": "most concrete"}`,
		`{"votedFor": "Alpha", "reason": "covers the edge cases"}`)
	writer := newMemWriter()
	o := newTestOrchestrator(t, gen, writer, nil)

	result, err := o.Run(context.Background(), SessionConfig{
		Problem:      "design a rate limiter",
		AgentCount:   2,
		ReviewRounds: 1,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Winners) != 1 || result.Winners[0] != "Alpha" {
		t.Errorf("winners = %v, want [Alpha]", result.Winners)
	}
	if result.MaxVotes != 2 {
		t.Errorf("max votes = %d, want 2", result.MaxVotes)
	}
	if result.IsTie() {
		t.Error("unexpected tie")
	}
	if gen.CallCount() != 9 {
		t.Errorf("generator calls = %d, want 9", gen.CallCount())
	}

	if writer.count() != 2 {
		t.Fatalf("artifacts = %d, want 2", writer.count())
	}
	transcript, ok := writer.find("-transcript.md")
	if !ok {
		t.Fatal("transcript artifact missing")
	}
	if !strings.Contains(transcript, "Winner: Alpha") {
		t.Error("transcript missing winner line")
	}
	if !strings.Contains(transcript, "design a rate limiter") {
		t.Error("transcript missing problem statement")
	}
	winnerDoc, ok := writer.find("-winner.md")
	if !ok {
		t.Fatal("winner artifact missing")
	}
	if !strings.Contains(winnerDoc, "Winner: Alpha") {
		t.Error("winner doc missing winner line")
	}
}

func TestParseBallot_TruncatesReasonOnRuneBoundary(t *testing.T) {
	raw := "ab" + strings.Repeat("世", 50)
	v := parseBallot("Alpha", raw)

	if v.VotedFor != core.VoteUnknown {
		t.Fatalf("votedFor = %q, want %q", v.VotedFor, core.VoteUnknown)
	}
	if !utf8.ValidString(v.Reason) {
		t.Errorf("reason is not valid UTF-8: %q", v.Reason)
	}
	if !strings.HasSuffix(v.Reason, "...") {
		t.Errorf("reason not truncated: %q", v.Reason)
	}
}

func TestRun_ArtifactsLandUnderOutputDir(t *testing.T) {
	chdirTemp(t)
	gen := scriptFor(0,
		`{"votedFor": "Alpha", "reason": "a"}`,
		`{"votedFor": "Alpha", "reason": "b"}`)
	writer := report.NewWriter(report.Config{BaseDir: "runs", Enabled: true})
	o := newTestOrchestrator(t, gen, writer, nil)

	if _, err := o.Run(context.Background(), SessionConfig{
		Problem:    "p",
		AgentCount: 2,
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, suffix := range []string{"-transcript.md", "-winner.md"} {
		matches, err := filepath.Glob(filepath.Join("runs", "sess-*"+suffix))
		if err != nil {
			t.Fatalf("glob: %v", err)
		}
		if len(matches) != 1 {
			t.Errorf("files matching runs/sess-*%s = %v, want exactly one", suffix, matches)
		}
	}
	if _, err := os.Stat(filepath.Join("runs", "runs")); !os.IsNotExist(err) {
		t.Error("artifacts nested under a doubled output directory")
	}
}

func TestRun_ZeroRounds_TieIsTerminal(t *testing.T) {
	gen := scriptFor(0,
		`{"votedFor": "Alpha", "reason": "a"}`,
		`{"votedFor": "Beta", "reason": "b"}`)
	writer := newMemWriter()
	o := newTestOrchestrator(t, gen, writer, nil)

	result, err := o.Run(context.Background(), SessionConfig{
		Problem:      "choose a storage engine",
		AgentCount:   2,
		ReviewRounds: 0,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.IsTie() {
		t.Fatalf("expected tie, got winners %v", result.Winners)
	}
	if len(result.Winners) != 2 || result.Winners[0] != "Alpha" || result.Winners[1] != "Beta" {
		t.Errorf("winners = %v, want [Alpha Beta]", result.Winners)
	}
	if result.MaxVotes != 1 {
		t.Errorf("max votes = %d, want 1", result.MaxVotes)
	}
	if gen.CallCount() != 7 {
		t.Errorf("generator calls = %d, want 7 with zero review rounds", gen.CallCount())
	}

	transcript, _ := writer.find("-transcript.md")
	if !strings.Contains(transcript, "Tie between: Alpha, Beta") {
		t.Error("transcript missing tie line")
	}
}

func TestRun_PlanSetKeyedByAgentNames(t *testing.T) {
	gen := scriptFor(0,
		`{"votedFor": "SynthesizedPlan", "reason": "x"}`,
		`{"votedFor": "SynthesizedPlan", "reason": "y"}`)
	o := newTestOrchestrator(t, gen, newMemWriter(), nil)

	result, err := o.Run(context.Background(), SessionConfig{Problem: "p", AgentCount: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Plans) != 2 {
		t.Fatalf("plans = %d, want 2", len(result.Plans))
	}
	for _, name := range []string{"Alpha", "Beta"} {
		if _, ok := result.Plans[name]; !ok {
			t.Errorf("plan set missing agent %q", name)
		}
	}
	if result.Winners[0] != core.SynthesizedPlanName {
		t.Errorf("winners = %v, want synthesized plan", result.Winners)
	}
	if result.SynthesizedPlan.Content != "the unified plan" {
		t.Errorf("synthesized content = %q", result.SynthesizedPlan.Content)
	}
	plans := result.WinningPlans()
	if len(plans) != 1 || plans[0].Content != "the unified plan" {
		t.Errorf("winning plans = %v", plans)
	}
}

func TestRun_UnparseableBallotCountsAsUnknown(t *testing.T) {
	gen := scriptFor(0,
		"I refuse to pick one.",
		"Both plans look fine to me.")
	o := newTestOrchestrator(t, gen, newMemWriter(), nil)

	result, err := o.Run(context.Background(), SessionConfig{Problem: "p", AgentCount: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Winners) != 1 || result.Winners[0] != core.VoteUnknown {
		t.Errorf("winners = %v, want [Unknown]", result.Winners)
	}
	for _, v := range result.Votes {
		if v.VotedFor != core.VoteUnknown {
			t.Errorf("vote = %+v, want Unknown sentinel", v)
		}
		if v.Reason == "" {
			t.Error("raw ballot head not preserved as reason")
		}
	}
}

func TestRun_GenerationFailureWritesNoArtifacts(t *testing.T) {
	gen := testutil.NewMockGenerator("plan one").
		WithErrorAt(1, errors.New("backend down"))
	writer := newMemWriter()
	rec := testutil.NewProgressRecorder()
	o := newTestOrchestrator(t, gen, writer, rec)

	_, err := o.Run(context.Background(), SessionConfig{Problem: "p", AgentCount: 2})
	if err == nil {
		t.Fatal("expected error")
	}
	if !core.IsCategory(err, core.ErrCatGeneration) {
		t.Errorf("category = %v, want generation", core.GetCategory(err))
	}
	if writer.count() != 0 {
		t.Errorf("artifacts written on abort: %d", writer.count())
	}
	if len(rec.OfType(core.ProgressSessionFailed)) != 1 {
		t.Error("session_failed event not emitted")
	}
	if len(rec.OfType(core.ProgressSessionCompleted)) != 0 {
		t.Error("session_completed emitted for a failed session")
	}
}

func TestRun_EmptyProblemRejected(t *testing.T) {
	o := newTestOrchestrator(t, testutil.NewMockGenerator(), newMemWriter(), nil)

	_, err := o.Run(context.Background(), SessionConfig{Problem: "   ", AgentCount: 2})
	if err == nil {
		t.Fatal("expected error")
	}
	if !core.IsCategory(err, core.ErrCatConfig) {
		t.Errorf("category = %v, want config", core.GetCategory(err))
	}
}

func TestRun_CancellationWritesNoArtifacts(t *testing.T) {
	writer := newMemWriter()
	o := newTestOrchestrator(t, testutil.NewMockGenerator("x"), writer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, SessionConfig{Problem: "p", AgentCount: 2})
	if err == nil {
		t.Fatal("expected error")
	}
	if !core.IsCategory(err, core.ErrCatCancelled) {
		t.Errorf("category = %v, want cancelled", core.GetCategory(err))
	}
	if writer.count() != 0 {
		t.Errorf("artifacts written on cancellation: %d", writer.count())
	}
}

func TestRun_PersistenceFailureSurfaced(t *testing.T) {
	gen := scriptFor(0,
		`{"votedFor": "Alpha", "reason": "a"}`,
		`{"votedFor": "Alpha", "reason": "b"}`)
	writer := newMemWriter()
	writer.err = errors.New("disk full")
	o := newTestOrchestrator(t, gen, writer, nil)

	_, err := o.Run(context.Background(), SessionConfig{Problem: "p", AgentCount: 2})
	if err == nil {
		t.Fatal("expected error")
	}
	if !core.IsCategory(err, core.ErrCatPersistence) {
		t.Errorf("category = %v, want persistence", core.GetCategory(err))
	}
}

func TestRun_ClampsAgentCount(t *testing.T) {
	gen := testutil.NewMockGenerator(`{"votedFor": "Alpha", "reason": "r"}`)
	rec := testutil.NewProgressRecorder()
	o := newTestOrchestrator(t, gen, newMemWriter(), rec)

	result, err := o.Run(context.Background(), SessionConfig{
		Problem:      "p",
		AgentCount:   99,
		ReviewRounds: -3,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Plans) != core.MaxAgents {
		t.Errorf("plans = %d, want clamped to %d", len(result.Plans), core.MaxAgents)
	}
	if len(rec.OfType(core.ProgressRoundCompleted)) != 0 {
		t.Error("review rounds ran despite negative round count")
	}
}

func TestRun_ProgressEventOrder(t *testing.T) {
	gen := scriptFor(1,
		`{"votedFor": "Beta", "reason": "a"}`,
		`{"votedFor": "Beta", "reason": "b"}`)
	rec := testutil.NewProgressRecorder()
	o := newTestOrchestrator(t, gen, newMemWriter(), rec)

	if _, err := o.Run(context.Background(), SessionConfig{Problem: "p", AgentCount: 2, ReviewRounds: 1}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	evs := rec.Events()
	if evs[0].Type != core.ProgressSessionStarted {
		t.Errorf("first event = %s", evs[0].Type)
	}
	if last := evs[len(evs)-1]; last.Type != core.ProgressSessionCompleted {
		t.Errorf("last event = %s", last.Type)
	}
	if votes := rec.OfType(core.ProgressVoteCast); len(votes) != 2 {
		t.Errorf("vote_cast events = %d, want 2", len(votes))
	}
	if winners := rec.OfType(core.ProgressWinner); len(winners) != 1 {
		t.Errorf("winner events = %d, want 1", len(winners))
	} else if winners[0].Message != "Winner: Beta" {
		t.Errorf("winner message = %q", winners[0].Message)
	}
	if rounds := rec.OfType(core.ProgressRoundCompleted); len(rounds) != 1 {
		t.Errorf("round_completed events = %d, want 1", len(rounds))
	}
}
