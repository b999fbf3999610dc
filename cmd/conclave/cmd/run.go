package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conclave-ai/conclave/internal/adapters/cli"
	"github.com/conclave-ai/conclave/internal/config"
	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
	"github.com/conclave-ai/conclave/internal/logging"
	"github.com/conclave-ai/conclave/internal/persona"
	"github.com/conclave-ai/conclave/internal/service"
	"github.com/conclave-ai/conclave/internal/service/report"
)

var (
	runAgents   int
	runRounds   int
	runAdapter  string
	runModel    string
	runCooldown string
	runTools    []string
	runOutDir   string
)

var runCmd = &cobra.Command{
	Use:   "run [problem]",
	Short: "Run a deliberation session on a problem statement",
	Long: `Run assembles the agent team and drives the full deliberation:
proposal, peer review, validation, synthesis, voting, and resolution.
The problem statement is taken from the argument, or from stdin when
the argument is "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeliberation,
}

func init() {
	runCmd.Flags().IntVar(&runAgents, "agents", 0, "number of agents (1-6)")
	runCmd.Flags().IntVar(&runRounds, "rounds", -1, "review rounds (0-5)")
	runCmd.Flags().StringVar(&runAdapter, "adapter", "", "generation backend (claude, gemini)")
	runCmd.Flags().StringVar(&runModel, "model", "", "model override for the backend")
	runCmd.Flags().StringVar(&runCooldown, "cooldown", "", "pause between agent calls (e.g. 500ms, 2s)")
	runCmd.Flags().StringSliceVar(&runTools, "tool", nil, "tool allowed to agents (repeatable)")
	runCmd.Flags().StringVar(&runOutDir, "output-dir", "", "artifact output directory")

	_ = viper.BindPFlag("adapter.name", runCmd.Flags().Lookup("adapter"))
	_ = viper.BindPFlag("adapter.model", runCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("output.dir", runCmd.Flags().Lookup("output-dir"))

	rootCmd.AddCommand(runCmd)
}

func runDeliberation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	problem, err := readProblem(args)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	if cmd.Flags().Changed("agents") {
		cfg.Session.Agents = core.ClampAgentCount(runAgents)
	}
	if cmd.Flags().Changed("rounds") {
		cfg.Session.ReviewRounds = core.ClampReviewRounds(runRounds)
	}
	if runCooldown != "" {
		d, err := time.ParseDuration(runCooldown)
		if err != nil {
			return fmt.Errorf("invalid --cooldown: %w", err)
		}
		cfg.Session.Cooldown = d
	}
	if len(runTools) > 0 {
		cfg.Session.Tools = runTools
	}

	generator, err := cli.NewGenerator(cfg.Adapter.Name, cli.Config{
		Path:    cfg.Adapter.Path,
		Model:   cfg.Adapter.Model,
		Timeout: cfg.Adapter.Timeout,
	}, logger)
	if err != nil {
		return err
	}

	catalog := buildCatalog(cfg, generator, logger)
	writer := report.NewWriter(report.Config{BaseDir: cfg.Output.Dir, Enabled: cfg.Output.Enabled})

	opts := []service.OrchestratorOption{service.WithLogger(logger)}
	flushProgress := func() {}
	if !quiet {
		bus := events.NewBus(256)
		sub := bus.Subscribe()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range sub {
				renderProgress(ev)
			}
		}()
		flushProgress = func() {
			bus.Close()
			<-done
			if n := bus.DroppedCount(); n > 0 {
				logger.Warn("progress events dropped", "count", n)
			}
		}
		opts = append(opts, service.WithProgressSink(bus))
	}

	orchestrator, err := service.NewOrchestrator(catalog, generator, writer, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := orchestrator.Run(ctx, service.SessionConfig{
		Problem:      problem,
		AgentCount:   cfg.Session.Agents,
		ReviewRounds: cfg.Session.ReviewRounds,
		Cooldown:     cfg.Session.Cooldown,
		ToolScope:    cfg.Session.Tools,
	})
	flushProgress()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("deliberation failed: "+err.Error()))
		return err
	}

	printResult(result)
	return nil
}

// loadConfig loads configuration with CLI flag bindings applied.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader = loader.WithConfigFile(cfgFile)
	}
	return loader.Load()
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// buildCatalog loads the persona catalog file. A missing or malformed file
// is absorbed: selection falls back to generated or synthetic personas.
func buildCatalog(cfg *config.Config, generator core.Generator, logger *logging.Logger) *persona.Catalog {
	personas, err := persona.LoadFile(cfg.Personas.File)
	if err != nil {
		logger.Warn("persona catalog unavailable, relying on fallbacks", "file", cfg.Personas.File, "error", err)
	}
	return persona.New(personas,
		persona.WithGenerator(generator),
		persona.WithLogger(logger))
}

// readProblem resolves the problem statement from args or stdin.
func readProblem(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("a problem statement is required (pass it as an argument, or \"-\" to read stdin)")
	}
	if args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading problem from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// renderProgress prints one styled line per progress event.
func renderProgress(ev core.ProgressEvent) {
	switch ev.Type {
	case core.ProgressPhaseStarted:
		fmt.Println(phaseStyle.Render("▶ " + ev.Message))
	case core.ProgressAgentCompleted:
		fmt.Println(agentStyle.Render("✓ " + ev.Message))
	case core.ProgressVoteCast:
		fmt.Println(voteStyle.Render("🗳 " + ev.Message))
	case core.ProgressWinner:
		fmt.Println(winnerStyle.Render(ev.Message))
	case core.ProgressSessionFailed:
		fmt.Println(errorStyle.Render(ev.Message))
	case core.ProgressSessionStarted, core.ProgressSessionCompleted:
		fmt.Println(mutedStyle.Render(ev.Message))
	}
}

func printResult(result *core.SessionResult) {
	fmt.Println()
	if result.IsTie() {
		fmt.Println(winnerStyle.Render("Tie between: " + strings.Join(result.Winners, ", ")))
	} else if len(result.Winners) == 1 {
		fmt.Println(winnerStyle.Render("Winner: " + result.Winners[0]))
	} else {
		fmt.Println(mutedStyle.Render("No votes were cast."))
	}
	fmt.Println(mutedStyle.Render(fmt.Sprintf("%d vote(s) for the leading candidate(s)", result.MaxVotes)))
}
