package cli

import (
	"context"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// GeminiGenerator runs prompts through the Gemini CLI.
type GeminiGenerator struct {
	config Config
	logger *logging.Logger
}

// NewGeminiGenerator creates a Gemini CLI generator.
func NewGeminiGenerator(cfg Config, logger *logging.Logger) *GeminiGenerator {
	if cfg.Path == "" {
		cfg.Path = "gemini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &GeminiGenerator{config: cfg, logger: logger.With("adapter", "gemini")}
}

// Name implements core.Generator.
func (g *GeminiGenerator) Name() string { return "gemini" }

// Ping checks whether the CLI binary is available.
func (g *GeminiGenerator) Ping(ctx context.Context) error {
	return checkAvailable(g.config.Path)
}

// Generate implements core.Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, req core.GenerateRequest, emit core.GenerateEventHandler) error {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}
	args := g.buildArgs(req)
	return runStream(ctx, g.logger, "gemini", g.config.Path, args, &GeminiStreamParser{}, emit)
}

// buildArgs constructs CLI arguments. Gemini has no separate system-prompt
// flag; the system context is prepended to the prompt.
func (g *GeminiGenerator) buildArgs(req core.GenerateRequest) []string {
	args := []string{
		"--output-format", "stream-json",
	}

	if g.config.Model != "" {
		args = append(args, "--model", g.config.Model)
	}

	args = append(args, g.config.ExtraArgs...)

	prompt := req.Prompt
	if req.SystemContext != "" {
		prompt = req.SystemContext + "\n\n" + prompt
	}
	args = append(args, "--prompt", prompt)
	return args
}
