package cli

import (
	"context"
	"strings"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// ClaudeGenerator runs prompts through the Claude Code CLI.
type ClaudeGenerator struct {
	config Config
	logger *logging.Logger
}

// NewClaudeGenerator creates a Claude CLI generator.
func NewClaudeGenerator(cfg Config, logger *logging.Logger) *ClaudeGenerator {
	if cfg.Path == "" {
		cfg.Path = "claude"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ClaudeGenerator{config: cfg, logger: logger.With("adapter", "claude")}
}

// Name implements core.Generator.
func (c *ClaudeGenerator) Name() string { return "claude" }

// Ping checks whether the CLI binary is available.
func (c *ClaudeGenerator) Ping(ctx context.Context) error {
	return checkAvailable(c.config.Path)
}

// Generate implements core.Generator.
func (c *ClaudeGenerator) Generate(ctx context.Context, req core.GenerateRequest, emit core.GenerateEventHandler) error {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}
	args := c.buildArgs(req)
	return runStream(ctx, c.logger, "claude", c.config.Path, args, &ClaudeStreamParser{}, emit)
}

// buildArgs constructs CLI arguments for non-interactive streaming output.
func (c *ClaudeGenerator) buildArgs(req core.GenerateRequest) []string {
	args := []string{
		"--print",
		"--output-format", "stream-json",
		"--verbose",
	}

	if c.config.Model != "" {
		args = append(args, "--model", c.config.Model)
	}
	if req.SystemContext != "" {
		args = append(args, "--append-system-prompt", req.SystemContext)
	}
	if len(req.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(req.AllowedTools, ","))
	}

	args = append(args, c.config.ExtraArgs...)
	args = append(args, req.Prompt)
	return args
}

// DefaultTimeout bounds one generation call when no timeout is configured.
const DefaultTimeout = 10 * time.Minute
